package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Process-shared counting semaphore living inside the
 *		shared memory region.
 *
 * Description:	The audio host and this daemon are separate processes
 *		so the usual in-process primitives don't apply.  The
 *		counter is a plain int32 in the mapped region, sleeps
 *		and wakeups go through the futex syscall without the
 *		private flag, which is exactly what a POSIX unnamed
 *		semaphore with pshared=1 boils down to on Linux.
 *
 *		32 bytes are reserved in the region layout, matching
 *		sizeof(sem_t), even though only the first four are
 *		used.
 *
 *---------------------------------------------------------------*/

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

/* Reserved space at the head of each ring, sizeof(sem_t) on 64bit. */
const mod_sem_size = 32

/* linux/futex.h op codes; not exposed as named constants by x/sys/unix. */
const (
	FUTEX_WAIT = 0
	FUTEX_WAKE = 1
)

type mod_semaphore struct {
	value *int32
}

func mod_sem_at(mem []byte) *mod_semaphore {
	return &mod_semaphore{value: (*int32)(unsafe.Pointer(&mem[0]))}
}

func (sem *mod_semaphore) init() {
	atomic.StoreInt32(sem.value, 0)
}

func (sem *mod_semaphore) post() {
	atomic.AddInt32(sem.value, 1)
	sem.futex(FUTEX_WAKE, 1, nil)
}

/*-------------------------------------------------------------------
 *
 * Name:	timedwait
 *
 * Purpose:	Decrement the semaphore, sleeping up to the given
 *		duration for it to become positive.
 *
 * Returns:	true if the semaphore was decremented, false on
 *		timeout.
 *
 *---------------------------------------------------------------*/

func (sem *mod_semaphore) timedwait(timeout time.Duration) bool {

	var deadline = time.Now().Add(timeout)

	for {
		var value = atomic.LoadInt32(sem.value)
		if value > 0 {
			if atomic.CompareAndSwapInt32(sem.value, value, value-1) {
				return true
			}
			continue
		}

		var remaining = time.Until(deadline)
		if remaining <= 0 {
			return false
		}

		var ts = unix.NsecToTimespec(remaining.Nanoseconds())
		sem.futex(FUTEX_WAIT, value, &ts)
	}
}

func (sem *mod_semaphore) futex(op int, value int32, ts *unix.Timespec) {
	var tsp uintptr
	if ts != nil {
		tsp = uintptr(unsafe.Pointer(ts))
	}

	// errors here (EAGAIN when the value moved, EINTR, ETIMEDOUT) all
	// just mean "reinspect the counter", which the callers do anyway
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(sem.value)),
		uintptr(op),
		uintptr(uint32(value)),
		tsp, 0, 0)
}
