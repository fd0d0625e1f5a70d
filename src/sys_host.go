package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Server side of the audio host channel.
 *
 * Description:	A dedicated reader blocks on the incoming ring's
 *		semaphore.  All it does on wakeup is raise an atomic
 *		flag; the actual records are drained by the main loop
 *		from process(), so the HMI cache and the serial port
 *		stay single threaded.  The timed wait doubles as a
 *		periodic tick used to flush dirty audio processor
 *		state to disk from outside the main loop.
 *
 *---------------------------------------------------------------*/

import (
	"sync/atomic"
	"time"
)

const sys_host_wait_timeout = 5 * time.Second

type sys_host struct {
	shm *sys_serial_shm_data

	has_msgs       atomic.Int32
	running        atomic.Bool
	thread_stopped chan struct{}

	/* flushed opportunistically from the reader thread */
	audioproc *audioproc_state
}

/*-------------------------------------------------------------------
 *
 * Name:	sys_host_setup
 *
 * Purpose:	Create the shared memory region and start the reader.
 *
 *---------------------------------------------------------------*/

func sys_host_setup(shmname string, audioproc *audioproc_state) (*sys_host, error) {

	var shm, err = sys_serial_open(shmname, true)
	if err != nil {
		return nil, err
	}

	var host = &sys_host{
		shm:            shm,
		thread_stopped: make(chan struct{}),
		audioproc:      audioproc,
	}

	host.running.Store(true)
	go host.thread_run()

	return host, nil
}

func (host *sys_host) thread_run() {

	defer close(host.thread_stopped)

	for host.running.Load() {
		if host.shm.c2s.sem.timedwait(sys_host_wait_timeout) {
			host.has_msgs.Store(1)
		}

		if host.audioproc != nil {
			host.audioproc.flush()
		}
	}
}

func (host *sys_host) destroy() {
	host.running.Store(false)
	host.shm.c2s.sem.post()
	<-host.thread_stopped

	host.shm.close()
}

/*
 * True exactly once per reader wakeup; the caller then drains the
 * incoming ring.
 */
func (host *sys_host) take_has_msgs() bool {
	return host.has_msgs.CompareAndSwap(1, 0)
}

func (host *sys_host) read_event() (sys_serial_event, bool) {
	return sys_serial_event_read(host.shm.c2s)
}

/* Outbound, main thread only. */
func (host *sys_host) write_event(etype sys_msg_event_t, payload string) bool {
	var ok = sys_serial_event_write(host.shm.s2c, etype, 0, 0, payload)
	if !ok {
		logger.Errorf("sys_host: outgoing ring full, dropping event %d", etype)
	}
	return ok
}
