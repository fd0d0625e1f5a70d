package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Shared memory transport between this daemon and the
 *		audio host.
 *
 * Description:	One region, two 8192 byte channels back to back:
 *		client to server first, server to client second.  Each
 *		channel is
 *
 *			sem	32 bytes (see mod_semaphore.go)
 *			head	uint32, producer owned
 *			tail	uint32, consumer owned
 *			bytes	the rest, a ring of 8152 bytes
 *
 *		Single producer, single consumer per channel.  One
 *		cell stays unused so head == tail always means empty.
 *
 *		Records on the ring are
 *
 *			event_type | page | subpage | payload | 0
 *
 *		The server creates and unlinks the region, the client
 *		just maps it.
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const SYS_SERIAL_SHM = "/sys_msgs"

const sys_serial_shm_channel_size = 8192

// must be 8192 - sizeof sem - head - tail, so we cleanly align to 64bits
const SYS_SERIAL_SHM_DATA_SIZE = sys_serial_shm_channel_size - mod_sem_size - 8

const sys_serial_shm_total_size = sys_serial_shm_channel_size * 2

type sys_serial_ring struct {
	sem  *mod_semaphore
	head *uint32
	tail *uint32
	data []byte
}

type sys_serial_shm_data struct {
	fd     int
	mem    []byte
	name   string
	server bool

	/* client to server and server to client channels */
	c2s *sys_serial_ring
	s2c *sys_serial_ring
}

func sys_serial_ring_at(mem []byte) *sys_serial_ring {
	return &sys_serial_ring{
		sem:  mod_sem_at(mem),
		head: (*uint32)(unsafe.Pointer(&mem[mod_sem_size])),
		tail: (*uint32)(unsafe.Pointer(&mem[mod_sem_size+4])),
		data: mem[mod_sem_size+8 : sys_serial_shm_channel_size],
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	sys_serial_open
 *
 * Purpose:	Create (server) or attach to (client) the shared
 *		memory region.
 *
 * Inputs:	name	- Region name, "/sys_msgs" in production.
 *
 *		server	- Whether we own the region lifetime.
 *
 *---------------------------------------------------------------*/

func sys_serial_open(name string, server bool) (*sys_serial_shm_data, error) {

	var path = "/dev/shm" + name

	var fd int
	var err error

	if server {
		fd, err = unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0600)
	} else {
		fd, err = unix.Open(path, unix.O_RDWR, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("shm_open %s failed: %w", name, err)
	}

	if server {
		if err = unix.Ftruncate(fd, sys_serial_shm_total_size); err != nil {
			unix.Close(fd)
			unix.Unlink(path)
			return nil, fmt.Errorf("ftruncate failed: %w", err)
		}
	}

	var mem []byte
	mem, err = unix.Mmap(fd, 0, sys_serial_shm_total_size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		if server {
			unix.Unlink(path)
		}
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	var data = &sys_serial_shm_data{
		fd:     fd,
		mem:    mem,
		name:   name,
		server: server,
		c2s:    sys_serial_ring_at(mem[:sys_serial_shm_channel_size]),
		s2c:    sys_serial_ring_at(mem[sys_serial_shm_channel_size:]),
	}

	if server {
		for i := range mem {
			mem[i] = 0
		}
		data.c2s.sem.init()
		data.s2c.sem.init()
	}

	return data, nil
}

func (data *sys_serial_shm_data) close() {
	unix.Munmap(data.mem)
	unix.Close(data.fd)

	if data.server {
		unix.Unlink("/dev/shm" + data.name)
	}
}

/*
 * Ring accounting.  head and tail always stay below the ring size,
 * advancing wraps explicitly.
 */

func (ring *sys_serial_ring) size() uint32 {
	return uint32(len(ring.data))
}

func (ring *sys_serial_ring) used() uint32 {
	var head = atomic.LoadUint32(ring.head)
	var tail = atomic.LoadUint32(ring.tail)
	return (head + ring.size() - tail) % ring.size()
}

func (ring *sys_serial_ring) available() uint32 {
	return ring.size() - 1 - ring.used()
}

/*-------------------------------------------------------------------
 *
 * Name:	write
 *
 * Purpose:	Append bytes to the ring.  Producer side only.
 *
 * Returns:	false, without touching the ring, when the record
 *		does not fit.
 *
 *---------------------------------------------------------------*/

func (ring *sys_serial_ring) write(record []byte) bool {

	if uint32(len(record)) > ring.available() {
		return false
	}

	var head = atomic.LoadUint32(ring.head)
	var first = copy(ring.data[head:], record)
	if first < len(record) {
		copy(ring.data, record[first:])
	}

	atomic.StoreUint32(ring.head, (head+uint32(len(record)))%ring.size())
	return true
}

/*-------------------------------------------------------------------
 *
 * Name:	read_record
 *
 * Purpose:	Pop one null terminated event record off the ring.
 *		Consumer side only.
 *
 * Returns:	The record bytes without the terminating null, or nil
 *		when the ring holds no complete record.
 *
 *---------------------------------------------------------------*/

func (ring *sys_serial_ring) read_record() []byte {

	var used = ring.used()
	if used == 0 {
		return nil
	}

	var tail = atomic.LoadUint32(ring.tail)
	var size = ring.size()

	// locate the terminator within the readable span; the three
	// header bytes (type, page, subpage) may be zero, so the search
	// starts after them
	var length = -1
	for i := uint32(3); i < used; i++ {
		if ring.data[(tail+i)%size] == '\x00' {
			length = int(i)
			break
		}
	}

	if length < 0 {
		// partially published record, reader came too early
		return nil
	}

	var record = make([]byte, length)
	var first = copy(record, ring.data[tail:min(tail+uint32(length), size)])
	if first < length {
		copy(record[first:], ring.data)
	}

	atomic.StoreUint32(ring.tail, (tail+uint32(length)+1)%size)
	return record
}

/*
 * Event framing on top of the raw ring.
 */

func sys_serial_event_write(ring *sys_serial_ring, etype sys_msg_event_t, page byte, subpage byte, payload string) bool {

	if bytes.IndexByte([]byte(payload), '\x00') >= 0 {
		return false
	}

	var record = make([]byte, 0, len(payload)+4)
	record = append(record, byte(etype), page, subpage)
	record = append(record, payload...)
	record = append(record, '\x00')

	if !ring.write(record) {
		return false
	}

	ring.sem.post()
	return true
}

type sys_serial_event struct {
	etype   sys_msg_event_t
	page    byte
	subpage byte
	payload string
}

/* Returns ok=false when the ring is drained. */
func sys_serial_event_read(ring *sys_serial_ring) (sys_serial_event, bool) {

	var record = ring.read_record()
	if record == nil {
		return sys_serial_event{}, false
	}

	if len(record) < 3 {
		// framing too short to carry a header, skip it
		return sys_serial_event{}, true
	}

	return sys_serial_event{
		etype:   sys_msg_event_t(record[0]),
		page:    record[1],
		subpage: record[2],
		payload: string(record[3:]),
	}, true
}
