package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	In-memory serial backend for tests.
 *
 * Description:	Two ports, "sys" and "hmi", wired back to back: what
 *		one side writes lands in the other side's read buffer.
 *		Each port keeps its peer as an index into a small
 *		registry rather than a direct reference, so the two
 *		sides don't hold each other alive and a close can
 *		sever the link cleanly.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const SP_BUFFER_SIZE = 4096

const (
	fake_serial_sys = 0
	fake_serial_hmi = 1
)

type fake_serial_registry struct {
	mutex sync.Mutex
	cells [2]*fake_serial_port
}

func fake_serial_registry_new() *fake_serial_registry {
	return &fake_serial_registry{}
}

/*
 * Opens one side of the pair.  Valid names are "sys" and "hmi", each
 * may be open only once.
 */
func (registry *fake_serial_registry) open(name string) (*fake_serial_port, error) {

	var index int
	switch name {
	case "sys":
		index = fake_serial_sys
	case "hmi":
		index = fake_serial_hmi
	default:
		return nil, fmt.Errorf("invalid serial to open: '%s'", name)
	}

	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	if registry.cells[index] != nil {
		return nil, fmt.Errorf("'%s' serial already open", name)
	}

	var port = &fake_serial_port{
		registry: registry,
		index:    index,
		datac:    make(chan struct{}, 1),
	}

	registry.cells[index] = port

	return port, nil
}

/* Peer lookup by index; nil when the other side is closed or not yet open. */
func (registry *fake_serial_registry) otherside(index int) *fake_serial_port {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return registry.cells[1-index]
}

type fake_serial_port struct {
	registry *fake_serial_registry
	index    int

	mutex  sync.Mutex
	buffer []byte /* pending readable bytes, bounded by SP_BUFFER_SIZE */
	datac  chan struct{}
}

func (port *fake_serial_port) blocking_read(buf []byte, timeout time.Duration) (int, error) {

	var deadline = time.Now().Add(timeout)

	for {
		port.mutex.Lock()
		if len(port.buffer) > 0 {
			var n = copy(buf, port.buffer)
			port.buffer = port.buffer[n:]
			port.mutex.Unlock()
			return n, nil
		}
		port.mutex.Unlock()

		var remaining = time.Until(deadline)
		if remaining <= 0 {
			return 0, nil
		}

		select {
		case <-port.datac:
		case <-time.After(remaining):
		}
	}
}

func (port *fake_serial_port) nonblocking_write(data []byte) error {

	var other = port.registry.otherside(port.index)
	if other == nil {
		return unix.EIO
	}

	other.mutex.Lock()
	if len(other.buffer)+len(data) > SP_BUFFER_SIZE {
		other.mutex.Unlock()
		return errors.New("fake serial buffer overflow")
	}
	other.buffer = append(other.buffer, data...)
	other.mutex.Unlock()

	select {
	case other.datac <- struct{}{}:
	default:
	}

	return nil
}

func (port *fake_serial_port) close() {
	port.registry.mutex.Lock()
	if port.registry.cells[port.index] == port {
		port.registry.cells[port.index] = nil
	}
	port.registry.mutex.Unlock()

	port.mutex.Lock()
	port.buffer = nil
	port.mutex.Unlock()
}
