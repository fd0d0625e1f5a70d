package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Open and close the serial device towards the HMI.
 *
 * Description:	The rest of the daemon only sees the serial_port
 *		interface, so the tests can swap in the in-memory
 *		backend from fakeserial.go.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/term"
)

/*
 * Matches the shape of the blocking read / nonblocking write pair the
 * HMI protocol is built on.  blocking_read returns however many bytes
 * arrived within the timeout, possibly zero, and only fails for hard
 * I/O errors.
 */

type serial_port interface {
	blocking_read(buf []byte, timeout time.Duration) (int, error)
	nonblocking_write(data []byte) error
	close()
}

/*-------------------------------------------------------------------
 *
 * Name:	serial_open
 *
 * Purpose:	Open the serial device.
 *
 * Inputs:	devicename	- Usually /dev/tty...  A symbolic link
 *				  is resolved before opening.
 *
 *		baud		- Speed.  115200, 230400 bps, etc.
 *				  If 0, leave it alone.
 *
 * Returns:	Handle for serial port or an error.
 *
 *---------------------------------------------------------------*/

func serial_open(devicename string, baud int) (serial_port, error) {

	var stat, statErr = os.Lstat(devicename)
	if statErr != nil {
		return nil, fmt.Errorf("serial device '%s' does not exist: %w", devicename, statErr)
	}

	var resolvedname = devicename
	if stat.Mode()&os.ModeSymlink != 0 {
		var resolved, resolveErr = filepath.EvalSymlinks(devicename)
		if resolveErr != nil {
			return nil, fmt.Errorf("could not resolve serial device symlink '%s': %w", devicename, resolveErr)
		}
		resolvedname = resolved
	}

	var fd, openErr = term.Open(resolvedname, term.RawMode)
	if openErr != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", resolvedname, openErr)
	}

	// no XON/XOFF, the protocol is binary-ish and has its own framing
	fd.SetFlowControl(term.NONE)

	switch baud {
	case 0: /* Leave it alone. */
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800:
		fd.SetSpeed(baud)
	default:
		logger.Errorf("serial_open: unsupported speed %d, using 115200", baud)
		fd.SetSpeed(115200)
	}

	return &real_serial_port{fd: fd}, nil
}

type real_serial_port struct {
	fd *term.Term
}

func (port *real_serial_port) blocking_read(buf []byte, timeout time.Duration) (int, error) {

	// VTIME counts in tenths of a second, so sub-100ms timeouts
	// degrade to a non-blocking read.  Poll with a short sleep to
	// honour the requested timeout anyway.
	port.fd.SetReadTimeout(timeout)

	var deadline = time.Now().Add(timeout)

	for {
		var n, err = port.fd.Read(buf)

		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		if time.Now().After(deadline) {
			// nothing arrived within the timeout
			return 0, nil
		}

		time.Sleep(time.Millisecond)
	}
}

func (port *real_serial_port) nonblocking_write(data []byte) error {
	var _, err = port.fd.Write(data)
	return err
}

func (port *real_serial_port) close() {
	port.fd.Close()
}
