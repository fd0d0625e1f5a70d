package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Framed message read/write on the serial link.
 *
 * Description:	Messages look like
 *
 *			sys_xyz ss data
 *
 *		with a terminating null byte, where "sys_xyz" is the
 *		7 byte command, "ss" is the payload size in lowercase
 *		hexadecimal and "data" is the payload.  A command can
 *		also arrive bare, as just "sys_xyz" plus the null.
 *
 *		The stream is assumed hostile: the HMI can reset in
 *		the middle of a message, pad the line with nulls, or
 *		feed us prose.  Reads use short timeouts so the main
 *		loop can interleave the shared memory work, and a
 *		failed parse is reported distinctly from an idle line
 *		so the caller knows when to resynchronise with
 *		serial_read_ignore_until_zero.
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

type sp_read_error_status int

const (
	/* there was nothing to read, try again */
	SP_READ_ERROR_NO_DATA sp_read_error_status = -1
	/* we read something, but data was invalid. call serial_read_ignore_until_zero next */
	SP_READ_ERROR_INVALID_DATA sp_read_error_status = -2
	/* IO error while reading, likely due to serial device being disconnected */
	SP_READ_ERROR_IO sp_read_error_status = -3
)

const SP_BLOCKING_READ_TIMEOUT = 20 * time.Millisecond

/* Working buffers need room for the worst case the size field can claim. */
const sp_read_buffer_size = SP_MAX_MSG_SIZE + _CMD_SYS_LENGTH + _CMD_SYS_DATA_LENGTH + 2

func imax(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

/*-------------------------------------------------------------------
 *
 * Name:	serial_read_msg_until_zero
 *
 * Purpose:	Read one full framed message from the serial port.
 *
 * Inputs:	serialport	- Port to read from.
 *
 *		buf		- Carrier, at least sp_read_buffer_size
 *				  bytes.  On success it holds the full
 *				  message without the trailing null.
 *
 * Returns:	Message size in bytes (>= 0), or one of the negative
 *		sp_read_error_status values.
 *
 * Description:	The size prefix is read in three stages, command
 *		first, then the two digit size, then the payload, each
 *		with its own short timeout.  A partial read gets one
 *		supplementary read with a tenth of the main timeout
 *		before giving up, which is enough to bridge a transfer
 *		that got cut between two buffers.  Whether the last
 *		byte read was a null decides between "line went idle
 *		mid message" and "garbage on the line".
 *
 *---------------------------------------------------------------*/

func serial_read_msg_until_zero(serialport serial_port, buf []byte) sp_read_error_status {

	// read command
	var ret, err = serialport.blocking_read(buf[:_CMD_SYS_LENGTH+1], SP_BLOCKING_READ_TIMEOUT)
	if err != nil {
		return SP_READ_ERROR_IO
	}

	// shift by 1 byte if message starts with a null byte
	if ret > 1 && buf[0] == '\x00' && buf[1] != '\x00' {
		copy(buf, buf[1:ret])
		ret--
	}

	// there was nothing to read
	if ret == 0 {
		return SP_READ_ERROR_NO_DATA
	}

	// check for all zeros, treat as if we read nothing
	var allzeros = make([]byte, ret)
	if bytes.Equal(buf[:ret], allzeros) {
		return SP_READ_ERROR_NO_DATA
	}

	if ret < _CMD_SYS_LENGTH+1 {
		// if we read the beginning of a valid message, maybe we got cut off, let's check for that
		var completed = false
		if ret >= len(_CMD_SYS_PREFIX) && string(buf[:len(_CMD_SYS_PREFIX)]) == _CMD_SYS_PREFIX {
			var oldret = ret
			var ret2, err2 = serialport.blocking_read(buf[oldret:_CMD_SYS_LENGTH+1], imax(SP_BLOCKING_READ_TIMEOUT/10, time.Millisecond))
			if err2 != nil {
				return SP_READ_ERROR_IO
			}
			if ret2 > 0 && ret2+oldret == _CMD_SYS_LENGTH+1 {
				ret = _CMD_SYS_LENGTH + 1
				completed = true
			}
		}

		if !completed {
			logger.Debugf("serial_read_msg_until_zero failed, reading command timed out or error, ret %d", ret)
			return SP_READ_ERROR_INVALID_DATA
		}
	}

	// check if message is valid
	if string(buf[:len(_CMD_SYS_PREFIX)]) != _CMD_SYS_PREFIX {
		logger.Debugf("serial_read_msg_until_zero failed, invalid command received")
		return SP_READ_ERROR_INVALID_DATA
	}

	// message was read in full (only has command), we can stop here
	if buf[_CMD_SYS_LENGTH] == '\x00' {
		return _CMD_SYS_LENGTH
	}

	if buf[_CMD_SYS_LENGTH] != ' ' {
		logger.Debugf("serial_read_msg_until_zero failed, command is missing space delimiter")
		return SP_READ_ERROR_INVALID_DATA
	}

	// message has more data on it, let's fetch the data size
	var reading_offset = _CMD_SYS_LENGTH + 1
	ret, err = serialport.blocking_read(buf[reading_offset:reading_offset+_CMD_SYS_DATA_LENGTH+1], SP_BLOCKING_READ_TIMEOUT)
	if err != nil {
		return SP_READ_ERROR_IO
	}

	if ret < _CMD_SYS_DATA_LENGTH+1 {
		logger.Debugf("serial_read_msg_until_zero failed, reading command data size timed out or error %d", ret)
		if ret > 0 && buf[reading_offset+ret-1] == '\x00' {
			return SP_READ_ERROR_NO_DATA
		}
		return SP_READ_ERROR_INVALID_DATA
	}

	// check that data size is correct
	var data_size = parse_hex_data_size(buf[reading_offset : reading_offset+_CMD_SYS_DATA_LENGTH])

	if data_size <= 0 || data_size > SP_MAX_MSG_SIZE-reading_offset-1 {
		logger.Debugf("serial_read_msg_until_zero failed, incorrect command data size '%s'", string(buf[reading_offset:reading_offset+_CMD_SYS_DATA_LENGTH]))
		if buf[reading_offset+ret-1] == '\x00' {
			return SP_READ_ERROR_NO_DATA
		}
		return SP_READ_ERROR_INVALID_DATA
	}

	// NOTE does not include cmd and size prefix
	var total_msg_size = data_size

	// read the full message now
	reading_offset += _CMD_SYS_DATA_LENGTH + 1
	ret, err = serialport.blocking_read(buf[reading_offset:reading_offset+total_msg_size+1], SP_BLOCKING_READ_TIMEOUT)
	if err != nil {
		return SP_READ_ERROR_IO
	}

	if ret < total_msg_size+1 {
		// if we read a few bytes maybe we got cancelled, try again one more time
		var ret2 int
		if ret > 0 {
			ret2, err = serialport.blocking_read(buf[reading_offset+ret:reading_offset+total_msg_size+1], imax(SP_BLOCKING_READ_TIMEOUT/10, time.Millisecond))
			if err != nil {
				return SP_READ_ERROR_IO
			}
		}

		if ret+ret2 < total_msg_size {
			logger.Debugf("serial_read_msg_until_zero failed, reading full message data timed out or error")
			if ret > 0 && buf[reading_offset+ret-1] == '\x00' {
				return SP_READ_ERROR_NO_DATA
			}
			return SP_READ_ERROR_INVALID_DATA
		}
	}

	// add cmd and data size for the correct total size
	total_msg_size += _CMD_SYS_ARG_OFFSET

	if buf[total_msg_size] != '\x00' {
		logger.Debugf("serial_read_msg_until_zero failed, full message is not null terminated")
		return SP_READ_ERROR_INVALID_DATA
	}

	return sp_read_error_status(total_msg_size)
}

/*
 * Same tolerance as strtol(.., 16): leading valid digits count, the
 * rest is ignored, no digits at all yields zero.
 */
func parse_hex_data_size(digits []byte) int {
	var value = 0
	for _, c := range digits {
		switch {
		case c >= '0' && c <= '9':
			value = value*16 + int(c-'0')
		case c >= 'a' && c <= 'f':
			value = value*16 + int(c-'a'+10)
		case c >= 'A' && c <= 'F':
			value = value*16 + int(c-'A'+10)
		default:
			return value
		}
	}
	return value
}

/*-------------------------------------------------------------------
 *
 * Name:	serial_read_ignore_until_zero
 *
 * Purpose:	Throw away bytes until the next frame boundary.
 *
 * Returns:	0 once a null byte was consumed, otherwise an error
 *		status.
 *
 * Description:	Called after SP_READ_ERROR_INVALID_DATA so the next
 *		serial_read_msg_until_zero starts at a frame boundary
 *		again.
 *
 *---------------------------------------------------------------*/

func serial_read_ignore_until_zero(serialport serial_port) sp_read_error_status {

	var c [1]byte
	var timeout = imax(SP_BLOCKING_READ_TIMEOUT/2, time.Millisecond)

	for {
		var ret, err = serialport.blocking_read(c[:], timeout)

		if err != nil {
			return SP_READ_ERROR_IO
		}
		if ret == 0 {
			return SP_READ_ERROR_NO_DATA
		}
		if ret != 1 {
			return SP_READ_ERROR_INVALID_DATA
		}
		if c[0] == '\x00' {
			return 0
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	encode_sys_msg
 *
 * Purpose:	Build a full outgoing frame from command and payload.
 *
 * Inputs:	cmd	- The 7 byte command.
 *
 *		payload	- Payload, empty for a bare command.
 *
 *		quoted	- When true the payload must look like
 *			  "N rest" with N an actuator id; it is sent
 *			  as N "rest" and the two quote bytes are
 *			  included in the size field.
 *
 * Returns:	The frame without the trailing null (write_or_close
 *		adds that), or nil if it cannot be represented.
 *
 *---------------------------------------------------------------*/

func encode_sys_msg(cmd string, payload string, quoted bool) []byte {

	if len(cmd) != _CMD_SYS_LENGTH || !strings.HasPrefix(cmd, _CMD_SYS_PREFIX) {
		return nil
	}

	if payload == "" {
		return []byte(cmd)
	}

	if quoted {
		var sep = strings.IndexByte(payload, ' ')
		if sep <= 0 {
			return nil
		}
		payload = payload[:sep] + " \"" + payload[sep+1:] + "\""
	}

	if len(payload) > SP_MAX_MSG_SIZE-_CMD_SYS_ARG_OFFSET-1 {
		return nil
	}

	var hexadecimals = "0123456789abcdef"
	var frame = make([]byte, 0, _CMD_SYS_ARG_OFFSET+len(payload))
	frame = append(frame, cmd...)
	frame = append(frame, ' ', hexadecimals[len(payload)/16], hexadecimals[len(payload)&15], ' ')
	frame = append(frame, payload...)

	return frame
}

/*-------------------------------------------------------------------
 *
 * Name:	write_or_close
 *
 * Purpose:	Send one message, null terminated, to the peer.
 *
 * Returns:	false on I/O error, in which case the port has been
 *		closed and the caller must stop using it.  Any other
 *		failure is treated as transient and reported as ok.
 *
 *---------------------------------------------------------------*/

func write_or_close(serialport serial_port, msg []byte) bool {

	var data = make([]byte, len(msg)+1)
	copy(data, msg)

	var err = serialport.nonblocking_write(data)

	if err != nil && errors.Is(err, unix.EIO) {
		serialport.close()
		return false
	}

	return true
}

/*-------------------------------------------------------------------
 *
 * Name:	serial_read_response
 *
 * Purpose:	Read one "r ..." reply.
 *
 * Description:	NOTE: DO NOT USE, needed only for tests.  The daemon
 *		never parses replies, but the tests play the HMI role
 *		and do.
 *
 *---------------------------------------------------------------*/

func serial_read_response(serialport serial_port) (string, bool) {

	var buf [SP_MAX_MSG_SIZE]byte

	// read first byte
	var reading_offset = 0
	var ret, err = serialport.blocking_read(buf[:1], SP_BLOCKING_READ_TIMEOUT)

	if err != nil || ret != 1 || buf[0] != 'r' {
		return "", false
	}

	// read resp code
	reading_offset++
	ret, err = serialport.blocking_read(buf[reading_offset:reading_offset+2], SP_BLOCKING_READ_TIMEOUT)

	if err != nil || ret != 2 || buf[1] != ' ' {
		return "", false
	}

	// if negative resp code, read one more byte and stop here
	if buf[2] == '-' {
		reading_offset += 2
		ret, err = serialport.blocking_read(buf[reading_offset:reading_offset+2], SP_BLOCKING_READ_TIMEOUT)

		if err != nil || ret != 2 || buf[4] != '\x00' {
			return "", false
		}

		return string(buf[:4]), true
	}

	// read everything byte by byte until zero
	reading_offset += 2
	for {
		ret, err = serialport.blocking_read(buf[reading_offset:reading_offset+1], SP_BLOCKING_READ_TIMEOUT)

		if err != nil || ret != 1 {
			return "", false
		}

		if buf[reading_offset] == '\x00' {
			return string(buf[:reading_offset]), true
		}

		reading_offset++
	}
}
