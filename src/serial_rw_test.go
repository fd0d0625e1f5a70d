package syscontrol

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_SerialRead_InitialNoData(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	var buf [sp_read_buffer_size]byte

	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))
	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(hmi, buf[:]))
}

func Test_SerialRead_SimpleValidMessage(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	require.True(t, write_or_close(hmi, []byte("sys_ver 07 version")))

	var buf [sp_read_buffer_size]byte
	var ret = serial_read_msg_until_zero(sys, buf[:])

	require.Equal(t, sp_read_error_status(len("sys_ver 07 version")), ret)
	assert.Equal(t, "sys_ver 07 version", string(buf[:ret]))

	// there should be nothing more to read
	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))
}

func Test_SerialRead_BareCommand(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	require.True(t, write_or_close(hmi, []byte("sys_fuk")))

	var buf [sp_read_buffer_size]byte
	var ret = serial_read_msg_until_zero(sys, buf[:])

	require.Equal(t, sp_read_error_status(_CMD_SYS_LENGTH), ret)
	assert.Equal(t, "sys_fuk", string(buf[:ret]))
}

// A command that stops short inside the size field is indistinguishable
// from a peer that went away mid-message, so it reads as "no data".
func Test_SerialRead_TruncatedDataSize(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	var buf [sp_read_buffer_size]byte

	require.True(t, write_or_close(hmi, []byte("sys_ver 0")))
	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))

	require.True(t, write_or_close(hmi, []byte("sys_ver 00")))
	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))
}

func Test_SerialRead_DataSizeTooSmall(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	require.True(t, write_or_close(hmi, []byte("sys_ver 04 version")))

	var buf [sp_read_buffer_size]byte
	assert.Equal(t, SP_READ_ERROR_INVALID_DATA, serial_read_msg_until_zero(sys, buf[:]))

	// fixup serial after the broken message
	assert.Equal(t, sp_read_error_status(0), serial_read_ignore_until_zero(sys))
	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))
}

func Test_SerialRead_DataSizeTooBig(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	require.True(t, write_or_close(hmi, []byte("sys_ver 0f version")))

	var buf [sp_read_buffer_size]byte
	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))
}

// The size field is trusted over the content, garbage decodes fine as
// long as it is internally consistent.
func Test_SerialRead_CorruptDataConsistentSize(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	require.True(t, write_or_close(hmi, []byte("sys_ver 04 :`[!")))

	var buf [sp_read_buffer_size]byte
	var ret = serial_read_msg_until_zero(sys, buf[:])

	require.Equal(t, sp_read_error_status(len("sys_ver 04 :`[!")), ret)
	assert.Equal(t, "sys_ver 04 :`[!", string(buf[:ret]))
}

func Test_SerialRead_ProseThenValidFrame(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	require.True(t, write_or_close(hmi, []byte("Lorem ipsum dolor sit com")))

	var buf [sp_read_buffer_size]byte
	assert.Equal(t, SP_READ_ERROR_INVALID_DATA, serial_read_msg_until_zero(sys, buf[:]))
	assert.Equal(t, sp_read_error_status(0), serial_read_ignore_until_zero(sys))

	require.True(t, write_or_close(hmi, []byte("sys_ver 07 version")))

	var ret = serial_read_msg_until_zero(sys, buf[:])
	require.Equal(t, sp_read_error_status(len("sys_ver 07 version")), ret)
	assert.Equal(t, "sys_ver 07 version", string(buf[:ret]))
}

// A single stray null before the command is shifted off (peer reset
// mid-frame), a run of nulls is idle padding.
func Test_SerialRead_LeadingNulls(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	var buf [sp_read_buffer_size]byte

	require.NoError(t, hmi.nonblocking_write([]byte("\x00sys_ver 07 version\x00")))

	var ret = serial_read_msg_until_zero(sys, buf[:])
	require.Equal(t, sp_read_error_status(len("sys_ver 07 version")), ret)
	assert.Equal(t, "sys_ver 07 version", string(buf[:ret]))

	require.NoError(t, hmi.nonblocking_write(bytes.Repeat([]byte{0}, 8)))
	require.True(t, write_or_close(hmi, []byte("sys_ver 07 version")))

	assert.Equal(t, SP_READ_ERROR_NO_DATA, serial_read_msg_until_zero(sys, buf[:]))

	ret = serial_read_msg_until_zero(sys, buf[:])
	require.Equal(t, sp_read_error_status(len("sys_ver 07 version")), ret)
}

func Test_SerialRead_PayloadBoundaries(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	var buf [sp_read_buffer_size]byte

	// smallest legal payload
	require.True(t, write_or_close(hmi, []byte("sys_val 01 5")))
	var ret = serial_read_msg_until_zero(sys, buf[:])
	require.Equal(t, sp_read_error_status(12), ret)
	assert.Equal(t, "sys_val 01 5", string(buf[:ret]))

	// largest size the parser accepts
	var biggest = "sys_ver f6 " + string(bytes.Repeat([]byte{'x'}, 0xf6))
	require.True(t, write_or_close(hmi, []byte(biggest)))
	ret = serial_read_msg_until_zero(sys, buf[:])
	require.Equal(t, sp_read_error_status(len(biggest)), ret)

	// 0xff overflows the carrier and is rejected outright
	require.True(t, write_or_close(hmi, []byte("sys_ver ff junk")))
	assert.Equal(t, SP_READ_ERROR_INVALID_DATA, serial_read_msg_until_zero(sys, buf[:]))
	assert.Equal(t, sp_read_error_status(0), serial_read_ignore_until_zero(sys))
}

func Test_Encode_Unquoted(t *testing.T) {
	assert.Equal(t, []byte("sys_led 05 2 red"), encode_sys_msg(CMD_SYS_LED_BLINK, "2 red", false))
	assert.Equal(t, []byte("sys_ver"), encode_sys_msg(CMD_SYS_VERSION, "", false))
	assert.Nil(t, encode_sys_msg("bogus", "x", false))
}

func Test_Encode_Quoted(t *testing.T) {
	// the two quote bytes count towards the size field
	assert.Equal(t, []byte("sys_lbl 08 0 \"Gain\""), encode_sys_msg(CMD_SYS_DISPLAY_LABEL, "0 Gain", true))

	// quoting needs an actuator prefix to split on
	assert.Nil(t, encode_sys_msg(CMD_SYS_DISPLAY_LABEL, "Gain", true))
}

func Test_Encode_SizeLimit(t *testing.T) {
	var limit = SP_MAX_MSG_SIZE - _CMD_SYS_ARG_OFFSET - 1

	assert.NotNil(t, encode_sys_msg(CMD_SYS_VERSION, string(bytes.Repeat([]byte{'x'}, limit)), false))
	assert.Nil(t, encode_sys_msg(CMD_SYS_VERSION, string(bytes.Repeat([]byte{'x'}, limit+1)), false))
}

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOfN(rapid.ByteRange(0x01, 0xff), 1, SP_MAX_MSG_SIZE-_CMD_SYS_ARG_OFFSET-1).Draw(t, "payload")

		var sys, hmi = open_fake_serial_pair()

		var frame = encode_sys_msg(CMD_SYS_VERSION, string(payload), false)
		require.NotNil(t, frame)
		require.True(t, write_or_close(hmi, frame))

		var buf [sp_read_buffer_size]byte
		var ret = serial_read_msg_until_zero(sys, buf[:])

		require.Equal(t, sp_read_error_status(len(frame)), ret)
		assert.Equal(t, CMD_SYS_VERSION, string(buf[:_CMD_SYS_LENGTH]))
		assert.Equal(t, string(payload), string(buf[_CMD_SYS_ARG_OFFSET:ret]))
	})
}

func Test_EncodeDecode_QuotedRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var actuator = rapid.IntRange(0, 9).Draw(t, "actuator")
		var text = rapid.StringMatching(`[ -!#-~]{1,100}`).Draw(t, "text")

		var sys, hmi = open_fake_serial_pair()

		var frame = encode_sys_msg(CMD_SYS_DISPLAY_LABEL, strconv.Itoa(actuator)+" "+text, true)
		require.NotNil(t, frame)
		require.True(t, write_or_close(hmi, frame))

		var buf [sp_read_buffer_size]byte
		var ret = serial_read_msg_until_zero(sys, buf[:])

		require.Greater(t, int(ret), 0)
		assert.Equal(t, strconv.Itoa(actuator)+" \""+text+"\"", string(buf[_CMD_SYS_ARG_OFFSET:ret]))
	})
}

// After any invalid-data verdict, one drain realigns the stream so
// the next read is either clean or idle, never a leftover of the
// broken frame.
func Test_Drain_RealignsAfterGarbage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var garbage = rapid.SliceOfN(rapid.ByteRange(0x01, 0xff), 1, 200).Filter(func(b []byte) bool {
			return b[0] != 's' && b[0] != 0
		}).Draw(t, "garbage")

		var sys, hmi = open_fake_serial_pair()

		require.NoError(t, hmi.nonblocking_write(append(garbage, 0)))

		var buf [sp_read_buffer_size]byte
		var ret = serial_read_msg_until_zero(sys, buf[:])

		for ret == SP_READ_ERROR_INVALID_DATA {
			serial_read_ignore_until_zero(sys)
			ret = serial_read_msg_until_zero(sys, buf[:])
		}

		// once realigned the line reads as idle, never as leftovers
		require.Equal(t, SP_READ_ERROR_NO_DATA, ret)

		require.True(t, write_or_close(hmi, []byte("sys_ver 07 version")))

		ret = serial_read_msg_until_zero(sys, buf[:])
		require.Equal(t, sp_read_error_status(len("sys_ver 07 version")), ret)
		assert.Equal(t, "sys_ver 07 version", string(buf[:ret]))
	})
}

func Test_WriteOrClose_DeadPeer(t *testing.T) {
	var sys, hmi = open_fake_serial_pair()

	hmi.close()

	assert.False(t, write_or_close(sys, []byte("r 0")))
}

func Test_ParseHexDataSize(t *testing.T) {
	assert.Equal(t, 0x07, parse_hex_data_size([]byte("07")))
	assert.Equal(t, 0xff, parse_hex_data_size([]byte("ff")))
	assert.Equal(t, 0x0a, parse_hex_data_size([]byte("0a")))

	// strtol tolerance: parsing stops at the first non-digit
	assert.Equal(t, 0, parse_hex_data_size([]byte("0 ")))
	assert.Equal(t, 0, parse_hex_data_size([]byte("zz")))
}
