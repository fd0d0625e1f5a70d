package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Persistent compressor / noise gate / pedalboard gain
 *		state.
 *
 * Description:	Six values, one per line, in /data/audioproc.txt.
 *		The file is advisory: any parse failure or out of
 *		range value throws the whole file away and the
 *		variant defaults apply.  Setters update the value in
 *		memory, post the matching event to the audio host and
 *		mark the state dirty; the host reader thread flushes
 *		dirty state to disk on its next tick.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

type audioproc_values struct {
	compressor_mode     int     /* 0..4 */
	compressor_release  float64 /* 50.0 .. 500.0 ms */
	pedalboard_gain     float64 /* -30.0 .. 20.0 dB */
	noisegate_channel   int     /* 0..3 */
	noisegate_decay     float64 /* 1.0 .. 500.0 ms */
	noisegate_threshold float64 /* -70.0 .. -10.0 dB */
}

func audioproc_defaults(device *device_descriptor) audioproc_values {
	return audioproc_values{
		compressor_mode:     device.DefaultCompressorMode,
		compressor_release:  100.0,
		pedalboard_gain:     0.0,
		noisegate_channel:   0,
		noisegate_decay:     10.0,
		noisegate_threshold: -60.0,
	}
}

type audioproc_state struct {
	path   string
	values audioproc_values

	/* values are written by the main thread only; the flag hands
	   flushing over to the host reader thread */
	values_changed atomic.Bool

	host *sys_host
}

func audioproc_init(path string, device *device_descriptor) *audioproc_state {

	var state = &audioproc_state{
		path:   path,
		values: audioproc_defaults(device),
	}

	state.load(device)

	return state
}

/*------------------------------------------------------------------
 *
 * Function:	load
 *
 * Purpose:	Read and validate the state file.
 *
 * Description:	Order and ranges are fixed.  A single bad line
 *		invalidates the file and the defaults stay.
 *
 *------------------------------------------------------------------*/

func (state *audioproc_state) load(device *device_descriptor) {

	var contents, readErr = os.ReadFile(state.path)
	if readErr != nil {
		return
	}

	var lines = strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n")
	if len(lines) != 6 {
		logger.Errorf("audioproc state file has %d lines instead of 6, using defaults", len(lines))
		return
	}

	var parsed audioproc_values
	var err error

	if parsed.compressor_mode, err = strconv.Atoi(lines[0]); err != nil {
		return
	}
	if parsed.compressor_release, err = strconv.ParseFloat(lines[1], 64); err != nil {
		return
	}
	if parsed.pedalboard_gain, err = strconv.ParseFloat(lines[2], 64); err != nil {
		return
	}
	if parsed.noisegate_channel, err = strconv.Atoi(lines[3]); err != nil {
		return
	}
	if parsed.noisegate_decay, err = strconv.ParseFloat(lines[4], 64); err != nil {
		return
	}
	if parsed.noisegate_threshold, err = strconv.ParseFloat(lines[5], 64); err != nil {
		return
	}

	if !audioproc_values_valid(&parsed) {
		logger.Errorf("audioproc state file has out of range values, using defaults")
		return
	}

	state.values = parsed
}

func audioproc_values_valid(values *audioproc_values) bool {
	switch {
	case values.compressor_mode < 0 || values.compressor_mode > 4:
	case values.compressor_release < 50.0 || values.compressor_release > 500.0:
	case values.pedalboard_gain < -30.0 || values.pedalboard_gain > 20.0:
	case values.noisegate_channel < 0 || values.noisegate_channel > 3:
	case values.noisegate_decay < 1.0 || values.noisegate_decay > 500.0:
	case values.noisegate_threshold < -70.0 || values.noisegate_threshold > -10.0:
	default:
		return true
	}
	return false
}

func (state *audioproc_state) store() {

	var text = fmt.Sprintf("%d\n%s\n%s\n%d\n%s\n%s\n",
		state.values.compressor_mode,
		format_float(state.values.compressor_release),
		format_float(state.values.pedalboard_gain),
		state.values.noisegate_channel,
		format_float(state.values.noisegate_decay),
		format_float(state.values.noisegate_threshold))

	if err := os.WriteFile(state.path, []byte(text), 0644); err != nil {
		logger.Errorf("storing audioproc state failed: %s", err)
	}
}

/* Called from the host reader thread. */
func (state *audioproc_state) flush() {
	if state.values_changed.CompareAndSwap(true, false) {
		state.store()
	}
}

/* One decimal place everywhere: file, replies, ring events. */
func format_float(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}

/*
 * Getters, formatted the way replies carry them.
 */

func (state *audioproc_state) get_compressor_mode() string {
	return strconv.Itoa(state.values.compressor_mode)
}

func (state *audioproc_state) get_compressor_release() string {
	return format_float(state.values.compressor_release)
}

func (state *audioproc_state) get_pedalboard_gain() string {
	return format_float(state.values.pedalboard_gain)
}

func (state *audioproc_state) get_noisegate_channel() string {
	return strconv.Itoa(state.values.noisegate_channel)
}

func (state *audioproc_state) get_noisegate_decay() string {
	return format_float(state.values.noisegate_decay)
}

func (state *audioproc_state) get_noisegate_threshold() string {
	return format_float(state.values.noisegate_threshold)
}

/*
 * Setters.  Main thread only.  Each pushes the new value to the
 * audio host and marks the state dirty.
 */

func (state *audioproc_state) changed(etype sys_msg_event_t, payload string) {
	state.values_changed.Store(true)
	if state.host != nil {
		state.host.write_event(etype, payload)
	}
}

func (state *audioproc_state) set_compressor_mode(mode int) bool {
	if mode < 0 || mode > 4 {
		return false
	}
	state.values.compressor_mode = mode
	state.changed(SYS_MSG_COMPRESSOR_MODE, strconv.Itoa(mode))
	return true
}

func (state *audioproc_state) set_compressor_release(value float64) bool {
	if value < 50.0 || value > 500.0 {
		return false
	}
	state.values.compressor_release = value
	state.changed(SYS_MSG_COMPRESSOR_RELEASE, format_float(value))
	return true
}

func (state *audioproc_state) set_pedalboard_gain(value float64) bool {
	if value < -30.0 || value > 20.0 {
		return false
	}
	state.values.pedalboard_gain = value
	state.changed(SYS_MSG_PEDALBOARD_GAIN, format_float(value))
	return true
}

func (state *audioproc_state) set_noisegate_channel(channel int) bool {
	if channel < 0 || channel > 3 {
		return false
	}
	state.values.noisegate_channel = channel
	state.changed(SYS_MSG_NOISEGATE_CHANNEL, strconv.Itoa(channel))
	return true
}

func (state *audioproc_state) set_noisegate_decay(value float64) bool {
	if value < 1.0 || value > 500.0 {
		return false
	}
	state.values.noisegate_decay = value
	state.changed(SYS_MSG_NOISEGATE_DECAY, format_float(value))
	return true
}

func (state *audioproc_state) set_noisegate_threshold(value float64) bool {
	if value < -70.0 || value > -10.0 {
		return false
	}
	state.values.noisegate_threshold = value
	state.changed(SYS_MSG_NOISEGATE_THRESHOLD, format_float(value))
	return true
}

/*
 * Push the complete current state to the audio host, in file order.
 * Used when the host asks for a restart of the IO values.
 */

func (state *audioproc_state) push_all() {
	if state.host == nil {
		return
	}
	state.host.write_event(SYS_MSG_COMPRESSOR_MODE, state.get_compressor_mode())
	state.host.write_event(SYS_MSG_COMPRESSOR_RELEASE, state.get_compressor_release())
	state.host.write_event(SYS_MSG_PEDALBOARD_GAIN, state.get_pedalboard_gain())
	state.host.write_event(SYS_MSG_NOISEGATE_CHANNEL, state.get_noisegate_channel())
	state.host.write_event(SYS_MSG_NOISEGATE_DECAY, state.get_noisegate_decay())
	state.host.write_event(SYS_MSG_NOISEGATE_THRESHOLD, state.get_noisegate_threshold())
}
