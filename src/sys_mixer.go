package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Postponed handling of mod-amixer volume changes.
 *
 * Description:	A fast turn of a gain knob produces far more serial
 *		requests than mod-amixer invocations can keep up with.
 *		Only the most recent request per target matters, so we
 *		keep a single pending slot and a worker that executes
 *		whatever is in it when woken.  Submitting a request
 *		for a different target first flushes the pending one
 *		synchronously, so no target ever loses its last value.
 *
 *---------------------------------------------------------------*/

import (
	"sync"
)

type amixer_msg struct {
	valid   bool
	input   bool
	channel byte   /* '0', '1', '2' or 'h' for headphone */
	control string /* biggest possible is "exppedal" */
	value   string
}

type sys_mixer struct {
	runner command_runner

	mutex          sync.Mutex
	last_amixer    amixer_msg
	wake           chan struct{} /* bounded to 1, post collapses into pending wake */
	quit           chan struct{}
	thread_stopped chan struct{}
}

func sys_mixer_setup(runner command_runner) *sys_mixer {

	var mixer = &sys_mixer{
		runner:         runner,
		wake:           make(chan struct{}, 1),
		quit:           make(chan struct{}),
		thread_stopped: make(chan struct{}),
	}

	go mixer.postponed_messages_thread_run()

	return mixer
}

func (mixer *sys_mixer) destroy() {
	close(mixer.quit)
	<-mixer.thread_stopped
}

func (mixer *sys_mixer) postponed_messages_thread_run() {

	defer close(mixer.thread_stopped)

	for {
		mixer.mutex.Lock()
		var local_amixer = mixer.last_amixer
		mixer.last_amixer.valid = false
		mixer.mutex.Unlock()

		if local_amixer.valid {
			mixer.handle_postponed_message(&local_amixer)
		}

		select {
		case <-mixer.wake:
		case <-mixer.quit:
			return
		}
	}
}

func (mixer *sys_mixer) handle_postponed_message(msg *amixer_msg) {

	// headphone mode
	if msg.channel == 'h' {
		mixer.runner.execute([]string{"mod-amixer", "hp", "xvol", msg.value})
		return
	}

	// gain mode
	var io = "out"
	if msg.input {
		io = "in"
	}

	mixer.runner.execute([]string{"mod-amixer", io, string(msg.channel), "xvol", msg.value})
}

func (mixer *sys_mixer) post() {
	select {
	case mixer.wake <- struct{}{}:
	default:
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	gain
 *
 * Purpose:	Queue a gain change for one input or output channel.
 *
 *---------------------------------------------------------------*/

func (mixer *sys_mixer) gain(input bool, channel byte, value string) {

	mixer.mutex.Lock()

	// trigger previously cached value if does not match current one
	if mixer.last_amixer.valid && (mixer.last_amixer.input != input ||
		mixer.last_amixer.channel != channel ||
		mixer.last_amixer.control != "xvol") {
		mixer.handle_postponed_message(&mixer.last_amixer)
	}

	// cache request for later handling
	mixer.last_amixer = amixer_msg{
		valid:   true,
		input:   input,
		channel: channel,
		control: "xvol",
		value:   value,
	}

	mixer.post()
	mixer.mutex.Unlock()

	logger.Debugf("sys_mixer: postponing amixer gain value set")
}

/*-------------------------------------------------------------------
 *
 * Name:	headphone
 *
 * Purpose:	Queue a headphone volume change.
 *
 *---------------------------------------------------------------*/

func (mixer *sys_mixer) headphone(value string) {

	mixer.mutex.Lock()

	// trigger previously cached value if does not match current one
	if mixer.last_amixer.valid && (mixer.last_amixer.channel != 'h' ||
		mixer.last_amixer.control != "xvol") {
		mixer.handle_postponed_message(&mixer.last_amixer)
	}

	// cache request for later handling
	mixer.last_amixer = amixer_msg{
		valid:   true,
		input:   false,
		channel: 'h',
		control: "xvol",
		value:   value,
	}

	mixer.post()
	mixer.mutex.Unlock()

	logger.Debugf("sys_mixer: postponing amixer hp gain value set")
}

/*
 * The cv/exp toggles are rare and cheap, they run immediately.
 */

func (mixer *sys_mixer) cv_exp_toggle(value string) bool {
	return mixer.runner.execute([]string{"mod-amixer", "cvexp", value})
}

func (mixer *sys_mixer) exp_mode(value string) bool {
	return mixer.runner.execute([]string{"mod-amixer", "exppedal", value})
}

func (mixer *sys_mixer) cv_headphone_toggle(value string) bool {
	return mixer.runner.execute([]string{"mod-amixer", "cvhp", value})
}
