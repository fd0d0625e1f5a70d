package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	The daemon itself: owns the serial port, the audio
 *		host channel, the HMI display state and the mixer
 *		worker, and drives the read/dispatch/process loop.
 *
 *---------------------------------------------------------------*/

import (
	"path/filepath"
	"sync/atomic"
)

type daemon_config struct {
	serial_device string
	baudrate      int

	device_variant string
	replay_delay   int

	data_dir string
	tag_path string
	shm_name string

	timestamp_format string

	/* use the in-memory serial pair, for the test tools */
	fake_serial   bool
	fake_registry *fake_serial_registry
}

func daemon_config_defaults() daemon_config {
	return daemon_config{
		device_variant: "dwarf",
		replay_delay:   HMI_REPLAY_DELAY_DEFAULT,
		data_dir:       DEFAULT_DATA_DIR,
		tag_path:       DEFAULT_TAG_PATH,
		shm_name:       SYS_SERIAL_SHM,
	}
}

type daemon struct {
	config daemon_config

	port   serial_port
	runner command_runner
	tracer *frame_tracer

	device    *device_descriptor
	audioproc *audioproc_state
	host      *sys_host
	mixer     *sys_mixer
	hmi       *hmi_state

	running atomic.Bool
}

/*-------------------------------------------------------------------
 *
 * Name:	daemon_new
 *
 * Purpose:	Open everything and wire the sub-objects together.
 *
 * Description:	Construction order matters: the audio processor
 *		state must exist before the host channel starts its
 *		reader (which flushes it), and gets its host handle
 *		afterwards (for the setter events).
 *
 *---------------------------------------------------------------*/

func daemon_new(config daemon_config, runner command_runner) (*daemon, error) {

	var tracer, tracerErr = frame_tracer_new(config.timestamp_format)
	if tracerErr != nil {
		return nil, tracerErr
	}

	var device, deviceErr = device_init(config.device_variant)
	if deviceErr != nil {
		return nil, deviceErr
	}

	var port serial_port
	var portErr error
	if config.fake_serial {
		port, portErr = config.fake_registry.open(config.serial_device)
	} else {
		port, portErr = serial_open(config.serial_device, config.baudrate)
	}
	if portErr != nil {
		return nil, portErr
	}

	var audioproc = audioproc_init(filepath.Join(config.data_dir, AUDIOPROC_FILE), device)

	var host, hostErr = sys_host_setup(config.shm_name, audioproc)
	if hostErr != nil {
		port.close()
		return nil, hostErr
	}
	audioproc.host = host

	var d = &daemon{
		config:    config,
		port:      port,
		runner:    runner,
		tracer:    tracer,
		device:    device,
		audioproc: audioproc,
		host:      host,
		mixer:     sys_mixer_setup(runner),
		hmi:       hmi_state_init(device, config.replay_delay),
	}

	d.running.Store(true)

	return d, nil
}

/* Callable from a signal handler goroutine. */
func (daemon *daemon) stop() {
	daemon.running.Store(false)
}

func (daemon *daemon) destroy() {
	daemon.mixer.destroy()
	daemon.host.destroy()
	daemon.port.close()
}

/*-------------------------------------------------------------------
 *
 * Name:	run
 *
 * Purpose:	The main loop.
 *
 * Description:	Serial reads use short timeouts, so an idle line
 *		degrades into calling process() a few dozen times a
 *		second, which is what drives the page-change replay
 *		and the host event draining.  An unparseable message
 *		realigns the stream to the next frame boundary; a
 *		dead port ends the loop.
 *
 *---------------------------------------------------------------*/

func (daemon *daemon) run() {

	var buf [sp_read_buffer_size]byte

	for daemon.running.Load() {
		var ret = serial_read_msg_until_zero(daemon.port, buf[:])

		switch ret {
		case SP_READ_ERROR_NO_DATA:
			if !daemon.process() {
				return
			}
			continue

		case SP_READ_ERROR_INVALID_DATA:
			serial_read_ignore_until_zero(daemon.port)
			continue

		case SP_READ_ERROR_IO:
			logger.Errorf("serial port read error, stopping")
			return
		}

		var msg = string(buf[:ret])
		daemon.tracer.trace("rx", buf[:ret])

		if !parse_and_reply_to_message(daemon, msg) {
			return
		}

		if !daemon.process() {
			return
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	process
 *
 * Purpose:	Non-serial housekeeping between serial reads.
 *
 * Description:	Three jobs, in order: advance the page replay tick,
 *		push the full audio processor state when the host
 *		asked for it, and drain whatever the host reader
 *		flagged.  All of it runs on the main thread; the
 *		reader thread only raises flags.
 *
 * Returns:	false when the serial port died mid-emission.
 *
 *---------------------------------------------------------------*/

func (daemon *daemon) process() bool {

	if !daemon.hmi.process(daemon.emit) {
		return false
	}

	if daemon.hmi.io_values_requested {
		daemon.hmi.io_values_requested = false
		daemon.audioproc.push_all()
	}

	if daemon.host.take_has_msgs() {
		for {
			var event, ok = daemon.host.read_event()
			if !ok {
				break
			}
			if !daemon.hmi.handle_event(event, daemon.emit) {
				return false
			}
		}
	}

	return true
}

/*
 * Send one display frame to the HMI and absorb its acknowledgement,
 * so the reply bytes don't end up inside the next command read.
 */
func (daemon *daemon) emit(cmd string, payload string, quoted bool) bool {

	var frame = encode_sys_msg(cmd, payload, quoted)
	if frame == nil {
		logger.Errorf("cannot encode frame for %s '%s'", cmd, payload)
		return true
	}

	daemon.tracer.trace("tx", frame)

	if !write_or_close(daemon.port, frame) {
		return false
	}

	serial_read_ignore_until_zero(daemon.port)
	return true
}
