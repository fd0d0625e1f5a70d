package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Classify one decoded request and reply to it.
 *
 * Description:	Every well-formed request gets exactly one reply:
 *
 *			r -1		the action failed
 *			r 0		ok, nothing to report
 *			r 0 data	ok, with data
 *
 *		Replies go through write_or_close, so an unusable
 *		port stops the main loop instead of silently eating
 *		a success the peer is waiting for.
 *
 *---------------------------------------------------------------*/

import (
	"path/filepath"
	"strconv"
)

func (daemon *daemon) reply(resp string) bool {
	daemon.tracer.trace("tx", []byte(resp))
	return write_or_close(daemon.port, []byte(resp))
}

func (daemon *daemon) reply_ok() bool {
	return daemon.reply("r 0")
}

func (daemon *daemon) reply_ok_data(data string) bool {
	return daemon.reply("r 0 " + data)
}

func (daemon *daemon) reply_error() bool {
	return daemon.reply("r -1")
}

/* Wraps an execute-and-capture as the full reply. */
func (daemon *daemon) reply_capture(argv []string) bool {
	var output, ok = daemon.runner.execute_and_get_output(argv)
	if !ok {
		return daemon.reply_error()
	}
	return daemon.reply_ok_data(output)
}

func (daemon *daemon) flag_path(name string) string {
	return filepath.Join(daemon.config.data_dir, name)
}

/*-------------------------------------------------------------------
 *
 * Name:	parse_and_reply_to_message
 *
 * Purpose:	Dispatch one message read off the serial port.
 *
 * Inputs:	msg	- The full message, without terminating null,
 *			  as returned by serial_read_msg_until_zero.
 *
 * Returns:	false when the main loop must stop: the port died
 *		mid-reply, or the command asks for a reboot.
 *
 *---------------------------------------------------------------*/

func parse_and_reply_to_message(daemon *daemon, msg string) bool {

	if len(msg) < _CMD_SYS_LENGTH {
		return daemon.reply_error()
	}

	var cmd = msg[:_CMD_SYS_LENGTH]
	var arg = ""
	if len(msg) > _CMD_SYS_ARG_OFFSET {
		arg = msg[_CMD_SYS_ARG_OFFSET:]
	}

	switch cmd {
	case CMD_SYS_GAIN:
		return daemon.handle_gain(arg)

	case CMD_SYS_HP_GAIN:
		if arg != "" {
			daemon.mixer.headphone(arg)
			return daemon.reply_ok()
		}
		return daemon.reply_capture([]string{"mod-amixer", "hp", "xvol"})

	case CMD_SYS_CV_MODE:
		if arg != "" {
			if !daemon.mixer.cv_exp_toggle(arg) {
				return daemon.reply_error()
			}
			return daemon.reply_ok()
		}
		return daemon.reply_capture([]string{"mod-amixer", "cvexp"})

	case CMD_SYS_EXP_MODE:
		if arg != "" {
			if !daemon.mixer.exp_mode(arg) {
				return daemon.reply_error()
			}
			return daemon.reply_ok()
		}
		return daemon.reply_capture([]string{"mod-amixer", "exppedal"})

	case CMD_SYS_CV_OUT_MODE:
		if arg != "" {
			if !daemon.mixer.cv_headphone_toggle(arg) {
				return daemon.reply_error()
			}
			return daemon.reply_ok()
		}
		return daemon.reply_capture([]string{"mod-amixer", "cvhp"})

	case CMD_SYS_AMIXER_SAVE:
		if !daemon.runner.execute([]string{"mod-amixer", "save"}) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()

	case CMD_SYS_BT_STATUS:
		return daemon.reply_capture([]string{"mod-bluetooth", "hmi"})

	case CMD_SYS_BT_DISCOVERY:
		if !daemon.runner.execute([]string{"mod-bluetooth", "discovery"}) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()

	case CMD_SYS_SYSTEMCTL:
		if arg == "" {
			return daemon.reply_error()
		}
		return daemon.reply_capture([]string{"systemctl", "is-active", arg})

	case CMD_SYS_VERSION:
		if arg == "" {
			return daemon.reply_error()
		}
		return daemon.reply_capture([]string{"mod-version", arg})

	case CMD_SYS_SERIAL:
		var tag, ok = read_file(daemon.config.tag_path)
		if !ok {
			return daemon.reply_error()
		}
		return daemon.reply_ok_data(tag)

	case CMD_SYS_USB_MODE:
		return daemon.handle_usb_mode(arg)

	case CMD_SYS_NOISE_REMOVAL:
		return daemon.handle_noise_removal(arg)

	case CMD_SYS_REBOOT:
		// reply first, the HMI is waiting and we are not coming back
		daemon.reply_ok()
		daemon.runner.execute([]string{"hmi-reset"})
		daemon.runner.execute([]string{"reboot"})
		daemon.running.Store(false)
		return false

	case CMD_SYS_COMP_MODE:
		return daemon.handle_audioproc_int(arg, daemon.audioproc.get_compressor_mode, daemon.audioproc.set_compressor_mode)

	case CMD_SYS_COMP_RELEASE:
		return daemon.handle_audioproc_float(arg, daemon.audioproc.get_compressor_release, daemon.audioproc.set_compressor_release)

	case CMD_SYS_PEDALBOARD_GAIN:
		return daemon.handle_audioproc_float(arg, daemon.audioproc.get_pedalboard_gain, daemon.audioproc.set_pedalboard_gain)

	case CMD_SYS_NG_CHANNEL:
		return daemon.handle_audioproc_int(arg, daemon.audioproc.get_noisegate_channel, daemon.audioproc.set_noisegate_channel)

	case CMD_SYS_NG_DECAY:
		return daemon.handle_audioproc_float(arg, daemon.audioproc.get_noisegate_decay, daemon.audioproc.set_noisegate_decay)

	case CMD_SYS_NG_THRESHOLD:
		return daemon.handle_audioproc_float(arg, daemon.audioproc.get_noisegate_threshold, daemon.audioproc.set_noisegate_threshold)

	case CMD_SYS_PAGE_CHANGE:
		var page, err = strconv.Atoi(arg)
		if arg == "" || err != nil || page < 0 || page >= daemon.device.Pages {
			return daemon.reply_error()
		}
		daemon.hmi.set_page(page)
		return daemon.reply_ok()

	case CMD_SYS_SUBPAGE_CHANGE:
		var subpage, err = strconv.Atoi(arg)
		if arg == "" || err != nil || subpage < 0 || subpage >= daemon.device.Subpages {
			return daemon.reply_error()
		}
		daemon.hmi.set_subpage(subpage)
		return daemon.reply_ok()
	}

	logger.Errorf("parse_and_reply_to_message: unknown message '%s'", msg)
	return daemon.reply_error()
}

/*
 * "io channel [value]", io 0 for input and 1 for output, channel one
 * of '0' '1' '2'.  With a value the request is postponed through the
 * mixer worker; without, the current value is fetched synchronously.
 */
func (daemon *daemon) handle_gain(arg string) bool {

	if len(arg) < 3 || arg[1] != ' ' {
		return daemon.reply_error()
	}

	var io = arg[0]
	var channel = arg[2]

	if (io != '0' && io != '1') || channel < '0' || channel > '2' {
		return daemon.reply_error()
	}

	var input = io == '0'
	var iostr = "out"
	if input {
		iostr = "in"
	}

	if len(arg) > 4 && arg[3] == ' ' {
		daemon.mixer.gain(input, channel, arg[4:])
		return daemon.reply_ok()
	}

	return daemon.reply_capture([]string{"mod-amixer", iostr, string(channel), "xvol"})
}

/*
 * USB gadget mode.  0 is plain, 1 enables the multi gadget, 2 also
 * enables the windows compatibility quirk.  The mode is stored as
 * two flag files.
 */
func (daemon *daemon) handle_usb_mode(arg string) bool {

	var multi = daemon.flag_path(FLAG_FILE_USB_MULTI_GADGET)
	var windows = daemon.flag_path(FLAG_FILE_USB_WINDOWS_COMPAT)

	switch arg {
	case "":
		var mode = "0"
		if file_exists(windows) {
			mode = "2"
		} else if file_exists(multi) {
			mode = "1"
		}
		return daemon.reply_ok_data(mode)

	case "0":
		if !delete_file(multi) || !delete_file(windows) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()

	case "1":
		if !create_file(multi) || !delete_file(windows) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()

	case "2":
		if !create_file(multi) || !create_file(windows) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()
	}

	return daemon.reply_error()
}

func (daemon *daemon) handle_noise_removal(arg string) bool {

	var flag = daemon.flag_path(FLAG_FILE_NOISE_REMOVAL)

	switch arg {
	case "":
		var active = "0"
		if file_exists(flag) {
			active = "1"
		}
		return daemon.reply_ok_data(active)

	case "0":
		if !delete_file(flag) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()

	case "1":
		if !create_file(flag) {
			return daemon.reply_error()
		}
		return daemon.reply_ok()
	}

	return daemon.reply_error()
}

/*
 * Audio processor getter/setter pairs.  Empty argument reads, any
 * other argument writes after validation.
 */

func (daemon *daemon) handle_audioproc_int(arg string, get func() string, set func(int) bool) bool {
	if arg == "" {
		return daemon.reply_ok_data(get())
	}

	var value, err = strconv.Atoi(arg)
	if err != nil || !set(value) {
		return daemon.reply_error()
	}
	return daemon.reply_ok()
}

func (daemon *daemon) handle_audioproc_float(arg string, get func() string, set func(float64) bool) bool {
	if arg == "" {
		return daemon.reply_ok_data(get())
	}

	var value, err = strconv.ParseFloat(arg, 64)
	if err != nil || !set(value) {
		return daemon.reply_error()
	}
	return daemon.reply_ok()
}
