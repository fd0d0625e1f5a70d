package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Program body for mod-system-control, kept here so the
 *		cmd wrapper stays a thin argument parser.
 *
 *---------------------------------------------------------------*/

import (
	"os"
)

type Options struct {
	SerialDevice    string
	Baudrate        int
	DeviceVariant   string
	ReplayDelay     int
	TimestampFormat string
	DataDir         string
	FakeSerial      bool
}

/*-------------------------------------------------------------------
 *
 * Name:	Run
 *
 * Purpose:	Bring the daemon up, run it until a signal or a dead
 *		serial port, tear it down.
 *
 * Returns:	Process exit code.
 *
 *---------------------------------------------------------------*/

func Run(options Options, signals chan os.Signal) int {

	log_init()

	var config = daemon_config_defaults()
	config.serial_device = options.SerialDevice
	config.baudrate = options.Baudrate
	config.device_variant = options.DeviceVariant
	config.timestamp_format = options.TimestampFormat

	if options.ReplayDelay > 0 {
		config.replay_delay = options.ReplayDelay
	}
	if options.DataDir != "" {
		config.data_dir = options.DataDir
	}
	if options.FakeSerial {
		config.fake_serial = true
		config.fake_registry = fake_serial_registry_new()
	}

	var d, err = daemon_new(config, exec_runner{})
	if err != nil {
		logger.Errorf("startup failed: %s", err)
		return 1
	}

	logger.Infof("now running with '%s' and %d as parameters", options.SerialDevice, options.Baudrate)

	if signals != nil {
		go func() {
			<-signals
			d.stop()
		}()
	}

	d.run()

	logger.Infof("stopping...")
	d.destroy()

	return 0
}
