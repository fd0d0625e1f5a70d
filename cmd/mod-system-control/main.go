package main

/*------------------------------------------------------------------
 *
 * Purpose:	Main program for the system control bridge, sitting
 *		between the HMI front panel on a serial link and the
 *		audio host behind a shared memory channel.
 *
 * Inputs:	Command line arguments, see usage message.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	syscontrol "github.com/doismellburning/komondor/src"
	"github.com/spf13/pflag"
)

func main() {
	var deviceVariant = pflag.StringP("device", "D", "dwarf", "Device variant: duo, duox or dwarf.  Decides panel geometry and defaults.")
	var replayDelay = pflag.IntP("replay-delay", "r", 0, "Processing ticks to wait after a page change before replaying cached display state.  0 for the default.")
	var timestampFormat = pflag.StringP("timestamp-format", "T", "", "Precede frame traces with 'strftime' format time stamp.")
	var dataDir = pflag.String("data-dir", "", "Directory holding the flag files and audioproc state.")
	var fakeSerial = pflag.Bool("fake-serial", false, "Use the in-memory serial pair instead of a real device.  Device names are then 'sys' and 'hmi'.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - bridge between the HMI serial protocol and the audio host.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <serial-device> <speed>\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Set MOD_LOG=1 in the environment for verbose logging.\n")
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	if len(pflag.Args()) < 2 {
		pflag.Usage()
		os.Exit(1)
	}

	var serialDevice = pflag.Arg(0)
	var baudrate, baudErr = strconv.Atoi(pflag.Arg(1))
	if baudErr != nil {
		fmt.Fprintf(os.Stderr, "Invalid speed (should be an integer): %s\n", pflag.Arg(1))
		os.Exit(1)
	}

	var exitCode = syscontrol.Run(syscontrol.Options{
		SerialDevice:    serialDevice,
		Baudrate:        baudrate,
		DeviceVariant:   *deviceVariant,
		ReplayDelay:     *replayDelay,
		TimestampFormat: *timestampFormat,
		DataDir:         *dataDir,
		FakeSerial:      *fakeSerial,
	}, makeSignalChannel())

	os.Exit(exitCode)
}

func makeSignalChannel() chan os.Signal {
	var signals = make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	return signals
}
