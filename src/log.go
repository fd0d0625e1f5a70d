package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Logging for the daemon.
 *
 * Description:	One package level logger.  MOD_LOG=1 in the
 *		environment raises the level to Debug, which includes
 *		per-frame traces of everything crossing the serial
 *		link.  The trace lines can carry an strftime style
 *		timestamp prefix when the daemon is asked to.
 *
 *---------------------------------------------------------------*/

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "mod-system-control",
})

func log_init() {
	if os.Getenv("MOD_LOG") == "1" {
		logger.SetLevel(log.DebugLevel)
	}
}

func log_debug_enabled() bool {
	return logger.GetLevel() <= log.DebugLevel
}

/* Formats frame traces, optionally timestamped. */

type frame_tracer struct {
	format *strftime.Strftime
}

func frame_tracer_new(pattern string) (*frame_tracer, error) {
	var tracer = &frame_tracer{}

	if pattern != "" {
		var format, err = strftime.New(pattern)
		if err != nil {
			return nil, err
		}
		tracer.format = format
	}

	return tracer, nil
}

func (tracer *frame_tracer) trace(direction string, data []byte) {
	if !log_debug_enabled() {
		return
	}

	if tracer != nil && tracer.format != nil {
		logger.Debugf("%s %s %q", tracer.format.FormatString(time.Now()), direction, data)
	} else {
		logger.Debugf("%s %q", direction, data)
	}
}
