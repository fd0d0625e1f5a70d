package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Device variant policy table.
 *
 * Description:	How many pages, sub-pages and actuators the front
 *		panel has, and which quirks apply, differs per device
 *		variant.  The table is read from devices.yaml at run
 *		time so a new variant doesn't need a rebuild; a copy
 *		is compiled in as fallback.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type device_descriptor struct {
	Name      string `yaml:"name"`
	Pages     int    `yaml:"pages"`
	Subpages  int    `yaml:"subpages"`
	Actuators int    `yaml:"actuators"`

	// Actuator id at or above which the sub-page component is
	// ignored (those actuators are shared across sub-pages).
	// -1 disables the exception.
	SharedSubpageFrom int `yaml:"shared_subpage_from"`

	DefaultCompressorMode int `yaml:"default_compressor_mode"`
}

type device_table struct {
	Devices []device_descriptor `yaml:"devices"`
}

// If search order is changed, keep the packaging scripts in sync.
var device_search_locations = []string{
	"devices.yaml",        // Current working directory
	"data/devices.yaml",   // Source tree
	"/etc/mod/devices.yaml",
	"/usr/share/mod/devices.yaml",
}

const device_builtin_yaml = `
devices:
  - name: duo
    pages: 8
    subpages: 1
    actuators: 4
    shared_subpage_from: -1
    default_compressor_mode: 0
  - name: duox
    pages: 8
    subpages: 1
    actuators: 8
    shared_subpage_from: -1
    default_compressor_mode: 0
  - name: dwarf
    pages: 8
    subpages: 3
    actuators: 6
    shared_subpage_from: 3
    default_compressor_mode: 1
`

/*------------------------------------------------------------------
 *
 * Function:	device_init
 *
 * Purpose:	Look up the descriptor for the given variant name.
 *
 * Description:	Tries the search locations in order, falling back to
 *		the compiled-in table.  An unknown variant is a
 *		startup failure, guessing panel geometry would only
 *		corrupt the display cache.
 *
 *------------------------------------------------------------------*/

func device_init(variant string) (*device_descriptor, error) {

	var table *device_table

	for _, location := range device_search_locations {
		var contents, readErr = os.ReadFile(location)
		if readErr != nil {
			continue
		}

		var parsed device_table
		if yaml.Unmarshal(contents, &parsed) != nil || len(parsed.Devices) == 0 {
			logger.Errorf("device table \"%s\" is not usable, ignoring it", location)
			continue
		}

		logger.Debugf("device table loaded from \"%s\"", location)
		table = &parsed
		break
	}

	if table == nil {
		var parsed device_table
		if err := yaml.Unmarshal([]byte(device_builtin_yaml), &parsed); err != nil {
			return nil, fmt.Errorf("builtin device table is broken: %w", err)
		}
		table = &parsed
	}

	for i := range table.Devices {
		var device = &table.Devices[i]
		if device.Name != variant {
			continue
		}

		if device.Pages <= 0 || device.Subpages <= 0 || device.Actuators <= 0 {
			return nil, fmt.Errorf("device variant '%s' has a broken geometry", variant)
		}

		return device, nil
	}

	return nil, fmt.Errorf("unknown device variant '%s'", variant)
}

/* Whether this actuator ignores the sub-page component. */
func (device *device_descriptor) shared_subpage(actuator int) bool {
	return device.SharedSubpageFrom >= 0 && actuator >= device.SharedSubpageFrom
}
