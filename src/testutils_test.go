package syscontrol

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Records invocations instead of forking.  Output lookup is keyed on
// the space-joined argv; missing entries count as command failure.
type fake_runner struct {
	mutex       sync.Mutex
	invocations [][]string
	outputs     map[string]string
	fail        bool
}

func fake_runner_new() *fake_runner {
	return &fake_runner{outputs: make(map[string]string)}
}

func (runner *fake_runner) record(argv []string) {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	runner.invocations = append(runner.invocations, append([]string(nil), argv...))
}

func (runner *fake_runner) execute(argv []string) bool {
	runner.record(argv)
	return !runner.fail
}

func (runner *fake_runner) execute_and_get_output(argv []string) (string, bool) {
	runner.record(argv)

	runner.mutex.Lock()
	defer runner.mutex.Unlock()

	if runner.fail {
		return "", false
	}

	var output, found = runner.outputs[strings.Join(argv, " ")]
	if !found {
		return "", false
	}
	return output, true
}

func (runner *fake_runner) invoked() [][]string {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	return append([][]string(nil), runner.invocations...)
}

// Opening a fresh registry cannot fail, so this needs no test handle
// and works from rapid property bodies too.
func open_fake_serial_pair() (*fake_serial_port, *fake_serial_port) {
	var registry = fake_serial_registry_new()

	var sys, _ = registry.open("sys")
	var hmi, _ = registry.open("hmi")

	return sys, hmi
}

func test_device(t *testing.T, variant string) *device_descriptor {
	t.Helper()

	var device, err = device_init(variant)
	require.NoError(t, err)
	return device
}
