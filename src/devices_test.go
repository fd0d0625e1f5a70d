package syscontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Device_BuiltinTable(t *testing.T) {
	var dwarf = test_device(t, "dwarf")
	assert.Equal(t, 8, dwarf.Pages)
	assert.Equal(t, 3, dwarf.Subpages)
	assert.Equal(t, 6, dwarf.Actuators)
	assert.Equal(t, 3, dwarf.SharedSubpageFrom)
	assert.Equal(t, 1, dwarf.DefaultCompressorMode)

	var duo = test_device(t, "duo")
	assert.Equal(t, 1, duo.Subpages)
	assert.Equal(t, -1, duo.SharedSubpageFrom)
}

func Test_Device_UnknownVariant(t *testing.T) {
	var _, err = device_init("octopus")
	require.Error(t, err)
}

func Test_Device_SharedSubpagePolicy(t *testing.T) {
	var dwarf = test_device(t, "dwarf")
	assert.False(t, dwarf.shared_subpage(0))
	assert.False(t, dwarf.shared_subpage(2))
	assert.True(t, dwarf.shared_subpage(3))
	assert.True(t, dwarf.shared_subpage(5))

	var duox = test_device(t, "duox")
	assert.False(t, duox.shared_subpage(7))
}
