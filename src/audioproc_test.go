package syscontrol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audioproc_test_path(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), AUDIOPROC_FILE)
}

func Test_Audioproc_DefaultsWithoutFile(t *testing.T) {
	var state = audioproc_init(audioproc_test_path(t), test_device(t, "dwarf"))

	assert.Equal(t, "1", state.get_compressor_mode())
	assert.Equal(t, "100.0", state.get_compressor_release())
	assert.Equal(t, "0.0", state.get_pedalboard_gain())
	assert.Equal(t, "0", state.get_noisegate_channel())
	assert.Equal(t, "10.0", state.get_noisegate_decay())
	assert.Equal(t, "-60.0", state.get_noisegate_threshold())
}

func Test_Audioproc_DefaultCompressorModePerVariant(t *testing.T) {
	var dwarf = audioproc_init(audioproc_test_path(t), test_device(t, "dwarf"))
	assert.Equal(t, "1", dwarf.get_compressor_mode())

	var duo = audioproc_init(audioproc_test_path(t), test_device(t, "duo"))
	assert.Equal(t, "0", duo.get_compressor_mode())
}

func Test_Audioproc_LoadValidFile(t *testing.T) {
	var path = audioproc_test_path(t)
	require.NoError(t, os.WriteFile(path, []byte("3\n250.0\n-6.5\n2\n42.0\n-30.0\n"), 0644))

	var state = audioproc_init(path, test_device(t, "dwarf"))

	assert.Equal(t, "3", state.get_compressor_mode())
	assert.Equal(t, "250.0", state.get_compressor_release())
	assert.Equal(t, "-6.5", state.get_pedalboard_gain())
	assert.Equal(t, "2", state.get_noisegate_channel())
	assert.Equal(t, "42.0", state.get_noisegate_decay())
	assert.Equal(t, "-30.0", state.get_noisegate_threshold())
}

// One out-of-range value invalidates the whole file.
func Test_Audioproc_OutOfRangeResetsEverything(t *testing.T) {
	var path = audioproc_test_path(t)
	require.NoError(t, os.WriteFile(path, []byte("3\n250.0\n-6.5\n2\n999.0\n-30.0\n"), 0644))

	var state = audioproc_init(path, test_device(t, "dwarf"))

	assert.Equal(t, "1", state.get_compressor_mode())
	assert.Equal(t, "100.0", state.get_compressor_release())
	assert.Equal(t, "10.0", state.get_noisegate_decay())
}

func Test_Audioproc_GarbageResetsEverything(t *testing.T) {
	var path = audioproc_test_path(t)

	for _, contents := range []string{
		"",
		"1\n2\n3\n",
		"one\n100.0\n0.0\n0\n10.0\n-60.0\n",
		"1\n100.0\n0.0\n0\n10.0\n-60.0\nextra\n",
	} {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
		var state = audioproc_init(path, test_device(t, "dwarf"))
		assert.Equal(t, "100.0", state.get_compressor_release(), "contents %q", contents)
	}
}

func Test_Audioproc_StoreLoadRoundTrip(t *testing.T) {
	var path = audioproc_test_path(t)
	var device = test_device(t, "dwarf")

	var state = audioproc_init(path, device)
	require.True(t, state.set_compressor_mode(4))
	require.True(t, state.set_compressor_release(123.5))
	require.True(t, state.set_pedalboard_gain(-12.0))
	require.True(t, state.set_noisegate_channel(3))
	require.True(t, state.set_noisegate_decay(77.0))
	require.True(t, state.set_noisegate_threshold(-15.5))

	state.flush()

	var reloaded = audioproc_init(path, device)
	assert.Equal(t, "4", reloaded.get_compressor_mode())
	assert.Equal(t, "123.5", reloaded.get_compressor_release())
	assert.Equal(t, "-12.0", reloaded.get_pedalboard_gain())
	assert.Equal(t, "3", reloaded.get_noisegate_channel())
	assert.Equal(t, "77.0", reloaded.get_noisegate_decay())
	assert.Equal(t, "-15.5", reloaded.get_noisegate_threshold())
}

func Test_Audioproc_SettersValidateRanges(t *testing.T) {
	var state = audioproc_init(audioproc_test_path(t), test_device(t, "dwarf"))

	assert.False(t, state.set_compressor_mode(5))
	assert.False(t, state.set_compressor_release(49.9))
	assert.False(t, state.set_compressor_release(500.1))
	assert.False(t, state.set_pedalboard_gain(20.5))
	assert.False(t, state.set_noisegate_channel(4))
	assert.False(t, state.set_noisegate_decay(0.5))
	assert.False(t, state.set_noisegate_threshold(-9.0))

	// nothing changed, nothing dirty
	assert.False(t, state.values_changed.Load())
	assert.Equal(t, "1", state.get_compressor_mode())
}

func Test_Audioproc_FlushOnlyWhenDirty(t *testing.T) {
	var path = audioproc_test_path(t)
	var state = audioproc_init(path, test_device(t, "dwarf"))

	state.flush()
	var _, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "flush with clean state must not write")

	require.True(t, state.set_compressor_mode(2))
	state.flush()

	var contents, readErr = os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "2\n100.0\n0.0\n0\n10.0\n-60.0\n", string(contents))

	// flag was consumed by the flush
	assert.False(t, state.values_changed.Load())
}
