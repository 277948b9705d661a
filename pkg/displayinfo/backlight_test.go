package displayinfo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	err   error
	calls []string
	vals  []uint32
}

func (f *fakeBus) SetBrightness(subsystem, name string, value uint32) error {
	f.calls = append(f.calls, subsystem+"/"+name)
	f.vals = append(f.vals, value)
	return f.err
}

func writeDevice(t *testing.T, root, name, maxVal, current string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte(maxVal+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte(current+"\n"), 0o644))
	return dir
}

func TestBacklightEnumerateSkipsBrokenDevices(t *testing.T) {
	root := t.TempDir()
	writeDevice(t, root, "intel_backlight", "19200", "9600")
	writeDevice(t, root, "broken", "0", "0")

	b := &Backlight{Root: root}
	displays, err := b.Enumerate(context.Background())

	assert.Error(t, err)
	require.Len(t, displays, 1)
	assert.Equal(t, "backlight:intel_backlight", displays[0].Name())
}

func TestBacklightEnumerateEmpty(t *testing.T) {
	b := &Backlight{Root: t.TempDir()}
	displays, err := b.Enumerate(context.Background())

	assert.ErrorIs(t, err, ErrNoBacklight)
	assert.Empty(t, displays)
}

func TestBacklightSetUsesBus(t *testing.T) {
	root := t.TempDir()
	dir := writeDevice(t, root, "amdgpu_bl0", "255", "10")
	bus := &fakeBus{}

	displays, err := (&Backlight{Root: root, Bus: bus}).Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, displays[0].SetBrightness(context.Background(), 60))

	assert.Equal(t, []string{"backlight/amdgpu_bl0"}, bus.calls)
	assert.Equal(t, []uint32{153}, bus.vals)

	// sysfs untouched when the bus succeeds
	data, err := os.ReadFile(filepath.Join(dir, "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "10\n", string(data))
}

func TestBacklightFallsBackToSysfs(t *testing.T) {
	root := t.TempDir()
	dir := writeDevice(t, root, "acpi_video0", "100", "100")
	bus := &fakeBus{err: errors.New("access denied")}

	displays, err := (&Backlight{Root: root, Bus: bus}).Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, displays[0].SetBrightness(context.Background(), 40))

	data, err := os.ReadFile(filepath.Join(dir, "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "40", string(data))
}

func TestBacklightBrightnessReadsPercent(t *testing.T) {
	root := t.TempDir()
	writeDevice(t, root, "intel_backlight", "19200", "9600")

	displays, err := (&Backlight{Root: root}).Enumerate(context.Background())
	require.NoError(t, err)

	r, ok := displays[0].(interface {
		Brightness(context.Context) (intensity.Brightness, error)
	})
	require.True(t, ok)
	b, err := r.Brightness(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intensity.Brightness(50), b)
}

func TestRawConversions(t *testing.T) {
	assert.Equal(t, 0, toRaw(0, 255))
	assert.Equal(t, 255, toRaw(100, 255))
	assert.Equal(t, intensity.Brightness(100), toPercent(300, 255))
	assert.Equal(t, intensity.Brightness(0), toPercent(-3, 255))
}
