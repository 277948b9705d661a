package displayinfo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detectOutput = `Display 1
   I2C bus:  /dev/i2c-6
   DRM connector:           card0-DP-1
   Monitor:                 DEL:DELL U2415:7MT0167K0V0L

Invalid display
   I2C bus:  /dev/i2c-7
   DRM connector:           card0-eDP-1
   EDID synopsis:
      Mfg id:               BOE

Display 2
   I2C bus:  /dev/i2c-8
   Monitor:                 GSM:LG HDR 4K:
`

type fakeRunner struct {
	outputs map[string]string
	fail    map[string]error
	calls   []string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	if err, ok := f.fail[call]; ok {
		return nil, err
	}
	return []byte(f.outputs[call]), nil
}

func TestParseDetectDropsInvalidDisplays(t *testing.T) {
	got := parseDetect([]byte(detectOutput))

	require.Len(t, got, 2)
	assert.Equal(t, detected{number: "1", model: "DEL:DELL U2415:7MT0167K0V0L"}, got[0])
	assert.Equal(t, detected{number: "2", model: "GSM:LG HDR 4K:"}, got[1])
}

func TestDDCUtilSetBrightness(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"ddcutil detect --brief":                detectOutput,
		"ddcutil --display 2 getvcp 10 --brief": "VCP 10 C 40 100\n",
	}}
	d := &DDCUtil{Run: r.run}

	displays, err := d.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, displays, 2)
	assert.Equal(t, "ddc:1 DEL:DELL U2415:7MT0167K0V0L", displays[0].Name())

	require.NoError(t, displays[1].SetBrightness(context.Background(), 80))
	assert.Contains(t, r.calls, "ddcutil --display 2 setvcp 10 80")
}

func TestDDCUtilSetFailureIsReported(t *testing.T) {
	r := &fakeRunner{
		outputs: map[string]string{
			"ddcutil detect --brief":                detectOutput,
			"ddcutil --display 1 getvcp 10 --brief": "VCP 10 C 40 100\n",
			"ddcutil --display 2 getvcp 10 --brief": "VCP 10 C 40 100\n",
		},
		fail: map[string]error{"ddcutil --display 1 setvcp 10 20": errors.New("DDC communication failed")},
	}
	displays, err := (&DDCUtil{Run: r.run}).Enumerate(context.Background())
	require.NoError(t, err)

	assert.Error(t, displays[0].SetBrightness(context.Background(), 20))
	assert.NoError(t, displays[1].SetBrightness(context.Background(), 20))
}

func TestDDCUtilDetectFailure(t *testing.T) {
	r := &fakeRunner{fail: map[string]error{"/usr/bin/ddcutil detect --brief": errors.New("not found")}}
	_, err := (&DDCUtil{Path: "/usr/bin/ddcutil", Run: r.run}).Enumerate(context.Background())
	assert.Error(t, err)
}

func TestDDCUtilBrightness(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"ddcutil detect --brief":                detectOutput,
		"ddcutil --display 1 getvcp 10 --brief": "VCP 10 C 30 60\n",
		"ddcutil --display 2 getvcp 10 --brief": "garbage",
	}}
	displays, err := (&DDCUtil{Run: r.run}).Enumerate(context.Background())
	require.NoError(t, err)

	b, err := displays[0].(*ddcMonitor).Brightness(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intensity.Brightness(50), b)

	_, err = displays[1].(*ddcMonitor).Brightness(context.Background())
	assert.Error(t, err)
}

func TestDDCUtilScalesToMonitorMaximum(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"ddcutil detect --brief":                detectOutput,
		"ddcutil --display 1 getvcp 10 --brief": "VCP 10 C 30 60\n",
	}}
	d := &DDCUtil{Run: r.run}

	displays, err := d.Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, displays[0].SetBrightness(context.Background(), 50))
	assert.Contains(t, r.calls, "ddcutil --display 1 setvcp 10 30")

	// the maximum is read once per monitor, even across enumerations
	displays, err = d.Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, displays[0].SetBrightness(context.Background(), 100))
	assert.Contains(t, r.calls, "ddcutil --display 1 setvcp 10 60")

	reads := 0
	for _, c := range r.calls {
		if c == "ddcutil --display 1 getvcp 10 --brief" {
			reads++
		}
	}
	assert.Equal(t, 1, reads)
}

func TestDDCUtilSetWithoutMaximumFails(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"ddcutil detect --brief":                detectOutput,
		"ddcutil --display 2 getvcp 10 --brief": "garbage",
	}}
	displays, err := (&DDCUtil{Run: r.run}).Enumerate(context.Background())
	require.NoError(t, err)

	assert.Error(t, displays[1].SetBrightness(context.Background(), 50))
	assert.NotContains(t, r.calls, "ddcutil --display 2 setvcp 10 50")
}
