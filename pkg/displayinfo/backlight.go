package displayinfo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
)

const DefaultBacklightRoot = "/sys/class/backlight"

var ErrNoBacklight = errors.New("no backlight devices found")

// BrightnessBus sets a raw backlight value on behalf of an unprivileged user.
type BrightnessBus interface {
	SetBrightness(subsystem, name string, value uint32) error
}

type logind struct {
	conn *dbus.Conn
}

// Logind returns a BrightnessBus backed by systemd-logind on the system bus.
func Logind() (BrightnessBus, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &logind{conn: conn}, nil
}

func (l *logind) SetBrightness(subsystem, name string, value uint32) error {
	obj := l.conn.Object("org.freedesktop.login1", "/org/freedesktop/login1/session/auto")
	return obj.Call("org.freedesktop.login1.Session.SetBrightness", 0, subsystem, name, value).Err
}

// Backlight enumerates the panels under a sysfs backlight class directory.
type Backlight struct {
	Root string
	// Bus may be nil, in which case values are written to sysfs directly.
	Bus BrightnessBus
}

func (b *Backlight) Name() string { return "backlight" }

func (b *Backlight) root() string {
	if b.Root == "" {
		return DefaultBacklightRoot
	}
	return b.Root
}

func (b *Backlight) Enumerate(context.Context) ([]operation.Display, error) {
	paths, err := filepath.Glob(filepath.Join(b.root(), "*"))
	if err != nil || len(paths) == 0 {
		return nil, ErrNoBacklight
	}

	var (
		displays []operation.Display
		errs     []error
	)
	for _, device := range paths {
		maxVal, err := readInt(filepath.Join(device, "max_brightness"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(device), err))
			continue
		}
		if maxVal <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid max_brightness value", filepath.Base(device)))
			continue
		}
		displays = append(displays, &backlightDevice{
			dir:    device,
			name:   filepath.Base(device),
			maxVal: maxVal,
			bus:    b.Bus,
		})
	}
	return displays, errors.Join(errs...)
}

type backlightDevice struct {
	dir    string
	name   string
	maxVal int
	bus    BrightnessBus
}

func (d *backlightDevice) Name() string { return "backlight:" + d.name }

func (d *backlightDevice) SetBrightness(_ context.Context, b intensity.Brightness) error {
	raw := toRaw(b, d.maxVal)

	var busErr error
	if d.bus != nil {
		if busErr = d.bus.SetBrightness("backlight", d.name, uint32(raw)); busErr == nil {
			return nil
		}
	}

	if err := os.WriteFile(filepath.Join(d.dir, "brightness"), []byte(strconv.Itoa(raw)), 0644); err != nil {
		return errors.Join(busErr, fmt.Errorf("failed to set brightness: %w", err))
	}
	return nil
}

func (d *backlightDevice) Brightness(context.Context) (intensity.Brightness, error) {
	current, err := readInt(filepath.Join(d.dir, "brightness"))
	if err != nil {
		return 0, err
	}
	return toPercent(current, d.maxVal), nil
}

func toRaw(b intensity.Brightness, maxVal int) int {
	return int(math.Round(float64(b) / 100 * float64(maxVal)))
}

func toPercent(raw, maxVal int) intensity.Brightness {
	percent := int(math.Round(float64(raw) / float64(maxVal) * 100.0))
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return intensity.Brightness(percent)
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	return strconv.Atoi(s)
}
