package displayinfo

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
)

// VCP feature code for luminance.
const vcpBrightness = "10"

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// DDCUtil reaches external monitors over DDC/CI through the ddcutil tool.
type DDCUtil struct {
	Path string
	Run  Runner

	mu sync.Mutex
	// VCP 0x10 maximum per monitor name, read once
	maxima map[string]int
}

func (d *DDCUtil) Name() string { return "ddcutil" }

func (d *DDCUtil) path() string {
	if d.Path == "" {
		return "ddcutil"
	}
	return d.Path
}

func (d *DDCUtil) run(ctx context.Context, args ...string) ([]byte, error) {
	run := d.Run
	if run == nil {
		run = ExecRunner
	}
	return run(ctx, d.path(), args...)
}

func (d *DDCUtil) Enumerate(ctx context.Context) ([]operation.Display, error) {
	out, err := d.run(ctx, "detect", "--brief")
	if err != nil {
		return nil, fmt.Errorf("detect monitors: %w", err)
	}

	var displays []operation.Display
	for _, m := range parseDetect(out) {
		displays = append(displays, &ddcMonitor{number: m.number, model: m.model, ddc: d})
	}
	return displays, nil
}

type detected struct {
	number string
	model  string
}

// parseDetect reads `ddcutil detect --brief` output. Blocks headed
// "Invalid display" are monitors without usable DDC/CI and are dropped.
func parseDetect(out []byte) []detected {
	var (
		found   []detected
		current *detected
	)
	flush := func() {
		if current != nil {
			found = append(found, *current)
			current = nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Display "):
			flush()
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if _, err := strconv.Atoi(fields[1]); err == nil {
					current = &detected{number: fields[1]}
				}
			}
		case strings.HasPrefix(line, "Invalid display"):
			flush()
		case current != nil && strings.HasPrefix(line, "Monitor:"):
			current.model = strings.TrimSpace(strings.TrimPrefix(line, "Monitor:"))
		}
	}
	flush()
	return found
}

type ddcMonitor struct {
	number string
	model  string
	ddc    *DDCUtil
}

func (m *ddcMonitor) Name() string {
	if m.model == "" {
		return "ddc:" + m.number
	}
	return "ddc:" + m.number + " " + m.model
}

func (m *ddcMonitor) SetBrightness(ctx context.Context, b intensity.Brightness) error {
	maxVal, err := m.maxBrightness(ctx)
	if err != nil {
		return fmt.Errorf("failed to read max brightness: %w", err)
	}
	raw := strconv.Itoa(toRaw(b, maxVal))
	if _, err := m.ddc.run(ctx, "--display", m.number, "setvcp", vcpBrightness, raw); err != nil {
		return fmt.Errorf("failed to set brightness: %w", err)
	}
	return nil
}

// maxBrightness returns the monitor's VCP 0x10 maximum. Monitors keep their
// maximum across hot-plugs, so it is cached by name.
func (m *ddcMonitor) maxBrightness(ctx context.Context) (int, error) {
	name := m.Name()
	m.ddc.mu.Lock()
	maxVal, ok := m.ddc.maxima[name]
	m.ddc.mu.Unlock()
	if ok {
		return maxVal, nil
	}

	_, maxVal, err := m.readVCP(ctx)
	if err != nil {
		return 0, err
	}

	m.ddc.mu.Lock()
	if m.ddc.maxima == nil {
		m.ddc.maxima = make(map[string]int)
	}
	m.ddc.maxima[name] = maxVal
	m.ddc.mu.Unlock()
	return maxVal, nil
}

func (m *ddcMonitor) Brightness(ctx context.Context) (intensity.Brightness, error) {
	cur, maxVal, err := m.readVCP(ctx)
	if err != nil {
		return 0, err
	}
	return toPercent(cur, maxVal), nil
}

// readVCP reads VCP 0x10; `getvcp --brief` prints "VCP 10 C <cur> <max>".
func (m *ddcMonitor) readVCP(ctx context.Context) (cur, maxVal int, err error) {
	out, err := m.ddc.run(ctx, "--display", m.number, "getvcp", vcpBrightness, "--brief")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(out))
	if len(fields) < 5 || fields[0] != "VCP" {
		return 0, 0, fmt.Errorf("unexpected getvcp output: %q", strings.TrimSpace(string(out)))
	}
	cur, err = strconv.Atoi(fields[3])
	if err != nil {
		return 0, 0, err
	}
	maxVal, err = strconv.Atoi(fields[4])
	if err != nil || maxVal <= 0 {
		return 0, 0, fmt.Errorf("invalid max brightness %q", fields[4])
	}
	return cur, maxVal, nil
}
