// Package surface provides the platform windows behind the dimming overlay.
package surface

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hoppxi/dusk/config"
	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// EWW draws the overlay as an eww layer window. The widget definition is
// written to ConfigDir and served by a daemon dedicated to dusk.
//
// eww has no way to declare a window input-transparent, so Passthrough must
// empty the input region of the opened window. Without it the overlay is
// refused.
type EWW struct {
	Path      string
	ConfigDir string
	// StartDaemon launches `eww daemon` for ConfigDir when none answers.
	StartDaemon func(args ...string) error
	// Passthrough makes the named, open eww window ignore pointer input.
	Passthrough func(window string) error
	Run         Runner
	// Timeout bounds each eww invocation.
	Timeout time.Duration

	open bool
}

var _ operation.Surface = (*EWW)(nil)

func (e *EWW) eww(args ...string) error {
	run := e.Run
	if run == nil {
		run = execRunner
	}
	path := e.Path
	if path == "" {
		path = "eww"
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	full := append([]string{"--config", e.ConfigDir}, args...)
	out, err := run(ctx, path, full...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("eww %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("eww %s: %w", args[0], err)
	}
	return nil
}

// Create writes the widget config, makes sure a daemon is serving it and
// leaves the overlay window closed. eww lays the window out at 100% of the
// primary monitor, so style sizes are not used.
func (e *EWW) Create(style operation.Style) error {
	if !style.ClickThrough {
		return errors.New("eww overlay only supports click-through windows")
	}
	if e.Passthrough == nil {
		return ErrNoPassthrough
	}
	if e.ConfigDir == "" {
		return errors.New("eww config dir not set")
	}
	if err := config.Extract(e.ConfigDir); err != nil {
		return fmt.Errorf("write eww config: %w", err)
	}

	if err := e.eww("ping"); err != nil {
		if e.StartDaemon == nil {
			return fmt.Errorf("eww daemon not running: %w", err)
		}
		if err := e.StartDaemon("--config", e.ConfigDir, "daemon", "--no-daemonize"); err != nil {
			return fmt.Errorf("start eww daemon: %w", err)
		}
		if err := e.waitReady(); err != nil {
			return err
		}
	}

	if err := e.eww("update", config.AlphaVar+"=0"); err != nil {
		return err
	}
	return nil
}

func (e *EWW) waitReady() error {
	var err error
	for i := 0; i < 20; i++ {
		if err = e.eww("ping"); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("eww daemon did not come up: %w", err)
}

func (e *EWW) SetOpacity(a intensity.Alpha) error {
	return e.eww("update", fmt.Sprintf("%s=%.3f", config.AlphaVar, float64(a)/255))
}

// Show opens the window and strips its input region. A window that cannot
// be made input-transparent is closed again.
func (e *EWW) Show() error {
	if e.Passthrough == nil {
		return ErrNoPassthrough
	}
	if err := e.eww("open", config.OverlayWindow); err != nil {
		return err
	}
	e.open = true

	if err := e.Passthrough(config.OverlayWindow); err != nil {
		if cerr := e.eww("close", config.OverlayWindow); cerr == nil {
			e.open = false
		}
		return fmt.Errorf("%w: %w", ErrNoPassthrough, err)
	}
	return nil
}

// Hide closes the overlay window. eww rejects closing a window that is not
// open, which is not an error here.
func (e *EWW) Hide() error {
	if err := e.eww("close", config.OverlayWindow); err != nil && e.open {
		return err
	}
	e.open = false
	return nil
}
