// Package app wires slider movements and tray commands to the display
// dispatcher and the dimming overlay.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoppxi/dusk/internal/bridge"
	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/rs/zerolog"
)

const Label = "Brightness/Dimness"

// Dispatcher applies a brightness target to the attached displays.
type Dispatcher interface {
	Apply(ctx context.Context, b intensity.Brightness) operation.Report
}

// Overlay is the dimming surface as seen by the controller.
type Overlay interface {
	Initialize() error
	SetAlpha(a intensity.Alpha) error
	ToggleVisibility() (bool, error)
}

// View is what the UI renders on every redraw.
type View struct {
	Label   string
	Level   intensity.Level
	Visible bool
	// Pending is set while a dragged level has not been applied yet.
	Pending bool
}

// Controller owns the level, the overlay and the visible flag. Every method
// except Pump must run on the UI goroutine.
type Controller struct {
	dispatcher Dispatcher
	overlay    Overlay
	onQuit     func()
	log        zerolog.Logger

	level      intensity.Level
	preview    intensity.Level
	previewing bool
	visible    bool
	terminated bool
}

type Option func(*Controller)

// WithInitialLevel sets the slider position shown before the first drag.
func WithInitialLevel(level int) Option {
	return func(c *Controller) { c.level = intensity.Clamp(level) }
}

// WithQuit registers the hook run once when Quit is handled.
func WithQuit(fn func()) Option {
	return func(c *Controller) { c.onQuit = fn }
}

func New(log zerolog.Logger, dispatcher Dispatcher, overlay Overlay, opts ...Option) *Controller {
	c := &Controller{
		dispatcher: dispatcher,
		overlay:    overlay,
		log:        log.With().Str("component", "app").Logger(),
		level:      intensity.Knee,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start creates the overlay. A failure here leaves no usable mode and is
// returned to the caller as fatal. With apply set the initial level is pushed
// to the displays and the overlay.
func (c *Controller) Start(ctx context.Context, apply bool) error {
	if err := c.overlay.Initialize(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if apply {
		c.SliderChanged(ctx, int(c.level))
	}
	return nil
}

// Preview tracks the slider while it is dragged. Displays and the overlay
// are left alone until SliderChanged commits a level, so a drag costs one
// dispatch instead of one per step.
func (c *Controller) Preview(level int) {
	if c.terminated {
		return
	}
	c.preview = intensity.Clamp(level)
	c.previewing = c.preview != c.level
}

// SliderChanged applies a new level: brightness first, then overlay alpha.
func (c *Controller) SliderChanged(ctx context.Context, level int) {
	if c.terminated {
		return
	}
	c.previewing = false
	c.level = intensity.Clamp(level)
	b, a := intensity.Map(int(c.level))

	report := c.dispatcher.Apply(ctx, b)
	if len(report.Failed) > 0 {
		c.log.Debug().Int("failed", len(report.Failed)).Msg("some displays ignored the brightness change")
	}

	if err := c.overlay.SetAlpha(a); err != nil {
		c.log.Warn().Err(err).Uint8("alpha", uint8(a)).Msg("overlay opacity not applied")
	}

	c.log.Debug().
		Int("level", int(c.level)).
		Int("brightness", int(b)).
		Uint8("alpha", uint8(a)).
		Msg("level applied")
}

// Reapply sends the current brightness again, for displays attached since the
// last slider move.
func (c *Controller) Reapply(ctx context.Context) {
	if c.terminated {
		return
	}
	b, _ := intensity.Map(int(c.level))
	c.dispatcher.Apply(ctx, b)
}

// Handle processes one bridged tray command.
func (c *Controller) Handle(e bridge.Event) {
	if c.terminated {
		return
	}

	switch e {
	case bridge.ShowHide:
		visible, err := c.overlay.ToggleVisibility()
		c.visible = visible
		if err != nil {
			c.log.Warn().Err(err).Msg("overlay visibility not applied")
		}
		c.log.Info().Bool("visible", c.visible).Msg("overlay toggled")
	case bridge.Quit:
		c.terminated = true
		c.log.Info().Msg("quit requested")
		if c.onQuit != nil {
			c.onQuit()
		}
	default:
		c.log.Warn().Stringer("event", e).Msg("unknown control event")
	}
}

// Pump drains rx and hands each event to the UI goroutine through post, which
// must run the callbacks in the order given. It returns after forwarding Quit,
// when the bridge closes, or when ctx ends.
func (c *Controller) Pump(ctx context.Context, rx *bridge.Receiver, post func(func())) error {
	for {
		e, err := rx.Recv(ctx)
		if errors.Is(err, bridge.ErrClosed) {
			c.log.Debug().Msg("control surface gone, no more tray events")
			return nil
		}
		if err != nil {
			return err
		}

		post(func() { c.Handle(e) })
		if e == bridge.Quit {
			return nil
		}
	}
}

// Status is the one-line summary shown under the slider.
func (v View) Status() string {
	b, _ := intensity.Map(int(v.Level))
	state := "hidden"
	if v.Visible {
		state = "shown"
	}
	status := fmt.Sprintf("Level %d: backlight %d%%, dimming %.0f%% (overlay %s)",
		v.Level, b, intensity.Dimming(int(v.Level))*100, state)
	if v.Pending {
		status += ", release to apply"
	}
	return status
}

func (c *Controller) View() View {
	if c.previewing {
		return View{Label: Label, Level: c.preview, Visible: c.visible, Pending: true}
	}
	return View{Label: Label, Level: c.level, Visible: c.visible}
}

func (c *Controller) Terminated() bool {
	return c.terminated
}
