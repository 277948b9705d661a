package operation

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hoppxi/dusk/pkg/intensity"
	"github.com/rs/zerolog"
)

// Display is one physical monitor's brightness control.
type Display interface {
	Name() string
	SetBrightness(ctx context.Context, b intensity.Brightness) error
}

// Reader is implemented by displays that can report their current level.
type Reader interface {
	Brightness(ctx context.Context) (intensity.Brightness, error)
}

// Enumerator lists the displays one backend can reach right now.
type Enumerator interface {
	Name() string
	Enumerate(ctx context.Context) ([]Display, error)
}

// Failure records one display or backend that could not take the command.
type Failure struct {
	Name string
	Err  error
}

// Report describes the outcome of a single Apply.
type Report struct {
	Target  intensity.Brightness
	Applied []string
	Failed  []Failure
}

// Dispatcher pushes a brightness target to every attached display.
type Dispatcher struct {
	mu          sync.Mutex
	enumerators []Enumerator
	timeout     time.Duration
	log         zerolog.Logger
}

func NewDispatcher(log zerolog.Logger, timeout time.Duration, enumerators ...Enumerator) *Dispatcher {
	return &Dispatcher{
		enumerators: enumerators,
		timeout:     timeout,
		log:         log.With().Str("component", "dispatcher").Logger(),
	}
}

// SetEnumerators replaces the backends used by later calls.
func (d *Dispatcher) SetEnumerators(enumerators ...Enumerator) {
	d.mu.Lock()
	d.enumerators = enumerators
	d.mu.Unlock()
}

// SetTimeout replaces the per-call deadline used by later calls.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.mu.Lock()
	d.timeout = timeout
	d.mu.Unlock()
}

func (d *Dispatcher) backends() ([]Enumerator, time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Enumerator(nil), d.enumerators...), d.timeout
}

// withTimeout bounds a single backend or display call. Every call gets its
// own deadline so one stuck bus cannot use up the time of the others.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Apply enumerates displays fresh and sends b to each of them exactly once.
// A display or backend that fails is recorded and skipped; Apply itself never
// fails.
func (d *Dispatcher) Apply(ctx context.Context, b intensity.Brightness) Report {
	report := Report{Target: b}

	backends, timeout := d.backends()
	for _, e := range backends {
		displays, err := enumerate(ctx, e, timeout)
		if err != nil {
			d.log.Debug().Err(err).Str("backend", e.Name()).Msg("enumeration failed")
			report.Failed = append(report.Failed, Failure{Name: e.Name(), Err: err})
			// a backend may still hand back the displays it did reach
		}

		for _, disp := range displays {
			if err := set(ctx, disp, b, timeout); err != nil {
				d.log.Debug().Err(err).Str("display", disp.Name()).Msg("display skipped")
				report.Failed = append(report.Failed, Failure{Name: disp.Name(), Err: err})
			} else {
				report.Applied = append(report.Applied, disp.Name())
			}
			release(disp)
		}
	}

	d.log.Debug().
		Int("target", int(b)).
		Int("applied", len(report.Applied)).
		Int("failed", len(report.Failed)).
		Msg("brightness dispatched")
	return report
}

func enumerate(ctx context.Context, e Enumerator, timeout time.Duration) (displays []Display, err error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			displays, err = nil, errors.New("backend panicked while enumerating")
		}
	}()
	return e.Enumerate(ctx)
}

func set(ctx context.Context, disp Display, b intensity.Brightness, timeout time.Duration) (err error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("display panicked while setting brightness")
		}
	}()
	return disp.SetBrightness(ctx, b)
}

// DisplayInfo describes one enumerated display.
type DisplayInfo struct {
	Name       string               `json:"name"`
	Backend    string               `json:"backend"`
	Brightness intensity.Brightness `json:"brightness"`
	Known      bool                 `json:"known"`
}

// Displays lists every display the configured backends currently see, with
// the current level where the display can report it.
func (d *Dispatcher) Displays(ctx context.Context) ([]DisplayInfo, []Failure) {
	var (
		infos    []DisplayInfo
		failures []Failure
	)
	backends, timeout := d.backends()
	for _, e := range backends {
		displays, err := enumerate(ctx, e, timeout)
		if err != nil {
			failures = append(failures, Failure{Name: e.Name(), Err: err})
		}
		for _, disp := range displays {
			info := DisplayInfo{Name: disp.Name(), Backend: e.Name()}
			if r, ok := disp.(Reader); ok {
				rctx, cancel := withTimeout(ctx, timeout)
				if b, err := r.Brightness(rctx); err == nil {
					info.Brightness, info.Known = b, true
				}
				cancel()
			}
			infos = append(infos, info)
			release(disp)
		}
	}
	return infos, failures
}

func release(disp Display) {
	if c, ok := disp.(io.Closer); ok {
		_ = c.Close()
	}
}
