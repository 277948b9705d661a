package operation

import (
	"errors"
	"fmt"

	"github.com/hoppxi/dusk/pkg/intensity"
)

var (
	ErrNotInitialized = errors.New("overlay surface not initialized")
	ErrSurfaceCreate  = errors.New("overlay surface could not be created")
)

// Style describes the overlay surface. ClickThrough, TopMost and Borderless
// are always set by Overlay; a surface must honor them for its whole life.
type Style struct {
	Width        int
	Height       int
	ClickThrough bool
	TopMost      bool
	Borderless   bool
}

// Surface is a platform window able to cover the primary display.
type Surface interface {
	Create(style Style) error
	SetOpacity(a intensity.Alpha) error
	Show() error
	Hide() error
}

// OverlayState is a snapshot of the overlay.
type OverlayState struct {
	Created bool
	Visible bool
	Alpha   intensity.Alpha
}

// Overlay owns the single dimming surface of the process. It is not safe for
// concurrent use; callers keep it on the UI goroutine.
type Overlay struct {
	surface Surface
	state   OverlayState
}

func NewOverlay(surface Surface) *Overlay {
	return &Overlay{surface: surface}
}

// Initialize creates the surface hidden and fully transparent. Calling it on
// an already created overlay does nothing.
func (o *Overlay) Initialize() error {
	if o.state.Created {
		return nil
	}

	style := Style{ClickThrough: true, TopMost: true, Borderless: true}
	if err := o.surface.Create(style); err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceCreate, err)
	}
	if err := o.surface.SetOpacity(0); err != nil {
		return fmt.Errorf("%w: set initial opacity: %w", ErrSurfaceCreate, err)
	}
	if err := o.surface.Hide(); err != nil {
		return fmt.Errorf("%w: hide: %w", ErrSurfaceCreate, err)
	}

	o.state = OverlayState{Created: true}
	return nil
}

// SetAlpha changes the overlay darkness without touching visibility. The
// recorded alpha follows the request even if the surface rejects it, so a
// later show reflects the slider.
func (o *Overlay) SetAlpha(a intensity.Alpha) error {
	if !o.state.Created {
		return ErrNotInitialized
	}
	o.state.Alpha = a
	if err := o.surface.SetOpacity(a); err != nil {
		return fmt.Errorf("set overlay opacity: %w", err)
	}
	return nil
}

// ToggleVisibility flips the overlay between shown and hidden and returns the
// new visibility.
func (o *Overlay) ToggleVisibility() (bool, error) {
	if !o.state.Created {
		return false, ErrNotInitialized
	}

	o.state.Visible = !o.state.Visible
	var err error
	if o.state.Visible {
		err = o.surface.Show()
	} else {
		err = o.surface.Hide()
	}
	if err != nil {
		return o.state.Visible, fmt.Errorf("toggle overlay: %w", err)
	}
	return o.state.Visible, nil
}

func (o *Overlay) State() OverlayState {
	return o.state
}
