// Package ui renders the slider window with fyne. All controller calls happen
// on fyne's main goroutine.
package ui

import (
	"context"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/hoppxi/dusk/internal/app"
	"github.com/hoppxi/dusk/internal/bridge"
	"github.com/hoppxi/dusk/pkg/intensity"
)

const AppID = "io.github.hoppxi.dusk"

type Window struct {
	ctx    context.Context
	ctrl   *app.Controller
	app    fyne.App
	win    fyne.Window
	label  *widget.Label
	slider *widget.Slider
	status *widget.Label

	// set while the slider is moved programmatically
	silence bool
}

// New builds the window. Closing it sends Quit through tx, the same path the
// tray uses.
func New(ctx context.Context, ctrl *app.Controller, tx *bridge.Sender) *Window {
	a := fyneapp.NewWithID(AppID)
	w := &Window{
		ctx:    ctx,
		ctrl:   ctrl,
		app:    a,
		win:    a.NewWindow("dusk"),
		label:  widget.NewLabel(""),
		status: widget.NewLabel(""),
	}

	w.slider = widget.NewSlider(float64(intensity.MinLevel), float64(intensity.MaxLevel))
	w.slider.Step = 1
	// every drag step only moves the preview; the level is applied once the
	// drag or tap ends
	w.slider.OnChanged = func(v float64) {
		if w.silence {
			return
		}
		w.ctrl.Preview(int(v))
		w.render()
	}
	w.slider.OnChangeEnded = func(v float64) {
		if w.silence {
			return
		}
		w.ctrl.SliderChanged(w.ctx, int(v))
		w.render()
	}

	w.win.SetContent(container.NewVBox(w.label, w.slider, w.status))
	w.win.Resize(fyne.NewSize(360, 120))
	w.win.SetCloseIntercept(func() {
		tx.Send(bridge.Quit)
	})

	w.render()
	return w
}

// Post runs fn on the UI goroutine and redraws afterwards. Calls are run in
// the order they are posted.
func (w *Window) Post(fn func()) {
	fyne.Do(func() {
		fn()
		w.render()
	})
}

func (w *Window) render() {
	v := w.ctrl.View()
	w.label.SetText(v.Label)

	if int(w.slider.Value) != int(v.Level) {
		w.silence = true
		w.slider.SetValue(float64(v.Level))
		w.silence = false
	}

	w.status.SetText(v.Status())
}

// Run shows the window and blocks in fyne's event loop until Quit.
func (w *Window) Run() {
	w.win.ShowAndRun()
}

func (w *Window) Quit() {
	w.app.Quit()
}
