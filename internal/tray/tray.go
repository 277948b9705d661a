// Package tray runs the notification-area icon. Its menu only produces
// bridge events; it owns no application state.
package tray

import (
	"runtime"

	"github.com/energye/systray"
	"github.com/hoppxi/dusk/internal/bridge"
	"github.com/rs/zerolog"
)

const (
	ShowHideLabel = "Show/Hide Controls"
	QuitLabel     = "Quit"
)

type Tray struct {
	tx  *bridge.Sender
	log zerolog.Logger
}

func New(log zerolog.Logger, tx *bridge.Sender) *Tray {
	return &Tray{tx: tx, log: log.With().Str("component", "tray").Logger()}
}

// Run shows the icon and blocks until Quit. It is meant for its own
// goroutine, independent of the UI loop.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {
		t.log.Debug().Msg("tray stopped")
	})
}

func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	icon, err := Icon(runtime.GOOS)
	if err != nil {
		t.log.Warn().Err(err).Msg("tray icon not rendered")
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTitle("dusk")
	systray.SetTooltip("dusk: brightness and dimming")

	systray.AddMenuItem(ShowHideLabel, "Toggle the dimming overlay").Click(t.showHide)
	systray.AddSeparator()
	systray.AddMenuItem(QuitLabel, "Quit dusk").Click(t.quit)
}

func (t *Tray) showHide() {
	if !t.tx.Send(bridge.ShowHide) {
		t.log.Debug().Msg("show/hide dropped, bridge closed")
	}
}

func (t *Tray) quit() {
	t.tx.Send(bridge.Quit)
}
