package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/hoppxi/dusk/internal/app"
	"github.com/hoppxi/dusk/internal/bridge"
	"github.com/hoppxi/dusk/internal/manager"
	"github.com/hoppxi/dusk/internal/tray"
	"github.com/hoppxi/dusk/internal/ui"
	"github.com/hoppxi/dusk/internal/watchers"
	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tray icon, the slider window and the overlay",
	RunE:  runApp,
}

func runApp(cmd *cobra.Command, args []string) error {
	m := manager.New(log.Logger)
	if conn, err := m.ConnectIPC(); err == nil {
		conn.Close()
		fmt.Println("dusk is already running.")
		fmt.Println("Hint: use `dusk toggle` or `dusk quit`")
		return nil
	}
	defer m.StopAll()

	logger := log.With().Str("session", uuid.NewString()).Logger()
	logger.Info().Str("version", Version).Str("config", cfg.Path()).Msg("starting dusk")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := operation.NewDispatcher(logger, settings.Display.Timeout, enumerators(settings.Display, logger)...)

	sf, err := newSurface(settings.Overlay, m)
	if err != nil {
		return fatal(err)
	}
	if c, ok := sf.(io.Closer); ok {
		defer c.Close()
	}

	tx, rx := bridge.New()

	var win *ui.Window
	ctrl := app.New(logger, dispatcher, operation.NewOverlay(sf),
		app.WithInitialLevel(settings.UI.InitialLevel),
		app.WithQuit(func() { win.Quit() }),
	)
	if err := ctrl.Start(ctx, settings.UI.ApplyOnStart); err != nil {
		return fatal(err)
	}

	win = ui.New(ctx, ctrl, tx)
	tr := tray.New(logger, tx)
	go tr.Run()

	go func() {
		if err := m.Serve(tx); err != nil {
			logger.Warn().Err(err).Msg("control socket unavailable")
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			logger.Info().Stringer("signal", s).Msg("shutting down")
			tx.Send(bridge.Quit)
		case <-ctx.Done():
		}
	}()

	m.StartWatcher("displays", watchers.DisplayWatcher(func() {
		win.Post(func() { ctrl.Reapply(ctx) })
	}))

	cfg.Watch(func(s manager.Settings, err error) {
		if err != nil {
			logger.Warn().Err(err).Msg("config reload rejected")
			return
		}
		win.Post(func() {
			settings = s
			setupLogging(s.Log.Level)
			dispatcher.SetTimeout(s.Display.Timeout)
			dispatcher.SetEnumerators(enumerators(s.Display, logger)...)
			logger.Info().Msg("config reloaded")
		})
	})

	go func() {
		if err := ctrl.Pump(ctx, rx, win.Post); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("control events stopped")
		}
	}()

	win.Run()

	tr.Quit()
	tx.Close()
	logger.Info().Msg("dusk stopped")
	return nil
}

// fatal shows a startup failure to the user before it ends the process.
func fatal(err error) error {
	log.Error().Err(err).Msg("cannot start")
	_ = zenity.Error(err.Error(), zenity.Title("dusk"), zenity.ErrorIcon)
	return err
}
