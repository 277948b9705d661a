package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/hoppxi/dusk/internal/manager"
	"github.com/hoppxi/dusk/pkg/displayinfo"
	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/hoppxi/dusk/pkg/surface"
	"github.com/rs/zerolog"
)

// enumerators builds the display backends named in the config. Unknown or
// unavailable names are logged and skipped.
func enumerators(s manager.DisplaySettings, log zerolog.Logger) []operation.Enumerator {
	var out []operation.Enumerator
	for _, name := range s.Backends {
		switch name {
		case "backlight":
			bus, err := displayinfo.Logind()
			if err != nil {
				log.Debug().Err(err).Msg("logind unavailable, writing backlight sysfs directly")
			}
			out = append(out, &displayinfo.Backlight{Root: s.SysfsRoot, Bus: bus})
		case "ddcutil":
			out = append(out, &displayinfo.DDCUtil{Path: s.DDCUtilPath})
		default:
			if e, ok := platformEnumerator(name); ok {
				out = append(out, e)
				continue
			}
			log.Warn().Str("backend", name).Msg("unknown display backend ignored")
		}
	}
	return out
}

// newSurface builds the overlay surface named in the config.
func newSurface(s manager.OverlaySettings, m *manager.AppManager) (operation.Surface, error) {
	switch s.Backend {
	case "eww":
		return &surface.EWW{
			Path:      s.EwwPath,
			ConfigDir: filepath.Join(filepath.Dir(manager.SocketPath()), "eww"),
			StartDaemon: func(args ...string) error {
				return m.StartTracked(s.EwwPath, args...)
			},
			Passthrough: ewwPassthrough(),
		}, nil
	}
	if sf, ok := platformSurface(s.Backend); ok {
		return sf, nil
	}
	return nil, fmt.Errorf("unknown overlay backend %q", s.Backend)
}
