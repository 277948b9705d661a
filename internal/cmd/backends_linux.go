//go:build linux

package cmd

import (
	"time"

	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/hoppxi/dusk/pkg/surface"
)

func platformEnumerator(string) (operation.Enumerator, bool) { return nil, false }

func platformSurface(name string) (operation.Surface, bool) {
	if name == "x11" {
		return &surface.X11{}, true
	}
	return nil, false
}

// ewwPassthrough clears the input region of eww's window on X11. eww maps the
// window shortly after `eww open` returns, so the lookup is retried briefly.
func ewwPassthrough() func(string) error {
	return func(window string) error {
		var err error
		for i := 0; i < 10; i++ {
			if err = surface.ClearInputByTitle(window); err == nil {
				return nil
			}
			time.Sleep(50 * time.Millisecond)
		}
		return err
	}
}
