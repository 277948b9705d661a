package surface

import (
	"errors"
	"strings"

	"github.com/hoppxi/dusk/pkg/intensity"
)

// ErrNoPassthrough is returned by surfaces that cannot let pointer input
// through to the windows below.
var ErrNoPassthrough = errors.New("overlay cannot pass input through")

var errWindowNotFound = errors.New("window not found")

// opacityCardinal scales an alpha to the 32-bit _NET_WM_WINDOW_OPACITY range.
func opacityCardinal(a intensity.Alpha) uint32 {
	return uint32(a) * 0x01010101
}

// titleMatches reports whether a top-level window title belongs to the eww
// window named name. eww titles its windows "Eww - <name>".
func titleMatches(title, name string) bool {
	return name != "" && (title == name || strings.HasSuffix(title, " - "+name))
}
