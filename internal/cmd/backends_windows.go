//go:build windows

package cmd

import (
	"github.com/hoppxi/dusk/pkg/displayinfo"
	"github.com/hoppxi/dusk/pkg/operation"
	"github.com/hoppxi/dusk/pkg/surface"
)

func platformEnumerator(name string) (operation.Enumerator, bool) {
	if name == "dxva2" {
		return displayinfo.DXVA2{}, true
	}
	return nil, false
}

func platformSurface(name string) (operation.Surface, bool) {
	if name == "win32" {
		return &surface.Win32{}, true
	}
	return nil, false
}

func ewwPassthrough() func(string) error { return nil }
