//go:build !windows && !linux

package cmd

import "github.com/hoppxi/dusk/pkg/operation"

func platformEnumerator(string) (operation.Enumerator, bool) { return nil, false }

func platformSurface(string) (operation.Surface, bool) { return nil, false }

func ewwPassthrough() func(string) error { return nil }
