package config

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

// OverlayWindow is the eww window that darkens the screen.
const OverlayWindow = "dusk-overlay"

// AlphaVar is the eww variable holding the overlay opacity, 0 to 1.
const AlphaVar = "dusk_alpha"

//go:embed overlay/eww.yuck overlay/eww.scss
var embeddedFiles embed.FS

func OverlayFS() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "overlay")
	if err != nil {
		panic(err)
	}
	return sub
}

// Extract writes the overlay widget config into targetDir.
func Extract(targetDir string) error {
	files := OverlayFS()
	return fs.WalkDir(files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		targetPath := filepath.Join(targetDir, path)
		if d.IsDir() {
			return os.MkdirAll(targetPath, 0755)
		}

		content, err := fs.ReadFile(files, path)
		if err != nil {
			return err
		}
		return os.WriteFile(targetPath, content, 0644)
	})
}
