package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/vector"
)

const iconSize = 64

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847

// Icon renders the tray icon: a moon over a half-dimmed disc. Windows wants
// ICO data, everything else PNG.
func Icon(goos string) ([]byte, error) {
	data, err := renderPNG(iconSize)
	if err != nil {
		return nil, err
	}
	if goos == "windows" {
		return wrapICO(data, iconSize), nil
	}
	return data, nil
}

func renderPNG(size int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float32(size)

	disc := vector.NewRasterizer(size, size)
	circle(disc, s/2, s/2, s*0.46)
	disc.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0xf5, G: 0xc5, B: 0x42, A: 0xff}), image.Point{})

	shade := vector.NewRasterizer(size, size)
	circle(shade, s*0.68, s*0.36, s*0.38)
	shade.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x1e, G: 0x22, B: 0x33, A: 0xe6}), image.Point{})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func circle(z *vector.Rasterizer, cx, cy, r float32) {
	k := r * kappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}

// wrapICO puts a single PNG image into an ICO container.
func wrapICO(pngData []byte, size int) []byte {
	const headerLen = 6 + 16
	var buf bytes.Buffer
	le := binary.LittleEndian

	_ = binary.Write(&buf, le, uint16(0)) // reserved
	_ = binary.Write(&buf, le, uint16(1)) // type: icon
	_ = binary.Write(&buf, le, uint16(1)) // count

	dim := uint8(size)
	if size >= 256 {
		dim = 0
	}
	buf.WriteByte(dim)
	buf.WriteByte(dim)
	buf.WriteByte(0)                       // palette
	buf.WriteByte(0)                       // reserved
	_ = binary.Write(&buf, le, uint16(1))  // planes
	_ = binary.Write(&buf, le, uint16(32)) // bits per pixel
	_ = binary.Write(&buf, le, uint32(len(pngData)))
	_ = binary.Write(&buf, le, uint32(headerLen))

	buf.Write(pngData)
	return buf.Bytes()
}
