package palette

import (
	"fmt"
	"image"
)

// PixelBuffer holds packed RGB samples plus an optional alpha plane of the same size.
type PixelBuffer struct {
	Width  int
	Height int
	// Pix is R,G,B per pixel, row major.
	Pix []uint8
	// Alpha is one byte per pixel, nil when the image is opaque by construction.
	Alpha []uint8
}

func NewPixelBuffer(width, height int, withAlpha bool) *PixelBuffer {
	b := &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
	if withAlpha {
		b.Alpha = make([]uint8, width*height)
	}

	return b
}

func (b *PixelBuffer) HasAlpha() bool {
	return b.Alpha != nil
}

func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

func (b *PixelBuffer) Validate() error {
	n := b.Width * b.Height
	if len(b.Pix) != n*3 {
		return fmt.Errorf("rgb plane has %d samples, want %d", len(b.Pix), n*3)
	}
	if b.Alpha != nil && len(b.Alpha) != n {
		return fmt.Errorf("alpha plane has %d samples, want %d", len(b.Alpha), n)
	}

	return nil
}
