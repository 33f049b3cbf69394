package palette

import (
	"math"

	"github.com/seventv/slide-inverter/colors"
)

// Transform inverts every channel and remaps it linearly onto the pair.
// Alpha is copied untouched.
func Transform(src *PixelBuffer, pair colors.Pair) *PixelBuffer {
	dst := &PixelBuffer{
		Width:  src.Width,
		Height: src.Height,
		Pix:    make([]uint8, len(src.Pix)),
	}
	if src.Alpha != nil {
		dst.Alpha = make([]uint8, len(src.Alpha))
		copy(dst.Alpha, src.Alpha)
	}

	if pair.IsIdentity() {
		for i, v := range src.Pix {
			dst.Pix[i] = 255 - v
		}

		return dst
	}

	lut := Lookup(pair)
	for i := 0; i+2 < len(src.Pix); i += 3 {
		dst.Pix[i] = lut[0][src.Pix[i]]
		dst.Pix[i+1] = lut[1][src.Pix[i+1]]
		dst.Pix[i+2] = lut[2][src.Pix[i+2]]
	}

	return dst
}

// Lookup precomputes Remap for every input value of each channel.
func Lookup(pair colors.Pair) [3][256]uint8 {
	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		dark, light := pair.Dark.Channel(c), pair.Light.Channel(c)
		for v := 0; v < 256; v++ {
			lut[c][v] = Remap(uint8(v), dark, light)
		}
	}

	return lut
}

// Remap is the per-channel formula: negate, then place on [dark, light].
func Remap(v, dark, light uint8) uint8 {
	inverted := float64(255 - v)
	out := math.Round(float64(dark) + inverted/255*(float64(light)-float64(dark)))

	return clamp(out)
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}

	return uint8(v)
}
