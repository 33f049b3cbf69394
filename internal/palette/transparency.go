package palette

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/seventv/slide-inverter/colors"
)

type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingAlphaChannel
	EncodingColorKey
	EncodingPaletteAlpha
)

func (e Encoding) String() string {
	switch e {
	case EncodingNone:
		return "none"
	case EncodingAlphaChannel:
		return "alpha-channel"
	case EncodingColorKey:
		return "color-key"
	case EncodingPaletteAlpha:
		return "palette-alpha"
	default:
		return fmt.Sprintf("unknown encoding %d", int(e))
	}
}

// Transparency says how a decoded image signals transparency. Key is only
// meaningful for EncodingColorKey and is reported at 8 bits.
type Transparency struct {
	Encoding Encoding
	Key      colors.RGB

	// decoded is set when the PNG decoder already matched the key at the
	// source bit depth and stored the result as alpha.
	decoded bool
}

// Classify picks the transparency encoding of a decoded image. PNG sources
// are classified from their header chunks since the decoder already folds a
// tRNS key into an alpha plane.
func Classify(img image.Image, meta Metadata) Transparency {
	if meta.png != nil {
		switch {
		case meta.png.hasAlphaChannel():
			return Transparency{Encoding: EncodingAlphaChannel}
		case meta.png.key != nil:
			return Transparency{Encoding: EncodingColorKey, Key: *meta.png.key, decoded: true}
		case meta.png.colorType == pngColorPalette:
			return Transparency{Encoding: EncodingPaletteAlpha}
		}

		return Transparency{Encoding: EncodingNone}
	}

	switch m := img.(type) {
	case *image.Paletted:
		return Transparency{Encoding: EncodingPaletteAlpha}
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return Transparency{Encoding: EncodingAlphaChannel}
	case *image.RGBA:
		if !m.Opaque() {
			return Transparency{Encoding: EncodingAlphaChannel}
		}
	case *image.RGBA64:
		if !m.Opaque() {
			return Transparency{Encoding: EncodingAlphaChannel}
		}
	}

	return Transparency{Encoding: EncodingNone}
}

// Decompose splits an image into its RGB plane and, unless the encoding is
// EncodingNone, an alpha mask. Gray and palette images are expanded to RGB.
func Decompose(img image.Image, tr Transparency) (*PixelBuffer, error) {
	// Clone normalises every image type to un-premultiplied NRGBA at the origin.
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	buf := NewPixelBuffer(w, h, tr.Encoding != EncodingNone)

	var keyed func(x, y int) bool
	if tr.Encoding == EncodingColorKey && !tr.decoded {
		keyed = keyMatcher(img, tr.Key)
	}

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			buf.Pix[i*3] = r
			buf.Pix[i*3+1] = g
			buf.Pix[i*3+2] = b

			switch tr.Encoding {
			case EncodingAlphaChannel, EncodingPaletteAlpha:
				buf.Alpha[i] = a
			case EncodingColorKey:
				switch {
				case keyed == nil:
					buf.Alpha[i] = a
				case keyed(x, y):
					buf.Alpha[i] = 0
				default:
					buf.Alpha[i] = 255
				}
			}
		}
	}

	return buf, nil
}

// keyMatcher compares pixels against key at the full depth of img, so a 16 bit
// sample only matches when both of its bytes equal the key byte. There is no
// tolerance for anti-aliased edges.
func keyMatcher(img image.Image, key colors.RGB) func(x, y int) bool {
	min := img.Bounds().Min
	want := color.NRGBA64{
		R: uint16(key.R) * 0x101,
		G: uint16(key.G) * 0x101,
		B: uint16(key.B) * 0x101,
	}

	return func(x, y int) bool {
		c := color.NRGBA64Model.Convert(img.At(min.X+x, min.Y+y)).(color.NRGBA64)
		return c.R == want.R && c.G == want.G && c.B == want.B
	}
}

// Recompose builds an NRGBA image when the buffer carries alpha, otherwise an
// opaque RGBA image that encoders write without an alpha channel.
func Recompose(buf *PixelBuffer) (image.Image, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	n := buf.Width * buf.Height

	if buf.Alpha != nil {
		img := image.NewNRGBA(buf.Bounds())
		for i := 0; i < n; i++ {
			img.Pix[i*4] = buf.Pix[i*3]
			img.Pix[i*4+1] = buf.Pix[i*3+1]
			img.Pix[i*4+2] = buf.Pix[i*3+2]
			img.Pix[i*4+3] = buf.Alpha[i]
		}

		return img, nil
	}

	img := image.NewRGBA(buf.Bounds())
	for i := 0; i < n; i++ {
		img.Pix[i*4] = buf.Pix[i*3]
		img.Pix[i*4+1] = buf.Pix[i*3+1]
		img.Pix[i*4+2] = buf.Pix[i*3+2]
		img.Pix[i*4+3] = 0xff
	}

	return img, nil
}
