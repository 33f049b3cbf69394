package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/internal/testutil"
)

func TestReadPNGHeader(t *testing.T) {
	hdr, err := readPNGHeader(encodePNG(t, solid(4, 4, color.RGBA{1, 2, 3, 0xff})))
	testutil.IsNil(t, err, "header parses")
	testutil.Assert(t, pngColorRGB, hdr.colorType, "opaque RGBA is written as truecolor")
	testutil.Assert(t, 8, hdr.bitDepth, "bit depth")
	testutil.IsNil(t, hdr.key, "no key without tRNS")

	hdr, err = readPNGHeader(colorKeyFixture(t))
	testutil.IsNil(t, err, "keyed header parses")
	testutil.NotNil(t, hdr.key, "key present")
	testutil.Assert(t, colors.White, *hdr.key, "key color")

	_, err = readPNGHeader([]byte("definitely not a png"))
	testutil.NotNil(t, err, "bad signature rejected")
}

func TestGrayColorKey(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 0x40})
	img.SetGray(1, 0, color.Gray{Y: 0x80})

	data := withTRNS(t, encodePNG(t, img), []byte{0x00, 0x40})
	hdr, err := readPNGHeader(data)
	testutil.IsNil(t, err, "header parses")
	testutil.Assert(t, pngColorGray, hdr.colorType, "gray color type")
	testutil.Assert(t, colors.RGB{R: 0x40, G: 0x40, B: 0x40}, *hdr.key, "gray key expands to rgb")
}

func TestClassifyDecodedTypes(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)

	translucent := image.NewRGBA(rect)

	cases := []struct {
		name string
		img  image.Image
		want Encoding
	}{
		{"nrgba", image.NewNRGBA(rect), EncodingAlphaChannel},
		{"opaque rgba", solid(2, 2, color.RGBA{9, 9, 9, 0xff}), EncodingNone},
		{"translucent rgba", translucent, EncodingAlphaChannel},
		{"paletted", image.NewPaletted(rect, color.Palette{color.Black}), EncodingPaletteAlpha},
		{"ycbcr", image.NewYCbCr(rect, image.YCbCrSubsampleRatio420), EncodingNone},
		{"gray", image.NewGray(rect), EncodingNone},
	}

	for _, c := range cases {
		testutil.Assert(t, c.want, Classify(c.img, Metadata{}).Encoding, c.name)
	}
}

func TestClassifyPNG(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Encoding
	}{
		{"rgb", encodePNG(t, solid(3, 3, color.RGBA{0, 0, 0, 0xff})), EncodingNone},
		{"rgba", encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 3, 3))), EncodingAlphaChannel},
		{"color key", colorKeyFixture(t), EncodingColorKey},
		{"palette", encodePNG(t, image.NewPaletted(image.Rect(0, 0, 3, 3), color.Palette{color.Transparent, color.White})), EncodingPaletteAlpha},
	}

	for _, c := range cases {
		img, meta, err := Decode(c.data)
		testutil.IsNil(t, err, c.name+" decodes")
		testutil.Assert(t, c.want, Classify(img, meta).Encoding, c.name)
	}
}

func TestDecomposeColorKeyIsExact(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0xff, 0xff, 0xff, 0xff})
	img.SetNRGBA(1, 0, color.NRGBA{0xfe, 0xff, 0xff, 0xff})
	img.SetNRGBA(2, 0, color.NRGBA{0x00, 0x00, 0x00, 0xff})

	buf, err := Decompose(img, Transparency{Encoding: EncodingColorKey, Key: colors.White})
	testutil.IsNil(t, err, "decompose")
	testutil.Assert(t, []uint8{0, 255, 255}, buf.Alpha, "only the exact key is transparent")
}

func TestDecomposeGrayExpands(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 10})
	img.SetGray(1, 0, color.Gray{Y: 200})

	buf, err := Decompose(img, Transparency{})
	testutil.IsNil(t, err, "decompose")
	testutil.Assert(t, []uint8{10, 10, 10, 200, 200, 200}, buf.Pix, "gray is copied into three channels")
	testutil.Assert(t, false, buf.HasAlpha(), "no alpha for plain gray")
}

func TestDecomposePaletteResolvesAlpha(t *testing.T) {
	pal := color.Palette{color.NRGBA{0, 0, 0, 0}, color.NRGBA{0xff, 0, 0, 0xff}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	img.SetColorIndex(0, 0, 0)
	img.SetColorIndex(1, 0, 1)

	buf, err := Decompose(img, Transparency{Encoding: EncodingPaletteAlpha})
	testutil.IsNil(t, err, "decompose")
	testutil.Assert(t, []uint8{0, 255}, buf.Alpha, "palette alpha resolved")
	testutil.Assert(t, []uint8{0xff, 0, 0}, buf.Pix[3:6], "palette color resolved")
}

func TestRecompose(t *testing.T) {
	buf := NewPixelBuffer(1, 1, true)
	copy(buf.Pix, []uint8{1, 2, 3})
	buf.Alpha[0] = 4

	img, err := Recompose(buf)
	testutil.IsNil(t, err, "recompose with alpha")
	nrgba, ok := img.(*image.NRGBA)
	testutil.True(t, ok, "alpha results are NRGBA")
	testutil.Assert(t, color.NRGBA{1, 2, 3, 4}, nrgba.NRGBAAt(0, 0), "pixel")

	buf.Alpha = nil
	img, err = Recompose(buf)
	testutil.IsNil(t, err, "recompose without alpha")
	rgba, ok := img.(*image.RGBA)
	testutil.True(t, ok, "opaque results are RGBA")
	testutil.True(t, rgba.Opaque(), "opaque")

	buf.Pix = buf.Pix[:2]
	_, err = Recompose(buf)
	testutil.NotNil(t, err, "mismatched planes rejected")
}

func TestColorKey16BitMatchesBothBytes(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 1))
	img.SetRGBA64(0, 0, color.RGBA64{0xffff, 0xffff, 0xffff, 0xffff})
	img.SetRGBA64(1, 0, color.RGBA64{0xff00, 0xff00, 0xff00, 0xffff})

	data := withTRNS(t, encodePNG(t, img), []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	hdr, err := readPNGHeader(data)
	testutil.IsNil(t, err, "header parses")
	testutil.Assert(t, 16, hdr.bitDepth, "16 bit truecolor")

	decoded, meta, err := Decode(data)
	testutil.IsNil(t, err, "decode")

	tr := Classify(decoded, meta)
	testutil.Assert(t, EncodingColorKey, tr.Encoding, "color key")
	testutil.Assert(t, colors.White, tr.Key, "key reported at 8 bits")

	buf, err := Decompose(decoded, tr)
	testutil.IsNil(t, err, "decompose")
	testutil.Assert(t, []uint8{0, 255}, buf.Alpha, "low byte difference keeps the pixel opaque")
}

func TestDecomposeColorKeyComparesFullDepth(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 1))
	img.SetRGBA64(0, 0, color.RGBA64{0xffff, 0xffff, 0xffff, 0xffff})
	img.SetRGBA64(1, 0, color.RGBA64{0xff00, 0xffff, 0xffff, 0xffff})

	buf, err := Decompose(img, Transparency{Encoding: EncodingColorKey, Key: colors.White})
	testutil.IsNil(t, err, "decompose")
	testutil.Assert(t, []uint8{0, 255}, buf.Alpha, "only the exact 16 bit key is transparent")
}
