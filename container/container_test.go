package container

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"github.com/klauspost/compress/zip"
	"github.com/seventv/slide-inverter/internal/testutil"
)

type testCase struct {
	Name         string
	Data         []byte
	ExpectedType types.Type
}

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	return img
}

func encoded(t *testing.T, enc func(w *bytes.Buffer) error) []byte {
	buf := &bytes.Buffer{}
	testutil.IsNil(t, enc(buf), "encode sample")

	return buf.Bytes()
}

func TestMatch(t *testing.T) {
	t.Parallel()

	zipData := encoded(t, func(w *bytes.Buffer) error {
		zw := zip.NewWriter(w)
		f, err := zw.Create("hello.txt")
		if err != nil {
			return err
		}
		_, _ = f.Write([]byte("hello"))
		return zw.Close()
	})

	cases := []testCase{
		{"png", encoded(t, func(w *bytes.Buffer) error { return png.Encode(w, sample()) }), matchers.TypePng},
		{"jpeg", encoded(t, func(w *bytes.Buffer) error { return jpeg.Encode(w, sample(), nil) }), matchers.TypeJpeg},
		{"gif", encoded(t, func(w *bytes.Buffer) error { return gif.Encode(w, sample(), nil) }), matchers.TypeGif},
		{"avif", []byte{0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'a', 'v', 'i', 'f', 0x00}, TypeAvif},
		{"zip", zipData, matchers.TypeZip},
	}

	for _, c := range cases {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			testutil.Assert(t, c.ExpectedType, Match(c.Data), fmt.Sprintf("sample %s", c.Name))
		})
	}
}

func TestIsImage(t *testing.T) {
	testutil.True(t, IsImage(matchers.TypePng), "png is decodable")
	testutil.True(t, IsImage(matchers.TypeWebp), "webp is decodable")
	testutil.True(t, !IsImage(TypeAvif), "avif is not decodable")
	testutil.True(t, !IsImage(types.Unknown), "unknown is not decodable")
}

func TestIsArchive(t *testing.T) {
	testutil.True(t, !IsArchive([]byte("not a zip")), "plain bytes are not an archive")
}
