package palette

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/seventv/slide-inverter/internal/testutil"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	return img
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x ^ y) * 7), 0xff})
		}
	}

	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	buf := bytes.NewBuffer(nil)
	testutil.IsNil(t, png.Encode(buf, img), "png encodes")

	return buf.Bytes()
}

// withTRNS splices a tRNS chunk right after IHDR, turning an RGB or gray PNG
// into a color-keyed one.
func withTRNS(t *testing.T, data []byte, payload []byte) []byte {
	t.Helper()

	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	testutil.True(t, len(data) > ihdrEnd, "png is long enough")

	chunk := make([]byte, 0, 12+len(payload))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, "tRNS"...)
	chunk = append(chunk, payload...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)

	return out
}

// colorKeyFixture is a white 10x10 image with a black 4x4 interior square,
// keyed on white.
func colorKeyFixture(t *testing.T) []byte {
	img := solid(10, 10, color.RGBA{0xff, 0xff, 0xff, 0xff})
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 0xff})
		}
	}

	return withTRNS(t, encodePNG(t, img), []byte{0x00, 0xff, 0x00, 0xff, 0x00, 0xff})
}

func inSquare(x, y int) bool {
	return x >= 3 && x < 7 && y >= 3 && y < 7
}

// withDimensions rewrites the IHDR width and height of a PNG without touching
// its pixel data, fixing up the chunk checksum so the header still parses.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()

	testutil.True(t, len(data) > 33, "png is long enough")

	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))

	return out
}
