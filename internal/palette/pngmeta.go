package palette

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/seventv/slide-inverter/colors"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// PNG color types from the IHDR chunk.
const (
	pngColorGray      = 0
	pngColorRGB       = 2
	pngColorPalette   = 3
	pngColorGrayAlpha = 4
	pngColorRGBA      = 6
)

type pngHeader struct {
	colorType int
	bitDepth  int
	key       *colors.RGB
}

func (h pngHeader) hasAlphaChannel() bool {
	return h.colorType == pngColorGrayAlpha || h.colorType == pngColorRGBA
}

// readPNGHeader walks the chunks ahead of the image data, which is where
// IHDR and tRNS must appear.
func readPNGHeader(data []byte) (pngHeader, error) {
	hdr := pngHeader{colorType: -1}

	r := bytes.NewReader(data)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(r, sig); err != nil {
		return hdr, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return hdr, errors.New("invalid PNG signature")
	}

	var trns []byte
	for {
		lenBuf := make([]byte, 8)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return hdr, err
		}
		length := binary.BigEndian.Uint32(lenBuf[:4])
		name := string(lenBuf[4:8])

		if name == "IDAT" || name == "IEND" {
			break
		}

		if int64(length) > int64(r.Len()) {
			return hdr, io.ErrUnexpectedEOF
		}

		chunk := make([]byte, length)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return hdr, err
		}
		if _, err := r.Seek(4, io.SeekCurrent); err != nil {
			return hdr, err
		}

		switch name {
		case "IHDR":
			if len(chunk) < 13 {
				return hdr, errors.New("short IHDR chunk")
			}
			hdr.bitDepth = int(chunk[8])
			hdr.colorType = int(chunk[9])
		case "tRNS":
			trns = chunk
		}
	}

	if hdr.colorType < 0 {
		return hdr, errors.New("missing IHDR chunk")
	}

	switch hdr.colorType {
	case pngColorRGB:
		if len(trns) >= 6 {
			hdr.key = &colors.RGB{
				R: hdr.sample(trns[0:2]),
				G: hdr.sample(trns[2:4]),
				B: hdr.sample(trns[4:6]),
			}
		}
	case pngColorGray:
		if len(trns) >= 2 {
			v := hdr.sample(trns[0:2])
			hdr.key = &colors.RGB{R: v, G: v, B: v}
		}
	}

	return hdr, nil
}

// sample scales a two byte tRNS sample to 8 bits the same way the decoder
// scales pixel samples.
func (h pngHeader) sample(b []byte) uint8 {
	v := binary.BigEndian.Uint16(b)
	switch {
	case h.bitDepth == 16:
		return uint8(v >> 8)
	case h.bitDepth < 8 && h.bitDepth > 0:
		max := uint16(1)<<uint(h.bitDepth) - 1
		return uint8(uint32(v&max) * 255 / uint32(max))
	}

	return uint8(v)
}
