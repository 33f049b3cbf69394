package container

import (
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

var TypeAvif = types.NewType("avif", "image/avif")

func init() {
	filetype.AddMatcher(TypeAvif, func(data []byte) bool {
		if len(data) < 12 {
			return false
		}

		return data[0] == 0x00 &&
			data[1] == 0x00 &&
			data[4] == 'f' &&
			data[5] == 't' &&
			data[6] == 'y' &&
			data[7] == 'p' &&
			data[8] == 'a' &&
			data[9] == 'v' &&
			data[10] == 'i' &&
			(data[11] == 's' || data[11] == 'f' || data[11] == 'o')
	})
}

func Match(data []byte) types.Type {
	t, _ := filetype.Match(data)

	return t
}

// IsImage reports whether data is one of the raster formats the codec can decode.
func IsImage(t types.Type) bool {
	switch t {
	case matchers.TypePng,
		matchers.TypeJpeg,
		matchers.TypeGif,
		matchers.TypeBmp,
		matchers.TypeTiff,
		matchers.TypeWebp:
		return true
	}

	return false
}

// IsPresentation only inspects the first few local headers, so packages that
// do not lead with [Content_Types].xml are reported as plain zips.
func IsPresentation(data []byte) bool {
	return Match(data) == matchers.TypePptx
}

func IsArchive(data []byte) bool {
	return Match(data) == matchers.TypeZip
}
