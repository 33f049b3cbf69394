package palette

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/container"
	"github.com/seventv/slide-inverter/task"
	"go.uber.org/multierr"

	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooManyPixels     = errors.New("image exceeds the pixel limit")
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
)

// FormatOf maps a sniffed file type onto a codec format, or "" if unsupported.
func FormatOf(t types.Type) Format {
	switch t {
	case matchers.TypePng:
		return FormatPNG
	case matchers.TypeJpeg:
		return FormatJPEG
	case matchers.TypeGif:
		return FormatGIF
	case matchers.TypeBmp:
		return FormatBMP
	case matchers.TypeTiff:
		return FormatTIFF
	case matchers.TypeWebp:
		return FormatWebP
	}

	return ""
}

// Extension is the media part extension used inside a presentation.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case "":
		return "png"
	}

	return string(f)
}

func (f Format) ContentType() string {
	return container.MimeByExtension[f.Extension()]
}

// Metadata is what the codec learned about the source beyond its pixels.
type Metadata struct {
	Format Format
	png    *pngHeader
}

// Decode decodes an image of at most task.DefaultMaxImagePixels pixels.
func Decode(data []byte) (image.Image, Metadata, error) {
	return DecodeLimit(data, task.DefaultMaxImagePixels)
}

// DecodeLimit reads the image header first and refuses to decode anything
// larger than maxPixels, so a forged header cannot force a huge allocation.
func DecodeLimit(data []byte, maxPixels int) (image.Image, Metadata, error) {
	t := container.Match(data)

	meta := Metadata{Format: FormatOf(t)}
	if !container.IsImage(t) || meta.Format == "" {
		return nil, meta, &task.DecodeError{Subject: "image", Err: ErrUnsupportedFormat}
	}

	if meta.Format == FormatPNG {
		hdr, err := readPNGHeader(data)
		if err != nil {
			return nil, meta, &task.DecodeError{Subject: "png header", Err: err}
		}
		meta.png = &hdr
	}

	subject := string(meta.Format) + " image"

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, meta, &task.DecodeError{Subject: subject, Err: err}
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, meta, &task.DecodeError{
			Subject: subject,
			Err:     fmt.Errorf("%w: %dx%d is more than %d pixels", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels),
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, meta, &task.DecodeError{Subject: subject, Err: err}
	}

	return img, meta, nil
}

// OutputFormat keeps the source format for opaque results. Anything carrying
// alpha is written as PNG.
func OutputFormat(src Format, hasAlpha bool) Format {
	if hasAlpha {
		return FormatPNG
	}

	switch src {
	case FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatWebP:
		return src
	}

	return FormatPNG
}

// Encode writes img in format f. quality applies to the lossy formats only.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	var err error
	switch f {
	case FormatJPEG:
		err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatWebP:
		err = webp.Encode(buf, img, &webp.Options{Quality: float32(quality)})
	case FormatGIF:
		err = imaging.Encode(buf, img, imaging.GIF)
	case FormatBMP:
		err = imaging.Encode(buf, img, imaging.BMP)
	case FormatTIFF:
		err = imaging.Encode(buf, img, imaging.TIFF)
	default:
		f = FormatPNG
		err = imaging.Encode(buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to encode %s", f), err)
	}

	return buf.Bytes(), nil
}

// Output is a remapped image ready to be embedded again.
type Output struct {
	Data         []byte
	Format       Format
	Transparency Transparency
	Width        int
	Height       int
}

// Process decodes an image blob, remaps it onto pair and encodes the result.
func Process(data []byte, pair colors.Pair, quality int) (Output, error) {
	return Converter{JPEGQuality: quality}.Process(data, pair)
}

// Converter adapts Process to the slide applier's image hook. A MaxPixels
// of zero uses task.DefaultMaxImagePixels.
type Converter struct {
	JPEGQuality int
	MaxPixels   int
}

func (c Converter) Process(data []byte, pair colors.Pair) (Output, error) {
	maxPixels := c.MaxPixels
	if maxPixels <= 0 {
		maxPixels = task.DefaultMaxImagePixels
	}

	img, meta, err := DecodeLimit(data, maxPixels)
	if err != nil {
		return Output{}, err
	}

	tr := Classify(img, meta)

	buf, err := Decompose(img, tr)
	if err != nil {
		return Output{}, &task.TransformError{Op: "decompose", Err: err}
	}

	out, err := Recompose(Transform(buf, pair))
	if err != nil {
		return Output{}, &task.TransformError{Op: "recompose", Err: err}
	}

	f := OutputFormat(meta.Format, buf.HasAlpha())

	encoded, err := Encode(out, f, c.JPEGQuality)
	if err != nil {
		return Output{}, &task.TransformError{Op: "encode", Err: err}
	}

	return Output{
		Data:         encoded,
		Format:       f,
		Transparency: tr,
		Width:        buf.Width,
		Height:       buf.Height,
	}, nil
}

func (c Converter) Convert(data []byte, pair colors.Pair) ([]byte, string, error) {
	out, err := c.Process(data, pair)
	if err != nil {
		return nil, "", err
	}

	return out.Data, out.Format.Extension(), nil
}
