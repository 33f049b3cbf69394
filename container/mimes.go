package container

import "github.com/h2non/filetype/matchers"

var (
	MimeWEBP = matchers.TypeWebp.MIME.Value
	MimeGIF  = matchers.TypeGif.MIME.Value
	MimePNG  = matchers.TypePng.MIME.Value
	MimeJPEG = matchers.TypeJpeg.MIME.Value
	MimeBMP  = matchers.TypeBmp.MIME.Value
	MimeTIFF = matchers.TypeTiff.MIME.Value
	MimeZIP  = matchers.TypeZip.MIME.Value
)

// MimeByExtension covers the media extensions written into presentations.
var MimeByExtension = map[string]string{
	"png":  MimePNG,
	"jpg":  MimeJPEG,
	"jpeg": MimeJPEG,
	"gif":  MimeGIF,
	"bmp":  MimeBMP,
	"tif":  MimeTIFF,
	"tiff": MimeTIFF,
	"webp": MimeWEBP,
}
