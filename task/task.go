package task

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/seventv/slide-inverter/colors"
)

const (
	DefaultFileSuffix  = "(inverted)"
	DefaultFolderName  = "Inverted Presentations"
	DefaultJPEGQuality = 85
	DocumentExtension  = ".pptx"
)

// DefaultMaxImagePixels matches the decompression bomb limit of common imaging libraries.
const DefaultMaxImagePixels = 89478485

// Config is built once per batch and shared read-only by every worker.
type Config struct {
	Foreground   colors.RGB `json:"foreground"`
	Background   colors.RGB `json:"background"`
	InvertImages bool       `json:"invert_images"`
	FileSuffix   string     `json:"file_suffix"`
	FolderName   string     `json:"folder_name"`
	JPEGQuality  int        `json:"jpeg_quality"`

	// MaxImagePixels bounds width*height of any picture that gets decoded.
	MaxImagePixels int `json:"max_image_pixels"`
}

func DefaultConfig() Config {
	return Config{
		Foreground:     colors.White,
		Background:     colors.Black,
		InvertImages:   true,
		FileSuffix:     DefaultFileSuffix,
		FolderName:     DefaultFolderName,
		JPEGQuality:    DefaultJPEGQuality,
		MaxImagePixels: DefaultMaxImagePixels,
	}
}

// ConfigFromHex parses the two colors on top of the defaults.
func ConfigFromHex(foreground, background string) (Config, error) {
	cfg := DefaultConfig()

	fg, err := colors.ParseHex(foreground)
	if err != nil {
		return cfg, err
	}

	bg, err := colors.ParseHex(background)
	if err != nil {
		return cfg, err
	}

	cfg.Foreground = fg
	cfg.Background = bg

	return cfg, nil
}

func (c Config) Validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100 (got %d)", c.JPEGQuality)
	}
	if c.MaxImagePixels < 1 {
		return fmt.Errorf("max image pixels must be positive (got %d)", c.MaxImagePixels)
	}

	return nil
}

// Pair maps originally light content to the background and dark content to the foreground.
func (c Config) Pair() colors.Pair {
	return colors.Pair{Dark: c.Background, Light: c.Foreground}
}

// OutputName is "<stem> <suffix>.pptx".
func (c Config) OutputName(filename string) string {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	if c.FileSuffix == "" {
		return stem + DocumentExtension
	}

	return fmt.Sprintf("%s %s%s", stem, c.FileSuffix, DocumentExtension)
}

// ArchiveName is the file name of the packaged batch output.
func (c Config) ArchiveName() string {
	name := c.FolderName
	if name == "" {
		name = DefaultFolderName
	}

	return name + ".zip"
}

type Job struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

func NewJob(filename string, data []byte) Job {
	return Job{
		ID:       uuid.New().String(),
		Filename: filename,
		Data:     data,
	}
}
