package slide

import (
	"fmt"

	"github.com/seventv/slide-inverter/task"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const NoSlidesWarning = "Presentation has no slides"

type Applier struct {
	Images ImageConverter
}

func NewApplier(images ImageConverter) *Applier {
	return &Applier{Images: images}
}

// Apply rewrites one slide and returns the warnings it collected. Shape level
// failures never stop the slide.
func (a *Applier) Apply(s Slide, cfg task.Config) ([]string, error) {
	warnings := []string{}

	if err := s.SetBackground(cfg.Background); err != nil {
		zap.S().Warnw("failed to set background",
			"error", err,
		)
		warnings = append(warnings, fmt.Sprintf("Background: %v", err))
	}

	shapes, err := s.Shapes()
	if err != nil {
		return warnings, multierr.Append(fmt.Errorf("failed to list shapes"), err)
	}

	// pictures are replaced after the walk so the shape tree is not mutated mid iteration
	pictures := []Shape{}
	for _, shape := range shapes {
		switch shape.Kind() {
		case KindText:
			if err := recolorText(shape, cfg); err != nil {
				zap.S().Warnw("failed to recolor text",
					"shape", shape.Name(),
					"error", err,
				)
				warnings = append(warnings, fmt.Sprintf("Text: %v", err))
			}
		case KindPicture:
			pictures = append(pictures, shape)
		}
	}

	if !cfg.InvertImages || a.Images == nil {
		return warnings, nil
	}

	for _, shape := range pictures {
		if err := a.replacePicture(s, shape, cfg); err != nil {
			zap.S().Warnw("failed to process image",
				"shape", shape.Name(),
				"error", err,
			)
			warnings = append(warnings, fmt.Sprintf("Image processing failed: %v", err))
		}
	}

	return warnings, nil
}

// ApplySafe never fails: an error or panic becomes a single slide warning.
func (a *Applier) ApplySafe(s Slide, cfg task.Config) (ok bool, warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("slide processing panicked",
				"error", r,
			)
			ok = false
			warnings = []string{fmt.Sprintf("Slide failed: panic at runtime: %v", r)}
		}
	}()

	warnings, err := a.Apply(s, cfg)
	if err != nil {
		zap.S().Errorw("slide processing failed",
			"error", err,
		)
		return false, append(warnings, fmt.Sprintf("Slide failed: %v", err))
	}

	return true, warnings
}

// ApplyDocument runs every slide in order and prefixes each warning with its
// 1-based slide number.
func (a *Applier) ApplyDocument(doc Document, cfg task.Config) ([]string, error) {
	slides, err := doc.Slides()
	if err != nil {
		return nil, err
	}

	if len(slides) == 0 {
		return []string{NoSlidesWarning}, nil
	}

	warnings := []string{}
	for idx, s := range slides {
		_, w := a.ApplySafe(s, cfg)
		for _, msg := range w {
			warnings = append(warnings, fmt.Sprintf("Slide %d: %s", idx+1, msg))
		}
	}

	return warnings, nil
}

func recolorText(shape Shape, cfg task.Config) error {
	runs, err := shape.Runs()
	if err != nil {
		return err
	}

	for _, run := range runs {
		if err := run.SetColor(cfg.Foreground); err != nil {
			return err
		}
	}

	return nil
}

func (a *Applier) replacePicture(s Slide, shape Shape, cfg task.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &task.TransformError{Op: "image", Err: fmt.Errorf("panic at runtime: %v", r)}
		}
	}()

	blob, err := shape.Image()
	if err != nil {
		return err
	}

	geometry, err := shape.Geometry()
	if err != nil {
		return err
	}

	out, ext, err := a.Images.Convert(blob, cfg.Pair())
	if err != nil {
		return err
	}

	if err := s.ReplacePicture(shape, out, ext, geometry); err != nil {
		return &task.TransformError{Op: "replace picture", Err: err}
	}

	return nil
}
