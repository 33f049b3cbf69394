package colors

import (
	"fmt"
	"math"
)

const (
	// MinimumDistinct is the ratio below which two colors read as the same color.
	MinimumDistinct = 1.5
	// MinimumAA is the WCAG AA ratio for normal text.
	MinimumAA = 4.5
)

// Luminance is the WCAG 2.0 relative luminance in [0,1].
// https://www.w3.org/TR/WCAG20/#relativeluminancedef
func Luminance(c RGB) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func linearize(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}

	return math.Pow((c+0.055)/1.055, 2.4)
}

// ContrastRatio is in [1,21] and symmetric in its arguments.
func ContrastRatio(a, b RGB) float64 {
	la, lb := Luminance(a), Luminance(b)
	lighter, darker := math.Max(la, lb), math.Min(la, lb)

	return (lighter + 0.05) / (darker + 0.05)
}

// ValidateContrast returns advisory warnings for a text/background pair. It never fails.
func ValidateContrast(foreground, background RGB) []string {
	ratio := ContrastRatio(foreground, background)

	switch {
	case ratio < MinimumDistinct:
		return []string{fmt.Sprintf(
			"Colors are very similar (contrast ratio: %.1f). Text may be difficult to read. Consider using more contrasting colors.",
			ratio,
		)}
	case ratio < MinimumAA:
		return []string{fmt.Sprintf(
			"Contrast ratio is %.1f. WCAG AA recommends at least 4.5:1 for normal text. Consider using colors with more contrast.",
			ratio,
		)}
	}

	return nil
}
