package colors

import (
	"fmt"
	"strconv"
	"strings"
)

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// Channel returns the value of channel i, 0=R 1=G 2=B.
func (c RGB) Channel(i int) uint8 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// Hex is the bare upper case form used by srgbClr values, e.g. "1A2B3C".
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return "#" + c.Hex()
}

// Pair is an ordered (dark, light) gradient. Endpoints are never swapped.
type Pair struct {
	Dark  RGB `json:"dark"`
	Light RGB `json:"light"`
}

// IsIdentity reports whether the pair is plain black to white.
func (p Pair) IsIdentity() bool {
	return p.Dark == Black && p.Light == White
}

type InvalidColorError struct {
	Input  string
	Reason string
}

func (e *InvalidColorError) Error() string {
	return fmt.Sprintf("invalid hex color %q: %s", e.Input, e.Reason)
}

// ParseHex accepts "#RRGGBB" or "RRGGBB" in any case.
func ParseHex(s string) (RGB, error) {
	if s == "" {
		return RGB{}, &InvalidColorError{Input: s, Reason: "hex color cannot be empty"}
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, &InvalidColorError{
			Input:  s,
			Reason: fmt.Sprintf("must be exactly 6 characters (got %d), example: #FF0000", len(hex)),
		}
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, &InvalidColorError{Input: s, Reason: "must contain only hex digits (0-9, A-F)"}
	}

	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}

	return c
}
