package ldraw

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Special colour codes.
const (
	// MainColour means "inherit the colour of the referencing line".
	MainColour uint32 = 16
	// EdgeColour means "use the edge colour of the inherited colour".
	EdgeColour uint32 = 24
)

// Direct colours carry an RGB value in the code itself: 0x2RRGGBB is
// opaque and 0x3RRGGBB is transparent.
const (
	directOpaque      uint32 = 0x2000000
	directTransparent uint32 = 0x3000000
	directTypeMask    uint32 = 0xF000000
	directRGBMask     uint32 = 0x0FFFFFF

	// transparentAlpha is the alpha given to transparent direct colours.
	transparentAlpha = 128
)

// IsDirectColour reports whether code encodes an RGB value.
func IsDirectColour(code uint32) bool {
	t := code & directTypeMask
	return code <= directTypeMask|directRGBMask && (t == directOpaque || t == directTransparent)
}

// IsTransparentDirectColour reports whether code is a transparent direct
// colour.
func IsTransparentDirectColour(code uint32) bool {
	return IsDirectColour(code) && code&directTypeMask == directTransparent
}

// DirectColour encodes c as a direct colour code. Colours with alpha below
// 255 become transparent direct colours.
func DirectColour(c color.NRGBA) uint32 {
	code := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if c.A < 255 {
		return directTransparent | code
	}
	return directOpaque | code
}

// DirectColourValue decodes a direct colour code.
func DirectColourValue(code uint32) (color.NRGBA, bool) {
	if !IsDirectColour(code) {
		return color.NRGBA{}, false
	}
	c := color.NRGBA{
		R: uint8(code >> 16),
		G: uint8(code >> 8),
		B: uint8(code),
		A: 255,
	}
	if IsTransparentDirectColour(code) {
		c.A = transparentAlpha
	}
	return c, true
}

// FormatColourCode writes a colour code as it appears in text: decimal for
// palette codes, 0x2RRGGBB for direct colours.
func FormatColourCode(code uint32) string {
	if IsDirectColour(code) {
		return fmt.Sprintf("0x%07X", code)
	}
	return strconv.FormatUint(uint64(code), 10)
}

// ParseColourCode reads a colour code in decimal, 0x or # notation.
func ParseColourCode(s string) (uint32, error) {
	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 32)
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseUint(s[1:], 16, 32)
		if err == nil && len(s) == 7 {
			v |= uint64(directOpaque)
		}
	default:
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: colour code %q", ErrFormat, s)
	}
	return uint32(v), nil
}

// ParseRGB reads a #RRGGBB value.
func ParseRGB(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("%w: colour value %q", ErrFormat, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: colour value %q", ErrFormat, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// FormatRGB writes c as #RRGGBB.
func FormatRGB(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
