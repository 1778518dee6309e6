package ldraw

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"slices"
	"strings"
	"sync"
)

// Palette is a system colour table keyed by code.
type Palette interface {
	Lookup(code uint32) (*Colour, bool)
}

// MapPalette is a Palette backed by a map. Its colours are frozen.
type MapPalette map[uint32]*Colour

// Lookup returns the colour with the given code.
func (p MapPalette) Lookup(code uint32) (*Colour, bool) {
	c, ok := p[code]
	return c, ok
}

// Codes returns the codes in ascending order.
func (p MapPalette) Codes() []uint32 {
	codes := make([]uint32, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// LoadPalette reads the !COLOUR lines of a configuration file. Other lines
// are ignored.
func LoadPalette(r io.Reader) (MapPalette, error) {
	p := make(MapPalette)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(text, "0 !COLOUR") {
			continue
		}
		c, err := ParseColour(text)
		if err != nil {
			return nil, &ParseError{Page: "palette", Line: line, Text: text, Err: err}
		}
		c.Freeze()
		p[c.code] = c
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ldraw: read palette: %w", err)
	}
	return p, nil
}

var (
	fallbackOnce   sync.Once
	fallbackColour *Colour
)

// FallbackColour is returned when a code resolves nowhere.
func FallbackColour() *Colour {
	fallbackOnce.Do(func() {
		fallbackColour = newColour("Main_Colour", MainColour,
			color.NRGBA{R: 0xFF, G: 0xFF, B: 0x80, A: 255},
			DirectColour(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}))
		fallbackColour.Freeze()
	})
	return fallbackColour
}

var (
	defaultPaletteOnce sync.Once
	defaultPalette     MapPalette
)

// DefaultPalette returns the built-in colour table.
func DefaultPalette() MapPalette {
	defaultPaletteOnce.Do(func() {
		p, err := LoadPalette(strings.NewReader(defaultPaletteText))
		if err != nil {
			panic(err)
		}
		defaultPalette = p
	})
	return defaultPalette
}

const defaultPaletteText = `0 !COLOUR Black CODE 0 VALUE #1B2A34 EDGE #2B4354
0 !COLOUR Blue CODE 1 VALUE #1E5AA8 EDGE #0D326F
0 !COLOUR Green CODE 2 VALUE #00852B EDGE #1E601E
0 !COLOUR Dark_Turquoise CODE 3 VALUE #069D9F EDGE #0A4D4F
0 !COLOUR Red CODE 4 VALUE #B40000 EDGE #720E0F
0 !COLOUR Dark_Pink CODE 5 VALUE #D3359D EDGE #9E2773
0 !COLOUR Brown CODE 6 VALUE #543324 EDGE #1E1E1E
0 !COLOUR Light_Grey CODE 7 VALUE #8A928D EDGE #6D6E5C
0 !COLOUR Dark_Grey CODE 8 VALUE #545955 EDGE #333333
0 !COLOUR Light_Blue CODE 9 VALUE #97CBD9 EDGE #3592C3
0 !COLOUR Bright_Green CODE 10 VALUE #58AB41 EDGE #4A8A3A
0 !COLOUR Light_Turquoise CODE 11 VALUE #00AAA4 EDGE #008580
0 !COLOUR Salmon CODE 12 VALUE #F06D61 EDGE #A53C31
0 !COLOUR Pink CODE 13 VALUE #F6A9BB EDGE #9E6E78
0 !COLOUR Yellow CODE 14 VALUE #FAC80A EDGE #B67B00
0 !COLOUR White CODE 15 VALUE #F4F4F4 EDGE #808080
0 !COLOUR Main_Colour CODE 16 VALUE #7F7F7F EDGE #333333
0 !COLOUR Edge_Colour CODE 24 VALUE #7F7F7F EDGE #333333
0 !COLOUR Trans_Dark_Blue CODE 33 VALUE #0020A0 EDGE #000064 ALPHA 128
0 !COLOUR Trans_Green CODE 34 VALUE #237841 EDGE #1E5A32 ALPHA 128
0 !COLOUR Trans_Red CODE 36 VALUE #C91A09 EDGE #880000 ALPHA 128
0 !COLOUR Trans_Yellow CODE 46 VALUE #F5CD2F EDGE #8E7400 ALPHA 128
0 !COLOUR Trans_Clear CODE 47 VALUE #FCFCFC EDGE #C3C3C3 ALPHA 128
0 !COLOUR Light_Bluish_Grey CODE 71 VALUE #A0A5A9 EDGE #6C6E68
0 !COLOUR Dark_Bluish_Grey CODE 72 VALUE #6C6E68 EDGE #333333
0 !COLOUR Reddish_Brown CODE 70 VALUE #5F3109 EDGE #1E1E1E
0 !COLOUR Rubber_Black CODE 256 VALUE #212121 EDGE #595959 RUBBER
0 !COLOUR Chrome_Gold CODE 334 VALUE #DFC176 EDGE #C29A0D CHROME
0 !COLOUR Chrome_Silver CODE 383 VALUE #CECECE EDGE #A4A4A4 CHROME
0 !COLOUR Pearl_Gold CODE 297 VALUE #AA7F2E EDGE #805F22 PEARLESCENT
0 !COLOUR Metallic_Silver CODE 80 VALUE #767676 EDGE #595959 METAL
0 !COLOUR Glitter_Trans_Clear CODE 117 VALUE #EEEEEE EDGE #BDBDBD ALPHA 128 MATERIAL GLITTER VALUE #FFFFFF FRACTION 0.08 VFRACTION 0.1 SIZE 1
0 !COLOUR Speckle_Black_Silver CODE 132 VALUE #000000 EDGE #595959 MATERIAL SPECKLE VALUE #595959 FRACTION 0.4 MINSIZE 1 MAXSIZE 3
`
