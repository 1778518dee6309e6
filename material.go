package ldraw

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Material is the surface finish of a colour definition. The set of
// implementations is closed: Finish, *Glitter and *Speckle.
type Material interface {
	// String returns the text written after the colour's base fields.
	// Plain materials return "".
	String() string
	material()
}

// Finish is a material without parameters.
type Finish uint8

const (
	// FinishPlain is the default solid finish.
	FinishPlain Finish = iota
	// FinishChrome is a mirror finish.
	FinishChrome
	// FinishPearlescent is a pearl sheen.
	FinishPearlescent
	// FinishRubber is a matte rubber surface.
	FinishRubber
	// FinishMatteMetallic is a brushed metal look.
	FinishMatteMetallic
	// FinishMetal is a polished metal look.
	FinishMetal
)

var finishNames = [...]string{
	FinishPlain:         "",
	FinishChrome:        "CHROME",
	FinishPearlescent:   "PEARLESCENT",
	FinishRubber:        "RUBBER",
	FinishMatteMetallic: "MATTE_METALLIC",
	FinishMetal:         "METAL",
}

func (f Finish) String() string {
	if int(f) < len(finishNames) {
		return finishNames[f]
	}
	return ""
}

func (Finish) material() {}

// Particles describes the flakes embedded in glitter and speckle colours.
// Either Size or both MinSize and MaxSize are set.
type Particles struct {
	Value     color.NRGBA
	Luminance uint8
	Fraction  float64
	Size      float64
	MinSize   float64
	MaxSize   float64
}

func (p Particles) fields() []string {
	f := []string{"VALUE", FormatRGB(p.Value)}
	if p.Value.A != 255 {
		f = append(f, "ALPHA", strconv.Itoa(int(p.Value.A)))
	}
	if p.Luminance != 0 {
		f = append(f, "LUMINANCE", strconv.Itoa(int(p.Luminance)))
	}
	f = append(f, "FRACTION", FormatNumber(p.Fraction, 4))
	return f
}

func (p Particles) sizeFields() []string {
	if p.Size != 0 || (p.MinSize == 0 && p.MaxSize == 0) {
		return []string{"SIZE", FormatNumber(p.Size, 4)}
	}
	return []string{"MINSIZE", FormatNumber(p.MinSize, 4), "MAXSIZE", FormatNumber(p.MaxSize, 4)}
}

// Glitter is a colour with flat reflective flakes.
type Glitter struct {
	Particles
	VFraction float64
}

func (g *Glitter) String() string {
	f := append([]string{"MATERIAL", "GLITTER"}, g.fields()...)
	f = append(f, "VFRACTION", FormatNumber(g.VFraction, 4))
	return strings.Join(append(f, g.sizeFields()...), " ")
}

func (*Glitter) material() {}

// Speckle is a colour with small speckled flakes.
type Speckle struct {
	Particles
}

func (s *Speckle) String() string {
	f := append([]string{"MATERIAL", "SPECKLE"}, s.fields()...)
	return strings.Join(append(f, s.sizeFields()...), " ")
}

func (*Speckle) material() {}

// parseMaterial reads the fields that follow the base colour fields.
func parseMaterial(fields []string) (Material, error) {
	if len(fields) == 0 {
		return FinishPlain, nil
	}
	for f := FinishChrome; f <= FinishMetal; f++ {
		if len(fields) == 1 && fields[0] == finishNames[f] {
			return f, nil
		}
	}
	if fields[0] != "MATERIAL" || len(fields) < 2 {
		return nil, fmt.Errorf("%w: unknown material %q", ErrFormat, strings.Join(fields, " "))
	}
	kind := fields[1]
	var (
		p         = Particles{Value: color.NRGBA{A: 255}}
		vfraction float64
		err       error
	)
	kv := fields[2:]
	for i := 0; i+1 < len(kv) && err == nil; i += 2 {
		switch kv[i] {
		case "VALUE":
			var c color.NRGBA
			c, err = ParseRGB(kv[i+1])
			c.A = p.Value.A
			p.Value = c
		case "ALPHA":
			var a uint64
			a, err = strconv.ParseUint(kv[i+1], 10, 8)
			p.Value.A = uint8(a)
		case "LUMINANCE":
			var l uint64
			l, err = strconv.ParseUint(kv[i+1], 10, 8)
			p.Luminance = uint8(l)
		case "FRACTION":
			p.Fraction, err = strconv.ParseFloat(kv[i+1], 64)
		case "VFRACTION":
			vfraction, err = strconv.ParseFloat(kv[i+1], 64)
		case "SIZE":
			p.Size, err = strconv.ParseFloat(kv[i+1], 64)
		case "MINSIZE":
			p.MinSize, err = strconv.ParseFloat(kv[i+1], 64)
		case "MAXSIZE":
			p.MaxSize, err = strconv.ParseFloat(kv[i+1], 64)
		default:
			err = fmt.Errorf("%w: unknown material field %q", ErrFormat, kv[i])
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: material: %w", ErrFormat, err)
	}
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("%w: material: missing value for %q", ErrFormat, kv[len(kv)-1])
	}
	switch kind {
	case "GLITTER":
		return &Glitter{Particles: p, VFraction: vfraction}, nil
	case "SPECKLE":
		return &Speckle{Particles: p}, nil
	}
	return nil, fmt.Errorf("%w: unknown material %q", ErrFormat, kind)
}
