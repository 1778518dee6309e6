package ldraw

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"unicode"
)

// Colour is a colour definition. It is visible to every element that
// follows it in the same scope, in enclosing scopes after it and in later
// steps of the same page.
type Colour struct {
	ElementBase
	name      string
	code      uint32
	edgeCode  uint32
	value     color.NRGBA
	luminance uint8
	material  Material
}

// NewColour returns a colour definition. The code may not be a direct
// colour and the edge may not be a transparent direct colour.
func NewColour(name string, code uint32, value color.NRGBA, edge uint32) (*Colour, error) {
	if err := validColourName(name); err != nil {
		return nil, err
	}
	if IsDirectColour(code) {
		return nil, fmt.Errorf("%w: colour code %s is a direct colour", ErrInvalidArgument, FormatColourCode(code))
	}
	if IsTransparentDirectColour(edge) {
		return nil, fmt.Errorf("%w: edge %s is a transparent direct colour", ErrInvalidArgument, FormatColourCode(edge))
	}
	c := newColour(name, code, value, edge)
	return c, nil
}

func newColour(name string, code uint32, value color.NRGBA, edge uint32) *Colour {
	c := &Colour{name: name, code: code, value: value, edgeCode: edge, material: FinishPlain}
	c.Init(c)
	return c
}

// directColourDefinition synthesises a frozen definition for a direct
// colour code.
func directColourDefinition(code uint32) *Colour {
	v, _ := DirectColourValue(code)
	c := newColour("Direct_Colour_"+FormatColourCode(code)[2:], code, v, DirectColour(edgeFor(v)))
	c.Freeze()
	return c
}

// edgeFor picks a dark or light edge for v.
func edgeFor(v color.NRGBA) color.NRGBA {
	if int(v.R)*299+int(v.G)*587+int(v.B)*114 < 128*1000 {
		return color.NRGBA{R: 0x59, G: 0x59, B: 0x59, A: 255}
	}
	return color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}
}

func validColourName(name string) error {
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: colour name %q", ErrInvalidArgument, name)
	}
	return nil
}

// Kind returns KindColour.
func (c *Colour) Kind() ElementKind { return KindColour }

// Name returns the colour name.
func (c *Colour) Name() string { return c.name }

// SetName renames the colour. Names may not be empty or contain spaces.
func (c *Colour) SetName(name string) error {
	if err := validColourName(name); err != nil {
		return err
	}
	return setProperty(&c.ElementBase, "Name", &c.name, name, c.SetName)
}

// Code returns the colour code.
func (c *Colour) Code() uint32 { return c.code }

// SetCode changes the code.
func (c *Colour) SetCode(code uint32) error {
	if IsDirectColour(code) {
		return fmt.Errorf("%w: colour code %s is a direct colour", ErrInvalidArgument, FormatColourCode(code))
	}
	return setProperty(&c.ElementBase, "Code", &c.code, code, c.SetCode)
}

// EdgeCode returns the code of the edge colour.
func (c *Colour) EdgeCode() uint32 { return c.edgeCode }

// SetEdgeCode changes the edge colour.
func (c *Colour) SetEdgeCode(edge uint32) error {
	if IsTransparentDirectColour(edge) {
		return fmt.Errorf("%w: edge %s is a transparent direct colour", ErrInvalidArgument, FormatColourCode(edge))
	}
	return setProperty(&c.ElementBase, "EdgeCode", &c.edgeCode, edge, c.SetEdgeCode)
}

// Value returns the RGBA value.
func (c *Colour) Value() color.NRGBA { return c.value }

// SetValue changes the RGBA value.
func (c *Colour) SetValue(v color.NRGBA) error {
	return setProperty(&c.ElementBase, "Value", &c.value, v, c.SetValue)
}

// IsTransparent reports whether the colour has alpha below 255.
func (c *Colour) IsTransparent() bool { return c.value.A < 255 }

// Luminance returns the glow strength.
func (c *Colour) Luminance() uint8 { return c.luminance }

// SetLuminance changes the glow strength.
func (c *Colour) SetLuminance(l uint8) error {
	return setProperty(&c.ElementBase, "Luminance", &c.luminance, l, c.SetLuminance)
}

// Material returns the surface finish.
func (c *Colour) Material() Material { return c.material }

// SetMaterial changes the surface finish. A nil material means plain.
func (c *Colour) SetMaterial(m Material) error {
	if m == nil {
		m = FinishPlain
	}
	if err := c.CheckMutable(); err != nil {
		return err
	}
	old := c.material
	c.material = m
	c.changed("Material", old, m, func() error { return c.SetMaterial(old) })
	return nil
}

// IsSystem reports whether the colour comes from a palette rather than
// from a document.
func (c *Colour) IsSystem() bool { return c.parent == nil }

// Clone returns an unattached copy.
func (c *Colour) Clone() Element {
	n := newColour(c.name, c.code, c.value, c.edgeCode)
	n.luminance = c.luminance
	n.material = c.material
	return n
}

// Analyse reports problems with the definition. Libraries may not define
// colours locally.
func (c *Colour) Analyse(_ *Context, std Standard) []Problem {
	var out []Problem
	if std == StandardPartsLibrary && c.parent != nil {
		out = append(out, Problem{
			Code:     ProblemInvalidColour,
			Severity: SeverityError,
			Element:  c,
			Message:  fmt.Sprintf("colour %s defined in a library file", c.name),
		})
	}
	return out
}

// Emit writes the !COLOUR line. Repository output rewrites local codes as
// direct colours and drops the definitions.
func (c *Colour) Emit(b *CodeBuilder, ec *EmitContext) {
	if ec.Standard == StandardRepository {
		return
	}
	b.WriteLine(c.String())
}

// String returns the !COLOUR line.
func (c *Colour) String() string {
	f := []string{"0 !COLOUR", c.name, "CODE", strconv.FormatUint(uint64(c.code), 10), "VALUE", FormatRGB(c.value), "EDGE", formatEdge(c.edgeCode)}
	if c.value.A != 255 {
		f = append(f, "ALPHA", strconv.Itoa(int(c.value.A)))
	}
	if c.luminance != 0 {
		f = append(f, "LUMINANCE", strconv.Itoa(int(c.luminance)))
	}
	if m := c.material.String(); m != "" {
		f = append(f, m)
	}
	return strings.Join(f, " ")
}

func formatEdge(edge uint32) string {
	if IsDirectColour(edge) && !IsTransparentDirectColour(edge) {
		v, _ := DirectColourValue(edge)
		return FormatRGB(v)
	}
	return FormatColourCode(edge)
}

// ParseColour reads a "0 !COLOUR ..." line.
func ParseColour(line string) (*Colour, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "0" || fields[1] != "!COLOUR" {
		return nil, fmt.Errorf("%w: not a colour definition", ErrFormat)
	}
	fields = fields[2:]
	if len(fields) < 7 || fields[1] != "CODE" || fields[3] != "VALUE" || fields[5] != "EDGE" {
		return nil, fmt.Errorf("%w: colour definition %q", ErrFormat, line)
	}
	name := fields[0]
	code, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: colour code %q", ErrFormat, fields[2])
	}
	value, err := ParseRGB(fields[4])
	if err != nil {
		return nil, err
	}
	edge, err := ParseColourCode(fields[6])
	if err != nil {
		return nil, err
	}
	rest := fields[7:]
	var lum uint8
attrs:
	for len(rest) >= 2 {
		switch rest[0] {
		case "ALPHA":
			a, err := strconv.ParseUint(rest[1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: alpha %q", ErrFormat, rest[1])
			}
			value.A = uint8(a)
		case "LUMINANCE":
			l, err := strconv.ParseUint(rest[1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: luminance %q", ErrFormat, rest[1])
			}
			lum = uint8(l)
		default:
			break attrs
		}
		rest = rest[2:]
	}
	m, err := parseMaterial(rest)
	if err != nil {
		return nil, err
	}
	c, err := NewColour(name, uint32(code), value, edge)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	c.luminance = lum
	c.material = m
	return c, nil
}
