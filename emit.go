package ldraw

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// Standard selects the output conventions used when generating text.
type Standard uint8

const (
	// StandardFull emits everything the tree holds: hidden and ghosted
	// elements, groups, blank lines before comment runs.
	StandardFull Standard = iota
	// StandardPartsLibrary emits text suitable for library submission:
	// no hidden elements, no grouping, optimised culling flags.
	StandardPartsLibrary
	// StandardRepository emits model text for a public repository: no
	// hidden elements, no culling flags, local colours rewritten as direct
	// colours.
	StandardRepository
)

var standardNames = [...]string{
	StandardFull:         "full",
	StandardPartsLibrary: "library",
	StandardRepository:   "repository",
}

// String returns the string representation of a Standard.
func (s Standard) String() string {
	if int(s) < len(standardNames) {
		return standardNames[s]
	}
	return "unknown"
}

// ParseStandard returns the Standard named by s.
func ParseStandard(s string) (Standard, bool) {
	for i, name := range standardNames {
		if strings.EqualFold(name, s) {
			return Standard(i), true
		}
	}
	return 0, false
}

// honoursGroups reports whether group markers are written.
func (s Standard) honoursGroups() bool {
	return s != StandardPartsLibrary
}

// Winding is the vertex order treated as front-facing.
type Winding uint8

const (
	// WindingCCW means front faces are wound counter-clockwise.
	WindingCCW Winding = iota
	// WindingCW means front faces are wound clockwise.
	WindingCW
)

// String returns the string representation of a Winding.
func (w Winding) String() string {
	if w == WindingCW {
		return "CW"
	}
	return "CCW"
}

// Invert returns the opposite winding.
func (w Winding) Invert() Winding {
	return 1 - w
}

// Text markers written in front of element lines.
const (
	groupPrefix  = "0 MLCAD BTG "
	hiddenPrefix = "0 MLCAD HIDE "
	ghostPrefix  = "0 GHOST "
	texmapPrefix = "0 !: "
)

// CodeBuilder accumulates generated text line by line.
type CodeBuilder struct {
	buf []byte
}

// WriteLine appends s and a line break.
func (b *CodeBuilder) WriteLine(s string) {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, '\n')
}

// WriteBlank appends an empty line.
func (b *CodeBuilder) WriteBlank() {
	b.buf = append(b.buf, '\n')
}

// Len returns the number of bytes written.
func (b *CodeBuilder) Len() int { return len(b.buf) }

// Bytes returns the generated text.
func (b *CodeBuilder) Bytes() []byte { return b.buf }

// String returns the generated text.
func (b *CodeBuilder) String() string { return string(b.buf) }

// Reset discards all text.
func (b *CodeBuilder) Reset() { b.buf = b.buf[:0] }

// prefixLines inserts marker at the start of every line written since
// start. When skipContinuation is set, lines that are texture map
// continuations keep their text unprefixed.
func (b *CodeBuilder) prefixLines(start int, marker string, skipContinuation bool) {
	if start >= len(b.buf) {
		return
	}
	block := b.buf[start:]
	out := make([]byte, 0, len(block)+len(marker)*4)
	lineStart := true
	for i := 0; i < len(block); i++ {
		if lineStart {
			rest := block[i:]
			if !(skipContinuation && bytes.HasPrefix(rest, []byte(texmapPrefix))) && rest[0] != '\n' {
				out = append(out, marker...)
			}
			lineStart = false
		}
		out = append(out, block[i])
		if block[i] == '\n' {
			lineStart = true
		}
	}
	b.buf = append(b.buf[:start], out...)
}

// EmitContext carries the parameters threaded through code generation.
type EmitContext struct {
	Context  *Context
	Standard Standard

	// Colour replaces MainColour in emitted elements when it is not
	// MainColour itself.
	Colour uint32
	// Transform is applied to every emitted coordinate and matrix.
	Transform geom.Matrix4
	// Winding is the logical winding of the geometry being emitted.
	// Polygons whose logical winding differs from the winding declared
	// in the output are written with their vertex order reversed.
	Winding Winding

	// Page is the page whose text is being generated.
	Page *Page

	bfc *bfcState
}

// bfcState tracks culling as seen by a reader of the generated text.
type bfcState struct {
	certified bool
	enabled   bool
	// output is the winding last declared in the generated text.
	output Winding
	// local is the winding last declared by the source flags.
	local Winding
}

// NewEmitContext returns a context for emitting page p.
func NewEmitContext(ctx *Context, std Standard, p *Page) *EmitContext {
	if ctx == nil {
		ctx = DefaultContext()
	}
	ec := &EmitContext{
		Context:   ctx,
		Standard:  std,
		Colour:    MainColour,
		Transform: geom.Identity(),
		Page:      p,
		bfc:       &bfcState{},
	}
	if p != nil {
		cert := p.BFC()
		ec.bfc.certified = cert.IsCertified()
		ec.bfc.enabled = ec.bfc.certified
		ec.bfc.output = cert.Winding()
		ec.bfc.local = ec.bfc.output
		ec.Winding = ec.bfc.output
	}
	return ec
}

// Reversed reports whether polygons must be written in reverse order.
func (ec *EmitContext) Reversed() bool {
	return ec.bfc != nil && ec.Winding != ec.bfc.output
}

// optimiseFlags reports whether culling flags are rewritten rather than
// copied.
func (ec *EmitContext) optimiseFlags() bool {
	return ec.Standard == StandardPartsLibrary && ec.bfc != nil && ec.bfc.certified
}

func (ec *EmitContext) isPrimitive() bool {
	return ec.Page != nil && ec.Page.Type().IsPrimitive()
}

// Coordinate formats one coordinate value with the precision of the page.
func (ec *EmitContext) Coordinate(v float64) string {
	p := ec.Context.Precision.Coordinate
	if ec.isPrimitive() {
		p = ec.Context.Precision.PrimitiveCoordinate
	}
	return FormatNumber(v, p)
}

// Point formats a transformed point.
func (ec *EmitContext) Point(v geom.Vector3) string {
	v = ec.Transform.TransformPoint(v)
	return ec.Coordinate(v[0]) + " " + ec.Coordinate(v[1]) + " " + ec.Coordinate(v[2])
}

// ColourCode formats a colour value for element e, applying the override
// colour and, in the repository standard, replacing local definitions by
// direct colours.
func (ec *EmitContext) ColourCode(e Element, code uint32) string {
	if code == MainColour && ec.Colour != MainColour {
		code = ec.Colour
	}
	if ec.Standard == StandardRepository && code != MainColour && code != EdgeColour && !IsDirectColour(code) {
		if def := findColour(e, func(c *Colour) bool { return c.code == code }); def != nil {
			code = DirectColour(def.Value())
		}
	}
	return FormatColourCode(code)
}

// FormatNumber rounds v to precision decimals and trims trailing zeros.
// Negative zero is written as 0.
func FormatNumber(v float64, precision int) string {
	scale := math.Pow(10, float64(precision))
	v = math.Round(v*scale) / scale
	if v == 0 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// emitDecorated emits e and writes the hide, ghost and group markers its
// state calls for.
func emitDecorated(b *CodeBuilder, ec *EmitContext, e Element) {
	start := b.Len()
	e.Emit(b, ec)
	if d, ok := e.(Decorated); ok && ec.Standard == StandardFull {
		if !d.IsVisible() {
			b.prefixLines(start, hiddenPrefix, true)
		}
		if d.IsGhosted() {
			b.prefixLines(start, ghostPrefix, true)
		}
	}
	if g, ok := e.(Groupable); ok && ec.Standard.honoursGroups() {
		if name := g.GroupName(); name != "" {
			b.prefixLines(start, groupPrefix+name+" ", true)
		}
	}
}

// Decorated is implemented by elements that can be hidden or ghosted.
type Decorated interface {
	IsVisible() bool
	IsGhosted() bool
}

// emitItems writes the elements of c in order.
func (c *Collection) emitItems(b *CodeBuilder, ec *EmitContext) {
	prevComment := true
	for _, e := range c.items {
		if d, ok := e.(Decorated); ok && !d.IsVisible() && ec.Standard != StandardFull {
			continue
		}
		if f, ok := e.(*BFCFlag); ok {
			f.emitFlag(b, ec)
			continue
		}
		_, isComment := e.(*Comment)
		if isComment && !prevComment && ec.Standard != StandardPartsLibrary {
			b.WriteBlank()
		}
		prevComment = isComment
		emitDecorated(b, ec, e)
	}
}

// Emit writes the elements of c.
func (c *Collection) Emit(b *CodeBuilder, ec *EmitContext) {
	c.emitItems(b, ec)
}
