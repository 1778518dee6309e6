package ldraw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// Graphic holds the fields shared by the geometric primitives: a colour
// and a fixed number of coordinates.
type Graphic struct {
	GroupableBase
	colour  uint32
	coords  []geom.Vector3
	visible bool
	ghosted bool

	ignoreColour bool

	// version changes with every coordinate change so that subtypes can
	// cache derived geometry.
	version uint64
}

func (g *Graphic) initGraphic(self Element, colour uint32, n int, coords []geom.Vector3) {
	g.Init(self)
	g.colour = colour
	g.coords = make([]geom.Vector3, n)
	copy(g.coords, coords)
	g.visible = true
}

// Colour returns the colour code.
func (g *Graphic) Colour() uint32 { return g.colour }

// SetColour changes the colour code.
func (g *Graphic) SetColour(code uint32) error {
	return setProperty(&g.ElementBase, "Colour", &g.colour, code, g.SetColour)
}

// ResolvedColour returns the definition of the colour as seen from the
// element.
func (g *Graphic) ResolvedColour(ctx *Context) *Colour {
	return ResolveColour(ctx, g.self, g.colour)
}

// Len returns the number of coordinates.
func (g *Graphic) Len() int { return len(g.coords) }

// Coordinate returns coordinate i.
func (g *Graphic) Coordinate(i int) geom.Vector3 { return g.coords[i] }

// Coordinates returns a copy of the coordinates.
func (g *Graphic) Coordinates() []geom.Vector3 {
	out := make([]geom.Vector3, len(g.coords))
	copy(out, g.coords)
	return out
}

// SetCoordinate changes coordinate i.
func (g *Graphic) SetCoordinate(i int, v geom.Vector3) error {
	if i < 0 || i >= len(g.coords) {
		return fmt.Errorf("%w: coordinate index %d", ErrInvalidArgument, i)
	}
	coords := g.Coordinates()
	coords[i] = v
	return g.SetCoordinates(coords)
}

// SetCoordinates replaces every coordinate. The length must match the
// element's fixed coordinate count.
func (g *Graphic) SetCoordinates(coords []geom.Vector3) error {
	if len(coords) != len(g.coords) {
		return fmt.Errorf("%w: %s needs %d coordinates, got %d", ErrInvalidArgument, g.self.Kind(), len(g.coords), len(coords))
	}
	if err := g.CheckMutable(); err != nil {
		return err
	}
	old := g.Coordinates()
	if equalCoords(old, coords) {
		return nil
	}
	copy(g.coords, coords)
	g.version++
	g.changed("Coordinates", old, g.Coordinates(), func() error { return g.SetCoordinates(old) })
	return nil
}

func equalCoords(a, b []geom.Vector3) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsVisible reports whether the element is shown.
func (g *Graphic) IsVisible() bool { return g.visible }

// SetVisible shows or hides the element.
func (g *Graphic) SetVisible(v bool) error {
	return setProperty(&g.ElementBase, "Visible", &g.visible, v, g.SetVisible)
}

// IsGhosted reports whether the element is ghosted.
func (g *Graphic) IsGhosted() bool { return g.ghosted }

// SetGhosted ghosts or unghosts the element.
func (g *Graphic) SetGhosted(v bool) error {
	return setProperty(&g.ElementBase, "Ghosted", &g.ghosted, v, g.SetGhosted)
}

// ColourComparison reports whether the colour takes part in duplicate
// detection.
func (g *Graphic) ColourComparison() bool { return !g.ignoreColour }

// SetColourComparison includes or excludes the colour from duplicate
// detection.
func (g *Graphic) SetColourComparison(enabled bool) error {
	if err := g.CheckMutable(); err != nil {
		return err
	}
	if g.ignoreColour == !enabled {
		return nil
	}
	g.ignoreColour = !enabled
	g.changed("ColourComparison", !enabled, enabled, func() error { return g.SetColourComparison(!enabled) })
	return nil
}

// BoundingBox returns the box around the coordinates.
func (g *Graphic) BoundingBox() geom.Box3 {
	return geom.BoxOf(g.coords...)
}

// Transform applies m to every coordinate.
func (g *Graphic) Transform(m geom.Matrix4) error {
	coords := g.Coordinates()
	for i, v := range coords {
		coords[i] = m.TransformPoint(v)
	}
	return g.SetCoordinates(coords)
}

// graphicOf returns the Graphic embedded in e.
func graphicOf(e Element) (*Graphic, bool) {
	if h, ok := e.(interface{ graphic() *Graphic }); ok {
		return h.graphic(), true
	}
	return nil, false
}

func (g *Graphic) graphic() *Graphic { return g }

// IsDuplicateOf reports whether other is the same kind of primitive with
// the same coordinates in any order. Colours must match when both
// elements compare colours.
func (g *Graphic) IsDuplicateOf(other Element) bool {
	o, ok := graphicOf(other)
	if !ok || o == g || other.Kind() != g.self.Kind() {
		return false
	}
	if g.ColourComparison() && o.ColourComparison() && g.colour != o.colour {
		return false
	}
	if len(g.coords) != len(o.coords) {
		return false
	}
	rest := o.Coordinates()
	for _, v := range g.coords {
		found := false
		for i, w := range rest {
			if v == w {
				rest = append(rest[:i], rest[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(rest) == 0
}

// IsColocated reports whether any two coordinates are equal.
func (g *Graphic) IsColocated() bool {
	for i := range g.coords {
		for j := i + 1; j < len(g.coords); j++ {
			if g.coords[i] == g.coords[j] {
				return true
			}
		}
	}
	return false
}

func (g *Graphic) cloneInto(dst *Graphic) {
	dst.colour = g.colour
	copy(dst.coords, g.coords)
	dst.visible = g.visible
	dst.ghosted = g.ghosted
	dst.ignoreColour = g.ignoreColour
	dst.groupName = g.groupName
}

// emitGraphic writes "<lineType> <colour> <coords...>" with coordinates
// in the given order.
func (g *Graphic) emitGraphic(b *CodeBuilder, ec *EmitContext, lineType int, order []int) {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(lineType))
	sb.WriteByte(' ')
	sb.WriteString(ec.ColourCode(g.self, g.colour))
	for _, i := range order {
		sb.WriteByte(' ')
		sb.WriteString(ec.Point(g.coords[i]))
	}
	b.WriteLine(sb.String())
}

// colourSeverity grades colour problems by standard.
func colourSeverity(std Standard) Severity {
	if std == StandardFull {
		return SeverityWarning
	}
	return SeverityError
}

// analyseCommon reports the problems every primitive can have: an
// undefined colour and duplicates among earlier siblings.
func (g *Graphic) analyseCommon(ctx *Context, std Standard) []Problem {
	var out []Problem
	if !IsColourDefined(ctx, g.self, g.colour) {
		out = append(out, Problem{
			Code:     ProblemInvalidColour,
			Severity: colourSeverity(std),
			Element:  g.self,
			Message:  "colour " + FormatColourCode(g.colour) + " is not defined",
		})
	}
	if p := g.parent; p != nil {
		for i := g.Index() - 1; i >= 0; i-- {
			if g.IsDuplicateOf(p.items[i]) {
				self := g.self
				out = append(out, Problem{
					Code:     ProblemDuplicate,
					Severity: SeverityWarning,
					Element:  self,
					Message:  fmt.Sprintf("duplicate of element %d", i),
					Repair: func() error {
						if parent := self.Base().parent; parent != nil {
							if _, err := parent.Remove(self); err != nil {
								return err
							}
						}
						self.Dispose()
						return nil
					},
				})
				break
			}
		}
	}
	return out
}

// colocatedProblem reports coincident coordinates.
func (g *Graphic) colocatedProblem() Problem {
	return Problem{
		Code:     ProblemColocated,
		Severity: SeverityError,
		Element:  g.self,
		Message:  "two or more vertices are identical",
	}
}

// Line is a type 2 edge line.
type Line struct {
	Graphic
}

// NewLine returns a line between a and b.
func NewLine(colour uint32, a, b geom.Vector3) *Line {
	l := &Line{}
	l.initGraphic(l, colour, 2, []geom.Vector3{a, b})
	return l
}

// Kind returns KindLine.
func (l *Line) Kind() ElementKind { return KindLine }

// Clone returns an unattached copy.
func (l *Line) Clone() Element {
	n := NewLine(l.colour, geom.Vector3{}, geom.Vector3{})
	l.cloneInto(&n.Graphic)
	return n
}

// Analyse reports problems with the line.
func (l *Line) Analyse(ctx *Context, std Standard) []Problem {
	out := l.analyseCommon(ctx, std)
	if l.IsColocated() {
		out = append(out, l.colocatedProblem())
	}
	if IsTransparentDirectColour(l.colour) {
		out = append(out, Problem{
			Code:     ProblemEdgeTransparent,
			Severity: SeverityWarning,
			Element:  l,
			Message:  "edge lines should not be transparent",
		})
	}
	return out
}

// Emit writes the type 2 line.
func (l *Line) Emit(b *CodeBuilder, ec *EmitContext) {
	l.emitGraphic(b, ec, 2, []int{0, 1})
}

// OptionalLine is a type 5 line drawn only when its two control points
// lie on the same side of it.
type OptionalLine struct {
	Graphic
}

// NewOptionalLine returns an optional line from a to b with control
// points c1 and c2.
func NewOptionalLine(colour uint32, a, b, c1, c2 geom.Vector3) *OptionalLine {
	l := &OptionalLine{}
	l.initGraphic(l, colour, 4, []geom.Vector3{a, b, c1, c2})
	return l
}

// Kind returns KindOptionalLine.
func (l *OptionalLine) Kind() ElementKind { return KindOptionalLine }

// Clone returns an unattached copy.
func (l *OptionalLine) Clone() Element {
	n := NewOptionalLine(l.colour, geom.Vector3{}, geom.Vector3{}, geom.Vector3{}, geom.Vector3{})
	l.cloneInto(&n.Graphic)
	return n
}

// BoundingBox covers the two end points only.
func (l *OptionalLine) BoundingBox() geom.Box3 {
	return geom.BoxOf(l.coords[0], l.coords[1])
}

// Analyse reports problems with the optional line.
func (l *OptionalLine) Analyse(ctx *Context, std Standard) []Problem {
	out := l.analyseCommon(ctx, std)
	if l.coords[0] == l.coords[1] || l.coords[2] == l.coords[3] {
		out = append(out, l.colocatedProblem())
	}
	if IsTransparentDirectColour(l.colour) {
		out = append(out, Problem{
			Code:     ProblemEdgeTransparent,
			Severity: SeverityWarning,
			Element:  l,
			Message:  "edge lines should not be transparent",
		})
	}
	return out
}

// Emit writes the type 5 line.
func (l *OptionalLine) Emit(b *CodeBuilder, ec *EmitContext) {
	l.emitGraphic(b, ec, 5, []int{0, 1, 2, 3})
}
