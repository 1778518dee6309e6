package ldraw

import "github.com/gogpu/ldraw/geom"

// Triangle is a type 3 polygon.
type Triangle struct {
	Graphic
}

// NewTriangle returns a triangle.
func NewTriangle(colour uint32, a, b, c geom.Vector3) *Triangle {
	t := &Triangle{}
	t.initGraphic(t, colour, 3, []geom.Vector3{a, b, c})
	return t
}

// Kind returns KindTriangle.
func (t *Triangle) Kind() ElementKind { return KindTriangle }

// Clone returns an unattached copy.
func (t *Triangle) Clone() Element {
	n := NewTriangle(t.colour, geom.Vector3{}, geom.Vector3{}, geom.Vector3{})
	t.cloneInto(&n.Graphic)
	return n
}

// Normal returns the unit normal of the triangle under counter-clockwise
// winding, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() geom.Vector3 {
	return t.coords[1].Sub(t.coords[0]).Cross(t.coords[2].Sub(t.coords[0])).Normalize()
}

// IsColinear reports whether the three vertices lie on one line.
// Colocated triangles are not reported as colinear.
func (t *Triangle) IsColinear() bool {
	if t.IsColocated() {
		return false
	}
	return t.coords[1].Sub(t.coords[0]).Cross(t.coords[2].Sub(t.coords[0])).LengthSq() == 0
}

// ReverseWinding swaps the last two vertices.
func (t *Triangle) ReverseWinding() error {
	c := t.Coordinates()
	c[1], c[2] = c[2], c[1]
	return t.SetCoordinates(c)
}

// Analyse reports problems with the triangle.
func (t *Triangle) Analyse(ctx *Context, std Standard) []Problem {
	out := t.analyseCommon(ctx, std)
	switch {
	case t.IsColocated():
		out = append(out, t.colocatedProblem())
	case t.IsColinear():
		out = append(out, Problem{
			Code:     ProblemColinear,
			Severity: SeverityError,
			Element:  t,
			Message:  "vertices 0, 1 and 2 are colinear",
		})
	}
	return out
}

// Emit writes the type 3 line, reversing the vertices when the logical
// winding differs from the output winding.
func (t *Triangle) Emit(b *CodeBuilder, ec *EmitContext) {
	order := []int{0, 1, 2}
	if ec.Reversed() {
		order = []int{0, 2, 1}
	}
	t.emitGraphic(b, ec, 3, order)
}
