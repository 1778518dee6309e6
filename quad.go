package ldraw

import (
	"fmt"
	"math"

	"github.com/gogpu/ldraw/geom"
)

// Warp thresholds in degrees.
const (
	warpErrorDegrees   = 3.0
	warpWarningDegrees = 1.0
)

// BowtieRepair names the vertex exchange that untangles a bowtie.
type BowtieRepair uint8

const (
	// BowtieNone means the quadrilateral is not a bowtie.
	BowtieNone BowtieRepair = iota
	// BowtieSwapFirst exchanges vertices 0 and 1. The result keeps the
	// original facing, so it is written as 0, 1, 3, 2.
	BowtieSwapFirst
	// BowtieSwapMiddle exchanges vertices 1 and 2.
	BowtieSwapMiddle
)

// quadShape is the cached classification of a quadrilateral.
type quadShape struct {
	version   uint64
	valid     bool
	colocated bool
	colinear  bool
	// colinearAt holds the indices of the three colinear vertices.
	colinearAt [3]int
	concave    bool
	bowtie     BowtieRepair
	// warp is the non-planarity in degrees.
	warp float64
}

// Quadrilateral is a type 4 polygon.
type Quadrilateral struct {
	Graphic
	shape quadShape
}

// NewQuadrilateral returns a quadrilateral.
func NewQuadrilateral(colour uint32, a, b, c, d geom.Vector3) *Quadrilateral {
	q := &Quadrilateral{}
	q.initGraphic(q, colour, 4, []geom.Vector3{a, b, c, d})
	return q
}

// Kind returns KindQuadrilateral.
func (q *Quadrilateral) Kind() ElementKind { return KindQuadrilateral }

// Clone returns an unattached copy.
func (q *Quadrilateral) Clone() Element {
	n := NewQuadrilateral(q.colour, geom.Vector3{}, geom.Vector3{}, geom.Vector3{}, geom.Vector3{})
	q.cloneInto(&n.Graphic)
	return n
}

// cornerNormals returns the normal at each corner, built from the edges
// entering and leaving it. ok is false with the corner's vertex indices
// when two edges are colinear.
func cornerNormals(v [4]geom.Vector3) (n [4]geom.Vector3, at [3]int, ok bool) {
	for i := 0; i < 4; i++ {
		prev, next := (i+3)%4, (i+1)%4
		c := v[i].Sub(v[prev]).Cross(v[next].Sub(v[i]))
		if c.Length() == 0 {
			return n, [3]int{prev, i, next}, false
		}
		n[i] = c.Normalize()
	}
	return n, at, true
}

// isConcave reports opposite signs of the diagonal normal products.
func isConcave(n [4]geom.Vector3) bool {
	return (n[0].Dot(n[2]) < 0) != (n[1].Dot(n[3]) < 0)
}

// needsSwap reports whether some pair of adjacent corners bends in
// opposite directions.
func needsSwap(n [4]geom.Vector3) bool {
	for i := 0; i < 4; i++ {
		if n[i].Dot(n[(i+1)%4]) < 0 {
			return true
		}
	}
	return false
}

// classifyOrder reports whether the ordering is a bowtie.
func classifyOrder(v [4]geom.Vector3) bool {
	n, _, ok := cornerNormals(v)
	return ok && !isConcave(n) && needsSwap(n)
}

func warpAngle(a, b geom.Vector3) float64 {
	s := math.Min(a.Cross(b).Length(), 1)
	return math.Round(math.Asin(s)*100) / 100
}

// classify computes the shape once per coordinate version.
func (q *Quadrilateral) classify() *quadShape {
	s := &q.shape
	if s.valid && s.version == q.version {
		return s
	}
	*s = quadShape{version: q.version, valid: true}
	if q.IsColocated() {
		s.colocated = true
		return s
	}
	v := [4]geom.Vector3{q.coords[0], q.coords[1], q.coords[2], q.coords[3]}
	n, at, ok := cornerNormals(v)
	if !ok {
		s.colinear = true
		s.colinearAt = at
		return s
	}
	s.concave = isConcave(n)
	if !s.concave && needsSwap(n) {
		if !classifyOrder([4]geom.Vector3{v[1], v[0], v[2], v[3]}) {
			s.bowtie = BowtieSwapFirst
		} else {
			s.bowtie = BowtieSwapMiddle
		}
	}
	rad := math.Max(warpAngle(n[0], n[2]), warpAngle(n[1], n[3]))
	s.warp = rad * 180 / math.Pi
	return s
}

// IsColocated reports whether any two vertices are equal.
func (q *Quadrilateral) IsColocated() bool {
	return q.Graphic.IsColocated()
}

// IsColinear reports whether three consecutive vertices lie on one line.
func (q *Quadrilateral) IsColinear() bool { return q.classify().colinear }

// ColinearVertices returns the indices of the colinear corner.
func (q *Quadrilateral) ColinearVertices() ([3]int, bool) {
	s := q.classify()
	return s.colinearAt, s.colinear
}

// IsConcave reports whether one corner points inwards.
func (q *Quadrilateral) IsConcave() bool { return q.classify().concave }

// IsBowtie reports whether the edges cross.
func (q *Quadrilateral) IsBowtie() bool { return q.classify().bowtie != BowtieNone }

// BowtieRepair returns the exchange that FixBowtie would apply.
func (q *Quadrilateral) BowtieRepair() BowtieRepair { return q.classify().bowtie }

// Warp returns the non-planarity in degrees.
func (q *Quadrilateral) Warp() float64 { return q.classify().warp }

// IsWarped reports a non-zero warp.
func (q *Quadrilateral) IsWarped() bool { return q.Warp() > 0 }

// FixBowtie reorders the vertices of a bowtie. It does nothing for other
// quadrilaterals.
func (q *Quadrilateral) FixBowtie() error {
	c := q.Coordinates()
	switch q.classify().bowtie {
	case BowtieSwapFirst:
		c[2], c[3] = c[3], c[2]
	case BowtieSwapMiddle:
		c[1], c[2] = c[2], c[1]
	default:
		return nil
	}
	return q.SetCoordinates(c)
}

// ReverseWinding reverses the vertex order.
func (q *Quadrilateral) ReverseWinding() error {
	c := q.Coordinates()
	c[1], c[3] = c[3], c[1]
	return q.SetCoordinates(c)
}

func warpSeverity(deg float64) Severity {
	switch {
	case deg > warpErrorDegrees:
		return SeverityError
	case deg >= warpWarningDegrees:
		return SeverityWarning
	}
	return SeverityInformation
}

// Analyse reports problems with the quadrilateral.
func (q *Quadrilateral) Analyse(ctx *Context, std Standard) []Problem {
	out := q.analyseCommon(ctx, std)
	s := q.classify()
	switch {
	case s.colocated:
		return append(out, q.colocatedProblem())
	case s.colinear:
		return append(out, Problem{
			Code:     ProblemColinear,
			Severity: SeverityError,
			Element:  q,
			Message:  fmt.Sprintf("vertices %d, %d and %d are colinear", s.colinearAt[0], s.colinearAt[1], s.colinearAt[2]),
		})
	}
	if s.concave {
		sev := SeverityInformation
		if std == StandardPartsLibrary {
			sev = SeverityWarning
		}
		out = append(out, Problem{Code: ProblemConcave, Severity: sev, Element: q, Message: "quadrilateral is concave"})
	}
	if s.bowtie != BowtieNone {
		out = append(out, Problem{
			Code:     ProblemBowtie,
			Severity: SeverityError,
			Element:  q,
			Message:  "edges cross",
			Repair:   q.FixBowtie,
		})
	}
	if s.warp > 0 {
		out = append(out, Problem{
			Code:     ProblemWarped,
			Severity: warpSeverity(s.warp),
			Element:  q,
			Message:  fmt.Sprintf("warped by %s degrees", FormatNumber(s.warp, 2)),
		})
	}
	return out
}

// Emit writes the type 4 line, reversing the vertices when the logical
// winding differs from the output winding.
func (q *Quadrilateral) Emit(b *CodeBuilder, ec *EmitContext) {
	order := []int{0, 1, 2, 3}
	if ec.Reversed() {
		order = []int{0, 3, 2, 1}
	}
	q.emitGraphic(b, ec, 4, order)
}
