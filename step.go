package ldraw

import (
	"fmt"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// StepMode is the way a step's rotation combines with earlier steps.
type StepMode uint8

const (
	// StepAdditive adds the angles to the previous step's rotation. A
	// zero additive rotation is a plain STEP.
	StepAdditive StepMode = iota
	// StepAbsolute sets the rotation regardless of the default view.
	StepAbsolute
	// StepRelative sets the rotation relative to the default view.
	StepRelative
	// StepReset returns to the default view.
	StepReset
)

var stepModeNames = [...]string{
	StepAdditive: "ADD",
	StepAbsolute: "ABS",
	StepRelative: "REL",
	StepReset:    "END",
}

// String returns the string representation of a StepMode.
func (m StepMode) String() string {
	if int(m) < len(stepModeNames) {
		return stepModeNames[m]
	}
	return "UNKNOWN"
}

const maxStepAngle = 360

// Step is one build step of a page. It is a Collection of elements plus a
// view rotation applied when the step is shown.
type Step struct {
	Collection
	page    *Page
	mode    StepMode
	x, y, z float64
}

// NewStep returns an empty additive step with no rotation.
func NewStep() *Step {
	s := &Step{}
	s.initCollection(s, s)
	return s
}

// Page returns the page that owns the step, or nil.
func (s *Step) Page() *Page { return s.page }

// Index returns the position of the step in its page, or -1.
func (s *Step) Index() int {
	if s.page == nil {
		return -1
	}
	return s.page.IndexOfStep(s)
}

// Previous returns the step before s on its page, or nil.
func (s *Step) Previous() *Step {
	i := s.Index()
	if i <= 0 {
		return nil
	}
	return s.page.steps[i-1]
}

// IsLast reports whether s is the final step of its page.
func (s *Step) IsLast() bool {
	return s.page == nil || s.page.steps[len(s.page.steps)-1] == s
}

// Mode returns the rotation mode.
func (s *Step) Mode() StepMode { return s.mode }

// Rotation returns the rotation angles in degrees.
func (s *Step) Rotation() (x, y, z float64) { return s.x, s.y, s.z }

func validAngle(a float64) bool {
	return a >= -maxStepAngle && a <= maxStepAngle
}

// SetRotation changes the rotation. Angles must lie in [-360, 360]; they
// are ignored for StepReset.
func (s *Step) SetRotation(mode StepMode, x, y, z float64) error {
	if mode > StepReset {
		return fmt.Errorf("%w: step mode %d", ErrInvalidArgument, mode)
	}
	if !validAngle(x) || !validAngle(y) || !validAngle(z) {
		return fmt.Errorf("%w: step angles %g %g %g out of range", ErrInvalidArgument, x, y, z)
	}
	if mode == StepReset {
		x, y, z = 0, 0, 0
	}
	if err := s.checkMutable(); err != nil {
		return err
	}
	type rot struct {
		mode    StepMode
		x, y, z float64
	}
	old := rot{s.mode, s.x, s.y, s.z}
	next := rot{mode, x, y, z}
	if old == next {
		return nil
	}
	s.mode, s.x, s.y, s.z = mode, x, y, z
	s.changed("Rotation", old, next, func() error { return s.SetRotation(old.mode, old.x, old.y, old.z) })
	return nil
}

// EffectiveRotation returns the rotation in force for the step after
// combining additive steps with their predecessors. The mode is never
// StepAdditive.
func (s *Step) EffectiveRotation() (mode StepMode, x, y, z float64) {
	switch s.mode {
	case StepAbsolute, StepRelative:
		return s.mode, s.x, s.y, s.z
	case StepReset:
		return StepReset, 0, 0, 0
	}
	mode = StepReset
	if prev := s.Previous(); prev != nil {
		mode, x, y, z = prev.EffectiveRotation()
	}
	if s.x == 0 && s.y == 0 && s.z == 0 {
		return mode, x, y, z
	}
	if mode == StepReset {
		mode = StepRelative
	}
	return mode, x + s.x, y + s.y, z + s.z
}

// RotationMatrix returns the view rotation of EffectiveRotation.
func (s *Step) RotationMatrix() geom.Matrix4 {
	mode, x, y, z := s.EffectiveRotation()
	if mode == StepReset {
		return geom.Identity()
	}
	return geom.RotationXYZ(x, y, z)
}

// WindingAt returns whether culling is enabled and the winding in force
// for a polygon placed at index i, reading culling flags backwards through
// this and earlier steps.
func (s *Step) WindingAt(i int) (bool, Winding) {
	if i < 0 || i > s.Len() {
		i = s.Len()
	}
	return cullingFrom(&s.Collection, i, s.page)
}

// Analyse reports problems of the step's elements and its rotation.
func (s *Step) Analyse(ctx *Context, std Standard) []Problem {
	out := s.analyse(ctx, std)
	if s.mode == StepAdditive {
		_, x, y, z := s.EffectiveRotation()
		if !validAngle(x) || !validAngle(y) || !validAngle(z) {
			out = append(out, Problem{
				Code:     ProblemInvalidRotation,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("step %d accumulates a rotation beyond 360 degrees", s.Index()+1),
			})
		}
	}
	return out
}

// marker returns the line written after the step's elements, or "".
func (s *Step) marker(last bool) string {
	switch s.mode {
	case StepReset:
		return "0 ROTSTEP END"
	case StepAdditive:
		if s.x == 0 && s.y == 0 && s.z == 0 {
			if last {
				return ""
			}
			return "0 STEP"
		}
	}
	return strings.Join([]string{"0 ROTSTEP",
		FormatNumber(s.x, 3), FormatNumber(s.y, 3), FormatNumber(s.z, 3),
		s.mode.String()}, " ")
}

// Emit writes the step's elements followed by its step marker.
func (s *Step) Emit(b *CodeBuilder, ec *EmitContext) {
	s.emitItems(b, ec)
	if m := s.marker(s.IsLast()); m != "" {
		b.WriteLine(m)
	}
}

// Clone returns an unattached deep copy.
func (s *Step) Clone() *Step {
	n := NewStep()
	n.mode, n.x, n.y, n.z = s.mode, s.x, s.y, s.z
	s.cloneInto(&n.Collection)
	return n
}
