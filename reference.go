package ldraw

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// Reference is a type 1 line: a transformed, coloured use of another
// page.
type Reference struct {
	GroupableBase
	colour  uint32
	matrix  geom.Matrix4
	name    string
	invert  bool
	visible bool
	ghosted bool

	// raw is the line as read. It is written back unchanged by full
	// output until the reference is modified.
	raw    string
	target *Page
}

// NewReference returns a reference to the page called name.
func NewReference(colour uint32, m geom.Matrix4, name string) (*Reference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty target name", ErrInvalidArgument)
	}
	r := newReference(colour, m, name)
	return r, nil
}

func newReference(colour uint32, m geom.Matrix4, name string) *Reference {
	r := &Reference{colour: colour, matrix: m, name: name, visible: true}
	r.Init(r)
	return r
}

// Kind returns KindReference.
func (r *Reference) Kind() ElementKind { return KindReference }

// Colour returns the colour code.
func (r *Reference) Colour() uint32 { return r.colour }

// SetColour changes the colour code.
func (r *Reference) SetColour(code uint32) error {
	return setRef(r, "Colour", &r.colour, code, r.SetColour)
}

// Matrix returns the transform.
func (r *Reference) Matrix() geom.Matrix4 { return r.matrix }

// SetMatrix changes the transform.
func (r *Reference) SetMatrix(m geom.Matrix4) error {
	return setRef(r, "Matrix", &r.matrix, m, r.SetMatrix)
}

// TargetName returns the name of the referenced page.
func (r *Reference) TargetName() string { return r.name }

// SetTargetName points the reference at another page.
func (r *Reference) SetTargetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty target name", ErrInvalidArgument)
	}
	if p := r.Page(); p != nil && SameName(p.Name(), name) {
		return &InsertError{Kind: KindReference, Check: InsertCircularReference}
	}
	old := r.target
	if err := setRef(r, "TargetName", &r.name, name, r.SetTargetName); err != nil {
		return err
	}
	if old != nil && !SameName(old.Name(), name) {
		r.target = nil
	}
	return nil
}

// Invert reports whether the winding of the target is inverted.
func (r *Reference) Invert() bool { return r.invert }

// SetInvert inverts the winding of the target.
func (r *Reference) SetInvert(v bool) error {
	return setRef(r, "Invert", &r.invert, v, r.SetInvert)
}

// IsVisible reports whether the reference is shown.
func (r *Reference) IsVisible() bool { return r.visible }

// SetVisible shows or hides the reference.
func (r *Reference) SetVisible(v bool) error {
	return setRef(r, "Visible", &r.visible, v, r.SetVisible)
}

// IsGhosted reports whether the reference is ghosted.
func (r *Reference) IsGhosted() bool { return r.ghosted }

// SetGhosted ghosts or unghosts the reference.
func (r *Reference) SetGhosted(v bool) error {
	return setRef(r, "Ghosted", &r.ghosted, v, r.SetGhosted)
}

// setRef is setProperty that also drops the raw text.
func setRef[T comparable](r *Reference, name string, field *T, value T, set func(T) error) error {
	err := setProperty(&r.ElementBase, name, field, value, set)
	if err == nil {
		r.raw = ""
	}
	return err
}

// RawText returns the line as read, or "" once the reference has changed.
func (r *Reference) RawText() string { return r.raw }

// ClearCache drops the raw text and the resolved target.
func (r *Reference) ClearCache() {
	r.raw = ""
	r.target = nil
}

// Target resolves the referenced page: first among the pages of the
// reference's document, then through the resolver of ctx.
func (r *Reference) Target(ctx *Context) (*Page, error) {
	if t := r.target; t != nil && !t.disposed && SameName(t.Name(), r.name) {
		return t, nil
	}
	r.target = nil
	if p := r.Page(); p != nil && p.doc != nil {
		if t := p.doc.Page(r.name); t != nil {
			r.target = t
			return t, nil
		}
	}
	if ctx != nil && ctx.Resolver != nil {
		t, err := ctx.Resolver.Resolve(r.name)
		if err != nil {
			return nil, err
		}
		r.target = t
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, r.name)
}

// CachedTarget returns the page found by the last successful Target call.
func (r *Reference) CachedTarget() *Page { return r.target }

// CanInsertInto rejects a reference to the page it would be placed in.
func (r *Reference) CanInsertInto(c *Collection) InsertCheck {
	if p := pageOf(c); p != nil && SameName(p.Name(), r.name) {
		return InsertCircularReference
	}
	return InsertAllowed
}

// BoundingBox returns the box of the resolved target transformed by the
// matrix, or the translation point when the target is not resolved.
func (r *Reference) BoundingBox() geom.Box3 {
	if r.target != nil && !r.target.disposed {
		if b := r.target.BoundingBox(); !b.IsEmpty() {
			return b.Transform(r.matrix)
		}
	}
	return geom.BoxOf(r.matrix.Translation())
}

// Clone returns an unattached copy.
func (r *Reference) Clone() Element {
	n := newReference(r.colour, r.matrix, r.name)
	n.invert = r.invert
	n.visible = r.visible
	n.ghosted = r.ghosted
	n.groupName = r.groupName
	n.raw = r.raw
	n.target = r.target
	return n
}

// Analyse reports an unresolved target, a singular matrix and an
// undefined colour.
func (r *Reference) Analyse(ctx *Context, std Standard) []Problem {
	var out []Problem
	if !IsColourDefined(ctx, r, r.colour) {
		out = append(out, Problem{
			Code:     ProblemInvalidColour,
			Severity: colourSeverity(std),
			Element:  r,
			Message:  "colour " + FormatColourCode(r.colour) + " is not defined",
		})
	}
	if _, err := r.Target(ctx); err != nil {
		sev := SeverityError
		if std == StandardFull && errors.Is(err, ErrNotFound) {
			sev = SeverityWarning
		}
		out = append(out, Problem{
			Code:     ProblemMissingTarget,
			Severity: sev,
			Element:  r,
			Message:  err.Error(),
		})
	}
	if r.matrix.IsSingular() {
		out = append(out, Problem{
			Code:     ProblemSingularMatrix,
			Severity: SeverityWarning,
			Element:  r,
			Message:  "transform has a zero determinant",
		})
	}
	return out
}

// Emit writes the type 1 line. In library output a reference to an
// inlined page is replaced by that page's contents.
func (r *Reference) Emit(b *CodeBuilder, ec *EmitContext) {
	if ec.Standard == StandardPartsLibrary {
		if t := r.inlineTarget(ec); t != nil {
			r.emitInline(b, ec, t)
			return
		}
	}
	if r.invert {
		b.WriteLine("0 BFC INVERTNEXT")
	}
	if ec.Standard == StandardFull && r.raw != "" && ec.Transform.IsIdentity() && ec.Colour == MainColour {
		b.WriteLine(r.raw)
		return
	}
	m := ec.Transform.Multiply(r.matrix)
	tp := ec.Context.Precision.Transform
	var sb strings.Builder
	sb.WriteString("1 ")
	sb.WriteString(ec.ColourCode(r, r.colour))
	sb.WriteByte(' ')
	sb.WriteString(ec.Coordinate(m[3]) + " " + ec.Coordinate(m[7]) + " " + ec.Coordinate(m[11]))
	for _, i := range [...]int{0, 1, 2, 4, 5, 6, 8, 9, 10} {
		sb.WriteByte(' ')
		sb.WriteString(FormatNumber(m[i], tp))
	}
	sb.WriteByte(' ')
	sb.WriteString(r.name)
	b.WriteLine(sb.String())
}

func (r *Reference) inlineTarget(ec *EmitContext) *Page {
	t, err := r.Target(ec.Context)
	if err != nil || !t.Inlined() || t == ec.Page {
		return nil
	}
	return t
}

// emitInline writes the target's contents in place of the reference,
// composing the transform, colour and winding.
func (r *Reference) emitInline(b *CodeBuilder, ec *EmitContext, t *Page) {
	sub := *ec
	sub.Transform = ec.Transform.Multiply(r.matrix)
	sub.Colour = r.colour
	if r.colour == MainColour {
		sub.Colour = ec.Colour
	}
	state := *ec.bfc
	state.certified = ec.bfc.certified && t.BFC().IsCertified()
	state.local = t.BFC().Winding()
	sub.bfc = &state
	w := ec.Winding
	if t.BFC() == BFCCertifyCW {
		w = w.Invert()
	}
	if (r.matrix.Determinant() < 0) != r.invert {
		w = w.Invert()
	}
	sub.Winding = w
	for _, s := range t.steps {
		s.emitItems(b, &sub)
	}
	if state.enabled != ec.bfc.enabled {
		if ec.bfc.enabled {
			b.WriteLine("0 BFC CLIP")
		} else {
			b.WriteLine("0 BFC NOCLIP")
		}
	}
	if state.output != ec.bfc.output {
		b.WriteLine("0 BFC " + ec.bfc.output.String())
	}
}
