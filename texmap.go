package ldraw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// TexmapMethod is the projection used by a texture map.
type TexmapMethod uint8

const (
	// TexmapPlanar projects the image along the normal of a plane.
	TexmapPlanar TexmapMethod = iota
	// TexmapCylindrical wraps the image around a cylinder.
	TexmapCylindrical
	// TexmapSpherical wraps the image around a sphere.
	TexmapSpherical
)

var texmapMethodNames = [...]string{
	TexmapPlanar:      "PLANAR",
	TexmapCylindrical: "CYLINDRICAL",
	TexmapSpherical:   "SPHERICAL",
}

// String returns the string representation of a TexmapMethod.
func (m TexmapMethod) String() string {
	if int(m) < len(texmapMethodNames) {
		return texmapMethodNames[m]
	}
	return "UNKNOWN"
}

// angles returns how many angle parameters follow the three points.
func (m TexmapMethod) angles() int {
	return int(m)
}

// Texmap projects an image onto the elements it contains. Textured holds
// the elements drawn with the texture; Fallback holds the elements drawn
// by programs without texture support.
type Texmap struct {
	GroupableBase
	method   TexmapMethod
	points   [3]geom.Vector3
	angles   []float64
	texture  string
	glossmap string
	next     bool

	textured *Collection
	fallback *Collection
	cancels  [2]func()
	visible  bool
}

// NewTexmap returns an empty texture map.
func NewTexmap(method TexmapMethod, points [3]geom.Vector3, angles []float64, texture string) (*Texmap, error) {
	if method > TexmapSpherical {
		return nil, fmt.Errorf("%w: texture method %d", ErrInvalidArgument, method)
	}
	if len(angles) != method.angles() {
		return nil, fmt.Errorf("%w: %s needs %d angles", ErrInvalidArgument, method, method.angles())
	}
	if texture == "" {
		return nil, fmt.Errorf("%w: empty texture name", ErrInvalidArgument)
	}
	t := &Texmap{method: method, points: points, angles: append([]float64(nil), angles...), texture: texture, visible: true}
	t.Init(t)
	t.textured = NewCollection(t)
	t.fallback = NewCollection(t)
	t.cancels[0] = t.forward(t.textured)
	t.cancels[1] = t.forward(t.fallback)
	return t, nil
}

func (t *Texmap) forward(c *Collection) func() {
	return c.Subscribe(func(ev Event) {
		if ev.Kind == EventDisposed {
			return
		}
		cause := ev
		t.emit(Event{Kind: EventChildChanged, Cause: &cause})
	})
}

// Kind returns KindTexmap.
func (t *Texmap) Kind() ElementKind { return KindTexmap }

// Method returns the projection.
func (t *Texmap) Method() TexmapMethod { return t.method }

// Points returns the three projection points.
func (t *Texmap) Points() [3]geom.Vector3 { return t.points }

// SetPoints changes the projection points.
func (t *Texmap) SetPoints(p [3]geom.Vector3) error {
	return setProperty(&t.ElementBase, "Points", &t.points, p, t.SetPoints)
}

// Angles returns the projection angles.
func (t *Texmap) Angles() []float64 { return append([]float64(nil), t.angles...) }

// Texture returns the image name.
func (t *Texmap) Texture() string { return t.texture }

// SetTexture changes the image name.
func (t *Texmap) SetTexture(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: texture name %q", ErrInvalidArgument, name)
	}
	return setProperty(&t.ElementBase, "Texture", &t.texture, name, t.SetTexture)
}

// Glossmap returns the gloss image name, or "".
func (t *Texmap) Glossmap() string { return t.glossmap }

// SetGlossmap changes the gloss image name.
func (t *Texmap) SetGlossmap(name string) error {
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: glossmap name %q", ErrInvalidArgument, name)
	}
	return setProperty(&t.ElementBase, "Glossmap", &t.glossmap, name, t.SetGlossmap)
}

// IsNext reports the single-element form that textures only the
// following line.
func (t *Texmap) IsNext() bool { return t.next }

// IsVisible reports whether the texture map is shown.
func (t *Texmap) IsVisible() bool { return t.visible }

// IsGhosted returns false; texture maps cannot be ghosted.
func (t *Texmap) IsGhosted() bool { return false }

// SetVisible shows or hides the texture map.
func (t *Texmap) SetVisible(v bool) error {
	return setProperty(&t.ElementBase, "Visible", &t.visible, v, t.SetVisible)
}

// Textured returns the textured elements.
func (t *Texmap) Textured() *Collection { return t.textured }

// Fallback returns the elements used without texture support.
func (t *Texmap) Fallback() *Collection { return t.fallback }

// Collections returns the nested collections.
func (t *Texmap) Collections() []*Collection {
	return []*Collection{t.textured, t.fallback}
}

// CanInsertInto rejects a texture map inside another texture map.
func (t *Texmap) CanInsertInto(c *Collection) InsertCheck {
	for c != nil {
		h, ok := c.host.(Element)
		if !ok {
			break
		}
		if h.Kind() == KindTexmap {
			return InsertNestingNotAllowed
		}
		c = h.Base().parent
	}
	return InsertAllowed
}

// BoundingBox returns the union of both collections.
func (t *Texmap) BoundingBox() geom.Box3 {
	return t.textured.BoundingBox().Union(t.fallback.BoundingBox())
}

// Analyse reports the problems of the contained elements.
func (t *Texmap) Analyse(ctx *Context, std Standard) []Problem {
	out := t.textured.analyse(ctx, std)
	return append(out, t.fallback.analyse(ctx, std)...)
}

// Freeze freezes the texture map and its contents.
func (t *Texmap) Freeze() {
	t.ElementBase.Freeze()
	t.textured.Freeze()
	t.fallback.Freeze()
}

// Dispose releases the texture map and its contents.
func (t *Texmap) Dispose() {
	if t.disposed {
		return
	}
	for _, cancel := range t.cancels {
		cancel()
	}
	t.textured.Dispose()
	t.fallback.Dispose()
	t.ElementBase.Dispose()
}

// Clone returns an unattached deep copy.
func (t *Texmap) Clone() Element {
	n, _ := NewTexmap(t.method, t.points, t.angles, t.texture)
	n.glossmap = t.glossmap
	n.next = t.next
	n.visible = t.visible
	n.groupName = t.groupName
	t.textured.cloneInto(n.textured)
	t.fallback.cloneInto(n.fallback)
	return n
}

func (t *Texmap) header(ec *EmitContext) string {
	f := []string{"0 !TEXMAP"}
	if t.next {
		f = append(f, "NEXT")
	} else {
		f = append(f, "START")
	}
	f = append(f, t.method.String())
	for _, p := range t.points {
		f = append(f, ec.Point(p))
	}
	for _, a := range t.angles {
		f = append(f, FormatNumber(a, ec.Context.Precision.Transform))
	}
	f = append(f, t.texture)
	if t.glossmap != "" {
		f = append(f, "GLOSSMAP", t.glossmap)
	}
	return strings.Join(f, " ")
}

// Emit writes the texture map block. Textured elements are written as
// "0 !:" continuation lines except in the NEXT form.
func (t *Texmap) Emit(b *CodeBuilder, ec *EmitContext) {
	b.WriteLine(t.header(ec))
	if t.next {
		t.textured.emitItems(b, ec)
		return
	}
	start := b.Len()
	t.textured.emitItems(b, ec)
	b.prefixLines(start, texmapPrefix, false)
	if t.fallback.Len() > 0 {
		b.WriteLine("0 !TEXMAP FALLBACK")
		t.fallback.emitItems(b, ec)
	}
	b.WriteLine("0 !TEXMAP END")
}

// parseTexmapHeader reads the fields after "0 !TEXMAP START" or NEXT.
func parseTexmapHeader(fields []string) (*Texmap, error) {
	if len(fields) < 1 {
		return nil, fmt.Errorf("%w: texture map without method", ErrFormat)
	}
	var method TexmapMethod
	found := false
	for i, name := range texmapMethodNames {
		if name == fields[0] {
			method, found = TexmapMethod(i), true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: texture method %q", ErrFormat, fields[0])
	}
	need := 1 + 9 + method.angles() + 1
	if len(fields) < need {
		return nil, fmt.Errorf("%w: texture map needs %d fields", ErrFormat, need)
	}
	nums, err := parseFloats(fields[1 : 10+method.angles()])
	if err != nil {
		return nil, err
	}
	var pts [3]geom.Vector3
	for i := range pts {
		pts[i] = geom.V3(nums[i*3], nums[i*3+1], nums[i*3+2])
	}
	t, err := NewTexmap(method, pts, nums[9:], fields[need-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	rest := fields[need:]
	if len(rest) == 2 && rest[0] == "GLOSSMAP" {
		t.glossmap = rest[1]
	} else if len(rest) != 0 {
		return nil, fmt.Errorf("%w: unexpected texture map fields %q", ErrFormat, strings.Join(rest, " "))
	}
	return t, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrFormat, f)
		}
		out[i] = v
	}
	return out, nil
}
