package ldraw

import "github.com/gogpu/ldraw/geom"

// ElementKind names a concrete element type.
type ElementKind string

// Built-in element kinds.
const (
	KindComment       ElementKind = "comment"
	KindMeta          ElementKind = "meta"
	KindColour        ElementKind = "colour"
	KindBFCFlag       ElementKind = "bfc"
	KindGroup         ElementKind = "group"
	KindTexmap        ElementKind = "texmap"
	KindReference     ElementKind = "reference"
	KindLine          ElementKind = "line"
	KindTriangle      ElementKind = "triangle"
	KindQuadrilateral ElementKind = "quadrilateral"
	KindOptionalLine  ElementKind = "optional-line"
)

// InsertCheck is the answer an element gives when asked whether it may be
// placed in a collection.
type InsertCheck uint8

const (
	// InsertAllowed permits the insertion.
	InsertAllowed InsertCheck = iota
	// InsertNestingNotAllowed rejects an element that cannot nest inside
	// the collection's host, such as a texture map inside another.
	InsertNestingNotAllowed
	// InsertCircularReference rejects a reference to the page it would
	// be placed in.
	InsertCircularReference
	// InsertDuplicateName rejects a group whose name is already used on
	// the page.
	InsertDuplicateName
	// InsertNotSupported rejects an element the collection cannot hold.
	InsertNotSupported
)

var insertCheckNames = [...]string{
	InsertAllowed:           "allowed",
	InsertNestingNotAllowed: "nesting not allowed",
	InsertCircularReference: "circular reference",
	InsertDuplicateName:     "duplicate name",
	InsertNotSupported:      "not supported",
}

// String returns the string representation of an InsertCheck.
func (c InsertCheck) String() string {
	if int(c) < len(insertCheckNames) {
		return insertCheckNames[c]
	}
	return "unknown"
}

// Element is a member of a Collection.
//
// Concrete elements embed ElementBase (directly or through Graphic or
// GroupableBase) and call Init from their constructor.
type Element interface {
	Node

	Kind() ElementKind
	Base() *ElementBase

	// Clone returns an unattached, unfrozen deep copy with a new identity.
	Clone() Element

	// BoundingBox returns the box of the element in its own page space.
	// Elements without geometry return an empty box.
	BoundingBox() geom.Box3

	// Analyse reports validity problems under the given standard.
	Analyse(ctx *Context, std Standard) []Problem

	// CanInsertInto reports whether the element may be placed in c.
	CanInsertInto(c *Collection) InsertCheck

	// Emit appends the element's text to b.
	Emit(b *CodeBuilder, ec *EmitContext)

	// Freeze makes the element permanently immutable.
	Freeze()

	// Dispose detaches the element from its parent and releases it.
	Dispose()
}

// ElementBase carries the state common to every element.
type ElementBase struct {
	entity
	self   Element
	parent *Collection
}

// Init must be called once by the constructor of every element.
func (b *ElementBase) Init(self Element) {
	b.entity.init(self)
	b.self = self
}

// Base returns b.
func (b *ElementBase) Base() *ElementBase { return b }

// Self returns the element that embeds b.
func (b *ElementBase) Self() Element { return b.self }

// Parent returns the collection that owns the element, or nil.
func (b *ElementBase) Parent() *Collection { return b.parent }

// Index returns the position of the element in its parent, or -1.
func (b *ElementBase) Index() int {
	if b.parent == nil {
		return -1
	}
	return b.parent.IndexOf(b.self)
}

// Step returns the step that contains the element, searching through
// nested collections.
func (b *ElementBase) Step() *Step {
	for c := b.parent; c != nil; {
		switch h := c.host.(type) {
		case *Step:
			return h
		case Element:
			c = h.Base().parent
		default:
			return nil
		}
	}
	return nil
}

// Page returns the page that contains the element, or nil.
func (b *ElementBase) Page() *Page {
	if s := b.Step(); s != nil {
		return s.page
	}
	return nil
}

// IsLocked reports whether the element or any of its ancestors is locked.
func (b *ElementBase) IsLocked() bool {
	if b.locked {
		return true
	}
	return b.parent != nil && b.parent.IsLocked()
}

// SetLocked locks or unlocks the element itself.
func (b *ElementBase) SetLocked(locked bool) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if b.locked == locked {
		return nil
	}
	b.locked = locked
	b.changed("Locked", !locked, locked, func() error { return b.SetLocked(!locked) })
	return nil
}

// CheckMutable returns the state error that prevents modifying the
// element, or nil.
func (b *ElementBase) CheckMutable() error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if b.IsLocked() {
		return ErrLocked
	}
	return nil
}

// NotifyChanged emits a property change. Revert, if not nil, restores the
// old value and is handed to the undo recorder.
func (b *ElementBase) NotifyChanged(property string, old, new any, revert func() error) {
	b.changed(property, old, new, revert)
}

// Freeze makes the element permanently immutable.
func (b *ElementBase) Freeze() {
	b.frozen = true
}

// Dispose detaches the element from its parent and releases it. Disposing
// twice is a no-op.
func (b *ElementBase) Dispose() {
	if b.disposed {
		return
	}
	if b.parent != nil {
		b.parent.detach(b.self)
	}
	b.markDisposed()
}

// CanInsertInto allows insertion anywhere. Elements with placement rules
// override it.
func (b *ElementBase) CanInsertInto(*Collection) InsertCheck {
	return InsertAllowed
}

// BoundingBox returns an empty box.
func (b *ElementBase) BoundingBox() geom.Box3 {
	return geom.EmptyBox()
}

// Analyse reports nothing.
func (b *ElementBase) Analyse(*Context, Standard) []Problem {
	return nil
}

// setProperty is the common path of every simple setter: check, assign,
// notify with a revert that calls set again with the old value.
func setProperty[T comparable](b *ElementBase, name string, field *T, value T, set func(T) error) error {
	if err := b.CheckMutable(); err != nil {
		return err
	}
	old := *field
	if old == value {
		return nil
	}
	*field = value
	b.changed(name, old, value, func() error { return set(old) })
	return nil
}
