package ldraw

import (
	"fmt"
	"slices"

	"github.com/gogpu/ldraw/geom"
)

// Collection is an ordered container of elements. It owns its children:
// an element belongs to at most one collection at a time.
//
// Mutations through Add, Insert, Set, Remove and Clear are checked against
// the collection's state and each element's placement rules. AppendUnchecked
// skips those checks and is used while a tree is being rebuilt.
type Collection struct {
	entity

	// host is the Step or Element that owns the collection.
	host  Node
	items []Element
	subs  []func()

	colours int
	flags   int

	bounds      geom.Box3
	boundsDirty bool
}

// NewCollection returns an empty collection owned by host. Host may be nil
// for a free-standing collection.
func NewCollection(host Node) *Collection {
	c := &Collection{}
	c.initCollection(c, host)
	return c
}

func (c *Collection) initCollection(source, host Node) {
	c.entity.init(source)
	c.host = host
	c.boundsDirty = true
}

// Host returns the Step or Element that owns the collection.
func (c *Collection) Host() Node { return c.host }

// Len returns the number of elements.
func (c *Collection) Len() int { return len(c.items) }

// At returns the element at index i.
func (c *Collection) At(i int) Element { return c.items[i] }

// Elements returns a copy of the elements.
func (c *Collection) Elements() []Element { return slices.Clone(c.items) }

// IndexOf returns the position of e, or -1.
func (c *Collection) IndexOf(e Element) int {
	for i, it := range c.items {
		if it == e {
			return i
		}
	}
	return -1
}

// ColourCount returns the number of colour definitions held directly.
func (c *Collection) ColourCount() int { return c.colours }

// FlagCount returns the number of culling flags held directly.
func (c *Collection) FlagCount() int { return c.flags }

// IsLocked reports whether the collection or its host is locked.
func (c *Collection) IsLocked() bool {
	if c.locked {
		return true
	}
	switch h := c.host.(type) {
	case *Step:
		return h.page != nil && h.page.IsLocked()
	case Element:
		return h.IsLocked()
	}
	return false
}

// SetLocked locks or unlocks the collection itself.
func (c *Collection) SetLocked(locked bool) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if c.locked == locked {
		return nil
	}
	c.locked = locked
	c.changed("Locked", !locked, locked, func() error { return c.SetLocked(!locked) })
	return nil
}

// checkMutable reports why the collection cannot change, or nil.
func (c *Collection) checkMutable() error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if c.IsLocked() {
		return ErrLocked
	}
	return nil
}

// checkInsert validates e as a new member.
func (c *Collection) checkInsert(e Element) error {
	if e == nil {
		return fmt.Errorf("%w: nil element", ErrInvalidArgument)
	}
	if e.IsDisposed() {
		return ErrDisposed
	}
	if e.IsFrozen() {
		return ErrFrozen
	}
	if p := e.Base().parent; p != nil {
		return fmt.Errorf("%w: element already belongs to a collection", ErrInvalidArgument)
	}
	if check := e.CanInsertInto(c); check != InsertAllowed {
		return &InsertError{Kind: e.Kind(), Check: check}
	}
	return nil
}

// Add appends e.
func (c *Collection) Add(e Element) error {
	return c.Insert(len(c.items), e)
}

// AddRange appends every element, failing before any change if one of
// them is rejected.
func (c *Collection) AddRange(elems ...Element) error {
	return c.InsertRange(len(c.items), elems...)
}

// Insert places e at index i.
func (c *Collection) Insert(i int, e Element) error {
	return c.InsertRange(i, e)
}

// InsertRange places elems starting at index i.
func (c *Collection) InsertRange(i int, elems ...Element) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if i < 0 || i > len(c.items) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidArgument, i)
	}
	for j, e := range elems {
		if err := c.checkInsert(e); err != nil {
			return err
		}
		if slices.Contains(elems[:j], e) {
			return fmt.Errorf("%w: element listed twice", ErrInvalidArgument)
		}
	}
	if len(elems) == 0 {
		return nil
	}
	c.items = slices.Insert(c.items, i, elems...)
	subs := make([]func(), len(elems))
	for j, e := range elems {
		subs[j] = c.attach(e)
	}
	c.subs = slices.Insert(c.subs, i, subs...)
	c.boundsDirty = true
	added := slices.Clone(elems)
	c.emit(Event{Kind: EventItemsAdded, Items: added, Index: i, revert: func() error {
		return c.RemoveRange(i, len(added))
	}})
	c.emit(Event{Kind: EventChanged})
	return nil
}

// Set replaces the element at index i with e.
func (c *Collection) Set(i int, e Element) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidArgument, i)
	}
	old := c.items[i]
	if old == e {
		return nil
	}
	if err := c.checkInsert(e); err != nil {
		return err
	}
	c.release(i)
	c.items[i] = e
	c.subs[i] = c.attach(e)
	c.boundsDirty = true
	c.emit(Event{Kind: EventItemsReplaced, Items: []Element{e}, Replaced: []Element{old}, Index: i, revert: func() error {
		return c.Set(i, old)
	}})
	c.emit(Event{Kind: EventChanged})
	return nil
}

// Replace swaps old for e.
func (c *Collection) Replace(old, e Element) error {
	i := c.IndexOf(old)
	if i < 0 {
		return fmt.Errorf("%w: element not in collection", ErrInvalidArgument)
	}
	return c.Set(i, e)
}

// Remove detaches e. It reports whether e was present.
func (c *Collection) Remove(e Element) (bool, error) {
	i := c.IndexOf(e)
	if i < 0 {
		return false, nil
	}
	return true, c.RemoveRange(i, 1)
}

// RemoveAt detaches the element at index i.
func (c *Collection) RemoveAt(i int) error {
	return c.RemoveRange(i, 1)
}

// RemoveRange detaches n elements starting at index i.
func (c *Collection) RemoveRange(i, n int) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if i < 0 || n < 0 || i+n > len(c.items) {
		return fmt.Errorf("%w: range [%d,%d) out of bounds", ErrInvalidArgument, i, i+n)
	}
	if n == 0 {
		return nil
	}
	removed := c.cut(i, n)
	c.emit(Event{Kind: EventItemsRemoved, Items: removed, Index: i, revert: func() error {
		return c.InsertRange(i, removed...)
	}})
	c.emit(Event{Kind: EventChanged})
	return nil
}

// Clear detaches every element.
func (c *Collection) Clear() error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if len(c.items) == 0 {
		return nil
	}
	removed := c.cut(0, len(c.items))
	c.emit(Event{Kind: EventCleared, Items: removed, revert: func() error {
		return c.InsertRange(0, removed...)
	}})
	c.emit(Event{Kind: EventChanged})
	return nil
}

// AppendUnchecked appends elements without state or placement checks and
// without notifications. It still links parents and subscriptions; callers
// are expected to validate the finished tree.
func (c *Collection) AppendUnchecked(elems ...Element) {
	for _, e := range elems {
		if e == nil {
			continue
		}
		c.items = append(c.items, e)
		c.subs = append(c.subs, c.attach(e))
	}
	c.boundsDirty = true
}

// detach removes e without checks. Used by Element.Dispose.
func (c *Collection) detach(e Element) {
	i := c.IndexOf(e)
	if i < 0 {
		return
	}
	removed := c.cut(i, 1)
	c.emit(Event{Kind: EventItemsRemoved, Items: removed, Index: i})
	c.emit(Event{Kind: EventChanged})
}

func (c *Collection) cut(i, n int) []Element {
	removed := slices.Clone(c.items[i : i+n])
	for j := i; j < i+n; j++ {
		c.release(j)
	}
	c.items = slices.Delete(c.items, i, i+n)
	c.subs = slices.Delete(c.subs, i, i+n)
	c.boundsDirty = true
	return removed
}

func (c *Collection) attach(e Element) func() {
	e.Base().parent = c
	switch e.Kind() {
	case KindColour:
		c.colours++
	case KindBFCFlag:
		c.flags++
	}
	return e.Subscribe(func(ev Event) {
		if ev.Kind == EventDisposed {
			return
		}
		c.boundsDirty = true
		cause := ev
		c.emit(Event{Kind: EventChildChanged, Cause: &cause})
	})
}

func (c *Collection) release(i int) {
	e := c.items[i]
	if c.subs[i] != nil {
		c.subs[i]()
	}
	switch e.Kind() {
	case KindColour:
		c.colours--
	case KindBFCFlag:
		c.flags--
	}
	e.Base().parent = nil
}

// BoundingBox returns the union of the children's boxes. It is recomputed
// after any change to the collection or its descendants.
func (c *Collection) BoundingBox() geom.Box3 {
	if c.boundsDirty {
		b := geom.EmptyBox()
		for _, e := range c.items {
			b = b.Union(e.BoundingBox())
		}
		c.bounds = b
		c.boundsDirty = false
	}
	return c.bounds
}

// BoundsDirty reports whether the cached box must be recomputed.
func (c *Collection) BoundsDirty() bool { return c.boundsDirty }

// Freeze makes the collection and all its elements permanently immutable.
func (c *Collection) Freeze() {
	c.frozen = true
	for _, e := range c.items {
		e.Freeze()
	}
}

// Dispose releases every element and the collection itself.
func (c *Collection) Dispose() {
	if c.disposed {
		return
	}
	items := c.items
	for i := range items {
		c.release(i)
	}
	c.items, c.subs = nil, nil
	for _, e := range items {
		e.Dispose()
	}
	c.markDisposed()
}

// Walk calls fn for every element in document order, descending into
// nested collections. Returning false stops the walk.
func (c *Collection) Walk(fn func(Element) bool) bool {
	for _, e := range c.items {
		if !fn(e) {
			return false
		}
		if n, ok := e.(NestedCollections); ok {
			for _, sub := range n.Collections() {
				if !sub.Walk(fn) {
					return false
				}
			}
		}
	}
	return true
}

// cloneInto appends clones of the elements to dst without checks.
func (c *Collection) cloneInto(dst *Collection) {
	for _, e := range c.items {
		dst.AppendUnchecked(e.Clone())
	}
}

// analyse collects the problems of every element.
func (c *Collection) analyse(ctx *Context, std Standard) []Problem {
	var out []Problem
	for _, e := range c.items {
		out = append(out, e.Analyse(ctx, std)...)
	}
	return out
}

// NestedCollections is implemented by elements that own collections.
type NestedCollections interface {
	Collections() []*Collection
}
