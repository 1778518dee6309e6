package ldraw

import (
	"slices"

	"github.com/google/uuid"
)

// entity holds the identity, state flags and notification plumbing shared
// by every node.
type entity struct {
	id       uuid.UUID
	source   Node
	disposed bool
	frozen   bool
	locked   bool

	subs    []subscription
	nextSub int

	updates int
	pending []Event
}

func (e *entity) init(source Node) {
	e.id = uuid.New()
	e.source = source
}

// ID returns the identity assigned at construction.
func (e *entity) ID() uuid.UUID { return e.id }

// IsDisposed reports whether the node has been disposed.
func (e *entity) IsDisposed() bool { return e.disposed }

// IsFrozen reports whether the node is permanently immutable.
func (e *entity) IsFrozen() bool { return e.frozen }

// Subscribe registers h for change notifications.
func (e *entity) Subscribe(h Handler) func() {
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscription{id: id, fn: h})
	return func() {
		e.subs = slices.DeleteFunc(e.subs, func(s subscription) bool { return s.id == id })
	}
}

// BeginUpdate starts queueing notifications.
func (e *entity) BeginUpdate() {
	e.updates++
}

// EndUpdate closes one BeginUpdate. The outermost call delivers every
// queued notification as a single EventBatch.
func (e *entity) EndUpdate() {
	if e.updates == 0 {
		return
	}
	e.updates--
	if e.updates > 0 || len(e.pending) == 0 {
		return
	}
	batch := e.pending
	e.pending = nil
	e.deliver(Event{Kind: EventBatch, Source: e.source, Batch: batch})
}

// IsUpdating reports whether notifications are currently being queued.
func (e *entity) IsUpdating() bool {
	return e.updates > 0
}

func (e *entity) emit(ev Event) {
	if ev.Source == nil {
		ev.Source = e.source
	}
	if e.updates > 0 {
		e.pending = append(e.pending, ev)
		return
	}
	e.deliver(ev)
}

func (e *entity) deliver(ev Event) {
	if len(e.subs) == 0 {
		return
	}
	// Handlers may subscribe or unsubscribe while we iterate.
	subs := slices.Clone(e.subs)
	for _, s := range subs {
		s.fn(ev)
	}
}

// changed emits a property change followed by the generic notification.
func (e *entity) changed(property string, old, new any, revert func() error) {
	e.emit(Event{Kind: EventPropertyChanged, Property: property, Old: old, New: new, revert: revert})
	e.emit(Event{Kind: EventChanged})
}

// checkAlive fails if the node is disposed.
func (e *entity) checkAlive() error {
	if e.disposed {
		return ErrDisposed
	}
	return nil
}

// checkWritable fails if the node is disposed or frozen. Lock checks are
// done by the embedding type, which knows its ancestors.
func (e *entity) checkWritable() error {
	if e.disposed {
		return ErrDisposed
	}
	if e.frozen {
		return ErrFrozen
	}
	return nil
}

// markDisposed flags the node and notifies subscribers once.
func (e *entity) markDisposed() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.pending = nil
	e.updates = 0
	e.deliver(Event{Kind: EventDisposed, Source: e.source})
	e.subs = nil
}
