package ldraw

import "github.com/google/uuid"

// EventKind identifies what a change notification describes.
type EventKind uint8

const (
	// EventChanged is the generic notification sent after every mutation.
	EventChanged EventKind = iota
	// EventPropertyChanged reports a new property value.
	EventPropertyChanged
	// EventItemsAdded reports items added to a collection.
	EventItemsAdded
	// EventItemsRemoved reports items removed from a collection.
	EventItemsRemoved
	// EventItemsReplaced reports items replaced in a collection.
	EventItemsReplaced
	// EventCleared reports that a collection was emptied.
	EventCleared
	// EventChildChanged wraps an event raised by a descendant.
	EventChildChanged
	// EventDisposed reports that the source was disposed.
	EventDisposed
	// EventBatch carries every event queued between BeginUpdate and the
	// outermost EndUpdate.
	EventBatch
)

var eventKindNames = [...]string{
	EventChanged:         "Changed",
	EventPropertyChanged: "PropertyChanged",
	EventItemsAdded:      "ItemsAdded",
	EventItemsRemoved:    "ItemsRemoved",
	EventItemsReplaced:   "ItemsReplaced",
	EventCleared:         "Cleared",
	EventChildChanged:    "ChildChanged",
	EventDisposed:        "Disposed",
	EventBatch:           "Batch",
}

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "Unknown"
}

// Event is a change notification.
type Event struct {
	Kind   EventKind
	Source Node

	// Property, Old and New are set for EventPropertyChanged.
	Property string
	Old, New any

	// Items holds the added, removed or cleared elements; for
	// EventItemsReplaced it holds the new elements and Replaced the old.
	Items    []Element
	Replaced []Element
	// Index is the position of the first affected item.
	Index int

	// Cause is the descendant event for EventChildChanged.
	Cause *Event
	// Batch is the queued events for EventBatch.
	Batch []Event

	revert func() error
}

// Root follows Cause links down to the event that started the chain.
func (e Event) Root() Event {
	for e.Kind == EventChildChanged && e.Cause != nil {
		e = *e.Cause
	}
	return e
}

// CanRevert reports whether the event carries a rollback action.
func (e Event) CanRevert() bool {
	return e.revert != nil
}

// Handler receives change notifications. Handlers may mutate the tree.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Node is implemented by every member of the tree: documents, pages,
// steps, collections and elements.
type Node interface {
	// ID returns the identity assigned at construction.
	ID() uuid.UUID
	IsDisposed() bool
	IsFrozen() bool
	IsLocked() bool

	// Subscribe registers h for change notifications and returns a
	// function that removes it.
	Subscribe(h Handler) (cancel func())

	// BeginUpdate starts queueing notifications. Calls nest; only the
	// outermost EndUpdate delivers the queued events as one EventBatch.
	BeginUpdate()
	EndUpdate()
}
