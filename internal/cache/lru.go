package cache

// entry is both the stored value and a link in the recency ring. The
// ring is anchored at a sentinel whose next is the most recently used
// entry and whose prev is the least recently used one.
type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *entry[K, V]
}

// ring is a circular doubly linked list of entries. It is not safe for
// concurrent use; Cache holds its mutex around every call.
type ring[K comparable, V any] struct {
	root entry[K, V]
	n    int
}

func (r *ring[K, V]) init() {
	r.root.prev = &r.root
	r.root.next = &r.root
	r.n = 0
}

func (r *ring[K, V]) len() int { return r.n }

// insertFront links e as the most recently used entry.
func (r *ring[K, V]) insertFront(e *entry[K, V]) {
	e.prev = &r.root
	e.next = r.root.next
	r.root.next.prev = e
	r.root.next = e
	r.n++
}

func (r *ring[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	r.n--
}

func (r *ring[K, V]) touch(e *entry[K, V]) {
	if r.root.next == e {
		return
	}
	r.unlink(e)
	r.insertFront(e)
}

// oldest returns the least recently used entry, or nil when empty.
func (r *ring[K, V]) oldest() *entry[K, V] {
	if r.n == 0 {
		return nil
	}
	return r.root.prev
}
