package ldraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ldraw/geom"
)

func TestEventKindString(t *testing.T) {
	tests := []struct {
		k    EventKind
		want string
	}{
		{EventChanged, "Changed"},
		{EventPropertyChanged, "PropertyChanged"},
		{EventItemsAdded, "ItemsAdded"},
		{EventBatch, "Batch"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestUpdateBatching(t *testing.T) {
	l := NewLine(24, geom.V3(0, 0, 0), geom.V3(1, 0, 0))
	got := recordEvents(l)

	l.BeginUpdate()
	l.BeginUpdate()
	require.NoError(t, l.SetColour(1))
	l.EndUpdate()
	require.NoError(t, l.SetColour(2))
	assert.Empty(t, *got, "nothing is delivered before the outermost EndUpdate")
	l.EndUpdate()

	require.Len(t, *got, 1)
	batch := (*got)[0]
	assert.Equal(t, EventBatch, batch.Kind)
	assert.Equal(t, []EventKind{
		EventPropertyChanged, EventChanged,
		EventPropertyChanged, EventChanged,
	}, kinds(batch.Batch))
	assert.Same(t, l, batch.Source)

	// Unbalanced EndUpdate is ignored.
	l.EndUpdate()
	assert.False(t, l.IsUpdating())
}

func TestSubscribeCancel(t *testing.T) {
	l := NewLine(24, geom.V3(0, 0, 0), geom.V3(1, 0, 0))
	n := 0
	cancel := l.Subscribe(func(Event) { n++ })
	require.NoError(t, l.SetColour(1))
	cancel()
	require.NoError(t, l.SetColour(2))
	assert.Equal(t, 2, n, "one property change and one generic change")
}

func TestHandlerMayUnsubscribeDuringDelivery(t *testing.T) {
	l := NewLine(24, geom.V3(0, 0, 0), geom.V3(1, 0, 0))
	var cancel func()
	calls := 0
	cancel = l.Subscribe(func(Event) {
		calls++
		cancel()
	})
	other := 0
	l.Subscribe(func(Event) { other++ })

	require.NoError(t, l.SetColour(1))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestDisposedEventIsLast(t *testing.T) {
	l := NewLine(24, geom.V3(0, 0, 0), geom.V3(1, 0, 0))
	got := recordEvents(l)
	l.Dispose()
	l.Dispose()

	require.Len(t, *got, 1)
	assert.Equal(t, EventDisposed, (*got)[0].Kind)
}

func TestIdentityIsUnique(t *testing.T) {
	a, b := NewComment("a"), NewComment("a")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), a.Clone().ID())
}
