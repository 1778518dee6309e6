package recording

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(prop string) Change {
	return NewChange(uuid.New(), ChangeProperty, prop, nil, nil, nil)
}

func TestJournalUnbatchedApply(t *testing.T) {
	j := NewJournal()
	j.Apply(change("A"))
	j.Apply(change("B"))

	txs := j.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "A", txs[0].Changes[0].Property)
	assert.Equal(t, "B", txs[1].Changes[0].Property)
}

func TestJournalNestedBatches(t *testing.T) {
	j := NewJournal()

	j.Begin("outer")
	j.Apply(change("A"))
	j.Begin("inner")
	j.Apply(change("B"))
	j.End()
	assert.Equal(t, 1, j.Depth())
	assert.Empty(t, j.Transactions(), "inner End must not complete a transaction")
	j.Apply(change("C"))
	j.End()

	txs := j.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "outer", txs[0].Label)
	require.Len(t, txs[0].Changes, 3)
	assert.Equal(t, "B", txs[0].Changes[1].Property)
}

func TestJournalEmptyBatchIsDropped(t *testing.T) {
	j := NewJournal()
	j.Begin("")
	j.End()

	assert.Empty(t, j.Transactions())
	assert.Len(t, j.Commands(), 2)
}

func TestJournalRevertIsLogged(t *testing.T) {
	j := NewJournal()
	c := change("A")
	j.Apply(c)
	j.Revert(c)

	cmds := j.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, CmdRevert, cmds[1].Type())

	j.Reset()
	assert.Empty(t, j.Commands())
	assert.Empty(t, j.Transactions())
}
