package ldraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ldraw/geom"
	"github.com/gogpu/ldraw/recording"
)

func newTestPage(t *testing.T, name string, elems ...Element) *Page {
	t.Helper()
	p, err := NewPage(name)
	require.NoError(t, err)
	require.NoError(t, p.Step(0).AddRange(elems...))
	return p
}

func TestDocumentPageNamesAreUnique(t *testing.T) {
	d := NewDocument("model.mpd")
	require.NoError(t, d.AddPage(newTestPage(t, "part.dat")))

	err := d.AddPage(newTestPage(t, "PART.DAT"))
	var dup *DuplicatePageError
	require.ErrorAs(t, err, &dup)
	assert.ErrorIs(t, err, ErrDuplicatePage)
	assert.Equal(t, 1, d.PageCount())

	assert.NotNil(t, d.Page("Part.Dat"))
	assert.NotNil(t, d.Page(" part.dat"))
}

func TestDocumentRenameChecksDuplicates(t *testing.T) {
	d := NewDocument("model.mpd")
	a, b := newTestPage(t, "a.ldr"), newTestPage(t, "b.ldr")
	require.NoError(t, d.AddPage(a))
	require.NoError(t, d.AddPage(b))

	assert.ErrorIs(t, b.SetName("A.LDR"), ErrDuplicatePage)
	assert.Equal(t, "b.ldr", b.Name())
	assert.NoError(t, b.SetName("c.ldr"))
}

func TestDocumentModified(t *testing.T) {
	d := NewDocument("model.ldr")
	p := newTestPage(t, "model.ldr")
	require.NoError(t, d.AddPage(p))
	d.MarkSaved()
	assert.False(t, d.Modified())

	require.NoError(t, p.SetTitle("Model"))
	assert.True(t, d.Modified())
	assert.False(t, d.ModifiedWithoutFile())
	assert.Equal(t, "Model", d.Title())
}

func TestDocumentRecordsChanges(t *testing.T) {
	d := NewDocument("model.ldr")
	p := newTestPage(t, "model.ldr")
	require.NoError(t, d.AddPage(p))
	j := recording.NewJournal()
	d.SetRecorder(j)

	tri := NewTriangle(4, geom.V3(0, 0, 0), geom.V3(1, 0, 0), geom.V3(0, 1, 0))
	require.NoError(t, d.Batch("add and recolour", func() error {
		if err := p.Step(0).Add(tri); err != nil {
			return err
		}
		return tri.SetColour(14)
	}))

	txs := j.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "add and recolour", txs[0].Label)
	require.Len(t, txs[0].Changes, 2)
	assert.Equal(t, recording.ChangeAdd, txs[0].Changes[0].Kind)
	prop := txs[0].Changes[1]
	assert.Equal(t, recording.ChangeProperty, prop.Kind)
	assert.Equal(t, "Colour", prop.Property)
	assert.Equal(t, tri.ID(), prop.Target)

	require.NoError(t, d.Revert(prop))
	assert.Equal(t, uint32(4), tri.Colour())
	require.NoError(t, d.Revert(txs[0].Changes[0]))
	assert.Equal(t, 0, p.Step(0).Len())

	cmds := j.Commands()
	assert.Equal(t, recording.CmdRevert, cmds[len(cmds)-1].Type())
	assert.Len(t, j.Transactions(), 1, "reverts are not recorded as new changes")
}

func TestDocumentUpdateRecorderBalanced(t *testing.T) {
	count := func(j *recording.Journal, typ recording.CommandType) int {
		n := 0
		for _, c := range j.Commands() {
			if c.Type() == typ {
				n++
			}
		}
		return n
	}

	tests := []struct {
		name      string
		run       func(d *Document)
		wantBegin int
	}{
		{"suspended at begin", func(d *Document) {
			resume := d.SuspendRecording()
			d.BeginUpdate()
			resume()
			d.EndUpdate()
		}, 0},
		{"suspended at end", func(d *Document) {
			d.BeginUpdate()
			resume := d.SuspendRecording()
			d.EndUpdate()
			resume()
		}, 1},
		{"nested", func(d *Document) {
			d.BeginUpdate()
			resume := d.SuspendRecording()
			d.BeginUpdate()
			resume()
			d.EndUpdate()
			d.EndUpdate()
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument("model.ldr")
			j := recording.NewJournal()
			d.SetRecorder(j)
			tt.run(d)
			assert.Equal(t, tt.wantBegin, count(j, recording.CmdBegin))
			assert.Equal(t, tt.wantBegin, count(j, recording.CmdEnd))
			assert.Equal(t, 0, j.Depth())
			assert.False(t, d.IsUpdating())
		})
	}
}

func TestDocumentBatchDeliversOneEvent(t *testing.T) {
	d := NewDocument("model.ldr")
	p := newTestPage(t, "model.ldr")
	require.NoError(t, d.AddPage(p))
	got := recordEvents(d)

	require.NoError(t, d.Batch("", func() error {
		if err := p.SetAuthor("Someone"); err != nil {
			return err
		}
		return p.SetCategory("Brick")
	}))

	require.Len(t, *got, 1)
	assert.Equal(t, EventBatch, (*got)[0].Kind)
	assert.Len(t, (*got)[0].Batch, 4)
}

func TestDocumentDispose(t *testing.T) {
	d := NewDocument("model.ldr")
	p := newTestPage(t, "model.ldr", NewComment("x"))
	require.NoError(t, d.AddPage(p))
	e := p.Step(0).At(0)

	d.Dispose()
	assert.True(t, p.IsDisposed())
	assert.True(t, e.IsDisposed())
	assert.ErrorIs(t, d.AddPage(newTestPage(t, "b.ldr")), ErrDisposed)
}
