package ldraw

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/gogpu/ldraw/recording"
)

// Document is an ordered set of pages read from or written to one file.
// Page names are unique within a document, ignoring case.
//
// A Document is not safe for concurrent use.
type Document struct {
	entity
	pages []*Page
	subs  []func()
	path  string

	modified bool
	repaired bool
	loading  bool

	recorder recording.Recorder
	suspend  int
	// begun holds, per open BeginUpdate, the recorder that saw Begin or nil.
	begun []recording.Recorder
}

// NewDocument returns an empty document bound to path.
func NewDocument(path string) *Document {
	d := &Document{path: path}
	d.entity.init(d)
	return d
}

// Path returns the file the document is saved to.
func (d *Document) Path() string { return d.path }

// SetPath changes the file the document is saved to.
func (d *Document) SetPath(path string) { d.path = path }

// Title returns the title of the first page, or the file name.
func (d *Document) Title() string {
	if len(d.pages) > 0 && d.pages[0].title != "" {
		return d.pages[0].title
	}
	return filepath.Base(d.path)
}

// IsModel reports whether the first page is a model. Other documents are
// published as library parts.
func (d *Document) IsModel() bool {
	return len(d.pages) == 0 || d.pages[0].pageType == PageModel
}

// Modified reports whether the document differs from its file.
func (d *Document) Modified() bool { return d.modified }

// ModifiedWithoutFile reports whether loading repaired the document, so
// it no longer matches its file although nobody edited it.
func (d *Document) ModifiedWithoutFile() bool { return d.repaired }

// MarkSaved clears the modified flags.
func (d *Document) MarkSaved() { d.modified, d.repaired = false, false }

func (d *Document) markRepaired() { d.modified, d.repaired = true, true }

// IsLocked reports whether the document is locked.
func (d *Document) IsLocked() bool { return d.locked }

// Pages returns a copy of the pages.
func (d *Document) Pages() []*Page { return slices.Clone(d.pages) }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// Page returns the page with the given name, ignoring case, or nil.
func (d *Document) Page(name string) *Page {
	key := FoldName(name)
	for _, p := range d.pages {
		if FoldName(p.name) == key {
			return p
		}
	}
	return nil
}

// IndexOfPage returns the position of p, or -1.
func (d *Document) IndexOfPage(p *Page) int { return slices.Index(d.pages, p) }

func (d *Document) checkMutable() error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if d.locked {
		return ErrLocked
	}
	return nil
}

// AddPage appends a page.
func (d *Document) AddPage(p *Page) error {
	return d.InsertPage(len(d.pages), p)
}

// InsertPage places a page at index i. Its name must not already be used.
func (d *Document) InsertPage(i int, p *Page) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: nil page", ErrInvalidArgument)
	}
	if p.disposed {
		return ErrDisposed
	}
	if p.doc != nil {
		return fmt.Errorf("%w: page already belongs to a document", ErrInvalidArgument)
	}
	if i < 0 || i > len(d.pages) {
		return fmt.Errorf("%w: page index %d out of range", ErrInvalidArgument, i)
	}
	if d.Page(p.name) != nil {
		return &DuplicatePageError{Name: p.name}
	}
	d.insertPage(i, p)
	ev := Event{Kind: EventItemsAdded, Index: i, revert: func() error { return d.RemovePage(p) }}
	d.record(ev, p)
	d.modified = true
	d.emit(ev)
	d.emit(Event{Kind: EventChanged})
	return nil
}

// RemovePage detaches a page without disposing it.
func (d *Document) RemovePage(p *Page) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	i := d.IndexOfPage(p)
	if i < 0 {
		return fmt.Errorf("%w: page not in document", ErrInvalidArgument)
	}
	d.detach(p)
	ev := Event{Kind: EventItemsRemoved, Index: i, revert: func() error { return d.InsertPage(i, p) }}
	d.record(ev, p)
	d.modified = true
	d.emit(ev)
	d.emit(Event{Kind: EventChanged})
	return nil
}

func (d *Document) appendPageUnchecked(p *Page) {
	d.insertPage(len(d.pages), p)
}

func (d *Document) insertPage(i int, p *Page) {
	p.doc = d
	d.pages = slices.Insert(d.pages, i, p)
	d.subs = slices.Insert(d.subs, i, p.Subscribe(d.onPageEvent))
}

func (d *Document) detach(p *Page) {
	i := d.IndexOfPage(p)
	if i < 0 {
		return
	}
	d.subs[i]()
	d.pages = slices.Delete(d.pages, i, i+1)
	d.subs = slices.Delete(d.subs, i, i+1)
	p.doc = nil
}

func (d *Document) onPageEvent(ev Event) {
	if ev.Kind == EventDisposed {
		return
	}
	if !d.loading {
		d.modified = true
	}
	root := ev.Root()
	d.record(root, nil)
	cause := ev
	d.emit(Event{Kind: EventChildChanged, Cause: &cause})
}

// SetRecorder attaches an undo recorder. A nil recorder detaches it.
func (d *Document) SetRecorder(r recording.Recorder) { d.recorder = r }

// Recorder returns the attached undo recorder, or nil.
func (d *Document) Recorder() recording.Recorder { return d.recorder }

// SuspendRecording stops forwarding changes to the recorder until the
// returned function is called.
func (d *Document) SuspendRecording() (resume func()) {
	d.suspend++
	done := false
	return func() {
		if !done {
			done = true
			d.suspend--
		}
	}
}

// record forwards a root change to the recorder.
func (d *Document) record(ev Event, item *Page) {
	if d.recorder == nil || d.suspend > 0 || d.loading {
		return
	}
	if ev.Kind == EventBatch {
		for _, sub := range ev.Batch {
			d.record(sub.Root(), nil)
		}
		return
	}
	var (
		kind     recording.ChangeKind
		old, new any
	)
	switch ev.Kind {
	case EventPropertyChanged:
		kind, old, new = recording.ChangeProperty, ev.Old, ev.New
	case EventItemsAdded:
		kind, new = recording.ChangeAdd, ev.Items
	case EventItemsRemoved:
		kind, old = recording.ChangeRemove, ev.Items
	case EventItemsReplaced:
		kind, old, new = recording.ChangeReplace, ev.Replaced, ev.Items
	case EventCleared:
		kind, old = recording.ChangeClear, ev.Items
	default:
		return
	}
	if item != nil {
		if kind == recording.ChangeAdd {
			new = item
		} else {
			old = item
		}
	}
	source := ev.Source
	if source == nil {
		source = d
	}
	d.recorder.Apply(recording.NewChange(source.ID(), kind, ev.Property, old, new, ev.revert))
}

// BeginUpdate opens a batch on the document and its recorder.
func (d *Document) BeginUpdate() {
	d.entity.BeginUpdate()
	var rec recording.Recorder
	if d.recorder != nil && d.suspend == 0 {
		rec = d.recorder
		rec.Begin("")
	}
	d.begun = append(d.begun, rec)
}

// EndUpdate closes a batch opened by BeginUpdate. The recorder sees End
// only if it saw the matching Begin.
func (d *Document) EndUpdate() {
	if n := len(d.begun); n > 0 {
		rec := d.begun[n-1]
		d.begun = d.begun[:n-1]
		if rec != nil {
			rec.End()
		}
	}
	d.entity.EndUpdate()
}

// Batch runs fn inside a labelled batch. The recorder sees one
// transaction and subscribers one batched notification.
func (d *Document) Batch(label string, fn func() error) error {
	d.entity.BeginUpdate()
	rec := d.recorder != nil && d.suspend == 0
	if rec {
		d.recorder.Begin(label)
	}
	defer func() {
		if rec {
			d.recorder.End()
		}
		d.entity.EndUpdate()
	}()
	return fn()
}

// Revert rolls back a recorded change without recording the rollback as
// a new change, then tells the recorder.
func (d *Document) Revert(c recording.Change) error {
	resume := d.SuspendRecording()
	err := c.Revert()
	resume()
	if err != nil {
		return err
	}
	if d.recorder != nil {
		d.recorder.Revert(c)
	}
	return nil
}

// Analyse reports the problems of every page.
func (d *Document) Analyse(ctx *Context, std Standard) []Problem {
	var out []Problem
	for _, p := range d.pages {
		out = append(out, p.Analyse(ctx, std)...)
	}
	return out
}

// Freeze freezes the document and all its pages.
func (d *Document) Freeze() {
	d.frozen = true
	for _, p := range d.pages {
		p.Freeze()
	}
}

// Dispose releases every page and the document.
func (d *Document) Dispose() {
	if d.disposed {
		return
	}
	for _, p := range slices.Clone(d.pages) {
		p.Dispose()
	}
	d.markDisposed()
}
