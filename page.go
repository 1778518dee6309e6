package ldraw

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// PageType is the library category a page declares.
type PageType uint8

const (
	// PageModel is a model built from parts.
	PageModel PageType = iota
	// PagePart is a library part.
	PagePart
	// PageSubpart is a part fragment stored under parts/s.
	PageSubpart
	// PagePrimitive is a primitive stored under p.
	PagePrimitive
	// PageHiresPrimitive is a high resolution primitive stored under p/48.
	PageHiresPrimitive
	// PageLoresPrimitive is a low resolution primitive stored under p/8.
	PageLoresPrimitive
	// PageShortcut combines several parts into one.
	PageShortcut
	// PageAlias stands in for another part through a single reference.
	PageAlias
	// PagePhysicalColour is a part fixed to one colour.
	PagePhysicalColour
	// PageFlexibleSection is a segment of a flexible part.
	PageFlexibleSection
	// PageConfiguration holds configuration such as LDConfig.ldr.
	PageConfiguration
)

var pageTypeNames = [...]string{
	PageModel:           "Model",
	PagePart:            "Part",
	PageSubpart:         "Subpart",
	PagePrimitive:       "Primitive",
	PageHiresPrimitive:  "48_Primitive",
	PageLoresPrimitive:  "8_Primitive",
	PageShortcut:        "Shortcut",
	PageAlias:           "Part Alias",
	PagePhysicalColour:  "Part Physical_Colour",
	PageFlexibleSection: "Part Flexible_Section",
	PageConfiguration:   "Configuration",
}

// String returns the !LDRAW_ORG form of the type.
func (t PageType) String() string {
	if int(t) < len(pageTypeNames) {
		return pageTypeNames[t]
	}
	return "Unknown"
}

// IsPrimitive reports whether coordinates use primitive precision.
func (t PageType) IsPrimitive() bool {
	return t == PagePrimitive || t == PageHiresPrimitive || t == PageLoresPrimitive
}

// ParsePageType reads a !LDRAW_ORG type with or without the
// "Unofficial_" prefix.
func ParsePageType(s string) (PageType, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "Unofficial_")
	for i, name := range pageTypeNames {
		if strings.EqualFold(name, s) {
			return PageType(i), true
		}
	}
	return 0, false
}

// redirectPrefix starts the title of a page that was moved.
const redirectPrefix = "~Moved to "

// Page is one named sub-document: a model or part made of steps.
type Page struct {
	entity
	doc   *Document
	steps []*Step
	subs  []func()

	name     string
	title    string
	author   string
	pageType PageType
	update   string
	license  string
	bfc      BFCCertification
	category string
	keywords []string
	help     []string
	history  []string
	inlined  bool
}

// NewPage returns a page with one empty step.
func NewPage(name string) (*Page, error) {
	if err := validPageName(name); err != nil {
		return nil, err
	}
	p := newPage(name)
	p.appendStepUnchecked(NewStep())
	return p, nil
}

func newPage(name string) *Page {
	p := &Page{name: name, bfc: BFCUnknown}
	p.entity.init(p)
	return p
}

func validPageName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: page name %q", ErrInvalidArgument, name)
	}
	return nil
}

// Document returns the document that owns the page, or nil.
func (p *Page) Document() *Document { return p.doc }

// IsLocked reports whether the page is locked.
func (p *Page) IsLocked() bool { return p.locked }

// SetLocked locks or unlocks the page and everything on it.
func (p *Page) SetLocked(locked bool) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	if p.locked == locked {
		return nil
	}
	p.locked = locked
	p.changed("Locked", !locked, locked, func() error { return p.SetLocked(!locked) })
	return nil
}

func (p *Page) checkMutable() error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	if p.locked {
		return ErrLocked
	}
	return nil
}

func setPageField[T comparable](p *Page, name string, field *T, value T, set func(T) error) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	old := *field
	if old == value {
		return nil
	}
	*field = value
	p.changed(name, old, value, func() error { return set(old) })
	return nil
}

// Name returns the target name other pages use to reference this one.
func (p *Page) Name() string { return p.name }

// SetName renames the page. The name must be unique in the document,
// ignoring case.
func (p *Page) SetName(name string) error {
	if err := validPageName(name); err != nil {
		return err
	}
	if p.doc != nil {
		if other := p.doc.Page(name); other != nil && other != p {
			return &DuplicatePageError{Name: name}
		}
	}
	return setPageField(p, "Name", &p.name, name, p.SetName)
}

// Title returns the description on the first line.
func (p *Page) Title() string { return p.title }

// SetTitle changes the description.
func (p *Page) SetTitle(title string) error {
	if strings.ContainsAny(title, "\r\n") {
		return errLineBreak
	}
	return setPageField(p, "Title", &p.title, title, p.SetTitle)
}

// Author returns the author line.
func (p *Page) Author() string { return p.author }

// SetAuthor changes the author line.
func (p *Page) SetAuthor(author string) error {
	if strings.ContainsAny(author, "\r\n") {
		return errLineBreak
	}
	return setPageField(p, "Author", &p.author, author, p.SetAuthor)
}

// Type returns the page type.
func (p *Page) Type() PageType { return p.pageType }

// SetType changes the page type.
func (p *Page) SetType(t PageType) error {
	if t > PageConfiguration {
		return fmt.Errorf("%w: page type %d", ErrInvalidArgument, t)
	}
	return setPageField(p, "Type", &p.pageType, t, p.SetType)
}

// Update returns the official release tag, or "" for unofficial pages.
func (p *Page) Update() string { return p.update }

// SetUpdate changes the release tag.
func (p *Page) SetUpdate(u string) error {
	return setPageField(p, "Update", &p.update, strings.TrimSpace(u), p.SetUpdate)
}

// License returns the license line.
func (p *Page) License() string { return p.license }

// SetLicense changes the license line.
func (p *Page) SetLicense(l string) error {
	return setPageField(p, "License", &p.license, l, p.SetLicense)
}

// BFC returns the culling certification.
func (p *Page) BFC() BFCCertification { return p.bfc }

// SetBFC changes the culling certification.
func (p *Page) SetBFC(c BFCCertification) error {
	if c > BFCCertifyCW {
		return fmt.Errorf("%w: certification %d", ErrInvalidArgument, c)
	}
	return setPageField(p, "BFC", &p.bfc, c, p.SetBFC)
}

// Category returns the !CATEGORY value.
func (p *Page) Category() string { return p.category }

// SetCategory changes the !CATEGORY value.
func (p *Page) SetCategory(c string) error {
	return setPageField(p, "Category", &p.category, c, p.SetCategory)
}

// Keywords returns the keyword list.
func (p *Page) Keywords() []string { return slices.Clone(p.keywords) }

// SetKeywords replaces the keyword list.
func (p *Page) SetKeywords(k []string) error {
	return p.setList("Keywords", &p.keywords, k, p.SetKeywords)
}

// Help returns the !HELP lines.
func (p *Page) Help() []string { return slices.Clone(p.help) }

// SetHelp replaces the !HELP lines.
func (p *Page) SetHelp(h []string) error {
	return p.setList("Help", &p.help, h, p.SetHelp)
}

// History returns the !HISTORY lines.
func (p *Page) History() []string { return slices.Clone(p.history) }

// SetHistory replaces the !HISTORY lines.
func (p *Page) SetHistory(h []string) error {
	return p.setList("History", &p.history, h, p.SetHistory)
}

func (p *Page) setList(name string, field *[]string, v []string, set func([]string) error) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	for _, s := range v {
		if strings.ContainsAny(s, "\r\n") {
			return errLineBreak
		}
	}
	old := *field
	if slices.Equal(old, v) {
		return nil
	}
	*field = slices.Clone(v)
	p.changed(name, old, slices.Clone(v), func() error { return set(old) })
	return nil
}

// Inlined reports whether the page is an embedded sub-file that is not
// published on its own.
func (p *Page) Inlined() bool { return p.inlined }

// SetInlined marks the page as embedded.
func (p *Page) SetInlined(v bool) error {
	return setPageField(p, "Inlined", &p.inlined, v, p.SetInlined)
}

// Steps returns a copy of the steps.
func (p *Page) Steps() []*Step { return slices.Clone(p.steps) }

// Step returns step i.
func (p *Page) Step(i int) *Step { return p.steps[i] }

// StepCount returns the number of steps.
func (p *Page) StepCount() int { return len(p.steps) }

// IndexOfStep returns the position of s, or -1.
func (p *Page) IndexOfStep(s *Step) int { return slices.Index(p.steps, s) }

// AddStep appends a step.
func (p *Page) AddStep(s *Step) error {
	return p.InsertStep(len(p.steps), s)
}

// InsertStep places a step at index i.
func (p *Page) InsertStep(i int, s *Step) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: nil step", ErrInvalidArgument)
	}
	if s.disposed {
		return ErrDisposed
	}
	if s.frozen {
		return ErrFrozen
	}
	if s.page != nil {
		return fmt.Errorf("%w: step already belongs to a page", ErrInvalidArgument)
	}
	if i < 0 || i > len(p.steps) {
		return fmt.Errorf("%w: step index %d out of range", ErrInvalidArgument, i)
	}
	p.insertStep(i, s)
	p.emit(Event{Kind: EventPropertyChanged, Property: "Steps", New: s, Index: i, revert: func() error {
		return p.RemoveStep(s)
	}})
	p.emit(Event{Kind: EventChanged})
	return nil
}

// RemoveStep detaches a step.
func (p *Page) RemoveStep(s *Step) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	i := p.IndexOfStep(s)
	if i < 0 {
		return fmt.Errorf("%w: step not on page", ErrInvalidArgument)
	}
	p.subs[i]()
	p.steps = slices.Delete(p.steps, i, i+1)
	p.subs = slices.Delete(p.subs, i, i+1)
	s.page = nil
	p.emit(Event{Kind: EventPropertyChanged, Property: "Steps", Old: s, Index: i, revert: func() error {
		return p.InsertStep(i, s)
	}})
	p.emit(Event{Kind: EventChanged})
	return nil
}

func (p *Page) appendStepUnchecked(s *Step) {
	p.insertStep(len(p.steps), s)
}

func (p *Page) insertStep(i int, s *Step) {
	s.page = p
	p.steps = slices.Insert(p.steps, i, s)
	cancel := s.Subscribe(func(ev Event) {
		if ev.Kind == EventDisposed {
			return
		}
		cause := ev
		p.emit(Event{Kind: EventChildChanged, Cause: &cause})
	})
	p.subs = slices.Insert(p.subs, i, cancel)
}

// walk visits every element of every step in document order.
func (p *Page) walk(fn func(Element) bool) {
	for _, s := range p.steps {
		if !s.Walk(fn) {
			return
		}
	}
}

// Elements returns every element of the page in document order,
// including the contents of nested collections.
func (p *Page) Elements() []Element {
	var out []Element
	p.walk(func(e Element) bool {
		out = append(out, e)
		return true
	})
	return out
}

func (p *Page) findGroup(name string) *Group {
	var found *Group
	p.walk(func(e Element) bool {
		if g, ok := e.(*Group); ok && g.name == name {
			found = g
			return false
		}
		return true
	})
	return found
}

// References returns every reference on the page.
func (p *Page) References() []*Reference {
	var out []*Reference
	p.walk(func(e Element) bool {
		if r, ok := e.(*Reference); ok {
			out = append(out, r)
		}
		return true
	})
	return out
}

// singleReference returns the only reference on the page, or nil when
// there are none or several.
func (p *Page) singleReference() *Reference {
	refs := p.References()
	if len(refs) != 1 {
		return nil
	}
	return refs[0]
}

// IsRedirect reports whether the page is a "~Moved to" stub holding a
// single reference.
func (p *Page) IsRedirect() bool {
	return strings.HasPrefix(p.title, redirectPrefix) && p.singleReference() != nil
}

// IsAlias reports whether the page is an alias holding a single
// reference.
func (p *Page) IsAlias() bool {
	return p.pageType == PageAlias && p.singleReference() != nil
}

// BoundingBox returns the union of the steps' boxes.
func (p *Page) BoundingBox() geom.Box3 {
	b := geom.EmptyBox()
	for _, s := range p.steps {
		b = b.Union(s.BoundingBox())
	}
	return b
}

// Analyse reports the problems of every element on the page.
func (p *Page) Analyse(ctx *Context, std Standard) []Problem {
	var out []Problem
	if std == StandardPartsLibrary && (p.title == "" || p.author == "") {
		out = append(out, Problem{
			Code:     ProblemInvalidName,
			Severity: SeverityError,
			Message:  fmt.Sprintf("page %s has no title or author", p.name),
		})
	}
	for _, s := range p.steps {
		out = append(out, s.Analyse(ctx, std)...)
	}
	return out
}

// Freeze freezes the page and its steps.
func (p *Page) Freeze() {
	p.frozen = true
	for _, s := range p.steps {
		s.Freeze()
	}
}

// Dispose releases the page and its steps and removes it from its
// document.
func (p *Page) Dispose() {
	if p.disposed {
		return
	}
	if p.doc != nil {
		p.doc.detach(p)
	}
	for i, s := range p.steps {
		p.subs[i]()
		s.page = nil
		s.Dispose()
	}
	p.steps, p.subs = nil, nil
	p.markDisposed()
}

// Clone returns an unattached deep copy with the given name.
func (p *Page) Clone(name string) *Page {
	n := newPage(name)
	n.title, n.author, n.pageType, n.update = p.title, p.author, p.pageType, p.update
	n.license, n.bfc, n.category, n.inlined = p.license, p.bfc, p.category, p.inlined
	n.keywords, n.help, n.history = slices.Clone(p.keywords), slices.Clone(p.help), slices.Clone(p.history)
	for _, s := range p.steps {
		n.appendStepUnchecked(s.Clone())
	}
	return n
}

// emitHeader writes the header block.
func (p *Page) emitHeader(b *CodeBuilder, ec *EmitContext) {
	b.WriteLine(strings.TrimRight("0 "+p.title, " "))
	b.WriteLine("0 Name: " + p.name)
	if p.author != "" {
		b.WriteLine("0 Author: " + p.author)
	}
	org := "0 !LDRAW_ORG "
	if p.update == "" {
		org += "Unofficial_"
	}
	org += p.pageType.String()
	if p.update != "" {
		org += " UPDATE " + p.update
	}
	b.WriteLine(org)
	if p.license != "" {
		b.WriteLine("0 !LICENSE " + p.license)
	}
	for _, h := range p.help {
		b.WriteLine("0 !HELP " + h)
	}
	if cert := p.bfc.String(); cert != "" {
		if ec.Standard != StandardPartsLibrary {
			b.WriteBlank()
		}
		b.WriteLine(cert)
	}
	if p.category != "" || len(p.keywords) > 0 {
		if ec.Standard != StandardPartsLibrary {
			b.WriteBlank()
		}
		if p.category != "" {
			b.WriteLine("0 !CATEGORY " + p.category)
		}
		if len(p.keywords) > 0 {
			b.WriteLine("0 !KEYWORDS " + strings.Join(p.keywords, ", "))
		}
	}
	for _, h := range p.history {
		b.WriteLine("0 !HISTORY " + h)
	}
	if ec.Standard != StandardPartsLibrary {
		b.WriteBlank()
	}
}

// Emit writes the page: header then steps.
func (p *Page) Emit(b *CodeBuilder, ec *EmitContext) {
	p.emitHeader(b, ec)
	for _, s := range p.steps {
		s.Emit(b, ec)
	}
}

// Code returns the text of the page under std.
func (p *Page) Code(ctx *Context, std Standard) string {
	var b CodeBuilder
	p.Emit(&b, NewEmitContext(ctx, std, p))
	return b.String()
}
