package ldraw

import "strings"

// Comment is a free text line.
type Comment struct {
	ElementBase
	text  string
	slash bool
}

// NewComment returns a comment written in the "0 // text" style.
func NewComment(text string) *Comment {
	c := &Comment{text: text, slash: true}
	c.Init(c)
	return c
}

// Kind returns KindComment.
func (c *Comment) Kind() ElementKind { return KindComment }

// Text returns the comment text.
func (c *Comment) Text() string { return c.text }

// SetText changes the comment text. Line breaks are not allowed.
func (c *Comment) SetText(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return errLineBreak
	}
	return setProperty(&c.ElementBase, "Text", &c.text, text, c.SetText)
}

// Clone returns an unattached copy.
func (c *Comment) Clone() Element {
	n := NewComment(c.text)
	n.slash = c.slash
	return n
}

// Emit writes the comment line.
func (c *Comment) Emit(b *CodeBuilder, _ *EmitContext) {
	switch {
	case c.slash && c.text == "":
		b.WriteLine("0 //")
	case c.slash:
		b.WriteLine("0 // " + c.text)
	case c.text == "":
		b.WriteLine("0")
	default:
		b.WriteLine("0 " + c.text)
	}
}

// MetaCommand is a type 0 line that no parser claimed. It is written back
// unchanged.
type MetaCommand struct {
	ElementBase
	text string
}

// NewMetaCommand returns a meta-command holding the text after "0 ".
func NewMetaCommand(text string) *MetaCommand {
	m := &MetaCommand{text: text}
	m.Init(m)
	return m
}

// Kind returns KindMeta.
func (m *MetaCommand) Kind() ElementKind { return KindMeta }

// Text returns the command text.
func (m *MetaCommand) Text() string { return m.text }

// SetText changes the command text.
func (m *MetaCommand) SetText(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return errLineBreak
	}
	return setProperty(&m.ElementBase, "Text", &m.text, text, m.SetText)
}

// Clone returns an unattached copy.
func (m *MetaCommand) Clone() Element { return NewMetaCommand(m.text) }

// Emit writes the command line.
func (m *MetaCommand) Emit(b *CodeBuilder, _ *EmitContext) {
	b.WriteLine("0 " + m.text)
}

// plainMeta keeps a line type 0 text that no parser claimed: a MetaCommand
// for "!" commands, otherwise a Comment written without "//".
func plainMeta(text string) Element {
	if strings.HasPrefix(text, "!") {
		return NewMetaCommand(text)
	}
	c := NewComment(text)
	c.slash = false
	return c
}
