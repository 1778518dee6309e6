package ldraw

import (
	"regexp"
	"sort"
	"sync"
)

// MetaParser builds an element from the text of a type 0 line, without
// the leading "0 ".
type MetaParser func(ctx *Context, text string) (Element, error)

// EditorFactory creates an editor for an element. The DOM never needs
// one; applications query it to offer editing of element kinds they know.
type EditorFactory func(e Element) any

type metaEntry struct {
	pattern *regexp.Regexp
	parse   MetaParser
}

// Registry holds the element kinds and editors an application adds to the
// built-in ones. A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	metas   []metaEntry
	editors map[ElementKind]EditorFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{editors: make(map[ElementKind]EditorFactory)}
}

// RegisterMeta adds a parser for type 0 lines matching pattern. Parsers
// are tried in registration order after the built-in meta-commands.
//
// RegisterMeta panics if pattern or parse is nil.
func (r *Registry) RegisterMeta(pattern *regexp.Regexp, parse MetaParser) {
	if pattern == nil || parse == nil {
		panic("ldraw: RegisterMeta with nil pattern or parser")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metas = append(r.metas, metaEntry{pattern: pattern, parse: parse})
}

// RegisterEditor sets the editor factory for kind.
//
// RegisterEditor panics if factory is nil or kind already has one.
func (r *Registry) RegisterEditor(kind ElementKind, factory EditorFactory) {
	if factory == nil {
		panic("ldraw: RegisterEditor factory is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.editors[kind]; dup {
		panic("ldraw: RegisterEditor called twice for " + string(kind))
	}
	r.editors[kind] = factory
}

// Editor returns the editor factory for kind.
func (r *Registry) Editor(kind ElementKind) (EditorFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.editors[kind]
	return f, ok
}

// EditorKinds returns the kinds with an editor, sorted.
func (r *Registry) EditorKinds() []ElementKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]ElementKind, 0, len(r.editors))
	for k := range r.editors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// parseMeta runs the first parser whose pattern matches text. ok is false
// when none matches. A parser returning neither element nor error leaves
// the text as a plain meta line.
func (r *Registry) parseMeta(ctx *Context, text string) (e Element, ok bool, err error) {
	if r == nil {
		return nil, false, nil
	}
	r.mu.RLock()
	metas := r.metas
	r.mu.RUnlock()
	for _, m := range metas {
		if m.pattern.MatchString(text) {
			e, err = m.parse(ctx, text)
			if e == nil && err == nil {
				e = plainMeta(text)
			}
			return e, true, err
		}
	}
	return nil, false, nil
}
