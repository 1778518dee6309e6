package ldraw

import (
	"errors"
	"fmt"
	"regexp"
)

// legacyName matches target names written with an old single-letter
// directory prefix such as "s\\3001s01.dat".
var legacyName = regexp.MustCompile(`^([A-Za-z])[\\/](.+)$`)

// validate runs the checks that follow parsing. declared maps pages to
// the name given by their Name: header.
func validate(ctx *Context, doc *Document, declared map[*Page]string) error {
	renamePages(doc, declared)
	if err := checkDuplicates(doc); err != nil {
		return err
	}
	if err := checkCycles(doc); err != nil {
		return err
	}
	for _, p := range doc.pages {
		for _, r := range p.References() {
			if err := repairReference(ctx, doc, r); err != nil {
				return err
			}
		}
	}
	return checkPolicy(doc)
}

// renamePages gives every page the name its header declares and points
// the references at the new name.
func renamePages(doc *Document, declared map[*Page]string) {
	for _, p := range doc.pages {
		name, ok := declared[p]
		if !ok || SameName(name, p.name) || validPageName(name) != nil {
			continue
		}
		old := p.name
		p.name = name
		for _, q := range doc.pages {
			for _, r := range q.References() {
				if SameName(r.name, old) {
					r.name = name
					r.ClearCache()
				}
			}
		}
		doc.markRepaired()
		Logger().Warn("ldraw: page renamed", "from", old, "to", name)
	}
}

func checkDuplicates(doc *Document) error {
	seen := make(map[string]bool, len(doc.pages))
	for _, p := range doc.pages {
		key := FoldName(p.name)
		if seen[key] {
			return &DuplicatePageError{Name: p.name}
		}
		seen[key] = true
	}
	return nil
}

// checkCycles walks the references between the pages of doc depth first.
func checkCycles(doc *Document) error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[*Page]int, len(doc.pages))
	var chain []string
	var visit func(p *Page) error
	visit = func(p *Page) error {
		switch state[p] {
		case active:
			return &CircularReferenceError{Chain: append(cycleOf(chain, p.name), p.name)}
		case done:
			return nil
		}
		state[p] = active
		chain = append(chain, p.name)
		for _, r := range p.References() {
			if t := doc.Page(r.name); t != nil {
				if err := visit(t); err != nil {
					return err
				}
			}
		}
		chain = chain[:len(chain)-1]
		state[p] = done
		return nil
	}
	for _, p := range doc.pages {
		if err := visit(p); err != nil {
			return err
		}
	}
	return nil
}

// cycleOf trims chain to the part that starts at name.
func cycleOf(chain []string, name string) []string {
	for i, n := range chain {
		if n == name {
			return append([]string(nil), chain[i:]...)
		}
	}
	return append([]string(nil), chain...)
}

// repairReference resolves r and fixes what it can: legacy prefixed
// names, and redirect or alias targets when ctx follows them. A target
// that cannot be found leaves r dangling.
func repairReference(ctx *Context, doc *Document, r *Reference) error {
	t, err := r.Target(ctx)
	if err != nil && !errors.Is(err, ErrCircularReference) {
		if m := legacyName.FindStringSubmatch(r.name); m != nil {
			old := r.name
			r.name, r.target = m[2], nil
			if t, err = r.Target(ctx); err == nil {
				r.raw = ""
				doc.markRepaired()
				Logger().Warn("ldraw: legacy reference renamed", "from", old, "to", r.name)
			} else {
				r.name = old
			}
		}
	}
	if err != nil {
		if errors.Is(err, ErrCircularReference) {
			return err
		}
		r.ClearCache()
		Logger().Warn("ldraw: unresolved reference", "page", pageName(r), "target", r.name, "error", err)
		return nil
	}
	seen := map[string]bool{FoldName(r.name): true}
	for follows(ctx, t) {
		inner := t.singleReference()
		if seen[FoldName(inner.name)] {
			return &CircularReferenceError{Chain: []string{r.name, inner.name}}
		}
		seen[FoldName(inner.name)] = true
		Logger().Debug("ldraw: following redirect", "from", r.name, "to", inner.name)
		r.matrix = r.matrix.Multiply(inner.matrix)
		if r.colour == MainColour {
			r.colour = inner.colour
		}
		r.invert = r.invert != inner.invert
		r.name = inner.name
		r.ClearCache()
		doc.markRepaired()
		if t, err = r.Target(ctx); err != nil {
			if errors.Is(err, ErrCircularReference) {
				return err
			}
			r.ClearCache()
			Logger().Warn("ldraw: unresolved reference", "page", pageName(r), "target", r.name, "error", err)
			return nil
		}
	}
	return nil
}

func follows(ctx *Context, t *Page) bool {
	return (ctx.FollowRedirects && t.IsRedirect()) || (ctx.FollowAliases && t.IsAlias())
}

func pageName(e Element) string {
	if p := e.Base().Page(); p != nil {
		return p.name
	}
	return ""
}

// checkPolicy asks every element whether it may sit where the parser put
// it.
func checkPolicy(doc *Document) error {
	var err error
	for _, p := range doc.pages {
		p.walk(func(e Element) bool {
			if check := e.CanInsertInto(e.Base().parent); check != InsertAllowed {
				err = fmt.Errorf("%w: page %s: %w", ErrFormat, p.name, &InsertError{Kind: e.Kind(), Check: check})
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}
