// Package library resolves reference targets against LDraw library
// folders on disk.
//
// A library root holds p/, p/48/, parts/, parts/s/ and models/. Roots are
// searched in the order given; within a root, primitives come first, then
// parts, then models, then the root itself.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/ldraw"
	"github.com/gogpu/ldraw/config"
	"github.com/gogpu/ldraw/internal/cache"
)

// searchDirs lists the folders of a root in precedence order.
var searchDirs = []string{"p", filepath.Join("p", "48"), "parts", filepath.Join("parts", "s"), "models", ""}

// Resolver finds pages by name in a set of library roots. Loaded files
// are frozen and kept in an LRU cache.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	roots   []string
	ctx     *ldraw.Context
	pages   *cache.Cache[string, *ldraw.Page]
	loading map[string]bool
}

// New returns a resolver over the search path of cfg.
func New(cfg *config.Config) (*Resolver, error) {
	ctx, err := ldraw.NewContext(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithContext(ctx, cfg.CacheSize, cfg.SearchPath...), nil
}

// NewWithContext returns a resolver over roots that parses library files
// with a copy of ctx. The copy resolves through the new resolver.
func NewWithContext(ctx *ldraw.Context, size int, roots ...string) *Resolver {
	c := *ctx
	r := &Resolver{
		roots:   roots,
		ctx:     &c,
		loading: make(map[string]bool),
	}
	c.Resolver = r
	r.pages = cache.New(size, func(_ string, p *ldraw.Page) {
		if d := p.Document(); d != nil {
			d.Dispose()
		}
	})
	return r
}

// Context returns the context the resolver loads with. Documents parsed
// with it resolve their references through r.
func (r *Resolver) Context() *ldraw.Context { return r.ctx }

// Roots returns the library roots in search order.
func (r *Resolver) Roots() []string { return append([]string(nil), r.roots...) }

// Resolve returns the page named name, loading it on first use.
func (r *Resolver) Resolve(name string) (*ldraw.Page, error) {
	key := ldraw.FoldName(name)
	if p, ok := r.pages.Get(key); ok && !p.IsDisposed() {
		return p, nil
	}
	if r.loading[key] {
		return nil, &ldraw.CircularReferenceError{Chain: []string{name, name}}
	}
	path, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	r.loading[key] = true
	defer delete(r.loading, key)

	doc, err := ldraw.Open(r.ctx, path)
	if err != nil {
		return nil, fmt.Errorf("library: load %s: %w", name, err)
	}
	p := doc.Page(filepath.Base(path))
	if p == nil {
		p = doc.Pages()[0]
	}
	doc.Freeze()
	r.pages.Add(key, p)
	ldraw.Logger().Debug("library: loaded", "name", name, "path", path)
	return p, nil
}

// Find returns the file that holds name, trying the name as written and
// in lower case.
func (r *Resolver) Find(name string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	candidates := []string{rel}
	if lower := strings.ToLower(rel); lower != rel {
		candidates = append(candidates, lower)
	}
	for _, root := range r.roots {
		for _, dir := range searchDirs {
			for _, c := range candidates {
				path := filepath.Join(root, dir, c)
				fi, err := os.Stat(path)
				if err == nil && !fi.IsDir() {
					return path, nil
				}
				if err != nil && !errors.Is(err, os.ErrNotExist) {
					return "", fmt.Errorf("library: %w", err)
				}
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ldraw.ErrNotFound, name)
}

// Stats reports the page cache statistics.
func (r *Resolver) Stats() cache.Stats { return r.pages.Stats() }

// Purge drops every cached page.
func (r *Resolver) Purge() { r.pages.Purge() }
