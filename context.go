package ldraw

import (
	"fmt"
	"os"

	"github.com/gogpu/ldraw/config"
)

// Precision holds the number of decimals written for each class of
// number.
type Precision struct {
	Coordinate          int
	PrimitiveCoordinate int
	Transform           int
}

// Resolver finds pages by reference target name, outside the referencing
// document. Resolve returns an error wrapping ErrNotFound when the name is
// unknown.
type Resolver interface {
	Resolve(name string) (*Page, error)
}

// MapResolver resolves names from an in-memory set of pages.
type MapResolver map[string]*Page

// Add registers p under its name.
func (m MapResolver) Add(p *Page) {
	m[FoldName(p.Name())] = p
}

// Resolve implements Resolver.
func (m MapResolver) Resolve(name string) (*Page, error) {
	if p, ok := m[FoldName(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Context carries the collaborators consulted while parsing, validating
// and generating text.
type Context struct {
	Precision Precision
	Palette   Palette
	Resolver  Resolver
	Registry  *Registry

	// FollowRedirects rewrites references to "~Moved to" pages to point
	// at the final page while loading.
	FollowRedirects bool
	// FollowAliases does the same for alias pages.
	FollowAliases bool
}

// DefaultContext returns a context with default precision, the built-in
// palette, no resolver and an empty registry.
func DefaultContext() *Context {
	ctx, _ := NewContext(config.Default())
	return ctx
}

// NewContext builds a context from cfg. The palette file, if configured,
// is loaded here.
func NewContext(cfg *config.Config) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := &Context{
		Precision: Precision{
			Coordinate:          cfg.CoordinatePrecision,
			PrimitiveCoordinate: cfg.PrimitiveCoordinatePrecision,
			Transform:           cfg.TransformPrecision,
		},
		Palette:         DefaultPalette(),
		Registry:        NewRegistry(),
		FollowRedirects: cfg.FollowRedirects,
		FollowAliases:   cfg.FollowAliases,
	}
	if cfg.Palette != "" {
		f, err := os.Open(cfg.Palette)
		if err != nil {
			return nil, fmt.Errorf("ldraw: open palette: %w", err)
		}
		defer f.Close()
		p, err := LoadPalette(f)
		if err != nil {
			return nil, err
		}
		ctx.Palette = p
	}
	return ctx, nil
}
