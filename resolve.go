package ldraw

// scanScope visits the elements visible to e, nearest first: its earlier
// siblings, then the earlier siblings of each enclosing element, then the
// contents of earlier steps of the same page from last to first. Nested
// collections of those siblings are not entered. Collections for which
// count returns zero are passed over without scanning. Visiting stops
// when visit returns false.
func scanScope(e Element, count func(*Collection) int, visit func(Element) bool) {
	if e == nil {
		return
	}
	b := e.Base()
	scanFrom(b.parent, b.Index(), count, visit)
}

// scanFrom visits the elements before index idx of c, then climbs through
// host elements and earlier steps.
func scanFrom(c *Collection, idx int, count func(*Collection) int, visit func(Element) bool) {
	for c != nil {
		if count(c) > 0 {
			for i := idx - 1; i >= 0; i-- {
				if !visit(c.items[i]) {
					return
				}
			}
		}
		switch h := c.host.(type) {
		case *Step:
			prev := h.Previous()
			if prev == nil {
				return
			}
			c, idx = &prev.Collection, prev.Len()
		case Element:
			c, idx = h.Base().parent, h.Base().Index()
		default:
			return
		}
	}
}

func colourCount(c *Collection) int { return c.colours }

func flagCount(c *Collection) int { return c.flags }

// findColour returns the nearest colour definition visible to e that
// satisfies match.
func findColour(e Element, match func(*Colour) bool) *Colour {
	var found *Colour
	scanScope(e, colourCount, func(el Element) bool {
		if c, ok := el.(*Colour); ok && match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// ResolveColour returns the definition of code as seen from element e.
// The nearest preceding definition in the tree wins, then the palette of
// ctx, then FallbackColour. Direct colours resolve to a synthesised
// definition. A nil e only consults the palette.
func ResolveColour(ctx *Context, e Element, code uint32) *Colour {
	if IsDirectColour(code) {
		return directColourDefinition(code)
	}
	if def := findColour(e, func(c *Colour) bool { return c.code == code }); def != nil {
		return def
	}
	if ctx != nil && ctx.Palette != nil {
		if def, ok := ctx.Palette.Lookup(code); ok {
			return def
		}
	}
	return FallbackColour()
}

// IsColourDefined reports whether code resolves to a definition other than
// the fallback.
func IsColourDefined(ctx *Context, e Element, code uint32) bool {
	if code == MainColour || code == EdgeColour || IsDirectColour(code) {
		return true
	}
	return ResolveColour(ctx, e, code) != FallbackColour()
}

// ResolveEdge returns the edge colour of code as seen from element e. The
// edge code of the definition is resolved with the same search. An edge
// that is itself EdgeColour yields the edge value of the EdgeColour
// definition.
func ResolveEdge(ctx *Context, e Element, code uint32) *Colour {
	def := ResolveColour(ctx, e, code)
	edge := def.edgeCode
	if code == EdgeColour || edge == EdgeColour {
		def = ResolveColour(ctx, e, EdgeColour)
		edge = def.edgeCode
		if edge == EdgeColour {
			return def
		}
	}
	return ResolveColour(ctx, e, edge)
}

// ResolveCulling returns whether back-face culling is enabled for e and
// the winding its polygons use, from the nearest preceding culling flags
// and the certification of its page.
func ResolveCulling(e Element) (enabled bool, w Winding) {
	if e == nil {
		return cullingFrom(nil, 0, nil)
	}
	b := e.Base()
	return cullingFrom(b.parent, b.Index(), b.Page())
}

// cullingFrom resolves culling for a position idx within c on page p.
func cullingFrom(c *Collection, idx int, p *Page) (enabled bool, w Winding) {
	var haveClip, haveWinding bool
	scanFrom(c, idx, flagCount, func(el Element) bool {
		f, ok := el.(*BFCFlag)
		if !ok {
			return true
		}
		if v, ok := f.Clip(); ok && !haveClip {
			enabled, haveClip = v, true
		}
		if v, ok := f.Winding(); ok && !haveWinding {
			w, haveWinding = v, true
		}
		return !(haveClip && haveWinding)
	})
	var cert BFCCertification
	if p != nil {
		cert = p.BFC()
	}
	if !haveClip {
		enabled = cert.IsCertified()
	}
	if !haveWinding {
		w = cert.Winding()
	}
	return enabled, w
}
