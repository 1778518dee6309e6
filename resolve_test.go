package ldraw

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ldraw/geom"
)

func testColour(t *testing.T, name string, code uint32, r uint8) *Colour {
	t.Helper()
	c, err := NewColour(name, code, color.NRGBA{R: r, A: 255}, 0)
	require.NoError(t, err)
	return c
}

func testTexmap(t *testing.T) *Texmap {
	t.Helper()
	tm, err := NewTexmap(TexmapPlanar, [3]geom.Vector3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, nil, "logo.png")
	require.NoError(t, err)
	return tm
}

func TestResolveColourScopes(t *testing.T) {
	ctx := DefaultContext()
	outer := testColour(t, "Outer", 400, 1)
	near := testColour(t, "Near", 400, 2)
	inner := testColour(t, "Inner", 400, 3)

	first := line(0)
	first.colour = 400
	second := line(1)
	second.colour = 400
	nested := line(2)
	nested.colour = 400
	tm := testTexmap(t)
	require.NoError(t, tm.Textured().AddRange(inner, nested))

	p := newTestPage(t, "scopes.ldr", outer)
	s1, s2 := NewStep(), NewStep()
	require.NoError(t, p.AddStep(s1))
	require.NoError(t, p.AddStep(s2))
	require.NoError(t, s1.AddRange(near, first))
	require.NoError(t, s2.AddRange(second, tm))

	assert.Same(t, near, ResolveColour(ctx, first, 400), "earlier sibling")
	assert.Same(t, near, ResolveColour(ctx, second, 400), "end of the previous step")
	assert.Same(t, inner, ResolveColour(ctx, nested, 400), "nested scope first")

	_, err := s1.Remove(near)
	require.NoError(t, err)
	assert.Same(t, outer, ResolveColour(ctx, first, 400), "falls through to the first step")
	assert.Same(t, outer, ResolveColour(ctx, second, 400))

	_, err = tm.Textured().Remove(inner)
	require.NoError(t, err)
	assert.Same(t, outer, ResolveColour(ctx, nested, 400), "out of the texture map and up the steps")
}

func TestResolveColourIgnoresLaterAndNested(t *testing.T) {
	ctx := DefaultContext()
	l := line(0)
	l.colour = 400
	hidden := testColour(t, "Hidden", 400, 9)
	later := testColour(t, "Later", 400, 8)
	tm := testTexmap(t)
	require.NoError(t, tm.Textured().Add(hidden))

	newTestPage(t, "order.ldr", tm, l, later)

	assert.Same(t, FallbackColour(), ResolveColour(ctx, l, 400))
	assert.False(t, IsColourDefined(ctx, l, 400))
}

func TestResolveColourPalette(t *testing.T) {
	ctx := DefaultContext()
	red := ResolveColour(ctx, nil, 4)
	assert.Equal(t, "Red", red.Name())

	local := testColour(t, "Local_Red", 4, 200)
	l := line(0)
	l.colour = 4
	newTestPage(t, "local.ldr", local, l)
	assert.Same(t, local, ResolveColour(ctx, l, 4))

	assert.Same(t, FallbackColour(), ResolveColour(ctx, nil, 9999))
	assert.False(t, IsColourDefined(ctx, nil, 9999))
	assert.True(t, IsColourDefined(ctx, nil, MainColour))
	assert.True(t, IsColourDefined(ctx, nil, 0x2123456))
}

func TestResolveDirectColour(t *testing.T) {
	c := ResolveColour(nil, nil, 0x2FF8000)
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0x80, A: 255}, c.Value())
	assert.True(t, c.IsFrozen())
	assert.True(t, IsDirectColour(c.EdgeCode()))
}

func TestResolveEdge(t *testing.T) {
	ctx := DefaultContext()

	edge := ResolveEdge(ctx, nil, 4)
	assert.Equal(t, color.NRGBA{R: 0x72, G: 0x0E, B: 0x0F, A: 255}, edge.Value())

	def := testColour(t, "Follows", 500, 10)
	def.edgeCode = EdgeColour
	l := line(0)
	newTestPage(t, "edge.ldr", def, l)
	got := ResolveEdge(ctx, l, 500)
	assert.Equal(t, color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}, got.Value(), "edge of the EdgeColour definition")
}

func TestResolveCulling(t *testing.T) {
	tri := NewTriangle(16, geom.V3(0, 0, 0), geom.V3(1, 0, 0), geom.V3(0, 1, 0))
	p := newTestPage(t, "cull.dat", NewBFCFlag(BFCCW), NewBFCFlag(BFCNoClip), tri)

	enabled, w := ResolveCulling(tri)
	assert.False(t, enabled)
	assert.Equal(t, WindingCW, w)

	first := p.Step(0).At(0)
	require.NoError(t, p.SetBFC(BFCCertifyCCW))
	enabled, w = ResolveCulling(first)
	assert.True(t, enabled, "defaults to the certification")
	assert.Equal(t, WindingCCW, w)

	free := line(0)
	enabled, w = ResolveCulling(free)
	assert.False(t, enabled)
	assert.Equal(t, WindingCCW, w)
}
