package ldraw

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ldraw/geom"
)

func parseString(t *testing.T, src string, opts ...LoadOption) (*Document, error) {
	t.Helper()
	return Parse(nil, strings.NewReader(src), "model.ldr", opts...)
}

func mustParse(t *testing.T, src string, opts ...LoadOption) *Document {
	t.Helper()
	doc, err := parseString(t, src, opts...)
	require.NoError(t, err)
	return doc
}

const multiPage = "0 FILE main.ldr\n" +
	"0 Main model\n" +
	"0 Name: main.ldr\n" +
	"0 Author: Me\n" +
	"0 !LDRAW_ORG Unofficial_Model\n" +
	"\n" +
	"1 4 0 0 0 1 0 0 0 1 0 0 0 1 sub.ldr\n" +
	"0 STEP\n" +
	"1 1 10 0 0 1 0 0 0 1 0 0 0 1 sub.ldr\n" +
	"\n" +
	"0 FILE sub.ldr\n" +
	"0 Sub\n" +
	"0 Name: sub.ldr\n" +
	"0 Author: Me\n" +
	"0 !LDRAW_ORG Unofficial_Part\n" +
	"\n" +
	"0 BFC CERTIFY CCW\n" +
	"\n" +
	"3 16 0 0 0 1 0 0 0 1 0\n"

func TestParseMultiPageRoundTrip(t *testing.T) {
	doc := mustParse(t, multiPage)

	require.Equal(t, 2, doc.PageCount())
	main, sub := doc.Pages()[0], doc.Pages()[1]
	assert.Equal(t, "main.ldr", main.Name())
	assert.Equal(t, "Main model", main.Title())
	assert.Equal(t, PageModel, main.Type())
	assert.Equal(t, 2, main.StepCount())
	assert.Equal(t, PagePart, sub.Type())
	assert.Equal(t, BFCCertifyCCW, sub.BFC())
	assert.True(t, doc.IsModel())
	assert.False(t, doc.Modified())

	refs := main.References()
	require.Len(t, refs, 2)
	target, err := refs[0].Target(nil)
	require.NoError(t, err)
	assert.Same(t, sub, target)

	assert.Equal(t, multiPage, doc.Code(nil, StandardFull))
}

func TestParseHeader(t *testing.T) {
	doc := mustParse(t, "0 Brick 2 x 4\n"+
		"0 Name: model.ldr\n"+
		"0 Author: Someone\n"+
		"0 !LDRAW_ORG Part UPDATE 2004-03\n"+
		"0 !LICENSE Licensed under CC BY 4.0\n"+
		"0 BFC CERTIFY CW\n"+
		"0 !HELP Use with care\n"+
		"0 !CATEGORY Brick\n"+
		"0 !KEYWORDS a, b ,c\n"+
		"0 !HISTORY 2002-01-01 made\n"+
		"0 // body starts here\n")

	p := doc.Pages()[0]
	assert.Equal(t, "Brick 2 x 4", p.Title())
	assert.Equal(t, "Someone", p.Author())
	assert.Equal(t, PagePart, p.Type())
	assert.Equal(t, "2004-03", p.Update())
	assert.Equal(t, "Licensed under CC BY 4.0", p.License())
	assert.Equal(t, BFCCertifyCW, p.BFC())
	assert.Equal(t, []string{"Use with care"}, p.Help())
	assert.Equal(t, "Brick", p.Category())
	assert.Equal(t, []string{"a", "b", "c"}, p.Keywords())
	assert.Equal(t, []string{"2002-01-01 made"}, p.History())

	elems := p.Elements()
	require.Len(t, elems, 1)
	assert.Equal(t, "body starts here", elems[0].(*Comment).Text())
}

func TestParseMetaLines(t *testing.T) {
	src := "0 Title\n" +
		"0 // slashed\n" +
		"0 plain words\n" +
		"0\n" +
		"0 !FOO bar baz\n" +
		"0 BFC NOCLIP\n" +
		"0 !COLOUR Local CODE 400 VALUE #102030 EDGE 0\n"
	doc := mustParse(t, src)
	elems := doc.Pages()[0].Elements()
	require.Len(t, elems, 6)
	assert.IsType(t, &Comment{}, elems[0])
	assert.IsType(t, &Comment{}, elems[1])
	assert.IsType(t, &Comment{}, elems[2])
	assert.IsType(t, &MetaCommand{}, elems[3])
	assert.Equal(t, BFCNoClip, elems[4].(*BFCFlag).Mode())
	assert.Equal(t, uint32(400), elems[5].(*Colour).Code())

	var b CodeBuilder
	ec := NewEmitContext(nil, StandardPartsLibrary, doc.Pages()[0])
	doc.Pages()[0].Step(0).Emit(&b, ec)
	assert.Equal(t,
		"0 // slashed\n0 plain words\n0\n0 !FOO bar baz\n0 BFC NOCLIP\n0 !COLOUR Local CODE 400 VALUE #102030 EDGE 0\n",
		b.String())
}

func TestParseSteps(t *testing.T) {
	doc := mustParse(t, "0 T\n"+
		"2 24 0 0 0 1 0 0\n0 STEP\n"+
		"2 24 0 0 0 1 0 0\n0 ROTSTEP 10 20 30 ABS\n"+
		"2 24 0 0 0 1 0 0\n0 ROTSTEP 5 0 0\n"+
		"2 24 0 0 0 1 0 0\n0 ROTSTEP END\n")

	p := doc.Pages()[0]
	require.Equal(t, 4, p.StepCount(), "trailing empty step is dropped")
	modes := []StepMode{StepAdditive, StepAbsolute, StepRelative, StepReset}
	for i, m := range modes {
		assert.Equal(t, m, p.Step(i).Mode(), "step %d", i)
	}
	x, y, z := p.Step(1).Rotation()
	assert.Equal(t, [3]float64{10, 20, 30}, [3]float64{x, y, z})
	assert.Contains(t, p.Code(nil, StandardFull), "0 ROTSTEP 5 0 0 REL\n")
}

func TestParseTexmap(t *testing.T) {
	const tri = "3 16 0 0 0 1 0 0 0 1 0\n"
	src := "0 !TEXMAP START PLANAR 0 0 0 1 0 0 0 1 0 logo.png\n" +
		"0 !: " + tri +
		"0 !TEXMAP FALLBACK\n" +
		tri +
		"0 !TEXMAP END\n" +
		"0 !TEXMAP NEXT PLANAR 0 0 0 1 0 0 0 1 0 logo.png\n" +
		tri +
		"2 24 0 0 0 1 0 0\n"
	doc := mustParse(t, "0 T\n"+src)

	elems := doc.Pages()[0].Step(0).Elements()
	require.Len(t, elems, 3)
	start, next := elems[0].(*Texmap), elems[1].(*Texmap)
	assert.False(t, start.IsNext())
	assert.Equal(t, 1, start.Textured().Len())
	assert.Equal(t, 1, start.Fallback().Len())
	assert.True(t, next.IsNext())
	assert.Equal(t, 1, next.Textured().Len())
	assert.IsType(t, &Line{}, elems[2])

	assert.Equal(t, src, body(doc.Pages()[0], StandardFull))
}

func TestParseTexmapErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed", "0 !TEXMAP START PLANAR 0 0 0 1 0 0 0 1 0 a.png\n"},
		{"nested", "0 !TEXMAP START PLANAR 0 0 0 1 0 0 0 1 0 a.png\n0 !TEXMAP START PLANAR 0 0 0 1 0 0 0 1 0 b.png\n"},
		{"continuation outside", "0 !: 2 24 0 0 0 1 0 0\n"},
		{"end without start", "0 !TEXMAP END\n"},
		{"step inside", "0 !TEXMAP START PLANAR 0 0 0 1 0 0 0 1 0 a.png\n0 STEP\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseString(t, "0 T\n"+tt.src)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestParseGroupsAndDecorations(t *testing.T) {
	src := "0 GROUP 1 wheel\n" +
		"0 MLCAD BTG wheel 0 MLCAD HIDE 2 24 0 0 0 1 0 0\n" +
		"0 GHOST 3 16 0 0 0 1 0 0 0 1 0\n"
	doc := mustParse(t, src)
	p := doc.Pages()[0]
	assert.Empty(t, p.Title())

	elems := p.Elements()
	require.Len(t, elems, 3)
	g := elems[0].(*Group)
	l := elems[1].(*Line)
	assert.Equal(t, "wheel", l.GroupName())
	assert.False(t, l.IsVisible())
	assert.Same(t, g, l.Group())
	assert.True(t, elems[2].(*Triangle).IsGhosted())

	assert.Equal(t, src, body(p, StandardFull))
}

func TestParseInvertNext(t *testing.T) {
	doc := mustParse(t, "0 T\n"+
		"0 BFC INVERTNEXT\n"+
		"1 16 0 0 0 1 0 0 0 1 0 0 0 1 x.dat\n"+
		"0 BFC INVERTNEXT\n"+
		"3 16 0 0 0 1 0 0 0 1 0\n"+
		"0 BFC INVERTNEXT\n")

	elems := doc.Pages()[0].Elements()
	require.Len(t, elems, 4)
	assert.True(t, elems[0].(*Reference).Invert())
	assert.Equal(t, BFCInvertNext, elems[1].(*BFCFlag).Mode())
	assert.IsType(t, &Triangle{}, elems[2])
	assert.Equal(t, BFCInvertNext, elems[3].(*BFCFlag).Mode())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		target error
	}{
		{"short line", "0 T\n2 24 0 0 0\n", 2, ErrFormat},
		{"long triangle", "0 T\n\n3 16 0 0 0 1 0 0 0 1 0 9\n", 3, ErrFormat},
		{"bad number", "0 T\n2 24 0 0 x 1 0 0\n", 2, ErrFormat},
		{"unknown type", "0 T\n7 1 2 3\n", 2, ErrFormat},
		{"short reference", "1 16 0 0 0 1 0 0 0 1 0 0 0 1\n", 1, ErrFormat},
		{"rotation range", "0 T\n0 ROTSTEP 400 0 0 ABS\n", 2, ErrInvalidArgument},
		{"rotation mode", "0 T\n0 ROTSTEP 1 0 0 SIDEWAYS\n", 2, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseString(t, tt.src)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, "model.ldr", pe.Page)
			assert.ErrorIs(t, err, tt.target)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestParseDuplicatePages(t *testing.T) {
	_, err := parseString(t, "0 FILE part.dat\n0 A\n0 FILE PART.DAT\n0 B\n")
	var dup *DuplicatePageError
	require.ErrorAs(t, err, &dup)
	assert.ErrorIs(t, err, ErrDuplicatePage)
}

const cyclic = "0 FILE a.ldr\n1 16 0 0 0 1 0 0 0 1 0 0 0 1 b.ldr\n" +
	"0 FILE b.ldr\n1 16 0 0 0 1 0 0 0 1 0 0 0 1 a.ldr\n"

func TestParseCircularReference(t *testing.T) {
	_, err := parseString(t, cyclic)
	var cre *CircularReferenceError
	require.ErrorAs(t, err, &cre)
	assert.Equal(t, []string{"a.ldr", "b.ldr", "a.ldr"}, cre.Chain)
	assert.ErrorIs(t, err, ErrCircularReference)

	_, err = parseString(t, "0 FILE a.ldr\n1 16 0 0 0 1 0 0 0 1 0 0 0 1 A.LDR\n")
	assert.ErrorIs(t, err, ErrCircularReference)
}

func TestParseWithoutValidation(t *testing.T) {
	doc := mustParse(t, cyclic, WithoutValidation())
	assert.Equal(t, 2, doc.PageCount())
}

func TestParseProgress(t *testing.T) {
	var got []int
	mustParse(t, multiPage, WithProgress(func(name string, progress int) bool {
		assert.Equal(t, "model.ldr", name)
		got = append(got, progress)
		return true
	}))
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, -1, got[0])
	assert.Equal(t, 100, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
}

func TestParseProgressStartsBeforeFirstLine(t *testing.T) {
	var got []int
	_, err := Parse(nil, strings.NewReader("2 24 0 0 0 1 0 0\n"), "x.dat", WithProgress(func(name string, progress int) bool {
		assert.Equal(t, "x.dat", name)
		got = append(got, progress)
		return true
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 100}, got)

	got = nil
	_, err = Parse(nil, strings.NewReader("2 24 0 0 0 1 0 0\n"), "x.dat", WithProgress(func(_ string, progress int) bool {
		got = append(got, progress)
		return false
	}))
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []int{-1}, got)
}

func TestParseCancelled(t *testing.T) {
	_, err := parseString(t, multiPage, WithProgress(func(_ string, progress int) bool {
		return progress < 0
	}))
	assert.ErrorIs(t, err, ErrCancelled)
}

const redirected = "0 FILE main.ldr\n" +
	"1 4 0 0 0 1 0 0 0 1 0 0 0 1 old.dat\n" +
	"0 FILE old.dat\n" +
	"0 ~Moved to new.dat\n" +
	"0 Name: old.dat\n" +
	"1 16 5 0 0 1 0 0 0 1 0 0 0 1 new.dat\n" +
	"0 FILE new.dat\n" +
	"0 New\n" +
	"0 Name: new.dat\n" +
	"2 24 0 0 0 1 0 0\n"

func TestParseFollowRedirects(t *testing.T) {
	t.Run("kept by default", func(t *testing.T) {
		doc := mustParse(t, redirected)
		r := doc.Pages()[0].References()[0]
		assert.Equal(t, "old.dat", r.TargetName())
		assert.True(t, doc.Page("old.dat").IsRedirect())
		assert.False(t, doc.Modified())
	})
	t.Run("followed", func(t *testing.T) {
		ctx := DefaultContext()
		ctx.FollowRedirects = true
		doc, err := Parse(ctx, strings.NewReader(redirected), "model.ldr")
		require.NoError(t, err)

		r := doc.Pages()[0].References()[0]
		assert.Equal(t, "new.dat", r.TargetName())
		assert.Equal(t, uint32(4), r.Colour())
		assert.Equal(t, 5.0, r.Matrix()[3])
		assert.Empty(t, r.RawText())
		assert.True(t, doc.Modified())
		assert.True(t, doc.ModifiedWithoutFile())

		doc.MarkSaved()
		assert.False(t, doc.ModifiedWithoutFile())
	})
}

func TestParseFollowStubs(t *testing.T) {
	const realPage = "0 FILE real.dat\n0 Real\n0 Name: real.dat\n2 24 0 0 0 1 0 0\n"
	stub := func(header string, invert bool, colour string) string {
		src := "0 FILE stub.dat\n" + header + "0 Name: stub.dat\n"
		if invert {
			src += "0 BFC INVERTNEXT\n"
		}
		return src + "1 " + colour + " 0 5 0 1 0 0 0 1 0 0 0 1 real.dat\n"
	}
	mainPage := func(invert bool, colour string) string {
		src := "0 FILE main.ldr\n0 Main\n"
		if invert {
			src += "0 BFC INVERTNEXT\n"
		}
		return src + "1 " + colour + " 1 0 0 1 0 0 0 1 0 0 0 1 stub.dat\n"
	}
	const (
		redirect = "0 ~Moved to real.dat\n"
		alias    = "0 Stub\n0 !LDRAW_ORG Part Alias\n"
	)

	tests := []struct {
		name       string
		src        string
		redirects  bool
		aliases    bool
		wantTarget string
		wantColour uint32
		wantInvert bool
	}{
		{"redirect followed", mainPage(false, "16") + stub(redirect, false, "4") + realPage, true, false, "real.dat", 4, false},
		{"redirect kept", mainPage(false, "16") + stub(redirect, false, "4") + realPage, false, true, "stub.dat", 16, false},
		{"alias followed", mainPage(false, "16") + stub(alias, false, "4") + realPage, false, true, "real.dat", 4, false},
		{"alias kept", mainPage(false, "16") + stub(alias, false, "4") + realPage, true, false, "stub.dat", 16, false},
		{"outer colour wins", mainPage(false, "2") + stub(alias, false, "4") + realPage, false, true, "real.dat", 2, false},
		{"inner invert", mainPage(false, "16") + stub(alias, true, "16") + realPage, false, true, "real.dat", 16, true},
		{"outer invert", mainPage(true, "16") + stub(redirect, false, "16") + realPage, true, false, "real.dat", 16, true},
		{"both invert", mainPage(true, "16") + stub(redirect, true, "16") + realPage, true, false, "real.dat", 16, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := DefaultContext()
			ctx.FollowRedirects, ctx.FollowAliases = tt.redirects, tt.aliases
			doc, err := Parse(ctx, strings.NewReader(tt.src), "main.ldr")
			require.NoError(t, err)

			r := doc.Page("main.ldr").References()[0]
			assert.Equal(t, tt.wantTarget, r.TargetName())
			assert.Equal(t, tt.wantColour, r.Colour())
			assert.Equal(t, tt.wantInvert, r.Invert())
			followed := tt.wantTarget == "real.dat"
			assert.Equal(t, followed, doc.Modified())
			assert.Equal(t, followed, doc.ModifiedWithoutFile())
			if followed {
				m := r.Matrix()
				assert.Equal(t, [2]float64{1, 5}, [2]float64{m[3], m[7]})
				assert.Same(t, doc.Page("real.dat"), r.CachedTarget())
			}
		})
	}
}

func TestParseRedirectLoop(t *testing.T) {
	ctx := DefaultContext()
	ctx.FollowRedirects = true
	resolver := MapResolver{}
	for _, pair := range [][2]string{{"a.dat", "b.dat"}, {"b.dat", "a.dat"}} {
		ref, err := NewReference(MainColour, geom.Identity(), pair[1])
		require.NoError(t, err)
		p := newTestPage(t, pair[0], ref)
		require.NoError(t, p.SetTitle("~Moved to "+pair[1]))
		resolver.Add(p)
	}
	ctx.Resolver = resolver

	_, err := Parse(ctx, strings.NewReader("0 Main\n1 16 0 0 0 1 0 0 0 1 0 0 0 1 a.dat\n"), "main.ldr")
	assert.ErrorIs(t, err, ErrCircularReference)
	var cerr *CircularReferenceError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"b.dat", "a.dat"}, cerr.Chain)
}

func TestParseLegacyPrefix(t *testing.T) {
	doc := mustParse(t, "0 FILE main.ldr\n"+
		"1 16 0 0 0 1 0 0 0 1 0 0 0 1 s\\sub.dat\n"+
		"0 FILE sub.dat\n"+
		"2 24 0 0 0 1 0 0\n")

	r := doc.Pages()[0].References()[0]
	assert.Equal(t, "sub.dat", r.TargetName())
	assert.Same(t, doc.Page("sub.dat"), r.CachedTarget())
	assert.True(t, doc.ModifiedWithoutFile())
}

func TestParseRenamesToDeclaredName(t *testing.T) {
	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	defer SetLogger(nil)

	doc := mustParse(t, "0 FILE model.ldr\n"+
		"1 16 0 0 0 1 0 0 0 1 0 0 0 1 wrong.ldr\n"+
		"0 FILE wrong.ldr\n"+
		"0 Part\n"+
		"0 Name: right.ldr\n")

	assert.Nil(t, doc.Page("wrong.ldr"))
	p := doc.Page("right.ldr")
	require.NotNil(t, p)
	assert.Equal(t, "right.ldr", doc.Pages()[0].References()[0].TargetName())
	assert.True(t, doc.ModifiedWithoutFile())
	assert.Contains(t, logs.String(), "page renamed")
}

func TestParseUnresolvedReferenceIsKept(t *testing.T) {
	doc := mustParse(t, "1 16 0 0 0 1 0 0 0 1 0 0 0 1 missing.dat\n")
	r := doc.Pages()[0].References()[0]
	assert.Equal(t, "missing.dat", r.TargetName())
	_, err := r.Target(nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, doc.Modified())
}

func TestParseRegisteredMeta(t *testing.T) {
	ctx := DefaultContext()
	ctx.Registry.RegisterMeta(regexp.MustCompile(`^!CUSTOM\b`), func(_ *Context, text string) (Element, error) {
		return NewMetaCommand(strings.ToLower(text)), nil
	})
	doc, err := Parse(ctx, strings.NewReader("0 T\n0 !CUSTOM Thing\n"), "model.ldr")
	require.NoError(t, err)
	elems := doc.Pages()[0].Elements()
	require.Len(t, elems, 1)
	assert.Equal(t, "!custom thing", elems[0].(*MetaCommand).Text())
}

func TestParseRegisteredMetaDeclined(t *testing.T) {
	ctx := DefaultContext()
	ctx.Registry.RegisterMeta(regexp.MustCompile(`^(!SKIP|NOTE)\b`), func(*Context, string) (Element, error) {
		return nil, nil
	})
	doc, err := Parse(ctx, strings.NewReader("0 T\n0 !SKIP me\n0 NOTE kept\n"), "model.ldr")
	require.NoError(t, err)
	elems := doc.Pages()[0].Elements()
	require.Len(t, elems, 2)
	assert.Equal(t, "!SKIP me", elems[0].(*MetaCommand).Text())
	assert.Equal(t, "NOTE kept", elems[1].(*Comment).Text())

	out := body(doc.Pages()[0], StandardFull)
	assert.Contains(t, out, "0 !SKIP me\n")
	assert.Contains(t, out, "0 NOTE kept\n")
}

func TestParseElement(t *testing.T) {
	e, err := ParseElement(nil, "  4 16 0 0 0 1 0 0 1 1 0 0 1 0  ")
	require.NoError(t, err)
	assert.IsType(t, &Quadrilateral{}, e)

	e, err = ParseElement(nil, "5 24 0 0 0 1 0 0 0 1 0 0 -1 0")
	require.NoError(t, err)
	assert.IsType(t, &OptionalLine{}, e)

	_, err = ParseElement(nil, "")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ParseElement(nil, "2 24 0 0 0")
	assert.ErrorIs(t, err, ErrFormat)
}
