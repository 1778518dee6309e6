package ldraw

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ldraw/geom"
)

func TestDiagnostics(t *testing.T) {
	d := Diagnostics{
		{Code: ProblemConcave, Severity: SeverityInformation},
		{Code: ProblemWarped, Severity: SeverityWarning},
		{Code: ProblemWarped, Severity: SeverityInformation},
	}
	assert.Equal(t, SeverityWarning, d.Worst())
	assert.False(t, d.HasErrors())
	assert.Len(t, d.Filter(ProblemWarped), 2)
	assert.Empty(t, d.Filter(ProblemBowtie))

	d = append(d, Problem{Code: ProblemBowtie, Severity: SeverityError})
	assert.True(t, d.HasErrors())
	assert.Equal(t, SeverityInformation, Diagnostics(nil).Worst())
	assert.Equal(t, "error: bowtie: x", Problem{Code: ProblemBowtie, Severity: SeverityError, Message: "x"}.String())
}

func TestDiagnosticsRepairAll(t *testing.T) {
	gone := line(0)
	gone.Dispose()
	calls := 0
	d := Diagnostics{
		{Code: ProblemDuplicate},
		{Code: ProblemDuplicate, Element: gone, Repair: func() error { calls++; return nil }},
		{Code: ProblemBowtie, Repair: func() error { calls++; return nil }},
	}
	n, err := d.RepairAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	d = Diagnostics{
		{Repair: func() error { return nil }},
		{Repair: func() error { return boom }},
		{Repair: func() error { calls++; return nil }},
	}
	n, err = d.RepairAll()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
}

func TestPageAnalyseHeader(t *testing.T) {
	p := newTestPage(t, "part.dat")
	assert.Equal(t, []ProblemCode{ProblemInvalidName}, codes(p.Analyse(nil, StandardPartsLibrary)))
	assert.Empty(t, p.Analyse(nil, StandardFull))

	require.NoError(t, p.SetTitle("Part"))
	require.NoError(t, p.SetAuthor("Me"))
	assert.Empty(t, p.Analyse(nil, StandardPartsLibrary))
}

func TestReferenceAnalyse(t *testing.T) {
	ctx := DefaultContext()
	r, err := NewReference(999, geom.Scale(0, 1, 1), "missing.dat")
	require.NoError(t, err)
	newTestPage(t, "model.ldr", r)

	tests := []struct {
		std  Standard
		want map[ProblemCode]Severity
	}{
		{StandardFull, map[ProblemCode]Severity{
			ProblemInvalidColour:  SeverityWarning,
			ProblemMissingTarget:  SeverityWarning,
			ProblemSingularMatrix: SeverityWarning,
		}},
		{StandardPartsLibrary, map[ProblemCode]Severity{
			ProblemInvalidColour:  SeverityError,
			ProblemMissingTarget:  SeverityError,
			ProblemSingularMatrix: SeverityWarning,
		}},
	}
	for _, tt := range tests {
		got := make(map[ProblemCode]Severity)
		for _, p := range r.Analyse(ctx, tt.std) {
			got[p.Code] = p.Severity
			assert.Same(t, r, p.Element)
		}
		assert.Equal(t, tt.want, got, tt.std.String())
	}

	ctx.Resolver = MapResolver{}
	target := newTestPage(t, "missing.dat")
	ctx.Resolver.(MapResolver).Add(target)
	require.NoError(t, r.SetColour(4))
	require.NoError(t, r.SetMatrix(geom.Identity()))
	assert.Empty(t, r.Analyse(ctx, StandardPartsLibrary))
}

func TestStepAnalyseAccumulatedRotation(t *testing.T) {
	p := newTestPage(t, "model.ldr")
	require.NoError(t, p.Step(0).SetRotation(StepRelative, 300, 0, 0))
	s1 := NewStep()
	require.NoError(t, s1.SetRotation(StepAdditive, 100, 0, 0))
	require.NoError(t, p.AddStep(s1))

	assert.Empty(t, p.Step(0).Analyse(nil, StandardFull))
	assert.Equal(t, []ProblemCode{ProblemInvalidRotation}, codes(s1.Analyse(nil, StandardFull)))
}
