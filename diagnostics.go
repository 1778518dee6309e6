package ldraw

import (
	"fmt"
	"slices"
)

// Severity grades a Problem.
type Severity uint8

const (
	// SeverityInformation is worth knowing but needs no action.
	SeverityInformation Severity = iota
	// SeverityWarning should be fixed but is accepted.
	SeverityWarning
	// SeverityError makes the text unacceptable for the standard.
	SeverityError
)

var severityNames = [...]string{
	SeverityInformation: "info",
	SeverityWarning:     "warning",
	SeverityError:       "error",
}

// String returns the string representation of a Severity.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// ProblemCode identifies the kind of a Problem.
type ProblemCode string

// Problem codes reported by Analyse.
const (
	ProblemColinear        ProblemCode = "colinear"
	ProblemColocated       ProblemCode = "colocated"
	ProblemBowtie          ProblemCode = "bowtie"
	ProblemConcave         ProblemCode = "concave"
	ProblemWarped          ProblemCode = "warped"
	ProblemDuplicate       ProblemCode = "duplicate"
	ProblemInvalidColour   ProblemCode = "invalid-colour"
	ProblemInvalidName     ProblemCode = "invalid-name"
	ProblemInvalidRotation ProblemCode = "invalid-rotation"
	ProblemMissingTarget   ProblemCode = "missing-target"
	ProblemEdgeTransparent ProblemCode = "edge-transparent"
	ProblemSingularMatrix  ProblemCode = "singular-matrix"
)

// Problem is a validity issue found by Analyse. Problems are not errors:
// callers decide whether to repair, ignore or reject.
type Problem struct {
	Code     ProblemCode
	Severity Severity
	// Element is the offending element, or nil for page level problems.
	Element Element
	Message string
	// Repair fixes the problem when it can be fixed mechanically.
	Repair func() error
}

// CanRepair reports whether the problem has a repair action.
func (p Problem) CanRepair() bool { return p.Repair != nil }

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Code, p.Message)
}

// Diagnostics is a list of problems.
type Diagnostics []Problem

// Worst returns the highest severity, or SeverityInformation for an empty
// list.
func (d Diagnostics) Worst() Severity {
	worst := SeverityInformation
	for _, p := range d {
		worst = max(worst, p.Severity)
	}
	return worst
}

// HasErrors reports whether any problem is an error.
func (d Diagnostics) HasErrors() bool {
	return slices.ContainsFunc(d, func(p Problem) bool { return p.Severity == SeverityError })
}

// Filter returns the problems with the given code.
func (d Diagnostics) Filter(code ProblemCode) Diagnostics {
	var out Diagnostics
	for _, p := range d {
		if p.Code == code {
			out = append(out, p)
		}
	}
	return out
}

// RepairAll applies every repair action in order. It stops at the first
// failure.
func (d Diagnostics) RepairAll() (int, error) {
	n := 0
	for _, p := range d {
		if p.Repair == nil {
			continue
		}
		if p.Element != nil && p.Element.IsDisposed() {
			continue
		}
		if err := p.Repair(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
