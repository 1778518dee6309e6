package ldraw

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for ldraw package.
var (
	// ErrStateViolation is matched by every error caused by touching a node
	// that is disposed, frozen or locked.
	ErrStateViolation = errors.New("ldraw: state violation")

	// ErrDisposed is returned when a disposed node is used.
	ErrDisposed = fmt.Errorf("%w: node is disposed", ErrStateViolation)

	// ErrFrozen is returned when a frozen node would be modified.
	ErrFrozen = fmt.Errorf("%w: node is frozen", ErrStateViolation)

	// ErrLocked is returned when a locked node would be modified.
	ErrLocked = fmt.Errorf("%w: node is locked", ErrStateViolation)

	// ErrInvalidArgument is returned for nil, out-of-range or malformed
	// arguments.
	ErrInvalidArgument = errors.New("ldraw: invalid argument")

	// ErrFormat is returned when text cannot be parsed.
	ErrFormat = errors.New("ldraw: format violation")

	// ErrDuplicatePage is returned when two pages share a target name.
	ErrDuplicatePage = errors.New("ldraw: duplicate page name")

	// ErrCircularReference is returned when a page references itself,
	// directly or through other pages.
	ErrCircularReference = errors.New("ldraw: circular reference")

	// ErrCancelled is returned when a progress callback asks to stop.
	ErrCancelled = errors.New("ldraw: cancelled")

	// ErrNotFound is returned by resolvers when a target does not exist.
	ErrNotFound = errors.New("ldraw: target not found")

	errLineBreak = fmt.Errorf("%w: text contains a line break", ErrInvalidArgument)
)

// ParseError reports a line that could not be parsed.
type ParseError struct {
	Page string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ldraw: %s:%d: %v: %q", e.Page, e.Line, e.Err, e.Text)
}

// Unwrap returns ErrFormat so that errors.Is(err, ErrFormat) holds.
func (e *ParseError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

// DuplicatePageError is returned when two pages share a target name.
type DuplicatePageError struct {
	Name string
}

func (e *DuplicatePageError) Error() string {
	return fmt.Sprintf("ldraw: duplicate page name %q", e.Name)
}

func (e *DuplicatePageError) Unwrap() error { return ErrDuplicatePage }

// CircularReferenceError lists the pages that form a reference cycle.
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return "ldraw: circular reference: " + strings.Join(e.Chain, " -> ")
}

func (e *CircularReferenceError) Unwrap() error { return ErrCircularReference }

// InsertError is returned when an element refuses to be placed in a
// collection.
type InsertError struct {
	Kind  ElementKind
	Check InsertCheck
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("ldraw: cannot insert %s: %s", e.Kind, e.Check)
}

// Unwrap maps the refusal onto the matching sentinel.
func (e *InsertError) Unwrap() error {
	if e.Check == InsertCircularReference {
		return ErrCircularReference
	}
	return ErrInvalidArgument
}
