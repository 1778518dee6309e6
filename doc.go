// Package ldraw provides a document object model for the LDraw text format.
//
// # Overview
//
// An LDraw file is a line-oriented description of a model built from flat
// primitives (lines, triangles, quadrilaterals, optional lines), references
// to other files, colour definitions and meta-commands. This package parses
// such files into a tree, lets callers edit the tree under consistency rules,
// analyses it for geometric and semantic problems and writes it back out.
//
// # Quick Start
//
//	ctx := ldraw.DefaultContext()
//
//	doc, err := ldraw.Open(ctx, "3001.dat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, p := range doc.Analyse(ctx, ldraw.StandardPartsLibrary) {
//	    fmt.Println(p)
//	}
//
//	fmt.Print(doc.Code(ctx, ldraw.StandardFull))
//
// # Tree Structure
//
//	Document
//	  └─ Page        one file (or one 0 FILE section of an MPD)
//	       └─ Step   elements between STEP markers
//	            └─ Element (Comment, Colour, BFCFlag, Group, Texmap,
//	                        Reference, Line, Triangle, Quadrilateral,
//	                        OptionalLine, MetaCommand)
//
// Texmap elements own nested collections, so the scope chain used by
// colour and winding resolution branches: a lookup walks backwards through
// earlier siblings, then out to the owning collection, then into earlier
// steps of the same page.
//
// # Consistency Rules
//
// Every node can be disposed, frozen (immutable forever) or locked
// (immutable while the lock is set on it or on any ancestor). Mutating
// methods return ErrDisposed, ErrFrozen or ErrLocked instead of changing
// state. Collections additionally ask each element whether it may be placed
// there; see Element.CanInsertInto.
//
// # Output Standards
//
// Documents are written under one of three standards: StandardFull keeps
// everything, StandardPartsLibrary produces library submission files with
// back-face-culling statements folded into vertex order, and
// StandardRepository rewrites local colours as direct colours.
//
// # Concurrency
//
// The tree is not safe for concurrent use. Change notifications are
// delivered synchronously on the mutating goroutine.
package ldraw
