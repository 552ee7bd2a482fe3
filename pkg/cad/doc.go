// Package cad defines the normalized, format-independent document produced by
// the DWG import pipeline: the Entity tagged union, per-layer summaries, the
// immutable Data document, and the success/failure envelopes returned to
// callers. Nothing in this package knows how DWG files are decoded.
package cad
