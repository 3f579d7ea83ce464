// Package pipeline is the request boundary: it wires fpimage, enhance,
// skeleton, minutiae, match, fuse and identify into the four operations
// external callers see (extract, fuse, verify_k_of, identify), classifying
// every failure into spec.md's error kinds instead of returning a bare
// error across the boundary.
package pipeline

// Reason classifies why an operation did not produce an accepted result.
// The failures the pipeline detects are returned as data in the response
// envelope, never as a bare error. No recover() is installed, so a panic
// raised inside a stage is not converted into a Reason.
type Reason string

const (
	// ReasonNone means the operation completed normally.
	ReasonNone Reason = ""
	// ReasonInputShape: image is neither 354x296 nor 296x354.
	ReasonInputShape Reason = "input_shape"
	// ReasonLowQuality: fewer than MinMinutiae extracted.
	ReasonLowQuality Reason = "low_quality"
	// ReasonEmptyInput: empty probe or gallery.
	ReasonEmptyInput Reason = "empty_input"
	// ReasonInternal: an unexpected internal error, reported opaquely.
	ReasonInternal Reason = "internal"
)
