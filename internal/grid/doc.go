// Package grid holds the immutable raster model consumed by the tracer: a
// D8 flow-direction layer and a hazard/terminal classification layer that
// share the same dimensions, plus the affine transform that ties array
// indices to external coordinates.
//
// A Grid only answers single-cell lookups. It is safe to share between
// goroutines because nothing mutates it after New returns.
package grid
