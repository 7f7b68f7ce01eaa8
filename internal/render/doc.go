// Package render draws a road network and the traversal state on a Device.
//
// Everything in this package runs on the goroutine that owns the drawing
// context. Buffers are created once from the immutable graph; only the
// per-node color buffer changes between frames.
package render
