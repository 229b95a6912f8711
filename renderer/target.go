// Package renderer provides draw targets the simulation renders into.
package renderer

import "image/color"

// Target is the minimal set of draw primitives the simulation needs.
// Coordinates are in world units; each backend maps them to its surface.
type Target interface {
	SetDrawColor(c color.RGBA)
	DrawPoint(x, y float64)
	DrawLine(x0, y0, x1, y1 float64)
}

// Op is one recorded draw call.
type Op struct {
	Kind   string // "point" or "line"
	Color  color.RGBA
	X0, Y0 float64
	X1, Y1 float64
}

// Recorder is a Target that keeps every call in memory. Used by headless
// runs and tests that need to inspect what was drawn.
type Recorder struct {
	Ops   []Op
	color color.RGBA
}

// SetDrawColor sets the color for subsequent calls.
func (r *Recorder) SetDrawColor(c color.RGBA) {
	r.color = c
}

// DrawPoint records a point.
func (r *Recorder) DrawPoint(x, y float64) {
	r.Ops = append(r.Ops, Op{Kind: "point", Color: r.color, X0: x, Y0: y, X1: x, Y1: y})
}

// DrawLine records a line segment.
func (r *Recorder) DrawLine(x0, y0, x1, y1 float64) {
	r.Ops = append(r.Ops, Op{Kind: "line", Color: r.color, X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// Count returns the number of recorded ops of the given kind.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops all recorded ops.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}
