package components

import "gonum.org/v1/gonum/spatial/r2"

// Space is the bounding rectangle agents move in.
// Min is the top-left corner and Max the bottom-right (y grows downward).
type Space struct {
	r2.Box
}

// NewSpace creates a space from its top-left corner and size.
func NewSpace(left, top, width, height float64) Space {
	return Space{Box: r2.Box{
		Min: r2.Vec{X: left, Y: top},
		Max: r2.Vec{X: left + width, Y: top + height},
	}}
}

// Left returns the minimum x coordinate.
func (s Space) Left() float64 { return s.Min.X }

// Right returns the maximum x coordinate.
func (s Space) Right() float64 { return s.Max.X }

// Top returns the minimum y coordinate.
func (s Space) Top() float64 { return s.Min.Y }

// Bottom returns the maximum y coordinate.
func (s Space) Bottom() float64 { return s.Max.Y }

// Width returns the horizontal extent.
func (s Space) Width() float64 { return s.Max.X - s.Min.X }

// Height returns the vertical extent.
func (s Space) Height() float64 { return s.Max.Y - s.Min.Y }

// Center returns the midpoint of the rectangle.
func (s Space) Center() r2.Vec {
	return r2.Vec{X: (s.Min.X + s.Max.X) / 2, Y: (s.Min.Y + s.Max.Y) / 2}
}
