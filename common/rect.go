package common

// Rect is a normalized rectangle used for viewports, scissors and atlas slots.
// Coordinates are expressed as fractions of the target surface in [0, 1] unless
// a caller documents otherwise.
type Rect struct {
	// X is the left edge of the rectangle.
	X float32
	// Y is the bottom edge of the rectangle.
	Y float32
	// Width is the horizontal extent of the rectangle.
	Width float32
	// Height is the vertical extent of the rectangle.
	Height float32
}

// Equals reports whether two rectangles are exactly equal.
//
// Parameters:
//   - other: the rectangle to compare against
//
// Returns:
//   - bool: true if all four components are equal
func (r Rect) Equals(other Rect) bool {
	return r == other
}

// Scaled returns a copy of the rectangle with all components multiplied by s.
//
// Parameters:
//   - s: the scale factor
//
// Returns:
//   - Rect: the scaled rectangle
func (r Rect) Scaled(s float32) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, Width: r.Width * s, Height: r.Height * s}
}
