// package common contains common value types that are used throughout this engine. They are not
// interface-wrapped structs, just plain structs that express commonly used data-types.
package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BoundingSphere is a sphere in world space used for coarse visibility tests.
type BoundingSphere struct {
	// Center is the world-space center of the sphere.
	Center mgl32.Vec3
	// Radius is the sphere radius in world units.
	Radius float32
}

// BoundingBox is an axis-aligned box in world space, stored as center + half-extents.
type BoundingBox struct {
	// Center is the world-space center of the box.
	Center mgl32.Vec3
	// HalfExtents is the distance from the center to each face along each axis.
	HalfExtents mgl32.Vec3
}

// NewBoundingBoxFromMinMax builds a BoundingBox from min/max corner points.
//
// Parameters:
//   - min: the minimum corner of the box
//   - max: the maximum corner of the box
//
// Returns:
//   - BoundingBox: the resulting center/half-extents box
func NewBoundingBoxFromMinMax(min, max mgl32.Vec3) BoundingBox {
	center := min.Add(max).Mul(0.5)
	return BoundingBox{
		Center:      center,
		HalfExtents: max.Sub(center),
	}
}

// Min returns the minimum corner of the box.
//
// Returns:
//   - mgl32.Vec3: the minimum corner
func (b BoundingBox) Min() mgl32.Vec3 {
	return b.Center.Sub(b.HalfExtents)
}

// Max returns the maximum corner of the box.
//
// Returns:
//   - mgl32.Vec3: the maximum corner
func (b BoundingBox) Max() mgl32.Vec3 {
	return b.Center.Add(b.HalfExtents)
}

// Sphere returns the bounding sphere enclosing the box.
//
// Returns:
//   - BoundingSphere: a sphere centered on the box containing all eight corners
func (b BoundingBox) Sphere() BoundingSphere {
	return BoundingSphere{
		Center: b.Center,
		Radius: b.HalfExtents.Len(),
	}
}
