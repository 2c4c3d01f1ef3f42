package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive values are on the normal's side of the plane.
//
// Parameters:
//   - point: the world-space point to test
//
// Returns:
//   - float32: the signed distance
func (p Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row.

	// Left plane: row3 + row0
	f.Planes[FrustumLeft].Normal = mgl32.Vec3{viewProj[3] + viewProj[0], viewProj[7] + viewProj[4], viewProj[11] + viewProj[8]}
	f.Planes[FrustumLeft].Distance = viewProj[15] + viewProj[12]

	// Right plane: row3 - row0
	f.Planes[FrustumRight].Normal = mgl32.Vec3{viewProj[3] - viewProj[0], viewProj[7] - viewProj[4], viewProj[11] - viewProj[8]}
	f.Planes[FrustumRight].Distance = viewProj[15] - viewProj[12]

	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom].Normal = mgl32.Vec3{viewProj[3] + viewProj[1], viewProj[7] + viewProj[5], viewProj[11] + viewProj[9]}
	f.Planes[FrustumBottom].Distance = viewProj[15] + viewProj[13]

	// Top plane: row3 - row1
	f.Planes[FrustumTop].Normal = mgl32.Vec3{viewProj[3] - viewProj[1], viewProj[7] - viewProj[5], viewProj[11] - viewProj[9]}
	f.Planes[FrustumTop].Distance = viewProj[15] - viewProj[13]

	// Near plane: row3 + row2
	f.Planes[FrustumNear].Normal = mgl32.Vec3{viewProj[3] + viewProj[2], viewProj[7] + viewProj[6], viewProj[11] + viewProj[10]}
	f.Planes[FrustumNear].Distance = viewProj[15] + viewProj[14]

	// Far plane: row3 - row2
	f.Planes[FrustumFar].Normal = mgl32.Vec3{viewProj[3] - viewProj[2], viewProj[7] - viewProj[6], viewProj[11] - viewProj[10]}
	f.Planes[FrustumFar].Distance = viewProj[15] - viewProj[14]

	// Normalize all planes
	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// ContainsSphere tests whether a bounding sphere is at least partially inside the frustum.
//
// Parameters:
//   - sphere: the bounding sphere to test
//
// Returns:
//   - bool: true if the sphere intersects or is contained by the frustum
func (f *Frustum) ContainsSphere(sphere BoundingSphere) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(sphere.Center) < -sphere.Radius {
			return false
		}
	}
	return true
}

// ContainsBox tests whether an axis-aligned bounding box is at least partially
// inside the frustum. Uses the p-vertex test: the box is rejected only if its
// most-positive corner along a plane's normal is behind that plane.
//
// Parameters:
//   - box: the bounding box to test
//
// Returns:
//   - bool: true if the box intersects or is contained by the frustum
func (f *Frustum) ContainsBox(box BoundingBox) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		r := box.HalfExtents[0]*abs32(p.Normal[0]) +
			box.HalfExtents[1]*abs32(p.Normal[1]) +
			box.HalfExtents[2]*abs32(p.Normal[2])
		if p.DistanceToPoint(box.Center) < -r {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
