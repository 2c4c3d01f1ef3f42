package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Comparator orders two mesh instances for draw submission. Returns a negative
// value if a draws before b, positive if after, zero if equal. The visibility
// core only exposes comparators; sorting itself happens in the submission stage.
type Comparator func(a, b MeshInstance) int

// CompareFrontToBack returns a comparator ordering opaque instances nearest
// first, which maximizes early-z rejection.
//
// Parameters:
//   - cameraPos: the world-space camera position to measure from
//
// Returns:
//   - Comparator: the front-to-back comparator
func CompareFrontToBack(cameraPos mgl32.Vec3) Comparator {
	return func(a, b MeshInstance) int {
		da := cameraPos.Sub(a.WorldBounds().Center).LenSqr()
		db := cameraPos.Sub(b.WorldBounds().Center).LenSqr()
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	}
}

// CompareBackToFront returns a comparator ordering transparent instances
// farthest first, required for correct alpha blending.
//
// Parameters:
//   - cameraPos: the world-space camera position to measure from
//
// Returns:
//   - Comparator: the back-to-front comparator
func CompareBackToFront(cameraPos mgl32.Vec3) Comparator {
	frontToBack := CompareFrontToBack(cameraPos)
	return func(a, b MeshInstance) int {
		return -frontToBack(a, b)
	}
}

// CompareByMaterial returns a comparator grouping instances by material
// identity to minimize pipeline switches. Instances without a material sort first.
//
// Returns:
//   - Comparator: the material-grouping comparator
func CompareByMaterial() Comparator {
	return func(a, b MeshInstance) int {
		var ida, idb uint64
		if m := a.Material(); m != nil {
			ida = m.ID()
		}
		if m := b.Material(); m != nil {
			idb = m.ID()
		}
		switch {
		case ida < idb:
			return -1
		case ida > idb:
			return 1
		default:
			return 0
		}
	}
}
