package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/renderer/material"
)

// MeshInstanceBuilderOption is a function that configures a MeshInstance during construction.
type MeshInstanceBuilderOption func(*meshInstanceImpl)

// WithName is an option builder that sets the instance's debug name.
//
// Parameters:
//   - name: the instance name
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the name option to an instance
func WithName(name string) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.name = name
	}
}

// WithWorldBounds is an option builder that sets the world-space bounding box.
//
// Parameters:
//   - bounds: the world-space bounds
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the bounds option to an instance
func WithWorldBounds(bounds common.BoundingBox) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.worldBounds = bounds
	}
}

// WithModelMatrix is an option builder that sets the world transform.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the transform option to an instance
func WithModelMatrix(m mgl32.Mat4) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.modelMatrix = m
	}
}

// WithMaterial is an option builder that assigns a material and registers the
// instance as one of the material's variant holders.
//
// Parameters:
//   - mat: the material to assign
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the material option to an instance
func WithMaterial(mat material.Material) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.mat = mat
		if mat != nil {
			mat.AddVariantHolder(mi)
		}
	}
}

// WithTransparent is an option builder that assigns the transparency bucket.
//
// Parameters:
//   - transparent: true for the transparent bucket
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the bucket option to an instance
func WithTransparent(transparent bool) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.transparent = transparent
	}
}

// WithCastShadow is an option builder that sets shadow caster eligibility.
//
// Parameters:
//   - cast: true to include the instance in shadow caster lists
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the shadow option to an instance
func WithCastShadow(cast bool) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.castShadow = cast
	}
}

// WithCullAllowed is an option builder that sets frustum-culling opt-in.
//
// Parameters:
//   - allowed: true to frustum-cull the instance
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the culling option to an instance
func WithCullAllowed(allowed bool) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.cull = allowed
	}
}

// WithSkin is an option builder that attaches a skin instance.
//
// Parameters:
//   - skin: the skin instance
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the skin option to an instance
func WithSkin(skin *SkinInstance) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.skin = skin
	}
}

// WithMorph is an option builder that attaches a morph instance.
//
// Parameters:
//   - morph: the morph instance
//
// Returns:
//   - MeshInstanceBuilderOption: a function that applies the morph option to an instance
func WithMorph(morph *MorphInstance) MeshInstanceBuilderOption {
	return func(mi *meshInstanceImpl) {
		mi.morph = morph
	}
}
