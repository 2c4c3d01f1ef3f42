// package mesh defines the drawable unit the visibility core culls: a mesh
// instance with world bounds, a material, and optional skin/morph state that
// must reach the GPU before the instance is drawn.
package mesh

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/renderer/material"
)

// meshInstanceCount is an atomic counter used to assign each instance a unique identity.
var meshInstanceCount atomic.Uint64

type meshInstanceImpl struct {
	id   uint64
	name string

	visible          bool
	visibleThisFrame bool
	castShadow       bool
	cull             bool
	transparent      bool

	worldBounds common.BoundingBox
	modelMatrix mgl32.Mat4

	mat   material.Material
	skin  *SkinInstance
	morph *MorphInstance

	// shaderVariants caches per-instance pipeline keys keyed by light feature ID,
	// mirroring the material-level cache but allowing instance overrides.
	shaderVariants map[uint32]string
}

// MeshInstance is one drawable. The visibility core partitions instances into
// opaque/transparent buckets per (layer, camera), flags them visible, and
// collects skinned or morphed instances for the GPU update pass. Draw
// submission consumes the buckets; this package never issues draws.
type MeshInstance interface {
	material.VariantHolder

	// ID returns the unique identity of this instance, stable for its lifetime.
	//
	// Returns:
	//   - uint64: the instance ID
	ID() uint64

	// Name returns the instance's debug name.
	Name() string

	// Visible returns the user-controlled visibility flag. Invisible instances
	// are skipped before any frustum test.
	Visible() bool

	// SetVisible sets the user-controlled visibility flag.
	//
	// Parameters:
	//   - visible: false to exclude the instance from every pass
	SetVisible(visible bool)

	// VisibleThisFrame returns whether any cull pass flagged this instance
	// visible since the last BeginFrame.
	VisibleThisFrame() bool

	// SetVisibleThisFrame sets the per-frame visibility flag. Owned by the
	// visibility core; reset every BeginFrame.
	//
	// Parameters:
	//   - visible: the new per-frame visibility
	SetVisibleThisFrame(visible bool)

	// CastShadow returns whether the instance renders into shadow maps.
	CastShadow() bool

	// SetCastShadow sets whether the instance renders into shadow maps.
	//
	// Parameters:
	//   - cast: true to include the instance in shadow caster lists
	SetCastShadow(cast bool)

	// CullAllowed returns whether the instance opts into frustum culling.
	// Instances with dynamic GPU-driven bounds opt out and are always drawn.
	CullAllowed() bool

	// SetCullAllowed sets whether the instance opts into frustum culling.
	//
	// Parameters:
	//   - allowed: true to frustum-cull the instance
	SetCullAllowed(allowed bool)

	// Transparent returns whether the instance sorts into the transparent bucket.
	Transparent() bool

	// SetTransparent sets the transparency bucket assignment.
	//
	// Parameters:
	//   - transparent: true for the transparent bucket
	SetTransparent(transparent bool)

	// WorldBounds returns the world-space bounding box. For skinned instances
	// this reflects the most recent CPU skin pre-pass.
	WorldBounds() common.BoundingBox

	// SetWorldBounds sets the world-space bounding box.
	//
	// Parameters:
	//   - bounds: the new bounds
	SetWorldBounds(bounds common.BoundingBox)

	// ModelMatrix returns the instance's world transform used by the per-mesh
	// uniform setters.
	ModelMatrix() mgl32.Mat4

	// SetModelMatrix sets the instance's world transform.
	//
	// Parameters:
	//   - m: the new model matrix
	SetModelMatrix(m mgl32.Mat4)

	// Material returns the instance's material, or nil.
	Material() material.Material

	// SetMaterial assigns a material, re-registering this instance as a variant
	// holder on the new material.
	//
	// Parameters:
	//   - mat: the new material, or nil to detach
	SetMaterial(mat material.Material)

	// Skin returns the skin instance, or nil for rigid meshes.
	Skin() *SkinInstance

	// SetSkin attaches a skin instance.
	//
	// Parameters:
	//   - skin: the skin instance, or nil to detach
	SetSkin(skin *SkinInstance)

	// Morph returns the morph instance, or nil.
	Morph() *MorphInstance

	// SetMorph attaches a morph instance.
	//
	// Parameters:
	//   - morph: the morph instance, or nil to detach
	SetMorph(morph *MorphInstance)

	// NeedsGPUUpdate returns whether the instance carries skin or morph state
	// that must be uploaded before it can be drawn this frame.
	NeedsGPUUpdate() bool
}

var _ MeshInstance = &meshInstanceImpl{}

// NewMeshInstance creates a new MeshInstance with the provided options applied.
// Instances default to visible, culled, shadow-casting and opaque.
//
// Parameters:
//   - opts: variadic list of MeshInstanceBuilderOption functions to configure the instance
//
// Returns:
//   - MeshInstance: the new instance
func NewMeshInstance(opts ...MeshInstanceBuilderOption) MeshInstance {
	mi := &meshInstanceImpl{
		id:             meshInstanceCount.Add(1),
		visible:        true,
		castShadow:     true,
		cull:           true,
		modelMatrix:    mgl32.Ident4(),
		shaderVariants: make(map[uint32]string),
	}
	for _, opt := range opts {
		opt(mi)
	}
	return mi
}

func (mi *meshInstanceImpl) ID() uint64   { return mi.id }
func (mi *meshInstanceImpl) Name() string { return mi.name }

func (mi *meshInstanceImpl) Visible() bool           { return mi.visible }
func (mi *meshInstanceImpl) SetVisible(visible bool) { mi.visible = visible }

func (mi *meshInstanceImpl) VisibleThisFrame() bool { return mi.visibleThisFrame }
func (mi *meshInstanceImpl) SetVisibleThisFrame(visible bool) {
	mi.visibleThisFrame = visible
}

func (mi *meshInstanceImpl) CastShadow() bool        { return mi.castShadow }
func (mi *meshInstanceImpl) SetCastShadow(cast bool) { mi.castShadow = cast }

func (mi *meshInstanceImpl) CullAllowed() bool           { return mi.cull }
func (mi *meshInstanceImpl) SetCullAllowed(allowed bool) { mi.cull = allowed }

func (mi *meshInstanceImpl) Transparent() bool { return mi.transparent }
func (mi *meshInstanceImpl) SetTransparent(transparent bool) {
	mi.transparent = transparent
}

func (mi *meshInstanceImpl) WorldBounds() common.BoundingBox { return mi.worldBounds }
func (mi *meshInstanceImpl) SetWorldBounds(bounds common.BoundingBox) {
	mi.worldBounds = bounds
}

func (mi *meshInstanceImpl) ModelMatrix() mgl32.Mat4     { return mi.modelMatrix }
func (mi *meshInstanceImpl) SetModelMatrix(m mgl32.Mat4) { mi.modelMatrix = m }

func (mi *meshInstanceImpl) Material() material.Material { return mi.mat }

func (mi *meshInstanceImpl) SetMaterial(mat material.Material) {
	if mi.mat == mat {
		return
	}
	if mi.mat != nil {
		mi.mat.RemoveVariantHolder(mi)
	}
	mi.mat = mat
	if mat != nil {
		mat.AddVariantHolder(mi)
	}
	mi.ClearShaderVariants()
}

func (mi *meshInstanceImpl) Skin() *SkinInstance        { return mi.skin }
func (mi *meshInstanceImpl) SetSkin(skin *SkinInstance) { mi.skin = skin }

func (mi *meshInstanceImpl) Morph() *MorphInstance         { return mi.morph }
func (mi *meshInstanceImpl) SetMorph(morph *MorphInstance) { mi.morph = morph }

func (mi *meshInstanceImpl) NeedsGPUUpdate() bool {
	return mi.skin != nil || mi.morph != nil
}

func (mi *meshInstanceImpl) ClearShaderVariants() {
	clear(mi.shaderVariants)
}
