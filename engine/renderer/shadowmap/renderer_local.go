package shadowmap

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
)

// shadowBiasMatrix remaps clip space xy from [-1, 1] to [0, 1] so the shadow
// matrix lands directly in shadow map UV space.
var shadowBiasMatrix = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 1, 0,
	0.5, 0.5, 0, 1,
}

// depthZeroToOne remaps clip z from the [-1, 1] convention the projection
// math emits to the [0, 1] range WebGPU depth attachments store.
var depthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// shadowProjectionBias returns the clip-to-UV matrix for the device's depth
// convention.
func shadowProjectionBias(dev device.Device) mgl32.Mat4 {
	if dev.Backend() == device.BackendTypeWGPU {
		return shadowBiasMatrix.Mul4(depthZeroToOne)
	}
	return shadowBiasMatrix
}

// RendererLocal prepares shadow renders for omni and spot lights: it assigns
// the shadow map texture, positions each face's shadow sub-camera, and
// gathers the face's visible caster list. One shadow render per light per
// frame is shared by every viewing camera.
type RendererLocal struct {
	dev   device.Device
	cache *Cache
	bias  mgl32.Mat4

	// CulledRenders counts the shadow views prepared since the last stats reset.
	CulledRenders int
}

// NewRendererLocal creates a local-light shadow renderer.
//
// Parameters:
//   - dev: the device shadow maps are allocated on
//   - cache: the shared shadow map cache, or nil to give each light an owned map
//
// Returns:
//   - *RendererLocal: the new renderer
func NewRendererLocal(dev device.Device, cache *Cache) *RendererLocal {
	return &RendererLocal{dev: dev, cache: cache, bias: shadowProjectionBias(dev)}
}

// CullShadowCasters prepares every shadow face of one local light: ensures a
// shadow map is assigned, syncs the face's shadow camera to the light's
// current transform, refreshes its frustum, and fills the face's caster list
// from the candidate drawables.
//
// Parameters:
//   - lt: the light whose shadow render is being prepared
//   - casters: candidate drawables from the layers containing the light
func (r *RendererLocal) CullShadowCasters(lt light.Light, casters []mesh.MeshInstance) {
	if !ensureShadowMap(r.dev, r.cache, lt) {
		return
	}

	var target device.Texture
	if sm, ok := lt.ShadowMap().(*ShadowMap); ok {
		target = sm.Texture()
	}

	faces := lt.NumShadowFaces()
	for face := 0; face < faces; face++ {
		rd := lt.GetRenderData(nil, face)
		cam := rd.ShadowCamera

		cam.SetPosition(lt.Position())
		if lt.Type() == light.TypeSpot {
			cam.SetOrientation(lt.Direction(), cam.Up())
		}
		cam.SetNearClip(lt.AttenuationEnd() / 1000)
		cam.SetFarClip(lt.AttenuationEnd())
		cam.SetRenderTarget(target)
		if lt.AtlasViewportAllocated() {
			rd.ShadowViewport = lt.AtlasViewport()
			rd.ShadowScissor = lt.AtlasViewport()
		}
		cam.UpdateFrustum()

		gatherCasters(rd, cam.Frustum(), casters)

		rd.ShadowMatrix = r.bias.Mul4(cam.ViewProjectionMatrix())
		rd.UpdateGPUView(lt)
		r.CulledRenders++
	}
}

// ResetStats clears the per-frame counters.
func (r *RendererLocal) ResetStats() {
	r.CulledRenders = 0
}

// gatherCasters refills rd.VisibleCasters with the shadow-casting drawables
// whose bounds intersect the shadow frustum.
func gatherCasters(rd *light.RenderData, frustum *common.Frustum, casters []mesh.MeshInstance) {
	rd.VisibleCasters = rd.VisibleCasters[:0]
	for _, mi := range casters {
		if !mi.CastShadow() || !mi.Visible() {
			continue
		}
		if !mi.CullAllowed() || frustum.ContainsSphere(mi.WorldBounds().Sphere()) {
			rd.VisibleCasters = append(rd.VisibleCasters, mi)
		}
	}
}
