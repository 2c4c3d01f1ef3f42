package light

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/mesh"
)

// ShadowViewKind discriminates the shadow camera variants.
type ShadowViewKind int

const (
	// ShadowViewDirectional is one cascade of a directional light.
	ShadowViewDirectional ShadowViewKind = iota

	// ShadowViewOmni is one cube face of an omni light.
	ShadowViewOmni

	// ShadowViewSpot is the single perspective view of a spot light.
	ShadowViewSpot
)

// ShadowView identifies one shadow render of a light: a cascade for
// directional lights, a cube face for omni lights, or the single spot view.
// All shadow camera construction branches on this variant in one place.
type ShadowView struct {
	// Kind is the variant discriminator.
	Kind ShadowViewKind
	// Cascade is the cascade index for directional views.
	Cascade int
	// Face is the cube face index for omni views.
	Face int
}

// RenderData is the per-(camera, face) cache of one shadow render: the shadow
// sub-camera, its view-projection matrix, the viewport/scissor it renders
// into, and the caster list gathered by the most recent cull that decided a
// shadow update was needed.
type RenderData struct {
	// ShadowCamera renders the shadow view. Its render target is nil until the
	// first shadow render assigns a shadow map.
	ShadowCamera camera.Camera

	// ShadowMatrix transforms world space into shadow map UV space for sampling.
	ShadowMatrix mgl32.Mat4

	// ShadowViewport is the normalized viewport inside the shadow map or atlas.
	ShadowViewport common.Rect

	// ShadowScissor is the normalized scissor inside the shadow map or atlas.
	ShadowScissor common.Rect

	// VisibleCasters holds the shadow casters from the most recent cull pass
	// that scheduled a shadow update for this view.
	VisibleCasters []mesh.MeshInstance

	// GPUView is the marshaled per-view uniform block for the shadow pass,
	// refreshed by UpdateGPUView.
	GPUView GPUShadowView

	viewingCamera camera.Camera // nil for non-directional lights
	face          int
}

// Face returns the shadow face index this render data covers.
//
// Returns:
//   - int: the face index (cascade index for directional lights)
func (rd *RenderData) Face() int {
	return rd.face
}

// ViewingCamera returns the scene camera this render data was created for.
// Nil for non-directional lights, whose shadow render is shared by all cameras.
//
// Returns:
//   - camera.Camera: the viewing camera or nil
func (rd *RenderData) ViewingCamera() camera.Camera {
	return rd.viewingCamera
}

func (rd *RenderData) destroy() {
	rd.VisibleCasters = nil
	rd.ShadowCamera = nil
}

func (l *lightImpl) GetRenderData(cam camera.Camera, face int) *RenderData {
	// A local light renders its shadow once per frame and every viewing camera
	// samples the same map, so camera identity only matters for directional
	// lights where each camera culls its own cascades.
	if l.lightType != TypeDirectional {
		cam = nil
	}

	for _, rd := range l.renderData {
		if rd.viewingCamera == cam && rd.face == face {
			return rd
		}
	}

	rd := &RenderData{
		ShadowCamera:   l.buildShadowCamera(l.shadowView(face)),
		ShadowMatrix:   mgl32.Ident4(),
		ShadowViewport: common.Rect{X: 0, Y: 0, Width: 1, Height: 1},
		ShadowScissor:  common.Rect{X: 0, Y: 0, Width: 1, Height: 1},
		viewingCamera:  cam,
		face:           face,
	}
	l.renderData = append(l.renderData, rd)
	return rd
}

func (l *lightImpl) RenderDataCount() int {
	return len(l.renderData)
}

// shadowView maps a face index onto the shadow view variant for this light type.
func (l *lightImpl) shadowView(face int) ShadowView {
	switch l.lightType {
	case TypeDirectional:
		return ShadowView{Kind: ShadowViewDirectional, Cascade: face}
	case TypeOmni:
		return ShadowView{Kind: ShadowViewOmni, Face: face}
	default:
		return ShadowView{Kind: ShadowViewSpot}
	}
}

// cubeFaceOrientations holds the forward/up vector pairs for the six cube
// faces in +X, -X, +Y, -Y, +Z, -Z order.
var cubeFaceOrientations = [6][2]mgl32.Vec3{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

// buildShadowCamera constructs the sub-camera for one shadow view. All
// type-specific shadow camera setup lives here; the shadow renderers only
// refine what this returns (cascade extents, atlas viewports).
func (l *lightImpl) buildShadowCamera(view ShadowView) camera.Camera {
	switch view.Kind {
	case ShadowViewOmni:
		fwd := cubeFaceOrientations[view.Face][0]
		up := cubeFaceOrientations[view.Face][1]
		return camera.NewCamera(
			camera.WithPosition(l.position),
			camera.WithOrientation(fwd, up),
			camera.WithPerspective(90, 1, l.attenuationEnd/1000, l.attenuationEnd),
			camera.WithFrustumCulling(true),
		)
	case ShadowViewSpot:
		return camera.NewCamera(
			camera.WithPosition(l.position),
			camera.WithOrientation(l.direction, spotUp(l.direction)),
			camera.WithPerspective(l.outerConeAngle*2, 1, l.attenuationEnd/1000, l.attenuationEnd),
			camera.WithFrustumCulling(true),
		)
	default:
		// Orthographic extents are fitted per cascade by the directional shadow
		// renderer once the viewing camera's splits are known.
		return camera.NewCamera(
			camera.WithOrientation(l.direction, spotUp(l.direction)),
			camera.WithOrthographic(1, 1, 0.1, l.shadowDistance),
			camera.WithFrustumCulling(true),
		)
	}
}

// spotUp picks an up vector not parallel to the light direction.
func spotUp(dir mgl32.Vec3) mgl32.Vec3 {
	up := mgl32.Vec3{0, 1, 0}
	if abs(dir.Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return up
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
