package shadowmap

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
)

// RendererDirectional prepares cascaded shadow renders for directional
// lights. Unlike local lights, each viewing camera gets its own cascades, so
// render data is keyed by the camera and the cull runs once per camera per
// frame.
type RendererDirectional struct {
	dev   device.Device
	cache *Cache
	bias  mgl32.Mat4

	// CulledRenders counts the cascade views prepared since the last stats reset.
	CulledRenders int
}

// NewRendererDirectional creates a directional shadow renderer.
//
// Parameters:
//   - dev: the device shadow maps are allocated on
//   - cache: the shared shadow map cache, or nil to give each light an owned map
//
// Returns:
//   - *RendererDirectional: the new renderer
func NewRendererDirectional(dev device.Device, cache *Cache) *RendererDirectional {
	return &RendererDirectional{dev: dev, cache: cache, bias: shadowProjectionBias(dev)}
}

// CullShadowCasters prepares every cascade of one directional light for one
// viewing camera: computes the cascade split distances, fits each cascade's
// orthographic sub-camera around its slice of the viewing frustum, and
// gathers the cascade's caster list.
//
// Parameters:
//   - lt: the directional light
//   - cam: the viewing camera whose frustum the cascades partition
//   - casters: candidate drawables from the layers containing the light
func (r *RendererDirectional) CullShadowCasters(lt light.Light, cam camera.Camera, casters []mesh.MeshInstance) {
	if !ensureShadowMap(r.dev, r.cache, lt) {
		return
	}

	var target device.Texture
	if sm, ok := lt.ShadowMap().(*ShadowMap); ok {
		target = sm.Texture()
	}

	count := lt.NumCascades()
	splits := cascadeSplits(cam.NearClip(), lt.ShadowDistance(), count, lt.CascadeDistribution())

	for cascade := 0; cascade < count; cascade++ {
		rd := lt.GetRenderData(cam, cascade)
		shadowCam := rd.ShadowCamera

		center, radius := frustumSliceSphere(cam, splits[cascade], splits[cascade+1])
		dir := lt.Direction()

		shadowCam.SetPosition(center.Sub(dir.Mul(radius)))
		shadowCam.SetOrientation(dir, shadowCam.Up())
		shadowCam.SetOrthoHeight(radius)
		shadowCam.SetAspect(1)
		shadowCam.SetNearClip(0)
		shadowCam.SetFarClip(2 * radius)
		shadowCam.SetRenderTarget(target)

		rd.ShadowViewport = cascadeViewport(cascade, count)
		rd.ShadowScissor = rd.ShadowViewport

		shadowCam.UpdateFrustum()
		gatherCasters(rd, shadowCam.Frustum(), casters)

		rd.ShadowMatrix = r.bias.Mul4(shadowCam.ViewProjectionMatrix())
		rd.UpdateGPUView(lt)
		r.CulledRenders++
	}
}

// ResetStats clears the per-frame counters.
func (r *RendererDirectional) ResetStats() {
	r.CulledRenders = 0
}

// cascadeSplits returns count+1 boundary distances from near to far. The
// distribution factor blends linear splits (0) towards logarithmic splits (1),
// which concentrate resolution close to the viewer.
func cascadeSplits(near, far float32, count int, distribution float32) []float32 {
	splits := make([]float32, count+1)
	splits[0] = near
	splits[count] = far
	for i := 1; i < count; i++ {
		amount := float64(i) / float64(count)
		linear := near + (far-near)*float32(amount)
		logarithmic := near * float32(math.Pow(float64(far/near), amount))
		splits[i] = linear + (logarithmic-linear)*distribution
	}
	return splits
}

// frustumSliceSphere returns the center and radius of a sphere enclosing the
// viewing camera's frustum between two view-space depths. A sphere rather
// than a tight box keeps the cascade's projected size stable as the camera
// rotates, avoiding shadow shimmer.
func frustumSliceSphere(cam camera.Camera, dNear, dFar float32) (mgl32.Vec3, float32) {
	pos := cam.Position()
	fwd := cam.Forward()
	up := cam.Up()
	right := fwd.Cross(up).Normalize()

	tanHalfFov := float32(math.Tan(float64(mgl32.DegToRad(cam.Fov())) * 0.5))
	aspect := cam.Aspect()

	corners := make([]mgl32.Vec3, 0, 8)
	for _, d := range []float32{dNear, dFar} {
		hh := tanHalfFov * d
		hw := hh * aspect
		c := pos.Add(fwd.Mul(d))
		corners = append(corners,
			c.Add(up.Mul(hh)).Add(right.Mul(hw)),
			c.Add(up.Mul(hh)).Sub(right.Mul(hw)),
			c.Sub(up.Mul(hh)).Add(right.Mul(hw)),
			c.Sub(up.Mul(hh)).Sub(right.Mul(hw)),
		)
	}

	var center mgl32.Vec3
	for _, corner := range corners {
		center = center.Add(corner)
	}
	center = center.Mul(1.0 / float32(len(corners)))

	var radius float32
	for _, corner := range corners {
		if d := corner.Sub(center).Len(); d > radius {
			radius = d
		}
	}
	return center, radius
}

// cascadeViewport returns the normalized sub-rectangle a cascade occupies in
// the shadow map. A single cascade owns the whole map; multiple cascades tile
// a 2x2 grid.
func cascadeViewport(cascade, count int) common.Rect {
	if count == 1 {
		return common.Rect{X: 0, Y: 0, Width: 1, Height: 1}
	}
	return common.Rect{
		X:      float32(cascade%2) * 0.5,
		Y:      float32(cascade/2) * 0.5,
		Width:  0.5,
		Height: 0.5,
	}
}
