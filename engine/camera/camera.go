package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/device"
)

// Projection identifies the projection model used by a camera.
type Projection int

const (
	// ProjectionPerspective is a standard perspective projection driven by Fov and Aspect.
	ProjectionPerspective Projection = iota

	// ProjectionOrthographic is a parallel projection driven by OrthoHeight and Aspect.
	// Used by directional shadow cameras.
	ProjectionOrthographic
)

type cameraImpl struct {
	projection Projection

	position mgl32.Vec3
	forward  mgl32.Vec3
	up       mgl32.Vec3

	fov         float32 // vertical field of view in degrees
	aspect      float32
	nearClip    float32
	farClip     float32
	orthoHeight float32

	viewport common.Rect
	scissor  common.Rect

	frustumCulling bool
	frustum        common.Frustum

	renderTarget device.Texture
}

// Camera holds projection settings, a world transform and a cached view
// frustum. The visibility core refreshes the frustum exactly once per frame
// (on the camera's first render action) and shares it across every layer the
// camera draws. Shadow sub-cameras reuse this type with their own projection
// parameters.
type Camera interface {
	// Projection returns the projection model.
	Projection() Projection

	// SetProjection sets the projection model.
	//
	// Parameters:
	//   - p: perspective or orthographic
	SetProjection(p Projection)

	// Position returns the world-space position of the camera.
	Position() mgl32.Vec3

	// SetPosition sets the world-space position of the camera.
	//
	// Parameters:
	//   - pos: the new position
	SetPosition(pos mgl32.Vec3)

	// Forward returns the normalized view direction.
	Forward() mgl32.Vec3

	// Up returns the normalized up vector.
	Up() mgl32.Vec3

	// LookAt orients the camera at its current position towards a target point.
	//
	// Parameters:
	//   - target: the world-space point to look at
	//   - up: the up reference vector (normalized internally)
	LookAt(target, up mgl32.Vec3)

	// SetOrientation sets the view direction and up vector directly.
	// Both vectors are normalized internally.
	//
	// Parameters:
	//   - forward: the new view direction
	//   - up: the new up vector
	SetOrientation(forward, up mgl32.Vec3)

	// Fov returns the vertical field of view in degrees.
	Fov() float32

	// SetFov sets the vertical field of view in degrees.
	//
	// Parameters:
	//   - fov: the field of view in degrees
	SetFov(fov float32)

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// SetAspect sets the aspect ratio.
	//
	// Parameters:
	//   - aspect: the new aspect ratio
	SetAspect(aspect float32)

	// NearClip returns the near clipping plane distance.
	NearClip() float32

	// SetNearClip sets the near clipping plane distance.
	//
	// Parameters:
	//   - near: the near plane distance
	SetNearClip(near float32)

	// FarClip returns the far clipping plane distance.
	FarClip() float32

	// SetFarClip sets the far clipping plane distance.
	//
	// Parameters:
	//   - far: the far plane distance
	SetFarClip(far float32)

	// OrthoHeight returns the orthographic half-height in world units.
	OrthoHeight() float32

	// SetOrthoHeight sets the orthographic half-height in world units.
	//
	// Parameters:
	//   - height: the new half-height
	SetOrthoHeight(height float32)

	// Viewport returns the normalized viewport rectangle.
	Viewport() common.Rect

	// SetViewport sets the normalized viewport rectangle.
	//
	// Parameters:
	//   - r: the viewport rectangle
	SetViewport(r common.Rect)

	// Scissor returns the normalized scissor rectangle.
	Scissor() common.Rect

	// SetScissor sets the normalized scissor rectangle.
	//
	// Parameters:
	//   - r: the scissor rectangle
	SetScissor(r common.Rect)

	// FrustumCulling returns whether drawables are frustum-culled for this camera.
	FrustumCulling() bool

	// SetFrustumCulling enables or disables drawable frustum culling.
	//
	// Parameters:
	//   - enabled: true to cull drawables against the frustum
	SetFrustumCulling(enabled bool)

	// ViewMatrix returns the current view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix.
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns the combined projection * view matrix.
	ViewProjectionMatrix() mgl32.Mat4

	// UpdateFrustum re-extracts the cached frustum planes from the current
	// view-projection matrix. The visibility core calls this once per frame on
	// the camera's first use; callers that move a camera mid-frame own the
	// consequences.
	UpdateFrustum()

	// Frustum returns the cached view frustum. Valid after UpdateFrustum.
	Frustum() *common.Frustum

	// ScreenSize estimates the projected screen-space size of a bounding sphere
	// as a fraction of the viewport height, clamped to [0, 1]. Drives shadow
	// resolution selection.
	//
	// Parameters:
	//   - sphere: the bounding sphere to project
	//
	// Returns:
	//   - float32: the projected size fraction in [0, 1]
	ScreenSize(sphere common.BoundingSphere) float32

	// RenderTarget returns the texture this camera renders into, or nil for the
	// default backbuffer. Shadow cameras carry the shadow map texture here; a
	// nil target on a shadow camera means the shadow map has never rendered.
	RenderTarget() device.Texture

	// SetRenderTarget sets the texture this camera renders into.
	//
	// Parameters:
	//   - t: the render target texture, or nil for the backbuffer
	SetRenderTarget(t device.Texture)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a perspective camera with sensible defaults and any
// provided options applied.
//
// Parameters:
//   - opts: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: the new camera
func NewCamera(opts ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		projection:     ProjectionPerspective,
		position:       mgl32.Vec3{0, 0, 0},
		forward:        mgl32.Vec3{0, 0, -1},
		up:             mgl32.Vec3{0, 1, 0},
		fov:            45,
		aspect:         16.0 / 9.0,
		nearClip:       0.1,
		farClip:        1000,
		orthoHeight:    10,
		viewport:       common.Rect{X: 0, Y: 0, Width: 1, Height: 1},
		scissor:        common.Rect{X: 0, Y: 0, Width: 1, Height: 1},
		frustumCulling: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *cameraImpl) Projection() Projection     { return c.projection }
func (c *cameraImpl) SetProjection(p Projection) { c.projection = p }

func (c *cameraImpl) Position() mgl32.Vec3       { return c.position }
func (c *cameraImpl) SetPosition(pos mgl32.Vec3) { c.position = pos }

func (c *cameraImpl) Forward() mgl32.Vec3 { return c.forward }
func (c *cameraImpl) Up() mgl32.Vec3      { return c.up }

func (c *cameraImpl) LookAt(target, up mgl32.Vec3) {
	dir := target.Sub(c.position)
	if dir.Len() == 0 {
		return
	}
	c.SetOrientation(dir, up)
}

func (c *cameraImpl) SetOrientation(forward, up mgl32.Vec3) {
	if forward.Len() > 0 {
		c.forward = forward.Normalize()
	}
	if up.Len() > 0 {
		c.up = up.Normalize()
	}
}

func (c *cameraImpl) Fov() float32          { return c.fov }
func (c *cameraImpl) SetFov(fov float32)    { c.fov = fov }
func (c *cameraImpl) Aspect() float32       { return c.aspect }
func (c *cameraImpl) SetAspect(a float32)   { c.aspect = a }
func (c *cameraImpl) NearClip() float32     { return c.nearClip }
func (c *cameraImpl) SetNearClip(n float32) { c.nearClip = n }
func (c *cameraImpl) FarClip() float32      { return c.farClip }
func (c *cameraImpl) SetFarClip(f float32)  { c.farClip = f }

func (c *cameraImpl) OrthoHeight() float32     { return c.orthoHeight }
func (c *cameraImpl) SetOrthoHeight(h float32) { c.orthoHeight = h }

func (c *cameraImpl) Viewport() common.Rect     { return c.viewport }
func (c *cameraImpl) SetViewport(r common.Rect) { c.viewport = r }
func (c *cameraImpl) Scissor() common.Rect      { return c.scissor }
func (c *cameraImpl) SetScissor(r common.Rect)  { c.scissor = r }

func (c *cameraImpl) FrustumCulling() bool           { return c.frustumCulling }
func (c *cameraImpl) SetFrustumCulling(enabled bool) { c.frustumCulling = enabled }

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.forward), c.up)
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	if c.projection == ProjectionOrthographic {
		h := c.orthoHeight
		w := h * c.aspect
		return mgl32.Ortho(-w, w, -h, h, c.nearClip, c.farClip)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.nearClip, c.farClip)
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

func (c *cameraImpl) UpdateFrustum() {
	c.frustum = common.ExtractFrustumFromMatrix(c.ViewProjectionMatrix())
}

func (c *cameraImpl) Frustum() *common.Frustum {
	return &c.frustum
}

func (c *cameraImpl) ScreenSize(sphere common.BoundingSphere) float32 {
	if c.projection == ProjectionPerspective {
		distance := c.position.Sub(sphere.Center).Len()
		if distance < sphere.Radius {
			return 1
		}
		viewAngle := float64(mgl32.DegToRad(c.fov)) * 0.5
		sphereViewHeight := sphere.Radius / distance
		screenViewHeight := float32(math.Tan(viewAngle))
		return common.Clamp(sphereViewHeight/screenViewHeight, 0, 1)
	}
	return common.Clamp(sphere.Radius/c.orthoHeight, 0, 1)
}

func (c *cameraImpl) RenderTarget() device.Texture     { return c.renderTarget }
func (c *cameraImpl) SetRenderTarget(t device.Texture) { c.renderTarget = t }
