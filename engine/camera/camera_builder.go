package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
)

// CameraBuilderOption is a function that configures a Camera instance during construction.
type CameraBuilderOption func(*cameraImpl)

// WithProjection is an option builder that sets the projection model.
//
// Parameters:
//   - p: perspective or orthographic
//
// Returns:
//   - CameraBuilderOption: a function that applies the projection option to a camera
func WithProjection(p Projection) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = p
	}
}

// WithPosition is an option builder that sets the world-space position.
//
// Parameters:
//   - pos: the camera position
//
// Returns:
//   - CameraBuilderOption: a function that applies the position option to a camera
func WithPosition(pos mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = pos
	}
}

// WithOrientation is an option builder that sets the view direction and up vector.
//
// Parameters:
//   - forward: the view direction (normalized internally)
//   - up: the up vector (normalized internally)
//
// Returns:
//   - CameraBuilderOption: a function that applies the orientation option to a camera
func WithOrientation(forward, up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetOrientation(forward, up)
	}
}

// WithPerspective is an option builder that sets the perspective parameters.
//
// Parameters:
//   - fov: vertical field of view in degrees
//   - aspect: viewport aspect ratio (width / height)
//   - near: near clipping plane distance
//   - far: far clipping plane distance
//
// Returns:
//   - CameraBuilderOption: a function that applies the perspective option to a camera
func WithPerspective(fov, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = ProjectionPerspective
		c.fov = fov
		c.aspect = aspect
		c.nearClip = near
		c.farClip = far
	}
}

// WithOrthographic is an option builder that sets the orthographic parameters.
//
// Parameters:
//   - halfHeight: half of the vertical extent in world units
//   - aspect: viewport aspect ratio (width / height)
//   - near: near clipping plane distance
//   - far: far clipping plane distance
//
// Returns:
//   - CameraBuilderOption: a function that applies the orthographic option to a camera
func WithOrthographic(halfHeight, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = ProjectionOrthographic
		c.orthoHeight = halfHeight
		c.aspect = aspect
		c.nearClip = near
		c.farClip = far
	}
}

// WithViewport is an option builder that sets the normalized viewport rectangle.
//
// Parameters:
//   - r: the viewport rectangle
//
// Returns:
//   - CameraBuilderOption: a function that applies the viewport option to a camera
func WithViewport(r common.Rect) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewport = r
	}
}

// WithFrustumCulling is an option builder that enables or disables drawable frustum culling.
//
// Parameters:
//   - enabled: true to frustum-cull drawables rendered through this camera
//
// Returns:
//   - CameraBuilderOption: a function that applies the culling option to a camera
func WithFrustumCulling(enabled bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.frustumCulling = enabled
	}
}
