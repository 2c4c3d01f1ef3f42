// package device exposes the narrow slice of the GPU device the visibility and
// shadow-scheduling core depends on: capability flags that drive shadow-type
// fallback, texture size limits, and a factory for shadow/atlas textures.
// Rasterization, pipelines and command encoding live behind other interfaces
// and are not part of this package.
package device

import (
	"fmt"

	"github.com/lumen3d/lumen/common"
)

// BackendType identifies the GPU backend implementation behind a Device.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based device backend.
	BackendTypeWGPU BackendType = iota

	// BackendTypeHeadless selects a CPU-only device with configurable capability
	// flags and no real texture storage. Used for tools and tests that exercise
	// culling and scheduling without a GPU.
	BackendTypeHeadless
)

// TextureFormat is the subset of texture formats the shadow and atlas systems
// allocate. Backends map these onto their native format enums.
type TextureFormat int

const (
	// TextureFormatDepth32 is a 32-bit depth texture used for PCF shadow maps.
	TextureFormatDepth32 TextureFormat = iota

	// TextureFormatRGBA8 is an 8-bit per channel color texture. Used for VSM8
	// shadow maps and cookie atlas storage.
	TextureFormatRGBA8

	// TextureFormatRGBA16F is a half-float color texture used for VSM16 shadow maps.
	TextureFormatRGBA16F

	// TextureFormatRGBA32F is a full-float color texture used for VSM32 shadow maps.
	TextureFormatRGBA32F
)

// TextureDesc describes a texture allocation request.
type TextureDesc struct {
	// Name is a debug label attached to the GPU resource.
	Name string
	// Width and Height are the texture dimensions in texels.
	Width, Height int
	// Format selects the texel format.
	Format TextureFormat
	// Cubemap requests a six-face cube texture instead of a 2D texture.
	Cubemap bool
}

// Texture is a GPU texture owned by the shadow or atlas systems.
type Texture interface {
	// Width returns the texture width in texels.
	Width() int

	// Height returns the texture height in texels.
	Height() int

	// Format returns the texel format the texture was allocated with.
	Format() TextureFormat

	// Cubemap returns true if the texture has six cube faces.
	Cubemap() bool

	// Release frees the GPU resource. The texture must not be used afterwards.
	Release()
}

// Device is the capability and allocation surface consumed by the culling and
// shadow-scheduling core. Capability flags are fixed for the lifetime of the
// device and may be read freely from the frame thread.
type Device interface {
	// Backend returns the backend implementation type.
	//
	// Returns:
	//   - BackendType: the backend identity
	Backend() BackendType

	// SupportsDepthShadow returns whether the device can sample depth textures
	// with hardware comparison (required for hardware-filtered PCF).
	//
	// Returns:
	//   - bool: true if native depth-shadow sampling is available
	SupportsDepthShadow() bool

	// TextureFloatRenderable returns whether 32-bit float color targets can be
	// rendered to (required for VSM32 shadow maps).
	//
	// Returns:
	//   - bool: true if float render targets are supported
	TextureFloatRenderable() bool

	// TextureHalfFloatRenderable returns whether 16-bit half-float color targets
	// can be rendered to (required for VSM16 shadow maps).
	//
	// Returns:
	//   - bool: true if half-float render targets are supported
	TextureHalfFloatRenderable() bool

	// MaxTextureSize returns the largest supported 2D texture dimension in texels.
	//
	// Returns:
	//   - int: the maximum 2D texture size
	MaxTextureSize() int

	// MaxCubeMapSize returns the largest supported cube map face dimension in texels.
	//
	// Returns:
	//   - int: the maximum cube map size
	MaxCubeMapSize() int

	// CreateTexture allocates a texture for shadow map or atlas storage.
	// Dimensions are clamped to the device limits before allocation.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the allocated texture
	//   - error: error if the backend allocation fails
	CreateTexture(desc TextureDesc) (Texture, error)
}

type headlessDevice struct {
	supportsDepthShadow        bool
	textureFloatRenderable     bool
	textureHalfFloatRenderable bool
	maxTextureSize             int
	maxCubeMapSize             int
}

var _ Device = &headlessDevice{}

// NewHeadless creates a Device with no GPU behind it. All capabilities default
// to a fully featured profile and can be narrowed via options; textures are
// zero-cost placeholders. Intended for tools and tests.
//
// Parameters:
//   - opts: variadic list of HeadlessOption functions to narrow capabilities
//
// Returns:
//   - Device: the headless device
func NewHeadless(opts ...HeadlessOption) Device {
	d := &headlessDevice{
		supportsDepthShadow:        true,
		textureFloatRenderable:     true,
		textureHalfFloatRenderable: true,
		maxTextureSize:             8192,
		maxCubeMapSize:             8192,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *headlessDevice) Backend() BackendType             { return BackendTypeHeadless }
func (d *headlessDevice) SupportsDepthShadow() bool        { return d.supportsDepthShadow }
func (d *headlessDevice) TextureFloatRenderable() bool     { return d.textureFloatRenderable }
func (d *headlessDevice) TextureHalfFloatRenderable() bool { return d.textureHalfFloatRenderable }
func (d *headlessDevice) MaxTextureSize() int              { return d.maxTextureSize }
func (d *headlessDevice) MaxCubeMapSize() int              { return d.maxCubeMapSize }

func (d *headlessDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	limit := d.maxTextureSize
	if desc.Cubemap {
		limit = d.maxCubeMapSize
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("device: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	return &headlessTexture{
		width:   common.Clamp(desc.Width, 1, limit),
		height:  common.Clamp(desc.Height, 1, limit),
		format:  desc.Format,
		cubemap: desc.Cubemap,
	}, nil
}

type headlessTexture struct {
	width, height int
	format        TextureFormat
	cubemap       bool
	released      bool
}

func (t *headlessTexture) Width() int            { return t.width }
func (t *headlessTexture) Height() int           { return t.height }
func (t *headlessTexture) Format() TextureFormat { return t.format }
func (t *headlessTexture) Cubemap() bool         { return t.cubemap }
func (t *headlessTexture) Release()              { t.released = true }
