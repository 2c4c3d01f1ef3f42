package device

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/logger"

	"go.uber.org/zap"
)

type webgpuDevice struct {
	device *wgpu.Device
	limits wgpu.Limits
}

var _ Device = &webgpuDevice{}

// NewWebGPU wraps an existing wgpu device as a capability and texture provider
// for the culling core. The caller retains ownership of the wgpu device; this
// wrapper never releases it.
//
// Parameters:
//   - dev: the wgpu device to wrap (must not be nil)
//   - limits: the limits the device was requested with
//
// Returns:
//   - Device: the WebGPU-backed device
func NewWebGPU(dev *wgpu.Device, limits wgpu.Limits) Device {
	if dev == nil {
		panic("device: NewWebGPU requires a non-nil wgpu device")
	}
	return &webgpuDevice{device: dev, limits: limits}
}

func (d *webgpuDevice) Backend() BackendType { return BackendTypeWGPU }

// WebGPU guarantees comparison sampling of depth textures, so hardware PCF
// never falls back on this backend.
func (d *webgpuDevice) SupportsDepthShadow() bool { return true }

// RGBA32Float and RGBA16Float are render-attachment capable in core WebGPU,
// which is all the VSM blur passes need (no blending).
func (d *webgpuDevice) TextureFloatRenderable() bool     { return true }
func (d *webgpuDevice) TextureHalfFloatRenderable() bool { return true }

func (d *webgpuDevice) MaxTextureSize() int {
	return int(d.limits.MaxTextureDimension2D)
}

// Cube faces share the 2D dimension limit in WebGPU.
func (d *webgpuDevice) MaxCubeMapSize() int {
	return int(d.limits.MaxTextureDimension2D)
}

func (d *webgpuDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("device: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	limit := d.MaxTextureSize()
	if desc.Cubemap {
		limit = d.MaxCubeMapSize()
	}
	width := common.Clamp(desc.Width, 1, limit)
	height := common.Clamp(desc.Height, 1, limit)

	layers := uint32(1)
	if desc.Cubemap {
		layers = 6
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Name,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        nativeFormat(desc.Format),
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("device: failed to create texture %q: %w", desc.Name, err)
	}

	logger.Log.Debug("device: allocated texture",
		zap.String("name", desc.Name),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("cubemap", desc.Cubemap))

	return &webgpuTexture{
		texture: tex,
		width:   width,
		height:  height,
		format:  desc.Format,
		cubemap: desc.Cubemap,
	}, nil
}

func nativeFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case TextureFormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case TextureFormatRGBA32F:
		return wgpu.TextureFormatRGBA32Float
	default:
		return wgpu.TextureFormatDepth32Float
	}
}

type webgpuTexture struct {
	texture *wgpu.Texture
	width   int
	height  int
	format  TextureFormat
	cubemap bool
}

func (t *webgpuTexture) Width() int            { return t.width }
func (t *webgpuTexture) Height() int           { return t.height }
func (t *webgpuTexture) Format() TextureFormat { return t.format }
func (t *webgpuTexture) Cubemap() bool         { return t.cubemap }

func (t *webgpuTexture) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// Native returns the underlying wgpu texture for the draw-submission stage.
//
// Returns:
//   - *wgpu.Texture: the wrapped texture, or nil after Release
func (t *webgpuTexture) Native() *wgpu.Texture {
	return t.texture
}
