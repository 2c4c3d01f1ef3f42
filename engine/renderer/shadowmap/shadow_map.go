package shadowmap

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/logger"
)

// ShadowMap owns the texture one light renders its shadows into. Maps come in
// two flavors: owned maps created for a single light and released when that
// light invalidates, and cached maps handed out by a Cache and returned to it
// for reuse.
type ShadowMap struct {
	texture device.Texture
	cached  bool

	cubemap    bool
	format     device.TextureFormat
	resolution int
}

var _ light.ShadowMapRef = &ShadowMap{}

// NewShadowMap allocates a shadow map texture sized and formatted for the
// given light's current configuration.
//
// Parameters:
//   - dev: the device to allocate on
//   - lt: the light whose shadow configuration sizes the map
//
// Returns:
//   - *ShadowMap: the new shadow map
//   - error: error if the texture allocation fails
func NewShadowMap(dev device.Device, lt light.Light) (*ShadowMap, error) {
	format := FormatForShadowType(lt.ShadowType())
	cubemap := lt.Type() == light.TypeOmni
	res := lt.ShadowResolution()

	tex, err := dev.CreateTexture(device.TextureDesc{
		Name:    fmt.Sprintf("shadow-%dx%d", res, res),
		Width:   res,
		Height:  res,
		Format:  format,
		Cubemap: cubemap,
	})
	if err != nil {
		return nil, fmt.Errorf("shadow map %dx%d: %w", res, res, err)
	}

	logger.Log.Debug("allocated shadow map",
		zap.Int("resolution", res),
		zap.Bool("cubemap", cubemap),
	)

	return &ShadowMap{
		texture:    tex,
		cubemap:    cubemap,
		format:     format,
		resolution: res,
	}, nil
}

// FormatForShadowType maps a shadow filtering type onto the render target
// format it stores moments or depth in.
//
// Parameters:
//   - st: the post-fallback shadow type
//
// Returns:
//   - device.TextureFormat: the texture format for the shadow render target
func FormatForShadowType(st light.ShadowType) device.TextureFormat {
	switch st {
	case light.ShadowVSM32:
		return device.TextureFormatRGBA32F
	case light.ShadowVSM16:
		return device.TextureFormatRGBA16F
	case light.ShadowVSM8:
		return device.TextureFormatRGBA8
	default:
		return device.TextureFormatDepth32
	}
}

// Texture returns the backing texture.
//
// Returns:
//   - device.Texture: the shadow texture
func (s *ShadowMap) Texture() device.Texture { return s.texture }

// Resolution returns the map's edge length in texels.
//
// Returns:
//   - int: the resolution
func (s *ShadowMap) Resolution() int { return s.resolution }

// Format returns the map's texture format.
//
// Returns:
//   - device.TextureFormat: the format
func (s *ShadowMap) Format() device.TextureFormat { return s.format }

// Cubemap returns whether the map is a cube texture.
//
// Returns:
//   - bool: true for cube maps
func (s *ShadowMap) Cubemap() bool { return s.cubemap }

func (s *ShadowMap) Cached() bool { return s.cached }

func (s *ShadowMap) Release() {
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
}

// ensureShadowMap assigns a shadow map to the light if it has none, drawing
// from the cache when one is available. A failed allocation is logged and
// leaves the light mapless, so its shadow render is skipped this frame and
// retried on the next.
func ensureShadowMap(dev device.Device, cache *Cache, lt light.Light) bool {
	if lt.ShadowMap() != nil {
		return true
	}

	var (
		sm  *ShadowMap
		err error
	)
	if cache != nil {
		sm, err = cache.Get(lt)
	} else {
		sm, err = NewShadowMap(dev, lt)
	}
	if err != nil {
		logger.Log.Error("shadow map allocation failed", zap.Error(err))
		return false
	}
	lt.SetShadowMap(sm)
	return true
}
