package shadowmap

import (
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
)

type cacheKey struct {
	cubemap    bool
	format     device.TextureFormat
	resolution int
}

// Cache pools shadow maps by (cubemap, format, resolution) so lights with
// matching configurations reuse textures instead of churning GPU memory.
// Maps handed out by the cache report Cached() true, which stops lights from
// releasing them on invalidation; reclaiming them is the cache owner's job.
type Cache struct {
	dev  device.Device
	free map[cacheKey][]*ShadowMap
}

// NewCache creates an empty shadow map cache.
//
// Parameters:
//   - dev: the device new maps are allocated on
//
// Returns:
//   - *Cache: the new cache
func NewCache(dev device.Device) *Cache {
	return &Cache{
		dev:  dev,
		free: make(map[cacheKey][]*ShadowMap),
	}
}

// Get returns a pooled shadow map matching the light's configuration,
// allocating one when the pool is empty.
//
// Parameters:
//   - lt: the light whose configuration selects the pool
//
// Returns:
//   - *ShadowMap: a cached shadow map
//   - error: error if a fresh allocation was needed and failed
func (c *Cache) Get(lt light.Light) (*ShadowMap, error) {
	key := cacheKey{
		cubemap:    lt.Type() == light.TypeOmni,
		format:     FormatForShadowType(lt.ShadowType()),
		resolution: lt.ShadowResolution(),
	}

	if pool := c.free[key]; len(pool) > 0 {
		sm := pool[len(pool)-1]
		c.free[key] = pool[:len(pool)-1]
		return sm, nil
	}

	sm, err := NewShadowMap(c.dev, lt)
	if err != nil {
		return nil, err
	}
	sm.cached = true
	return sm, nil
}

// Reclaim returns a cached shadow map to its pool. Non-cached maps are
// released instead.
//
// Parameters:
//   - sm: the map to reclaim
func (c *Cache) Reclaim(sm *ShadowMap) {
	if sm == nil {
		return
	}
	if !sm.cached {
		sm.Release()
		return
	}
	key := cacheKey{cubemap: sm.cubemap, format: sm.format, resolution: sm.resolution}
	c.free[key] = append(c.free[key], sm)
}

// Destroy releases every pooled shadow map.
func (c *Cache) Destroy() {
	for key, pool := range c.free {
		for _, sm := range pool {
			sm.Release()
		}
		delete(c.free, key)
	}
}
