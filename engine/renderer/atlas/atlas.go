// package atlas manages the shared texture that holds shadow and cookie data
// for clustered lights, giving each light a rectangular slot. Slot layout is
// recomputed when the visible light set changes; a reassigned slot invalidates
// whatever shadow data the light had cached there.
package atlas

import (
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/logger"
)

type slot struct {
	viewport common.Rect
	lightID  int // index into the last assignment, -1 when free
}

// LightTextureAtlas owns one shared texture subdivided into equal square
// slots, one per clustered light needing shadow or cookie space. The split
// granularity follows the number of lights: the atlas re-splits to the
// smallest power-of-two grid that fits them all, and every re-split bumps the
// atlas version, invalidating all previously assigned slots.
type LightTextureAtlas struct {
	dev     device.Device
	texture device.Texture
	size    int

	slots   []slot
	grid    int // slots per edge
	version uint32

	assigned map[light.Light]int
}

// NewLightTextureAtlas creates an atlas backed by a size x size depth texture.
//
// Parameters:
//   - dev: the device the atlas texture is allocated on
//   - size: the atlas edge length in texels
//
// Returns:
//   - *LightTextureAtlas: the new atlas
func NewLightTextureAtlas(dev device.Device, size int) *LightTextureAtlas {
	a := &LightTextureAtlas{
		dev:      dev,
		size:     size,
		assigned: make(map[light.Light]int),
	}
	tex, err := dev.CreateTexture(device.TextureDesc{
		Name:   "light-atlas",
		Width:  size,
		Height: size,
		Format: device.TextureFormatDepth32,
	})
	if err != nil {
		// Slot layout still works without a backing texture; lights keep
		// their viewports and the draw stage sees a nil atlas texture.
		logger.Log.Error("light atlas allocation failed", zap.Error(err))
	}
	a.texture = tex
	a.split(1)
	return a
}

// Texture returns the shared atlas texture.
//
// Returns:
//   - device.Texture: the atlas texture
func (a *LightTextureAtlas) Texture() device.Texture { return a.texture }

// Version returns the current layout version. Bumped on every re-split.
//
// Returns:
//   - uint32: the layout version
func (a *LightTextureAtlas) Version() uint32 { return a.version }

// SlotCount returns the number of slots in the current layout.
//
// Returns:
//   - int: the slot count
func (a *LightTextureAtlas) SlotCount() int { return len(a.slots) }

// Update assigns atlas slots to the given lights. Lights keeping their slot
// from the previous layout are untouched; lights receiving a new or moved
// slot get their viewport written and their slot-updated pulse raised for
// this frame. Lights no longer present free their slots.
//
// Parameters:
//   - lights: the clustered lights needing atlas space this frame, in
//     stable order (callers sort by shadow priority before calling)
func (a *LightTextureAtlas) Update(lights []light.Light) {
	grid := 1
	for grid*grid < len(lights) {
		grid *= 2
	}
	if grid != a.grid {
		a.split(grid)
	}

	// Drop assignments for lights that disappeared.
	for lt, idx := range a.assigned {
		if !containsLight(lights, lt) {
			a.slots[idx].lightID = -1
			delete(a.assigned, lt)
		}
	}

	for _, lt := range lights {
		idx, ok := a.assigned[lt]
		if ok && lt.AtlasVersion() == a.version {
			// Slot survives from the previous frame; data there stays valid.
			lt.SetAtlasViewportAllocated(true)
			continue
		}

		if !ok {
			idx = a.freeSlot()
			if idx < 0 {
				logger.Log.Warn("light atlas full", zap.Int("lights", len(lights)))
				continue
			}
			a.assigned[lt] = idx
			a.slots[idx].lightID = idx
		}

		lt.SetAtlasSlot(idx, a.version)
		lt.SetAtlasViewport(a.slots[idx].viewport)
		lt.SetAtlasViewportAllocated(true)
		lt.SetAtlasSlotUpdated(true)
	}
}

// split rebuilds the slot grid with the given slots per edge and bumps the
// layout version, invalidating every previous assignment.
func (a *LightTextureAtlas) split(grid int) {
	a.grid = grid
	a.version++
	a.slots = a.slots[:0]
	for lt := range a.assigned {
		delete(a.assigned, lt)
	}

	step := 1.0 / float32(grid)
	for y := 0; y < grid; y++ {
		for x := 0; x < grid; x++ {
			a.slots = append(a.slots, slot{
				viewport: common.Rect{
					X:      float32(x) * step,
					Y:      float32(y) * step,
					Width:  step,
					Height: step,
				},
				lightID: -1,
			})
		}
	}
}

func (a *LightTextureAtlas) freeSlot() int {
	for i := range a.slots {
		if a.slots[i].lightID == -1 {
			return i
		}
	}
	return -1
}

// Destroy releases the atlas texture.
func (a *LightTextureAtlas) Destroy() {
	if a.texture != nil {
		a.texture.Release()
		a.texture = nil
	}
}

func containsLight(lights []light.Light, lt light.Light) bool {
	for _, existing := range lights {
		if existing == lt {
			return true
		}
	}
	return false
}
