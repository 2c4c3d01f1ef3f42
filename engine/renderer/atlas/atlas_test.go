package atlas

import (
	"testing"

	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
)

func newLights(dev device.Device, n int) []light.Light {
	lights := make([]light.Light, n)
	for i := range lights {
		lights[i] = light.NewLight(dev, light.TypeSpot, light.WithCastShadows(true))
	}
	return lights
}

func TestAtlasAssignsDistinctSlots(t *testing.T) {
	dev := device.NewHeadless()
	a := NewLightTextureAtlas(dev, 2048)

	lights := newLights(dev, 3)
	a.Update(lights)

	if a.SlotCount() != 4 {
		t.Fatalf("SlotCount() = %d, want 4 for 3 lights", a.SlotCount())
	}

	seen := map[int]bool{}
	for _, lt := range lights {
		idx := lt.AtlasSlotIndex()
		if idx < 0 {
			t.Fatalf("light missing an atlas slot")
		}
		if seen[idx] {
			t.Errorf("slot %d assigned twice", idx)
		}
		seen[idx] = true
		if !lt.AtlasViewportAllocated() {
			t.Error("viewport-allocated flag not set")
		}
		if !lt.AtlasSlotUpdated() {
			t.Error("fresh assignment did not raise the slot-updated pulse")
		}
		vp := lt.AtlasViewport()
		if vp.Width != 0.5 || vp.Height != 0.5 {
			t.Errorf("viewport = %+v, want a 2x2 grid cell", vp)
		}
	}
}

func TestAtlasSlotUpdatedPulseLastsOneFrame(t *testing.T) {
	dev := device.NewHeadless()
	a := NewLightTextureAtlas(dev, 2048)
	lights := newLights(dev, 2)

	a.Update(lights)
	if !lights[0].AtlasSlotUpdated() {
		t.Fatal("first assignment did not pulse")
	}

	// Frame boundary resets the pulse; a stable layout must not re-raise it.
	for _, lt := range lights {
		lt.BeginFrame()
	}
	a.Update(lights)
	if lights[0].AtlasSlotUpdated() {
		t.Error("stable slot re-raised the slot-updated pulse")
	}
	if !lights[0].AtlasViewportAllocated() {
		t.Error("stable slot lost its viewport allocation")
	}
}

func TestAtlasResplitInvalidatesSlots(t *testing.T) {
	dev := device.NewHeadless()
	a := NewLightTextureAtlas(dev, 2048)
	lights := newLights(dev, 2)

	a.Update(lights)
	v1 := a.Version()

	// Growing past the grid capacity forces a re-split and a version bump.
	grown := append(lights, newLights(dev, 4)...)
	for _, lt := range grown {
		lt.BeginFrame()
	}
	a.Update(grown)

	if a.Version() == v1 {
		t.Fatal("re-split did not bump the atlas version")
	}
	for _, lt := range grown {
		if lt.AtlasVersion() != a.Version() {
			t.Error("light kept a stale atlas version after re-split")
		}
		if !lt.AtlasSlotUpdated() {
			t.Error("re-split did not pulse slot-updated on a reassigned light")
		}
	}
}

func TestAtlasFreesDepartedLights(t *testing.T) {
	dev := device.NewHeadless()
	a := NewLightTextureAtlas(dev, 2048)
	lights := newLights(dev, 4)

	a.Update(lights)
	remaining := lights[:2]
	for _, lt := range remaining {
		lt.BeginFrame()
	}
	a.Update(remaining)

	// Freed slots must be reusable by a new light without a re-split.
	newcomer := newLights(dev, 1)
	a.Update(append(remaining, newcomer...))
	if newcomer[0].AtlasSlotIndex() < 0 {
		t.Error("freed slot was not reassigned to a new light")
	}
}
