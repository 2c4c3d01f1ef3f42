package cluster

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
)

func TestClusterAssignment(t *testing.T) {
	w := NewWorldClustersAllocator(DefaultConfig())

	spheres := []common.BoundingSphere{
		{Center: mgl32.Vec3{-40, 0, -40}, Radius: 5},
		{Center: mgl32.Vec3{40, 0, 40}, Radius: 5},
	}
	w.Update(spheres)

	nearFirst := w.CellLights(mgl32.Vec3{-40, 0, -40})
	if len(nearFirst) != 1 || nearFirst[0] != 0 {
		t.Errorf("CellLights near first light = %v, want [0]", nearFirst)
	}

	nearSecond := w.CellLights(mgl32.Vec3{40, 0, 40})
	if len(nearSecond) != 1 || nearSecond[0] != 1 {
		t.Errorf("CellLights near second light = %v, want [1]", nearSecond)
	}

	middle := w.CellLights(mgl32.Vec3{0, 0, 0})
	if len(middle) != 0 {
		t.Errorf("CellLights in empty space = %v, want none", middle)
	}
}

func TestClusterUpdateClearsPreviousFrame(t *testing.T) {
	w := NewWorldClustersAllocator(DefaultConfig())

	w.Update([]common.BoundingSphere{{Center: mgl32.Vec3{0, 0, 0}, Radius: 100}})
	w.Update(nil)

	if got := w.CellLights(mgl32.Vec3{0, 0, 0}); len(got) != 0 {
		t.Errorf("stale light indices survived an empty update: %v", got)
	}
	if w.Updates != 2 {
		t.Errorf("Updates = %d, want 2", w.Updates)
	}
}
