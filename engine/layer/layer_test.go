package layer

import (
	"testing"

	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
)

func testCamera() camera.Camera {
	return camera.NewCamera(camera.WithPerspective(60, 16.0/9.0, 0.1, 100))
}

func testLight(t light.Type) light.Light {
	return light.NewLight(device.NewHeadless(), t)
}

func TestLayerLightObserverRegistration(t *testing.T) {
	l := NewLayer(WithName("world"))
	lt := testLight(light.TypeSpot)

	l.AddLight(lt)
	l.AddLight(lt) // duplicate
	if len(l.Lights()) != 1 {
		t.Fatalf("len(Lights()) = %d, want 1", len(l.Lights()))
	}
	if !l.ConsumeLightOrderDirty() {
		t.Fatal("adding a light did not mark the light order stale")
	}

	// A key-affecting change on the light must reach the layer.
	lt.SetShape(light.ShapeRect)
	if !l.ConsumeLightOrderDirty() {
		t.Error("light key change did not mark the light order stale")
	}

	l.RemoveLight(lt)
	l.ConsumeLightOrderDirty()
	lt.SetShape(light.ShapeDisk)
	if l.ConsumeLightOrderDirty() {
		t.Error("removed layer still observed the light")
	}
}

func TestLayerCulledInstancesPerCamera(t *testing.T) {
	l := NewLayer()
	camA := testCamera()
	camB := testCamera()

	ciA := l.CulledInstances(camA)
	if l.CulledInstances(camA) != ciA {
		t.Error("repeated lookup returned different buckets for the same camera")
	}
	if l.CulledInstances(camB) == ciA {
		t.Error("distinct cameras shared cull buckets")
	}

	ciA.Opaque = append(ciA.Opaque, mesh.NewMeshInstance(mesh.WithName("box")))
	ciA.Clear()
	if len(ciA.Opaque) != 0 {
		t.Error("Clear left drawables in the opaque bucket")
	}
}

func TestLayerMeshInstanceManagement(t *testing.T) {
	l := NewLayer()
	a := mesh.NewMeshInstance(mesh.WithName("a"))
	b := mesh.NewMeshInstance(mesh.WithName("b"))

	l.AddMeshInstances(a, b, a)
	if len(l.MeshInstances()) != 2 {
		t.Fatalf("len(MeshInstances()) = %d, want 2", len(l.MeshInstances()))
	}

	l.RemoveMeshInstances(a)
	if len(l.MeshInstances()) != 1 || l.MeshInstances()[0] != b {
		t.Error("RemoveMeshInstances removed the wrong drawable")
	}
}

func TestCompositionRenderActions(t *testing.T) {
	camA := testCamera()
	camB := testCamera()

	world := NewLayer(WithName("world"), WithCameras(camA, camB))
	ui := NewLayer(WithName("ui"), WithCameras(camB))

	comp := NewComposition()
	comp.AddLayer(world)
	comp.AddLayer(ui)

	actions := comp.RenderActions()
	if len(actions) != 3 {
		t.Fatalf("len(RenderActions()) = %d, want 3", len(actions))
	}

	// Camera-major order: camA/world, then camB/world, camB/ui.
	want := []struct {
		layer Layer
		cam   camera.Camera
		first bool
	}{
		{world, camA, true},
		{world, camB, true},
		{ui, camB, false},
	}
	for i, w := range want {
		if actions[i].Layer != w.layer || actions[i].Camera != w.cam {
			t.Errorf("action %d = (%s, %p), want (%s, %p)",
				i, actions[i].Layer.Name(), actions[i].Camera, w.layer.Name(), w.cam)
		}
		if actions[i].FirstCameraUse != w.first {
			t.Errorf("action %d FirstCameraUse = %v, want %v", i, actions[i].FirstCameraUse, w.first)
		}
	}
}

func TestCompositionRebuildOnlyWhenDirty(t *testing.T) {
	cam := testCamera()
	world := NewLayer(WithCameras(cam))
	comp := NewComposition()
	comp.AddLayer(world)

	first := comp.RenderActions()
	second := comp.RenderActions()
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Error("clean composition rebuilt its render actions")
	}

	comp.MarkDirty()
	third := comp.RenderActions()
	if len(third) != 1 {
		t.Fatalf("len(RenderActions()) = %d after rebuild, want 1", len(third))
	}
}

func TestCompositionSubLayerToggle(t *testing.T) {
	cam := testCamera()
	world := NewLayer(WithCameras(cam))
	comp := NewComposition()
	comp.AddLayer(world)

	if !comp.SubLayerEnabled(0) {
		t.Fatal("new composition entry not enabled")
	}
	comp.SetSubLayerEnabled(0, false)
	if comp.SubLayerEnabled(0) {
		t.Error("SetSubLayerEnabled(false) did not stick")
	}
	if comp.SubLayerEnabled(5) {
		t.Error("out-of-range entry reported enabled")
	}
}

func TestRenderActionReset(t *testing.T) {
	ra := &RenderAction{}
	ra.DirectionalLights = append(ra.DirectionalLights, testLight(light.TypeDirectional))
	ra.Reset()
	if len(ra.DirectionalLights) != 0 {
		t.Error("Reset left directional lights on the action")
	}
}
