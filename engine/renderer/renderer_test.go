package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/layer"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
	"github.com/lumen3d/lumen/engine/renderer/material"
)

// testScene is a camera at (0, 0, 10) looking down -Z with a 60 degree fov,
// so geometry near the origin is comfortably inside the frustum.
func testScene() (camera.Camera, layer.Layer, layer.Composition) {
	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 0, 10}),
		camera.WithOrientation(mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}),
		camera.WithPerspective(60, 16.0/9.0, 0.1, 100),
	)
	l := layer.NewLayer(layer.WithName("world"), layer.WithCameras(cam))
	comp := layer.NewComposition()
	comp.AddLayer(l)
	return cam, l, comp
}

func boxAt(pos mgl32.Vec3, opts ...mesh.MeshInstanceBuilderOption) mesh.MeshInstance {
	base := []mesh.MeshInstanceBuilderOption{
		mesh.WithWorldBounds(common.BoundingBox{Center: pos, HalfExtents: mgl32.Vec3{1, 1, 1}}),
	}
	return mesh.NewMeshInstance(append(base, opts...)...)
}

func TestBeginFrameEmptyComposition(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)
	_, l, comp := testScene()

	dir := light.NewLight(dev, light.TypeDirectional)
	dirDisabled := light.NewLight(dev, light.TypeDirectional, light.WithEnabled(false))
	omni := light.NewLight(dev, light.TypeOmni, light.WithPosition(mgl32.Vec3{0, 0, 500}))
	l.AddLight(dir)
	l.AddLight(dirDisabled)
	l.AddLight(omni)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	if !dir.VisibleThisFrame() {
		t.Error("enabled directional light not visible after BeginFrame")
	}
	if dirDisabled.VisibleThisFrame() {
		t.Error("disabled directional light visible after BeginFrame")
	}
	if omni.VisibleThisFrame() {
		t.Error("out-of-frustum omni light visible")
	}
}

func TestCullPartitionsBuckets(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)
	cam, l, comp := testScene()

	opaque := boxAt(mgl32.Vec3{0, 0, 0})
	transparent := boxAt(mgl32.Vec3{2, 0, 0}, mesh.WithTransparent(true))
	behind := boxAt(mgl32.Vec3{0, 0, 200})
	hidden := boxAt(mgl32.Vec3{0, 0, 0})
	hidden.SetVisible(false)
	uncullable := boxAt(mgl32.Vec3{0, 0, 500}, mesh.WithCullAllowed(false))

	l.AddMeshInstances(opaque, transparent, behind, hidden, uncullable)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	ci := l.CulledInstances(cam)
	if len(ci.Opaque) != 2 {
		t.Errorf("len(Opaque) = %d, want 2 (visible box + cull-exempt box)", len(ci.Opaque))
	}
	if len(ci.Transparent) != 1 || ci.Transparent[0] != transparent {
		t.Errorf("transparent bucket = %d entries, want the transparent box", len(ci.Transparent))
	}
	if behind.VisibleThisFrame() {
		t.Error("box behind the camera flagged visible")
	}
	if !uncullable.VisibleThisFrame() {
		t.Error("cull-exempt box not flagged visible")
	}
}

func TestProcessingSetClearedPerFrame(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev, WithSkinWorkers(2))
	_, l, comp := testScene()

	skinned := boxAt(mgl32.Vec3{0, 0, 0},
		mesh.WithSkin(mesh.NewSkinInstance(
			[]mgl32.Mat4{mgl32.Ident4()},
			common.BoundingBox{HalfExtents: mgl32.Vec3{1, 1, 1}},
		)),
	)
	l.AddMeshInstances(skinned)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	got := r.ProcessingMeshInstances()
	if len(got) != 1 || got[0] != skinned {
		t.Fatalf("ProcessingMeshInstances() = %d entries, want the skinned box", len(got))
	}
	if r.Stats().SkinsUpdated != 1 {
		t.Errorf("SkinsUpdated = %d, want 1", r.Stats().SkinsUpdated)
	}

	// Removing the instance and running another frame must leave the set empty.
	l.RemoveMeshInstances(skinned)
	r.BeginFrame(comp)
	r.CullComposition(comp)
	if len(r.ProcessingMeshInstances()) != 0 {
		t.Error("GPU-update set not cleared between frames")
	}
}

func TestShadowSelfHealNonClustered(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)
	_, l, comp := testScene()

	spot := light.NewLight(dev, light.TypeSpot,
		light.WithCastShadows(true),
		light.WithPosition(mgl32.Vec3{0, 3, 0}),
		light.WithDirection(mgl32.Vec3{0, -1, 0}),
		light.WithAttenuationEnd(8),
	)
	spot.SetShadowUpdateMode(light.ShadowUpdateNone)

	caster := boxAt(mgl32.Vec3{0, 0, 0})
	l.AddLight(spot)
	l.AddMeshInstances(caster)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	if spot.ShadowUpdateMode() != light.ShadowUpdateThisFrame {
		t.Fatalf("ShadowUpdateMode = %v, want THISFRAME after self-heal", spot.ShadowUpdateMode())
	}
	if spot.ShadowMap() == nil {
		t.Fatal("no shadow map assigned by the shadow pass")
	}

	rd := spot.GetRenderData(nil, 0)
	found := false
	for _, mi := range rd.VisibleCasters {
		if mi == caster {
			found = true
		}
	}
	if !found {
		t.Error("caster missing from the spot light's caster list")
	}

	// EndFrame retires the one-shot render.
	r.EndFrame()
	if spot.ShadowUpdateMode() != light.ShadowUpdateNone {
		t.Errorf("ShadowUpdateMode = %v after EndFrame, want NONE", spot.ShadowUpdateMode())
	}

	// With a valid map and mode NONE, the next frame schedules nothing.
	r.BeginFrame(comp)
	r.CullComposition(comp)
	if r.Stats().ShadowRendersScheduled != 0 {
		t.Errorf("ShadowRendersScheduled = %d with a cached map, want 0", r.Stats().ShadowRendersScheduled)
	}
}

func TestForcedVisibleShadowCasterOutOfFrustum(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)
	_, l, comp := testScene()

	// Both lights sit far behind the camera, well outside the frustum.
	caster := light.NewLight(dev, light.TypeSpot,
		light.WithCastShadows(true),
		light.WithPosition(mgl32.Vec3{0, 0, 2000}),
		light.WithDirection(mgl32.Vec3{0, -1, 0}),
		light.WithAttenuationEnd(8),
	)
	plain := light.NewLight(dev, light.TypeSpot,
		light.WithPosition(mgl32.Vec3{0, 0, 2000}),
		light.WithAttenuationEnd(8),
	)
	l.AddLight(caster)
	l.AddLight(plain)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	if !caster.VisibleThisFrame() {
		t.Error("mapless shadow caster was culled instead of forced visible")
	}
	if caster.ShadowMap() == nil {
		t.Error("no shadow render prepared for the forced-visible light")
	}
	if r.Stats().ShadowRendersScheduled != 1 {
		t.Errorf("ShadowRendersScheduled = %d, want 1", r.Stats().ShadowRendersScheduled)
	}
	if plain.VisibleThisFrame() {
		t.Error("non-casting out-of-frustum light flagged visible")
	}
	r.EndFrame()

	// Once a map exists the light is subject to normal culling again.
	r.BeginFrame(comp)
	r.CullComposition(comp)
	if caster.VisibleThisFrame() {
		t.Error("out-of-frustum light stayed forced visible after its first render")
	}
	if r.Stats().ShadowRendersScheduled != 0 {
		t.Errorf("ShadowRendersScheduled = %d on the second frame, want 0", r.Stats().ShadowRendersScheduled)
	}
}

func TestDirectionalDedupAcrossLayers(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)

	cam := camera.NewCamera(camera.WithPerspective(60, 16.0/9.0, 0.1, 100))
	layerA := layer.NewLayer(layer.WithName("a"), layer.WithCameras(cam))
	layerB := layer.NewLayer(layer.WithName("b"), layer.WithCameras(cam))

	dir := light.NewLight(dev, light.TypeDirectional, light.WithCastShadows(true))
	layerA.AddLight(dir)
	layerB.AddLight(dir)

	comp := layer.NewComposition()
	comp.AddLayer(layerA)
	comp.AddLayer(layerB)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	actions := comp.RenderActions()
	first := actions[0]
	if !first.FirstCameraUse {
		t.Fatal("first action is not the camera's first use")
	}
	count := 0
	for _, lt := range first.DirectionalLights {
		if lt == dir {
			count++
		}
	}
	if count != 1 {
		t.Errorf("directional light appears %d times in the action, want exactly 1", count)
	}
	for _, action := range actions[1:] {
		if len(action.DirectionalLights) != 0 {
			t.Error("non-first action carries directional lights")
		}
	}
	if dir.RenderDataCount() == 0 {
		t.Error("directional shadow culling prepared no cascades")
	}
}

func TestClusteredAtlasReassignmentForcesRender(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev, WithClusteredLighting(true))
	_, l, comp := testScene()

	spot := light.NewLight(dev, light.TypeSpot,
		light.WithCastShadows(true),
		light.WithPosition(mgl32.Vec3{0, 3, 0}),
		light.WithDirection(mgl32.Vec3{0, -1, 0}),
		light.WithAttenuationEnd(8),
	)
	spot.SetShadowUpdateMode(light.ShadowUpdateNone)
	l.AddLight(spot)
	l.AddMeshInstances(boxAt(mgl32.Vec3{0, 0, 0}))

	// A fresh atlas slot pulses slot-updated, which heals NONE to THISFRAME.
	r.BeginFrame(comp)
	r.CullComposition(comp)
	if r.Stats().ShadowRendersScheduled != 1 {
		t.Fatalf("ShadowRendersScheduled = %d, want 1", r.Stats().ShadowRendersScheduled)
	}
	if !spot.ShadowMap().Cached() {
		t.Error("clustered shadow map not drawn from the cache")
	}
	r.EndFrame()

	// Stable atlas slot: nothing scheduled.
	r.BeginFrame(comp)
	r.CullComposition(comp)
	if r.Stats().ShadowRendersScheduled != 0 {
		t.Fatalf("stable slot scheduled %d renders, want 0", r.Stats().ShadowRendersScheduled)
	}
	r.EndFrame()

	// Growing the light set re-splits the atlas; the moved slot must force a
	// this-frame render even though the light's own state never changed.
	for i := 0; i < 3; i++ {
		extra := light.NewLight(dev, light.TypeSpot,
			light.WithCastShadows(true),
			light.WithPosition(mgl32.Vec3{float32(i), 3, 0}),
			light.WithAttenuationEnd(8),
		)
		extra.SetShadowUpdateMode(light.ShadowUpdateNone)
		l.AddLight(extra)
	}
	r.BeginFrame(comp)
	r.CullComposition(comp)
	if !spot.AtlasSlotUpdated() {
		t.Fatal("atlas re-split did not pulse the slot-updated flag")
	}
	if spot.ShadowUpdateMode() != light.ShadowUpdateThisFrame {
		t.Error("reassigned atlas slot did not force a shadow render")
	}
}

func TestCollectLightsDeduplicates(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)

	cam := camera.NewCamera()
	shared := light.NewLight(dev, light.TypeOmni)
	dir := light.NewLight(dev, light.TypeDirectional)

	layerA := layer.NewLayer(layer.WithCameras(cam), layer.WithLights(shared, dir))
	layerB := layer.NewLayer(layer.WithCameras(cam), layer.WithLights(shared))

	comp := layer.NewComposition()
	comp.AddLayer(layerA)
	comp.AddLayer(layerB)
	comp.AddLayer(layerA) // layer listed twice

	r.CollectLights(comp)

	if len(r.Lights()) != 2 {
		t.Errorf("len(Lights()) = %d, want 2 unique lights", len(r.Lights()))
	}
	if len(r.LocalLights()) != 1 || r.LocalLights()[0] != shared {
		t.Errorf("LocalLights() = %d entries, want just the omni light", len(r.LocalLights()))
	}
}

func TestUpdateShaders(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)

	lit := material.NewMaterial(material.WithName("lit"))
	unlit := material.NewMaterial(material.WithName("unlit"), material.WithUseLighting(false))

	lit.SetVariant(7, "pipeline-a")
	unlit.SetVariant(7, "pipeline-b")

	a := boxAt(mgl32.Vec3{0, 0, 0}, mesh.WithMaterial(lit))
	b := boxAt(mgl32.Vec3{1, 0, 0}, mesh.WithMaterial(lit))
	c := boxAt(mgl32.Vec3{2, 0, 0}, mesh.WithMaterial(unlit))

	r.UpdateShaders([]mesh.MeshInstance{a, b, c}, true)

	if _, ok := lit.Variant(7); ok {
		t.Error("lit material variants survived UpdateShaders")
	}
	if _, ok := unlit.Variant(7); !ok {
		t.Error("unlit material cleared despite onlyLitShaders")
	}

	r.UpdateShaders([]mesh.MeshInstance{c}, false)
	if _, ok := unlit.Variant(7); ok {
		t.Error("unlit material variants survived a full UpdateShaders")
	}
}

func TestDisabledSubLayerSkipped(t *testing.T) {
	dev := device.NewHeadless()
	r := NewRenderer(dev)
	cam, l, comp := testScene()

	box := boxAt(mgl32.Vec3{0, 0, 0})
	l.AddMeshInstances(box)
	comp.SetSubLayerEnabled(0, false)

	r.BeginFrame(comp)
	r.CullComposition(comp)

	if box.VisibleThisFrame() {
		t.Error("drawable in a disabled composition entry flagged visible")
	}
	if len(l.CulledInstances(cam).Opaque) != 0 {
		t.Error("disabled composition entry produced cull results")
	}
}
