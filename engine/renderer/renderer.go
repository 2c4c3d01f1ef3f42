// package renderer is the per-frame visibility and shadow-scheduling core: it
// decides which drawables and lights each camera sees, allocates shadow maps
// and atlas slots, and schedules the shadow re-renders a frame actually
// needs. Draw submission consumes its outputs; no GPU commands are encoded
// here.
package renderer

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
	"github.com/lumen3d/lumen/engine/layer"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/logger"
	"github.com/lumen3d/lumen/engine/mesh"
	"github.com/lumen3d/lumen/engine/renderer/atlas"
	"github.com/lumen3d/lumen/engine/renderer/cluster"
	"github.com/lumen3d/lumen/engine/renderer/material"
	"github.com/lumen3d/lumen/engine/renderer/shadowmap"
)

// FrameStats aggregates counters for one frame, reset in BeginFrame.
type FrameStats struct {
	// CamerasRendered counts cameras whose frustum was refreshed this frame.
	CamerasRendered int

	// LightsVisible counts local lights that passed at least one camera's cull.
	LightsVisible int

	// InstancesVisible counts drawables that passed at least one cull.
	InstancesVisible int

	// ShadowRendersScheduled counts lights whose shadow render was scheduled.
	ShadowRendersScheduled int

	// SkinsUpdated counts skinned drawables whose pose was refreshed in the
	// CPU pre-pass.
	SkinsUpdated int
}

// frameScratch holds the visited sets and temporary buffers the frame passes
// share. Owned by the renderer and reset at well-defined points, never global,
// so two renderers can prepare frames independently.
type frameScratch struct {
	visitedLayers    map[layer.Layer]struct{}
	visitedLights    map[light.Light]struct{}
	visitedMaterials map[material.Material]struct{}

	casters []mesh.MeshInstance
	spheres []common.BoundingSphere

	scheduledShadows []light.Light
}

func newFrameScratch() *frameScratch {
	return &frameScratch{
		visitedLayers:    make(map[layer.Layer]struct{}),
		visitedLights:    make(map[light.Light]struct{}),
		visitedMaterials: make(map[material.Material]struct{}),
	}
}

type rendererImpl struct {
	dev device.Device

	clustered     bool
	physicalUnits bool

	lights      []light.Light
	localLights []light.Light

	processingSet  map[mesh.MeshInstance]struct{}
	processingList []mesh.MeshInstance

	shadowCache       *shadowmap.Cache
	shadowLocal       *shadowmap.RendererLocal
	shadowDirectional *shadowmap.RendererDirectional
	lightAtlas        *atlas.LightTextureAtlas
	clusters          *cluster.WorldClustersAllocator

	skinPool    worker.DynamicWorkerPool
	skinWorkers int

	atlasSize  int
	clusterCfg cluster.Config

	scratch      *frameScratch
	stats        FrameStats
	shadersDirty bool
}

// Renderer drives the per-frame visibility sequence: BeginFrame resets
// transient state and runs the CPU skin pre-pass, CullComposition walks the
// composition's render actions culling lights and drawables, schedules shadow
// renders, and EndFrame retires one-shot shadow updates after submission.
type Renderer interface {
	// BeginFrame resets per-frame state for every drawable and light reachable
	// from the composition: drawable visibility flags are cleared, skinned
	// drawables get a CPU pose update so culling sees current bounds, the light
	// list is rebuilt, and each light's transient state is reset.
	//
	// Parameters:
	//   - comp: the layer composition being prepared
	BeginFrame(comp layer.Composition)

	// CollectLights rebuilds the unique light list and its non-directional
	// subset by scanning the composition's layers once. Runs inside BeginFrame;
	// call directly after structural layer changes mid-frame.
	//
	// Parameters:
	//   - comp: the layer composition to scan
	CollectLights(comp layer.Composition)

	// Lights returns the unique lights collected from the composition.
	Lights() []light.Light

	// LocalLights returns the non-directional subset of Lights.
	LocalLights() []light.Light

	// CullLights frustum-tests the given non-directional lights against one
	// camera, marking survivors visible and recording their projected screen
	// size. Under non-clustered lighting, a shadow-casting light with no shadow
	// map yet is forced visible even when culled, so a first render happens
	// before any shader samples its map.
	//
	// Parameters:
	//   - cam: the camera whose frustum tests the lights
	//   - lights: the non-directional lights to test
	CullLights(cam camera.Camera, lights []light.Light)

	// Cull partitions a layer's drawables into the opaque and transparent
	// buckets for one camera, flagging visible drawables and collecting
	// skinned or morphed ones into the GPU-update set.
	//
	// Parameters:
	//   - cam: the viewing camera
	//   - drawCalls: the layer's drawables
	//   - culled: the layer's cull buckets for this camera
	Cull(cam camera.Camera, drawCalls []mesh.MeshInstance, culled *layer.CulledInstances)

	// CullComposition runs the full visibility pass over the composition's
	// render actions: per-camera frustum refresh on first use, light and
	// drawable culling per action, atlas and cluster updates under clustered
	// lighting, and finally shadow scheduling.
	//
	// Parameters:
	//   - comp: the layer composition to cull
	CullComposition(comp layer.Composition)

	// UpdateShaders clears cached shader variants on the drawables' materials,
	// visiting each material once.
	//
	// Parameters:
	//   - drawCalls: the drawables whose materials are refreshed
	//   - onlyLitShaders: skip materials that do not use lighting
	UpdateShaders(drawCalls []mesh.MeshInstance, onlyLitShaders bool)

	// MarkShadersDirty schedules a lit-shader variant refresh for the next
	// BeginFrame. Called when global light state changed.
	MarkShadersDirty()

	// ProcessingMeshInstances returns the drawables needing a skin or morph
	// GPU upload this frame, in first-seen order. Valid between CullComposition
	// and the next BeginFrame; the external update pass consumes it once.
	ProcessingMeshInstances() []mesh.MeshInstance

	// EndFrame retires the shadow renders scheduled this frame: lights in
	// one-shot THISFRAME mode drop to NONE. Call after draw submission.
	EndFrame()

	// Stats returns the counters accumulated since BeginFrame.
	Stats() FrameStats

	// ShadowAtlas returns the clustered light atlas, or nil when clustered
	// lighting is disabled.
	ShadowAtlas() *atlas.LightTextureAtlas

	// Clusters returns the cluster allocator, or nil when clustered lighting
	// is disabled.
	Clusters() *cluster.WorldClustersAllocator

	// Destroy releases the atlas, pooled shadow maps and worker pool.
	Destroy()
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a visibility renderer for the given device.
//
// Parameters:
//   - dev: the device capability surface and texture allocator (must not be nil)
//   - opts: variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(dev device.Device, opts ...RendererBuilderOption) Renderer {
	if dev == nil {
		panic("renderer: NewRenderer requires a non-nil device")
	}
	r := &rendererImpl{
		dev:           dev,
		processingSet: make(map[mesh.MeshInstance]struct{}),
		scratch:       newFrameScratch(),
		skinWorkers:   max(runtime.NumCPU()-1, 1),
		atlasSize:     2048,
		clusterCfg:    cluster.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.clustered {
		r.shadowCache = shadowmap.NewCache(dev)
		r.lightAtlas = atlas.NewLightTextureAtlas(dev, r.atlasSize)
		r.clusters = cluster.NewWorldClustersAllocator(r.clusterCfg)
	}
	r.shadowLocal = shadowmap.NewRendererLocal(dev, r.shadowCache)
	r.shadowDirectional = shadowmap.NewRendererDirectional(dev, r.shadowCache)

	// Queue size of 256 accommodates typical skinned-instance counts with headroom.
	r.skinPool = worker.NewDynamicWorkerPool(r.skinWorkers, 256, 1*time.Second)

	logger.Log.Debug("renderer created",
		zap.Bool("clustered", r.clustered),
		zap.Int("skinWorkers", r.skinWorkers),
	)
	return r
}

func (r *rendererImpl) BeginFrame(comp layer.Composition) {
	r.stats = FrameStats{}
	r.shadowLocal.ResetStats()
	r.shadowDirectional.ResetStats()

	// Clear drawable visibility and gather the skinned set, visiting shared
	// layers once.
	clear(r.scratch.visitedLayers)
	var skinned []mesh.MeshInstance
	for _, l := range comp.Layers() {
		if _, seen := r.scratch.visitedLayers[l]; seen {
			continue
		}
		r.scratch.visitedLayers[l] = struct{}{}
		for _, mi := range l.MeshInstances() {
			mi.SetVisibleThisFrame(false)
			if mi.Skin() != nil {
				skinned = append(skinned, mi)
			}
		}
	}

	r.updateSkins(skinned)

	r.CollectLights(comp)
	for _, lt := range r.lights {
		lt.BeginFrame()
	}

	if r.shadersDirty {
		for _, l := range comp.Layers() {
			r.UpdateShaders(l.MeshInstances(), true)
		}
		r.shadersDirty = false
	}
}

// updateSkins runs the CPU skin pre-pass on the worker pool: each skinned
// drawable's joint palette and pose bounds are refreshed so this frame's
// culling sees the current pose, not last frame's.
func (r *rendererImpl) updateSkins(skinned []mesh.MeshInstance) {
	if len(skinned) == 0 {
		return
	}

	// WaitGroup barrier per frame; pool workers persist across frames.
	var wg sync.WaitGroup
	for i, mi := range skinned {
		wg.Add(1)
		miCap := mi
		r.skinPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				skin := miCap.Skin()
				skin.UpdateMatrices()
				miCap.SetWorldBounds(skin.PoseBounds())
				return nil, nil
			},
		})
	}
	wg.Wait()
	r.stats.SkinsUpdated = len(skinned)
}

func (r *rendererImpl) CollectLights(comp layer.Composition) {
	r.lights = r.lights[:0]
	r.localLights = r.localLights[:0]

	clear(r.scratch.visitedLayers)
	clear(r.scratch.visitedLights)
	for _, l := range comp.Layers() {
		if _, seen := r.scratch.visitedLayers[l]; seen {
			continue
		}
		r.scratch.visitedLayers[l] = struct{}{}
		for _, lt := range l.Lights() {
			if _, seen := r.scratch.visitedLights[lt]; seen {
				continue
			}
			r.scratch.visitedLights[lt] = struct{}{}
			r.lights = append(r.lights, lt)
			if lt.Type() != light.TypeDirectional {
				r.localLights = append(r.localLights, lt)
			}
		}
	}
}

func (r *rendererImpl) Lights() []light.Light      { return r.lights }
func (r *rendererImpl) LocalLights() []light.Light { return r.localLights }

func (r *rendererImpl) CullLights(cam camera.Camera, lights []light.Light) {
	for _, lt := range lights {
		if !lt.Enabled() || lt.Type() == light.TypeDirectional {
			continue
		}

		sphere := lt.BoundingSphere()
		if cam.Frustum().ContainsSphere(sphere) {
			lt.SetVisibleThisFrame(true)
			lt.RecordScreenSize(cam.ScreenSize(sphere))
			lt.SetUsePhysicalUnits(r.physicalUnits)
			continue
		}

		// Never-rendered shadow maps must render at least once before a shader
		// can sample them; under non-clustered lighting only visible lights
		// reach the shadow pass, so force visibility here.
		if !r.clustered && lt.CastShadows() && lt.ShadowMap() == nil {
			lt.SetVisibleThisFrame(true)
		}
	}
}

func (r *rendererImpl) Cull(cam camera.Camera, drawCalls []mesh.MeshInstance, culled *layer.CulledInstances) {
	culled.Clear()
	frustum := cam.Frustum()
	cullEnabled := cam.FrustumCulling()

	for _, mi := range drawCalls {
		if !mi.Visible() {
			continue
		}
		if cullEnabled && mi.CullAllowed() && !frustum.ContainsBox(mi.WorldBounds()) {
			continue
		}

		if !mi.VisibleThisFrame() {
			mi.SetVisibleThisFrame(true)
			r.stats.InstancesVisible++
			if mi.NeedsGPUUpdate() {
				if _, seen := r.processingSet[mi]; !seen {
					r.processingSet[mi] = struct{}{}
					r.processingList = append(r.processingList, mi)
				}
			}
		}

		if mi.Transparent() {
			culled.Transparent = append(culled.Transparent, mi)
		} else {
			culled.Opaque = append(culled.Opaque, mi)
		}
	}
}

func (r *rendererImpl) CullComposition(comp layer.Composition) {
	// The GPU-update set is cleared exactly once per frame, here, and consumed
	// once by the external update pass.
	clear(r.processingSet)
	r.processingList = r.processingList[:0]

	actions := comp.RenderActions()

	for _, action := range actions {
		if !action.Layer.Enabled() || !comp.SubLayerEnabled(action.SubLayerIndex) {
			continue
		}
		cam := action.Camera

		if action.FirstCameraUse {
			cam.UpdateFrustum()
			r.stats.CamerasRendered++
		}

		r.CullLights(cam, action.Layer.Lights())

		action.Layer.PreCull(cam)
		r.Cull(cam, action.Layer.MeshInstances(), action.Layer.CulledInstances(cam))
		action.Layer.PostCull(cam)
	}

	for _, lt := range r.localLights {
		if lt.VisibleThisFrame() {
			r.stats.LightsVisible++
		}
	}

	// Atlas sizing must see actual visibility (after light culling) and run
	// before shadow scheduling so a slot reassignment can still force a
	// this-frame shadow render.
	if r.clustered {
		r.updateClustered()
	}

	r.cullShadowmaps(comp)
}

// updateClustered refreshes the light atlas and the cluster grid from the
// visible local lights.
func (r *rendererImpl) updateClustered() {
	var atlasLights []light.Light
	r.scratch.spheres = r.scratch.spheres[:0]
	for _, lt := range r.localLights {
		if !lt.VisibleThisFrame() {
			continue
		}
		r.scratch.spheres = append(r.scratch.spheres, lt.BoundingSphere())
		if lt.CastShadows() || lt.Cookie() != nil {
			atlasLights = append(atlasLights, lt)
		}
	}
	r.lightAtlas.Update(atlasLights)
	r.clusters.Update(r.scratch.spheres)
}

func (r *rendererImpl) cullShadowmaps(comp layer.Composition) {
	r.scratch.scheduledShadows = r.scratch.scheduledShadows[:0]

	for _, lt := range r.localLights {
		if !lt.CastShadows() {
			continue
		}

		if r.clustered {
			// A reassigned atlas slot points at stale texels; force a render.
			if lt.AtlasSlotUpdated() && lt.ShadowUpdateMode() == light.ShadowUpdateNone {
				lt.SetShadowUpdateMode(light.ShadowUpdateThisFrame)
			}
		} else if lt.ShadowMap() == nil && lt.ShadowUpdateMode() == light.ShadowUpdateNone {
			lt.SetShadowUpdateMode(light.ShadowUpdateThisFrame)
		}

		if !lt.VisibleThisFrame() || lt.ShadowUpdateMode() == light.ShadowUpdateNone {
			continue
		}

		r.gatherCasterCandidates(comp, lt)
		r.shadowLocal.CullShadowCasters(lt, r.scratch.casters)
		r.scratch.scheduledShadows = append(r.scratch.scheduledShadows, lt)
		r.stats.ShadowRendersScheduled++
	}

	r.cullDirectionalShadowmaps(comp)
}

// cullDirectionalShadowmaps fills each render action's directional-light list
// and schedules cascade culling once per (camera, light). A light shared by
// several of a camera's layers appears exactly once in that camera's action.
func (r *rendererImpl) cullDirectionalShadowmaps(comp layer.Composition) {
	actions := comp.RenderActions()
	for _, action := range actions {
		action.Reset()
	}

	for _, action := range actions {
		if !action.FirstCameraUse {
			continue
		}
		if !action.Layer.Enabled() || !comp.SubLayerEnabled(action.SubLayerIndex) {
			continue
		}
		cam := action.Camera

		clear(r.scratch.visitedLights)
		for _, l := range comp.Layers() {
			if !l.Enabled() || !containsCamera(l.Cameras(), cam) {
				continue
			}
			for _, lt := range l.Lights() {
				if lt.Type() != light.TypeDirectional || !lt.Enabled() {
					continue
				}
				if _, seen := r.scratch.visitedLights[lt]; seen {
					continue
				}
				r.scratch.visitedLights[lt] = struct{}{}
				action.DirectionalLights = append(action.DirectionalLights, lt)

				if !lt.CastShadows() || lt.ShadowUpdateMode() == light.ShadowUpdateNone {
					continue
				}
				r.gatherCasterCandidates(comp, lt)
				r.shadowDirectional.CullShadowCasters(lt, cam, r.scratch.casters)
				r.scratch.scheduledShadows = append(r.scratch.scheduledShadows, lt)
				r.stats.ShadowRendersScheduled++
			}
		}
	}
}

// gatherCasterCandidates refills the scratch caster buffer with the drawables
// of every enabled layer containing the light. The buffer is valid until the
// next call.
func (r *rendererImpl) gatherCasterCandidates(comp layer.Composition, lt light.Light) {
	r.scratch.casters = r.scratch.casters[:0]
	for _, l := range comp.Layers() {
		if !l.Enabled() || !containsLight(l.Lights(), lt) {
			continue
		}
		r.scratch.casters = append(r.scratch.casters, l.MeshInstances()...)
	}
}

func (r *rendererImpl) UpdateShaders(drawCalls []mesh.MeshInstance, onlyLitShaders bool) {
	clear(r.scratch.visitedMaterials)
	for _, mi := range drawCalls {
		mat := mi.Material()
		if mat == nil {
			continue
		}
		if _, seen := r.scratch.visitedMaterials[mat]; seen {
			continue
		}
		r.scratch.visitedMaterials[mat] = struct{}{}
		if onlyLitShaders && !mat.UseLighting() {
			continue
		}
		mat.ClearVariants()
	}
}

func (r *rendererImpl) MarkShadersDirty() { r.shadersDirty = true }

func (r *rendererImpl) ProcessingMeshInstances() []mesh.MeshInstance {
	return r.processingList
}

func (r *rendererImpl) EndFrame() {
	for _, lt := range r.scratch.scheduledShadows {
		if lt.ShadowUpdateMode() == light.ShadowUpdateThisFrame {
			lt.SetShadowUpdateMode(light.ShadowUpdateNone)
		}
	}
	r.scratch.scheduledShadows = r.scratch.scheduledShadows[:0]
}

func (r *rendererImpl) Stats() FrameStats { return r.stats }

func (r *rendererImpl) ShadowAtlas() *atlas.LightTextureAtlas     { return r.lightAtlas }
func (r *rendererImpl) Clusters() *cluster.WorldClustersAllocator { return r.clusters }

func (r *rendererImpl) Destroy() {
	if r.lightAtlas != nil {
		r.lightAtlas.Destroy()
		r.lightAtlas = nil
	}
	if r.shadowCache != nil {
		r.shadowCache.Destroy()
		r.shadowCache = nil
	}
}

func containsCamera(cams []camera.Camera, cam camera.Camera) bool {
	for _, existing := range cams {
		if existing == cam {
			return true
		}
	}
	return false
}

func containsLight(lights []light.Light, lt light.Light) bool {
	for _, existing := range lights {
		if existing == lt {
			return true
		}
	}
	return false
}
