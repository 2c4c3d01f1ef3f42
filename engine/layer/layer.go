package layer

import (
	"sync/atomic"

	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
)

var layerCount int64

// CullHook runs around a layer's drawable cull for one camera. Layers use
// hooks for effects that need to mutate their drawable set per camera, such
// as impostor swaps or LOD selection.
type CullHook func(cam camera.Camera)

// CulledInstances is one layer's per-camera cull result: drawables that
// survived frustum culling, partitioned into opaque and transparent buckets
// in stable insertion order. Submission ordering is applied later with the
// mesh package's comparators.
type CulledInstances struct {
	// Opaque holds the visible non-transparent drawables.
	Opaque []mesh.MeshInstance

	// Transparent holds the visible transparent drawables.
	Transparent []mesh.MeshInstance
}

// Clear empties both buckets, retaining capacity for the next cull pass.
func (c *CulledInstances) Clear() {
	c.Opaque = c.Opaque[:0]
	c.Transparent = c.Transparent[:0]
}

// layerImpl is the concrete Layer. It registers itself as a key observer on
// every added light so feature-key changes mark the cached light ordering
// stale without the light holding a layer pointer.
type layerImpl struct {
	id      int
	name    string
	enabled bool

	meshInstances []mesh.MeshInstance
	lights        []light.Light
	cameras       []camera.Camera

	culled map[camera.Camera]*CulledInstances

	preCull  CullHook
	postCull CullHook

	lightOrderDirty bool
}

// Layer groups drawables, lights and the cameras that render them. A layer
// can be shared by several cameras; the cull results are kept per camera.
type Layer interface {
	// ID returns the unique layer identifier.
	ID() int

	// Name returns the layer name.
	Name() string

	// Enabled returns whether the layer participates in rendering.
	Enabled() bool

	// SetEnabled enables or disables the layer.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// MeshInstances returns the layer's drawables in insertion order.
	MeshInstances() []mesh.MeshInstance

	// AddMeshInstances appends drawables to the layer, skipping ones already present.
	//
	// Parameters:
	//   - instances: the drawables to add
	AddMeshInstances(instances ...mesh.MeshInstance)

	// RemoveMeshInstances removes drawables from the layer.
	//
	// Parameters:
	//   - instances: the drawables to remove
	RemoveMeshInstances(instances ...mesh.MeshInstance)

	// Lights returns the layer's lights in insertion order.
	Lights() []light.Light

	// AddLight adds a light and registers the layer as its key observer. A
	// light already present is not added twice.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light and unregisters the layer as its key observer.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// ClearLights removes all lights.
	ClearLights()

	// Cameras returns the cameras rendering this layer in insertion order.
	Cameras() []camera.Camera

	// AddCamera adds a camera to the layer if not already present.
	//
	// Parameters:
	//   - cam: the camera to add
	AddCamera(cam camera.Camera)

	// RemoveCamera removes a camera and drops its cull results.
	//
	// Parameters:
	//   - cam: the camera to remove
	RemoveCamera(cam camera.Camera)

	// CulledInstances returns this layer's cull buckets for one camera,
	// creating them on first use. The same camera always maps to the same
	// buckets.
	//
	// Parameters:
	//   - cam: the viewing camera
	//
	// Returns:
	//   - *CulledInstances: the camera's cull buckets
	CulledInstances(cam camera.Camera) *CulledInstances

	// SetPreCullHook installs a hook run before this layer's drawable cull.
	//
	// Parameters:
	//   - hook: the hook, or nil to remove
	SetPreCullHook(hook CullHook)

	// SetPostCullHook installs a hook run after this layer's drawable cull.
	//
	// Parameters:
	//   - hook: the hook, or nil to remove
	SetPostCullHook(hook CullHook)

	// PreCull runs the pre-cull hook if one is installed.
	//
	// Parameters:
	//   - cam: the camera about to cull this layer
	PreCull(cam camera.Camera)

	// PostCull runs the post-cull hook if one is installed.
	//
	// Parameters:
	//   - cam: the camera that just culled this layer
	PostCull(cam camera.Camera)

	// InvalidateLightOrder marks the cached light ordering stale. Called by
	// lights whose shader feature key changed.
	InvalidateLightOrder()

	// ConsumeLightOrderDirty reports and clears the stale-ordering flag.
	//
	// Returns:
	//   - bool: true if the light ordering was stale since the last call
	ConsumeLightOrderDirty() bool

	// Destroy unregisters the layer from all of its lights.
	Destroy()
}

var _ Layer = &layerImpl{}
var _ light.KeyObserver = &layerImpl{}

// NewLayer creates a layer with the provided options applied.
//
// Parameters:
//   - opts: variadic list of LayerBuilderOption functions to configure the layer
//
// Returns:
//   - Layer: the new layer
func NewLayer(opts ...LayerBuilderOption) Layer {
	l := &layerImpl{
		id:      int(atomic.AddInt64(&layerCount, 1)),
		enabled: true,
		culled:  make(map[camera.Camera]*CulledInstances),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *layerImpl) ID() int      { return l.id }
func (l *layerImpl) Name() string { return l.name }

func (l *layerImpl) Enabled() bool { return l.enabled }

func (l *layerImpl) SetEnabled(enabled bool) { l.enabled = enabled }

func (l *layerImpl) MeshInstances() []mesh.MeshInstance { return l.meshInstances }

func (l *layerImpl) AddMeshInstances(instances ...mesh.MeshInstance) {
	for _, mi := range instances {
		if l.hasMeshInstance(mi) {
			continue
		}
		l.meshInstances = append(l.meshInstances, mi)
	}
}

func (l *layerImpl) RemoveMeshInstances(instances ...mesh.MeshInstance) {
	for _, mi := range instances {
		for i, existing := range l.meshInstances {
			if existing == mi {
				l.meshInstances = append(l.meshInstances[:i], l.meshInstances[i+1:]...)
				break
			}
		}
	}
}

func (l *layerImpl) hasMeshInstance(mi mesh.MeshInstance) bool {
	for _, existing := range l.meshInstances {
		if existing == mi {
			return true
		}
	}
	return false
}

func (l *layerImpl) Lights() []light.Light { return l.lights }

func (l *layerImpl) AddLight(lt light.Light) {
	for _, existing := range l.lights {
		if existing == lt {
			return
		}
	}
	l.lights = append(l.lights, lt)
	lt.AddKeyObserver(l)
	l.lightOrderDirty = true
}

func (l *layerImpl) RemoveLight(lt light.Light) {
	for i, existing := range l.lights {
		if existing == lt {
			l.lights = append(l.lights[:i], l.lights[i+1:]...)
			lt.RemoveKeyObserver(l)
			l.lightOrderDirty = true
			return
		}
	}
}

func (l *layerImpl) ClearLights() {
	for _, lt := range l.lights {
		lt.RemoveKeyObserver(l)
	}
	l.lights = l.lights[:0]
	l.lightOrderDirty = true
}

func (l *layerImpl) Cameras() []camera.Camera { return l.cameras }

func (l *layerImpl) AddCamera(cam camera.Camera) {
	for _, existing := range l.cameras {
		if existing == cam {
			return
		}
	}
	l.cameras = append(l.cameras, cam)
}

func (l *layerImpl) RemoveCamera(cam camera.Camera) {
	for i, existing := range l.cameras {
		if existing == cam {
			l.cameras = append(l.cameras[:i], l.cameras[i+1:]...)
			delete(l.culled, cam)
			return
		}
	}
}

func (l *layerImpl) CulledInstances(cam camera.Camera) *CulledInstances {
	ci, ok := l.culled[cam]
	if !ok {
		ci = &CulledInstances{}
		l.culled[cam] = ci
	}
	return ci
}

func (l *layerImpl) SetPreCullHook(hook CullHook)  { l.preCull = hook }
func (l *layerImpl) SetPostCullHook(hook CullHook) { l.postCull = hook }

func (l *layerImpl) PreCull(cam camera.Camera) {
	if l.preCull != nil {
		l.preCull(cam)
	}
}

func (l *layerImpl) PostCull(cam camera.Camera) {
	if l.postCull != nil {
		l.postCull(cam)
	}
}

func (l *layerImpl) InvalidateLightOrder() { l.lightOrderDirty = true }

func (l *layerImpl) ConsumeLightOrderDirty() bool {
	dirty := l.lightOrderDirty
	l.lightOrderDirty = false
	return dirty
}

func (l *layerImpl) Destroy() {
	for _, lt := range l.lights {
		lt.RemoveKeyObserver(l)
	}
	l.lights = nil
	l.meshInstances = nil
	l.cameras = nil
	l.culled = nil
}
