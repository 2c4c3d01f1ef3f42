package layer

import (
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/light"
)

// RenderAction is one scheduled (camera, layer) pairing within a frame. The
// shadow scheduling pass writes each action's directional-light list; the
// draw-submission stage reads it together with the layer's cull buckets.
type RenderAction struct {
	// Layer is the layer rendered by this action.
	Layer Layer

	// Camera is the viewing camera for this action.
	Camera camera.Camera

	// SubLayerIndex is the index of the (layer, sublayer) entry in the
	// composition that produced this action.
	SubLayerIndex int

	// FirstCameraUse is true on the first action that uses this camera in the
	// composition's action order. Per-camera work such as frustum refresh and
	// directional cascade culling runs exactly once, on this action.
	FirstCameraUse bool

	// DirectionalLights holds the directional lights this action's camera must
	// apply, deduplicated across the camera's layers. Rebuilt by shadow
	// scheduling every frame.
	DirectionalLights []light.Light
}

// Reset clears the per-frame state written by shadow scheduling.
func (ra *RenderAction) Reset() {
	ra.DirectionalLights = ra.DirectionalLights[:0]
}

type compositionImpl struct {
	layers          []Layer
	subLayerEnabled []bool

	renderActions []*RenderAction
	dirty         bool
}

// Composition is an ordered list of layers plus the render actions derived
// from them. Actions are ordered camera-major: all of one camera's layers
// render before the next camera's, cameras ordered by first appearance.
type Composition interface {
	// Layers returns the layers in composition order.
	Layers() []Layer

	// AddLayer appends a layer to the composition.
	//
	// Parameters:
	//   - l: the layer to add
	AddLayer(l Layer)

	// RemoveLayer removes a layer from the composition.
	//
	// Parameters:
	//   - l: the layer to remove
	RemoveLayer(l Layer)

	// SubLayerEnabled returns the enable flag for the composition entry at index.
	//
	// Parameters:
	//   - index: the composition entry index
	//
	// Returns:
	//   - bool: true when the entry renders (false for out-of-range indices)
	SubLayerEnabled(index int) bool

	// SetSubLayerEnabled sets the enable flag for the composition entry at
	// index. Disabling an entry skips it during culling without touching the
	// layer's own enabled state, which may be shared by other compositions.
	//
	// Parameters:
	//   - index: the composition entry index
	//   - enabled: true to render the entry
	SetSubLayerEnabled(index int, enabled bool)

	// RenderActions returns the derived (camera, layer) actions, rebuilding
	// them when the composition structure changed.
	//
	// Returns:
	//   - []*RenderAction: the ordered render actions
	RenderActions() []*RenderAction

	// Cameras returns the unique cameras across all layers, in first-appearance order.
	//
	// Returns:
	//   - []camera.Camera: the unique cameras
	Cameras() []camera.Camera

	// MarkDirty forces a render action rebuild on the next RenderActions call.
	// Layer camera or membership changes made behind the composition's back
	// must be followed by MarkDirty.
	MarkDirty()
}

var _ Composition = &compositionImpl{}

// NewComposition creates an empty composition.
//
// Returns:
//   - Composition: the new composition
func NewComposition() Composition {
	return &compositionImpl{}
}

func (c *compositionImpl) Layers() []Layer { return c.layers }

func (c *compositionImpl) AddLayer(l Layer) {
	c.layers = append(c.layers, l)
	c.subLayerEnabled = append(c.subLayerEnabled, true)
	c.dirty = true
}

func (c *compositionImpl) RemoveLayer(l Layer) {
	for i, existing := range c.layers {
		if existing == l {
			c.layers = append(c.layers[:i], c.layers[i+1:]...)
			c.subLayerEnabled = append(c.subLayerEnabled[:i], c.subLayerEnabled[i+1:]...)
			c.dirty = true
			return
		}
	}
}

func (c *compositionImpl) SubLayerEnabled(index int) bool {
	if index < 0 || index >= len(c.subLayerEnabled) {
		return false
	}
	return c.subLayerEnabled[index]
}

func (c *compositionImpl) SetSubLayerEnabled(index int, enabled bool) {
	if index < 0 || index >= len(c.subLayerEnabled) {
		return
	}
	if c.subLayerEnabled[index] == enabled {
		return
	}
	c.subLayerEnabled[index] = enabled
	c.dirty = true
}

func (c *compositionImpl) RenderActions() []*RenderAction {
	if c.dirty || c.renderActions == nil {
		c.rebuildRenderActions()
		c.dirty = false
	}
	return c.renderActions
}

func (c *compositionImpl) Cameras() []camera.Camera {
	var cams []camera.Camera
	for _, l := range c.layers {
		for _, cam := range l.Cameras() {
			if !containsCamera(cams, cam) {
				cams = append(cams, cam)
			}
		}
	}
	return cams
}

func (c *compositionImpl) MarkDirty() { c.dirty = true }

func (c *compositionImpl) rebuildRenderActions() {
	c.renderActions = c.renderActions[:0]

	for _, cam := range c.Cameras() {
		first := true
		for i, l := range c.layers {
			if !containsCamera(l.Cameras(), cam) {
				continue
			}
			c.renderActions = append(c.renderActions, &RenderAction{
				Layer:          l,
				Camera:         cam,
				SubLayerIndex:  i,
				FirstCameraUse: first,
			})
			first = false
		}
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
