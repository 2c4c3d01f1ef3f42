package layer

import (
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/light"
	"github.com/lumen3d/lumen/engine/mesh"
)

// LayerBuilderOption is a function that modifies a layer during construction.
type LayerBuilderOption func(*layerImpl)

// WithName is an option builder that sets the layer name.
//
// Parameters:
//   - name: the layer name
//
// Returns:
//   - LayerBuilderOption: a function that applies the name option to a layer
func WithName(name string) LayerBuilderOption {
	return func(l *layerImpl) {
		l.name = name
	}
}

// WithEnabled is an option builder that sets the initial enabled state.
//
// Parameters:
//   - enabled: true to enable the layer
//
// Returns:
//   - LayerBuilderOption: a function that applies the enabled option to a layer
func WithEnabled(enabled bool) LayerBuilderOption {
	return func(l *layerImpl) {
		l.enabled = enabled
	}
}

// WithCameras is an option builder that adds cameras to the layer.
//
// Parameters:
//   - cams: the cameras to add
//
// Returns:
//   - LayerBuilderOption: a function that applies the camera option to a layer
func WithCameras(cams ...camera.Camera) LayerBuilderOption {
	return func(l *layerImpl) {
		for _, cam := range cams {
			l.AddCamera(cam)
		}
	}
}

// WithLights is an option builder that adds lights to the layer.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - LayerBuilderOption: a function that applies the light option to a layer
func WithLights(lights ...light.Light) LayerBuilderOption {
	return func(l *layerImpl) {
		for _, lt := range lights {
			l.AddLight(lt)
		}
	}
}

// WithMeshInstances is an option builder that adds drawables to the layer.
//
// Parameters:
//   - instances: the drawables to add
//
// Returns:
//   - LayerBuilderOption: a function that applies the drawable option to a layer
func WithMeshInstances(instances ...mesh.MeshInstance) LayerBuilderOption {
	return func(l *layerImpl) {
		l.AddMeshInstances(instances...)
	}
}
