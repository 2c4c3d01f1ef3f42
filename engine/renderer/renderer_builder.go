package renderer

import (
	"github.com/lumen3d/lumen/engine/renderer/cluster"
)

// RendererBuilderOption is a function that modifies a renderer during construction.
type RendererBuilderOption func(*rendererImpl)

// WithClusteredLighting is an option builder that enables clustered lighting:
// visible local lights share a shadow/cookie atlas and a world cluster grid
// instead of per-light shadow maps.
//
// Parameters:
//   - enabled: true to enable clustered lighting
//
// Returns:
//   - RendererBuilderOption: a function that applies the clustered option to a renderer
func WithClusteredLighting(enabled bool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.clustered = enabled
	}
}

// WithPhysicalUnits is an option builder that makes culled lights interpret
// their intensity in physical units (lumens / lux).
//
// Parameters:
//   - enabled: true to use physical light units
//
// Returns:
//   - RendererBuilderOption: a function that applies the units option to a renderer
func WithPhysicalUnits(enabled bool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.physicalUnits = enabled
	}
}

// WithShadowAtlasSize is an option builder that sets the clustered shadow
// atlas edge length in texels.
//
// Parameters:
//   - size: the atlas edge length
//
// Returns:
//   - RendererBuilderOption: a function that applies the atlas size to a renderer
func WithShadowAtlasSize(size int) RendererBuilderOption {
	return func(r *rendererImpl) {
		if size > 0 {
			r.atlasSize = size
		}
	}
}

// WithClusterConfig is an option builder that sets the cluster grid dimensions.
//
// Parameters:
//   - cfg: the grid configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the cluster config to a renderer
func WithClusterConfig(cfg cluster.Config) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.clusterCfg = cfg
	}
}

// WithSkinWorkers is an option builder that sets the worker count for the CPU
// skin pre-pass pool. Defaults to NumCPU-1.
//
// Parameters:
//   - workers: the number of pool workers (minimum 1)
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count to a renderer
func WithSkinWorkers(workers int) RendererBuilderOption {
	return func(r *rendererImpl) {
		if workers > 0 {
			r.skinWorkers = workers
		}
	}
}
