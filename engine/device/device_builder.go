package device

// HeadlessOption is a function that configures a headless Device during construction.
type HeadlessOption func(*headlessDevice)

// WithDepthShadowSupport is an option builder that sets whether the headless device
// reports native depth-shadow sampling support.
//
// Parameters:
//   - supported: true to report hardware depth-shadow sampling
//
// Returns:
//   - HeadlessOption: a function that applies the option to a headless device
func WithDepthShadowSupport(supported bool) HeadlessOption {
	return func(d *headlessDevice) {
		d.supportsDepthShadow = supported
	}
}

// WithFloatRenderable is an option builder that sets whether the headless device
// reports 32-bit float render target support.
//
// Parameters:
//   - supported: true to report float render target support
//
// Returns:
//   - HeadlessOption: a function that applies the option to a headless device
func WithFloatRenderable(supported bool) HeadlessOption {
	return func(d *headlessDevice) {
		d.textureFloatRenderable = supported
	}
}

// WithHalfFloatRenderable is an option builder that sets whether the headless device
// reports 16-bit half-float render target support.
//
// Parameters:
//   - supported: true to report half-float render target support
//
// Returns:
//   - HeadlessOption: a function that applies the option to a headless device
func WithHalfFloatRenderable(supported bool) HeadlessOption {
	return func(d *headlessDevice) {
		d.textureHalfFloatRenderable = supported
	}
}

// WithMaxTextureSize is an option builder that sets the maximum 2D texture dimension.
//
// Parameters:
//   - size: the maximum 2D texture size in texels
//
// Returns:
//   - HeadlessOption: a function that applies the option to a headless device
func WithMaxTextureSize(size int) HeadlessOption {
	return func(d *headlessDevice) {
		d.maxTextureSize = size
	}
}

// WithMaxCubeMapSize is an option builder that sets the maximum cube map face dimension.
//
// Parameters:
//   - size: the maximum cube map size in texels
//
// Returns:
//   - HeadlessOption: a function that applies the option to a headless device
func WithMaxCubeMapSize(size int) HeadlessOption {
	return func(d *headlessDevice) {
		d.maxCubeMapSize = size
	}
}
