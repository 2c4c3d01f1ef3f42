package light

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/device"
)

// LightBuilderOption is a function that modifies a light during construction.
type LightBuilderOption func(*lightImpl)

// WithEnabled is an option builder that sets the initial enabled state.
//
// Parameters:
//   - enabled: true to enable the light
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a light
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// WithMask is an option builder that sets the light-mask bits.
//
// Parameters:
//   - mask: the mask bits
//
// Returns:
//   - LightBuilderOption: a function that applies the mask option to a light
func WithMask(mask uint32) LightBuilderOption {
	return func(l *lightImpl) {
		l.mask = mask
	}
}

// WithPosition is an option builder that sets the world-space position.
//
// Parameters:
//   - pos: the position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a light
func WithPosition(pos mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = pos
	}
}

// WithDirection is an option builder that sets the emission direction.
//
// Parameters:
//   - dir: the direction (normalized internally, ignored when zero length)
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a light
func WithDirection(dir mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		if dir.Len() > 0 {
			l.direction = dir.Normalize()
		}
	}
}

// WithColor is an option builder that sets the light color.
//
// Parameters:
//   - color: the RGB color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a light
func WithColor(color mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithIntensity is an option builder that sets the artistic intensity multiplier.
//
// Parameters:
//   - intensity: the intensity
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a light
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithLuminance is an option builder that sets the physically based luminance
// used when physical light units are active.
//
// Parameters:
//   - luminance: the luminance in lumens (or lux for directional lights)
//
// Returns:
//   - LightBuilderOption: a function that applies the luminance option to a light
func WithLuminance(luminance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.luminance = luminance
	}
}

// WithAttenuationEnd is an option builder that sets the world-space range for
// omni and spot lights.
//
// Parameters:
//   - end: the attenuation radius
//
// Returns:
//   - LightBuilderOption: a function that applies the attenuation option to a light
func WithAttenuationEnd(end float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.attenuationEnd = end
	}
}

// WithConeAngles is an option builder that sets the spot cone half-angles in degrees.
//
// Parameters:
//   - inner: the inner cone half-angle
//   - outer: the outer cone half-angle
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a light
func WithConeAngles(inner, outer float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerConeAngle = inner
		l.outerConeAngle = outer
	}
}

// WithFalloffMode is an option builder that sets the distance attenuation curve.
//
// Parameters:
//   - mode: the falloff mode
//
// Returns:
//   - LightBuilderOption: a function that applies the falloff option to a light
func WithFalloffMode(mode FalloffMode) LightBuilderOption {
	return func(l *lightImpl) {
		l.falloffMode = mode
	}
}

// WithShape is an option builder that sets the area emitter shape.
//
// Parameters:
//   - s: the shape
//
// Returns:
//   - LightBuilderOption: a function that applies the shape option to a light
func WithShape(s Shape) LightBuilderOption {
	return func(l *lightImpl) {
		l.shape = s
	}
}

// WithAffectSpecularity is an option builder that sets specular participation.
//
// Parameters:
//   - affect: true to contribute to specular shading
//
// Returns:
//   - LightBuilderOption: a function that applies the specularity option to a light
func WithAffectSpecularity(affect bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.affectSpecularity = affect
	}
}

// WithCastShadows is an option builder that sets the raw shadow-casting flag.
//
// Parameters:
//   - cast: true to request shadow casting
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow flag to a light
func WithCastShadows(cast bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castShadowsRaw = cast
	}
}

// WithShadowType is an option builder that requests a shadow filtering type.
// The request passes through the capability fallback chain after all options
// run, so the constructed light may hold a downgraded type.
//
// Parameters:
//   - st: the requested shadow type
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow type to a light
func WithShadowType(st ShadowType) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowType = st
	}
}

// WithShadowResolution is an option builder that sets the shadow map
// resolution, clamped to the device's texture size limits.
//
// Parameters:
//   - resolution: the requested resolution in texels
//
// Returns:
//   - LightBuilderOption: a function that applies the resolution to a light
func WithShadowResolution(resolution int) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowResolution = common.Clamp(resolution, 1, l.maxShadowResolution())
	}
}

// WithShadowBias is an option builder that sets the depth bias.
//
// Parameters:
//   - bias: the shadow depth bias
//
// Returns:
//   - LightBuilderOption: a function that applies the bias to a light
func WithShadowBias(bias float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowBias = bias
	}
}

// WithNormalOffsetBias is an option builder that sets the normal offset bias.
//
// Parameters:
//   - bias: the normal offset bias
//
// Returns:
//   - LightBuilderOption: a function that applies the bias to a light
func WithNormalOffsetBias(bias float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.normalOffsetBias = bias
	}
}

// WithShadowDistance is an option builder that sets the directional shadow
// coverage distance.
//
// Parameters:
//   - distance: the shadow distance from the viewing camera
//
// Returns:
//   - LightBuilderOption: a function that applies the distance to a light
func WithShadowDistance(distance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowDistance = distance
	}
}

// WithShadowIntensity is an option builder that sets the shadow darkness, 0 to 1.
//
// Parameters:
//   - intensity: the shadow intensity
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity to a light
func WithShadowIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowIntensity = common.Clamp(intensity, 0, 1)
	}
}

// WithShadowUpdateMode is an option builder that sets the initial shadow
// update mode.
//
// Parameters:
//   - mode: the update mode
//
// Returns:
//   - LightBuilderOption: a function that applies the mode to a light
func WithShadowUpdateMode(mode ShadowUpdateMode) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowUpdateMode = mode
	}
}

// WithNumCascades is an option builder that sets the directional cascade
// count, clamped to 1 through 4.
//
// Parameters:
//   - n: the cascade count
//
// Returns:
//   - LightBuilderOption: a function that applies the cascade count to a light
func WithNumCascades(n int) LightBuilderOption {
	return func(l *lightImpl) {
		l.numCascades = common.Clamp(n, 1, maxCascades)
	}
}

// WithCascadeDistribution is an option builder that sets the cascade split
// distribution, 0 (linear) to 1 (strongly biased towards the camera).
//
// Parameters:
//   - d: the distribution factor
//
// Returns:
//   - LightBuilderOption: a function that applies the distribution to a light
func WithCascadeDistribution(d float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.cascadeDistribution = common.Clamp(d, 0, 1)
	}
}

// WithCookie is an option builder that assigns a projected cookie texture.
//
// Parameters:
//   - tex: the cookie texture
//
// Returns:
//   - LightBuilderOption: a function that applies the cookie to a light
func WithCookie(tex device.Texture) LightBuilderOption {
	return func(l *lightImpl) {
		l.cookie = tex
	}
}

// WithCookieChannel is an option builder that selects the sampled cookie channels.
//
// Parameters:
//   - ch: the channel selector
//
// Returns:
//   - LightBuilderOption: a function that applies the channel option to a light
func WithCookieChannel(ch CookieChannel) LightBuilderOption {
	return func(l *lightImpl) {
		l.cookieChannel = ch
	}
}

// WithPhysicalUnits is an option builder that switches the light's intensity
// interpretation to physical units.
//
// Parameters:
//   - physical: true to interpret intensity via luminance
//
// Returns:
//   - LightBuilderOption: a function that applies the units option to a light
func WithPhysicalUnits(physical bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.usePhysicalUnits = physical
	}
}
