// package light implements per-light configuration, the derived shader-feature
// key, and the state machine governing shadow-map and atlas-slot validity.
// A light never renders anything itself; it decides what must be re-rendered
// and caches the per-(camera, face) data shadow passes consume.
package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lumen3d/lumen/common"
	"github.com/lumen3d/lumen/engine/camera"
	"github.com/lumen3d/lumen/engine/device"
)

// Type identifies the kind of light source.
type Type int

const (
	// TypeDirectional represents a light with no position, only direction.
	// Directional lights are visible whenever enabled and shadow through
	// per-camera cascades.
	TypeDirectional Type = iota

	// TypeOmni represents a light that emits in all directions from a position.
	// Omni shadows render through six cube faces.
	TypeOmni

	// TypeSpot represents a light that emits in a cone from a position along a
	// direction. Spot shadows render through a single perspective face.
	TypeSpot
)

// Shape identifies the emitter geometry used for area lighting.
type Shape int

const (
	// ShapePunctual is a dimensionless emitter (the default).
	ShapePunctual Shape = iota

	// ShapeRect is a rectangular area emitter.
	ShapeRect

	// ShapeDisk is a disk area emitter.
	ShapeDisk

	// ShapeSphere is a spherical area emitter.
	ShapeSphere
)

// FalloffMode selects the distance attenuation curve for non-directional lights.
type FalloffMode int

const (
	// FalloffLinear attenuates linearly to zero at the attenuation radius.
	FalloffLinear FalloffMode = iota

	// FalloffInverseSquared attenuates with physically based inverse-square falloff.
	FalloffInverseSquared
)

// ShadowType selects the shadow map storage and filtering technique.
type ShadowType int

const (
	// ShadowPCF3 is 3x3 percentage-closer filtering on a depth map. The
	// universal fallback every device supports.
	ShadowPCF3 ShadowType = iota

	// ShadowVSM8 is a variance shadow map stored in 8-bit color channels.
	ShadowVSM8

	// ShadowVSM16 is a variance shadow map stored in half-float channels.
	// Requires half-float renderable textures.
	ShadowVSM16

	// ShadowVSM32 is a variance shadow map stored in full-float channels.
	// Requires float renderable textures.
	ShadowVSM32

	// ShadowPCF5 is 5x5 hardware-filtered PCF. Requires native depth-shadow
	// sampling.
	ShadowPCF5

	// ShadowPCF1 is single-tap PCF.
	ShadowPCF1

	// ShadowPCSS is percentage-closer soft shadows with contact hardening.
	ShadowPCSS
)

// ShadowUpdateMode governs when a light re-renders its shadow map.
type ShadowUpdateMode int

const (
	// ShadowUpdateNone reuses the cached shadow map. Valid only while a rendered
	// map exists for the current atlas slot and version.
	ShadowUpdateNone ShadowUpdateMode = iota

	// ShadowUpdateThisFrame renders the shadow map exactly once, after which
	// external policy decides the next mode.
	ShadowUpdateThisFrame

	// ShadowUpdateRealtime re-renders the shadow map every visible frame.
	ShadowUpdateRealtime
)

// Light-mask bits controlling which drawables a light affects.
const (
	// MaskAffectDynamic lights non-lightmapped drawables.
	MaskAffectDynamic uint32 = 1

	// MaskAffectLightmapped lights drawables with baked lightmaps.
	MaskAffectLightmapped uint32 = 2

	// MaskBake marks the light as contributing to lightmap baking only.
	MaskBake uint32 = 4
)

// CookieChannel selects which texture channels a cookie samples.
type CookieChannel string

const (
	CookieChannelR   CookieChannel = "r"
	CookieChannelG   CookieChannel = "g"
	CookieChannelB   CookieChannel = "b"
	CookieChannelA   CookieChannel = "a"
	CookieChannelRGB CookieChannel = "rgb"
)

// KeyObserver is notified when a light's shader key changes, invalidating any
// light ordering or grouping caches the observer maintains. Layers register
// themselves as observers; the light never holds a concrete layer reference.
type KeyObserver interface {
	// InvalidateLightOrder marks the observer's light ordering caches stale.
	InvalidateLightOrder()
}

// ShadowMapRef is the light's handle on its shadow map texture set. The
// concrete type lives in the shadow renderer; the light only needs to know
// whether the map belongs to a shared cache and how to release it.
type ShadowMapRef interface {
	// Cached returns true if the map belongs to a shared cache and must not be
	// destroyed by the light.
	Cached() bool

	// Release frees the map's GPU resources. Only called for non-cached maps.
	Release()
}

type lightImpl struct {
	dev device.Device

	lightType Type
	shape     Shape
	mask      uint32
	enabled   bool

	position  mgl32.Vec3
	direction mgl32.Vec3

	color             mgl32.Vec3
	intensity         float32
	luminance         float32
	usePhysicalUnits  bool
	affectSpecularity bool

	attenuationEnd float32 // world-space range for omni and spot
	innerConeAngle float32 // degrees, half-angle
	outerConeAngle float32 // degrees, half-angle
	falloffMode    FalloffMode

	castShadowsRaw      bool
	shadowType          ShadowType
	isVsm               bool
	isPcf               bool
	shadowResolution    int
	shadowBias          float32
	normalOffsetBias    float32
	vsmBias             float32
	vsmBlurSize         int
	shadowDistance      float32
	shadowIntensity     float32
	shadowUpdateMode    ShadowUpdateMode
	numCascades         int
	cascadeDistribution float32

	cookie             device.Texture
	cookieIntensity    float32
	cookieFalloff      bool
	cookieChannel      CookieChannel
	cookieTransform    mgl32.Vec4
	cookieOffset       mgl32.Vec2
	cookieTransformSet bool

	// Atlas state, written by the light texture atlas.
	atlasViewport          common.Rect
	atlasSlotIndex         int
	atlasVersion           uint32
	atlasViewportAllocated bool
	atlasSlotUpdated       bool

	// Per-frame transient state.
	visibleThisFrame bool
	maxScreenSize    float32

	shadowMap  ShadowMapRef
	renderData []*RenderData

	key       ShaderKey
	featureID uint32
	observers []KeyObserver
}

// Light is one light source's full configuration surface plus the state
// machine deciding shadow re-renders. Every setter is a no-op when the new
// value equals the stored one; otherwise shadow-invalidating setters destroy
// the current shadow map and render data and force the update mode towards
// ShadowUpdateThisFrame. Unsupported configurations are remapped silently by
// the documented fallback rules, never surfaced as errors.
type Light interface {
	// Type returns the kind of light source.
	Type() Type

	// SetType changes the light type. Invalidates the shadow map and re-runs
	// shadow-type fallback, since legal shadow types differ per type.
	//
	// Parameters:
	//   - t: the new light type
	SetType(t Type)

	// Shape returns the area emitter shape.
	Shape() Shape

	// SetShape changes the emitter shape. Part of the shader key.
	//
	// Parameters:
	//   - s: the new shape
	SetShape(s Shape)

	// Mask returns the light-mask bits.
	Mask() uint32

	// SetMask changes the light-mask bits. Part of the shader key and the
	// CastShadows derivation.
	//
	// Parameters:
	//   - mask: the new mask bits
	SetMask(mask uint32)

	// Enabled returns whether the light participates in rendering.
	Enabled() bool

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Position returns the world-space position. Meaningless for directional lights.
	Position() mgl32.Vec3

	// SetPosition moves the light. Does not invalidate the shadow map; a moving
	// light that wants an updated shadow uses ShadowUpdateRealtime.
	//
	// Parameters:
	//   - pos: the new position
	SetPosition(pos mgl32.Vec3)

	// Direction returns the normalized light direction. Meaningless for omni lights.
	Direction() mgl32.Vec3

	// SetDirection sets the light direction, normalized internally.
	//
	// Parameters:
	//   - dir: the new direction
	SetDirection(dir mgl32.Vec3)

	// Color returns the linear RGB color.
	Color() mgl32.Vec3

	// SetColor sets the linear RGB color.
	//
	// Parameters:
	//   - c: the new color
	SetColor(c mgl32.Vec3)

	// Intensity returns the scalar intensity multiplier.
	Intensity() float32

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the new intensity
	SetIntensity(intensity float32)

	// Luminance returns the physically based luminous intensity in candela
	// (or lux for directional lights).
	Luminance() float32

	// SetLuminance sets the physical light value. When physical units are
	// active the effective intensity is derived from this.
	//
	// Parameters:
	//   - luminance: the new luminance
	SetLuminance(luminance float32)

	// UsePhysicalUnits returns whether intensity derives from luminance.
	UsePhysicalUnits() bool

	// SetUsePhysicalUnits toggles luminance-driven intensity. Written by the
	// visibility core from scene configuration on every cull pass.
	//
	// Parameters:
	//   - use: true to derive intensity from luminance
	SetUsePhysicalUnits(use bool)

	// EffectiveIntensity returns the intensity actually fed to shaders: the
	// raw intensity, or the luminance converted by light geometry when
	// physical units are active.
	EffectiveIntensity() float32

	// AffectSpecularity returns whether the light contributes specular. Part
	// of the shader key.
	AffectSpecularity() bool

	// SetAffectSpecularity sets the specular contribution flag.
	//
	// Parameters:
	//   - affect: true to contribute specular
	SetAffectSpecularity(affect bool)

	// AttenuationEnd returns the world-space range of the light.
	AttenuationEnd() float32

	// SetAttenuationEnd sets the world-space range.
	//
	// Parameters:
	//   - end: the new range
	SetAttenuationEnd(end float32)

	// InnerConeAngle returns the spot inner cone half-angle in degrees.
	InnerConeAngle() float32

	// SetInnerConeAngle sets the spot inner cone half-angle in degrees.
	//
	// Parameters:
	//   - deg: the new half-angle
	SetInnerConeAngle(deg float32)

	// OuterConeAngle returns the spot outer cone half-angle in degrees.
	OuterConeAngle() float32

	// SetOuterConeAngle sets the spot outer cone half-angle in degrees.
	// Invalidates spot shadows, since the shadow camera fov derives from it.
	//
	// Parameters:
	//   - deg: the new half-angle
	SetOuterConeAngle(deg float32)

	// FalloffMode returns the distance attenuation curve. Part of the shader key.
	FalloffMode() FalloffMode

	// SetFalloffMode sets the distance attenuation curve.
	//
	// Parameters:
	//   - mode: the new falloff mode
	SetFalloffMode(mode FalloffMode)

	// CastShadows returns the derived shadow-casting flag: the raw flag AND
	// mask is not bake-only AND mask is non-zero.
	CastShadows() bool

	// SetCastShadows sets the raw shadow-casting flag.
	//
	// Parameters:
	//   - cast: the raw flag
	SetCastShadows(cast bool)

	// ShadowType returns the stored, post-fallback shadow type.
	ShadowType() ShadowType

	// SetShadowType requests a shadow technique. The stored value is the
	// requested one remapped by the fallback rules: omni lights accept only
	// ShadowPCF3 and ShadowPCSS (everything else becomes ShadowPCF3);
	// ShadowPCF5 needs native depth-shadow sampling or becomes ShadowPCF3;
	// ShadowVSM32 needs float render targets or becomes ShadowVSM16;
	// ShadowVSM16 needs half-float render targets or becomes ShadowVSM8.
	// A change of the stored value invalidates the shadow map.
	//
	// Parameters:
	//   - st: the requested shadow type
	SetShadowType(st ShadowType)

	// IsVsm returns whether the stored shadow type is a variance technique.
	IsVsm() bool

	// IsPcf returns whether the stored shadow type is a PCF technique.
	IsPcf() bool

	// ShadowResolution returns the shadow map resolution in texels.
	ShadowResolution() int

	// SetShadowResolution sets the shadow map resolution, clamped to the
	// device's cube map limit for omni lights and 2D limit otherwise.
	// A change invalidates the shadow map.
	//
	// Parameters:
	//   - resolution: the requested resolution in texels
	SetShadowResolution(resolution int)

	// ShadowBias returns the configured depth bias.
	ShadowBias() float32

	// SetShadowBias sets the configured depth bias.
	//
	// Parameters:
	//   - bias: the new bias
	SetShadowBias(bias float32)

	// NormalOffsetBias returns the normal-offset bias. A transition between
	// zero and non-zero changes the shader key.
	NormalOffsetBias() float32

	// SetNormalOffsetBias sets the normal-offset bias.
	//
	// Parameters:
	//   - bias: the new normal-offset bias
	SetNormalOffsetBias(bias float32)

	// VsmBias returns the variance shadow bias.
	VsmBias() float32

	// SetVsmBias sets the variance shadow bias.
	//
	// Parameters:
	//   - bias: the new VSM bias
	SetVsmBias(bias float32)

	// VsmBlurSize returns the VSM blur kernel size in texels.
	VsmBlurSize() int

	// SetVsmBlurSize sets the VSM blur kernel size.
	//
	// Parameters:
	//   - size: the kernel size in texels
	SetVsmBlurSize(size int)

	// ShadowDistance returns the directional shadow coverage distance.
	ShadowDistance() float32

	// SetShadowDistance sets the directional shadow coverage distance.
	//
	// Parameters:
	//   - distance: the coverage distance in world units
	SetShadowDistance(distance float32)

	// ShadowIntensity returns how strongly shadows darken [0, 1].
	ShadowIntensity() float32

	// SetShadowIntensity sets the shadow darkening factor.
	//
	// Parameters:
	//   - intensity: the darkening factor in [0, 1]
	SetShadowIntensity(intensity float32)

	// ShadowUpdateMode returns the current shadow update mode.
	ShadowUpdateMode() ShadowUpdateMode

	// SetShadowUpdateMode sets the shadow update mode directly. External
	// policy uses this to return a ThisFrame light to None after its render.
	//
	// Parameters:
	//   - mode: the new update mode
	SetShadowUpdateMode(mode ShadowUpdateMode)

	// NumCascades returns the directional cascade count in [1, 4].
	NumCascades() int

	// SetNumCascades sets the directional cascade count, clamped to [1, 4].
	// Part of the shader key; a change invalidates the shadow map.
	//
	// Parameters:
	//   - count: the requested cascade count
	SetNumCascades(count int)

	// CascadeDistribution returns the cascade split skew in [0, 1]: 0 for
	// linear splits, 1 for fully logarithmic.
	CascadeDistribution() float32

	// SetCascadeDistribution sets the cascade split skew.
	//
	// Parameters:
	//   - d: the split skew in [0, 1]
	SetCascadeDistribution(d float32)

	// Cookie returns the projected cookie texture, or nil.
	Cookie() device.Texture

	// SetCookie assigns a cookie texture. Presence is part of the shader key.
	//
	// Parameters:
	//   - tex: the cookie texture, or nil to remove
	SetCookie(tex device.Texture)

	// CookieIntensity returns the cookie blend intensity.
	CookieIntensity() float32

	// SetCookieIntensity sets the cookie blend intensity.
	//
	// Parameters:
	//   - intensity: the blend intensity
	SetCookieIntensity(intensity float32)

	// CookieFalloff returns whether the cookie fades with the spot cone falloff.
	CookieFalloff() bool

	// SetCookieFalloff sets cookie cone-falloff participation. Part of the shader key.
	//
	// Parameters:
	//   - falloff: true to fade the cookie with the cone
	SetCookieFalloff(falloff bool)

	// CookieChannel returns the sampled cookie channels.
	CookieChannel() CookieChannel

	// SetCookieChannel selects the sampled cookie channels. Part of the shader key.
	//
	// Parameters:
	//   - ch: the channel selection
	SetCookieChannel(ch CookieChannel)

	// CookieTransform returns the cookie UV transform (rotation/scale as xy-zw
	// basis vectors) and whether one is set.
	CookieTransform() (mgl32.Vec4, bool)

	// SetCookieTransform sets the cookie UV transform. Presence is part of the
	// shader key.
	//
	// Parameters:
	//   - transform: the UV basis transform
	//   - offset: the UV offset
	SetCookieTransform(transform mgl32.Vec4, offset mgl32.Vec2)

	// ClearCookieTransform removes the cookie UV transform.
	ClearCookieTransform()

	// CookieOffset returns the cookie UV offset.
	CookieOffset() mgl32.Vec2

	// VisibleThisFrame returns whether any cull pass saw this light since BeginFrame.
	VisibleThisFrame() bool

	// SetVisibleThisFrame sets the per-frame visibility flag. Owned by the
	// visibility core.
	//
	// Parameters:
	//   - visible: the new per-frame visibility
	SetVisibleThisFrame(visible bool)

	// MaxScreenSize returns the largest projected screen size recorded across
	// all cameras this frame. Drives shadow resolution selection.
	MaxScreenSize() float32

	// RecordScreenSize folds one camera's projected size into the per-frame maximum.
	//
	// Parameters:
	//   - size: the projected size fraction in [0, 1]
	RecordScreenSize(size float32)

	// BeginFrame resets per-frame transient state: directional lights become
	// visible when enabled, all other lights start invisible pending culling;
	// the screen-size maximum and atlas allocation flags reset.
	BeginFrame()

	// AtlasViewport returns the normalized atlas slot rectangle.
	AtlasViewport() common.Rect

	// SetAtlasViewport stores the atlas slot rectangle. Written by the atlas.
	//
	// Parameters:
	//   - r: the slot rectangle
	SetAtlasViewport(r common.Rect)

	// AtlasSlotIndex returns the atlas slot index.
	AtlasSlotIndex() int

	// AtlasVersion returns the atlas version the slot was allocated under.
	AtlasVersion() uint32

	// SetAtlasSlot stores the slot index and version. Written by the atlas.
	//
	// Parameters:
	//   - index: the slot index
	//   - version: the atlas version
	SetAtlasSlot(index int, version uint32)

	// AtlasViewportAllocated returns whether a slot is allocated this frame.
	AtlasViewportAllocated() bool

	// SetAtlasViewportAllocated marks slot allocation for this frame.
	//
	// Parameters:
	//   - allocated: true if a slot is held this frame
	SetAtlasViewportAllocated(allocated bool)

	// AtlasSlotUpdated returns whether the slot was reassigned this frame.
	// True for exactly the one frame the reassignment occurred.
	AtlasSlotUpdated() bool

	// SetAtlasSlotUpdated marks a slot reassignment. Written by the atlas;
	// reset every BeginFrame.
	//
	// Parameters:
	//   - updated: true if the slot was reassigned this frame
	SetAtlasSlotUpdated(updated bool)

	// NumShadowFaces returns how many shadow views this light renders:
	// cascade count for directional, six for omni, one for spot.
	NumShadowFaces() int

	// GetRenderData returns the cached render data for (camera, face),
	// creating it lazily. Camera identity is ignored for non-directional
	// lights, whose single shadow render is shared by every viewing camera.
	//
	// Parameters:
	//   - cam: the viewing camera (may be nil for non-directional lights)
	//   - face: the shadow face index
	//
	// Returns:
	//   - *RenderData: the unique render data for that (camera, face)
	GetRenderData(cam camera.Camera, face int) *RenderData

	// RenderDataCount returns how many render data entries exist.
	RenderDataCount() int

	// ShadowMap returns the light's shadow map handle, or nil if none rendered.
	ShadowMap() ShadowMapRef

	// SetShadowMap hands the light a shadow map. Replacing a non-cached map
	// releases the previous one.
	//
	// Parameters:
	//   - m: the new shadow map handle, or nil
	SetShadowMap(m ShadowMapRef)

	// BoundingSphere returns the world-space sphere enclosing the light's
	// influence. Spot lights use the minimal enclosing sphere of the cone;
	// omni lights use position + attenuation radius. Directional lights have
	// unbounded influence and return a zero sphere.
	BoundingSphere() common.BoundingSphere

	// BiasValues resolves the (depth bias, normal bias) pair for one shadow
	// view. Directional depth bias scales with that view's shadow camera far
	// clip; variance techniques use a fixed small depth bias.
	//
	// Parameters:
	//   - rd: the render data whose shadow camera provides the far clip
	//
	// Returns:
	//   - float32: the depth bias
	//   - float32: the normal-offset bias
	BiasValues(rd *RenderData) (float32, float32)

	// ShaderKey returns the current shader-feature key.
	ShaderKey() ShaderKey

	// FeatureID returns the packed integer form of the shader key.
	FeatureID() uint32

	// AddKeyObserver registers an observer notified when the shader key changes.
	//
	// Parameters:
	//   - o: the observer to register
	AddKeyObserver(o KeyObserver)

	// RemoveKeyObserver unregisters an observer.
	//
	// Parameters:
	//   - o: the observer to remove
	RemoveKeyObserver(o KeyObserver)

	// Clone returns a new light with identical configuration and no GPU
	// resources: render data, shadow map, atlas state and per-frame state do
	// not carry over.
	Clone() Light

	// Destroy releases all render data and any non-cached shadow map. The
	// light must not be used afterwards.
	Destroy()
}

var _ Light = &lightImpl{}

// NewLight creates a light of the given type with engine defaults applied,
// then the provided options. The device supplies the capability flags the
// shadow-type fallback rules consult.
//
// Parameters:
//   - dev: the device whose capabilities bound shadow configuration (must not be nil)
//   - t: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the new light
func NewLight(dev device.Device, t Type, opts ...LightBuilderOption) Light {
	if dev == nil {
		panic("light: NewLight requires a non-nil device")
	}
	l := &lightImpl{
		dev:                 dev,
		lightType:           t,
		shape:               ShapePunctual,
		mask:                MaskAffectDynamic,
		enabled:             true,
		direction:           mgl32.Vec3{0, -1, 0},
		color:               mgl32.Vec3{1, 1, 1},
		intensity:           1,
		affectSpecularity:   true,
		attenuationEnd:      10,
		innerConeAngle:      40,
		outerConeAngle:      45,
		falloffMode:         FalloffLinear,
		shadowType:          ShadowPCF3,
		isPcf:               true,
		shadowResolution:    1024,
		shadowBias:          0.05,
		vsmBias:             0.01 * 0.25,
		vsmBlurSize:         11,
		shadowDistance:      40,
		shadowIntensity:     1,
		shadowUpdateMode:    ShadowUpdateRealtime,
		numCascades:         1,
		cascadeDistribution: 0.5,
		cookieIntensity:     1,
		cookieChannel:       CookieChannelRGB,
		atlasSlotIndex:      -1,
	}
	for _, opt := range opts {
		opt(l)
	}
	// Re-run fallback in case options requested an unsupported combination.
	l.shadowType = l.resolveShadowType(l.shadowType)
	l.updateShadowTypeDerived()
	l.updateKey()
	return l
}

func (l *lightImpl) Type() Type { return l.lightType }

func (l *lightImpl) SetType(t Type) {
	if l.lightType == t {
		return
	}
	l.lightType = t
	l.destroyShadowMap()
	// Legal shadow types differ per light type; re-run the fallback chain.
	l.shadowType = l.resolveShadowType(l.shadowType)
	l.updateShadowTypeDerived()
	l.updateKey()
}

func (l *lightImpl) Shape() Shape { return l.shape }

func (l *lightImpl) SetShape(s Shape) {
	if l.shape == s {
		return
	}
	l.shape = s
	l.updateKey()
}

func (l *lightImpl) Mask() uint32 { return l.mask }

func (l *lightImpl) SetMask(mask uint32) {
	if l.mask == mask {
		return
	}
	l.mask = mask
	l.updateKey()
}

func (l *lightImpl) Enabled() bool { return l.enabled }

func (l *lightImpl) SetEnabled(enabled bool) {
	if l.enabled == enabled {
		return
	}
	l.enabled = enabled
}

func (l *lightImpl) Position() mgl32.Vec3       { return l.position }
func (l *lightImpl) SetPosition(pos mgl32.Vec3) { l.position = pos }

func (l *lightImpl) Direction() mgl32.Vec3 { return l.direction }

func (l *lightImpl) SetDirection(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	l.direction = dir.Normalize()
}

func (l *lightImpl) Color() mgl32.Vec3     { return l.color }
func (l *lightImpl) SetColor(c mgl32.Vec3) { l.color = c }

func (l *lightImpl) Intensity() float32 { return l.intensity }

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) Luminance() float32 { return l.luminance }

func (l *lightImpl) SetLuminance(luminance float32) {
	l.luminance = luminance
}

func (l *lightImpl) UsePhysicalUnits() bool { return l.usePhysicalUnits }

func (l *lightImpl) SetUsePhysicalUnits(use bool) {
	l.usePhysicalUnits = use
}

func (l *lightImpl) EffectiveIntensity() float32 {
	if l.usePhysicalUnits {
		return l.luminance / l.unitConversion()
	}
	return l.intensity
}

// unitConversion returns the solid-angle factor converting luminous intensity
// into the shader's intensity scale.
func (l *lightImpl) unitConversion() float32 {
	switch l.lightType {
	case TypeSpot:
		falloffEnd := float64(common.CosDeg(l.outerConeAngle))
		falloffStart := float64(common.CosDeg(l.innerConeAngle))
		return float32(2 * math.Pi * ((1 - falloffStart) + (falloffStart-falloffEnd)/2))
	case TypeOmni:
		return float32(4 * math.Pi)
	default:
		return 1
	}
}

func (l *lightImpl) AffectSpecularity() bool { return l.affectSpecularity }

func (l *lightImpl) SetAffectSpecularity(affect bool) {
	if l.affectSpecularity == affect {
		return
	}
	l.affectSpecularity = affect
	l.updateKey()
}

func (l *lightImpl) AttenuationEnd() float32 { return l.attenuationEnd }

func (l *lightImpl) SetAttenuationEnd(end float32) {
	l.attenuationEnd = end
}

func (l *lightImpl) InnerConeAngle() float32 { return l.innerConeAngle }

func (l *lightImpl) SetInnerConeAngle(deg float32) {
	l.innerConeAngle = deg
}

func (l *lightImpl) OuterConeAngle() float32 { return l.outerConeAngle }

func (l *lightImpl) SetOuterConeAngle(deg float32) {
	if l.outerConeAngle == deg {
		return
	}
	l.outerConeAngle = deg
	if l.lightType == TypeSpot {
		// The spot shadow camera fov derives from the cone angle.
		l.destroyShadowMap()
	}
}

func (l *lightImpl) FalloffMode() FalloffMode { return l.falloffMode }

func (l *lightImpl) SetFalloffMode(mode FalloffMode) {
	if l.falloffMode == mode {
		return
	}
	l.falloffMode = mode
	l.updateKey()
}

func (l *lightImpl) CastShadows() bool {
	return l.castShadowsRaw && l.mask != MaskBake && l.mask != 0
}

func (l *lightImpl) SetCastShadows(cast bool) {
	if l.castShadowsRaw == cast {
		return
	}
	l.castShadowsRaw = cast
	l.updateKey()
}

// resolveShadowType applies the deterministic fallback chain to a requested
// shadow type given the current light type and device capabilities.
func (l *lightImpl) resolveShadowType(st ShadowType) ShadowType {
	if l.lightType == TypeOmni && st != ShadowPCF3 && st != ShadowPCSS {
		// Omni shadows only support basic PCF and PCSS.
		st = ShadowPCF3
	}
	if st == ShadowPCF5 && !l.dev.SupportsDepthShadow() {
		st = ShadowPCF3
	}
	if st == ShadowVSM32 && !l.dev.TextureFloatRenderable() {
		st = ShadowVSM16
	}
	if st == ShadowVSM16 && !l.dev.TextureHalfFloatRenderable() {
		st = ShadowVSM8
	}
	return st
}

func (l *lightImpl) updateShadowTypeDerived() {
	l.isVsm = l.shadowType >= ShadowVSM8 && l.shadowType <= ShadowVSM32
	l.isPcf = l.shadowType == ShadowPCF1 || l.shadowType == ShadowPCF3 || l.shadowType == ShadowPCF5
}

func (l *lightImpl) ShadowType() ShadowType { return l.shadowType }

func (l *lightImpl) SetShadowType(st ShadowType) {
	st = l.resolveShadowType(st)
	if l.shadowType == st {
		return
	}
	l.shadowType = st
	l.updateShadowTypeDerived()
	l.destroyShadowMap()
	l.updateKey()
}

func (l *lightImpl) IsVsm() bool { return l.isVsm }
func (l *lightImpl) IsPcf() bool { return l.isPcf }

func (l *lightImpl) ShadowResolution() int { return l.shadowResolution }

// maxShadowResolution returns the device texture size limit that applies to
// this light's shadow map. Omni lights are bounded by the cube map limit.
func (l *lightImpl) maxShadowResolution() int {
	if l.lightType == TypeOmni {
		return l.dev.MaxCubeMapSize()
	}
	return l.dev.MaxTextureSize()
}

func (l *lightImpl) SetShadowResolution(resolution int) {
	resolution = common.Clamp(resolution, 1, l.maxShadowResolution())
	if l.shadowResolution == resolution {
		return
	}
	l.shadowResolution = resolution
	l.destroyShadowMap()
}

func (l *lightImpl) ShadowBias() float32        { return l.shadowBias }
func (l *lightImpl) SetShadowBias(bias float32) { l.shadowBias = bias }

func (l *lightImpl) NormalOffsetBias() float32 { return l.normalOffsetBias }

func (l *lightImpl) SetNormalOffsetBias(bias float32) {
	if l.normalOffsetBias == bias {
		return
	}
	// The shader key tracks only zero versus non-zero.
	keyChanged := (l.normalOffsetBias == 0) != (bias == 0)
	l.normalOffsetBias = bias
	if keyChanged {
		l.updateKey()
	}
}

func (l *lightImpl) VsmBias() float32        { return l.vsmBias }
func (l *lightImpl) SetVsmBias(bias float32) { l.vsmBias = bias }

func (l *lightImpl) VsmBlurSize() int { return l.vsmBlurSize }

func (l *lightImpl) SetVsmBlurSize(size int) {
	l.vsmBlurSize = size
}

func (l *lightImpl) ShadowDistance() float32 { return l.shadowDistance }

func (l *lightImpl) SetShadowDistance(distance float32) {
	l.shadowDistance = distance
}

func (l *lightImpl) ShadowIntensity() float32 { return l.shadowIntensity }

func (l *lightImpl) SetShadowIntensity(intensity float32) {
	l.shadowIntensity = common.Clamp(intensity, 0, 1)
}

func (l *lightImpl) ShadowUpdateMode() ShadowUpdateMode { return l.shadowUpdateMode }

func (l *lightImpl) SetShadowUpdateMode(mode ShadowUpdateMode) {
	l.shadowUpdateMode = mode
}

func (l *lightImpl) NumCascades() int { return l.numCascades }

func (l *lightImpl) SetNumCascades(count int) {
	count = common.Clamp(count, 1, maxCascades)
	if l.numCascades == count {
		return
	}
	l.numCascades = count
	l.destroyShadowMap()
	l.updateKey()
}

func (l *lightImpl) CascadeDistribution() float32 { return l.cascadeDistribution }

func (l *lightImpl) SetCascadeDistribution(d float32) {
	l.cascadeDistribution = common.Clamp(d, 0, 1)
}

func (l *lightImpl) Cookie() device.Texture { return l.cookie }

func (l *lightImpl) SetCookie(tex device.Texture) {
	if l.cookie == tex {
		return
	}
	l.cookie = tex
	l.updateKey()
}

func (l *lightImpl) CookieIntensity() float32 { return l.cookieIntensity }

func (l *lightImpl) SetCookieIntensity(intensity float32) {
	l.cookieIntensity = intensity
}

func (l *lightImpl) CookieFalloff() bool { return l.cookieFalloff }

func (l *lightImpl) SetCookieFalloff(falloff bool) {
	if l.cookieFalloff == falloff {
		return
	}
	l.cookieFalloff = falloff
	l.updateKey()
}

func (l *lightImpl) CookieChannel() CookieChannel { return l.cookieChannel }

func (l *lightImpl) SetCookieChannel(ch CookieChannel) {
	if l.cookieChannel == ch {
		return
	}
	l.cookieChannel = ch
	l.updateKey()
}

func (l *lightImpl) CookieTransform() (mgl32.Vec4, bool) {
	return l.cookieTransform, l.cookieTransformSet
}

func (l *lightImpl) SetCookieTransform(transform mgl32.Vec4, offset mgl32.Vec2) {
	if l.cookieTransformSet && l.cookieTransform == transform && l.cookieOffset == offset {
		return
	}
	wasSet := l.cookieTransformSet
	l.cookieTransform = transform
	l.cookieOffset = offset
	l.cookieTransformSet = true
	if !wasSet {
		l.updateKey()
	}
}

func (l *lightImpl) ClearCookieTransform() {
	if !l.cookieTransformSet {
		return
	}
	l.cookieTransformSet = false
	l.updateKey()
}

func (l *lightImpl) CookieOffset() mgl32.Vec2 { return l.cookieOffset }

func (l *lightImpl) VisibleThisFrame() bool { return l.visibleThisFrame }

func (l *lightImpl) SetVisibleThisFrame(visible bool) {
	l.visibleThisFrame = visible
}

func (l *lightImpl) MaxScreenSize() float32 { return l.maxScreenSize }

func (l *lightImpl) RecordScreenSize(size float32) {
	if size > l.maxScreenSize {
		l.maxScreenSize = size
	}
}

func (l *lightImpl) BeginFrame() {
	l.visibleThisFrame = l.lightType == TypeDirectional && l.enabled
	l.maxScreenSize = 0
	l.atlasViewportAllocated = false
	l.atlasSlotUpdated = false
}

func (l *lightImpl) AtlasViewport() common.Rect     { return l.atlasViewport }
func (l *lightImpl) SetAtlasViewport(r common.Rect) { l.atlasViewport = r }
func (l *lightImpl) AtlasSlotIndex() int            { return l.atlasSlotIndex }
func (l *lightImpl) AtlasVersion() uint32           { return l.atlasVersion }

func (l *lightImpl) SetAtlasSlot(index int, version uint32) {
	l.atlasSlotIndex = index
	l.atlasVersion = version
}

func (l *lightImpl) AtlasViewportAllocated() bool { return l.atlasViewportAllocated }

func (l *lightImpl) SetAtlasViewportAllocated(allocated bool) {
	l.atlasViewportAllocated = allocated
}

func (l *lightImpl) AtlasSlotUpdated() bool { return l.atlasSlotUpdated }

func (l *lightImpl) SetAtlasSlotUpdated(updated bool) {
	l.atlasSlotUpdated = updated
}

func (l *lightImpl) NumShadowFaces() int {
	switch l.lightType {
	case TypeDirectional:
		return l.numCascades
	case TypeOmni:
		return 6
	default:
		return 1
	}
}

func (l *lightImpl) ShadowMap() ShadowMapRef { return l.shadowMap }

func (l *lightImpl) SetShadowMap(m ShadowMapRef) {
	if l.shadowMap == m {
		return
	}
	if l.shadowMap != nil && !l.shadowMap.Cached() {
		l.shadowMap.Release()
	}
	l.shadowMap = m
}

func (l *lightImpl) BoundingSphere() common.BoundingSphere {
	switch l.lightType {
	case TypeSpot:
		// Minimal enclosing sphere of the cone, two closed forms split at a
		// 45 degree half-angle. Exactly 45 degrees takes the narrow branch.
		// Reference: https://bartwronski.com/2017/04/13/cull-that-cone/
		size := l.attenuationEnd
		angle := l.outerConeAngle
		cosAngle := common.CosDeg(angle)
		if angle > 45 {
			return common.BoundingSphere{
				Center: l.position.Add(l.direction.Mul(size * cosAngle)),
				Radius: size * common.SinDeg(angle),
			}
		}
		radius := size / (2 * cosAngle)
		return common.BoundingSphere{
			Center: l.position.Add(l.direction.Mul(radius)),
			Radius: radius,
		}
	case TypeOmni:
		return common.BoundingSphere{Center: l.position, Radius: l.attenuationEnd}
	default:
		return common.BoundingSphere{}
	}
}

func (l *lightImpl) BiasValues(rd *RenderData) (float32, float32) {
	switch l.lightType {
	case TypeOmni:
		return l.shadowBias, l.normalOffsetBias
	case TypeSpot:
		if l.isVsm {
			return vsmFixedBias, l.vsmBias / (l.attenuationEnd / 7.0)
		}
		return l.shadowBias * 20, l.normalOffsetBias
	default:
		// Cascades vary in depth range, so the bias scales with the view's own
		// far clip rather than a device-wide constant.
		farClip := float32(1)
		if rd != nil && rd.ShadowCamera != nil {
			farClip = rd.ShadowCamera.FarClip()
		}
		if l.isVsm {
			return vsmFixedBias, l.vsmBias / (farClip / 7.0)
		}
		return (l.shadowBias / farClip) * 100, l.normalOffsetBias
	}
}

// vsmFixedBias is applied for variance techniques regardless of the configured
// bias: variance filtering handles acne statistically, so only a tiny nudge is
// needed and large configured values would bleed light.
const vsmFixedBias = -0.00001 * 20

// maxCascades is the largest supported directional cascade count.
const maxCascades = 4

func (l *lightImpl) AddKeyObserver(o KeyObserver) {
	for _, existing := range l.observers {
		if existing == o {
			return
		}
	}
	l.observers = append(l.observers, o)
}

func (l *lightImpl) RemoveKeyObserver(o KeyObserver) {
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

func (l *lightImpl) Clone() Light {
	c := &lightImpl{
		dev:                 l.dev,
		lightType:           l.lightType,
		shape:               l.shape,
		mask:                l.mask,
		enabled:             l.enabled,
		position:            l.position,
		direction:           l.direction,
		color:               l.color,
		intensity:           l.intensity,
		luminance:           l.luminance,
		usePhysicalUnits:    l.usePhysicalUnits,
		affectSpecularity:   l.affectSpecularity,
		attenuationEnd:      l.attenuationEnd,
		innerConeAngle:      l.innerConeAngle,
		outerConeAngle:      l.outerConeAngle,
		falloffMode:         l.falloffMode,
		castShadowsRaw:      l.castShadowsRaw,
		shadowType:          l.shadowType,
		isVsm:               l.isVsm,
		isPcf:               l.isPcf,
		shadowResolution:    l.shadowResolution,
		shadowBias:          l.shadowBias,
		normalOffsetBias:    l.normalOffsetBias,
		vsmBias:             l.vsmBias,
		vsmBlurSize:         l.vsmBlurSize,
		shadowDistance:      l.shadowDistance,
		shadowIntensity:     l.shadowIntensity,
		shadowUpdateMode:    l.shadowUpdateMode,
		numCascades:         l.numCascades,
		cascadeDistribution: l.cascadeDistribution,
		cookie:              l.cookie,
		cookieIntensity:     l.cookieIntensity,
		cookieFalloff:       l.cookieFalloff,
		cookieChannel:       l.cookieChannel,
		cookieTransform:     l.cookieTransform,
		cookieOffset:        l.cookieOffset,
		cookieTransformSet:  l.cookieTransformSet,
		atlasSlotIndex:      -1,
	}
	c.updateKey()
	return c
}

func (l *lightImpl) Destroy() {
	l.releaseRenderData()
	if l.shadowMap != nil {
		if !l.shadowMap.Cached() {
			l.shadowMap.Release()
		}
		l.shadowMap = nil
	}
	l.observers = nil
}

// destroyShadowMap is the single funnel for every shadow-invalidating change:
// it drops all render data, releases a non-cached shadow map, and forces a
// ShadowUpdateNone light back to ShadowUpdateThisFrame so at least one
// re-render happens. ShadowUpdateRealtime is already maximal and stays.
func (l *lightImpl) destroyShadowMap() {
	l.releaseRenderData()
	if l.shadowMap != nil {
		if !l.shadowMap.Cached() {
			l.shadowMap.Release()
		}
		l.shadowMap = nil
	}
	if l.shadowUpdateMode == ShadowUpdateNone {
		l.shadowUpdateMode = ShadowUpdateThisFrame
	}
}

func (l *lightImpl) releaseRenderData() {
	for _, rd := range l.renderData {
		rd.destroy()
	}
	l.renderData = l.renderData[:0]
}
