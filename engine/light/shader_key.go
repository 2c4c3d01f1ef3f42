package light

// ShaderKey is the set of light properties that select a lit-shader variant.
// It is a plain struct so callers and tests can read individual fields; the
// packed integer form used as a variant cache key is produced by ToFeatureID.
type ShaderKey struct {
	// Type is the light type.
	Type Type

	// CastShadows is the derived shadow-casting state, not the raw flag.
	CastShadows bool

	// ShadowType is the post-fallback shadow filtering type.
	ShadowType ShadowType

	// Falloff is the distance attenuation curve.
	Falloff FalloffMode

	// NormalOffset is true when the normal offset bias is non-zero.
	NormalOffset bool

	// Cookie is true when a cookie texture is assigned.
	Cookie bool

	// CookieFalloff is true when the cookie fades with the spot cone.
	CookieFalloff bool

	// CookieChannels holds the three sampled cookie channel slots, each 0..3
	// for r, g, b, a. A single-channel cookie repeats its channel in all slots.
	CookieChannels [3]uint8

	// CookieTransform is true when an explicit cookie UV transform is set.
	CookieTransform bool

	// Shape is the area emitter shape.
	Shape Shape

	// NumCascades is the directional cascade count, 1 to 4.
	NumCascades int

	// AffectSpecularity is true when the light contributes to specular terms.
	AffectSpecularity bool

	// Mask holds the light-mask bits.
	Mask uint32
}

// ToFeatureID packs the key into a single integer suitable for indexing a
// shader variant cache. Two keys pack to the same ID exactly when every field
// is equal.
//
// Returns:
//   - uint32: the packed feature ID
func (k ShaderKey) ToFeatureID() uint32 {
	id := uint32(k.Type) & 0x3 // bits 0-1

	if k.CastShadows {
		id |= 1 << 2
	}
	id |= (uint32(k.ShadowType) & 0x7) << 3 // bits 3-5
	id |= (uint32(k.Falloff) & 0x1) << 6

	if k.NormalOffset {
		id |= 1 << 7
	}
	if k.Cookie {
		id |= 1 << 8
	}
	if k.CookieFalloff {
		id |= 1 << 9
	}
	id |= uint32(k.CookieChannels[0]&0x3) << 10
	id |= uint32(k.CookieChannels[1]&0x3) << 12
	id |= uint32(k.CookieChannels[2]&0x3) << 14
	if k.CookieTransform {
		id |= 1 << 16
	}

	id |= (uint32(k.Shape) & 0x3) << 17
	id |= (uint32(k.NumCascades-1) & 0x3) << 19

	if k.AffectSpecularity {
		id |= 1 << 21
	}
	id |= (k.Mask & 0x7) << 22

	return id
}

// cookieChannelSlots expands a channel selector into three per-slot channel
// indices. Multi-channel selectors map positionally, single-channel selectors
// repeat their channel.
func cookieChannelSlots(ch CookieChannel) [3]uint8 {
	idx := func(c byte) uint8 {
		switch c {
		case 'g':
			return 1
		case 'b':
			return 2
		case 'a':
			return 3
		default:
			return 0
		}
	}

	var slots [3]uint8
	s := string(ch)
	if len(s) == 0 {
		s = "rgb"
	}
	for i := 0; i < 3; i++ {
		if i < len(s) {
			slots[i] = idx(s[i])
		} else {
			slots[i] = slots[len(s)-1]
		}
	}
	if len(s) == 1 {
		slots[1] = slots[0]
		slots[2] = slots[0]
	}
	return slots
}

// buildKey derives the shader key from the current configuration.
func (l *lightImpl) buildKey() ShaderKey {
	k := ShaderKey{
		Type:              l.lightType,
		CastShadows:       l.CastShadows(),
		ShadowType:        l.shadowType,
		Falloff:           l.falloffMode,
		NormalOffset:      l.normalOffsetBias != 0,
		Shape:             l.shape,
		NumCascades:       1,
		AffectSpecularity: l.affectSpecularity,
		Mask:              l.mask,
	}
	if l.lightType == TypeDirectional {
		k.NumCascades = l.numCascades
	}
	if l.cookie != nil {
		k.Cookie = true
		k.CookieFalloff = l.cookieFalloff
		k.CookieChannels = cookieChannelSlots(l.cookieChannel)
		k.CookieTransform = l.cookieTransformSet
	}
	return k
}

// updateKey recomputes the shader key and, when the packed form changed,
// notifies every registered observer so dependent sort orders and shader
// variants can be refreshed.
func (l *lightImpl) updateKey() {
	k := l.buildKey()
	id := k.ToFeatureID()
	if id == l.featureID && k == l.key {
		return
	}
	l.key = k
	l.featureID = id
	for _, o := range l.observers {
		o.InvalidateLightOrder()
	}
}

func (l *lightImpl) ShaderKey() ShaderKey { return l.key }

func (l *lightImpl) FeatureID() uint32 { return l.featureID }
