package material

import "sync/atomic"

// materialCount is an atomic counter used to assign each material a unique identity.
var materialCount atomic.Uint64

// VariantHolder is anything that caches compiled shader variants derived from
// a material, in practice mesh instances. Clearing a material's variants
// clears its holders transitively.
type VariantHolder interface {
	// ClearShaderVariants drops any cached shader variant so the next draw
	// recompiles against the material's current state.
	ClearShaderVariants()
}

type materialImpl struct {
	id          uint64
	name        string
	useLighting bool
	dirtyShader bool

	// variants maps a light-feature ID (see light.ShaderKey.ToFeatureID) to the
	// pipeline key of the compiled shader variant for that lighting setup.
	variants map[uint32]string

	holders []VariantHolder
}

// Material encapsulates surface state plus a cache of compiled shader variants
// keyed by the lighting feature ID they were built against. The visibility
// core never compiles shaders; it only invalidates this cache when
// shader-affecting state changes.
type Material interface {
	// ID returns the unique identity of this material, stable for its lifetime.
	//
	// Returns:
	//   - uint64: the material ID
	ID() uint64

	// Name returns the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// UseLighting returns whether this material's shader samples scene lights.
	// Materials that do not use lighting are skipped when only light state changed.
	//
	// Returns:
	//   - bool: true if the material is lit
	UseLighting() bool

	// Variant returns the cached pipeline key for a lighting feature ID.
	//
	// Parameters:
	//   - featureID: the packed light feature ID the variant was compiled against
	//
	// Returns:
	//   - string: the pipeline key
	//   - bool: true if a variant is cached for that feature ID
	Variant(featureID uint32) (string, bool)

	// SetVariant caches the pipeline key compiled for a lighting feature ID.
	//
	// Parameters:
	//   - featureID: the packed light feature ID
	//   - pipelineKey: the compiled variant's pipeline key
	SetVariant(featureID uint32, pipelineKey string)

	// ClearVariants drops every cached shader variant and clears the variants
	// of all registered holders. Resets the dirty-shader flag.
	ClearVariants()

	// MarkShaderDirty flags the material so the next UpdateShaders pass clears
	// its variants. Call after changing any shader-affecting surface state.
	MarkShaderDirty()

	// ShaderDirty returns whether shader-affecting state may have changed since
	// the variants were last cleared.
	//
	// Returns:
	//   - bool: true if the material needs its variants cleared
	ShaderDirty() bool

	// AddVariantHolder registers a holder whose cached variants are cleared
	// together with this material's. A holder is registered at most once.
	//
	// Parameters:
	//   - h: the holder to register
	AddVariantHolder(h VariantHolder)

	// RemoveVariantHolder unregisters a holder.
	//
	// Parameters:
	//   - h: the holder to remove
	RemoveVariantHolder(h VariantHolder)
}

var _ Material = &materialImpl{}

// NewMaterial creates a new Material configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &materialImpl{
		id:          materialCount.Add(1),
		useLighting: true,
		variants:    make(map[uint32]string),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *materialImpl) ID() uint64 {
	return m.id
}

func (m *materialImpl) Name() string {
	return m.name
}

func (m *materialImpl) UseLighting() bool {
	return m.useLighting
}

func (m *materialImpl) Variant(featureID uint32) (string, bool) {
	key, ok := m.variants[featureID]
	return key, ok
}

func (m *materialImpl) SetVariant(featureID uint32, pipelineKey string) {
	m.variants[featureID] = pipelineKey
}

func (m *materialImpl) ClearVariants() {
	clear(m.variants)
	for _, h := range m.holders {
		h.ClearShaderVariants()
	}
	m.dirtyShader = false
}

func (m *materialImpl) MarkShaderDirty() {
	m.dirtyShader = true
}

func (m *materialImpl) ShaderDirty() bool {
	return m.dirtyShader
}

func (m *materialImpl) AddVariantHolder(h VariantHolder) {
	for _, existing := range m.holders {
		if existing == h {
			return
		}
	}
	m.holders = append(m.holders, h)
}

func (m *materialImpl) RemoveVariantHolder(h VariantHolder) {
	for i, existing := range m.holders {
		if existing == h {
			m.holders = append(m.holders[:i], m.holders[i+1:]...)
			return
		}
	}
}
