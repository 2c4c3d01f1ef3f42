package material

// MaterialBuilderOption is a function that configures a Material instance during construction.
type MaterialBuilderOption func(*materialImpl)

// WithName is an option builder that sets the material identifier.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *materialImpl) {
		m.name = name
	}
}

// WithUseLighting is an option builder that sets whether the material's shader
// samples scene lights. Unlit materials keep their shader variants when only
// light state changes.
//
// Parameters:
//   - useLighting: true if the material is lit
//
// Returns:
//   - MaterialBuilderOption: a function that applies the lighting option to a material
func WithUseLighting(useLighting bool) MaterialBuilderOption {
	return func(m *materialImpl) {
		m.useLighting = useLighting
	}
}
