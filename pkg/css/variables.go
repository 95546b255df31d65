package css

// Variables is the substitution table for --name declarations. One table is
// shared by every stylesheet loaded through the same style engine; later
// bindings replace earlier ones.
type Variables struct {
	values map[string][]Value
}

// NewVariables returns an empty table.
func NewVariables() *Variables {
	return &Variables{values: map[string][]Value{}}
}

// Set binds name (including the leading "--") to vals.
func (v *Variables) Set(name string, vals []Value) {
	v.values[name] = vals
}

// Get returns the values bound to name.
func (v *Variables) Get(name string) ([]Value, bool) {
	vals, ok := v.values[name]
	return vals, ok
}

// Len returns the number of bound variables.
func (v *Variables) Len() int { return len(v.values) }
