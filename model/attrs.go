package model

// Attrs is an insertion-ordered attribute map: encoding needs attributes to
// come out in the order they were set, and Go's map doesn't preserve key
// order, so Attrs keeps the keys in a parallel slice and uses the map only
// for lookup; iteration follows the slice.
type Attrs struct {
	keys   []string
	values map[string]*string
}

// NewAttrs returns an empty, ready-to-use attribute map.
func NewAttrs() *Attrs {
	return &Attrs{values: map[string]*string{}}
}

// Set assigns value to key, appending key to the insertion order the first
// time it is seen. A nil value represents a null-valued (bare) attribute.
func (a *Attrs) Set(key string, value *string) *Attrs {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	return a
}

// SetString is a convenience wrapper around Set for non-null values.
func (a *Attrs) SetString(key, value string) *Attrs {
	return a.Set(key, &value)
}

// SetNull sets key to the null value (no `=value` on emission).
func (a *Attrs) SetNull(key string) *Attrs {
	return a.Set(key, nil)
}

// Get reports the value stored for key, and whether key is present at all.
func (a *Attrs) Get(key string) (*string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether key has been set, regardless of its value.
func (a *Attrs) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// Len returns the number of distinct keys set.
func (a *Attrs) Len() int {
	return len(a.keys)
}

// Each calls fn once per attribute, in insertion order.
func (a *Attrs) Each(fn func(key string, value *string)) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}
