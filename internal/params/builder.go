package params

// Builder accumulates parameters and produces an immutable Map. Re-setting a
// key replaces its value and keeps its original position.
type Builder struct {
	keys   []string
	values map[string]any
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]any)}
}

// From returns a builder seeded with the contents of m. The source map is
// left untouched.
func From(m *Map) *Builder {
	b := NewBuilder()
	m.Range(func(key string, value any) bool {
		b.set(key, value)
		return true
	})
	return b
}

// PutString stores value unconditionally.
func (b *Builder) PutString(key, value string) *Builder {
	b.set(key, value)
	return b
}

// PutNonEmptyString stores value only when it is not empty.
func (b *Builder) PutNonEmptyString(key, value string) *Builder {
	if value != "" {
		b.set(key, value)
	}
	return b
}

// PutBool stores value unconditionally.
func (b *Builder) PutBool(key string, value bool) *Builder {
	b.set(key, value)
	return b
}

// PutStrings stores a copy of values, including an empty list.
func (b *Builder) PutStrings(key string, values []string) *Builder {
	b.set(key, append(make([]string, 0, len(values)), values...))
	return b
}

// PutNonEmptyStrings stores a copy of values only when the list is not empty.
func (b *Builder) PutNonEmptyStrings(key string, values []string) *Builder {
	if len(values) > 0 {
		b.PutStrings(key, values)
	}
	return b
}

// PutMap stores a nested map when it is not nil.
func (b *Builder) PutMap(key string, value *Map) *Builder {
	if value != nil {
		b.set(key, value)
	}
	return b
}

// PutMaps stores a copy of a list of nested maps.
func (b *Builder) PutMaps(key string, values []*Map) *Builder {
	b.set(key, append(make([]*Map, 0, len(values)), values...))
	return b
}

// Len returns the number of parameters collected so far.
func (b *Builder) Len() int {
	return len(b.keys)
}

// Build returns an immutable snapshot. The builder can keep being used
// without affecting the returned map.
func (b *Builder) Build() *Map {
	m := &Map{
		keys:   append([]string(nil), b.keys...),
		values: make(map[string]any, len(b.values)),
	}
	for k, v := range b.values {
		m.values[k] = v
	}
	return m
}

func (b *Builder) set(key string, value any) {
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}
