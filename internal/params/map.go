// Package params holds the parameter map handed to the native dialog host.
package params

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Map is an ordered, immutable set of dialog parameters. Values are one of
// string, bool, []string, *Map or []*Map.
type Map struct {
	keys   []string
	values map[string]any
}

// Len returns the number of parameters.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the parameter keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Get returns the value stored under key. List values are copied.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return copyValue(v), ok
}

// String returns the string stored under key.
func (m *Map) String(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean stored under key.
func (m *Map) Bool(key string) (bool, bool) {
	v, ok := m.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Strings returns a copy of the string list stored under key.
func (m *Map) Strings(key string) ([]string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

// Map returns the nested map stored under key.
func (m *Map) Map(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(*Map)
	return nested, ok
}

// Maps returns a copy of the nested map list stored under key.
func (m *Map) Maps(key string) ([]*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	list, ok := v.([]*Map)
	return list, ok
}

// Range calls fn for every parameter in insertion order until fn returns
// false.
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, copyValue(m.values[k])) {
			return
		}
	}
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []*Map:
		return append([]*Map(nil), t...)
	default:
		return v
	}
}

// Equal reports whether both maps hold the same parameters, ignoring order.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.Range(func(key string, value any) bool {
		ov, ok := other.Get(key)
		if !ok || !valuesEqual(value, ov) {
			equal = false
		}
		return equal
	})
	return equal
}

// MarshalJSON encodes the map as a JSON object preserving insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		return ok && av.Equal(bv)
	case []*Map:
		bv, ok := b.([]*Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !av[i].Equal(bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
