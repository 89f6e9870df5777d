// Package entity defines the plain data values the store caches and stitches.
//
// An Entity is a decoded JSON object. Nested objects are map[string]any and
// nested arrays are []any, exactly as encoding/json and yaml.v3 produce them,
// so values can flow between the backend, the cache and render targets
// without conversion.
package entity

import (
	"maps"

	"github.com/mohae/deepcopy"
)

// DefaultIDField is the id field used when a type does not configure one.
const DefaultIDField = "_id"

// Entity is a uniquely identified record of one entity type.
type Entity = map[string]any

// ID returns the id held in idField. Only non-empty string ids are ids.
func ID(e Entity, idField string) (string, bool) {
	if e == nil {
		return "", false
	}
	s, ok := e[idField].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Copy returns a deep copy of e. Mutating the copy never affects e.
func Copy(e Entity) Entity {
	if e == nil {
		return nil
	}
	c, _ := deepcopy.Copy(e).(map[string]any)
	return c
}

// CopyValue deep copies an arbitrary decoded JSON value.
func CopyValue(v any) any {
	if v == nil {
		return nil
	}
	return deepcopy.Copy(v)
}

// CopyAll deep copies a slice of entities.
func CopyAll(es []Entity) []Entity {
	out := make([]Entity, len(es))
	for i, e := range es {
		out[i] = Copy(e)
	}
	return out
}

// Merge shallow-merges fields into dst, overwriting existing keys.
// The id field is never overwritten.
func Merge(dst, fields Entity, idField string) {
	for k, v := range fields {
		if k == idField {
			continue
		}
		dst[k] = CopyValue(v)
	}
}

// Without returns a shallow copy of e without the given keys.
func Without(e Entity, keys ...string) Entity {
	out := maps.Clone(e)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Ref classifies a relation value. A string is a bare id reference; an object
// carrying an id in idField is a populated reference. Anything else is not a
// reference.
func Ref(v any, idField string) (id string, populated Entity, ok bool) {
	switch r := v.(type) {
	case string:
		if r == "" {
			return "", nil, false
		}
		return r, nil, true
	case map[string]any:
		id, ok := ID(r, idField)
		if !ok {
			return "", nil, false
		}
		return id, r, true
	default:
		return "", nil, false
	}
}
