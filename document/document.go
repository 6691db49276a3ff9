// Package document implements the nested localization document model used
// by locsync: an ordered tree of objects whose leaves are strings or raw
// JSON values (numbers, booleans, null, arrays).
//
// Documents are read from and written to JSON or YAML files:
//
//	{
//	    "nav": { "home": "Home", "about": "About" },
//	    "welcome": "Hello {{name}}!",
//	    "count": 42
//	}
//
// Key order is preserved on round-trip. Raw values are kept as their
// original JSON text, so numbers and arrays are copied byte-for-byte.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNotObject is returned when a document root is not an object.
var ErrNotObject = errors.New("document root must be an object")

// Raw is a non-string, non-object leaf value in compact JSON form.
type Raw json.RawMessage

// Equal reports whether two raw values have the same JSON text.
func (r Raw) Equal(other Raw) bool {
	return bytes.Equal(r, other)
}

// String returns the JSON text of the raw value.
func (r Raw) String() string {
	return string(r)
}

// ---------------------------------------------------------------------------
// Object
// ---------------------------------------------------------------------------

// Object is an ordered mapping from string keys to values.
// Values are *Object, string or Raw.
type Object struct {
	keys   []string
	values map[string]any
}

// New returns an empty object.
func New() *Object {
	return &Object{values: make(map[string]any)}
}

// Len returns the number of keys in the object.
func (o *Object) Len() int {
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key from the object.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := New()
	for _, k := range o.keys {
		c.Set(k, cloneValue(o.values[k]))
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case Raw:
		return append(Raw(nil), t...)
	default:
		return v
	}
}

// ---------------------------------------------------------------------------
// Path access
// ---------------------------------------------------------------------------

// Lookup returns the value at path, descending through nested objects.
func (o *Object) Lookup(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := o
	for i, key := range path {
		v, ok := cur.values[key]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.(*Object)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// SetPath stores value at path, creating intermediate objects as needed.
// An intermediate value that is not an object is replaced by one.
func (o *Object) SetPath(path []string, value any) {
	if len(path) == 0 {
		return
	}
	cur := o
	for _, key := range path[:len(path)-1] {
		next, ok := cur.values[key].(*Object)
		if !ok {
			next = New()
			cur.Set(key, next)
		}
		cur = next
	}
	cur.Set(path[len(path)-1], value)
}

// DeletePath removes the value at path. Objects left empty by the removal
// are removed as well.
func (o *Object) DeletePath(path []string) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		o.Delete(path[0])
		return
	}
	child, ok := o.values[path[0]].(*Object)
	if !ok {
		return
	}
	child.DeletePath(path[1:])
	if child.Len() == 0 {
		o.Delete(path[0])
	}
}

// Equal reports whether two values (objects, strings or raw values) are
// structurally identical, including key order.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok || len(x.keys) != len(y.keys) {
			return false
		}
		for i, k := range x.keys {
			if y.keys[i] != k || !Equal(x.values[k], y.values[k]) {
				return false
			}
		}
		return true
	case string:
		y, ok := b.(string)
		return ok && x == y
	case Raw:
		y, ok := b.(Raw)
		return ok && x.Equal(y)
	default:
		return a == nil && b == nil
	}
}
