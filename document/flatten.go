package document

import (
	"strings"
	"unicode"
)

// DefaultExemptKeys lists leaf names that are always copied, never translated.
var DefaultExemptKeys = []string{"nativeName"}

// Classification decides whether a leaf goes to the translator.
type Classification int

const (
	// Translatable leaves are sent for translation.
	Translatable Classification = iota
	// PassThrough leaves are copied into the target unchanged.
	PassThrough
)

func (c Classification) String() string {
	if c == Translatable {
		return "translatable"
	}
	return "pass-through"
}

// Leaf is one terminal value of a document, addressed by its key path.
type Leaf struct {
	Path  []string
	Value any // string or Raw
	Class Classification
}

// Text returns the leaf value as a string, or "" for raw leaves.
func (l Leaf) Text() string {
	s, _ := l.Value.(string)
	return s
}

// Key returns the path joined with dots, for display only.
func (l Leaf) Key() string {
	return strings.Join(l.Path, ".")
}

// Flatten walks o depth-first in key order and returns one Leaf per
// terminal value. Nested objects are descended into, never emitted.
// Leaves whose final key is in exempt, raw leaves, and strings that
// need no translation are classified PassThrough.
func Flatten(o *Object, exempt []string) []Leaf {
	skip := make(map[string]bool, len(exempt))
	for _, k := range exempt {
		skip[k] = true
	}
	var leaves []Leaf
	flatten(o, nil, skip, &leaves)
	return leaves
}

func flatten(o *Object, prefix []string, skip map[string]bool, out *[]Leaf) {
	for _, key := range o.keys {
		path := make([]string, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = key

		value := o.values[key]
		if child, ok := value.(*Object); ok {
			flatten(child, path, skip, out)
			continue
		}

		class := PassThrough
		if s, ok := value.(string); ok && !skip[key] && NeedsTranslation(s) {
			class = Translatable
		}
		*out = append(*out, Leaf{Path: path, Value: value, Class: class})
	}
}

// NeedsTranslation reports whether s contains at least one letter or CJK
// ideograph. Strings made only of digits, punctuation and symbols are
// copied as-is.
func NeedsTranslation(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
