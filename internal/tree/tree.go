package tree

import (
	"fmt"
	"strings"

	"github.com/mitchellh/copystructure"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// VersionKey is the reserved top-level key holding the template version.
const VersionKey = "ver"

// Tree is a decoded configuration document.
type Tree map[string]any

// Decode parses YAML text into a Tree. An empty document yields an empty Tree.
func Decode(text string) (Tree, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if raw == nil {
		return Tree{}, nil
	}

	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level of document must be a mapping, got %T", raw)
	}
	return Tree(m), nil
}

// normalize converts map[interface{}]interface{} produced for non-string keys
// into map[string]any so the rest of the engine only sees one mapping type.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			val[k] = normalize(child)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range val {
			val[i] = normalize(child)
		}
		return val
	default:
		return v
	}
}

// Mapping reports whether v is a non-array mapping and returns it.
func Mapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Tree:
		return m, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of t. A nil Tree clones to an empty one.
func Clone(t Tree) Tree {
	if t == nil {
		return Tree{}
	}
	return copystructure.Must(copystructure.Copy(t)).(Tree)
}

// Version returns the value under VersionKey as a non-negative integer.
// A missing or non-numeric version reads as 0.
func Version(t Tree) int {
	if t == nil {
		return 0
	}
	v, ok := t[VersionKey]
	if !ok || v == nil {
		return 0
	}
	n, err := cast.ToIntE(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Lookup returns the value at key, or at key.sub when sub is given.
func Lookup(t Tree, key string, sub ...string) (any, bool) {
	v, ok := t[key]
	if !ok {
		return nil, false
	}
	for _, s := range sub {
		m, isMap := Mapping(v)
		if !isMap {
			return nil, false
		}
		v, ok = m[s]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// Set stores value at the dotted path ("key" or "key.sub"). Intermediate
// mappings are created as needed; a scalar in the way is replaced.
func Set(t Tree, path string, value any) error {
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key path %q", path)
		}
	}

	if len(parts) == 1 {
		t[parts[0]] = value
		return nil
	}

	var cur map[string]any = t
	for _, p := range parts[:len(parts)-1] {
		next, ok := Mapping(cur[p])
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

// ParseScalar decodes a single YAML scalar, so "8090" becomes an int and
// "true" a bool. Text that is not a valid scalar is returned unchanged.
func ParseScalar(text string) any {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return normalize(v)
}
