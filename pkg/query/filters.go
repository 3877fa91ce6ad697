package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Filter is a single field restriction. Value may be a scalar, a bool or a
// slice; see FormatValue for the string form used on the wire.
type Filter struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// FilterSet is an ordered mapping from field name to allowed value(s). The
// zero value is an empty set ready to use.
type FilterSet []Filter

// Len reports the number of keys.
func (s FilterSet) Len() int {
	return len(s)
}

// Empty reports whether the set holds no filters.
func (s FilterSet) Empty() bool {
	return len(s) == 0
}

// Get returns the value stored for key.
func (s FilterSet) Get(key string) (any, bool) {
	for _, filter := range s {
		if filter.Key == key {
			return filter.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in iteration order.
func (s FilterSet) Keys() []string {
	if len(s) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s))
	for _, filter := range s {
		keys = append(keys, filter.Key)
	}
	return keys
}

// Set returns a copy of the set with key bound to value. An existing key keeps
// its position; a new key is appended. Blank keys are ignored.
func (s FilterSet) Set(key string, value any) FilterSet {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Clone()
	}
	out := s.Clone()
	for idx := range out {
		if out[idx].Key == key {
			out[idx].Value = value
			return out
		}
	}
	return append(out, Filter{Key: key, Value: value})
}

// Without returns a copy of the set minus the named keys.
func (s FilterSet) Without(keys ...string) FilterSet {
	if len(s) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		drop[key] = struct{}{}
	}
	out := make(FilterSet, 0, len(s))
	for _, filter := range s {
		if _, skip := drop[filter.Key]; skip {
			continue
		}
		out = append(out, filter)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Clone returns a shallow copy of the set.
func (s FilterSet) Clone() FilterSet {
	if s == nil {
		return nil
	}
	out := make(FilterSet, len(s))
	copy(out, s)
	return out
}

// Merge overlays each set onto base in turn. Later sets win on key collision.
func Merge(base FilterSet, overlays ...FilterSet) FilterSet {
	out := base.Clone()
	for _, overlay := range overlays {
		for _, filter := range overlay {
			out = out.Set(filter.Key, filter.Value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping while keeping the declared key order.
func (s *FilterSet) UnmarshalYAML(node *yaml.Node) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("query: filters must be a mapping (line %d)", node.Line)
	}

	var out FilterSet
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("query: decode filter %q: %w", keyNode.Value, err)
		}
		out = out.Set(keyNode.Value, value)
	}
	*s = out
	return nil
}

// FormatValue converts a filter value into the string sent on the wire.
// Slices are joined with commas, booleans become 1/0 and everything else is
// coerced through cast.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case []string:
		return strings.Join(v, ",")
	case []byte:
		return string(v)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, FormatValue(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ",")
	}

	if str, err := cast.ToStringE(value); err == nil {
		return str
	}
	return fmt.Sprint(value)
}
