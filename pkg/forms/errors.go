package forms

import (
	"sort"
	"strings"
)

// ErrorMapping splits a submission error payload into field-level and
// form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrors assigns payload messages to the bound fields. Keys may be plain
// field names, dotted or JSON pointer paths ("/data/author"), or the
// sub-widget names of split widgets ("starts_0"). Keys that match no field
// become form-level messages so nothing is lost.
func (b *Bound) MapErrors(payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if b == nil || len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	names := make(map[string]struct{}, len(b.Fields))
	for _, field := range b.Fields {
		names[field.Field.Name] = struct{}{}
	}

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := matchField(key, names)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = normalizeMessages(append(mapping.Fields[name], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// SetErrors maps payload and keeps the result for Render.
func (b *Bound) SetErrors(payload map[string][]string) ErrorMapping {
	mapping := b.MapErrors(payload)
	if b != nil {
		b.errors = mapping
	}
	return mapping
}

// Errors returns the mapping stored by SetErrors.
func (b *Bound) Errors() ErrorMapping {
	if b == nil {
		return ErrorMapping{}
	}
	return b.errors
}

func matchField(key string, names map[string]struct{}) (string, bool) {
	if isFormLevelKey(key) {
		return "", false
	}
	for _, segment := range dropWrapperSegments(pathSegments(key)) {
		if _, ok := names[segment]; ok {
			return segment, true
		}
		// split widgets post name_0, name_1
		if idx := strings.LastIndex(segment, "_"); idx > 0 {
			if _, ok := names[segment[:idx]]; ok && isDigits(segment[idx+1:]) {
				return segment[:idx], true
			}
		}
	}
	return "", false
}

func pathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	for len(segments) > 0 {
		switch strings.ToLower(segments[0]) {
		case "body", "request", "payload", "data", "attributes", "fields":
			segments = segments[1:]
			continue
		}
		break
	}
	return segments
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(payload map[string][]string) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
