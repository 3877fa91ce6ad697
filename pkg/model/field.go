package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldKind classifies a form field for widget selection.
type FieldKind string

const (
	FieldText       FieldKind = "text"
	FieldForeignKey FieldKind = "foreign_key"
	FieldDateTime   FieldKind = "datetime"
	FieldDate       FieldKind = "date"
	FieldTime       FieldKind = "time"
	FieldSlug       FieldKind = "slug"
	FieldHTML       FieldKind = "html"
	FieldOrder      FieldKind = "order"
	FieldChoice     FieldKind = "choice"
	FieldHidden     FieldKind = "hidden"
)

// Choice is a value/label option.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field describes one form field.
type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty"`
	Kind     FieldKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	// Widget forces a registry widget by name.
	Widget   string            `json:"widget,omitempty" yaml:"widget,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Relation *Relation         `json:"relation,omitempty" yaml:"relation,omitempty"`
	Choices  []Choice          `json:"choices,omitempty" yaml:"choices,omitempty"`
	// PopulateFrom names the fields a slug is derived from.
	PopulateFrom []string `json:"populateFrom,omitempty" yaml:"populateFrom,omitempty"`
}

// DisplayLabel returns Label, or a title-cased form of Name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(f.Name, "_", " "))
	if len(words) == 0 {
		return ""
	}
	first := words[0]
	r, size := utf8.DecodeRuneInString(first)
	words[0] = string(unicode.ToUpper(r)) + first[size:]
	return strings.Join(words, " ")
}
