package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/goliatone/go-cmswidgets/pkg/query"
)

// ModelID identifies a data model, conventionally "<app>.<model>".
type ModelID string

// String implements fmt.Stringer.
func (id ModelID) String() string {
	return string(id)
}

// KeyKind describes how reference values for a field are interpreted.
type KeyKind string

const (
	KeyString  KeyKind = "string"
	KeyInteger KeyKind = "integer"
	KeyUUID    KeyKind = "uuid"
)

// PrimaryKeyAlias names the primary key regardless of its column name.
const PrimaryKeyAlias = "pk"

// ErrMalformedKey reports a reference value that cannot be interpreted as a
// key of the requested kind.
var ErrMalformedKey = errors.New("model: malformed key")

// Model is the definition stores use to resolve references.
type Model struct {
	ID          ModelID            `json:"id" yaml:"id"`
	Table       string             `json:"table,omitempty" yaml:"table,omitempty"`
	PrimaryKey  string             `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	KeyKind     KeyKind            `json:"keyKind,omitempty" yaml:"keyKind,omitempty"`
	LabelField  string             `json:"labelField,omitempty" yaml:"labelField,omitempty"`
	VerboseName string             `json:"verboseName,omitempty" yaml:"verboseName,omitempty"`
	Fields      map[string]KeyKind `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// PK returns the primary key column, defaulting to "id".
func (m Model) PK() string {
	if pk := strings.TrimSpace(m.PrimaryKey); pk != "" {
		return pk
	}
	return "id"
}

// TableName returns the backing table, defaulting to the model name portion
// of the identifier.
func (m Model) TableName() string {
	if table := strings.TrimSpace(m.Table); table != "" {
		return table
	}
	id := string(m.ID)
	if idx := strings.LastIndex(id, "."); idx >= 0 {
		id = id[idx+1:]
	}
	return id
}

// Label returns the column holding the human readable representation.
func (m Model) Label() string {
	if label := strings.TrimSpace(m.LabelField); label != "" {
		return label
	}
	return "name"
}

// Column resolves a lookup field to its column and key kind. An empty name or
// the "pk" alias resolves to the primary key. Unknown fields report false.
func (m Model) Column(name string) (string, KeyKind, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == PrimaryKeyAlias || name == m.PK() {
		kind := m.KeyKind
		if kind == "" {
			kind = KeyInteger
		}
		return m.PK(), kind, true
	}
	if name == m.Label() {
		return name, KeyString, true
	}
	kind, ok := m.Fields[name]
	if !ok {
		return "", "", false
	}
	if kind == "" {
		kind = KeyString
	}
	return name, kind, true
}

// Record is a resolved row reduced to what widgets and choices need.
type Record struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Fields map[string]any `json:"fields,omitempty"`
}

// String implements fmt.Stringer using the record label.
func (r Record) String() string {
	return r.Label
}

// Relation describes a foreign key from one model to another.
type Relation struct {
	Target         ModelID         `json:"target" yaml:"target"`
	ToField        string          `json:"toField,omitempty" yaml:"toField,omitempty"`
	LimitChoicesTo query.FilterSet `json:"limitChoicesTo,omitempty" yaml:"limitChoicesTo,omitempty"`
}

// RelatedField returns the field on the target the relation points at. An
// empty ToField means the target primary key.
func (r Relation) RelatedField() string {
	if field := strings.TrimSpace(r.ToField); field != "" {
		return field
	}
	return PrimaryKeyAlias
}

// CoerceKey converts value into the canonical string form for kind. Values
// that cannot be read as the requested kind return ErrMalformedKey.
func CoerceKey(kind KeyKind, value any) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%w: nil value", ErrMalformedKey)
	}

	switch kind {
	case KeyInteger:
		return coerceInteger(value)
	case KeyUUID:
		return coerceUUID(value)
	default:
		str, err := cast.ToStringE(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		return str, nil
	}
}

func coerceInteger(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return "", fmt.Errorf("%w: %v is not an integer", ErrMalformedKey, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return "", fmt.Errorf("%w: %v is not an integer", ErrMalformedKey, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not an integer", ErrMalformedKey, v)
		}
		return strconv.FormatInt(parsed, 10), nil
	case bool:
		return "", fmt.Errorf("%w: bool is not an integer", ErrMalformedKey)
	}

	parsed, err := cast.ToInt64E(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return strconv.FormatInt(parsed, 10), nil
}

func coerceUUID(value any) (string, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	parsed, err := uuid.Parse(strings.TrimSpace(str))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return parsed.String(), nil
}
