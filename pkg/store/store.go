package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/query"
)

var (
	// ErrNotFound reports that no record matched the reference.
	ErrNotFound = errors.New("store: record not found")
	// ErrMalformedReference reports a reference that cannot be used as a key.
	ErrMalformedReference = model.ErrMalformedKey
	// ErrUnknownModel reports a model missing from the catalog.
	ErrUnknownModel = errors.New("store: unknown model")
	// ErrUnknownField reports a lookup or filter field the model does not declare.
	ErrUnknownField = errors.New("store: unknown field")
)

// Silent reports whether err is one of the reference failures callers treat
// as ordinary UI degradation rather than a fault.
func Silent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformedReference)
}

// ListQuery restricts a List call.
type ListQuery struct {
	Filters query.FilterSet
	Search  string
	Limit   int
}

// Reader is the read surface widgets and handlers depend on.
type Reader interface {
	// Get returns the single record whose field equals value. An empty field
	// means the primary key.
	Get(ctx context.Context, id model.ModelID, field string, value any) (model.Record, error)
	// List returns records matching every filter, ordered by label.
	List(ctx context.Context, id model.ModelID, q ListQuery) ([]model.Record, error)
}

// Catalog holds model definitions keyed by id. It is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	models map[model.ModelID]model.Model
}

// NewCatalog constructs a catalog pre-populated with models.
func NewCatalog(models ...model.Model) *Catalog {
	c := &Catalog{models: make(map[model.ModelID]model.Model, len(models))}
	for _, m := range models {
		c.Add(m)
	}
	return c
}

// Add registers or replaces a model definition. Blank ids are ignored.
func (c *Catalog) Add(m model.Model) {
	if c == nil || strings.TrimSpace(string(m.ID)) == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.models == nil {
		c.models = make(map[model.ModelID]model.Model)
	}
	c.models[m.ID] = m
}

// Model returns the definition for id.
func (c *Catalog) Model(id model.ModelID) (model.Model, error) {
	if c == nil {
		return model.Model{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[id]
	if !ok {
		return model.Model{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return m, nil
}

// Models returns every definition sorted by id.
func (c *Catalog) Models() []model.Model {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Model, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup is a resolved Get request: the model, the column to match and the
// coerced key value.
type Lookup struct {
	Model  model.Model
	Column string
	Key    string
}

// ResolveLookup validates field against the model and coerces value to the
// field's key kind. Unknown fields return ErrUnknownField; uncoercible values
// return ErrMalformedReference.
func (c *Catalog) ResolveLookup(id model.ModelID, field string, value any) (Lookup, error) {
	m, err := c.Model(id)
	if err != nil {
		return Lookup{}, err
	}
	column, kind, ok := m.Column(field)
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, id, field)
	}
	key, err := model.CoerceKey(kind, value)
	if err != nil {
		return Lookup{}, err
	}
	return Lookup{Model: m, Column: column, Key: key}, nil
}

// Condition is a validated list filter: column must equal one of Values.
type Condition struct {
	Column string
	Values []string
}

// ResolveFilters validates every filter key against the model. Values are
// split on commas so multi-valued restrictions become IN conditions.
func (c *Catalog) ResolveFilters(id model.ModelID, filters query.FilterSet) (model.Model, []Condition, error) {
	m, err := c.Model(id)
	if err != nil {
		return model.Model{}, nil, err
	}
	conditions := make([]Condition, 0, len(filters))
	for _, filter := range filters {
		column, kind, ok := m.Column(filter.Key)
		if !ok {
			return model.Model{}, nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, id, filter.Key)
		}
		raw := query.FormatValue(filter.Value)
		var values []string
		for _, part := range strings.Split(raw, ",") {
			key, err := model.CoerceKey(kind, strings.TrimSpace(part))
			if err != nil {
				return model.Model{}, nil, err
			}
			values = append(values, key)
		}
		conditions = append(conditions, Condition{Column: column, Values: values})
	}
	return m, conditions, nil
}
