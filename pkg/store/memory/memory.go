// Package memory provides an in-process store.Reader for tests, demos and
// small fixed datasets.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/query"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

// Row is a raw record keyed by column name.
type Row map[string]any

// Store keeps rows per model in insertion order.
type Store struct {
	catalog *store.Catalog

	mu   sync.RWMutex
	rows map[model.ModelID][]Row
}

var _ store.Reader = (*Store)(nil)

// New constructs a store backed by catalog.
func New(catalog *store.Catalog) *Store {
	if catalog == nil {
		catalog = store.NewCatalog()
	}
	return &Store{
		catalog: catalog,
		rows:    make(map[model.ModelID][]Row),
	}
}

// Catalog exposes the model definitions.
func (s *Store) Catalog() *store.Catalog {
	return s.catalog
}

// Insert appends rows for a model already present in the catalog.
func (s *Store) Insert(id model.ModelID, rows ...Row) error {
	if _, err := s.catalog.Model(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		copied := make(Row, len(row))
		for key, value := range row {
			copied[key] = value
		}
		s.rows[id] = append(s.rows[id], copied)
	}
	return nil
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, id model.ModelID, field string, value any) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return model.Record{}, err
	}
	lookup, err := s.catalog.ResolveLookup(id, field, value)
	if err != nil {
		return model.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows[id] {
		if matches(row, lookup.Column, []string{lookup.Key}) {
			return toRecord(lookup.Model, row), nil
		}
	}
	return model.Record{}, fmt.Errorf("%w: %s %s=%s", store.ErrNotFound, id, lookup.Column, lookup.Key)
}

// List implements store.Reader.
func (s *Store) List(ctx context.Context, id model.ModelID, q store.ListQuery) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, conditions, err := s.catalog.ResolveFilters(id, q.Filters)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	rows := append([]Row(nil), s.rows[id]...)
	s.mu.RUnlock()

	out := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		if !matchesAll(row, conditions) {
			continue
		}
		record := toRecord(m, row)
		if search != "" && !strings.Contains(strings.ToLower(record.Label), search) {
			continue
		}
		out = append(out, record)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesAll(row Row, conditions []store.Condition) bool {
	for _, condition := range conditions {
		if !matches(row, condition.Column, condition.Values) {
			return false
		}
	}
	return true
}

func matches(row Row, column string, values []string) bool {
	raw, ok := row[column]
	if !ok {
		return false
	}
	current := query.FormatValue(raw)
	for _, value := range values {
		if current == value {
			return true
		}
	}
	return false
}

func toRecord(m model.Model, row Row) model.Record {
	fields := make(map[string]any, len(row))
	for key, value := range row {
		fields[key] = value
	}
	return model.Record{
		ID:     query.FormatValue(row[m.PK()]),
		Label:  query.FormatValue(row[m.Label()]),
		Fields: fields,
	}
}
