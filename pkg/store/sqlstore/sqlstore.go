// Package sqlstore implements store.Reader over database/sql. The CLI and the
// tests pair it with the pure Go SQLite driver (modernc.org/sqlite); any
// driver works as long as the placeholder style matches.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

// DriverSQLite is the database/sql driver name registered by modernc.org/sqlite.
const DriverSQLite = "sqlite"

// Option configures a Store.
type Option func(*Store)

// WithPlaceholder overrides the bind parameter style (default "?").
func WithPlaceholder(ph Placeholder) Option {
	return func(s *Store) {
		if ph != nil {
			s.placeholder = ph
		}
	}
}

// Store reads records through a *sql.DB.
type Store struct {
	db          *sql.DB
	catalog     *store.Catalog
	placeholder Placeholder
}

var _ store.Reader = (*Store)(nil)

// New wraps db. The caller owns db and closes it.
func New(db *sql.DB, catalog *store.Catalog, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	if catalog == nil {
		return nil, errors.New("sqlstore: catalog is required")
	}
	s := &Store{db: db, catalog: catalog, placeholder: Question}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Open opens a SQLite database at dsn and wraps it.
func Open(dsn string, catalog *store.Catalog) (*Store, error) {
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %q: %w", dsn, err)
	}
	s, err := New(db, catalog)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the wrapped handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the wrapped handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, id model.ModelID, field string, value any) (model.Record, error) {
	lookup, err := s.catalog.ResolveLookup(id, field, value)
	if err != nil {
		return model.Record{}, err
	}
	stmt := GetStatement(lookup, s.placeholder)

	var pk, label sql.NullString
	err = s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&pk, &label)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, fmt.Errorf("%w: %s %s=%s", store.ErrNotFound, id, lookup.Column, lookup.Key)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("sqlstore: get %s: %w", id, err)
	}
	return model.Record{ID: pk.String, Label: label.String}, nil
}

// List implements store.Reader.
func (s *Store) List(ctx context.Context, id model.ModelID, q store.ListQuery) ([]model.Record, error) {
	m, conditions, err := s.catalog.ResolveFilters(id, q.Filters)
	if err != nil {
		return nil, err
	}
	stmt := ListStatement(m, conditions, q.Search, q.Limit, s.placeholder)

	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", id, err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var pk, label sql.NullString
		if err := rows.Scan(&pk, &label); err != nil {
			return nil, fmt.Errorf("sqlstore: scan %s: %w", id, err)
		}
		out = append(out, model.Record{ID: pk.String, Label: label.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", id, err)
	}
	return out, nil
}
