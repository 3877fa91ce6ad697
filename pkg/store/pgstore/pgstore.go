// Package pgstore implements store.Reader on a pgx connection pool, sharing
// statement construction with sqlstore.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/store"
	"github.com/goliatone/go-cmswidgets/pkg/store/sqlstore"
)

// Querier is the subset of *pgxpool.Pool the store needs. Tests substitute
// stubs; production code passes the pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads records through pgx.
type Store struct {
	db      Querier
	catalog *store.Catalog
}

var _ store.Reader = (*Store)(nil)

// New wraps an existing pool or querier.
func New(db Querier, catalog *store.Catalog) (*Store, error) {
	if db == nil {
		return nil, errors.New("pgstore: querier is required")
	}
	if catalog == nil {
		return nil, errors.New("pgstore: catalog is required")
	}
	return &Store{db: db, catalog: catalog}, nil
}

// Connect opens a pool for dsn. The caller closes the returned pool.
func Connect(ctx context.Context, dsn string, catalog *store.Catalog) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	s, err := New(pool, catalog)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, id model.ModelID, field string, value any) (model.Record, error) {
	lookup, err := s.catalog.ResolveLookup(id, field, value)
	if err != nil {
		return model.Record{}, err
	}
	stmt := sqlstore.GetStatement(lookup, sqlstore.Dollar)

	var pk, label *string
	err = s.db.QueryRow(ctx, textColumns(stmt.SQL, lookup.Model), stmt.Args...).Scan(&pk, &label)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Record{}, fmt.Errorf("%w: %s %s=%s", store.ErrNotFound, id, lookup.Column, lookup.Key)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("pgstore: get %s: %w", id, err)
	}
	return model.Record{ID: deref(pk), Label: deref(label)}, nil
}

// List implements store.Reader.
func (s *Store) List(ctx context.Context, id model.ModelID, q store.ListQuery) ([]model.Record, error) {
	m, conditions, err := s.catalog.ResolveFilters(id, q.Filters)
	if err != nil {
		return nil, err
	}
	stmt := sqlstore.ListStatement(m, conditions, q.Search, q.Limit, sqlstore.Dollar)

	rows, err := s.db.Query(ctx, textColumns(stmt.SQL, m), stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list %s: %w", id, err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var pk, label *string
		if err := rows.Scan(&pk, &label); err != nil {
			return nil, fmt.Errorf("pgstore: scan %s: %w", id, err)
		}
		out = append(out, model.Record{ID: deref(pk), Label: deref(label)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: list %s: %w", id, err)
	}
	return out, nil
}

// textColumns casts the selected id column to text so integer and uuid keys
// scan into strings.
func textColumns(sql string, m model.Model) string {
	quoted := `"` + m.PK() + `"`
	prefix := "SELECT " + quoted + ","
	if len(sql) >= len(prefix) && sql[:len(prefix)] == prefix {
		return "SELECT " + quoted + "::text," + sql[len(prefix):]
	}
	return sql
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
