package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/forms"
	"github.com/goliatone/go-cmswidgets/pkg/links"
	"github.com/goliatone/go-cmswidgets/pkg/store"
	"github.com/goliatone/go-cmswidgets/pkg/store/memory"
	"github.com/goliatone/go-cmswidgets/pkg/store/pgstore"
	"github.com/goliatone/go-cmswidgets/pkg/store/sqlstore"
	"github.com/goliatone/go-cmswidgets/pkg/widgets"
)

// app is everything a subcommand needs: loaded definitions, the bundle
// registry, a record store and the forms declared alongside the bundles.
type app struct {
	settings settings
	defs     *bundles.Definitions
	registry *bundles.Registry
	resolver *links.Resolver
	store    store.Reader
	forms    map[string]forms.Form
	preparer forms.Preparer
	closers  []func() error
}

func buildApp(ctx context.Context, s settings) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return buildAppFS(ctx, s, os.DirFS(s.Definitions))
}

func buildAppFS(ctx context.Context, s settings, fsys fs.FS) (*app, error) {
	defs, err := bundles.LoadFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	formList, err := forms.LoadFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}

	a := &app{settings: s, defs: defs, forms: forms.Index(formList)}

	authorizer, err := newAuthorizer(s, defs)
	if err != nil {
		return nil, err
	}
	a.registry, err = defs.Registry(bundles.WithMountPath(s.Mount), bundles.WithAuthorizer(authorizer))
	if err != nil {
		return nil, fmt.Errorf("bundles: %w", err)
	}
	a.resolver = links.NewResolver(a.registry)

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	a.preparer = forms.Preparer{
		Registry: widgets.NewRegistry(),
		Resolver: a.resolver,
		Store:    a.store,
	}
	return a, nil
}

func newAuthorizer(s settings, defs *bundles.Definitions) (auth.Authorizer, error) {
	if s.Authorizer != authorizerCasbin {
		return auth.GroupAuthorizer{}, nil
	}
	var (
		authz *auth.CasbinAuthorizer
		err   error
	)
	if s.CasbinModel != "" {
		authz, err = auth.NewCasbinAuthorizer(s.CasbinModel, "")
	} else {
		authz, err = auth.NewCasbinAuthorizerFromText("")
	}
	if err != nil {
		return nil, err
	}
	if err := defs.ApplyPolicies(authz); err != nil {
		return nil, err
	}
	return authz, nil
}

func (a *app) openStore(ctx context.Context) error {
	catalog := a.defs.Catalog()
	switch a.settings.Store {
	case storeSQLite:
		s, err := sqlstore.Open(a.settings.DSN, catalog)
		if err != nil {
			return err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
	case storePostgres:
		s, pool, err := pgstore.Connect(ctx, a.settings.DSN, catalog)
		if err != nil {
			return err
		}
		a.store = s
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
	default:
		s := memory.New(catalog)
		for id, rows := range a.defs.Fixtures {
			converted := make([]memory.Row, 0, len(rows))
			for _, row := range rows {
				converted = append(converted, memory.Row(row))
			}
			if err := s.Insert(id, converted...); err != nil {
				return fmt.Errorf("fixtures %s: %w", id, err)
			}
		}
		a.store = s
	}
	return nil
}

// user returns the configured demo user for username, or the anonymous user.
func (a *app) user(username string) auth.User {
	username = strings.ToLower(strings.TrimSpace(username))
	if a == nil || username == "" {
		return auth.Anonymous()
	}
	for name, user := range a.settings.Users {
		if name == username || strings.EqualFold(user.Username, username) {
			return user
		}
	}
	return auth.Anonymous()
}

// Close releases the store.
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
