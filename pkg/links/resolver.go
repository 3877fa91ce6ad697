// Package links turns (model, view, user) into admin URLs using the bundle
// registry. Every answer degrades to "" rather than failing.
package links

import (
	"context"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/model"
)

// URLResolver is what widgets depend on to refresh their links.
type URLResolver interface {
	// URL returns the permission-filtered URL of view on the primary bundle
	// for id, or "" when there is no bundle or the user may not open it.
	URL(ctx context.Context, id model.ModelID, view string, user auth.User) string
	// Registered reports whether id has a bundle at all.
	Registered(id model.ModelID) bool
}

// Resolver answers link queries from a built bundle registry.
type Resolver struct {
	registry *bundles.Registry
}

var _ URLResolver = (*Resolver)(nil)

// NewResolver returns a resolver over registry. A nil registry resolves
// nothing.
func NewResolver(registry *bundles.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// URL implements URLResolver.
func (r *Resolver) URL(ctx context.Context, id model.ModelID, view string, user auth.User) string {
	bundle, ok := r.bundle(id)
	if !ok {
		return ""
	}
	return bundle.ViewURL(ctx, view, user)
}

// Registered implements URLResolver.
func (r *Resolver) Registered(id model.ModelID) bool {
	_, ok := r.bundle(id)
	return ok
}

func (r *Resolver) bundle(id model.ModelID) (bundles.Bundle, bool) {
	if r == nil || r.registry == nil {
		return bundles.Bundle{}, false
	}
	return r.registry.ForModel(id)
}
