package bundles

import (
	"context"
	"strings"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/model"
)

// Well known view names.
const (
	ViewMain   = "main"
	ViewAdd    = "add"
	ViewEdit   = "edit"
	ViewDelete = "delete"
)

// View is a named page inside a bundle.
type View struct {
	Name           string   `json:"name" yaml:"name"`
	Path           string   `json:"path,omitempty" yaml:"path,omitempty"`
	RequiredGroups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	// Item views operate on a single object and need its id in the URL, so
	// they never yield a standalone link.
	Item bool `json:"item,omitempty" yaml:"item,omitempty"`
}

// DefaultViews returns the views a bundle gets when it declares none.
func DefaultViews() []View {
	return []View{
		{Name: ViewMain, Path: ""},
		{Name: ViewAdd, Path: "add/"},
		{Name: ViewEdit, Path: "edit/", Item: true},
		{Name: ViewDelete, Path: "delete/", Item: true},
	}
}

// Bundle groups the admin views for one model.
type Bundle struct {
	Name           string        `json:"name,omitempty" yaml:"name,omitempty"`
	Title          string        `json:"title,omitempty" yaml:"title,omitempty"`
	Model          model.ModelID `json:"model" yaml:"model"`
	RequiredGroups []string      `json:"groups,omitempty" yaml:"groups,omitempty"`
	Primary        bool          `json:"primary,omitempty" yaml:"primary,omitempty"`
	Views          []View        `json:"views,omitempty" yaml:"views,omitempty"`

	slug       string
	order      int
	mount      string
	authorizer auth.Authorizer
}

// Slug returns the registration slug. Empty for bundles that were never
// registered.
func (b Bundle) Slug() string {
	return b.slug
}

// Order returns the registration order.
func (b Bundle) Order() int {
	return b.order
}

// Path returns the URL prefix every view of the bundle lives under.
func (b Bundle) Path() string {
	if b.slug == "" {
		return ""
	}
	return strings.TrimRight(b.mount, "/") + "/" + b.slug + "/"
}

// View returns the named view.
func (b Bundle) View(name string) (View, bool) {
	name = strings.TrimSpace(name)
	for _, view := range b.Views {
		if view.Name == name {
			return view, true
		}
	}
	return View{}, false
}

// ViewURL returns the URL for the named view when user may open it, else "".
// Unknown views, item views and unregistered bundles yield "".
func (b Bundle) ViewURL(ctx context.Context, name string, user auth.User) string {
	path, ok := b.ViewPath(name)
	if !ok {
		return ""
	}
	view, _ := b.View(name)
	authorizer := b.authorizer
	if authorizer == nil {
		authorizer = auth.GroupAuthorizer{}
	}
	allowed := authorizer.CanView(ctx, user, auth.Target{
		Bundle:       b.slug,
		View:         view.Name,
		BundleGroups: b.RequiredGroups,
		ViewGroups:   view.RequiredGroups,
	})
	if !allowed {
		return ""
	}
	return path
}

// ViewPath returns the URL path of the named view without a permission
// check. Unknown views, item views and unregistered bundles report false.
func (b Bundle) ViewPath(name string) (string, bool) {
	if b.slug == "" {
		return "", false
	}
	view, ok := b.View(name)
	if !ok || view.Item {
		return "", false
	}
	return b.Path() + strings.TrimLeft(view.Path, "/"), true
}

func (b Bundle) clone() Bundle {
	out := b
	out.RequiredGroups = append([]string(nil), b.RequiredGroups...)
	out.Views = make([]View, len(b.Views))
	for idx, view := range b.Views {
		view.RequiredGroups = append([]string(nil), view.RequiredGroups...)
		out.Views[idx] = view
	}
	return out
}
