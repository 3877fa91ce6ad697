package bundles_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/model"
)

var (
	staff = auth.User{Username: "ada", Active: true, Staff: true, Groups: []string{"editors"}}
	admin = auth.User{Username: "root", Active: true, Staff: true, Superuser: true}
)

func TestBuilder_ViewURL(t *testing.T) {
	t.Parallel()

	reg, err := bundles.NewBuilder().
		Register("users", bundles.Bundle{Model: "auth.user", Primary: true, RequiredGroups: []string{"admins"}}, 10).
		Register("posts", bundles.Bundle{Model: "blog.post", Primary: true}, 20).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	users, ok := reg.ForModel("auth.user")
	if !ok {
		t.Fatalf("expected bundle for auth.user")
	}
	if got := users.ViewURL(ctx, bundles.ViewMain, staff); got != "" {
		t.Fatalf("staff outside admins should not get a link, got %q", got)
	}
	if got := users.ViewURL(ctx, bundles.ViewMain, admin); got != "/admin/users/" {
		t.Fatalf("main url = %q", got)
	}
	if got := users.ViewURL(ctx, bundles.ViewAdd, admin); got != "/admin/users/add/" {
		t.Fatalf("add url = %q", got)
	}
	if got := users.ViewURL(ctx, bundles.ViewEdit, admin); got != "" {
		t.Fatalf("item views never link, got %q", got)
	}
	if got := users.ViewURL(ctx, "missing", admin); got != "" {
		t.Fatalf("unknown views never link, got %q", got)
	}
	if got, ok := users.ViewPath(bundles.ViewMain); !ok || got != "/admin/users/" {
		t.Fatalf("view path skips the permission check, got %q %v", got, ok)
	}
	if _, ok := users.ViewPath(bundles.ViewEdit); ok {
		t.Fatalf("item views have no path")
	}

	posts, _ := reg.ForModel("blog.post")
	if got := posts.ViewURL(ctx, bundles.ViewAdd, staff); got != "/admin/posts/add/" {
		t.Fatalf("posts add url = %q", got)
	}
	if _, ok := reg.ForModel("blog.tag"); ok {
		t.Fatalf("unexpected bundle for unregistered model")
	}
}

func TestBuilder_Options(t *testing.T) {
	t.Parallel()

	deny := auth.AuthorizerFunc(func(_ context.Context, _ auth.User, target auth.Target) bool {
		return target.View != bundles.ViewAdd
	})
	reg, err := bundles.NewBuilder(bundles.WithMountPath("cms/"), bundles.WithAuthorizer(deny)).
		Register("pages", bundles.Bundle{Model: "site.page"}, 0).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	pages, ok := reg.ForModel("site.page")
	if !ok {
		t.Fatalf("non-primary single bundle should still resolve")
	}
	if got := pages.ViewURL(context.Background(), bundles.ViewMain, staff); got != "/cms/pages/" {
		t.Fatalf("main url = %q", got)
	}
	if got := pages.ViewURL(context.Background(), bundles.ViewAdd, staff); got != "" {
		t.Fatalf("authorizer denied add, got %q", got)
	}
}

func TestBuilder_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]*bundles.Builder{
		"duplicate slug": bundles.NewBuilder().
			Register("users", bundles.Bundle{Model: "auth.user"}, 0).
			Register("users", bundles.Bundle{Model: "auth.group"}, 1),
		"two primaries": bundles.NewBuilder().
			Register("users", bundles.Bundle{Model: "auth.user", Primary: true}, 0).
			Register("staff", bundles.Bundle{Model: "auth.user", Primary: true}, 1),
		"missing model": bundles.NewBuilder().
			Register("users", bundles.Bundle{}, 0),
		"bad slug": bundles.NewBuilder().
			Register("Users Admin", bundles.Bundle{Model: "auth.user"}, 0),
		"duplicate view": bundles.NewBuilder().
			Register("users", bundles.Bundle{Model: "auth.user", Views: []bundles.View{{Name: "main"}, {Name: "main"}}}, 0),
		"quote in view path": bundles.NewBuilder().
			Register("users", bundles.Bundle{Model: "auth.user", Views: []bundles.View{{Name: "main", Path: `list/" onclick="x`}}}, 0),
		"query in view path": bundles.NewBuilder().
			Register("users", bundles.Bundle{Model: "auth.user", Views: []bundles.View{{Name: "main", Path: "list/?all=1"}}}, 0),
		"markup in mount path": bundles.NewBuilder(bundles.WithMountPath("/admin<b>")).
			Register("users", bundles.Bundle{Model: "auth.user"}, 0),
	}
	for name, builder := range cases {
		if _, err := builder.Build(); err == nil {
			t.Errorf("%s: expected build error", name)
		}
	}
}

func TestRegistry_Ordering(t *testing.T) {
	t.Parallel()

	reg, err := bundles.NewBuilder().
		Register("zeta", bundles.Bundle{Model: "a.z"}, 1).
		Register("alpha", bundles.Bundle{Model: "a.a"}, 2).
		Register("beta", bundles.Bundle{Model: "a.b"}, 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var slugs []string
	for _, b := range reg.Bundles() {
		slugs = append(slugs, b.Slug())
	}
	if diff := cmp.Diff([]string{"beta", "zeta", "alpha"}, slugs); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if _, err := reg.Lookup("gamma"); err == nil {
		t.Fatalf("expected lookup error")
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	t.Parallel()

	reg, err := bundles.NewBuilder().
		Register("users", bundles.Bundle{Model: "auth.user", RequiredGroups: []string{"admins"}}, 0).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, _ := reg.Bundle("users")
	b.RequiredGroups[0] = "everyone"
	b.Views[0].Path = "hacked/"

	again, _ := reg.Bundle("users")
	if again.RequiredGroups[0] != "admins" || again.Views[0].Path != "" {
		t.Fatalf("registry state leaked through a returned bundle: %#v", again)
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	defs, err := bundles.LoadFS(os.DirFS("testdata"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(defs.Models) != 2 || defs.Models[0].ID != "auth.user" {
		t.Fatalf("unexpected models: %#v", defs.Models)
	}
	if _, err := defs.Catalog().Model("blog.post"); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(defs.Fixtures[model.ModelID("auth.user")]) != 1 {
		t.Fatalf("unexpected fixtures: %#v", defs.Fixtures)
	}

	reg, err := defs.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("expected 3 bundles, got %d", reg.Len())
	}
	users, _ := reg.ForModel("auth.user")
	if users.Slug() != "users" || users.Title != "Users" {
		t.Fatalf("primary user bundle should win: %#v", users)
	}
	posts, _ := reg.ForModel("blog.post")
	ctx := context.Background()
	if got := posts.ViewURL(ctx, bundles.ViewAdd, staff); got != "/admin/posts/add/" {
		t.Fatalf("posts add = %q", got)
	}
	outsider := auth.User{Username: "eve", Active: true, Staff: true}
	if got := posts.ViewURL(ctx, bundles.ViewAdd, outsider); got != "" {
		t.Fatalf("add requires editors, got %q", got)
	}

	authz, err := auth.NewCasbinAuthorizerFromText("")
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	if err := defs.ApplyPolicies(authz); err != nil {
		t.Fatalf("apply policies: %v", err)
	}
	owner := auth.User{Username: "olga", Active: true, Staff: true, Groups: []string{"owners"}}
	if !authz.CanView(ctx, owner, auth.Target{Bundle: "users", View: "main"}) {
		t.Fatalf("owners inherit admin access to users")
	}
}

func TestLoadFS_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]fstest.MapFS{
		"empty file": {"a.yaml": {Data: []byte("  ")}},
		"bad yaml":   {"a.yaml": {Data: []byte("bundles: [")}},
		"no slug":    {"a.yaml": {Data: []byte("bundles:\n  - model: auth.user\n")}},
		"dup model": {
			"a.yaml": {Data: []byte("models:\n  - id: auth.user\n")},
			"b.yaml": {Data: []byte("models:\n  - id: auth.user\n")},
		},
	}
	for name, fsys := range cases {
		if _, err := bundles.LoadFS(fsys); err == nil {
			t.Errorf("%s: expected error", name)
		} else if !strings.HasPrefix(err.Error(), "bundles:") {
			t.Errorf("%s: error should carry package prefix: %v", name, err)
		}
	}

	defs, err := bundles.LoadFS(nil)
	if err != nil || len(defs.Bundles) != 0 {
		t.Fatalf("nil fs should yield empty definitions: %#v %v", defs, err)
	}
}
