package choices_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmswidgets/components/choices"
	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/links"
	"github.com/goliatone/go-cmswidgets/pkg/testsupport"
	"github.com/goliatone/go-cmswidgets/pkg/widgets"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := choices.MountPath("/admin"); got != "/admin/api/choices" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := choices.MountPath("admin"); got != "/admin/api/choices" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := choices.MountPath("/admin/", choices.WithRoutePath("items/")); got != "/admin/items/" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_RegistersHandler(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := choices.RegisterRoutes(mux, "/admin",
		choices.WithStore(testsupport.MemoryStore(t)),
		choices.WithModel(testsupport.UserModel),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/api/choices" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	req := httptest.NewRequest(http.MethodGet, pattern+"?type=choices&limit=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if _, err := choices.RegisterRoutes(nil, "/admin"); err == nil {
		t.Fatalf("expected missing mux error")
	}
	if _, err := choices.RegisterRoutes(http.NewServeMux(), "/admin"); err == nil {
		t.Fatalf("expected missing model error")
	}
}

func TestRegisterBundles_GuardsByBundlePermission(t *testing.T) {
	mux := http.NewServeMux()
	patterns, err := choices.RegisterBundles(mux, testsupport.Registry(t), choices.WithStore(testsupport.MemoryStore(t)))
	if err != nil {
		t.Fatalf("register bundles: %v", err)
	}
	if diff := cmp.Diff([]string{"/admin/users/", "/admin/items/", "/admin/posts/"}, patterns); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}

	as := func(user auth.User) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mux.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}

	cases := []struct {
		name   string
		user   auth.User
		target string
		code   int
	}{
		{name: "manager lists users", user: testsupport.Manager, target: "/admin/users/?type=choices", code: http.StatusOK},
		{name: "editor denied users", user: testsupport.Editor, target: "/admin/users/?type=choices", code: http.StatusForbidden},
		{name: "editor lists items", user: testsupport.Editor, target: "/admin/items/?type=choices", code: http.StatusOK},
		{name: "anonymous denied", user: auth.Anonymous(), target: "/admin/items/?type=choices", code: http.StatusForbidden},
		{name: "sub path", user: testsupport.Admin, target: "/admin/items/add/?type=choices", code: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()
			as(tc.user).ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, rec.Code)
			}
		})
	}

	if _, err := choices.RegisterBundles(mux, nil); err == nil {
		t.Fatalf("expected missing registry error")
	}
}

func TestRegisterBundles_MountsAtMainViewPath(t *testing.T) {
	registry, err := bundles.NewBuilder().
		Register("items", bundles.Bundle{Model: testsupport.ItemModel, Primary: true, Views: []bundles.View{
			{Name: bundles.ViewMain, Path: "list/"},
			{Name: bundles.ViewAdd, Path: "add/"},
		}}, 0).
		Register("notes", bundles.Bundle{Model: testsupport.PostModel, Views: []bundles.View{
			{Name: "archive", Path: "archive/"},
		}}, 1).
		Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	mux := http.NewServeMux()
	patterns, err := choices.RegisterBundles(mux, registry, choices.WithStore(testsupport.MemoryStore(t)))
	if err != nil {
		t.Fatalf("register bundles: %v", err)
	}
	if diff := cmp.Diff([]string{"/admin/items/list/"}, patterns); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}

	w := widgets.NewRelationWidget(widgets.ModelLookup(testsupport.ItemModel, nil))
	w.UpdateLinks(context.Background(), testsupport.Editor, links.NewResolver(registry))
	if got := w.APILink(); got != "/admin/items/list/?type=choices" {
		t.Fatalf("api link = %q", got)
	}

	serveAs := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(auth.WithUser(req.Context(), testsupport.Editor))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}
	rec := serveAs(w.APILink())
	if rec.Code != http.StatusOK {
		t.Fatalf("browse link should reach the handler, got %d", rec.Code)
	}
	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 3 {
		t.Fatalf("expected every item, got %#v", payload.Data)
	}
	if rec := serveAs("/admin/items/?type=choices"); rec.Code != http.StatusNotFound {
		t.Fatalf("bundle root is not the browse view, got %d", rec.Code)
	}
}

func TestComponent_Handler(t *testing.T) {
	component := choices.New(
		choices.WithStore(testsupport.MemoryStore(t)),
		choices.WithModel(testsupport.ItemModel),
		choices.WithDefaultLimit(2),
	)
	if got := component.Options().DefaultLimit; got != 2 {
		t.Fatalf("unexpected default limit %d", got)
	}

	_, payload := serve(t, component.Handler(), http.MethodGet, "/items/?type=choices")
	if len(payload.Data) != 2 {
		t.Fatalf("expected default limit to apply, got %#v", payload.Data)
	}

	var nilComponent *choices.Component
	if got := nilComponent.Options().RoutePath; got != "/api/choices" {
		t.Fatalf("nil component should expose defaults, got %q", got)
	}
}
