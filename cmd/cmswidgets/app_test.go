package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
)

func testApp(t *testing.T) *app {
	t.Helper()

	v, err := loadConfig("testdata/cmswidgets.yaml", nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, err := readSettings(v)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	a, err := buildApp(context.Background(), s)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func get(t *testing.T, h http.Handler, user, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != "" {
		req.Header.Set(defaultUserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReadSettings(t *testing.T) {
	a := testApp(t)

	if a.settings.Mount != "/cms" || a.settings.Authorizer != authorizerCasbin || a.settings.Addr != defaultAddr {
		t.Fatalf("unexpected settings %#v", a.settings)
	}
	if grace := a.user("Grace"); grace.Username != "grace" || !grace.InGroup("admins") {
		t.Fatalf("unexpected demo user %#v", grace)
	}
	if a.user("nobody").CanEnterCMS() {
		t.Fatalf("unknown users must be anonymous")
	}
}

func TestAppUser_MatchesUsernameIgnoringCase(t *testing.T) {
	a := &app{settings: settings{Users: map[string]auth.User{
		"hopper": {Username: "Grace.Hopper", Active: true, Staff: true},
	}}}

	for _, name := range []string{"hopper", "HOPPER", "grace.hopper", " Grace.Hopper "} {
		if got := a.user(name); got.Username != "Grace.Hopper" {
			t.Errorf("user(%q) = %#v", name, got)
		}
	}
	if a.user("grace").CanEnterCMS() {
		t.Fatalf("partial names must stay anonymous")
	}
}

func TestReadSettings_Errors(t *testing.T) {
	cases := map[string]map[string]any{
		"store":      {cfgKeyStore: "redis"},
		"authorizer": {cfgKeyAuthorizer: "ldap"},
		"dsn":        {cfgKeyStore: storeSQLite},
	}
	for name, values := range cases {
		v, err := loadConfig("", nil)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		for key, value := range values {
			v.Set(key, value)
		}
		if _, err := readSettings(v); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRoutes_Choices(t *testing.T) {
	a := testApp(t)
	h, err := a.routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}

	rec := get(t, h, "grace", "/cms/users/?type=choices&status=active&exclude=status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload struct {
		Data []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"data"`
		Filters map[string]string `json:"filters"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 2 || payload.Filters["status"] != "active" {
		t.Fatalf("unexpected payload %#v", payload)
	}

	cases := []struct {
		user   string
		target string
		code   int
	}{
		{user: "ada", target: "/cms/users/?type=choices", code: http.StatusForbidden},
		{user: "ada", target: "/cms/items/?type=choices", code: http.StatusOK},
		{user: "", target: "/cms/items/?type=choices", code: http.StatusForbidden},
		{user: "ada", target: "/healthz", code: http.StatusOK},
	}
	for _, tc := range cases {
		if rec := get(t, h, tc.user, tc.target); rec.Code != tc.code {
			t.Errorf("%s %s: expected status %d, got %d", tc.user, tc.target, tc.code, rec.Code)
		}
	}
}

func TestRoutes_Forms(t *testing.T) {
	a := testApp(t)
	h, err := a.routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}

	denied := get(t, h, "ada", "/forms/item").Body.String()
	if !strings.Contains(denied, `data-api="" data-add=""`) {
		t.Fatalf("editor should not get user links: %s", denied)
	}
	if !strings.Contains(denied, `<option value="">---------</option><option value="5b0a8d3e-8f4c-4a51-9f0e-6a3c7f1a2b10">go</option>`) {
		t.Fatalf("unregistered tag model should fall back to a select: %s", denied)
	}

	allowed := get(t, h, "grace", "/forms/item?owner=2").Body.String()
	for _, want := range []string{
		`data-title="grace"`,
		`data-api="/cms/users/?type=choices&amp;status=active&amp;exclude=status"`,
		`data-add="/cms/users/add/?popup=1"`,
	} {
		if !strings.Contains(allowed, want) {
			t.Fatalf("manager form missing %s: %s", want, allowed)
		}
	}

	if rec := get(t, h, "grace", "/forms/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestResolve(t *testing.T) {
	a := testApp(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	resolveUser, resolveValue = "ada", "42"
	t.Cleanup(func() { resolveUser, resolveValue = "", "" })

	if err := resolve(cmd, a, "shop.item"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := strings.Join([]string{
		"bundle: items",
		"view main: /cms/items/",
		"view add: /cms/items/add/",
		"view edit: (item view)",
		"view delete: (item view)",
		"api: /cms/items/?type=choices",
		"add: /cms/items/add/?popup=1",
		"label: Lamp",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	resolveValue = ""
	if err := resolve(cmd, a, "blog.tag"); err != nil {
		t.Fatalf("resolve tag: %v", err)
	}
	if want := "bundle: (none)\napi: \nadd: \n"; out.String() != want {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestResolve_Bundle(t *testing.T) {
	a := testApp(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	resolveUser, resolveBundle = "grace", "users"
	t.Cleanup(func() { resolveUser, resolveBundle = "", "" })

	if err := resolve(cmd, a, "auth.user"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(out.String(), "bundle: users\nview main: /cms/users/\n") {
		t.Fatalf("unexpected output %q", out.String())
	}

	resolveBundle = "missing"
	if err := resolve(cmd, a, "auth.user"); !errors.Is(err, bundles.ErrNoBundle) {
		t.Fatalf("expected ErrNoBundle, got %v", err)
	}

	resolveBundle = "items"
	if err := resolve(cmd, a, "auth.user"); err == nil || !strings.Contains(err.Error(), "serves shop.item") {
		t.Fatalf("expected model mismatch error, got %v", err)
	}
}
