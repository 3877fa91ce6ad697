package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/query"
	"github.com/goliatone/go-cmswidgets/pkg/store"
	"github.com/goliatone/go-cmswidgets/pkg/store/memory"
)

// Model identifiers used by the shared fixtures.
const (
	UserModel  model.ModelID = "auth.user"
	PostModel  model.ModelID = "blog.post"
	ItemModel  model.ModelID = "shop.item"
	TagModel   model.ModelID = "blog.tag"
	GroupAdmin               = "admins"
)

// Shared principals.
var (
	Admin = auth.User{Username: "root", Active: true, Staff: true, Superuser: true}
	// Editor is staff outside the admins group.
	Editor = auth.User{Username: "ada", Active: true, Staff: true, Groups: []string{"editors"}}
	// Manager is staff inside the admins group.
	Manager = auth.User{Username: "grace", Active: true, Staff: true, Groups: []string{GroupAdmin}}
)

// Catalog returns model definitions for users, posts, items and tags. Tags
// deliberately have no bundle in Registry.
func Catalog() *store.Catalog {
	return store.NewCatalog(
		model.Model{
			ID:         UserModel,
			Table:      "users",
			KeyKind:    model.KeyInteger,
			LabelField: "username",
			Fields:     map[string]model.KeyKind{"email": model.KeyString, "status": model.KeyString},
		},
		model.Model{
			ID:         PostModel,
			Table:      "posts",
			KeyKind:    model.KeyInteger,
			LabelField: "title",
			Fields:     map[string]model.KeyKind{"author": model.KeyInteger, "slug": model.KeyString},
		},
		model.Model{
			ID:         ItemModel,
			Table:      "items",
			KeyKind:    model.KeyInteger,
			LabelField: "name",
			Fields:     map[string]model.KeyKind{"status": model.KeyString, "owner": model.KeyInteger},
		},
		model.Model{
			ID:         TagModel,
			Table:      "tags",
			KeyKind:    model.KeyUUID,
			LabelField: "name",
		},
	)
}

// MemoryStore returns an in-memory store seeded over Catalog.
func MemoryStore(t *testing.T) *memory.Store {
	t.Helper()

	s := memory.New(Catalog())
	seed := map[model.ModelID][]memory.Row{
		UserModel: {
			{"id": 1, "username": "ada", "email": "ada@example.com", "status": "active"},
			{"id": 2, "username": "grace", "email": "grace@example.com", "status": "active"},
			{"id": 3, "username": "alan", "email": "alan@example.com", "status": "retired"},
		},
		ItemModel: {
			{"id": 42, "name": "Lamp <brass>", "status": "active", "owner": 7},
			{"id": 43, "name": "Desk", "status": "active", "owner": 7},
			{"id": 44, "name": "Chair", "status": "archived", "owner": 8},
		},
		TagModel: {
			{"id": "5b0a8d3e-8f4c-4a51-9f0e-6a3c7f1a2b10", "name": "go"},
		},
	}
	for id, rows := range seed {
		if err := s.Insert(id, rows...); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	return s
}

// Registry returns a bundle registry with users restricted to admins and
// open items and posts bundles.
func Registry(t *testing.T, opts ...bundles.Option) *bundles.Registry {
	t.Helper()

	reg, err := bundles.NewBuilder(opts...).
		Register("users", bundles.Bundle{Model: UserModel, Primary: true, RequiredGroups: []string{GroupAdmin}}, 10).
		Register("items", bundles.Bundle{Model: ItemModel, Primary: true}, 20).
		Register("posts", bundles.Bundle{Model: PostModel, Primary: true}, 30).
		Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

// Filters builds an ordered filter set from alternating key/value pairs.
func Filters(pairs ...any) query.FilterSet {
	var out query.FilterSet
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		out = out.Set(key, pairs[i+1])
	}
	return out
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
