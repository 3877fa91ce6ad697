package bundles

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

// Entry is a bundle definition together with its registration slug and order.
type Entry struct {
	Slug   string `json:"slug" yaml:"slug"`
	Order  int    `json:"order,omitempty" yaml:"order,omitempty"`
	Bundle `yaml:",inline"`
}

// Policy grants Subject the view action on Object ("<bundle>/<view>", with
// keyMatch wildcards).
type Policy struct {
	Subject string `json:"subject" yaml:"subject"`
	Object  string `json:"object" yaml:"object"`
}

// Grouping makes Member inherit the permissions of Parent.
type Grouping struct {
	Member string `json:"member" yaml:"member"`
	Parent string `json:"parent" yaml:"parent"`
}

// Definitions is everything loaded from a definitions directory.
type Definitions struct {
	Models    []model.Model
	Bundles   []Entry
	Policies  []Policy
	Groupings []Grouping
	// Fixtures holds seed rows per model, used by the in-memory store.
	Fixtures map[model.ModelID][]map[string]any
}

type documentFile struct {
	Models    []model.Model                      `json:"models" yaml:"models"`
	Bundles   []Entry                            `json:"bundles" yaml:"bundles"`
	Policies  []Policy                           `json:"policies" yaml:"policies"`
	Groupings []Grouping                         `json:"groupings" yaml:"groupings"`
	Fixtures  map[model.ModelID][]map[string]any `json:"fixtures" yaml:"fixtures"`
}

// LoadFS walks fsys and merges every JSON/YAML definition file it finds.
// A nil filesystem yields empty definitions. Files are read in lexical
// order; duplicate model ids or bundle slugs across files are errors.
func LoadFS(fsys fs.FS) (*Definitions, error) {
	defs := &Definitions{Fixtures: make(map[model.ModelID][]map[string]any)}
	if fsys == nil {
		return defs, nil
	}

	models := make(map[model.ModelID]string)
	slugs := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("bundles: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for _, m := range doc.Models {
			id := model.ModelID(strings.TrimSpace(string(m.ID)))
			if id == "" {
				return fmt.Errorf("bundles: file %s defines a model without an id", path)
			}
			if prev, exists := models[id]; exists {
				return fmt.Errorf("bundles: duplicate model %q (files %s, %s)", id, prev, path)
			}
			models[id] = path
			m.ID = id
			defs.Models = append(defs.Models, m)
		}
		for _, b := range doc.Bundles {
			slug := strings.TrimSpace(b.Slug)
			if slug == "" {
				return fmt.Errorf("bundles: file %s defines a bundle without a slug", path)
			}
			if prev, exists := slugs[slug]; exists {
				return fmt.Errorf("bundles: duplicate bundle %q (files %s, %s)", slug, prev, path)
			}
			slugs[slug] = path
			b.Slug = slug
			defs.Bundles = append(defs.Bundles, b)
		}
		defs.Policies = append(defs.Policies, doc.Policies...)
		defs.Groupings = append(defs.Groupings, doc.Groupings...)
		for id, rows := range doc.Fixtures {
			defs.Fixtures[id] = append(defs.Fixtures[id], rows...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(defs.Models, func(i, j int) bool { return defs.Models[i].ID < defs.Models[j].ID })
	return defs, nil
}

// Catalog returns a store catalog holding every loaded model.
func (d *Definitions) Catalog() *store.Catalog {
	if d == nil {
		return store.NewCatalog()
	}
	return store.NewCatalog(d.Models...)
}

// Registry registers every loaded bundle on a new builder and builds it.
func (d *Definitions) Registry(opts ...Option) (*Registry, error) {
	builder := NewBuilder(opts...)
	if d != nil {
		for _, entry := range d.Bundles {
			builder.Register(entry.Slug, entry.Bundle, entry.Order)
		}
	}
	return builder.Build()
}

// ApplyPolicies loads the declared policies and groupings into authz.
func (d *Definitions) ApplyPolicies(authz *auth.CasbinAuthorizer) error {
	if d == nil || authz == nil {
		return nil
	}
	for _, policy := range d.Policies {
		if err := authz.Allow(policy.Subject, policy.Object); err != nil {
			return fmt.Errorf("bundles: %w", err)
		}
	}
	for _, grouping := range d.Groupings {
		if err := authz.Inherit(grouping.Member, grouping.Parent); err != nil {
			return fmt.Errorf("bundles: %w", err)
		}
	}
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("bundles: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("bundles: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("bundles: parse %s: %w", source, err)
	}
	return doc, nil
}
