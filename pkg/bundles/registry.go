package bundles

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/model"
)

// DefaultMountPath is the URL prefix bundles are mounted under.
const DefaultMountPath = "/admin"

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// unsafePathChars may not appear in mount or view paths: they would end an
// HTML attribute or start the query the widgets append.
const unsafePathChars = "\"'<>?"

// ErrNoBundle reports that no bundle is registered for the requested key.
var ErrNoBundle = errors.New("bundles: no bundle registered")

// Option customises a Builder.
type Option func(*Builder)

// WithMountPath sets the URL prefix for every bundle.
func WithMountPath(path string) Option {
	return func(b *Builder) {
		path = strings.TrimSpace(path)
		if path == "" {
			return
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		b.mount = strings.TrimRight(path, "/")
	}
}

// WithAuthorizer sets the authorizer bundles consult in ViewURL.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(b *Builder) {
		if a != nil {
			b.authorizer = a
		}
	}
}

type registration struct {
	slug   string
	bundle Bundle
	order  int
	seq    int
}

// Builder collects bundle registrations at startup. It is not safe for
// concurrent use; build the Registry once and share that instead.
type Builder struct {
	mount      string
	authorizer auth.Authorizer
	entries    []registration
}

// NewBuilder constructs an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		mount:      DefaultMountPath,
		authorizer: auth.GroupAuthorizer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Register queues bundle under slug. Lower order values sort first.
// Validation happens in Build.
func (b *Builder) Register(slug string, bundle Bundle, order int) *Builder {
	if b == nil {
		return nil
	}
	b.entries = append(b.entries, registration{
		slug:   strings.TrimSpace(slug),
		bundle: bundle.clone(),
		order:  order,
		seq:    len(b.entries),
	})
	return b
}

// Build validates the registrations and returns an immutable Registry.
func (b *Builder) Build() (*Registry, error) {
	if b == nil {
		return nil, errors.New("bundles: nil builder")
	}

	if strings.ContainsAny(b.mount, unsafePathChars) {
		return nil, fmt.Errorf("bundles: invalid mount path %q", b.mount)
	}

	reg := &Registry{
		bySlug:  make(map[string]Bundle, len(b.entries)),
		primary: make(map[model.ModelID]string),
	}
	entries := append([]registration(nil), b.entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order == entries[j].order {
			return entries[i].slug < entries[j].slug
		}
		return entries[i].order < entries[j].order
	})

	fallback := make(map[model.ModelID]string)
	for _, entry := range entries {
		if !slugPattern.MatchString(entry.slug) {
			return nil, fmt.Errorf("bundles: invalid slug %q", entry.slug)
		}
		if _, exists := reg.bySlug[entry.slug]; exists {
			return nil, fmt.Errorf("bundles: duplicate slug %q", entry.slug)
		}
		bundle := entry.bundle
		if strings.TrimSpace(string(bundle.Model)) == "" {
			return nil, fmt.Errorf("bundles: bundle %q has no model", entry.slug)
		}
		if len(bundle.Views) == 0 {
			bundle.Views = DefaultViews()
		}
		if err := validateViews(entry.slug, bundle.Views); err != nil {
			return nil, err
		}
		if bundle.Name == "" {
			bundle.Name = entry.slug
		}
		bundle.slug = entry.slug
		bundle.order = entry.order
		bundle.mount = b.mount
		bundle.authorizer = b.authorizer

		if bundle.Primary {
			if other, exists := reg.primary[bundle.Model]; exists {
				return nil, fmt.Errorf("bundles: model %s has two primary bundles (%q, %q)", bundle.Model, other, entry.slug)
			}
			reg.primary[bundle.Model] = entry.slug
		} else if _, exists := fallback[bundle.Model]; !exists {
			fallback[bundle.Model] = entry.slug
		}

		reg.bySlug[entry.slug] = bundle
		reg.ordered = append(reg.ordered, entry.slug)
	}

	// A model with a single non-primary bundle still resolves to it.
	for id, slug := range fallback {
		if _, exists := reg.primary[id]; !exists {
			reg.primary[id] = slug
		}
	}

	return reg, nil
}

func validateViews(slug string, views []View) error {
	seen := make(map[string]struct{}, len(views))
	for _, view := range views {
		name := strings.TrimSpace(view.Name)
		if name == "" {
			return fmt.Errorf("bundles: bundle %q declares a view without a name", slug)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("bundles: bundle %q declares view %q twice", slug, name)
		}
		seen[name] = struct{}{}
		if strings.ContainsAny(view.Path, unsafePathChars) {
			return fmt.Errorf("bundles: bundle %q view %q has invalid path %q", slug, name, view.Path)
		}
	}
	return nil
}

// Registry maps models to their primary bundle. It is read-only once built
// and safe for concurrent use.
type Registry struct {
	bySlug  map[string]Bundle
	primary map[model.ModelID]string
	ordered []string
}

// ForModel returns the primary bundle for id. When a model has no bundle
// flagged primary, the first registered bundle for it is used.
func (r *Registry) ForModel(id model.ModelID) (Bundle, bool) {
	if r == nil {
		return Bundle{}, false
	}
	slug, ok := r.primary[id]
	if !ok {
		return Bundle{}, false
	}
	return r.Bundle(slug)
}

// Bundle returns the bundle registered under slug.
func (r *Registry) Bundle(slug string) (Bundle, bool) {
	if r == nil {
		return Bundle{}, false
	}
	bundle, ok := r.bySlug[slug]
	if !ok {
		return Bundle{}, false
	}
	return bundle.clone(), true
}

// Lookup is Bundle with an error for callers that prefer one.
func (r *Registry) Lookup(slug string) (Bundle, error) {
	bundle, ok := r.Bundle(slug)
	if !ok {
		return Bundle{}, fmt.Errorf("%w: %q", ErrNoBundle, slug)
	}
	return bundle, nil
}

// Bundles returns every bundle sorted by order, then slug.
func (r *Registry) Bundles() []Bundle {
	if r == nil {
		return nil
	}
	out := make([]Bundle, 0, len(r.ordered))
	for _, slug := range r.ordered {
		out = append(out, r.bySlug[slug].clone())
	}
	return out
}

// Len reports the number of registered bundles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}
