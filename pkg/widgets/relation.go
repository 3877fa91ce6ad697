package widgets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/links"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/query"
	"github.com/goliatone/go-cmswidgets/pkg/render/template"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

// ErrNoStore reports a relation widget asked to resolve a label without a
// store to resolve it against.
var ErrNoStore = errors.New("widgets: relation widget has no store")

// LookupStrategy tells a RelationWidget which model it points at, which
// field references are matched against and which restriction applies to the
// choices endpoint.
type LookupStrategy interface {
	Target() model.ModelID
	LookupField() string
	Restriction() query.FilterSet
}

type foreignKey struct {
	rel model.Relation
}

// ForeignKey derives the lookup from a relation: its target model, its
// ToField (default: primary key) and its LimitChoicesTo restriction.
func ForeignKey(rel model.Relation) LookupStrategy {
	rel.LimitChoicesTo = rel.LimitChoicesTo.Clone()
	return foreignKey{rel: rel}
}

func (s foreignKey) Target() model.ModelID        { return s.rel.Target }
func (s foreignKey) LookupField() string          { return s.rel.RelatedField() }
func (s foreignKey) Restriction() query.FilterSet { return s.rel.LimitChoicesTo.Clone() }

type modelLookup struct {
	id    model.ModelID
	limit query.FilterSet
}

// ModelLookup points at a bare model with an explicit restriction. References
// are always primary keys.
func ModelLookup(id model.ModelID, limit query.FilterSet) LookupStrategy {
	return modelLookup{id: id, limit: limit.Clone()}
}

func (s modelLookup) Target() model.ModelID        { return s.id }
func (s modelLookup) LookupField() string          { return model.PrimaryKeyAlias }
func (s modelLookup) Restriction() query.FilterSet { return s.limit.Clone() }

// RelationOption configures a RelationWidget.
type RelationOption func(*RelationWidget)

// WithStore sets the store labels are resolved against.
func WithStore(reader store.Reader) RelationOption {
	return func(w *RelationWidget) { w.store = reader }
}

// WithAttrs sets attributes for the hidden input.
func WithAttrs(attrs Attrs) RelationOption {
	return func(w *RelationWidget) { w.attrs = attrs.Clone() }
}

// WithViews sets the bundle views used for the browse and add links.
// Blank names keep the defaults.
func WithViews(view, addView string) RelationOption {
	return func(w *RelationWidget) {
		if view = strings.TrimSpace(view); view != "" {
			w.view = view
		}
		if addView = strings.TrimSpace(addView); addView != "" {
			w.addView = addView
		}
	}
}

// WithAPIURL sets the browse link used until UpdateLinks finds a bundle.
func WithAPIURL(url string) RelationOption {
	return func(w *RelationWidget) { w.apiURL = strings.TrimSpace(url) }
}

// WithAddURL sets the add link used until UpdateLinks finds a bundle.
func WithAddURL(url string) RelationOption {
	return func(w *RelationWidget) { w.addURL = strings.TrimSpace(url) }
}

// WithExtraFilters overlays filters on the strategy restriction. Extra
// filters win on key collision.
func WithExtraFilters(filters query.FilterSet) RelationOption {
	return func(w *RelationWidget) { w.extra = filters.Clone() }
}

// WithTemplates renders through renderer instead of the embedded templates.
func WithTemplates(renderer template.TemplateRenderer) RelationOption {
	return func(w *RelationWidget) { w.renderer = renderer }
}

// RelationWidget renders a hidden reference input wrapped in a container
// carrying the referenced record's label and links to browse and add
// records of the target model.
//
// Links are per user. Clone the widget for each request and call
// UpdateLinks on the clone; until then the configured defaults (normally
// empty) are used.
type RelationWidget struct {
	strategy LookupStrategy
	store    store.Reader
	attrs    Attrs
	view     string
	addView  string
	apiURL   string
	addURL   string
	extra    query.FilterSet
	renderer template.TemplateRenderer
}

var (
	_ Widget      = (*RelationWidget)(nil)
	_ LinkUpdater = (*RelationWidget)(nil)
)

// NewRelationWidget builds a widget for strategy.
func NewRelationWidget(strategy LookupStrategy, opts ...RelationOption) *RelationWidget {
	w := &RelationWidget{
		strategy: strategy,
		attrs:    Attrs{},
		view:     bundles.ViewMain,
		addView:  bundles.ViewAdd,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Target returns the referenced model.
func (w *RelationWidget) Target() model.ModelID {
	if w.strategy == nil {
		return ""
	}
	return w.strategy.Target()
}

// Views returns the browse and add view names.
func (w *RelationWidget) Views() (string, string) {
	return w.view, w.addView
}

// Render implements Widget.
func (w *RelationWidget) Render(ctx context.Context, name string, value any, attrs Attrs) (string, error) {
	input, err := renderWith(w.renderer, TemplateInput, map[string]any{
		"type":  "hidden",
		"name":  name,
		"value": FormatValue(value),
		"attrs": w.attrs.Merge(attrs).List("type", "name", "value"),
	})
	if err != nil {
		return "", err
	}
	label, err := w.LabelForValue(ctx, value)
	if err != nil {
		return "", err
	}
	return renderWith(w.renderer, TemplateAPISelect, map[string]any{
		"title": label,
		"api":   w.APILink(),
		"add":   w.AddLink(),
		"input": input,
	})
}

// LabelForValue returns the label of the referenced record. Empty, malformed
// and dangling references yield "" without error; any other store failure
// is returned.
func (w *RelationWidget) LabelForValue(ctx context.Context, value any) (string, error) {
	if isEmptyReference(value) {
		return "", nil
	}
	if w.store == nil {
		return "", ErrNoStore
	}
	record, err := w.store.Get(ctx, w.Target(), w.lookupField(), value)
	if err != nil {
		if store.Silent(err) {
			return "", nil
		}
		return "", fmt.Errorf("widgets: label for %s: %w", w.Target(), err)
	}
	return record.Label, nil
}

// QueryFilters returns the restriction with the extra filters overlaid.
func (w *RelationWidget) QueryFilters() query.FilterSet {
	var restriction query.FilterSet
	if w.strategy != nil {
		restriction = w.strategy.Restriction()
	}
	return query.Merge(restriction, w.extra)
}

// APILink returns the browse link with the choices discriminator and the
// encoded filters, or "" when no browse URL is known.
func (w *RelationWidget) APILink() string {
	return query.ChoicesURL(w.apiURL, w.QueryFilters())
}

// AddLink returns the add link in popup mode, or "" when no add URL is known.
func (w *RelationWidget) AddLink() string {
	return query.PopupURL(w.addURL)
}

// UpdateLinks asks resolver for the browse and add URLs user may open. When
// the target model has a bundle both links are replaced, possibly with "".
// Without a bundle the configured defaults stay.
func (w *RelationWidget) UpdateLinks(ctx context.Context, user auth.User, resolver links.URLResolver) {
	if resolver == nil || !resolver.Registered(w.Target()) {
		return
	}
	w.apiURL = resolver.URL(ctx, w.Target(), w.view, user)
	w.addURL = resolver.URL(ctx, w.Target(), w.addView, user)
}

// IsHidden implements Widget.
func (w *RelationWidget) IsHidden() bool {
	return false
}

// Clone implements Widget.
func (w *RelationWidget) Clone() Widget {
	out := *w
	out.attrs = w.attrs.Clone()
	out.extra = w.extra.Clone()
	return &out
}

func (w *RelationWidget) lookupField() string {
	if w.strategy == nil {
		return model.PrimaryKeyAlias
	}
	return w.strategy.LookupField()
}

func isEmptyReference(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return len(v) == 0
	}
	return false
}
