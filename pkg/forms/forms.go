// Package forms binds widgets to form fields for one request.
//
// A Form is a static description. Preparer turns it into a Bound form for a
// given user: every field gets a fresh widget, relation widgets get their
// links resolved for that user, and relations to models without a bundle
// fall back to a plain select (or text input when no store is available).
package forms

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/links"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/render/template"
	"github.com/goliatone/go-cmswidgets/pkg/render/template/gotemplate"
	"github.com/goliatone/go-cmswidgets/pkg/store"
	"github.com/goliatone/go-cmswidgets/pkg/widgets"
)

// EmptyChoiceLabel labels the blank option of optional fallback selects.
const EmptyChoiceLabel = "---------"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

var (
	formOnce     sync.Once
	formRenderer template.TemplateRenderer
	formErr      error
)

func defaultFormRenderer() (template.TemplateRenderer, error) {
	formOnce.Do(func() {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			formErr = err
			return
		}
		formRenderer, formErr = gotemplate.New(gotemplate.WithFS(sub))
	})
	return formRenderer, formErr
}

// Form describes the fields of a form.
type Form struct {
	Name   string        `json:"name" yaml:"name"`
	Fields []model.Field `json:"fields" yaml:"fields"`
}

// Preparer binds forms to widgets.
type Preparer struct {
	Registry *widgets.Registry
	Resolver links.URLResolver
	Store    store.Reader
	// Renderer overrides both widget and form templates.
	Renderer template.TemplateRenderer
}

// Prepare builds per-request widgets for every field of form.
func (p Preparer) Prepare(ctx context.Context, form Form, user auth.User) (*Bound, error) {
	registry := p.Registry
	if registry == nil {
		registry = widgets.NewRegistry()
	}
	env := widgets.Env{Store: p.Store, Renderer: p.Renderer}

	bound := &Bound{Name: form.Name, renderer: p.Renderer}
	seen := make(map[string]struct{}, len(form.Fields))
	for _, field := range form.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return nil, fmt.Errorf("forms: %s has a field without a name", form.Name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("forms: %s declares field %q twice", form.Name, name)
		}
		seen[name] = struct{}{}

		widget, err := p.widgetFor(ctx, registry, field, env)
		if err != nil {
			return nil, err
		}
		if updater, ok := widget.(widgets.LinkUpdater); ok {
			updater.UpdateLinks(ctx, user, p.Resolver)
		}
		bound.Fields = append(bound.Fields, BoundField{Field: field, Widget: widget})
	}
	return bound, nil
}

func (p Preparer) widgetFor(ctx context.Context, registry *widgets.Registry, field model.Field, env widgets.Env) (widgets.Widget, error) {
	name, ok := registry.Resolve(field)
	if !ok {
		return nil, fmt.Errorf("forms: no widget for field %q", field.Name)
	}
	if name == widgets.WidgetRelation && field.Relation != nil && !p.registered(field.Relation.Target) {
		return p.fallback(ctx, field)
	}
	return registry.BuildNamed(name, field, env)
}

func (p Preparer) registered(id model.ModelID) bool {
	return p.Resolver != nil && p.Resolver.Registered(id)
}

// fallback lists the target records into a select. Without a store the
// reference is edited as plain text.
func (p Preparer) fallback(ctx context.Context, field model.Field) (widgets.Widget, error) {
	if p.Store == nil {
		w := widgets.NewTextInput(field.Attrs)
		w.Renderer = p.Renderer
		return w, nil
	}
	records, err := p.Store.List(ctx, field.Relation.Target, store.ListQuery{Filters: field.Relation.LimitChoicesTo})
	if err != nil {
		return nil, fmt.Errorf("forms: choices for %q: %w", field.Name, err)
	}
	var choices []model.Choice
	if !field.Required {
		choices = append(choices, model.Choice{Value: "", Label: EmptyChoiceLabel})
	}
	for _, record := range records {
		choices = append(choices, model.Choice{Value: record.ID, Label: record.Label})
	}
	w := widgets.NewSelect(field.Attrs, choices...)
	w.Renderer = p.Renderer
	return w, nil
}

// BoundField pairs a field with its per-request widget.
type BoundField struct {
	Field  model.Field
	Widget widgets.Widget
}

// ID returns the element id used for the field's label.
func (f BoundField) ID() string {
	return "id_" + f.Field.Name
}

// Bound is a form prepared for one request.
type Bound struct {
	Name     string
	Fields   []BoundField
	renderer template.TemplateRenderer
	errors   ErrorMapping
}

// Field returns the bound field by name.
func (b *Bound) Field(name string) (BoundField, bool) {
	if b == nil {
		return BoundField{}, false
	}
	for _, field := range b.Fields {
		if field.Field.Name == name {
			return field, true
		}
	}
	return BoundField{}, false
}

type renderedField struct {
	ID       string
	Name     string
	Label    string
	Required bool
	Hidden   bool
	HTML     string
	Errors   []string
}

// Render renders every field with its label and any errors stored by
// SetErrors. values maps field names to current values; missing names
// render empty.
func (b *Bound) Render(ctx context.Context, values map[string]any) (string, error) {
	if b == nil {
		return "", errors.New("forms: nil form")
	}
	rendered := make([]renderedField, 0, len(b.Fields))
	for _, field := range b.Fields {
		html, err := field.Widget.Render(ctx, field.Field.Name, values[field.Field.Name], widgets.Attrs{"id": field.ID()})
		if err != nil {
			return "", fmt.Errorf("forms: render %q: %w", field.Field.Name, err)
		}
		rendered = append(rendered, renderedField{
			ID:       field.ID(),
			Name:     field.Field.Name,
			Label:    field.Field.DisplayLabel(),
			Required: field.Field.Required,
			Hidden:   field.Widget.IsHidden(),
			HTML:     html,
			Errors:   b.errors.Fields[field.Field.Name],
		})
	}

	renderer := b.renderer
	if renderer == nil {
		var err error
		if renderer, err = defaultFormRenderer(); err != nil {
			return "", err
		}
	}
	out, err := renderer.RenderTemplate("form", map[string]any{
		"name":   b.Name,
		"fields": rendered,
		"errors": b.errors.Form,
	})
	if err != nil {
		return "", fmt.Errorf("forms: render %s: %w", b.Name, err)
	}
	return strings.TrimRight(out, "\r\n"), nil
}

// ValueFromData extracts submitted values, letting widgets that implement
// widgets.ValueReader post-process their input.
func (b *Bound) ValueFromData(data url.Values) map[string]any {
	out := make(map[string]any, len(b.Fields))
	for _, field := range b.Fields {
		name := field.Field.Name
		if reader, ok := field.Widget.(widgets.ValueReader); ok {
			out[name] = reader.ValueFromData(data, name)
			continue
		}
		if values, ok := data[name]; ok && len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
