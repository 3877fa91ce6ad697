package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/render/template"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetRelation      = "relation"
	WidgetSplitDateTime = "split-datetime"
	WidgetDate          = "date"
	WidgetTimeChoice    = "time-choice"
	WidgetAutoSlug      = "auto-slug"
	WidgetHTML          = "wysiwyg"
	WidgetHiddenText    = "hidden-text"
	WidgetSelect        = "select"
	WidgetHidden        = "hidden"
	WidgetTextarea      = "textarea"
	WidgetText          = "text"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field model.Field) bool

// Env carries the dependencies factories wire into widgets.
type Env struct {
	Store    store.Reader
	Renderer template.TemplateRenderer
}

// Factory builds a fresh widget for a field.
type Factory func(field model.Field, env Env) (Widget, error)

type rule struct {
	name     string
	priority int
	match    Matcher
	factory  Factory
	order    int
}

// Registry selects widgets for fields based on explicit hints or registered
// matchers. Higher priority wins; ties fall back to registration order. An
// empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widgets registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget with the provided name, priority, matcher and
// factory. A nil matcher registers a widget reachable only by explicit
// name. Registering an existing name replaces its factory and matcher.
func (r *Registry) Register(name string, priority int, matcher Matcher, factory Factory) {
	if r == nil || factory == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		factory:  factory,
		order:    len(r.rules),
	}
	for idx := range r.rules {
		if r.rules[idx].name == trimmed {
			entry.order = r.rules[idx].order
			r.rules[idx] = entry
			return
		}
	}
	r.rules = append(r.rules, entry)
}

// Resolve returns the widget name for a field. An explicit Field.Widget
// naming a registered widget is honoured before matcher evaluation.
func (r *Registry) Resolve(field model.Field) (string, bool) {
	if r == nil {
		return "", false
	}
	rules := r.sorted()
	if explicit := strings.TrimSpace(field.Widget); explicit != "" {
		for _, entry := range rules {
			if entry.name == explicit {
				return entry.name, true
			}
		}
	}
	for _, entry := range rules {
		if entry.match != nil && entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Build resolves and instantiates the widget for field.
func (r *Registry) Build(field model.Field, env Env) (Widget, error) {
	name, ok := r.Resolve(field)
	if !ok {
		return nil, fmt.Errorf("widgets: no widget for field %q", field.Name)
	}
	return r.BuildNamed(name, field, env)
}

// BuildNamed instantiates a registered widget by name.
func (r *Registry) BuildNamed(name string, field model.Field, env Env) (Widget, error) {
	if r == nil {
		return nil, fmt.Errorf("widgets: unknown widget %q", name)
	}
	r.mu.RLock()
	var factory Factory
	for _, entry := range r.rules {
		if entry.name == name {
			factory = entry.factory
			break
		}
	}
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("widgets: unknown widget %q", name)
	}
	widget, err := factory(field, env)
	if err != nil {
		return nil, fmt.Errorf("widgets: build %s for field %q: %w", name, field.Name, err)
	}
	return widget, nil
}

// Names returns registered widget names in resolution order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	rules := r.sorted()
	out := make([]string, 0, len(rules))
	for _, entry := range rules {
		out = append(out, entry.name)
	}
	return out
}

func (r *Registry) sorted() []rule {
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	return rules
}

func kindIs(kind model.FieldKind) Matcher {
	return func(field model.Field) bool { return field.Kind == kind }
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetRelation, 100, func(field model.Field) bool {
		return field.Kind == model.FieldForeignKey && field.Relation != nil
	}, func(field model.Field, env Env) (Widget, error) {
		if field.Relation == nil {
			return nil, fmt.Errorf("field %q has no relation", field.Name)
		}
		return NewRelationWidget(ForeignKey(*field.Relation),
			WithStore(env.Store),
			WithAttrs(field.Attrs),
			WithTemplates(env.Renderer),
		), nil
	})

	r.Register(WidgetSplitDateTime, 90, kindIs(model.FieldDateTime), func(field model.Field, env Env) (Widget, error) {
		w, err := NewSplitDateTime(field.Attrs, field.Required)
		if err != nil {
			return nil, err
		}
		w.Renderer = env.Renderer
		w.Date.Renderer = env.Renderer
		w.Time.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetDate, 80, kindIs(model.FieldDate), func(field model.Field, env Env) (Widget, error) {
		w := NewDateWidget(field.Attrs)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetTimeChoice, 70, kindIs(model.FieldTime), func(field model.Field, env Env) (Widget, error) {
		w, err := NewTimeChoiceWidget(field.Attrs)
		if err != nil {
			return nil, err
		}
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetAutoSlug, 60, kindIs(model.FieldSlug), func(field model.Field, env Env) (Widget, error) {
		w := NewAutoSlugWidget(field.Attrs, field.PopulateFrom...)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetHTML, 50, kindIs(model.FieldHTML), func(field model.Field, env Env) (Widget, error) {
		w := NewHTMLWidget(field.Attrs)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetHiddenText, 40, kindIs(model.FieldOrder), func(field model.Field, env Env) (Widget, error) {
		w := NewHiddenTextInput(field.Attrs)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetSelect, 30, func(field model.Field) bool {
		return field.Kind == model.FieldChoice || (field.Kind == "" && len(field.Choices) > 0)
	}, func(field model.Field, env Env) (Widget, error) {
		w := NewSelect(field.Attrs, field.Choices...)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetHidden, 20, kindIs(model.FieldHidden), func(field model.Field, env Env) (Widget, error) {
		w := NewHiddenInput(field.Attrs)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetTextarea, 10, nil, func(field model.Field, env Env) (Widget, error) {
		w := NewTextarea(field.Attrs)
		w.Renderer = env.Renderer
		return w, nil
	})

	r.Register(WidgetText, 0, func(model.Field) bool { return true }, func(field model.Field, env Env) (Widget, error) {
		w := NewTextInput(field.Attrs)
		w.Renderer = env.Renderer
		return w, nil
	})
}
