package widgets

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/render/template"
)

// DateFormatAttr carries the client-side date picker format.
const DateFormatAttr = "data-date-format"

// Input renders a single <input> element.
type Input struct {
	Type   string
	Attrs  Attrs
	Hidden bool
	// Layout formats time.Time values; empty uses FormatValue.
	Layout   string
	Renderer template.TemplateRenderer
}

var _ Widget = (*Input)(nil)

// NewTextInput returns a text input.
func NewTextInput(attrs Attrs) *Input {
	return &Input{Type: "text", Attrs: attrs.Clone()}
}

// NewHiddenInput returns a hidden input.
func NewHiddenInput(attrs Attrs) *Input {
	return &Input{Type: "hidden", Attrs: attrs.Clone(), Hidden: true}
}

// NewHiddenTextInput returns a text input flagged hidden for form layout,
// used for list ordering fields.
func NewHiddenTextInput(attrs Attrs) *Input {
	out := &Input{Type: "text", Attrs: attrs.Clone(), Hidden: true}
	out.Attrs["class"] = "orderfield"
	return out
}

// NewDateWidget returns a text input for dates.
func NewDateWidget(attrs Attrs) *Input {
	out := &Input{Type: "text", Attrs: attrs.Clone(), Layout: "2006-01-02"}
	out.Attrs[DateFormatAttr] = "yyyy-mm-dd"
	return out
}

// NewAutoSlugWidget returns a text input that the client fills from the
// named source fields.
func NewAutoSlugWidget(attrs Attrs, sources ...string) *Input {
	out := &Input{Type: "text", Attrs: attrs.Clone()}
	var cleaned []string
	for _, source := range sources {
		if source = strings.TrimSpace(source); source != "" {
			cleaned = append(cleaned, source)
		}
	}
	if len(cleaned) > 0 {
		out.Attrs["data-populate-source"] = strings.Join(cleaned, ",")
	}
	return out
}

// Render implements Widget.
func (w *Input) Render(_ context.Context, name string, value any, attrs Attrs) (string, error) {
	return renderWith(w.Renderer, TemplateInput, map[string]any{
		"type":  w.inputType(),
		"name":  name,
		"value": w.format(value),
		"attrs": w.Attrs.Merge(attrs).List("type", "name", "value"),
	})
}

// IsHidden implements Widget.
func (w *Input) IsHidden() bool {
	return w.Hidden
}

// Clone implements Widget.
func (w *Input) Clone() Widget {
	out := *w
	out.Attrs = w.Attrs.Clone()
	return &out
}

func (w *Input) inputType() string {
	if w.Type == "" {
		return "text"
	}
	return w.Type
}

func (w *Input) format(value any) string {
	if w.Layout != "" {
		switch v := value.(type) {
		case time.Time:
			if v.IsZero() {
				return ""
			}
			return v.Format(w.Layout)
		case *time.Time:
			if v == nil || v.IsZero() {
				return ""
			}
			return v.Format(w.Layout)
		}
	}
	return FormatValue(value)
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// Select renders a <select> with fixed choices.
type Select struct {
	Attrs    Attrs
	Choices  []model.Choice
	Renderer template.TemplateRenderer
}

var _ Widget = (*Select)(nil)

// NewSelect returns a select over choices.
func NewSelect(attrs Attrs, choices ...model.Choice) *Select {
	return &Select{Attrs: attrs.Clone(), Choices: append([]model.Choice(nil), choices...)}
}

// Render implements Widget.
func (w *Select) Render(_ context.Context, name string, value any, attrs Attrs) (string, error) {
	return w.render(name, value, attrs, nil)
}

func (w *Select) render(name string, value any, attrs Attrs, extra []model.Choice) (string, error) {
	selected := ""
	hasValue := value != nil
	if hasValue {
		selected = FormatValue(value)
	}
	options := make([]option, 0, len(w.Choices)+len(extra))
	for _, choice := range append(append([]model.Choice(nil), w.Choices...), extra...) {
		options = append(options, option{
			Value:    choice.Value,
			Label:    choice.Label,
			Selected: hasValue && choice.Value == selected,
		})
	}
	return renderWith(w.Renderer, TemplateSelect, map[string]any{
		"name":    name,
		"choices": options,
		"attrs":   w.Attrs.Merge(attrs).List("name"),
	})
}

// IsHidden implements Widget.
func (w *Select) IsHidden() bool {
	return false
}

// Clone implements Widget.
func (w *Select) Clone() Widget {
	out := *w
	out.Attrs = w.Attrs.Clone()
	out.Choices = append([]model.Choice(nil), w.Choices...)
	return &out
}
