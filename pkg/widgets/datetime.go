package widgets

import (
	"context"
	"net/url"
	"time"

	"github.com/goliatone/go-cmswidgets/pkg/render/template"
)

// SplitDateTimeWidget renders a date input followed by a time select. The
// parts are named "<name>_0" and "<name>_1".
type SplitDateTimeWidget struct {
	Date     *Input
	Time     *TimeChoiceWidget
	Required bool
	Renderer template.TemplateRenderer
}

var (
	_ Widget      = (*SplitDateTimeWidget)(nil)
	_ ValueReader = (*SplitDateTimeWidget)(nil)
)

// NewSplitDateTime builds the widget; attrs apply to both parts.
func NewSplitDateTime(attrs Attrs, required bool, opts ...TimeOption) (*SplitDateTimeWidget, error) {
	timeWidget, err := NewTimeChoiceWidget(attrs, opts...)
	if err != nil {
		return nil, err
	}
	return &SplitDateTimeWidget{
		Date:     NewDateWidget(attrs),
		Time:     timeWidget,
		Required: required,
	}, nil
}

// Render implements Widget.
func (w *SplitDateTimeWidget) Render(ctx context.Context, name string, value any, attrs Attrs) (string, error) {
	var datePart, timePart any
	switch v := value.(type) {
	case time.Time:
		if !v.IsZero() {
			datePart, timePart = v, v
		}
	case *time.Time:
		if v != nil && !v.IsZero() {
			datePart, timePart = *v, *v
		}
	case []string:
		if len(v) > 0 {
			datePart = v[0]
		}
		if len(v) > 1 {
			timePart = v[1]
		}
	}

	dateHTML, err := w.Date.Render(ctx, name+"_0", datePart, attrs)
	if err != nil {
		return "", err
	}
	timeHTML, err := w.Time.Render(ctx, name+"_1", timePart, attrs)
	if err != nil {
		return "", err
	}
	return renderWith(w.Renderer, TemplateMulti, map[string]any{
		"parts": []string{dateHTML, timeHTML},
	})
}

// ValueFromData implements ValueReader. An optional field with an empty date
// yields two empty strings so the time default does not count as input.
func (w *SplitDateTimeWidget) ValueFromData(data url.Values, name string) any {
	date := data.Get(name + "_0")
	clock, _ := w.Time.ValueFromData(data, name+"_1").(string)
	if !w.Required && date == "" {
		return []string{"", ""}
	}
	return []string{date, clock}
}

// IsHidden implements Widget.
func (w *SplitDateTimeWidget) IsHidden() bool {
	return false
}

// Clone implements Widget.
func (w *SplitDateTimeWidget) Clone() Widget {
	out := *w
	out.Date = w.Date.Clone().(*Input)
	out.Time = w.Time.Clone().(*TimeChoiceWidget)
	return &out
}
