package widgets

import (
	"context"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-cmswidgets/pkg/render/template"
)

// WysiwygClass marks textareas the client upgrades to a rich text editor.
const WysiwygClass = "widget-wysiwyg"

var (
	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

// SanitizeHTML strips markup the rich text editor must never round-trip
// (scripts, event handlers, javascript: URLs) using the UGC policy.
func SanitizeHTML(raw string) string {
	if raw == "" {
		return ""
	}
	return htmlSanitizer().Sanitize(raw)
}

func htmlSanitizer() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
		htmlPolicy = policy
	})
	return htmlPolicy
}

// Textarea renders a <textarea>.
type Textarea struct {
	Attrs Attrs
	// Sanitize passes the value through SanitizeHTML before rendering.
	Sanitize bool
	Renderer template.TemplateRenderer
}

var _ Widget = (*Textarea)(nil)

// NewTextarea returns a plain textarea.
func NewTextarea(attrs Attrs) *Textarea {
	return &Textarea{Attrs: attrs.Clone()}
}

// NewHTMLWidget returns a rich text textarea. The wysiwyg class is prepended
// to any class already present.
func NewHTMLWidget(attrs Attrs) *Textarea {
	return &Textarea{Attrs: attrs.AddClass(WysiwygClass), Sanitize: true}
}

// Render implements Widget.
func (w *Textarea) Render(_ context.Context, name string, value any, attrs Attrs) (string, error) {
	text := FormatValue(value)
	if w.Sanitize {
		text = SanitizeHTML(text)
	}
	return renderWith(w.Renderer, TemplateTextarea, map[string]any{
		"name":  name,
		"value": text,
		"attrs": w.Attrs.Merge(attrs).List("name"),
	})
}

// IsHidden implements Widget.
func (w *Textarea) IsHidden() bool {
	return false
}

// Clone implements Widget.
func (w *Textarea) Clone() Widget {
	out := *w
	out.Attrs = w.Attrs.Clone()
	return &out
}
