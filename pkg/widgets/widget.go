package widgets

import (
	"context"
	"embed"
	"io/fs"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/links"
	"github.com/goliatone/go-cmswidgets/pkg/query"
	"github.com/goliatone/go-cmswidgets/pkg/render/template"
	"github.com/goliatone/go-cmswidgets/pkg/render/template/gotemplate"
)

// Template names shipped with the package.
const (
	TemplateInput     = "input"
	TemplateSelect    = "select"
	TemplateTextarea  = "textarea"
	TemplateAPISelect = "api_select"
	TemplateMulti     = "multi"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// Widget renders one form control.
type Widget interface {
	// Render returns the control markup. attrs are merged over the widget's
	// own attributes for this call only.
	Render(ctx context.Context, name string, value any, attrs Attrs) (string, error)
	// IsHidden reports whether forms should treat the field as hidden.
	IsHidden() bool
	// Clone returns an independent copy safe to mutate per request.
	Clone() Widget
}

// ValueReader is implemented by widgets that post-process submitted data.
type ValueReader interface {
	ValueFromData(data url.Values, name string) any
}

// LinkUpdater is implemented by widgets whose markup carries admin links.
type LinkUpdater interface {
	UpdateLinks(ctx context.Context, user auth.User, resolver links.URLResolver)
}

// Attrs are HTML attributes.
type Attrs map[string]string

// Attr is a single attribute in render order.
type Attr struct {
	Key   string
	Value string
}

// Clone returns a copy of the attributes.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for key, value := range a {
		out[key] = value
	}
	return out
}

// Merge returns a new set with extra overlaid on a.
func (a Attrs) Merge(extra Attrs) Attrs {
	out := a.Clone()
	for key, value := range extra {
		out[key] = value
	}
	return out
}

// AddClass returns a copy with class prepended to the class attribute.
func (a Attrs) AddClass(class string) Attrs {
	out := a.Clone()
	if current := strings.TrimSpace(out["class"]); current != "" {
		out["class"] = class + " " + current
	} else {
		out["class"] = class
	}
	return out
}

// List returns attributes sorted by key, skipping blank keys and the
// reserved names templates set themselves.
func (a Attrs) List(reserved ...string) []Attr {
	skip := make(map[string]struct{}, len(reserved))
	for _, key := range reserved {
		skip[key] = struct{}{}
	}
	out := make([]Attr, 0, len(a))
	for key, value := range a {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := skip[key]; ok {
			continue
		}
		out = append(out, Attr{Key: key, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

var (
	defaultOnce     sync.Once
	defaultRenderer template.TemplateRenderer
	defaultErr      error
)

// TemplatesFS exposes the embedded widget templates, e.g. to layer overrides
// on top of them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// DefaultRenderer returns the shared pongo2 engine over the embedded
// templates.
func DefaultRenderer() (template.TemplateRenderer, error) {
	defaultOnce.Do(func() {
		defaultRenderer, defaultErr = gotemplate.New(gotemplate.WithFS(TemplatesFS()))
	})
	return defaultRenderer, defaultErr
}

func renderWith(renderer template.TemplateRenderer, name string, data map[string]any) (string, error) {
	if renderer == nil {
		var err error
		if renderer, err = DefaultRenderer(); err != nil {
			return "", err
		}
	}
	out, err := renderer.RenderTemplate(name, data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\r\n"), nil
}

// FormatValue renders a field value for a value attribute. Times use the
// ISO layouts date inputs expect.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02 15:04:05")
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatValue(*v)
	}
	return query.FormatValue(value)
}
