package template_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-cmswidgets/pkg/render/template/gotemplate"
	"github.com/goliatone/go-cmswidgets/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestGoTemplateEngine_RenderTemplateEscapes(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hidden", map[string]any{"name": "author", "value": "<42>"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hidden.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", map[string]any{"label": "Ada & Grace"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-global.golden"))
	if result != want {
		t.Fatalf("render template mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	result, _ := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"label": "Ada"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-filter.golden"))
	if result != want {
		t.Fatalf("render template mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_RenderStringKeepsTypedValues(t *testing.T) {
	engine := newEngine(t)

	type choice struct {
		Value string
		Label string
	}
	out, err := engine.Render(`{% for c in choices %}{{ c.Value }}={{ c.Label }};{% endfor %}{{ count }}`, map[string]any{
		"choices": []choice{{Value: "1", Label: "Ada"}, {Value: "2", Label: "Grace"}},
		"count":   42,
	})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if out != "1=Ada;2=Grace;42" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGoTemplateEngine_Errors(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
	if _, err := engine.RenderString("{{ label }}", 7); err == nil {
		t.Fatalf("expected error for scalar context")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestGoTemplateEngine_ExtensionAndGlobals(t *testing.T) {
	files := fstest.MapFS{
		"badge.html": &fstest.MapFile{Data: []byte(`<span class="{{ site }}">{{ label }}</span>`)},
	}
	engine, err := gotemplate.New(
		gotemplate.WithFS(files),
		gotemplate.WithExtension("html"),
		gotemplate.WithGlobalData(map[string]any{" site ": "cms"}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	for _, name := range []string{"badge", "badge.html"} {
		got, err := engine.Render(name, map[string]any{"label": "<new>"})
		if err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		if want := `<span class="cms">&lt;new&gt;</span>`; got != want {
			t.Fatalf("render %s = %q, want %q", name, got, want)
		}
	}
}
