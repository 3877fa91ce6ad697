package forms_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmswidgets/pkg/forms"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/testsupport"
)

func eventForm(t *testing.T) *forms.Bound {
	t.Helper()
	bound, err := forms.Preparer{}.Prepare(context.Background(), forms.Form{
		Name: "event",
		Fields: []model.Field{
			{Name: "title", Required: true},
			{Name: "starts", Kind: model.FieldDateTime},
		},
	}, testsupport.Admin)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	return bound
}

func TestBound_MapErrors(t *testing.T) {
	t.Parallel()

	got := eventForm(t).MapErrors(map[string][]string{
		"/data/title":      {"required", " required "},
		"starts_1":         {"pick a time"},
		"fields.starts":    {"in the past"},
		"__all__":          {"try again"},
		"venue":            {"unknown venue"},
		"body.title.extra": {""},
	})
	want := forms.ErrorMapping{
		Fields: map[string][]string{
			"title":  {"required"},
			"starts": {"in the past", "pick a time"},
		},
		Form: []string{"try again", "unknown venue"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}

	if empty := eventForm(t).MapErrors(nil); empty.Fields != nil || empty.Form != nil {
		t.Fatalf("expected empty mapping, got %#v", empty)
	}
}

func TestBound_RenderErrors(t *testing.T) {
	t.Parallel()

	bound := eventForm(t)
	bound.SetErrors(map[string][]string{
		"title": {"This field is <required>."},
		"form":  {"Check the dates."},
	})

	got, err := bound.Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	wantPrefix := `<ul class="errorlist nonfield"><li>Check the dates.</li></ul>` +
		`<div class="form-row required errors"><ul class="errorlist"><li>This field is &lt;required&gt;.</li></ul>` +
		`<label for="id_title">Title</label>`
	if !strings.HasPrefix(got, wantPrefix) {
		t.Fatalf("markup mismatch\nwant prefix: %s\n        got: %s", wantPrefix, got)
	}
	if !strings.Contains(got, `<div class="form-row"><label for="id_starts">Starts</label>`) {
		t.Fatalf("field without errors should render plainly: %s", got)
	}
}
