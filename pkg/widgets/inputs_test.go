package widgets_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/widgets"
)

func render(t *testing.T, w widgets.Widget, name string, value any) string {
	t.Helper()
	out, err := w.Render(context.Background(), name, value, nil)
	if err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return out
}

func TestSimpleInputs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		widget widgets.Widget
		field  string
		value  any
		want   string
		hidden bool
	}{
		{
			name:   "text",
			widget: widgets.NewTextInput(widgets.Attrs{"maxlength": "20"}),
			field:  "title",
			value:  `Say "hi"`,
			want:   `<input type="text" name="title" value="Say &quot;hi&quot;" maxlength="20">`,
		},
		{
			name:   "hidden",
			widget: widgets.NewHiddenInput(nil),
			field:  "next",
			value:  "/admin/",
			want:   `<input type="hidden" name="next" value="/admin/">`,
			hidden: true,
		},
		{
			name:   "order field",
			widget: widgets.NewHiddenTextInput(widgets.Attrs{"class": "ignored"}),
			field:  "order",
			value:  3,
			want:   `<input type="text" name="order" value="3" class="orderfield">`,
			hidden: true,
		},
		{
			name:   "date",
			widget: widgets.NewDateWidget(nil),
			field:  "published",
			value:  time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC),
			want:   `<input type="text" name="published" value="2024-05-06" data-date-format="yyyy-mm-dd">`,
		},
		{
			name:   "auto slug",
			widget: widgets.NewAutoSlugWidget(nil, "title", " ", "subtitle"),
			field:  "slug",
			want:   `<input type="text" name="slug" data-populate-source="title,subtitle">`,
		},
		{
			name:   "auto slug without sources",
			widget: widgets.NewAutoSlugWidget(nil),
			field:  "slug",
			value:  "hello-world",
			want:   `<input type="text" name="slug" value="hello-world">`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := render(t, tc.widget, tc.field, tc.value); got != tc.want {
				t.Fatalf("markup mismatch\nwant: %s\n got: %s", tc.want, got)
			}
			if tc.widget.IsHidden() != tc.hidden {
				t.Fatalf("IsHidden = %v, want %v", tc.widget.IsHidden(), tc.hidden)
			}
		})
	}
}

func TestHTMLWidget(t *testing.T) {
	t.Parallel()

	w := widgets.NewHTMLWidget(widgets.Attrs{"class": "large"})
	got := render(t, w, "body", `<p onclick="steal()">Hi<script>alert(1)</script></p>`)
	want := `<textarea name="body" class="widget-wysiwyg large">&lt;p&gt;Hi&lt;/p&gt;</textarea>`
	if got != want {
		t.Fatalf("markup mismatch\nwant: %s\n got: %s", want, got)
	}

	plain := widgets.NewTextarea(nil)
	if got := render(t, plain, "notes", "<b>kept</b>"); got != `<textarea name="notes">&lt;b&gt;kept&lt;/b&gt;</textarea>` {
		t.Fatalf("plain textarea = %s", got)
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	w := widgets.NewSelect(widgets.Attrs{"id": "id_status"},
		model.Choice{Value: "draft", Label: "Draft"},
		model.Choice{Value: "live", Label: "Live & public"},
	)
	got := render(t, w, "status", "live")
	want := `<select name="status" id="id_status"><option value="draft">Draft</option>` +
		`<option value="live" selected>Live &amp; public</option></select>`
	if got != want {
		t.Fatalf("markup mismatch\nwant: %s\n got: %s", want, got)
	}

	clone := w.Clone().(*widgets.Select)
	clone.Choices[0].Label = "changed"
	if w.Choices[0].Label != "Draft" {
		t.Fatalf("clone shares choices")
	}
}

func timeChoice(t *testing.T, opts ...widgets.TimeOption) *widgets.TimeChoiceWidget {
	t.Helper()
	w, err := widgets.NewTimeChoiceWidget(nil, opts...)
	if err != nil {
		t.Fatalf("new time choice widget: %v", err)
	}
	return w
}

func TestTimeChoiceWidget_Choices(t *testing.T) {
	t.Parallel()

	w := timeChoice(t)
	if len(w.Choices) != 1+24*4 {
		t.Fatalf("expected 97 choices, got %d", len(w.Choices))
	}
	want := []model.Choice{
		{Value: "now", Label: "Now"},
		{Value: "00:00:00", Label: "12:00:00 AM"},
		{Value: "00:15:00", Label: "12:15:00 AM"},
	}
	if diff := cmp.Diff(want, w.Choices[:3]); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}
	if last := w.Choices[len(w.Choices)-1]; last.Value != "23:45:00" || last.Label != "11:45:00 PM" {
		t.Fatalf("unexpected last choice %#v", last)
	}

	h24 := timeChoice(t, widgets.WithTwentyFourHour(true), widgets.WithMinuteInterval(30), widgets.WithSecondInterval(30))
	if len(h24.Choices) != 1+24*2*2 {
		t.Fatalf("expected 97 choices, got %d", len(h24.Choices))
	}
	if c := h24.Choices[len(h24.Choices)-1]; c.Value != "23:30:30" || c.Label != "23:30:30" {
		t.Fatalf("unexpected last 24h choice %#v", c)
	}

	for _, bad := range []int{0, 61, -5} {
		if _, err := widgets.NewTimeChoiceWidget(nil, widgets.WithMinuteInterval(bad)); err == nil {
			t.Errorf("minute interval %d should fail", bad)
		}
		if _, err := widgets.NewTimeChoiceWidget(nil, widgets.WithSecondInterval(bad)); err == nil {
			t.Errorf("second interval %d should fail", bad)
		}
	}
}

func TestTimeChoiceWidget_Render(t *testing.T) {
	t.Parallel()

	w := timeChoice(t)

	known := render(t, w, "starts", "13:30")
	if !strings.Contains(known, `<option value="13:30:00" selected>01:30:00 PM</option>`) {
		t.Fatalf("known time not selected: %s", known)
	}
	if strings.Count(known, "13:30:00") != 1 {
		t.Fatalf("known time should not be duplicated")
	}

	odd := render(t, w, "starts", time.Date(2024, 1, 1, 13, 7, 0, 0, time.UTC))
	if !strings.HasSuffix(odd, `<option value="13:07:00" selected>01:07:00 PM</option></select>`) {
		t.Fatalf("off-interval time should be appended and selected: %s", odd)
	}
	if len(w.Choices) != 97 {
		t.Fatalf("render must not grow the widget's choices")
	}

	invalid := render(t, w, "starts", "noon")
	if strings.Contains(invalid, "selected") {
		t.Fatalf("unparsable value should select nothing: %s", invalid)
	}
}

func TestTimeChoiceWidget_ValueFromData(t *testing.T) {
	t.Parallel()

	clock := func() time.Time { return time.Date(2024, 5, 6, 9, 15, 42, 0, time.Local) }
	w := timeChoice(t, widgets.WithClock(clock))

	if got := w.ValueFromData(url.Values{"starts": {"now"}}, "starts"); got != "09:15:42" {
		t.Fatalf("now resolved to %v", got)
	}
	if got := w.ValueFromData(url.Values{"starts": {"10:00:00"}}, "starts"); got != "10:00:00" {
		t.Fatalf("plain value = %v", got)
	}
}

func TestSplitDateTime(t *testing.T) {
	t.Parallel()

	clock := func() time.Time { return time.Date(2024, 5, 6, 9, 15, 0, 0, time.UTC) }
	optional, err := widgets.NewSplitDateTime(nil, false, widgets.WithClock(clock))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got := render(t, optional, "published", time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC))
	if !strings.HasPrefix(got, `<input type="text" name="published_0" value="2024-05-06" data-date-format="yyyy-mm-dd"> <select name="published_1">`) {
		t.Fatalf("unexpected date part: %s", got)
	}
	if !strings.Contains(got, `<option value="14:30:00" selected>`) {
		t.Fatalf("time part not selected: %s", got)
	}

	data := url.Values{"published_0": {""}, "published_1": {"now"}}
	if diff := cmp.Diff([]string{"", ""}, optional.ValueFromData(data, "published")); diff != "" {
		t.Fatalf("optional empty date (-want +got):\n%s", diff)
	}

	required, _ := widgets.NewSplitDateTime(nil, true, widgets.WithClock(clock))
	if diff := cmp.Diff([]string{"", "09:15:00"}, required.ValueFromData(data, "published")); diff != "" {
		t.Fatalf("required empty date (-want +got):\n%s", diff)
	}

	data.Set("published_0", "2024-05-06")
	if diff := cmp.Diff([]string{"2024-05-06", "09:15:00"}, optional.ValueFromData(data, "published")); diff != "" {
		t.Fatalf("filled date (-want +got):\n%s", diff)
	}
}
