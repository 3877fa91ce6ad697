package widgets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-cmswidgets/pkg/model"
)

// TimeNow is the choice value meaning "the time of submission".
const TimeNow = "now"

const (
	timeValueLayout = "15:04:05"
	time24Layout    = "15:04:05"
	time12Layout    = "03:04:05 PM"
)

// TimeOption configures a TimeChoiceWidget.
type TimeOption func(*timeConfig)

type timeConfig struct {
	minuteInterval int
	secondInterval int
	twentyFourHour bool
	clock          func() time.Time
}

// WithMinuteInterval sets the minute step, 1 to 60. Defaults to 15.
func WithMinuteInterval(n int) TimeOption {
	return func(cfg *timeConfig) { cfg.minuteInterval = n }
}

// WithSecondInterval sets the second step, 1 to 60. Defaults to 60.
func WithSecondInterval(n int) TimeOption {
	return func(cfg *timeConfig) { cfg.secondInterval = n }
}

// WithTwentyFourHour labels choices in 24 hour format. Defaults to 12 hour
// labels with an AM/PM suffix.
func WithTwentyFourHour(enabled bool) TimeOption {
	return func(cfg *timeConfig) { cfg.twentyFourHour = enabled }
}

// WithClock overrides the clock used to resolve TimeNow.
func WithClock(clock func() time.Time) TimeOption {
	return func(cfg *timeConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// TimeChoiceWidget is a select with a "Now" entry followed by every time of
// day at the configured interval.
type TimeChoiceWidget struct {
	Select

	labelLayout string
	values      map[string]struct{}
	clock       func() time.Time
}

var (
	_ Widget      = (*TimeChoiceWidget)(nil)
	_ ValueReader = (*TimeChoiceWidget)(nil)
)

// NewTimeChoiceWidget builds the widget. Intervals outside 1..60 are an
// error.
func NewTimeChoiceWidget(attrs Attrs, opts ...TimeOption) (*TimeChoiceWidget, error) {
	cfg := timeConfig{minuteInterval: 15, secondInterval: 60, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.minuteInterval < 1 || cfg.minuteInterval > 60 {
		return nil, fmt.Errorf("widgets: minute interval %d out of range", cfg.minuteInterval)
	}
	if cfg.secondInterval < 1 || cfg.secondInterval > 60 {
		return nil, fmt.Errorf("widgets: second interval %d out of range", cfg.secondInterval)
	}

	w := &TimeChoiceWidget{
		Select:      Select{Attrs: attrs.Clone()},
		labelLayout: time12Layout,
		values:      make(map[string]struct{}),
		clock:       cfg.clock,
	}
	if cfg.twentyFourHour {
		w.labelLayout = time24Layout
	}

	w.Choices = append(w.Choices, model.Choice{Value: TimeNow, Label: "Now"})
	for hour := 0; hour < 24; hour++ {
		for step := 0; step < 60/cfg.minuteInterval; step++ {
			for sec := 0; sec < 60/cfg.secondInterval; sec++ {
				t := time.Date(0, 1, 1, hour, step*cfg.minuteInterval, sec*cfg.secondInterval, 0, time.UTC)
				value := t.Format(timeValueLayout)
				w.Choices = append(w.Choices, model.Choice{Value: value, Label: t.Format(w.labelLayout)})
				w.values[value] = struct{}{}
			}
		}
	}
	return w, nil
}

// Render implements Widget. A valid time outside the generated choices is
// appended as an extra choice so it stays selected; unparsable values select
// nothing.
func (w *TimeChoiceWidget) Render(_ context.Context, name string, value any, attrs Attrs) (string, error) {
	parsed, ok := parseClock(value)
	if !ok {
		return w.render(name, nil, attrs, nil)
	}
	key := parsed.Format(timeValueLayout)
	var extra []model.Choice
	if _, known := w.values[key]; !known {
		extra = append(extra, model.Choice{Value: key, Label: parsed.Format(w.labelLayout)})
	}
	return w.render(name, key, attrs, extra)
}

// ValueFromData implements ValueReader, resolving TimeNow to the current
// wall clock time.
func (w *TimeChoiceWidget) ValueFromData(data url.Values, name string) any {
	raw := data.Get(name)
	if raw == TimeNow {
		return w.clock().Format(timeValueLayout)
	}
	return raw
}

// Clone implements Widget.
func (w *TimeChoiceWidget) Clone() Widget {
	out := *w
	out.Attrs = w.Attrs.Clone()
	out.Choices = append([]model.Choice(nil), w.Choices...)
	return &out
}

var errClock = errors.New("widgets: not a time of day")

func parseClock(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return time.Date(0, 1, 1, v.Hour(), v.Minute(), v.Second(), 0, time.UTC), true
	case string:
		t, err := parseClockString(v)
		return t, err == nil
	}
	return time.Time{}, false
}

func parseClockString(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errClock
	}
	for _, layout := range []string{"15:04:05.999999", "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, errClock
}
