package choices

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/query"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Choice is one selectable record.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type choicesResponse struct {
	Data    []Choice          `json:"data"`
	Filters map[string]string `json:"filters"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options value.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		if opts.Store == nil || opts.Model == "" {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		params := query.Parse(r.URL.Query(), opts.SearchParam, opts.LimitParam)
		if !params.Choices() {
			http.Error(w, fmt.Sprintf("choices: unsupported type %q", params.Type), http.StatusBadRequest)
			return
		}

		results := []Choice{}
		limit := clampLimit(params.Limit, opts)
		var records []model.Record
		if limit > 0 {
			var err error
			records, err = opts.Store.List(r.Context(), opts.Model, store.ListQuery{
				Filters: params.Applied(),
				Search:  params.Search,
				Limit:   limit,
			})
			if err != nil {
				writeStoreError(w, err)
				return
			}
		}
		for _, record := range records {
			results = append(results, Choice{Value: record.ID, Label: record.Label})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}

		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(true)
		_ = enc.Encode(choicesResponse{
			Data:    results,
			Filters: excludedFilters(params),
		})
	})
}

// excludedFilters echoes the filters the caller asked to keep visible but
// not applied.
func excludedFilters(params query.Params) map[string]string {
	out := make(map[string]string, len(params.Excluded))
	for _, key := range params.Excluded {
		if value, ok := params.Filters.Get(key); ok {
			out[key] = query.FormatValue(value)
		}
	}
	return out
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownField), errors.Is(err, store.ErrMalformedReference):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrUnknownModel):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
