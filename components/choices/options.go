package choices

import (
	"net/http"

	"github.com/goliatone/go-cmswidgets/pkg/auth"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

type GuardFunc func(r *http.Request) error

// UserFunc extracts the requesting user.
type UserFunc func(r *http.Request) auth.User

type Options struct {
	RoutePath    string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc
	User         UserFunc

	Model model.ModelID
	Store store.Reader
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/choices",
		SearchParam:  "q",
		LimitParam:   "limit",
		DefaultLimit: 50,
		MaxLimit:     200,
		User:         requestUser,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/choices"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	if opts.User == nil {
		opts.User = requestUser
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithUser overrides how the requesting user is read. The default reads the
// user stored in the request context by auth.WithUser.
func WithUser(fn UserFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.User = fn
	}
}

// WithModel sets the model choices are listed from.
func WithModel(id model.ModelID) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Model = id
	}
}

// WithStore sets the store choices are listed from.
func WithStore(reader store.Reader) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = reader
	}
}

func requestUser(r *http.Request) auth.User {
	if r == nil {
		return auth.Anonymous()
	}
	return auth.UserFrom(r.Context())
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
