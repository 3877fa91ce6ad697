package choices

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-cmswidgets/pkg/bundles"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the full mount path for the component route under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.RoutePath)
}

// RegisterRoutes registers the choices handler under basePath on mux.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	opts := NewOptions(fns...)
	return RegisterRoutesWithOptions(mux, basePath, opts)
}

// RegisterRoutesWithOptions registers a handler under basePath using a pre-built Options value.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("choices: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	if opts.Model == "" {
		return "", fmt.Errorf("choices: missing model")
	}
	pattern := mountPath(basePath, opts.RoutePath)
	mux.Handle(pattern, HandlerWithOptions(opts))
	return pattern, nil
}

// RegisterBundles mounts one choices handler per bundle at the path of its
// main view, which is where relation widgets point their browse links.
// Bundles without a main view are skipped. Requests are refused with 403
// unless the requesting user may open the main view. fns apply to every
// handler; the model and route are set per bundle.
func RegisterBundles(mux Mux, registry *bundles.Registry, fns ...OptionFn) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("choices: missing mux")
	}
	if registry == nil {
		return nil, fmt.Errorf("choices: missing bundle registry")
	}
	base := NewOptions(fns...)

	var patterns []string
	for _, bundle := range registry.Bundles() {
		path, ok := bundle.ViewPath(bundles.ViewMain)
		if !ok {
			continue
		}
		opts := base
		opts.Model = bundle.Model
		opts.RoutePath = path
		opts.Guard = bundleGuard(bundle, path, opts.User, base.Guard)

		pattern, err := RegisterRoutesWithOptions(mux, "", opts)
		if err != nil {
			return patterns, fmt.Errorf("choices: bundle %s: %w", bundle.Slug(), err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

func bundleGuard(bundle bundles.Bundle, path string, user UserFunc, next GuardFunc) GuardFunc {
	return func(r *http.Request) error {
		if r.URL.Path != path {
			return StatusError{Code: http.StatusNotFound}
		}
		if next != nil {
			if err := next(r); err != nil {
				return err
			}
		}
		if bundle.ViewURL(r.Context(), bundles.ViewMain, user(r)) == "" {
			return StatusError{Code: http.StatusForbidden, Err: fmt.Errorf("choices: %s denied", bundle.Slug())}
		}
		return nil
	}
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
