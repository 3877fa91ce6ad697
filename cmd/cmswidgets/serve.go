package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cmswidgets/components/choices"
	"github.com/goliatone/go-cmswidgets/pkg/auth"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the choices endpoints and demo forms",
	Long: `Serve mounts a choices endpoint at every bundle path and renders the
declared forms at /forms/<name>. The requesting user is picked from the
configured demo users by the user header (X-CMS-User by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), current)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String(cfgKeyAddr, defaultAddr, "listen address")
	flags.Duration(cfgKeyGrace, defaultGrace, "shutdown grace period")
	flags.String(cfgKeyUserHeader, defaultUserHeader, "request header naming the demo user")
}

func serve(ctx context.Context, a *app) error {
	if a == nil {
		return errors.New("serve: application not initialised")
	}
	handler, err := a.routes()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    a.settings.Addr,
		Handler: handler,
	}
	log.Printf("listening on %s (%d bundles under %s, %s store)", a.settings.Addr, a.registry.Len(), a.settings.Mount, a.settings.Store)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.Grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	return nil
}

// routes builds the server mux wrapped in the demo user middleware.
func (a *app) routes() (http.Handler, error) {
	mux := http.NewServeMux()
	patterns, err := choices.RegisterBundles(mux, a.registry, choices.WithStore(a.store))
	if err != nil {
		return nil, err
	}
	for _, pattern := range patterns {
		log.Printf("choices: %s", pattern)
	}

	mux.HandleFunc("/forms/", a.formHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return a.withUser(mux), nil
}

func (a *app) withUser(next http.Handler) http.Handler {
	header := a.settings.UserHeader
	if header == "" {
		header = defaultUserHeader
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := a.user(r.Header.Get(header))
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

func (a *app) formHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/forms/"), "/")
	form, ok := a.forms[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	bound, err := a.preparer.Prepare(ctx, form, auth.UserFrom(ctx))
	if err != nil {
		log.Printf("prepare form %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	values := make(map[string]any)
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	markup, err := bound.Render(ctx, values)
	if err != nil {
		log.Printf("render form %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := fmt.Fprintf(w, "<form method=\"post\">%s</form>\n", markup); err != nil {
		log.Printf("write response: %v", err)
	}
}
