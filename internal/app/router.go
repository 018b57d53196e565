package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/hypermedia-labs/trillas/internal/auth"
	"github.com/hypermedia-labs/trillas/internal/books"
	"github.com/hypermedia-labs/trillas/internal/lending"
	"github.com/hypermedia-labs/trillas/internal/observability"
	"github.com/hypermedia-labs/trillas/internal/token"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	BooksHandler   *books.Handler
	LendingHandler *lending.Handler
	Tokens         *token.Service
	Users          UserProvider
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Trillas defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Credential endpoints are public and rate limited harder than the rest.
	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.Limit(20, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/books", func(r chi.Router) {
		r.Use(AuthMiddleware(params.Tokens, params.Users, params.Logger))
		params.LendingHandler.MountRoutes(r)
		params.BooksHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
