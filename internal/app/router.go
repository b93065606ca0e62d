package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendtrack/spendtrack/internal/accounts"
	"github.com/spendtrack/spendtrack/internal/auth"
	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/ingest"
	"github.com/spendtrack/spendtrack/internal/ledger"
	"github.com/spendtrack/spendtrack/internal/proposals"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	TokenStore *auth.TokenStore

	AuthHandler     *auth.Handler
	IngestHandler   *ingest.Handler
	ProposalHandler *proposals.Handler
	LedgerHandler   *ledger.Handler
	AccountHandler  *accounts.Handler
	CategoryHandler *categories.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(params.TokenStore))
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(params.TokenStore))

			r.Route("/ingest", params.IngestHandler.MountRoutes)
			r.Route("/proposals", params.ProposalHandler.MountRoutes)
			r.Route("/transactions", params.LedgerHandler.MountRoutes)
			r.Route("/accounts", params.AccountHandler.MountRoutes)
			r.Route("/categories", params.CategoryHandler.MountRoutes)
		})
	})

	return r
}
