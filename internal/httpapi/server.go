package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/catalogstate"
	"github.com/sentryscreen/sentryscreen/internal/config"
	"github.com/sentryscreen/sentryscreen/internal/indexer"
	"github.com/sentryscreen/sentryscreen/internal/indexstore"
	"github.com/sentryscreen/sentryscreen/internal/match"
)

// Deps carries every collaborator a handler needs, built once in
// cmd/sentryscreen's serve command and threaded through the router: a
// small struct of already-built collaborators rather than a
// service-locator.
type Deps struct {
	Store     *indexstore.Store
	Catalog   *catalog.Catalog
	Scheduler *indexer.Scheduler
	Router    *match.Router
	State     *catalogstate.Store
	Config    *config.Config
}

func (d Deps) alias() string { return indexstore.Alias(d.Config.Prefix) }

// NewRouter builds the chi.Mux wiring every endpoint: global middleware
// for tracing, logging and panic recovery, then route groups for public
// vs token-guarded endpoints.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(TraceMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	h := &handlers{d: d}

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/search/{dataset}", h.search)
	r.Post("/match/{dataset}", h.match)
	r.Get("/entities/{id}", h.getEntity)
	r.Get("/entities/{id}/adjacent", h.adjacent)
	r.Get("/entities/{id}/adjacent/{prop}", h.adjacent)
	r.Get("/reconcile/{dataset}", h.reconcileManifest)
	r.Post("/reconcile/{dataset}", h.reconcileQuery)

	r.Group(func(r chi.Router) {
		r.Use(UpdateAuth(d.Config.UpdateToken))
		r.Post("/updatez", h.updatez)
	})

	return r
}

type handlers struct{ d Deps }

// resolveDataset looks dataset up in the catalog, returning 404 via
// apierr.NotFound when it is not a configured dataset.
func (h *handlers) resolveDataset(name string) (catalog.Dataset, error) {
	return h.d.Catalog.Get(name)
}
