/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/catalog, /api/items, /api/bom/*   Catalog and BOM management
  /api/stock, /api/workforce/*           Snapshot feeds
  /api/explode, /api/evaluate            Engine runs
  /api/plans/*                           Plan rows and edits
  /api/orders/*                          Order commits
  /api/requirements/export               Last-explosion export
  /api/scenarios/*                       Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Catalog and BOM
		r.Post("/catalog", h.LoadCatalog)
		r.Get("/items", h.ListItems)
		r.Get("/bom/edges", h.ListEdges)

		// Snapshot feeds
		r.Post("/stock", h.UpdateStock)
		r.Post("/workforce/{year}", h.UpdateWorkforce)

		// Engine runs
		r.Post("/explode", h.Explode)
		r.Post("/evaluate/{year}", h.Evaluate)

		// Plan rows and edits
		r.Route("/plans/{year}/{itemID}/{row}", func(r chi.Router) {
			r.Get("/", h.GetPlanRow)
			r.Put("/day", h.EditDay)
			r.Put("/aggregate", h.EditAggregate)
		})
		r.Post("/plans/{year}/save", h.SavePlans)

		// Orders
		r.Post("/orders/commit", h.CommitOrder)

		// Export
		r.Get("/requirements/export", h.ExportRequirements)

		// Demo scenarios
		r.Get("/scenarios", h.ListScenarios)
		r.Post("/scenarios/load", h.LoadScenario)
	})

	return r
}
