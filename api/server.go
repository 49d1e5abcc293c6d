/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route tree.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique id per request for tracing
  4. CORS:       cross-origin requests for local frontends
  5. requireUser: caller identity from X-User-Id (all routes except
     user registration)

ROUTE GROUPS:
  /api/v1/users                     registration
  /api/v1/vaults/*                  vault lifecycle, entries, listings
  /api/v1/wallets/{walletID}/*      wallet management
  /api/v1/flows/{flowID}/*          cash flow management and sharing
  /api/v1/transactions/{id}         fetch, void, amend

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-Id"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", h.RegisterUser)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/vaults", func(r chi.Router) {
				r.Post("/", h.CreateVault)

				r.Route("/{vaultID}", func(r chi.Router) {
					r.Get("/", h.GetVault)
					r.Delete("/", h.DeleteVault)
					r.Get("/statistics", h.GetStatistics)
					r.Post("/recompute", h.RecomputeBalances)

					r.Get("/transactions", h.ListVaultTransactions)
					r.Post("/transactions", h.CreateTransaction)

					r.Post("/wallets", h.CreateWallet)
					r.Post("/flows", h.CreateFlow)

					r.Get("/members", h.ListVaultMembers)
					r.Put("/members", h.UpsertVaultMember)
					r.Delete("/members/{userID}", h.RemoveVaultMember)
				})
			})

			r.Route("/wallets/{walletID}", func(r chi.Router) {
				r.Get("/", h.GetWallet)
				r.Put("/name", h.RenameWallet)
				r.Put("/archive", h.ArchiveWallet)
				r.Get("/transactions", h.ListWalletTransactions)
			})

			r.Route("/flows/{flowID}", func(r chi.Router) {
				r.Get("/", h.GetFlow)
				r.Delete("/", h.DeleteFlow)
				r.Put("/name", h.RenameFlow)
				r.Put("/archive", h.ArchiveFlow)
				r.Put("/mode", h.SetFlowMode)
				r.Get("/transactions", h.ListFlowTransactions)

				r.Get("/members", h.ListFlowMembers)
				r.Put("/members", h.UpsertFlowMember)
				r.Delete("/members/{userID}", h.RemoveFlowMember)
			})

			r.Route("/transactions/{transactionID}", func(r chi.Router) {
				r.Get("/", h.GetTransaction)
				r.Patch("/", h.UpdateTransaction)
				r.Delete("/", h.VoidTransaction)
			})
		})
	})

	return r
}
