package handlers

import (
	"net/http"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	admin := RequireRole(models.RoleAdministrator)

	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Post("/login", h.Login)
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Route("/scans", func(r chi.Router) {
				r.Get("/", h.ListScans)
				r.With(admin).Post("/", h.StartScan)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetScan)
					r.Get("/results", h.GetScanResults)
					r.Get("/skus", h.GetScanSkus)
					r.Get("/pallets", h.ListScanPallets)
					r.Put("/finish", h.FinishScan)
					r.Put("/continue", h.ReopenScan)
					r.With(admin).Delete("/", h.DeleteScan)
				})
			})

			r.Route("/pallets", func(r chi.Router) {
				r.Post("/", h.CreatePallet)
				r.Get("/{id}", h.GetPallet)
				r.Put("/{id}", h.RenamePallet)
				r.Delete("/{id}", h.DeletePallet)
				r.Get("/{id}/skus", h.ListPalletSkus)
			})

			r.Route("/skus", func(r chi.Router) {
				r.Post("/", h.RecordScan)
				r.Get("/{id}", h.GetSkuLine)
				r.Delete("/{id}", h.DeleteSkuLine)
			})
		})
	})
}

// InitAuth sets the HS256 key used to issue and verify bearer tokens.
func (h *Handler) InitAuth(jwtKey string, ttl time.Duration) {
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
	h.tokenTTL = ttl
}

// RequireRole rejects verified tokens that do not carry role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if got, _ := claims["role"].(string); got != role {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
