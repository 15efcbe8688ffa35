package routes

import (
	"net/http"

	"github.com/avvvet/palletscan-services/internal/socketsvc/handlers"
	"github.com/avvvet/palletscan-services/internal/socketsvc/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

var tokenAuth *jwtauth.JWTAuth

func SetRoutes(r *chi.Mux, ws *ws.Ws, allowedOrigins []string) {
	h := handlers.NewHandler(ws, allowedOrigins)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			// browsers cannot set headers on a websocket handshake
			r.Use(jwtauth.Verify(tokenAuth, TokenFromQuery, jwtauth.TokenFromHeader))
			r.Use(jwtauth.Authenticator)

			r.Get("/ws", h.HandleWebSocket)
		})
	})
}

// InitAuth sets the key shared with the scan service that signs the tokens.
func InitAuth(jwtKey string) {
	tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}

// TokenFromQuery reads the token query parameter.
func TokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}
