/*
Package handler provides the HTTP handlers and routing setup for the
bilanchat server.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting before delegating to the REST handlers and the WebSocket endpoint.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"bilanchat/internal/app/user"
	"bilanchat/internal/pkg/auth/jwt"
	"bilanchat/internal/pkg/limiter"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/resp"
)

const (
	// AuthRate bounds account creation and login attempts per IP.
	AuthRate  = 0.2
	AuthBurst = 5

	// ConnectRate bounds WebSocket connection attempts per IP.
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router builds the application's chi routing table.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "bilanchat server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
		})

		api.Route("/messages", func(messages chi.Router) {
			messages.Use(jwt.RequireRole(user.RoleClient, user.RoleConsultant))

			messages.Get("/", HandleDirectHistory(deps))
			messages.Get("/bilan/{bilanID}", HandleBilanHistory(deps))
			messages.Get("/consultants", HandleListByRole(deps, user.RoleConsultant))
			messages.Get("/clients", HandleListByRole(deps, user.RoleClient))
			messages.Get("/users/{userID}", HandleGetUser(deps))
		})

		api.Route("/bilans", func(bilans chi.Router) {
			bilans.Use(jwt.RequireRole(user.RoleClient, user.RoleConsultant))
			bilans.Get("/", HandleListBilans(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
