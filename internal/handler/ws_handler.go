/*
Package handler provides the HTTP handler for WebSocket connection upgrading.

This file contains HandleWebSocket, which authenticates the connection
credential, resolves the connecting user's identity, upgrades the HTTP
connection, and starts the client's read and write pumps. A connection that
fails authentication is refused before any registry mutation.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"bilanchat/internal/app/chat"
	"bilanchat/internal/app/store"
	"bilanchat/internal/pkg/auth/jwt"
	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/limiter"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/resp"
)

// connectionToken extracts the credential presented at connection time.
// Browsers cannot set headers on WebSocket requests, so the token query
// parameter is accepted alongside the Authorization header.
func connectionToken(r *http.Request) string {
	if token := jwt.BearerToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// HandleWebSocket processes WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString := connectionToken(r)
		if tokenString == "" {
			logx.Warn("WebSocket connection rejected: missing credential")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket connection rejected: invalid credential", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identity, err := deps.Users.GetUserByID(r.Context(), payload.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logx.Warn("WebSocket connection rejected: unknown user", "user_id", payload.UserID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			logx.Error(err, "Failed to resolve identity for WebSocket connection", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(conn, identity, deps.Registry, deps.Dispatcher)

		deps.Registry.Register(client)

		logx.Info("WebSocket connection established",
			"conn_id", client.ID().String(),
			"user_id", identity.ID,
			"role", identity.Role)

		go client.WritePump()

		client.ReadPump()
	}
}
