package jwt

import (
	"context"
	"net/http"
	"strings"

	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/resp"
)

// contextKey is private to prevent key collisions with other packages.
type contextKey string

// ContextAuthPayloadKey stores the parsed Payload in the request context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// IdentityExtractorMiddleware extracts and validates a Bearer JWT from the
// Authorization header and injects the Payload into the request context.
// It never interrupts the request: a missing or invalid token simply leaves
// the request anonymous, and route-level guards decide whether that matters.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Invalid or expired JWT provided, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that rejects anonymous requests with 401
// and authenticated requests whose role is not in roles with 403.
// An empty roles list only requires authentication.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := GetPayloadFromContext(r)
			if payload == nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			if len(allowed) > 0 {
				if _, ok := allowed[payload.Role]; !ok {
					resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken returns the token part of an "Authorization: Bearer <token>"
// header, or the empty string when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// GetPayloadFromContext extracts the authenticated Payload from the request
// context. A nil return means the request is anonymous.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}

	return payload
}
