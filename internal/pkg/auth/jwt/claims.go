package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued by the bilanchat server.
// Beyond the standard validity claims it carries the resolved identity of the
// participant: numeric user id, login email, and platform role. The dispatch
// core binds this identity to a connection exactly once at connection time.
type Payload struct {
	// StandardClaims embeds the JWT standard fields (Exp, Iat, Iss) used for
	// token validity checks.
	jwt.StandardClaims

	// UserID is the numeric identifier of the authenticated user.
	UserID int64 `json:"userId"`

	// Email is the user's login email, echoed for client convenience.
	Email string `json:"email"`

	// Role is the user's platform role, either "client" or "consultant".
	// Role changes take effect only on the next issued token.
	Role string `json:"role"`
}
