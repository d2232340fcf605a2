/*
Package handler provides HTTP handler functions for user authentication.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"bilanchat/internal/app/db"
	"bilanchat/internal/app/store"
	"bilanchat/internal/app/user"
	"bilanchat/internal/pkg/auth/jwt"
	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/req"
	"bilanchat/internal/pkg/resp"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
	// Role is optional and defaults to client.
	Role string `json:"role,omitempty"`
}

// HandleRegister creates a new user account and issues an identity token.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < minPasswordLen || passwordLen > maxPasswordLen {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword, minPasswordLen, maxPasswordLen))
			return
		}

		if input.Nom == "" || input.Prenom == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		role := input.Role
		if role == "" {
			role = user.RoleClient
		}
		if !user.IsValidRole(role) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRole))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		created, err := deps.Users.CreateUser(r.Context(), store.CreateUserParams{
			Email:        input.Email,
			PasswordHash: string(hashedPassword),
			Nom:          input.Nom,
			Prenom:       input.Prenom,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("Registration conflict: email already exists", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrEmailAlreadyUsed))
				return
			}

			logx.Error(err, "Failed to create user")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		tokenString, err := issueToken(created, deps.Config.JWTSecret)
		if err != nil {
			logx.Error(err, "Failed to generate token after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user":  created,
		})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues an identity token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		record, err := deps.Users.GetUserByEmail(r.Context(), input.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}

			logx.Error(err, "Failed to look up user for login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(input.Password)); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		tokenString, err := issueToken(record.User, deps.Config.JWTSecret)
		if err != nil {
			logx.Error(err, "Failed to generate token at login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user":  record.User,
		})
	}
}

// issueToken signs a fresh identity token for u.
func issueToken(u user.User, secret string) (string, error) {
	payload := &jwt.Payload{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}

	return jwt.GenerateToken(payload, secret, jwt.IdentityExpiration)
}
