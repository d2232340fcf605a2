/*
Package handler provides HTTP handler functions for message history and the
user directory consumed alongside the chat core.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bilanchat/internal/app/store"
	"bilanchat/internal/app/user"
	"bilanchat/internal/pkg/auth/jwt"
	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/resp"
)

// pathID parses a numeric URL parameter.
func pathID(r *http.Request, name string) (int64, *errs.CustomError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}
	return id, nil
}

// HandleBilanHistory returns the chronological conversation of one bilan.
// A client may only read their own bilan; the consultant role grants access
// to every bilan's conversation.
func HandleBilanHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		bilanID, customErr := pathID(r, "bilanID")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		bilan, err := deps.Bilans.GetBilan(r.Context(), bilanID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrBilanNotFound))
				return
			}

			logx.Error(err, "Failed to load bilan for history", "bilan_id", bilanID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		isClientOfBilan := identity.Role == user.RoleClient && bilan.ClientID == identity.UserID
		isConsultant := identity.Role == user.RoleConsultant

		if !isClientOfBilan && !isConsultant {
			resp.RespondError(w, r, errs.NewError(errs.ErrConversationForbidden))
			return
		}

		messages, err := deps.Messages.ListByBilan(r.Context(), bilanID)
		if err != nil {
			logx.Error(err, "Failed to list bilan messages", "bilan_id", bilanID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}

// HandleDirectHistory returns the unscoped messages exchanged between the
// two users named by the from/to query parameters. The caller must be one of
// the two participants.
func HandleDirectHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		from, errFrom := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
		to, errTo := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
		if errFrom != nil || errTo != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if from != identity.UserID && to != identity.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrConversationForbidden))
			return
		}

		messages, err := deps.Messages.ListBetween(r.Context(), from, to)
		if err != nil {
			logx.Error(err, "Failed to list direct messages", "from", from, "to", to)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}

// HandleListByRole returns the public identities of every user holding role.
func HandleListByRole(deps *AppDeps, role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Users.ListUsersByRole(r.Context(), role)
		if err != nil {
			logx.Error(err, "Failed to list users by role", "role", role)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, users)
	}
}

// HandleGetUser returns one user's public identity by id.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, customErr := pathID(r, "userID")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		u, err := deps.Users.GetUserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}

			logx.Error(err, "Failed to get user by id", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, u)
	}
}
