/*
Package handler provides the HTTP handler for listing a user's bilans,
which the chat-selection screen uses to offer bilan-scoped conversations.
*/
package handler

import (
	"net/http"

	"bilanchat/internal/pkg/auth/jwt"
	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/resp"
)

// HandleListBilans returns the bilans visible to the caller: a client sees
// their own, a consultant sees the ones assigned to them.
func HandleListBilans(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		bilans, err := deps.Bilans.ListBilansForUser(r.Context(), identity.UserID, identity.Role)
		if err != nil {
			logx.Error(err, "Failed to list bilans", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, bilans)
	}
}
