/*
Package handler provides the HTTP handlers for session introspection and
display-name management.
*/
package handler

import (
	"errors"
	"net/http"
	"strings"

	"workchat/internal/app/store"
	"workchat/internal/pkg/errs"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/randx"
	"workchat/internal/pkg/req"
	"workchat/internal/pkg/resp"
)

// HandleGetSession returns the current session's token and identity. The
// client hands the token to the chat endpoint as a query parameter, since
// cross-port WebSocket connects do not carry the cookie reliably.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionTokenFromRequest(r)
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrNoSession))
			return
		}

		user, err := deps.Store.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				clearSessionCookie(w, deps)
				resp.RespondError(w, r, errs.NewError(errs.ErrSessionInvalid))
				return
			}

			logx.Error(err, "Failed to resolve session")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"session_token": token,
			"user": map[string]any{
				"name":  user.Display(),
				"email": user.Email,
			},
		})
	}
}

type SetNameInput struct {
	Name string `json:"name"`
}

// HandleSetName updates the display name bound to the current session. A
// blank name gets a fresh synthesized one. The new name applies to messages
// sent after the change; lines already written keep the name they carried.
func HandleSetName(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionTokenFromRequest(r)
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrNoSession))
			return
		}

		var input SetNameInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			generated, err := randx.AnonymousName()
			if err != nil {
				logx.Error(err, "Failed to generate display name")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			name = generated
		}

		user, err := deps.Store.Rename(r.Context(), token, name)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				clearSessionCookie(w, deps)
				resp.RespondError(w, r, errs.NewError(errs.ErrSessionInvalid))
				return
			}

			logx.Error(err, "Failed to rename user")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": map[string]any{
				"name":  user.Display(),
				"email": user.Email,
			},
		})
	}
}
