/*
Package handler provides the HTTP handler for the room catalog.
*/
package handler

import (
	"net/http"

	"workchat/internal/pkg/errs"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/resp"
)

// HandleListRooms returns the room metadata catalog. The catalog is
// advisory; any room name is joinable over the chat endpoint.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := deps.Store.Rooms(r.Context())
		if err != nil {
			logx.Error(err, "Failed to list rooms")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"rooms": rooms,
		})
	}
}
