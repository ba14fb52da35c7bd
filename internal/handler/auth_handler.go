/*
Package handler provides the HTTP handlers for the OAuth login flow.
*/
package handler

import (
	"net/http"

	"workchat/internal/pkg/errs"
	"workchat/internal/pkg/logx"
	"workchat/internal/pkg/randx"
	"workchat/internal/pkg/resp"
)

// SessionCookieName carries the opaque session token.
const SessionCookieName = "session"

// setSessionCookie writes the session cookie. The cookie has no expiry;
// sessions live until explicit logout.
func setSessionCookie(w http.ResponseWriter, deps *AppDeps, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   deps.Config.Environment != "development",
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter, deps *AppDeps) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   deps.Config.Environment != "development",
	})
}

// sessionTokenFromRequest extracts the session token from the cookie.
func sessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// HandleLogin starts the OAuth flow: it mints a state value and redirects
// the browser to the provider. The state rides the round trip but is not
// checked on return.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randx.OAuthState()
		if err != nil {
			logx.Error(err, "Failed to generate OAuth state")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		http.Redirect(w, r, deps.OAuth.LoginURL(state), http.StatusFound)
	}
}

// HandleOAuthCallback finishes the OAuth flow: it swaps the authorization
// code for the user's identity, mints a session, sets the session cookie,
// and sends the browser back to the client page.
func HandleOAuthCallback(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errCode := query.Get("error"); errCode != "" {
			logx.Warn("OAuth callback returned an error", "error", errCode)
			resp.RespondError(w, r, errs.NewError(errs.ErrOAuthExchange))
			return
		}

		code := query.Get("code")
		if code == "" {
			logx.Warn("OAuth callback rejected: missing code")
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.OAuth.ExchangeCode(r.Context(), code)
		if err != nil {
			logx.Error(err, "OAuth code exchange failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrOAuthExchange))
			return
		}

		session, err := deps.Store.CreateSession(r.Context(), user)
		if err != nil {
			logx.Error(err, "Failed to create session", "user_key", user.Key())
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		setSessionCookie(w, deps, session.Token)

		logx.Info("Session created", "user_key", user.Key())

		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// HandleLogout destroys the current session and clears the cookie. Logging
// out without a session is not an error.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionTokenFromRequest(r)
		if token != "" {
			if err := deps.Store.DeleteSession(r.Context(), token); err != nil {
				logx.Error(err, "Failed to delete session")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		}

		clearSessionCookie(w, deps)

		resp.RespondSuccess(w, r, map[string]any{
			"logged_out": true,
		})
	}
}
