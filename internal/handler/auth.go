package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/hyperbolichq/loyalty-api/internal/auth"
)

// AuthHandler runs the GitHub OAuth flow for players and manages the
// session cookie. The issued token's subject is the identity principal,
// not a player ID: linking a player happens afterwards via /player/link.
type AuthHandler struct {
	github *auth.GitHubProvider
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthHandler(github *auth.GitHubProvider, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		github: github,
		tokens: tokens,
		logger: logger,
	}
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// GET /auth/github/login
//
// The random state value is stored in a short-lived HttpOnly cookie and
// verified on callback, which ties the callback to a flow this server
// started.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify the state,
// exchange the code, and issue the player session cookie.
//
// GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	principal := ghUser.Principal()
	tokenStr, err := h.tokens.Generate(principal, auth.AudiencePlayer, auth.PlayerTokenTTL)
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("principal authenticated", slog.String("principal", principal))

	// HttpOnly keeps the token out of reach of page scripts. Secure
	// should be enabled behind HTTPS.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.PlayerCookie,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(auth.PlayerTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.PlayerCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
