package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/serializer"
	"github.com/sakif/snippets/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler manages sign-in and the token cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin          → check username/password, issue a JWT
//   - HandleLogout         → clear the JWT cookie
//   - HandleMe             → return the signed-in user
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, find or create the user, issue a JWT
//
// The GitHub routes exist only when a provider is configured.
type AuthHandler struct {
	service  *service.AuthService
	github   *auth.GitHubProvider // nil when GitHub sign-in is disabled
	tokenTTL time.Duration
	// afterLogin is where the GitHub callback sends the browser.
	afterLogin string
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(
	svc *service.AuthService,
	github *auth.GitHubProvider,
	tokenTTL time.Duration,
	afterLogin string,
	logger *slog.Logger,
) *AuthHandler {
	if afterLogin == "" {
		afterLogin = "/auth/me"
	}
	return &AuthHandler{
		service:    svc,
		github:     github,
		tokenTTL:   tokenTTL,
		afterLogin: afterLogin,
		logger:     logger,
	}
}

// HandleLogin exchanges a username and password for a token.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"username": "alice", "password": "..."}
// RESPONSE: {"token": "<jwt>"}, plus the same token as an HttpOnly cookie
// so browsers don't need to handle it.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, err := serializer.DecodeLogin(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, r, result.Token)
	writeJSON(w, http.StatusOK, serializer.TokenRepresentation{Token: result.Token})
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /auth/logout
//
// Tokens are stateless, so "logout" only deletes the cookie. A token copied
// elsewhere stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /auth/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		auth.WriteUnauthorized(w, "Authentication credentials were not provided.")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a deleted account.
		h.logger.Warn("token for unknown user", slog.Int64("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentUser(user, LinkerFromRequest(r)))
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// authorization URL. The callback only proceeds when both match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Find the linked user, creating one on first sign-in
//  4. Issue a JWT cookie and redirect
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || query.Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, apperror.ValidationFailed(apperror.NonFieldErrors, "Invalid OAuth state."))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeError(w, apperror.Unauthorized("GitHub authorization was denied."))
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", serializer.MsgRequired))
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// --- Step 3: Find or create the user ---
	result, err := h.service.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	// --- Step 4: Issue JWT cookie ---
	h.setTokenCookie(w, r, result.Token)
	http.Redirect(w, r, h.afterLogin, http.StatusSeeOther)
}

// setTokenCookie stores the JWT in an HttpOnly cookie that lives as long as
// the token. Secure is set whenever the request itself arrived over TLS.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
