package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/service"
)

const (
	oauthStateCookie = "oauth_state"
	msgWelcome       = "Welcome to BOOPING!"
)

// AuthHandler manages the form-based login flow and the optional GitHub
// sign-in.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin / HandleRegister → read the form, set the session cookie,
//     redirect to /home (or back to / with a flash on failure)
//   - HandleLogout                 → clear the session cookie
//   - HandleGitHubLogin            → redirect the browser to GitHub
//   - HandleGitHubCallback         → link or sign in via the GitHub account
type AuthHandler struct {
	auth    *service.AuthService
	tokens  *auth.TokenService
	github  *auth.GitHubProvider // nil when GitHub sign-in is not configured
	limiter func(http.Handler) http.Handler
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. limiter wraps the login and
// registration POSTs; pass nil to leave them unthrottled.
func NewAuthHandler(
	authService *service.AuthService,
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	limiter func(http.Handler) http.Handler,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:    authService,
		tokens:  tokens,
		github:  github,
		limiter: limiter,
		logger:  logger,
	}
}

// Mount registers:
//
//	POST /login, POST /register   (rate limited)
//	GET  /login                   → /
//	GET  /logout
//	GET  /auth/github/login, GET /auth/github/callback   (when configured)
func (h *AuthHandler) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter)
		}
		r.Post("/login", h.HandleLogin)
		r.Post("/register", h.HandleRegister)
	})
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	r.Get("/logout", h.HandleLogout)

	if h.github != nil {
		r.Get("/auth/github/login", h.HandleGitHubLogin)
		r.With(auth.OptionalAuth(h.tokens)).Get("/auth/github/callback", h.HandleGitHubCallback)
	}
}

// HandleLogin signs a user in with username and password.
//
// HTTP: POST /login (form: username, password)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form submission")
		return
	}

	user, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.fail(w, r, h.message(err))
		return
	}

	if err := auth.SetSession(w, h.tokens, user.ID); err != nil {
		h.logger.Error("issuing session failed", slog.Int64("userID", user.ID), slog.String("error", err.Error()))
		h.fail(w, r, "Something went wrong, please try again")
		return
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// HandleRegister creates an account and signs it in.
//
// HTTP: POST /register (form: username, password, display_name)
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form submission")
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		DisplayName: r.PostFormValue("display_name"),
	})
	if err != nil {
		h.fail(w, r, h.message(err))
		return
	}

	if err := auth.SetSession(w, h.tokens, user.ID); err != nil {
		h.logger.Error("issuing session failed", slog.Int64("userID", user.ID), slog.String("error", err.Error()))
		h.fail(w, r, "Something went wrong, please try again")
		return
	}
	setFlash(w, "success", msgWelcome)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// HandleLogout clears the session cookie. The token itself stays valid
// until it expires, but the browser no longer sends it.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state is stored in a short-lived HttpOnly cookie and must come
// back unchanged on the callback.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter
//  2. Exchange the code for the GitHub profile
//  3. Link it to the signed-in user, or sign in the user it is linked to
//  4. Issue the session cookie and redirect
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: invalid state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		h.fail(w, r, "GitHub sign-in was cancelled")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		h.fail(w, r, "GitHub sign-in failed")
		return
	}

	currentUserID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.auth.LoginWithGitHub(r.Context(), currentUserID, ghUser)
	if err != nil {
		h.fail(w, r, h.message(err))
		return
	}

	if err := auth.SetSession(w, h.tokens, user.ID); err != nil {
		h.logger.Error("issuing session failed", slog.Int64("userID", user.ID), slog.String("error", err.Error()))
		h.fail(w, r, "Something went wrong, please try again")
		return
	}
	if currentUserID != 0 {
		setFlash(w, "success", "GitHub account linked")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// fail flashes message and sends the browser back to the landing page.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, message string) {
	setFlash(w, "error", message)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// message returns the user-facing text of a domain error. Unexpected
// errors are logged and replaced with a generic message.
func (h *AuthHandler) message(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	h.logger.Error("auth request failed", slog.String("error", err.Error()))
	return "Something went wrong, please try again"
}
