// Package handler contains the HTTP handlers: server-rendered pages, the
// form-based login flow, the JSON API under /api and the websocket upgrade.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (form, JSON body, URL params, session)
//  2. Call the service layer
//  3. Write the response (HTML, JSON, redirect)
//
// Business rules live in internal/service. Each handler type exposes a
// Mount method that registers its routes on a chi.Router, so the server
// package only decides which middleware wraps which group.
package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/service"
)

// PageData is what every template receives. Pages fill the fields they use.
type PageData struct {
	Title         string
	User          *model.User
	Flash         *Flash
	Stats         *model.GlobalStats
	GitHubEnabled bool

	UserStats            model.UserStats
	Badges               []model.EarnedBadge
	Paws                 []model.PawStatus
	MaxDisplayNameLength int
	MaxTaglineLength     int
}

// PageHandler renders the HTML pages. Templates are parsed once at startup,
// one set per page, each combined with base.html.
type PageHandler struct {
	pages         map[string]*template.Template
	tokens        *auth.TokenService
	users         *service.UserService
	boops         *service.BoopService
	badges        *service.BadgeService
	limits        service.Limits
	githubEnabled bool
	logger        *slog.Logger
}

func NewPageHandler(
	templates fs.FS,
	tokens *auth.TokenService,
	users *service.UserService,
	boops *service.BoopService,
	badges *service.BadgeService,
	limits service.Limits,
	githubEnabled bool,
	logger *slog.Logger,
) (*PageHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index.html", "home.html", "profile.html", "lore.html"} {
		tmpl, err := template.ParseFS(templates, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &PageHandler{
		pages:         pages,
		tokens:        tokens,
		users:         users,
		boops:         boops,
		badges:        badges,
		limits:        limits,
		githubEnabled: githubEnabled,
		logger:        logger,
	}, nil
}

// Mount registers:
//
//	GET /         landing page, or redirect to /home when signed in
//	GET /lore     public
//	GET /home     signed in only
//	GET /profile  signed in only
func (h *PageHandler) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(h.tokens))
		r.Get("/", h.HandleIndex)
		r.Get("/lore", h.HandleLore)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(h.tokens))
		r.Get("/home", h.HandleHome)
		r.Get("/profile", h.HandleProfile)
	})
}

func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	data := h.baseData(w, r, "BOOPING")
	h.render(w, "index.html", data)
}

func (h *PageHandler) HandleLore(w http.ResponseWriter, r *http.Request) {
	data := h.baseData(w, r, "Lore · BOOPING")
	h.render(w, "lore.html", data)
}

func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := h.baseData(w, r, "Home · BOOPING")
	if data.User == nil {
		h.signedOut(w, r)
		return
	}

	stats, err := h.users.Stats(r.Context(), data.User.ID)
	if err != nil {
		h.serverError(w, "loading stats", err)
		return
	}
	data.UserStats = stats
	h.render(w, "home.html", data)
}

func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	data := h.baseData(w, r, "Profile · BOOPING")
	if data.User == nil {
		h.signedOut(w, r)
		return
	}
	ctx := r.Context()

	stats, err := h.users.Stats(ctx, data.User.ID)
	if err != nil {
		h.serverError(w, "loading stats", err)
		return
	}
	badges, err := h.badges.UserBadges(ctx, data.User.ID)
	if err != nil {
		h.serverError(w, "loading badges", err)
		return
	}
	paws, err := h.badges.AllPawsWithStatus(ctx, data.User)
	if err != nil {
		h.serverError(w, "loading paws", err)
		return
	}

	data.UserStats = stats
	data.Badges = badges
	data.Paws = paws
	data.MaxDisplayNameLength = h.limits.MaxDisplayNameLength
	data.MaxTaglineLength = h.limits.MaxTaglineLength
	h.render(w, "profile.html", data)
}

// baseData fills the fields shared by every page. A session whose user no
// longer exists is treated as signed out.
func (h *PageHandler) baseData(w http.ResponseWriter, r *http.Request, title string) PageData {
	data := PageData{
		Title:         title,
		Flash:         popFlash(w, r),
		GitHubEnabled: h.githubEnabled,
	}

	if stats, err := h.boops.GlobalStats(r.Context()); err == nil {
		data.Stats = stats
	} else {
		h.logger.Warn("loading global stats for page", slog.String("error", err.Error()))
	}

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		if u, err := h.users.Get(r.Context(), userID); err == nil {
			data.User = u
		}
	}
	return data
}

func (h *PageHandler) signedOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) render(w http.ResponseWriter, page string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		// Headers are already sent; all we can do is log.
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

func (h *PageHandler) serverError(w http.ResponseWriter, what string, err error) {
	h.logger.Error("page failed", slog.String("step", what), slog.String("error", err.Error()))
	http.Error(w, "Something went wrong", http.StatusInternalServerError)
}
