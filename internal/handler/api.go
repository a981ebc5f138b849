package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/realtime"
	"github.com/sakif/booping/internal/service"
)

// APIHandler serves the JSON API under /api. Every route except
// GET /api/stats/global requires a session.
type APIHandler struct {
	tokens    *auth.TokenService
	users     *service.UserService
	boops     *service.BoopService
	badges    *service.BadgeService
	favorites *service.FavoriteService
	relay     *realtime.Relay
	logger    *slog.Logger
}

func NewAPIHandler(
	tokens *auth.TokenService,
	users *service.UserService,
	boops *service.BoopService,
	badges *service.BadgeService,
	favorites *service.FavoriteService,
	relay *realtime.Relay,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		tokens:    tokens,
		users:     users,
		boops:     boops,
		badges:    badges,
		favorites: favorites,
		relay:     relay,
		logger:    logger,
	}
}

// SendBoopResponse is the body of a successful POST /api/boop.
type SendBoopResponse struct {
	Success   bool          `json:"success"`
	BoopID    int64         `json:"boop_id"`
	NewBadges []model.Badge `json:"new_badges"`
}

// Mount registers the API routes on r, which is expected to be mounted at
// /api.
func (h *APIHandler) Mount(r chi.Router) {
	r.Get("/stats/global", h.HandleGlobalStats)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens))

		r.Get("/users", h.HandleListUsers)
		r.Get("/users/me", h.HandleMe)
		r.Put("/users/me", h.HandleUpdateMe)
		r.Get("/users/me/stats", h.HandleMyStats)
		r.Get("/users/me/badges", h.HandleMyBadges)
		r.Get("/users/me/paws", h.HandleMyPaws)
		r.Get("/users/me/all-paws", h.HandleAllPaws)
		r.Get("/users/me/new-boops", h.HandleNewBoops)
		r.Post("/users/me/seen", h.HandleMarkSeen)
		r.Post("/users/me/ping", h.HandlePing)
		r.Get("/users/me/favorites", h.HandleListFavorites)
		r.Get("/users/me/favorite-ids", h.HandleFavoriteIDs)
		r.Get("/users/me/mutuals", h.HandleMutuals)

		r.Get("/badges", h.HandleListBadges)

		r.Post("/boop", h.HandleSendBoop)
		r.Get("/boops/received", h.HandleReceived)
		r.Get("/boops/sent", h.HandleSent)

		r.Get("/favorites/{userID}", h.HandleIsFavorite)
		r.Post("/favorites/{userID}", h.HandleAddFavorite)
		r.Delete("/favorites/{userID}", h.HandleRemoveFavorite)
	})
}

// ===== users =====

func (h *APIHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), currentUser(r))
	h.respond(w, users, err)
}

func (h *APIHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), currentUser(r))
	h.respond(w, u, err)
}

// HandleUpdateMe applies a partial profile edit.
//
// HTTP: PUT /api/users/me
// Body: {"display_name"?, "tagline"?, "color_theme"?, "paw_style"?}
func (h *APIHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd model.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), currentUser(r), upd)
	h.respond(w, u, err)
}

func (h *APIHandler) HandleMyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context(), currentUser(r))
	h.respond(w, stats, err)
}

func (h *APIHandler) HandleMyBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badges.UserBadges(r.Context(), currentUser(r))
	h.respond(w, badges, err)
}

func (h *APIHandler) HandleMyPaws(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	paws, err := h.badges.UnlockedPaws(r.Context(), u)
	h.respond(w, paws, err)
}

func (h *APIHandler) HandleAllPaws(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	paws, err := h.badges.AllPawsWithStatus(r.Context(), u)
	h.respond(w, paws, err)
}

func (h *APIHandler) HandleNewBoops(w http.ResponseWriter, r *http.Request) {
	boops, err := h.boops.NewSinceLastSeen(r.Context(), currentUser(r))
	h.respond(w, boops, err)
}

// HandleMarkSeen advances the new-boops watermark to now.
//
// HTTP: POST /api/users/me/seen
func (h *APIHandler) HandleMarkSeen(w http.ResponseWriter, r *http.Request) {
	h.acknowledge(w, h.users.MarkSeen(r.Context(), currentUser(r)))
}

func (h *APIHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	h.acknowledge(w, h.users.Ping(r.Context(), currentUser(r)))
}

func (h *APIHandler) HandleMutuals(w http.ResponseWriter, r *http.Request) {
	users, err := h.boops.Mutuals(r.Context(), currentUser(r))
	h.respond(w, users, err)
}

// ===== badges & stats =====

func (h *APIHandler) HandleListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badges.AllBadges(r.Context())
	h.respond(w, badges, err)
}

func (h *APIHandler) HandleGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.boops.GlobalStats(r.Context())
	h.respond(w, stats, err)
}

// ===== boops =====

// HandleSendBoop is the HTTP fallback for the websocket send_boop event.
// Recipients and other clients are notified exactly as for a socket send;
// the sender learns about new badges from the response body and from a
// badges_unlocked event on their open connections.
//
// HTTP: POST /api/boop
// Body: {"recipient_id": 2, "paw_style"?: "cat"}
func (h *APIHandler) HandleSendBoop(w http.ResponseWriter, r *http.Request) {
	var req realtime.SendBoopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.RecipientID == 0 {
		writeError(w, h.logger, apperror.ValidationFailed("recipient_id", service.MsgRecipientRequired))
		return
	}

	senderID := currentUser(r)
	if err := h.boops.CheckRateLimit(r.Context(), senderID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.relay.SendBoop(r.Context(), nil, senderID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SendBoopResponse{
		Success:   true,
		BoopID:    res.BoopID,
		NewBadges: res.NewBadges,
	})
}

func (h *APIHandler) HandleReceived(w http.ResponseWriter, r *http.Request) {
	boops, err := h.boops.Received(r.Context(), currentUser(r))
	h.respond(w, boops, err)
}

func (h *APIHandler) HandleSent(w http.ResponseWriter, r *http.Request) {
	boops, err := h.boops.Sent(r.Context(), currentUser(r))
	h.respond(w, boops, err)
}

// ===== favorites =====

func (h *APIHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	users, err := h.favorites.List(r.Context(), currentUser(r))
	h.respond(w, users, err)
}

func (h *APIHandler) HandleFavoriteIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.favorites.IDs(r.Context(), currentUser(r))
	h.respond(w, ids, err)
}

// FavoriteStatusResponse is the body of GET /api/favorites/{userID}.
type FavoriteStatusResponse struct {
	UserID     int64 `json:"user_id"`
	IsFavorite bool  `json:"is_favorite"`
}

// HTTP: GET /api/favorites/{userID}
func (h *APIHandler) HandleIsFavorite(w http.ResponseWriter, r *http.Request) {
	favoriteID, err := userIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ok, err := h.favorites.IsFavorite(r.Context(), currentUser(r), favoriteID)
	h.respond(w, FavoriteStatusResponse{UserID: favoriteID, IsFavorite: ok}, err)
}

// HandleAddFavorite reports success false when the user was already a
// favorite.
//
// HTTP: POST /api/favorites/{userID}
func (h *APIHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	favoriteID, err := userIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	added, err := h.favorites.Add(r.Context(), currentUser(r), favoriteID)
	h.respond(w, SuccessResponse{Success: added}, err)
}

// HTTP: DELETE /api/favorites/{userID}
func (h *APIHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	favoriteID, err := userIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.acknowledge(w, h.favorites.Remove(r.Context(), currentUser(r), favoriteID))
}

// ===== helpers =====

// currentUser returns the session's user id. RequireAuth guarantees it is
// set on every route that calls this.
func currentUser(r *http.Request) int64 {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("userID", "Invalid user id")
	}
	return id, nil
}

func (h *APIHandler) respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *APIHandler) acknowledge(w http.ResponseWriter, err error) {
	h.respond(w, SuccessResponse{Success: true}, err)
}
