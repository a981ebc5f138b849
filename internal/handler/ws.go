package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/realtime"
)

// WSHandler upgrades GET /ws to a live connection. A valid session cookie
// makes the connection part of that user's group; without one the
// connection still receives broadcasts but can send nothing.
type WSHandler struct {
	tokens   *auth.TokenService
	relay    *realtime.Relay
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(tokens *auth.TokenService, relay *realtime.Relay, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		tokens: tokens,
		relay:  relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func (h *WSHandler) Mount(r chi.Router) {
	r.With(auth.OptionalAuth(h.tokens)).Get("/ws", h.HandleWS)
}

func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	// Serve blocks until the peer goes away or the hub shuts down.
	h.relay.Serve(context.WithoutCancel(r.Context()), ws, userID)
}
