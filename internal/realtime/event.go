// Package realtime pushes boop activity to browsers over websockets.
//
// DELIVERY GROUPS:
// Every authenticated connection joins the group of its user id; a user with
// three tabs open has three connections in one group. Anonymous connections
// join no group. They still receive full broadcasts (global stats) but
// nothing targeted, and any send_boop they emit is ignored.
//
// MESSAGE FLOW:
//
//	browser ──send_boop──▶ Conn.ReadPump ──▶ Relay.HandleMessage ──▶ services
//	                                              │
//	                      Hub.EmitToUser / Hub.Broadcast / Hub.Send
//	                                              │
//	browser ◀────────────── Conn.WritePump ◀── per-connection queue
//
// Each connection owns a buffered outbound queue drained by its own
// WritePump goroutine, so no two goroutines ever write to the same socket.
// A full queue drops the event instead of blocking the sender.
package realtime

import (
	"encoding/json"

	"github.com/sakif/booping/internal/model"
)

// Event names on the wire.
const (
	EventConnected         = "connected"
	EventSendBoop          = "send_boop"
	EventBoopReceived      = "boop_received"
	EventBadgesUnlocked    = "badges_unlocked"
	EventGlobalStatsUpdate = "global_stats_update"
	EventBoopSent          = "boop_sent"
)

// Event is the envelope for every frame: {"event": "...", "data": {...}}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// inbound is Event with the payload left undecoded until the name is known.
type inbound struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

type ConnectedData struct {
	UserID int64 `json:"user_id"`
}

// SenderInfo is the public slice of the sender shown in a boop notification.
type SenderInfo struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	ColorTheme  string `json:"color_theme"`
	PawStyle    string `json:"paw_style"`
}

type BoopReceivedData struct {
	Sender SenderInfo `json:"sender"`
	BoopID int64      `json:"boop_id"`
}

type BadgesUnlockedData struct {
	Badges []model.Badge `json:"badges"`
}

type BoopSentData struct {
	Success     bool          `json:"success"`
	RecipientID int64         `json:"recipient_id"`
	NewBadges   []model.Badge `json:"new_badges"`
}

// SendBoopRequest is the payload of a client send_boop event, and the body
// of POST /api/boop.
type SendBoopRequest struct {
	RecipientID int64  `json:"recipient_id"`
	PawStyle    string `json:"paw_style"`
}

func encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
