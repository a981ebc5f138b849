package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/model"
)

// Boops is the part of service.BoopService the relay needs.
type Boops interface {
	Send(ctx context.Context, senderID, recipientID int64, pawStyle string) (int64, error)
	CheckRateLimit(ctx context.Context, userID int64) error
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
}

// Badges is the part of service.BadgeService the relay needs.
type Badges interface {
	CheckAndAward(ctx context.Context, userID int64) ([]model.Badge, error)
}

// Users is the part of service.UserService the relay needs.
type Users interface {
	Get(ctx context.Context, userID int64) (*model.User, error)
}

// BoopResult is what a sender learns about their boop.
type BoopResult struct {
	BoopID    int64         `json:"boop_id"`
	NewBadges []model.Badge `json:"new_badges"`
}

// Relay turns a boop into its storage writes and live notifications. Both
// the websocket send_boop event and POST /api/boop go through SendBoop.
type Relay struct {
	hub     *Hub
	boops   Boops
	badges  Badges
	users   Users
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRelay(hub *Hub, boops Boops, badges Badges, users Users, m *metrics.Metrics, logger *slog.Logger) *Relay {
	return &Relay{hub: hub, boops: boops, badges: badges, users: users, metrics: m, logger: logger}
}

// SendBoop stores one boop from senderID and notifies everyone concerned,
// in this order:
//
//  1. boop_received        → the recipient's connections
//  2. badges_unlocked      → the sender (origin connection, or the sender's
//     whole group when origin is nil), only if badges were earned
//  3. global_stats_update  → every connection
//  4. boop_sent            → origin connection, when there is one
//
// Errors from validation or storage are returned before anything is
// pushed. Once the boop is committed, a failing badge check or stats read
// is logged and the remaining steps still run.
func (r *Relay) SendBoop(ctx context.Context, origin *Conn, senderID int64, req SendBoopRequest) (*BoopResult, error) {
	boopID, err := r.boops.Send(ctx, senderID, req.RecipientID, req.PawStyle)
	if err != nil {
		return nil, err
	}

	channel := "http"
	if origin != nil {
		channel = "socket"
	}
	r.metrics.BoopSent(channel)

	sender, err := r.users.Get(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("realtime: loading sender %d: %w", senderID, err)
	}
	// The recipient sees the paw this boop was stored with.
	paw := req.PawStyle
	if paw == "" {
		paw = sender.PawStyle
	}

	r.hub.EmitToUser(req.RecipientID, Event{
		Name: EventBoopReceived,
		Data: BoopReceivedData{
			Sender: SenderInfo{
				ID:          sender.ID,
				DisplayName: sender.DisplayName,
				ColorTheme:  sender.ColorTheme,
				PawStyle:    paw,
			},
			BoopID: boopID,
		},
	})

	newBadges, err := r.badges.CheckAndAward(ctx, senderID)
	if err != nil {
		r.logger.Error("badge check failed after boop",
			slog.Int64("userID", senderID),
			slog.Int64("boopID", boopID),
			slog.String("error", err.Error()),
		)
	}
	if newBadges == nil {
		newBadges = []model.Badge{}
	}
	if len(newBadges) > 0 {
		ev := Event{Name: EventBadgesUnlocked, Data: BadgesUnlockedData{Badges: newBadges}}
		if origin != nil {
			r.hub.Send(origin, ev)
		} else {
			r.hub.EmitToUser(senderID, ev)
		}
	}

	if stats, err := r.boops.GlobalStats(ctx); err != nil {
		r.logger.Error("reading global stats after boop", slog.String("error", err.Error()))
	} else {
		r.hub.Broadcast(Event{Name: EventGlobalStatsUpdate, Data: stats})
	}

	if origin != nil {
		r.hub.Send(origin, Event{
			Name: EventBoopSent,
			Data: BoopSentData{Success: true, RecipientID: req.RecipientID, NewBadges: newBadges},
		})
	}

	return &BoopResult{BoopID: boopID, NewBadges: newBadges}, nil
}

// HandleMessage dispatches one inbound frame. Anything invalid is dropped
// without a reply: malformed JSON, unknown events, anonymous senders,
// missing or unknown recipients, and senders over the per-minute limit.
func (r *Relay) HandleMessage(ctx context.Context, c *Conn, raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		r.drop(c, "malformed", err)
		return
	}

	switch in.Name {
	case EventSendBoop:
		if !c.Authenticated() {
			r.drop(c, "anonymous", nil)
			return
		}
		var req SendBoopRequest
		if len(in.Data) == 0 {
			r.drop(c, "missing payload", nil)
			return
		}
		if err := json.Unmarshal(in.Data, &req); err != nil {
			r.drop(c, "bad payload", err)
			return
		}
		if err := r.boops.CheckRateLimit(ctx, c.userID); err != nil {
			r.drop(c, "rate limited", err)
			return
		}
		if _, err := r.SendBoop(ctx, c, c.userID, req); err != nil {
			r.drop(c, "send failed", err)
		}
	default:
		r.drop(c, "unknown event "+in.Name, nil)
	}
}

// Serve runs a connection until the peer disconnects: register, greet
// authenticated users with "connected", then pump frames both ways.
func (r *Relay) Serve(ctx context.Context, ws *websocket.Conn, userID int64) {
	c := NewConn(r.hub, ws, userID)
	r.hub.Register(c)

	if c.Authenticated() {
		r.hub.Send(c, Event{Name: EventConnected, Data: ConnectedData{UserID: userID}})
	}

	go c.WritePump()
	c.ReadPump(ctx, r.HandleMessage)
}

func (r *Relay) drop(c *Conn, reason string, err error) {
	attrs := []any{
		slog.String("conn", c.id),
		slog.Int64("userID", c.userID),
		slog.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.logger.Debug("inbound event dropped", attrs...)
}
