package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository"
)

const (
	// DefaultBoopListLimit caps the received/sent history endpoints.
	DefaultBoopListLimit = 50

	// NewBoopsFallbackWindow is used for users who never marked boops seen.
	NewBoopsFallbackWindow = 24 * time.Hour

	rateLimitWindow = time.Minute
)

const MsgRecipientRequired = "recipient_id required"

// BoopService creates boops and answers questions about boop history.
type BoopService struct {
	boops   repository.BoopRepository
	users   repository.UserRepository
	stats   repository.StatsRepository
	limits  Limits
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewBoopService(
	boops repository.BoopRepository,
	users repository.UserRepository,
	stats repository.StatsRepository,
	limits Limits,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BoopService {
	return &BoopService{
		boops:   boops,
		users:   users,
		stats:   stats,
		limits:  limits,
		metrics: m,
		logger:  logger,
		now:     utcNow,
	}
}

// Send records one boop from senderID to recipientID and returns its id.
//
// senderID always comes from the caller's session. An empty pawStyle means
// "whatever the sender has equipped". The boop row and the global counter
// are written in one transaction by the repository.
//
// Send does not enforce the per-minute limit; callers that want it call
// CheckRateLimit first.
func (s *BoopService) Send(ctx context.Context, senderID, recipientID int64, pawStyle string) (int64, error) {
	if recipientID == 0 {
		return 0, apperror.ValidationFailed("recipient_id", MsgRecipientRequired)
	}

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return 0, fmt.Errorf("service/boop: loading sender: %w", err)
	}
	if _, err := s.users.GetUserByID(ctx, recipientID); err != nil {
		return 0, err
	}

	if pawStyle == "" {
		pawStyle = sender.PawStyle
	}
	if _, ok := model.LookupPaw(pawStyle); !ok {
		return 0, apperror.ValidationFailed("paw_style", "Unknown paw style")
	}

	id, err := s.boops.CreateBoop(ctx, senderID, recipientID, pawStyle, s.now())
	if err != nil {
		return 0, fmt.Errorf("service/boop: creating boop: %w", err)
	}

	s.logger.Debug("boop sent",
		slog.Int64("boopID", id),
		slog.Int64("senderID", senderID),
		slog.Int64("recipientID", recipientID),
		slog.String("paw", pawStyle),
	)
	return id, nil
}

func (s *BoopService) Received(ctx context.Context, userID int64) ([]model.ReceivedBoop, error) {
	boops, err := s.boops.ListReceived(ctx, userID, DefaultBoopListLimit)
	if err != nil {
		return nil, fmt.Errorf("service/boop: listing received: %w", err)
	}
	return boops, nil
}

func (s *BoopService) Sent(ctx context.Context, userID int64) ([]model.SentBoop, error) {
	boops, err := s.boops.ListSent(ctx, userID, DefaultBoopListLimit)
	if err != nil {
		return nil, fmt.Errorf("service/boop: listing sent: %w", err)
	}
	return boops, nil
}

// NewSinceLastSeen returns boops received after the user's last MarkSeen,
// or in the last 24 hours if they never called it.
func (s *BoopService) NewSinceLastSeen(ctx context.Context, userID int64) ([]model.ReceivedBoop, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := s.now().Add(-NewBoopsFallbackWindow)
	if u.LastLogin != nil {
		since = *u.LastLogin
	}

	boops, err := s.boops.ListReceivedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("service/boop: listing new boops: %w", err)
	}
	return boops, nil
}

// Mutuals returns users who have both sent a boop to and received one from
// userID.
func (s *BoopService) Mutuals(ctx context.Context, userID int64) ([]model.PublicProfile, error) {
	mutuals, err := s.boops.ListMutuals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/boop: listing mutuals: %w", err)
	}
	return mutuals, nil
}

func (s *BoopService) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	stats, err := s.stats.GlobalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/boop: reading global stats: %w", err)
	}
	return stats, nil
}

func (s *BoopService) SentInLastMinute(ctx context.Context, userID int64) (int64, error) {
	n, err := s.boops.CountSentSince(ctx, userID, s.now().Add(-rateLimitWindow))
	if err != nil {
		return 0, fmt.Errorf("service/boop: counting recent boops: %w", err)
	}
	return n, nil
}

// CheckRateLimit returns apperror.ErrRateLimited once the user has sent
// MaxBoopsPerMinute boops in the last minute. A limit of zero disables it.
func (s *BoopService) CheckRateLimit(ctx context.Context, userID int64) error {
	limit := s.limits.MaxBoopsPerMinute
	if limit <= 0 {
		return nil
	}

	n, err := s.SentInLastMinute(ctx, userID)
	if err != nil {
		return err
	}
	if n >= int64(limit) {
		s.metrics.RateLimited("boops")
		return apperror.RateLimited(fmt.Sprintf("Slow down! You can send %d boops per minute", limit))
	}
	return nil
}
