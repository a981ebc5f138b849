package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository"
)

// BadgeService awards milestone badges and derives the paws they unlock.
type BadgeService struct {
	badges  repository.BadgeRepository
	boops   repository.BoopRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewBadgeService(
	badges repository.BadgeRepository,
	boops repository.BoopRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BadgeService {
	return &BadgeService{badges: badges, boops: boops, metrics: m, logger: logger}
}

// CheckAndAward grants every badge the user's sent count now qualifies for
// and returns the new ones, lowest threshold first. Calling it again with
// no boops in between returns an empty slice and writes nothing.
//
// Two concurrent sends by the same user may both see a badge as eligible.
// The user_badges primary key lets only one insert through; the loser gets
// awarded=false and leaves the badge out of its result.
func (s *BadgeService) CheckAndAward(ctx context.Context, userID int64) ([]model.Badge, error) {
	count, err := s.boops.CountBoops(ctx, userID, model.Sent)
	if err != nil {
		return nil, fmt.Errorf("service/badge: counting sent boops: %w", err)
	}

	eligible, err := s.badges.ListEligibleBadges(ctx, userID, count)
	if err != nil {
		return nil, fmt.Errorf("service/badge: listing eligible badges: %w", err)
	}

	earned := []model.Badge{}
	at := utcNow()
	for _, b := range eligible {
		awarded, err := s.badges.AwardBadge(ctx, userID, b.ID, at)
		if err != nil {
			return earned, fmt.Errorf("service/badge: awarding %q: %w", b.Name, err)
		}
		if !awarded {
			continue
		}
		earned = append(earned, b)
		s.metrics.BadgeAwarded(b.Name)
		s.logger.Info("badge awarded",
			slog.Int64("userID", userID),
			slog.String("badge", b.Name),
			slog.Int64("sentCount", count),
		)
	}
	return earned, nil
}

func (s *BadgeService) UserBadges(ctx context.Context, userID int64) ([]model.EarnedBadge, error) {
	badges, err := s.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/badge: listing user badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeService) AllBadges(ctx context.Context) ([]model.Badge, error) {
	badges, err := s.badges.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/badge: listing badges: %w", err)
	}
	return badges, nil
}

// UnlockedPaws returns the starter paws, then the paws unlocked by earned
// badges in the order they were earned, then the exclusive paw if the
// username matches its owner.
func (s *BadgeService) UnlockedPaws(ctx context.Context, u *model.User) ([]string, error) {
	paws := slices.Clone(model.StarterPaws)

	earned, err := s.UserBadges(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range earned {
		if b.UnlocksPaw != nil && !slices.Contains(paws, *b.UnlocksPaw) {
			paws = append(paws, *b.UnlocksPaw)
		}
	}

	if u.Username == model.ExclusivePawOwner {
		paws = append(paws, model.ExclusivePaw)
	}
	return paws, nil
}

// AllPawsWithStatus lists the whole catalog. Locked paws carry their unlock
// hint; unlocked ones have a nil hint.
func (s *BadgeService) AllPawsWithStatus(ctx context.Context, u *model.User) ([]model.PawStatus, error) {
	unlocked, err := s.UnlockedPaws(ctx, u)
	if err != nil {
		return nil, err
	}

	out := make([]model.PawStatus, 0, len(model.PawCatalog))
	for _, p := range model.PawCatalog {
		st := model.PawStatus{
			Name:     p.Name,
			Emoji:    p.Emoji,
			Unlocked: slices.Contains(unlocked, p.Name),
		}
		if !st.Unlocked {
			hint := p.Unlock
			st.UnlockHint = &hint
		}
		out = append(out, st)
	}
	return out, nil
}

// CanUsePaw reports whether paw is in the user's unlocked set.
func (s *BadgeService) CanUsePaw(ctx context.Context, u *model.User, paw string) (bool, error) {
	unlocked, err := s.UnlockedPaws(ctx, u)
	if err != nil {
		return false, err
	}
	return slices.Contains(unlocked, paw), nil
}
