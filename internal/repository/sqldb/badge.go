package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/booping/internal/model"
)

const badgeColumns = `b.id, b.name, b.description, b.threshold, b.icon, b.unlocks_paw`

func (db *DB) ListBadges(ctx context.Context) ([]model.Badge, error) {
	badges := []model.Badge{}
	if err := db.conn.SelectContext(ctx, &badges,
		`SELECT `+badgeColumns+` FROM badges b ORDER BY b.threshold ASC, b.id ASC`,
	); err != nil {
		return nil, fmt.Errorf("sqldb: listing badges: %w", err)
	}
	return badges, nil
}

func (db *DB) ListUserBadges(ctx context.Context, userID int64) ([]model.EarnedBadge, error) {
	badges := []model.EarnedBadge{}
	err := db.conn.SelectContext(ctx, &badges, db.q(`
		SELECT `+badgeColumns+`, ub.earned_at
		FROM badges b
		JOIN user_badges ub ON ub.badge_id = b.id
		WHERE ub.user_id = ?
		ORDER BY b.threshold ASC, b.id ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing user badges: %w", err)
	}
	return badges, nil
}

func (db *DB) ListEligibleBadges(ctx context.Context, userID, count int64) ([]model.Badge, error) {
	badges := []model.Badge{}
	err := db.conn.SelectContext(ctx, &badges, db.q(`
		SELECT `+badgeColumns+`
		FROM badges b
		WHERE b.threshold <= ?
		  AND NOT EXISTS (
			SELECT 1 FROM user_badges ub WHERE ub.user_id = ? AND ub.badge_id = b.id
		  )
		ORDER BY b.threshold ASC, b.id ASC`), count, userID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing eligible badges: %w", err)
	}
	return badges, nil
}

// AwardBadge relies on UNIQUE (user_id, badge_id): a concurrent award of the
// same badge loses the race and reports false.
func (db *DB) AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error) {
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)`),
		userID, badgeID, at.UTC(),
	)
	if err != nil {
		if db.dialect.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("sqldb: awarding badge %d: %w", badgeID, err)
	}
	return true, nil
}
