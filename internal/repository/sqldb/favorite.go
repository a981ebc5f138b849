package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/booping/internal/model"
)

func (db *DB) AddFavorite(ctx context.Context, userID, favoriteID int64, at time.Time) (bool, error) {
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO favorites (user_id, favorite_user_id, created_at) VALUES (?, ?, ?)`),
		userID, favoriteID, at.UTC(),
	)
	if err != nil {
		if db.dialect.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("sqldb: adding favorite: %w", err)
	}
	return true, nil
}

// RemoveFavorite is a no-op when the pair does not exist.
func (db *DB) RemoveFavorite(ctx context.Context, userID, favoriteID int64) error {
	if _, err := db.conn.ExecContext(ctx, db.q(`
		DELETE FROM favorites WHERE user_id = ? AND favorite_user_id = ?`),
		userID, favoriteID,
	); err != nil {
		return fmt.Errorf("sqldb: removing favorite: %w", err)
	}
	return nil
}

func (db *DB) ListFavorites(ctx context.Context, userID int64) ([]model.PublicProfile, error) {
	users := []model.PublicProfile{}
	err := db.conn.SelectContext(ctx, &users, db.q(`
		SELECT u.id, u.username, u.display_name, u.color_theme, u.paw_style, u.last_active
		FROM favorites f
		JOIN users u ON u.id = f.favorite_user_id
		WHERE f.user_id = ?
		ORDER BY u.last_active DESC, u.id ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing favorites: %w", err)
	}
	return users, nil
}

func (db *DB) FavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := db.conn.SelectContext(ctx, &ids, db.q(`
		SELECT favorite_user_id FROM favorites WHERE user_id = ? ORDER BY favorite_user_id`), userID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing favorite ids: %w", err)
	}
	return ids, nil
}

func (db *DB) IsFavorite(ctx context.Context, userID, favoriteID int64) (bool, error) {
	var n int64
	err := db.conn.GetContext(ctx, &n, db.q(`
		SELECT COUNT(*) FROM favorites WHERE user_id = ? AND favorite_user_id = ?`),
		userID, favoriteID,
	)
	if err != nil {
		return false, fmt.Errorf("sqldb: checking favorite: %w", err)
	}
	return n > 0, nil
}
