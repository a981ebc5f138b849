package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/booping/internal/model"
)

// CreateBoop appends a boop and bumps the global counter. Both writes commit
// together or not at all.
func (db *DB) CreateBoop(ctx context.Context, senderID, recipientID int64, pawStyle string, at time.Time) (int64, error) {
	at = at.UTC()
	var id int64
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = db.dialect.InsertReturningID(ctx, tx, db.q(`
			INSERT INTO boops (sender_id, recipient_id, paw_style, created_at)
			VALUES (?, ?, ?, ?)`),
			senderID, recipientID, pawStyle, at,
		)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, db.q(`
			UPDATE global_stats SET total_boops = total_boops + 1, last_updated = ? WHERE id = 1`),
			at,
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("sqldb: creating boop: %w", err)
	}
	return id, nil
}

func (db *DB) CountBoops(ctx context.Context, userID int64, dir model.Direction) (int64, error) {
	query := `SELECT COUNT(*) FROM boops WHERE sender_id = ?`
	if dir == model.Received {
		query = `SELECT COUNT(*) FROM boops WHERE recipient_id = ?`
	}

	var n int64
	if err := db.conn.GetContext(ctx, &n, db.q(query), userID); err != nil {
		return 0, fmt.Errorf("sqldb: counting %s boops: %w", dir, err)
	}
	return n, nil
}

// CountSentSince counts boops sent by userID strictly after since.
func (db *DB) CountSentSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var n int64
	err := db.conn.GetContext(ctx, &n, db.q(`
		SELECT COUNT(*) FROM boops WHERE sender_id = ? AND created_at > ?`),
		userID, since.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqldb: counting recent boops: %w", err)
	}
	return n, nil
}

const receivedSelect = `
	SELECT b.id, b.sender_id, b.recipient_id, b.paw_style, b.created_at,
		u.display_name AS sender_name,
		u.color_theme  AS sender_color,
		u.paw_style    AS sender_paw
	FROM boops b
	JOIN users u ON u.id = b.sender_id`

func (db *DB) ListReceived(ctx context.Context, userID int64, limit int) ([]model.ReceivedBoop, error) {
	boops := []model.ReceivedBoop{}
	err := db.conn.SelectContext(ctx, &boops, db.q(receivedSelect+`
		WHERE b.recipient_id = ?
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing received boops: %w", err)
	}
	return boops, nil
}

// ListReceivedSince returns boops received strictly after since, newest first.
func (db *DB) ListReceivedSince(ctx context.Context, userID int64, since time.Time) ([]model.ReceivedBoop, error) {
	boops := []model.ReceivedBoop{}
	err := db.conn.SelectContext(ctx, &boops, db.q(receivedSelect+`
		WHERE b.recipient_id = ? AND b.created_at > ?
		ORDER BY b.created_at DESC, b.id DESC`), userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing new boops: %w", err)
	}
	return boops, nil
}

func (db *DB) ListSent(ctx context.Context, userID int64, limit int) ([]model.SentBoop, error) {
	boops := []model.SentBoop{}
	err := db.conn.SelectContext(ctx, &boops, db.q(`
		SELECT b.id, b.sender_id, b.recipient_id, b.paw_style, b.created_at,
			u.display_name AS recipient_name,
			u.color_theme  AS recipient_color
		FROM boops b
		JOIN users u ON u.id = b.recipient_id
		WHERE b.sender_id = ?
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing sent boops: %w", err)
	}
	return boops, nil
}

// ListMutuals returns the users who have both booped userID and been booped
// by them.
func (db *DB) ListMutuals(ctx context.Context, userID int64) ([]model.PublicProfile, error) {
	users := []model.PublicProfile{}
	err := db.conn.SelectContext(ctx, &users, db.q(`
		SELECT DISTINCT u.id, u.username, u.display_name, u.color_theme, u.paw_style, u.last_active
		FROM users u
		JOIN boops outgoing ON outgoing.recipient_id = u.id AND outgoing.sender_id = ?
		JOIN boops incoming ON incoming.sender_id = u.id AND incoming.recipient_id = ?
		WHERE u.id <> ?
		ORDER BY u.last_active DESC, u.id ASC`), userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing mutuals: %w", err)
	}
	return users, nil
}
