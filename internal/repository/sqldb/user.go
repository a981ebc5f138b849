package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/model"
)

const userColumns = `id, username, password_hash, display_name, tagline, color_theme,
	paw_style, github_id, created_at, last_active, last_login`

// CreateUser inserts u and increments global_stats.total_users in one
// transaction. On success u.ID is set.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	if u.LastActive.IsZero() {
		u.LastActive = u.CreatedAt
	}

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := db.dialect.InsertReturningID(ctx, tx, db.q(`
			INSERT INTO users (username, password_hash, display_name, tagline, color_theme,
				paw_style, created_at, last_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			u.Username, u.PasswordHash, u.DisplayName, u.Tagline, u.ColorTheme,
			u.PawStyle, u.CreatedAt, u.LastActive,
		)
		if err != nil {
			return err
		}
		u.ID = id

		_, err = tx.ExecContext(ctx, db.q(`
			UPDATE global_stats SET total_users = total_users + 1, last_updated = ? WHERE id = 1`),
			u.CreatedAt,
		)
		return err
	})
	if err != nil {
		if db.dialect.IsUniqueViolation(err) {
			return apperror.Conflict("username", "Username already taken")
		}
		return fmt.Errorf("sqldb: creating user %q: %w", u.Username, err)
	}
	return nil
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u, db.q(`SELECT `+userColumns+` FROM users WHERE `+where), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("User", "")
	}
	if err != nil {
		return nil, fmt.Errorf("sqldb: getting user by %s: %w", where, err)
	}
	return &u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, "id = ?", id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username = ?", username)
}

func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx, "github_id = ?", githubID)
}

// LinkGitHub attaches a GitHub account to an existing user. A GitHub id that
// already belongs to someone else is a conflict.
func (db *DB) LinkGitHub(ctx context.Context, userID, githubID int64) error {
	res, err := db.conn.ExecContext(ctx, db.q(`UPDATE users SET github_id = ? WHERE id = ?`), githubID, userID)
	if err != nil {
		if db.dialect.IsUniqueViolation(err) {
			return apperror.Conflict("github_id", "GitHub account is already linked to another user")
		}
		return fmt.Errorf("sqldb: linking github account: %w", err)
	}
	return requireRow(res, "User")
}

func (db *DB) ListUsers(ctx context.Context, excludeID int64) ([]model.User, error) {
	users := []model.User{}
	err := db.conn.SelectContext(ctx, &users, db.q(`
		SELECT `+userColumns+` FROM users
		WHERE id <> ?
		ORDER BY last_active DESC, id ASC`), excludeID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing users: %w", err)
	}
	return users, nil
}

// UpdateProfile writes only the fields set in upd. The statement is built
// with squirrel because the column list varies per call.
func (db *DB) UpdateProfile(ctx context.Context, userID int64, upd model.ProfileUpdate) error {
	if upd.Empty() {
		return nil
	}

	b := sq.Update("users").
		PlaceholderFormat(db.dialect.Placeholder()).
		Where(sq.Eq{"id": userID})
	if upd.DisplayName != nil {
		b = b.Set("display_name", *upd.DisplayName)
	}
	if upd.Tagline != nil {
		b = b.Set("tagline", *upd.Tagline)
	}
	if upd.ColorTheme != nil {
		b = b.Set("color_theme", *upd.ColorTheme)
	}
	if upd.PawStyle != nil {
		b = b.Set("paw_style", *upd.PawStyle)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("sqldb: building profile update: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqldb: updating profile: %w", err)
	}
	return requireRow(res, "User")
}

func (db *DB) TouchLastActive(ctx context.Context, userID int64, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, db.q(`UPDATE users SET last_active = ? WHERE id = ?`), at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("sqldb: touching last_active: %w", err)
	}
	return requireRow(res, "User")
}

func (db *DB) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, db.q(`UPDATE users SET last_login = ? WHERE id = ?`), at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("sqldb: touching last_login: %w", err)
	}
	return requireRow(res, "User")
}

func requireRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqldb: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, "")
	}
	return nil
}
