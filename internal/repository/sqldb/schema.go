package sqldb

// The two schemas describe the same tables and must be kept in step by hand.
// Every statement is idempotent.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL,
		tagline       TEXT NOT NULL DEFAULT '',
		color_theme   TEXT NOT NULL DEFAULT '#FF69B4',
		paw_style     TEXT NOT NULL DEFAULT 'default',
		created_at    DATETIME NOT NULL,
		last_active   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boops (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id    INTEGER NOT NULL REFERENCES users(id),
		recipient_id INTEGER NOT NULL REFERENCES users(id),
		paw_style    TEXT NOT NULL DEFAULT 'default',
		created_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boops_sender ON boops(sender_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_boops_recipient ON boops(recipient_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		threshold   INTEGER NOT NULL,
		icon        TEXT NOT NULL DEFAULT '',
		unlocks_paw TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS user_badges (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id   INTEGER NOT NULL REFERENCES users(id),
		badge_id  INTEGER NOT NULL REFERENCES badges(id),
		earned_at DATETIME NOT NULL,
		UNIQUE (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          INTEGER NOT NULL REFERENCES users(id),
		favorite_user_id INTEGER NOT NULL REFERENCES users(id),
		created_at       DATETIME NOT NULL,
		UNIQUE (user_id, favorite_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS global_stats (
		id           INTEGER PRIMARY KEY CHECK (id = 1),
		total_boops  INTEGER NOT NULL DEFAULT 0,
		total_users  INTEGER NOT NULL DEFAULT 0,
		last_updated DATETIME NOT NULL
	)`,
}

// Migrations run after the schema. Errors that mean "already applied" are
// logged and skipped; anything else aborts startup.
var sqliteMigrations = []string{
	`ALTER TABLE users ADD COLUMN last_login DATETIME`,
	`ALTER TABLE users ADD COLUMN github_id INTEGER`,
	`CREATE UNIQUE INDEX idx_users_github_id ON users(github_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL,
		tagline       TEXT NOT NULL DEFAULT '',
		color_theme   TEXT NOT NULL DEFAULT '#FF69B4',
		paw_style     TEXT NOT NULL DEFAULT 'default',
		created_at    TIMESTAMPTZ NOT NULL,
		last_active   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boops (
		id           BIGSERIAL PRIMARY KEY,
		sender_id    BIGINT NOT NULL REFERENCES users(id),
		recipient_id BIGINT NOT NULL REFERENCES users(id),
		paw_style    TEXT NOT NULL DEFAULT 'default',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boops_sender ON boops(sender_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_boops_recipient ON boops(recipient_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		threshold   BIGINT NOT NULL,
		icon        TEXT NOT NULL DEFAULT '',
		unlocks_paw TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS user_badges (
		id        BIGSERIAL PRIMARY KEY,
		user_id   BIGINT NOT NULL REFERENCES users(id),
		badge_id  BIGINT NOT NULL REFERENCES badges(id),
		earned_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id               BIGSERIAL PRIMARY KEY,
		user_id          BIGINT NOT NULL REFERENCES users(id),
		favorite_user_id BIGINT NOT NULL REFERENCES users(id),
		created_at       TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, favorite_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS global_stats (
		id           INTEGER PRIMARY KEY CHECK (id = 1),
		total_boops  BIGINT NOT NULL DEFAULT 0,
		total_users  BIGINT NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL
	)`,
}

var postgresMigrations = []string{
	`ALTER TABLE users ADD COLUMN last_login TIMESTAMPTZ`,
	`ALTER TABLE users ADD COLUMN github_id BIGINT`,
	`CREATE UNIQUE INDEX idx_users_github_id ON users(github_id)`,
}

const upsertBadge = `INSERT INTO badges (name, description, threshold, icon, unlocks_paw)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (name) DO UPDATE SET
		description = excluded.description,
		threshold   = excluded.threshold,
		icon        = excluded.icon,
		unlocks_paw = excluded.unlocks_paw`

const ensureGlobalStats = `INSERT INTO global_stats (id, total_boops, total_users, last_updated)
	VALUES (1, 0, 0, ?)
	ON CONFLICT (id) DO NOTHING`
