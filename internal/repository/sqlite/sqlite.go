// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler
// is needed and ":memory:" databases keep the repository tests fast and
// isolated. WAL mode allows concurrent reads while a write is in flight,
// which matters for a web server sharing one database file.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/loyalty.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates all tables and indexes. CREATE ... IF NOT EXISTS keeps
// it safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id                            TEXT PRIMARY KEY,
			short_code                    TEXT NOT NULL UNIQUE,
			display_name                  TEXT NOT NULL,
			real_name                     TEXT NOT NULL DEFAULT '',
			email                         TEXT NOT NULL DEFAULT '',
			phone                         TEXT NOT NULL DEFAULT '',
			discord                       TEXT NOT NULL DEFAULT '',
			avatar_base                   TEXT NOT NULL DEFAULT '😎',
			avatar_background             TEXT NOT NULL DEFAULT '#3b82f6',
			avatar_frame                  TEXT NOT NULL DEFAULT 'none',
			avatar_badge                  TEXT NOT NULL DEFAULT '',
			identity_id                   TEXT NOT NULL DEFAULT '',
			primary_game                  TEXT NOT NULL DEFAULT '',
			pass_tier                     TEXT NOT NULL DEFAULT 'none',
			privacy_profile_visibility    TEXT NOT NULL DEFAULT 'public',
			privacy_show_on_leaderboard   INTEGER NOT NULL DEFAULT 1,
			privacy_show_as_anonymous     INTEGER NOT NULL DEFAULT 0,
			privacy_allow_friend_requests INTEGER NOT NULL DEFAULT 1,
			privacy_hide_from_search      INTEGER NOT NULL DEFAULT 0,
			privacy_show_activity         INTEGER NOT NULL DEFAULT 1,
			privacy_show_games            INTEGER NOT NULL DEFAULT 1,
			privacy_show_real_name        INTEGER NOT NULL DEFAULT 0,
			created_at                    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_players_identity
			ON players(identity_id) WHERE identity_id != '';
	`)
	if err != nil {
		return fmt.Errorf("creating players table: %w", err)
	}

	// The daily-gate index is the storage-level guarantee behind
	// "at most one gated action per player per calendar day": action_day
	// is populated only for gated sources, so normal awards never collide.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS xp_ledger (
			id          TEXT PRIMARY KEY,
			player_id   TEXT NOT NULL REFERENCES players(id),
			game_id     TEXT NOT NULL DEFAULT 'general',
			base_xp     INTEGER NOT NULL,
			multiplier  REAL NOT NULL DEFAULT 1.0,
			final_xp    INTEGER NOT NULL,
			source      TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			awarded_by  TEXT NOT NULL DEFAULT '',
			action_day  TEXT,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_xp_ledger_player ON xp_ledger(player_id);
		CREATE INDEX IF NOT EXISTS idx_xp_ledger_player_game ON xp_ledger(player_id, game_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_xp_ledger_daily_gate
			ON xp_ledger(player_id, source, action_day) WHERE action_day IS NOT NULL;
	`)
	if err != nil {
		return fmt.Errorf("creating xp_ledger table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			icon          TEXT NOT NULL DEFAULT '',
			color         TEXT NOT NULL DEFAULT '',
			currency_name TEXT NOT NULL DEFAULT 'XP',
			frequency     TEXT NOT NULL DEFAULT 'standard',
			is_active     INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating games table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS staff (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating staff table: %w", err)
	}

	if err := db.seedGames(); err != nil {
		return fmt.Errorf("seeding games: %w", err)
	}

	return nil
}

// seedGames inserts the supported games catalog. INSERT OR IGNORE keeps
// operator edits (e.g. deactivating a game) intact across restarts.
func (db *DB) seedGames() error {
	seed := []struct {
		id, name, icon, color, currency, frequency string
	}{
		{"one_piece", "One Piece", "🏴‍☠️", "#ef4444", "Berries", "high"},
		{"pokemon", "Pokémon", "⚡", "#eab308", "Pokepoints", "standard"},
		{"mtg", "Magic: The Gathering", "✨", "#8b5cf6", "Mana Marks", "standard"},
		{"gundam", "Gundam", "🤖", "#3b82f6", "Pilot Points", "standard"},
		{"lorcana", "Lorcana", "🪄", "#a855f7", "Ink Points", "standard"},
		{"star_wars", "Star Wars Unlimited", "🌟", "#f59e0b", "Holopoints", "standard"},
		{"vanguard", "Vanguard", "⚔️", "#dc2626", "Ride Gauge", "standard"},
		{"yugioh", "Yu-Gi-Oh!", "🃏", "#7c3aed", "Duel Points", "standard"},
		{"digimon", "Digimon", "🦖", "#f97316", "Digi-Bits", "standard"},
	}

	for _, g := range seed {
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO games (id, name, icon, color, currency_name, frequency, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, 1)`,
			g.id, g.name, g.icon, g.color, g.currency, g.frequency,
		)
		if err != nil {
			return fmt.Errorf("inserting game %s: %w", g.id, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite doesn't export a typed constraint error, so we match
// the driver's message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
