package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// compile-time check that *DB implements repository.LedgerRepository
var _ repository.LedgerRepository = (*DB)(nil)

// Append inserts one immutable ledger entry. There is no update or delete
// path for xp_ledger anywhere in this package; the ledger is append-only.
func (db *DB) Append(ctx context.Context, entry *model.LedgerEntry) error {
	return db.insertEntry(ctx, entry, nil)
}

// AppendDaily inserts a daily-gated entry. The unique index on
// (player_id, source, action_day) makes the second writer of the day fail;
// that failure is returned as the canonical already-performed conflict.
func (db *DB) AppendDaily(ctx context.Context, entry *model.LedgerEntry, day string) error {
	return db.insertEntry(ctx, entry, &day)
}

func (db *DB) insertEntry(ctx context.Context, entry *model.LedgerEntry, day *string) error {
	entry.ID = xid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.GameID == "" {
		entry.GameID = model.GeneralGameID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO xp_ledger (
			id, player_id, game_id, base_xp, multiplier, final_xp,
			source, description, awarded_by, action_day, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.PlayerID, entry.GameID,
		entry.BaseXP, entry.Multiplier, entry.FinalXP,
		string(entry.Source), entry.Description, entry.AwardedBy,
		day, entry.CreatedAt,
	)
	if err != nil {
		if day != nil && isUniqueViolation(err) {
			return apperror.AlreadyPerformed(string(entry.Source))
		}
		return fmt.Errorf("sqlite: appending ledger entry: %w", err)
	}

	return nil
}

func (db *DB) HasEntrySince(ctx context.Context, playerID string, source model.XPSource, since time.Time) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM xp_ledger
		 WHERE player_id = ? AND source = ? AND created_at >= ?`,
		playerID, string(source), since,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking entries since %s: %w", since, err)
	}
	return count > 0, nil
}

// TotalXP sums final_xp across every entry for the player, including the
// "general" bucket. final_xp is authoritative; it is never recomputed
// from base and multiplier at read time.
func (db *DB) TotalXP(ctx context.Context, playerID string) (int, error) {
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(final_xp), 0) FROM xp_ledger WHERE player_id = ?`,
		playerID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sqlite: totalling XP for player %s: %w", playerID, err)
	}
	return total, nil
}

// XPByGame aggregates per-game XP plus win and event-attendance counts.
// Entries in the "general" bucket are excluded here (they still count in
// TotalXP).
func (db *DB) XPByGame(ctx context.Context, playerID string) ([]model.GameXPSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT game_id,
		        COALESCE(SUM(final_xp), 0),
		        SUM(CASE WHEN source = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN source = ? THEN 1 ELSE 0 END)
		 FROM xp_ledger
		 WHERE player_id = ? AND game_id != ?
		 GROUP BY game_id
		 ORDER BY SUM(final_xp) DESC`,
		string(model.SourceMatchWin), string(model.SourceEventAttendance),
		playerID, model.GeneralGameID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating XP by game for player %s: %w", playerID, err)
	}
	defer rows.Close()

	var summaries []model.GameXPSummary
	for rows.Next() {
		var s model.GameXPSummary
		if err := rows.Scan(&s.GameID, &s.XP, &s.Wins, &s.Events); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game XP row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating game XP rows: %w", err)
	}

	return summaries, nil
}

func (db *DB) TotalsForPlayers(ctx context.Context, playerIDs []string) (map[string]int, error) {
	totals := make(map[string]int, len(playerIDs))
	if len(playerIDs) == 0 {
		return totals, nil
	}

	placeholders := strings.Repeat("?,", len(playerIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT player_id, COALESCE(SUM(final_xp), 0)
		 FROM xp_ledger
		 WHERE player_id IN (`+placeholders+`)
		 GROUP BY player_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: totalling XP for players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("sqlite: scanning player total: %w", err)
		}
		totals[id] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating player totals: %w", err)
	}

	return totals, nil
}

// LeaderboardTotals returns the top summed totals, descending. Ties break
// by player creation time, earlier joiners first, so repeated reads are
// deterministic.
func (db *DB) LeaderboardTotals(ctx context.Context, limit int, gameID string) ([]repository.PlayerTotal, error) {
	q := `SELECT l.player_id, COALESCE(SUM(l.final_xp), 0) AS total
	      FROM xp_ledger l
	      JOIN players p ON p.id = l.player_id`
	args := []any{}
	if gameID != "" {
		q += ` WHERE l.game_id = ?`
		args = append(args, gameID)
	}
	q += ` GROUP BY l.player_id
	       ORDER BY total DESC, MIN(p.created_at) ASC
	       LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard totals: %w", err)
	}
	defer rows.Close()

	totals := make([]repository.PlayerTotal, 0, limit)
	for rows.Next() {
		var t repository.PlayerTotal
		if err := rows.Scan(&t.PlayerID, &t.TotalXP); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard totals: %w", err)
	}

	return totals, nil
}

func (db *DB) RecentActivity(ctx context.Context, playerID string, limit int) ([]model.LedgerEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, player_id, game_id, base_xp, multiplier, final_xp,
		        source, description, awarded_by, created_at
		 FROM xp_ledger
		 WHERE player_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent activity for player %s: %w", playerID, err)
	}
	defer rows.Close()

	entries := make([]model.LedgerEntry, 0, limit)
	for rows.Next() {
		var e model.LedgerEntry
		var source string
		if err := rows.Scan(
			&e.ID, &e.PlayerID, &e.GameID, &e.BaseXP, &e.Multiplier, &e.FinalXP,
			&source, &e.Description, &e.AwardedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ledger entry: %w", err)
		}
		e.Source = model.XPSource(source)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ledger entries: %w", err)
	}

	return entries, nil
}
