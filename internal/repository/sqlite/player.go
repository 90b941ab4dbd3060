package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// compile-time check that *DB implements repository.PlayerRepository
var _ repository.PlayerRepository = (*DB)(nil)

const playerColumns = `id, short_code, display_name, real_name, email, phone, discord,
	avatar_base, avatar_background, avatar_frame, avatar_badge,
	identity_id, primary_game, pass_tier,
	privacy_profile_visibility, privacy_show_on_leaderboard, privacy_show_as_anonymous,
	privacy_allow_friend_requests, privacy_hide_from_search,
	privacy_show_activity, privacy_show_games, privacy_show_real_name,
	created_at`

// Create inserts a new player. The caller supplies the short code (the
// service owns allocation and retries); ID and CreatedAt are set here.
// A short-code or identity collision surfaces as a conflict so the
// service can retry with a fresh code.
func (db *DB) Create(ctx context.Context, player *model.Player) error {
	player.ID = xid.New().String()
	player.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO players (
			id, short_code, display_name, real_name, email, phone, discord,
			avatar_base, avatar_background, avatar_frame, avatar_badge,
			identity_id, primary_game, pass_tier,
			privacy_profile_visibility, privacy_show_on_leaderboard, privacy_show_as_anonymous,
			privacy_allow_friend_requests, privacy_hide_from_search,
			privacy_show_activity, privacy_show_games, privacy_show_real_name,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		player.ID, player.ShortCode, player.DisplayName, player.RealName,
		player.Email, player.Phone, player.Discord,
		player.Avatar.Base, player.Avatar.Background, player.Avatar.Frame, player.Avatar.Badge,
		player.IdentityID, player.PrimaryGame, string(player.PassTier),
		string(player.Privacy.ProfileVisibility), player.Privacy.ShowOnLeaderboard,
		player.Privacy.ShowAsAnonymous, player.Privacy.AllowFriendRequests,
		player.Privacy.HideFromSearch, player.Privacy.ShowActivity,
		player.Privacy.ShowGames, player.Privacy.ShowRealName,
		player.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("player with short code %s already exists", player.ShortCode))
		}
		return fmt.Errorf("sqlite: creating player: %w", err)
	}

	return nil
}

// scanPlayer reads one player row in playerColumns order.
func scanPlayer(row interface{ Scan(...any) error }) (*model.Player, error) {
	var p model.Player
	var passTier, visibility string
	err := row.Scan(
		&p.ID, &p.ShortCode, &p.DisplayName, &p.RealName, &p.Email, &p.Phone, &p.Discord,
		&p.Avatar.Base, &p.Avatar.Background, &p.Avatar.Frame, &p.Avatar.Badge,
		&p.IdentityID, &p.PrimaryGame, &passTier,
		&visibility, &p.Privacy.ShowOnLeaderboard, &p.Privacy.ShowAsAnonymous,
		&p.Privacy.AllowFriendRequests, &p.Privacy.HideFromSearch,
		&p.Privacy.ShowActivity, &p.Privacy.ShowGames, &p.Privacy.ShowRealName,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PassTier = model.PassTier(passTier)
	p.Privacy.ProfileVisibility = model.Visibility(visibility)
	return &p, nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Player, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)

	p, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("player", id)
		}
		return nil, fmt.Errorf("sqlite: getting player %s: %w", id, err)
	}
	return p, nil
}

func (db *DB) GetByShortCode(ctx context.Context, code string) (*model.Player, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE short_code = ?`, code)

	p, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("player", code)
		}
		return nil, fmt.Errorf("sqlite: getting player by short code %s: %w", code, err)
	}
	return p, nil
}

func (db *DB) GetByIdentity(ctx context.Context, identityID string) (*model.Player, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE identity_id = ? AND identity_id != ''`,
		identityID)

	p, err := scanPlayer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("player", identityID)
		}
		return nil, fmt.Errorf("sqlite: getting player by identity: %w", err)
	}
	return p, nil
}

// LinkIdentity attaches an identity principal to a player. The partial
// unique index on identity_id turns a double-link into a conflict.
func (db *DB) LinkIdentity(ctx context.Context, playerID, identityID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE players SET identity_id = ? WHERE id = ?`,
		identityID, playerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("this player is already linked to another account")
		}
		return fmt.Errorf("sqlite: linking identity to player %s: %w", playerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("player", playerID)
	}
	return nil
}

func (db *DB) UpdatePrivacy(ctx context.Context, playerID string, privacy model.PrivacySettings) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE players SET
			privacy_profile_visibility = ?,
			privacy_show_on_leaderboard = ?,
			privacy_show_as_anonymous = ?,
			privacy_allow_friend_requests = ?,
			privacy_hide_from_search = ?,
			privacy_show_activity = ?,
			privacy_show_games = ?,
			privacy_show_real_name = ?
		 WHERE id = ?`,
		string(privacy.ProfileVisibility), privacy.ShowOnLeaderboard,
		privacy.ShowAsAnonymous, privacy.AllowFriendRequests,
		privacy.HideFromSearch, privacy.ShowActivity,
		privacy.ShowGames, privacy.ShowRealName,
		playerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating privacy for player %s: %w", playerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("player", playerID)
	}
	return nil
}

// Search matches display name or short code case-insensitively. Players
// with hide_from_search set never appear; excluding the requester is the
// service's job (it knows who is asking).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]model.Player, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE (LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(short_code) LIKE ? ESCAPE '\')
		   AND privacy_hide_from_search = 0
		 ORDER BY display_name
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching players: %w", err)
	}
	defer rows.Close()

	players := make([]model.Player, 0, limit)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning player row: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating players: %w", err)
	}

	return players, nil
}

func (db *DB) GetByIDs(ctx context.Context, ids []string) ([]model.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting players by ids: %w", err)
	}
	defer rows.Close()

	players := make([]model.Player, 0, len(ids))
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning player row: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating players: %w", err)
	}

	return players, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text
// so a query of "%" or "_" matches those literal characters only.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
