// Package repository defines the storage interfaces consumed by the
// service layer. The sqlite subpackage provides the concrete
// implementation; tests substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/hyperbolichq/loyalty-api/internal/model"
)

// PlayerTotal pairs a player with their summed ledger XP, ordered for
// leaderboard use.
type PlayerTotal struct {
	PlayerID string
	TotalXP  int
}

// PlayerRepository manages the player directory.
type PlayerRepository interface {
	Create(ctx context.Context, player *model.Player) error
	GetByID(ctx context.Context, id string) (*model.Player, error)
	GetByShortCode(ctx context.Context, code string) (*model.Player, error)
	// GetByIdentity looks up the player linked to an external identity
	// principal. Returns apperror.ErrNotFound when no player is linked.
	GetByIdentity(ctx context.Context, identityID string) (*model.Player, error)
	// LinkIdentity attaches an external identity principal to a player.
	// Fails with a conflict if the principal is already linked elsewhere.
	LinkIdentity(ctx context.Context, playerID, identityID string) error
	UpdatePrivacy(ctx context.Context, playerID string, privacy model.PrivacySettings) error
	// Search matches display name or short code case-insensitively,
	// excluding players with hide_from_search set.
	Search(ctx context.Context, query string, limit int) ([]model.Player, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Player, error)
}

// LedgerRepository manages the append-only XP ledger and its aggregates.
type LedgerRepository interface {
	// Append inserts one immutable entry. The entry's ID and CreatedAt
	// are assigned here.
	Append(ctx context.Context, entry *model.LedgerEntry) error
	// AppendDaily inserts an entry tagged with a calendar day, enforcing
	// at most one entry per (player, source, day) at the storage layer.
	// The second writer of the day fails with a conflict.
	AppendDaily(ctx context.Context, entry *model.LedgerEntry, day string) error
	// HasEntrySince reports whether the player has an entry with the given
	// source created at or after the given instant.
	HasEntrySince(ctx context.Context, playerID string, source model.XPSource, since time.Time) (bool, error)
	TotalXP(ctx context.Context, playerID string) (int, error)
	// XPByGame aggregates per-game XP plus win/event counts, excluding the
	// "general" bucket.
	XPByGame(ctx context.Context, playerID string) ([]model.GameXPSummary, error)
	TotalsForPlayers(ctx context.Context, playerIDs []string) (map[string]int, error)
	// LeaderboardTotals returns the top totals, optionally filtered to one
	// game ("" = all), descending by XP with ties broken by player
	// creation time (earlier joiners first).
	LeaderboardTotals(ctx context.Context, limit int, gameID string) ([]PlayerTotal, error)
	RecentActivity(ctx context.Context, playerID string, limit int) ([]model.LedgerEntry, error)
}

// GameRepository reads the games catalog.
type GameRepository interface {
	ListGames(ctx context.Context, activeOnly bool) ([]model.Game, error)
	GetGameByID(ctx context.Context, id string) (*model.Game, error)
}

// StaffRepository manages staff accounts.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff *model.StaffAccount) error
	GetStaffByEmail(ctx context.Context, email string) (*model.StaffAccount, error)
	GetStaffByID(ctx context.Context, id string) (*model.StaffAccount, error)
}
