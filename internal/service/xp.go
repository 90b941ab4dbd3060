package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/cache"
	"github.com/hyperbolichq/loyalty-api/internal/clock"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/random"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
	"github.com/hyperbolichq/loyalty-api/internal/spin"
)

// CheckInXP is the flat reward for a daily check-in.
const CheckInXP = 20

// actionDayFormat is the calendar-day key stored with daily-gated
// entries. Days are computed in the store's configured time zone.
const actionDayFormat = "2006-01-02"

// XPService owns the ledger write path and the daily gate.
type XPService struct {
	players repository.PlayerRepository
	ledger  repository.LedgerRepository
	games   repository.GameRepository
	cache   *cache.LeaderboardCache
	clock   clock.Clock
	rng     random.Random
	tz      *time.Location
	logger  *slog.Logger
}

func NewXPService(
	players repository.PlayerRepository,
	ledger repository.LedgerRepository,
	games repository.GameRepository,
	leaderboards *cache.LeaderboardCache,
	clk clock.Clock,
	rng random.Random,
	tz *time.Location,
	logger *slog.Logger,
) *XPService {
	if tz == nil {
		tz = time.UTC
	}
	return &XPService{
		players: players,
		ledger:  ledger,
		games:   games,
		cache:   leaderboards,
		clock:   clk,
		rng:     rng,
		tz:      tz,
		logger:  logger,
	}
}

// AppendInput carries one XP award. Multiplier defaults to 1.0.
// FinalXP, when non-nil, overrides the computed round(base * multiplier);
// the stored final value is always authoritative for aggregation.
type AppendInput struct {
	PlayerID    string
	GameID      string
	BaseXP      int
	Multiplier  float64
	FinalXP     *int
	Source      model.XPSource
	Description string
	AwardedBy   string
}

// Append validates and writes one ledger entry.
func (s *XPService) Append(ctx context.Context, input AppendInput) (*model.LedgerEntry, error) {
	if input.BaseXP < 0 {
		return nil, apperror.ValidationFailed("baseXp", "base XP must not be negative")
	}
	if !input.Source.Valid() {
		return nil, apperror.ValidationFailed("source",
			fmt.Sprintf("unknown XP source %q", input.Source))
	}
	if input.Multiplier == 0 {
		input.Multiplier = 1.0
	}
	if input.Multiplier < 0 {
		return nil, apperror.ValidationFailed("multiplier", "multiplier must not be negative")
	}

	// The player must exist; a dangling ledger row would corrupt totals.
	if _, err := s.players.GetByID(ctx, input.PlayerID); err != nil {
		return nil, err
	}

	gameID := strings.TrimSpace(input.GameID)
	if gameID != "" && gameID != model.GeneralGameID {
		if _, err := s.games.GetGameByID(ctx, gameID); err != nil {
			return nil, err
		}
	}

	final := int(math.Round(float64(input.BaseXP) * input.Multiplier))
	if input.FinalXP != nil {
		if *input.FinalXP < 0 {
			return nil, apperror.ValidationFailed("finalXp", "final XP must not be negative")
		}
		final = *input.FinalXP
	}

	entry := &model.LedgerEntry{
		PlayerID:    input.PlayerID,
		GameID:      gameID,
		BaseXP:      input.BaseXP,
		Multiplier:  input.Multiplier,
		FinalXP:     final,
		Source:      input.Source,
		Description: input.Description,
		AwardedBy:   input.AwardedBy,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.invalidateLeaderboards(ctx, entry.GameID)

	s.logger.Info("xp awarded",
		slog.String("playerID", entry.PlayerID),
		slog.String("source", string(entry.Source)),
		slog.Int("finalXp", entry.FinalXP),
	)

	return entry, nil
}

// DailyStatus reports whether a daily-gated action was already used today.
type DailyStatus struct {
	PerformedToday bool   `json:"performedToday"`
	Day            string `json:"day"`
}

// HasPerformedToday checks the gate for one action kind without writing.
// "Today" is the half-open interval from local midnight in the configured
// time zone.
func (s *XPService) HasPerformedToday(ctx context.Context, playerID string, source model.XPSource) (*DailyStatus, error) {
	if source != model.SourceCheckIn && source != model.SourceDailySpin {
		return nil, apperror.ValidationFailed("action", "action must be check_in or daily_spin")
	}

	now := s.clock.Now().In(s.tz)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.tz)

	performed, err := s.ledger.HasEntrySince(ctx, playerID, source, start)
	if err != nil {
		return nil, err
	}

	return &DailyStatus{
		PerformedToday: performed,
		Day:            now.Format(actionDayFormat),
	}, nil
}

// CheckIn awards the flat daily check-in reward. The storage-level
// uniqueness on (player, source, day) makes this safe under concurrent
// requests: the second writer of the day gets the already-performed
// conflict and no entry.
func (s *XPService) CheckIn(ctx context.Context, playerID string) (*model.LedgerEntry, error) {
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return nil, err
	}

	now := s.clock.Now().In(s.tz)
	entry := &model.LedgerEntry{
		PlayerID:    playerID,
		BaseXP:      CheckInXP,
		Multiplier:  1.0,
		FinalXP:     CheckInXP,
		Source:      model.SourceCheckIn,
		Description: "Daily check-in",
		CreatedAt:   now,
	}
	if err := s.ledger.AppendDaily(ctx, entry, now.Format(actionDayFormat)); err != nil {
		return nil, err
	}

	s.invalidateLeaderboards(ctx, "")

	s.logger.Info("daily check-in", slog.String("playerID", playerID))
	return entry, nil
}

// SpinResult bundles the drawn outcome with its ledger entry.
type SpinResult struct {
	Outcome spin.Outcome       `json:"outcome"`
	Entry   *model.LedgerEntry `json:"entry"`
}

// RecordSpin consumes the player's daily spin. When clientOutcome is nil
// the draw happens server-side; a client-submitted outcome is accepted for
// display continuity but only after a bounds check on its XP value, so a
// tampered client caps out at the table maximum.
func (s *XPService) RecordSpin(ctx context.Context, playerID string, clientOutcome *spin.Outcome) (*SpinResult, error) {
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return nil, err
	}

	var outcome spin.Outcome
	if clientOutcome != nil {
		if !spin.ValidXP(clientOutcome.XP) {
			return nil, apperror.ValidationFailed("xp",
				fmt.Sprintf("spin XP must be between 0 and %d", spin.MaxXP))
		}
		outcome = *clientOutcome
	} else {
		outcome = spin.Draw(s.rng)
	}

	now := s.clock.Now().In(s.tz)
	// Zero-XP prizes still write an entry: the row is what marks the
	// day's spin as used.
	entry := &model.LedgerEntry{
		PlayerID:    playerID,
		BaseXP:      outcome.XP,
		Multiplier:  1.0,
		FinalXP:     outcome.XP,
		Source:      model.SourceDailySpin,
		Description: fmt.Sprintf("Daily spin: %s", outcome.Name),
		CreatedAt:   now,
	}
	if err := s.ledger.AppendDaily(ctx, entry, now.Format(actionDayFormat)); err != nil {
		return nil, err
	}

	if outcome.XP > 0 {
		s.invalidateLeaderboards(ctx, "")
	}

	s.logger.Info("daily spin recorded",
		slog.String("playerID", playerID),
		slog.String("outcome", outcome.Name),
		slog.Int("xp", outcome.XP),
	)

	return &SpinResult{Outcome: outcome, Entry: entry}, nil
}

// invalidateLeaderboards drops cached snapshots after a write. Cache
// failures only shorten the staleness window, so they are logged and
// swallowed.
func (s *XPService) invalidateLeaderboards(ctx context.Context, gameID string) {
	if err := s.cache.Invalidate(ctx, gameID); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", slog.String("error", err.Error()))
	}
}

// ListGames returns the active games catalog.
func (s *XPService) ListGames(ctx context.Context) ([]model.Game, error) {
	games, err := s.games.ListGames(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}
