package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/cache"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/rank"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	MinSearchQueryLength = 2
	DefaultSearchLimit   = 20
	MaxSearchLimit       = 50
)

// CommunityService builds the privacy-filtered public views: the
// leaderboard and player search.
type CommunityService struct {
	players      repository.PlayerRepository
	ledger       repository.LedgerRepository
	leaderboards *cache.LeaderboardCache
	logger       *slog.Logger
}

func NewCommunityService(
	players repository.PlayerRepository,
	ledger repository.LedgerRepository,
	leaderboards *cache.LeaderboardCache,
	logger *slog.Logger,
) *CommunityService {
	return &CommunityService{
		players:      players,
		ledger:       ledger,
		leaderboards: leaderboards,
		logger:       logger,
	}
}

// Leaderboard returns the ranked public view, optionally filtered to one
// game. Players with show_on_leaderboard=false are dropped and the
// remaining rows re-ranked contiguously from 1; anonymous players keep
// their slot but are masked. Snapshots are cached; a stale read is bounded
// by the cache TTL.
func (s *CommunityService) Leaderboard(ctx context.Context, limit int, gameID string) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	gameID = strings.TrimSpace(gameID)

	if cached, err := s.leaderboards.Get(ctx, gameID); err == nil {
		if len(cached) >= limit {
			return cached[:limit], nil
		}
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		// Redis being down is not a reason to fail the read.
		s.logger.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
	}

	entries, err := s.buildLeaderboard(ctx, MaxLeaderboardLimit, gameID)
	if err != nil {
		return nil, err
	}

	if err := s.leaderboards.Set(ctx, gameID, entries); err != nil {
		s.logger.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *CommunityService) buildLeaderboard(ctx context.Context, limit int, gameID string) ([]model.LeaderboardEntry, error) {
	totals, err := s.ledger.LeaderboardTotals(ctx, limit, gameID)
	if err != nil {
		return nil, fmt.Errorf("service/community: loading leaderboard totals: %w", err)
	}

	ids := make([]string, len(totals))
	for i, t := range totals {
		ids[i] = t.PlayerID
	}
	players, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/community: loading leaderboard players: %w", err)
	}
	byID := make(map[string]*model.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	entries := make([]model.LeaderboardEntry, 0, len(totals))
	nextRank := 1
	for _, total := range totals {
		player, ok := byID[total.PlayerID]
		if !ok || !player.Privacy.ShowOnLeaderboard {
			continue
		}

		entry := model.LeaderboardEntry{
			Rank:      nextRank,
			ShortCode: player.ShortCode,
			Name:      player.DisplayName,
			Level:     rank.Level(total.TotalXP),
			TotalXP:   total.TotalXP,
			Avatar:    player.Avatar,
		}
		if player.Privacy.ShowAsAnonymous {
			entry.Name = "Anonymous"
			entry.Avatar = model.AnonymousAvatar()
			entry.Hidden = true
		}

		entries = append(entries, entry)
		nextRank++
	}

	return entries, nil
}

// Search finds players by display name or short code. The requester's own
// record and anyone with hide_from_search are excluded; level and XP are
// withheld for private and friends-only profiles. The friends tier is
// treated as private until a friends graph exists.
func (s *CommunityService) Search(ctx context.Context, query, requesterID string, limit int) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchQueryLength {
		return nil, apperror.ValidationFailed("q",
			fmt.Sprintf("search query must be at least %d characters", MinSearchQueryLength))
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	// Over-fetch by one so excluding the requester cannot shrink a full
	// page below the limit.
	matches, err := s.players.Search(ctx, query, limit+1)
	if err != nil {
		return nil, fmt.Errorf("service/community: searching players: %w", err)
	}

	filtered := make([]*model.Player, 0, len(matches))
	ids := make([]string, 0, len(matches))
	for i := range matches {
		if matches[i].ID == requesterID {
			continue
		}
		filtered = append(filtered, &matches[i])
		ids = append(ids, matches[i].ID)
		if len(filtered) == limit {
			break
		}
	}

	totals, err := s.ledger.TotalsForPlayers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/community: totalling search results: %w", err)
	}

	results := make([]model.SearchResult, 0, len(filtered))
	for _, player := range filtered {
		total := totals[player.ID]
		level := rank.Level(total)

		result := model.SearchResult{
			ShortCode:           player.ShortCode,
			Name:                player.DisplayName,
			Avatar:              player.Avatar,
			ProfileVisibility:   player.Privacy.ProfileVisibility,
			AllowFriendRequests: player.Privacy.AllowFriendRequests,
		}

		switch player.Privacy.ProfileVisibility {
		case model.VisibilityPrivate:
			result.Title = "???"
			result.Avatar = model.PrivateAvatar()
		case model.VisibilityFriends:
			// Without a friends graph the friends tier withholds the
			// same fields as private, avatar included.
			result.Title = "Friends Only"
			result.Avatar = model.PrivateAvatar()
		default:
			result.Title = fmt.Sprintf("Level %d", level)
			result.Level = &level
			totalCopy := total
			result.TotalXP = &totalCopy
		}

		results = append(results, result)
	}

	return results, nil
}
