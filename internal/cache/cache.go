// Package cache provides a Redis-backed read cache for the leaderboard.
// The ledger stays the source of truth; cached snapshots may lag writes
// by up to the configured TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyperbolichq/loyalty-api/internal/model"
)

// DefaultTTL bounds leaderboard staleness.
const DefaultTTL = 30 * time.Second

// ErrMiss is returned when no snapshot is cached for the requested key.
var ErrMiss = errors.New("cache: miss")

// LeaderboardCache stores rendered leaderboard snapshots keyed by game
// filter. A nil *LeaderboardCache is valid and behaves as a pass-through
// (every Get misses, every Set is a no-op), so callers never branch on
// whether Redis is configured.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr and verifies the connection.
func New(addr string) (*LeaderboardCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", addr, err)
	}

	return &LeaderboardCache{client: client, ttl: DefaultTTL}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func leaderboardKey(gameID string) string {
	if gameID == "" {
		return "leaderboard:overall"
	}
	return "leaderboard:game:" + gameID
}

// Get returns the cached snapshot for the game filter ("" = overall).
// Returns ErrMiss when absent or expired; any other error means Redis
// itself failed and the caller should fall back to the ledger.
func (c *LeaderboardCache) Get(ctx context.Context, gameID string) ([]model.LeaderboardEntry, error) {
	if c == nil {
		return nil, ErrMiss
	}

	data, err := c.client.Get(ctx, leaderboardKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: reading leaderboard snapshot: %w", err)
	}

	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt snapshot is treated as a miss so the caller rebuilds it.
		return nil, ErrMiss
	}
	return entries, nil
}

// Set stores a snapshot with the cache TTL.
func (c *LeaderboardCache) Set(ctx context.Context, gameID string, entries []model.LeaderboardEntry) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache: marshalling leaderboard snapshot: %w", err)
	}
	if err := c.client.Set(ctx, leaderboardKey(gameID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: writing leaderboard snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the overall snapshot plus the given game's snapshot.
// Called after XP writes so the next read rebuilds from the ledger.
func (c *LeaderboardCache) Invalidate(ctx context.Context, gameID string) error {
	if c == nil {
		return nil
	}

	keys := []string{leaderboardKey("")}
	if gameID != "" && gameID != model.GeneralGameID {
		keys = append(keys, leaderboardKey(gameID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidating leaderboard snapshots: %w", err)
	}
	return nil
}
