// Package service contains the business logic layer.
//
// Services accept primitives and domain types, never HTTP types, and
// return domain errors from the apperror package; the handler layer
// translates those to status codes. Each service takes its repository
// dependencies as interfaces so tests can substitute mocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/random"
	"github.com/hyperbolichq/loyalty-api/internal/rank"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// Short-code format: "HYP-" plus 6 characters from an alphabet that
// excludes 0, O, 1, I and L so codes stay unambiguous on printed cards.
const (
	ShortCodePrefix   = "HYP-"
	ShortCodeLength   = 6
	ShortCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// shortCodeRetries bounds collision retries during allocation. With a
	// 32-character alphabet and 6 positions the space is ~10^9 codes, so
	// exhausting the budget means something is seriously wrong; the
	// caller sees a conflict rather than a silent duplicate.
	shortCodeRetries = 10
)

const (
	MaxDisplayNameLength = 50
	maxRecentActivity    = 10
)

// PlayerService handles the player directory: creation with short-code
// allocation, identity linking, privacy settings, and profile projection.
type PlayerService struct {
	players repository.PlayerRepository
	ledger  repository.LedgerRepository
	rng     random.Random
	logger  *slog.Logger
}

func NewPlayerService(
	players repository.PlayerRepository,
	ledger repository.LedgerRepository,
	rng random.Random,
	logger *slog.Logger,
) *PlayerService {
	return &PlayerService{
		players: players,
		ledger:  ledger,
		rng:     rng,
		logger:  logger,
	}
}

// CreatePlayerInput carries the caller-settable player fields.
type CreatePlayerInput struct {
	DisplayName string
	RealName    string
	Email       string
	Phone       string
	Discord     string
	PrimaryGame string
	PassTier    model.PassTier
}

// Create registers a new player with a freshly allocated short code and
// default privacy settings. The identity link is established separately
// (either via Link or never, for POS-created players).
func (s *PlayerService) Create(ctx context.Context, input CreatePlayerInput) (*model.Player, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return nil, apperror.ValidationFailed("displayName", "display name is required")
	}
	if len(input.DisplayName) > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("displayName",
			fmt.Sprintf("display name must be %d characters or fewer", MaxDisplayNameLength))
	}

	tier := input.PassTier
	if tier == "" {
		tier = model.PassTierNone
	}

	// Allocate the short code with bounded retries. A collision surfaces
	// as a unique violation on insert; any other error aborts immediately.
	var created *model.Player
	for attempt := 0; attempt < shortCodeRetries; attempt++ {
		player := &model.Player{
			ShortCode:   ShortCodePrefix + s.rng.String(ShortCodeLength, ShortCodeAlphabet),
			DisplayName: input.DisplayName,
			RealName:    input.RealName,
			Email:       input.Email,
			Phone:       input.Phone,
			Discord:     input.Discord,
			Avatar:      model.DefaultAvatar(),
			PrimaryGame: input.PrimaryGame,
			PassTier:    tier,
			Privacy:     model.DefaultPrivacy(),
		}

		err := s.players.Create(ctx, player)
		if err == nil {
			created = player
			break
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/player: creating player: %w", err)
		}
		s.logger.Warn("short code collision, retrying",
			slog.String("shortCode", player.ShortCode),
			slog.Int("attempt", attempt+1),
		)
	}
	if created == nil {
		return nil, apperror.Conflict("could not allocate a unique player code")
	}

	s.logger.Info("player created",
		slog.String("playerID", created.ID),
		slog.String("shortCode", created.ShortCode),
	)

	return created, nil
}

// LinkAction selects what POST /player/link does.
type LinkAction string

const (
	LinkExisting LinkAction = "link_existing"
	LinkCreate   LinkAction = "create_new"
)

// LinkInput carries a link request. ShortCode is required for
// link_existing; NewPlayer is used for create_new.
type LinkInput struct {
	Action    LinkAction
	ShortCode string
	NewPlayer CreatePlayerInput
}

// Link attaches the authenticated principal to a player record: either an
// existing one looked up by short code (the card in the player's hand) or
// a brand-new self-service signup. At most one player may hold a given
// principal; the storage layer enforces that and the second attempt
// surfaces as a conflict.
func (s *PlayerService) Link(ctx context.Context, principal string, input LinkInput) (*model.Player, error) {
	if principal == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}

	// A principal holds at most one player. Checking up front keeps the
	// create_new path from allocating a player row that the link step
	// would then refuse.
	linked, err := s.players.GetByIdentity(ctx, principal)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/player: checking existing link: %w", err)
	}
	if linked != nil {
		if input.Action == LinkExisting &&
			linked.ShortCode == strings.ToUpper(strings.TrimSpace(input.ShortCode)) {
			// Re-linking the same card is a no-op.
			return linked, nil
		}
		return nil, apperror.Conflict("this account is already linked to a player")
	}

	switch input.Action {
	case LinkExisting:
		code := strings.ToUpper(strings.TrimSpace(input.ShortCode))
		if code == "" {
			return nil, apperror.ValidationFailed("shortCode", "player code is required")
		}
		player, err := s.players.GetByShortCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if player.IdentityID != "" && player.IdentityID != principal {
			return nil, apperror.Conflict("this player is already linked to another account")
		}
		if err := s.players.LinkIdentity(ctx, player.ID, principal); err != nil {
			return nil, err
		}
		player.IdentityID = principal

		s.logger.Info("player linked to identity", slog.String("playerID", player.ID))
		return player, nil

	case LinkCreate:
		player, err := s.Create(ctx, input.NewPlayer)
		if err != nil {
			return nil, err
		}
		if err := s.players.LinkIdentity(ctx, player.ID, principal); err != nil {
			return nil, err
		}
		player.IdentityID = principal
		return player, nil

	default:
		return nil, apperror.ValidationFailed("action", "action must be link_existing or create_new")
	}
}

// GetByPrincipal resolves the player linked to an identity principal.
func (s *PlayerService) GetByPrincipal(ctx context.Context, principal string) (*model.Player, error) {
	if principal == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}
	return s.players.GetByIdentity(ctx, principal)
}

// ProfileByShortCode builds the full profile projection for a player
// looked up by their public code. viewer is the calling principal when
// one is authenticated ("" for anonymous); the profile's owner sees
// their own page ungated.
func (s *PlayerService) ProfileByShortCode(ctx context.Context, shortCode, viewer string) (*model.Profile, error) {
	code := strings.ToUpper(strings.TrimSpace(shortCode))
	if code == "" {
		return nil, apperror.ValidationFailed("shortCode", "player code is required")
	}
	player, err := s.players.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	ownerView := viewer != "" && player.IdentityID == viewer
	return s.buildProfile(ctx, player, ownerView)
}

// ProfileByPrincipal builds the profile for the authenticated principal.
// Privacy display gates never apply to one's own profile.
func (s *PlayerService) ProfileByPrincipal(ctx context.Context, principal string) (*model.Profile, error) {
	player, err := s.GetByPrincipal(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, player, true)
}

// buildProfile assembles the profile: total XP, level, per-game progress
// with rank titles and currency labels, and recent ledger activity.
// ownerView skips the display gates.
func (s *PlayerService) buildProfile(ctx context.Context, player *model.Player, ownerView bool) (*model.Profile, error) {
	total, err := s.ledger.TotalXP(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("service/player: totalling XP for profile: %w", err)
	}

	summaries, err := s.ledger.XPByGame(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("service/player: aggregating games for profile: %w", err)
	}

	games := make([]model.GameProgress, 0, len(summaries))
	for _, summary := range summaries {
		games = append(games, model.GameProgress{
			GameXPSummary: summary,
			Rank:          rank.Rank(summary.GameID, summary.XP),
			Currency:      rank.CurrencyName(summary.GameID),
		})
	}

	activity, err := s.ledger.RecentActivity(ctx, player.ID, maxRecentActivity)
	if err != nil {
		return nil, fmt.Errorf("service/player: loading recent activity: %w", err)
	}

	profile := &model.Profile{
		ID:             player.ID,
		ShortCode:      player.ShortCode,
		DisplayName:    player.DisplayName,
		Discord:        player.Discord,
		Avatar:         player.Avatar,
		PassTier:       player.PassTier,
		TotalXP:        total,
		Level:          rank.Level(total),
		Games:          games,
		RecentActivity: activity,
		CreatedAt:      player.CreatedAt.Format("2006-01-02"),
	}
	if ownerView || player.Privacy.ShowRealName {
		profile.RealName = player.RealName
	}
	if !ownerView && !player.Privacy.ShowGames {
		profile.Games = nil
	}
	if !ownerView && !player.Privacy.ShowActivity {
		profile.RecentActivity = nil
	}

	return profile, nil
}

// PrivacyUpdate carries a partial privacy update; nil fields are left
// unchanged.
type PrivacyUpdate struct {
	ProfileVisibility   *model.Visibility `json:"profileVisibility"`
	ShowOnLeaderboard   *bool             `json:"showOnLeaderboard"`
	ShowAsAnonymous     *bool             `json:"showAsAnonymous"`
	AllowFriendRequests *bool             `json:"allowFriendRequests"`
	HideFromSearch      *bool             `json:"hideFromSearch"`
	ShowActivity        *bool             `json:"showActivity"`
	ShowGames           *bool             `json:"showGames"`
	ShowRealName        *bool             `json:"showRealName"`
}

// GetPrivacy returns the principal's current privacy flags.
func (s *PlayerService) GetPrivacy(ctx context.Context, principal string) (*model.PrivacySettings, error) {
	player, err := s.GetByPrincipal(ctx, principal)
	if err != nil {
		return nil, err
	}
	privacy := player.Privacy
	return &privacy, nil
}

// UpdatePrivacy applies a partial update to the principal's privacy flags.
func (s *PlayerService) UpdatePrivacy(ctx context.Context, principal string, update PrivacyUpdate) (*model.PrivacySettings, error) {
	player, err := s.GetByPrincipal(ctx, principal)
	if err != nil {
		return nil, err
	}

	privacy := player.Privacy
	if update.ProfileVisibility != nil {
		if !update.ProfileVisibility.Valid() {
			return nil, apperror.ValidationFailed("profileVisibility",
				"visibility must be public, friends, or private")
		}
		privacy.ProfileVisibility = *update.ProfileVisibility
	}
	if update.ShowOnLeaderboard != nil {
		privacy.ShowOnLeaderboard = *update.ShowOnLeaderboard
	}
	if update.ShowAsAnonymous != nil {
		privacy.ShowAsAnonymous = *update.ShowAsAnonymous
	}
	if update.AllowFriendRequests != nil {
		privacy.AllowFriendRequests = *update.AllowFriendRequests
	}
	if update.HideFromSearch != nil {
		privacy.HideFromSearch = *update.HideFromSearch
	}
	if update.ShowActivity != nil {
		privacy.ShowActivity = *update.ShowActivity
	}
	if update.ShowGames != nil {
		privacy.ShowGames = *update.ShowGames
	}
	if update.ShowRealName != nil {
		privacy.ShowRealName = *update.ShowRealName
	}

	if err := s.players.UpdatePrivacy(ctx, player.ID, privacy); err != nil {
		return nil, err
	}

	s.logger.Info("privacy settings updated", slog.String("playerID", player.ID))
	return &privacy, nil
}
