package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// In-memory mocks for the repository interfaces. They mirror the
// semantics the sqlite package provides (unique constraints, not-found
// errors) so service tests exercise the same error paths.

type mockPlayerRepo struct {
	players map[string]*model.Player
	nextID  int
}

var _ repository.PlayerRepository = (*mockPlayerRepo)(nil)

func newMockPlayerRepo() *mockPlayerRepo {
	return &mockPlayerRepo{players: make(map[string]*model.Player)}
}

func (m *mockPlayerRepo) Create(_ context.Context, player *model.Player) error {
	for _, existing := range m.players {
		if existing.ShortCode == player.ShortCode {
			return apperror.Conflict("a player with this code already exists")
		}
	}
	m.nextID++
	player.ID = fmt.Sprintf("player-%d", m.nextID)
	player.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	stored := *player
	m.players[player.ID] = &stored
	return nil
}

func (m *mockPlayerRepo) GetByID(_ context.Context, id string) (*model.Player, error) {
	player, ok := m.players[id]
	if !ok {
		return nil, apperror.NotFound("player", id)
	}
	result := *player
	return &result, nil
}

func (m *mockPlayerRepo) GetByShortCode(_ context.Context, code string) (*model.Player, error) {
	for _, player := range m.players {
		if player.ShortCode == code {
			result := *player
			return &result, nil
		}
	}
	return nil, apperror.NotFound("player", code)
}

func (m *mockPlayerRepo) GetByIdentity(_ context.Context, identityID string) (*model.Player, error) {
	if identityID != "" {
		for _, player := range m.players {
			if player.IdentityID == identityID {
				result := *player
				return &result, nil
			}
		}
	}
	return nil, apperror.NotFound("player", identityID)
}

func (m *mockPlayerRepo) LinkIdentity(_ context.Context, playerID, identityID string) error {
	for id, player := range m.players {
		if player.IdentityID == identityID && id != playerID {
			return apperror.Conflict("this player is already linked to another account")
		}
	}
	player, ok := m.players[playerID]
	if !ok {
		return apperror.NotFound("player", playerID)
	}
	player.IdentityID = identityID
	return nil
}

func (m *mockPlayerRepo) UpdatePrivacy(_ context.Context, playerID string, privacy model.PrivacySettings) error {
	player, ok := m.players[playerID]
	if !ok {
		return apperror.NotFound("player", playerID)
	}
	player.Privacy = privacy
	return nil
}

func (m *mockPlayerRepo) Search(_ context.Context, query string, limit int) ([]model.Player, error) {
	q := strings.ToLower(query)
	var results []model.Player
	for _, player := range m.players {
		if player.Privacy.HideFromSearch {
			continue
		}
		if strings.Contains(strings.ToLower(player.DisplayName), q) ||
			strings.Contains(strings.ToLower(player.ShortCode), q) {
			results = append(results, *player)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *mockPlayerRepo) GetByIDs(_ context.Context, ids []string) ([]model.Player, error) {
	results := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		if player, ok := m.players[id]; ok {
			results = append(results, *player)
		}
	}
	return results, nil
}

type mockLedgerRepo struct {
	entries []model.LedgerEntry
	daily   map[string]bool
	nextID  int
}

var _ repository.LedgerRepository = (*mockLedgerRepo)(nil)

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{daily: make(map[string]bool)}
}

func (m *mockLedgerRepo) Append(_ context.Context, entry *model.LedgerEntry) error {
	m.nextID++
	entry.ID = fmt.Sprintf("entry-%d", m.nextID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.GameID == "" {
		entry.GameID = model.GeneralGameID
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLedgerRepo) AppendDaily(ctx context.Context, entry *model.LedgerEntry, day string) error {
	key := entry.PlayerID + "|" + string(entry.Source) + "|" + day
	if m.daily[key] {
		return apperror.AlreadyPerformed(string(entry.Source))
	}
	if err := m.Append(ctx, entry); err != nil {
		return err
	}
	m.daily[key] = true
	return nil
}

func (m *mockLedgerRepo) HasEntrySince(_ context.Context, playerID string, source model.XPSource, since time.Time) (bool, error) {
	for _, e := range m.entries {
		if e.PlayerID == playerID && e.Source == source && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLedgerRepo) TotalXP(_ context.Context, playerID string) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.PlayerID == playerID {
			total += e.FinalXP
		}
	}
	return total, nil
}

func (m *mockLedgerRepo) XPByGame(_ context.Context, playerID string) ([]model.GameXPSummary, error) {
	byGame := make(map[string]*model.GameXPSummary)
	for _, e := range m.entries {
		if e.PlayerID != playerID || e.GameID == model.GeneralGameID {
			continue
		}
		s, ok := byGame[e.GameID]
		if !ok {
			s = &model.GameXPSummary{GameID: e.GameID}
			byGame[e.GameID] = s
		}
		s.XP += e.FinalXP
		if e.Source == model.SourceMatchWin {
			s.Wins++
		}
		if e.Source == model.SourceEventAttendance {
			s.Events++
		}
	}

	summaries := make([]model.GameXPSummary, 0, len(byGame))
	for _, s := range byGame {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].XP > summaries[j].XP })
	return summaries, nil
}

func (m *mockLedgerRepo) TotalsForPlayers(ctx context.Context, playerIDs []string) (map[string]int, error) {
	totals := make(map[string]int)
	for _, id := range playerIDs {
		total, _ := m.TotalXP(ctx, id)
		if total != 0 {
			totals[id] = total
		}
	}
	return totals, nil
}

func (m *mockLedgerRepo) LeaderboardTotals(_ context.Context, limit int, gameID string) ([]repository.PlayerTotal, error) {
	byPlayer := make(map[string]int)
	order := []string{}
	for _, e := range m.entries {
		if gameID != "" && e.GameID != gameID {
			continue
		}
		if _, seen := byPlayer[e.PlayerID]; !seen {
			order = append(order, e.PlayerID)
		}
		byPlayer[e.PlayerID] += e.FinalXP
	}

	totals := make([]repository.PlayerTotal, 0, len(byPlayer))
	for _, id := range order {
		totals = append(totals, repository.PlayerTotal{PlayerID: id, TotalXP: byPlayer[id]})
	}
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].TotalXP > totals[j].TotalXP })
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

func (m *mockLedgerRepo) RecentActivity(_ context.Context, playerID string, limit int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for _, e := range m.entries {
		if e.PlayerID == playerID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type mockGameRepo struct {
	games map[string]*model.Game
}

var _ repository.GameRepository = (*mockGameRepo)(nil)

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games: map[string]*model.Game{
			"one_piece": {ID: "one_piece", Name: "One Piece Card Game", Frequency: model.FrequencyHigh, IsActive: true},
			"pokemon":   {ID: "pokemon", Name: "Pokemon TCG", Frequency: model.FrequencyStandard, IsActive: true},
			"mtg":       {ID: "mtg", Name: "Magic: The Gathering", Frequency: model.FrequencyStandard, IsActive: true},
		},
	}
}

func (m *mockGameRepo) ListGames(_ context.Context, activeOnly bool) ([]model.Game, error) {
	games := make([]model.Game, 0, len(m.games))
	for _, g := range m.games {
		if activeOnly && !g.IsActive {
			continue
		}
		games = append(games, *g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (m *mockGameRepo) GetGameByID(_ context.Context, id string) (*model.Game, error) {
	game, ok := m.games[id]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	result := *game
	return &result, nil
}

type mockStaffRepo struct {
	staff  map[string]*model.StaffAccount
	nextID int
}

var _ repository.StaffRepository = (*mockStaffRepo)(nil)

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[string]*model.StaffAccount)}
}

func (m *mockStaffRepo) CreateStaff(_ context.Context, staff *model.StaffAccount) error {
	for _, existing := range m.staff {
		if existing.Email == staff.Email {
			return apperror.Conflict("a staff account with this email already exists")
		}
	}
	m.nextID++
	staff.ID = fmt.Sprintf("staff-%d", m.nextID)
	staff.CreatedAt = time.Now()
	stored := *staff
	m.staff[staff.ID] = &stored
	return nil
}

func (m *mockStaffRepo) GetStaffByEmail(_ context.Context, email string) (*model.StaffAccount, error) {
	for _, staff := range m.staff {
		if staff.Email == email {
			result := *staff
			return &result, nil
		}
	}
	return nil, apperror.NotFound("staff", email)
}

func (m *mockStaffRepo) GetStaffByID(_ context.Context, id string) (*model.StaffAccount, error) {
	staff, ok := m.staff[id]
	if !ok {
		return nil, apperror.NotFound("staff", id)
	}
	result := *staff
	return &result, nil
}

// testLogger discards everything below error so test output stays quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// must fails the test on error. Keeps the arrange sections short.
func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
