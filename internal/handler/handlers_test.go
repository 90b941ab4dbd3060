package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/clock"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/random"
	"github.com/hyperbolichq/loyalty-api/internal/repository/sqlite"
	"github.com/hyperbolichq/loyalty-api/internal/service"
)

// testEnv wires real services over an in-memory database, mirroring the
// production dependency graph minus Redis and GitHub.
type testEnv struct {
	router  *chi.Mux
	db      *sqlite.DB
	tokens  *auth.TokenService
	players *service.PlayerService
	xp      *service.XPService
	clock   *clock.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	tokens, err := auth.NewTokenService("test-secret-key-with-enough-length")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	clk := clock.NewMock(time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC))
	rng := random.New()

	players := service.NewPlayerService(db, db, rng, logger)
	xp := service.NewXPService(db, db, db, nil, clk, rng, time.UTC, logger)
	community := service.NewCommunityService(db, db, nil, logger)

	playerHandler := NewPlayerHandler(players, logger)
	xpHandler := NewXPHandler(players, xp, logger)
	communityHandler := NewCommunityHandler(community, players, logger)

	router := chi.NewRouter()
	router.Get("/community/leaderboard", communityHandler.HandleLeaderboard)
	router.With(auth.OptionalPlayer(tokens)).Get("/player/{shortCode}", playerHandler.HandleGetProfile)
	router.Group(func(r chi.Router) {
		r.Use(auth.RequirePlayer(tokens))
		r.Get("/community/search", communityHandler.HandleSearch)
		r.Get("/player/by-identity", playerHandler.HandleGetOwnProfile)
		r.Post("/player/link", playerHandler.HandleLink)
		r.Get("/xp/checkin", xpHandler.HandleCheckInStatus)
		r.Post("/xp/checkin", xpHandler.HandleCheckIn)
		r.Post("/xp/daily-spin", xpHandler.HandleSpin)
	})

	return &testEnv{router: router, db: db, tokens: tokens, players: players, xp: xp, clock: clk}
}

// do performs a request, optionally authenticated as the given principal.
func (env *testEnv) do(t *testing.T, method, target, principal, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if principal != "" {
		token, err := env.tokens.Generate(principal, auth.AudiencePlayer, time.Hour)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		req.AddCookie(&http.Cookie{Name: auth.PlayerCookie, Value: token})
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createLinkedPlayer(t *testing.T, name, principal string) *model.Player {
	t.Helper()
	ctx := context.Background()

	player, err := env.players.Create(ctx, service.CreatePlayerInput{DisplayName: name})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if principal != "" {
		if _, err := env.players.Link(ctx, principal, service.LinkInput{
			Action:    service.LinkExisting,
			ShortCode: player.ShortCode,
		}); err != nil {
			t.Fatalf("Link() error = %v", err)
		}
	}
	return player
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

func TestHandleGetProfile(t *testing.T) {
	env := newTestEnv(t)
	player := env.createLinkedPlayer(t, "Luffy", "")

	_, err := env.xp.Append(context.Background(), service.AppendInput{
		PlayerID: player.ID, GameID: "one_piece", BaseXP: 250, Source: model.SourceMatchWin,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec := env.do(t, http.MethodGet, "/player/"+player.ShortCode, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	profile := decodeBody[model.Profile](t, rec)
	if profile.TotalXP != 250 || profile.Level != 3 {
		t.Errorf("profile total/level = %d/%d, want 250/3", profile.TotalXP, profile.Level)
	}
	if len(profile.Games) != 1 || profile.Games[0].Rank != "Paradise Pirate" {
		t.Errorf("games = %+v, want one_piece at Paradise Pirate", profile.Games)
	}
}

func TestHandleGetProfile_OwnerSeesGatedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	player := env.createLinkedPlayer(t, "Shy", "github:5")

	off := false
	if _, err := env.players.UpdatePrivacy(ctx, "github:5", service.PrivacyUpdate{
		ShowGames:    &off,
		ShowActivity: &off,
	}); err != nil {
		t.Fatalf("UpdatePrivacy() error = %v", err)
	}
	if _, err := env.xp.Append(ctx, service.AppendInput{
		PlayerID: player.ID, GameID: "pokemon", BaseXP: 40, Source: model.SourceMatchWin,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Anonymous viewers get the gated projection.
	rec := env.do(t, http.MethodGet, "/player/"+player.ShortCode, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	theirs := decodeBody[model.Profile](t, rec)
	if theirs.Games != nil || theirs.RecentActivity != nil {
		t.Error("gated fields leaked to an anonymous viewer")
	}

	// The owner's own token unlocks the page.
	rec = env.do(t, http.MethodGet, "/player/"+player.ShortCode, "github:5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	own := decodeBody[model.Profile](t, rec)
	if len(own.Games) != 1 {
		t.Errorf("owner view Games has %d entries, want 1", len(own.Games))
	}
	if len(own.RecentActivity) != 1 {
		t.Errorf("owner view RecentActivity has %d entries, want 1", len(own.RecentActivity))
	}
}

func TestHandleGetProfile_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/player/HYP-NOPE22", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Error != "not_found" {
		t.Errorf("error type = %q, want not_found", errResp.Error)
	}
}

func TestHandleSearch_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/community/search?q=luffy", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without a token", rec.Code)
	}
}

func TestHandleSearch_ShortQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/community/search?q=x", "github:1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a one-character query", rec.Code)
	}
}

func TestHandleLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createLinkedPlayer(t, "Ace", "")
	b := env.createLinkedPlayer(t, "Buggy", "")
	for playerID, amount := range map[string]int{a.ID: 300, b.ID: 100} {
		if _, err := env.xp.Append(ctx, service.AppendInput{
			PlayerID: playerID, GameID: "one_piece", BaseXP: amount, Source: model.SourceMatchWin,
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/community/leaderboard", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}](t, rec)
	if len(resp.Leaderboard) != 2 {
		t.Fatalf("leaderboard has %d entries, want 2", len(resp.Leaderboard))
	}
	if resp.Leaderboard[0].Name != "Ace" || resp.Leaderboard[0].Rank != 1 {
		t.Errorf("top entry = %+v, want Ace at rank 1", resp.Leaderboard[0])
	}
}

func TestHandleLink_CreateNewAndFetchOwnProfile(t *testing.T) {
	env := newTestEnv(t)

	body := `{"action":"create_new","displayName":"Fresh Signup"}`
	rec := env.do(t, http.MethodPost, "/player/link", "github:77", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("link status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/player/by-identity", "github:77", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("by-identity status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	profile := decodeBody[model.Profile](t, rec)
	if profile.DisplayName != "Fresh Signup" {
		t.Errorf("DisplayName = %q, want Fresh Signup", profile.DisplayName)
	}
}

func TestHandleCheckIn_ConflictOnSecondCall(t *testing.T) {
	env := newTestEnv(t)
	env.createLinkedPlayer(t, "Daily", "github:5")

	rec := env.do(t, http.MethodPost, "/xp/checkin", "github:5", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("first check-in status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	entry := decodeBody[model.LedgerEntry](t, rec)
	if entry.FinalXP != service.CheckInXP {
		t.Errorf("FinalXP = %d, want %d", entry.FinalXP, service.CheckInXP)
	}

	rec = env.do(t, http.MethodPost, "/xp/checkin", "github:5", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("second check-in status = %d, want 409", rec.Code)
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Error != "conflict" {
		t.Errorf("error type = %q, want conflict", errResp.Error)
	}

	// Status endpoint reflects the consumed gate.
	rec = env.do(t, http.MethodGet, "/xp/checkin", "github:5", "")
	status := decodeBody[service.DailyStatus](t, rec)
	if !status.PerformedToday {
		t.Error("PerformedToday = false after a check-in")
	}
}

func TestHandleSpin_ServerDrawAndGate(t *testing.T) {
	env := newTestEnv(t)
	env.createLinkedPlayer(t, "Spinner", "github:6")

	rec := env.do(t, http.MethodPost, "/xp/daily-spin", "github:6", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("spin status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[service.SpinResult](t, rec)
	if result.Outcome.Name == "" {
		t.Error("server draw produced an empty outcome")
	}

	rec = env.do(t, http.MethodPost, "/xp/daily-spin", "github:6", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("second spin status = %d, want 409", rec.Code)
	}
}

func TestHandleSpin_RejectsTamperedOutcome(t *testing.T) {
	env := newTestEnv(t)
	env.createLinkedPlayer(t, "Cheater", "github:8")

	body := `{"outcome":{"name":"MEGA","rarity":"legendary","xp":5000}}`
	rec := env.do(t, http.MethodPost, "/xp/daily-spin", "github:8", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("tampered spin status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}
