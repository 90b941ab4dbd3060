package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/service"
)

// CommunityHandler serves the public leaderboard and player search.
type CommunityHandler struct {
	community *service.CommunityService
	players   *service.PlayerService
	logger    *slog.Logger
}

func NewCommunityHandler(community *service.CommunityService, players *service.PlayerService, logger *slog.Logger) *CommunityHandler {
	return &CommunityHandler{community: community, players: players, logger: logger}
}

// HandleLeaderboard returns the ranked public view.
//
// GET /community/leaderboard?limit=&game=
func (h *CommunityHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	game := r.URL.Query().Get("game")

	entries, err := h.community.Leaderboard(r.Context(), limit, game)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

// HandleSearch finds players by name or code. The caller's own linked
// player is excluded from results.
//
// GET /community/search?q=&limit=
func (h *CommunityHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	// An authenticated but not-yet-linked principal may still search;
	// there is just no own record to exclude.
	requesterID := ""
	if player, err := h.players.GetByPrincipal(r.Context(), principal); err == nil {
		requesterID = player.ID
	} else if !errors.Is(err, apperror.ErrNotFound) {
		writeError(w, err)
		return
	}

	results, err := h.community.Search(r.Context(), r.URL.Query().Get("q"), requesterID, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// parseLimit reads an optional limit parameter; 0 means "use the
// service default". Garbage also falls back to the default rather than
// failing the request.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
