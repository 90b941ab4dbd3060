package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/service"
	"github.com/hyperbolichq/loyalty-api/internal/spin"
)

// XPHandler serves the daily-gate endpoints. Both resolve the calling
// principal to their linked player first; an unlinked principal gets the
// not-found error from that lookup.
type XPHandler struct {
	players *service.PlayerService
	xp      *service.XPService
	logger  *slog.Logger
}

func NewXPHandler(players *service.PlayerService, xp *service.XPService, logger *slog.Logger) *XPHandler {
	return &XPHandler{players: players, xp: xp, logger: logger}
}

// resolvePlayer maps the authenticated principal to their player record.
func (h *XPHandler) resolvePlayer(r *http.Request) (*model.Player, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthenticated("authentication required")
	}
	return h.players.GetByPrincipal(r.Context(), principal)
}

// HandleCheckInStatus reports whether today's check-in was used.
//
// GET /xp/checkin
func (h *XPHandler) HandleCheckInStatus(w http.ResponseWriter, r *http.Request) {
	player, err := h.resolvePlayer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.xp.HasPerformedToday(r.Context(), player.ID, model.SourceCheckIn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleCheckIn performs the daily check-in.
//
// POST /xp/checkin
func (h *XPHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	player, err := h.resolvePlayer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.xp.CheckIn(r.Context(), player.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleSpinStatus reports whether today's spin was used.
//
// GET /xp/daily-spin
func (h *XPHandler) HandleSpinStatus(w http.ResponseWriter, r *http.Request) {
	player, err := h.resolvePlayer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.xp.HasPerformedToday(r.Context(), player.ID, model.SourceDailySpin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// spinRequest optionally carries a client-drawn outcome. An empty body
// (or empty outcome) asks the server to draw.
type spinRequest struct {
	Outcome *spin.Outcome `json:"outcome"`
}

// HandleSpin consumes the daily spin and records its outcome.
//
// POST /xp/daily-spin
func (h *XPHandler) HandleSpin(w http.ResponseWriter, r *http.Request) {
	player, err := h.resolvePlayer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req spinRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
			return
		}
	}

	result, err := h.xp.RecordSpin(r.Context(), player.ID, req.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// HandleListGames returns the active games catalog.
//
// GET /games
func (h *XPHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.xp.ListGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}
