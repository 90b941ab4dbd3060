package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/service"
)

// PlayerHandler serves profile, linking, and privacy endpoints.
type PlayerHandler struct {
	players *service.PlayerService
	logger  *slog.Logger
}

func NewPlayerHandler(players *service.PlayerService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{players: players, logger: logger}
}

// HandleGetProfile returns the full profile for a public short code. The
// route carries OptionalPlayer middleware, so an authenticated owner
// viewing their own page gets it ungated.
//
// GET /player/{shortCode}
func (h *PlayerHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.PrincipalFromContext(r.Context())
	profile, err := h.players.ProfileByShortCode(r.Context(), chi.URLParam(r, "shortCode"), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGetOwnProfile returns the profile linked to the calling principal.
//
// GET /player/by-identity
func (h *PlayerHandler) HandleGetOwnProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	profile, err := h.players.ProfileByPrincipal(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// linkRequest is the POST /player/link body. For create_new the player
// fields feed the new record; for link_existing only shortCode is read.
type linkRequest struct {
	Action      string         `json:"action"`
	ShortCode   string         `json:"shortCode"`
	DisplayName string         `json:"displayName"`
	RealName    string         `json:"realName"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Discord     string         `json:"discord"`
	PrimaryGame string         `json:"primaryGame"`
	PassTier    model.PassTier `json:"passTier"`
}

// HandleLink links the caller's identity to a player record.
//
// POST /player/link
func (h *PlayerHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	player, err := h.players.Link(r.Context(), principal, service.LinkInput{
		Action:    service.LinkAction(req.Action),
		ShortCode: req.ShortCode,
		NewPlayer: service.CreatePlayerInput{
			DisplayName: req.DisplayName,
			RealName:    req.RealName,
			Email:       req.Email,
			Phone:       req.Phone,
			Discord:     req.Discord,
			PrimaryGame: req.PrimaryGame,
			PassTier:    req.PassTier,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, player)
}

// HandleGetPrivacy returns the caller's privacy flags.
//
// GET /player/privacy
func (h *PlayerHandler) HandleGetPrivacy(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	privacy, err := h.players.GetPrivacy(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, privacy)
}

// HandleUpdatePrivacy applies a partial privacy update. Absent fields
// keep their current value.
//
// POST /player/privacy
func (h *PlayerHandler) HandleUpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	var update service.PrivacyUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	privacy, err := h.players.UpdatePrivacy(r.Context(), principal, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, privacy)
}
