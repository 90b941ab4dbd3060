package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/service"
)

// StaffHandler serves staff login and the POS-side operations: creating
// players at the register and awarding XP manually.
type StaffHandler struct {
	staff   *service.StaffService
	players *service.PlayerService
	xp      *service.XPService
	logger  *slog.Logger
}

func NewStaffHandler(
	staff *service.StaffService,
	players *service.PlayerService,
	xp *service.XPService,
	logger *slog.Logger,
) *StaffHandler {
	return &StaffHandler{staff: staff, players: players, xp: xp, logger: logger}
}

type staffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates a staff member and sets the staff cookie.
//
// POST /staff/login
func (h *StaffHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req staffLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.staff.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StaffCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.StaffTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, result.Staff)
}

type createPlayerRequest struct {
	DisplayName string         `json:"displayName"`
	RealName    string         `json:"realName"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Discord     string         `json:"discord"`
	PrimaryGame string         `json:"primaryGame"`
	PassTier    model.PassTier `json:"passTier"`
}

// HandleCreatePlayer registers a player at point of sale. The new record
// has no linked identity; the player links later from their own device.
//
// POST /staff/players
func (h *StaffHandler) HandleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	player, err := h.players.Create(r.Context(), service.CreatePlayerInput{
		DisplayName: req.DisplayName,
		RealName:    req.RealName,
		Email:       req.Email,
		Phone:       req.Phone,
		Discord:     req.Discord,
		PrimaryGame: req.PrimaryGame,
		PassTier:    req.PassTier,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, player)
}

type awardXPRequest struct {
	PlayerID    string         `json:"playerId"`
	GameID      string         `json:"gameId"`
	BaseXP      int            `json:"baseXp"`
	Multiplier  float64        `json:"multiplier"`
	FinalXP     *int           `json:"finalXp"`
	Source      model.XPSource `json:"source"`
	Description string         `json:"description"`
}

// HandleAwardXP writes a ledger entry on behalf of the logged-in staff
// member, who is recorded as the awarder.
//
// POST /staff/xp
func (h *StaffHandler) HandleAwardXP(w http.ResponseWriter, r *http.Request) {
	staffID, ok := auth.StaffIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("staff authentication required"))
		return
	}

	var req awardXPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	entry, err := h.xp.Append(r.Context(), service.AppendInput{
		PlayerID:    req.PlayerID,
		GameID:      req.GameID,
		BaseXP:      req.BaseXP,
		Multiplier:  req.Multiplier,
		FinalXP:     req.FinalXP,
		Source:      req.Source,
		Description: req.Description,
		AwardedBy:   staffID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}
