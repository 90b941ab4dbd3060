package model

import "time"

// XPSource categorises why a ledger entry was awarded.
type XPSource string

const (
	SourceEventAttendance       XPSource = "event_attendance"
	SourceMatchWin              XPSource = "match_win"
	SourceUndefeatedBonus       XPSource = "undefeated_bonus"
	SourceReferral              XPSource = "referral"
	SourcePurchase              XPSource = "purchase"
	SourceDailySpin             XPSource = "daily_spin"
	SourceCheckIn               XPSource = "check_in"
	SourceAchievement           XPSource = "achievement"
	SourceManualAdjustment      XPSource = "manual_adjustment"
	SourceBonusEvent            XPSource = "bonus_event"
	SourceCommunityContribution XPSource = "community_contribution"
)

// Valid reports whether s is one of the fixed source categories.
func (s XPSource) Valid() bool {
	switch s {
	case SourceEventAttendance, SourceMatchWin, SourceUndefeatedBonus,
		SourceReferral, SourcePurchase, SourceDailySpin, SourceCheckIn,
		SourceAchievement, SourceManualAdjustment, SourceBonusEvent,
		SourceCommunityContribution:
		return true
	}
	return false
}

// LedgerEntry is one immutable point-awarding fact. Entries are never
// updated or deleted; FinalXP is the authoritative value for all
// aggregation and is stored explicitly (it may be manually overridden
// rather than always base × multiplier).
type LedgerEntry struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"playerId"`
	GameID      string    `json:"gameId,omitempty"`
	BaseXP      int       `json:"baseXp"`
	Multiplier  float64   `json:"multiplier"`
	FinalXP     int       `json:"finalXp"`
	Source      XPSource  `json:"source"`
	Description string    `json:"description,omitempty"`
	AwardedBy   string    `json:"awardedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GeneralGameID is the sentinel bucket for entries not tied to a game.
// Entries in this bucket count toward a player's total XP but are excluded
// from per-game breakdowns.
const GeneralGameID = "general"

// GameXPSummary is the canonical per-player-per-game aggregate: total XP
// plus counts of match-win and event-attendance entries. Every response
// that carries a per-game breakdown uses this shape.
type GameXPSummary struct {
	GameID string `json:"gameId"`
	XP     int    `json:"xp"`
	Wins   int    `json:"wins"`
	Events int    `json:"events"`
}
