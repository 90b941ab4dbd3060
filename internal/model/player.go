// Package model defines the data structures used throughout the application.
package model

import "time"

// Visibility is a player's profile visibility tier.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the three known tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// PassTier is the membership tier a player holds.
type PassTier string

const (
	PassTierNone      PassTier = "none"
	PassTierAccess    PassTier = "access"
	PassTierPlayer    PassTier = "player"
	PassTierAllAccess PassTier = "all_access"
	PassTierShadowVIP PassTier = "shadow_vip"
)

// Avatar describes a player's emoji avatar.
type Avatar struct {
	Base       string `json:"base"`
	Background string `json:"background"`
	Frame      string `json:"frame"`
	Badge      string `json:"badge,omitempty"`
}

// DefaultAvatar is assigned to players created without explicit avatar choices.
func DefaultAvatar() Avatar {
	return Avatar{Base: "😎", Background: "#3b82f6", Frame: "none"}
}

// AnonymousAvatar is the fixed neutral avatar shown for players who opted
// to appear anonymously in public listings.
func AnonymousAvatar() Avatar {
	return Avatar{Base: "🎭", Background: "#64748b", Frame: "none"}
}

// PrivateAvatar masks a player whose profile visibility is private.
func PrivateAvatar() Avatar {
	return Avatar{Base: "🔒", Background: "#1e293b", Frame: "none"}
}

// PrivacySettings holds a player's visibility preferences.
//
// The zero value is NOT the default; use DefaultPrivacy(). Defaults match
// the program's signup behaviour: everything visible except real name, and
// never anonymous.
type PrivacySettings struct {
	ProfileVisibility   Visibility `json:"profileVisibility"`
	ShowOnLeaderboard   bool       `json:"showOnLeaderboard"`
	ShowAsAnonymous     bool       `json:"showAsAnonymous"`
	AllowFriendRequests bool       `json:"allowFriendRequests"`
	HideFromSearch      bool       `json:"hideFromSearch"`
	ShowActivity        bool       `json:"showActivity"`
	ShowGames           bool       `json:"showGames"`
	ShowRealName        bool       `json:"showRealName"`
}

// DefaultPrivacy returns the privacy flags assigned at player creation.
func DefaultPrivacy() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility:   VisibilityPublic,
		ShowOnLeaderboard:   true,
		ShowAsAnonymous:     false,
		AllowFriendRequests: true,
		HideFromSearch:      false,
		ShowActivity:        true,
		ShowGames:           true,
		ShowRealName:        false,
	}
}

// Player is a person enrolled in the loyalty program.
//
// ShortCode is the public-facing card identifier ("HYP-XXXXXX"). It is
// globally unique and immutable after creation. IdentityID links the player
// to an external identity principal (e.g. "github:1234567") and is empty
// until the player links an account; at most one player may hold a given
// principal at a time (enforced by a unique index).
type Player struct {
	ID          string          `json:"id"`
	ShortCode   string          `json:"shortCode"`
	DisplayName string          `json:"displayName"`
	RealName    string          `json:"realName,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Discord     string          `json:"discord,omitempty"`
	Avatar      Avatar          `json:"avatar"`
	IdentityID  string          `json:"-"`
	PrimaryGame string          `json:"primaryGame,omitempty"`
	PassTier    PassTier        `json:"passTier"`
	Privacy     PrivacySettings `json:"privacy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// StaffAccount is a store employee allowed to create players and award XP.
type StaffAccount struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
