package model

// LeaderboardEntry is one privacy-filtered row of the public leaderboard.
// Ranks are contiguous from 1 after opted-out players are dropped. An
// anonymous player keeps their true rank slot but is masked: name
// "Anonymous", neutral avatar, Hidden=true.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ShortCode string `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	TotalXP   int    `json:"totalXp"`
	Avatar    Avatar `json:"avatar"`
	Hidden    bool   `json:"hidden,omitempty"`
}

// SearchResult is one privacy-masked player search match. Level and TotalXP
// are nil for private and friends-only profiles.
type SearchResult struct {
	ShortCode           string     `json:"id"`
	Name                string     `json:"name"`
	Title               string     `json:"title"`
	Level               *int       `json:"level"`
	TotalXP             *int       `json:"totalXp"`
	Avatar              Avatar     `json:"avatar"`
	ProfileVisibility   Visibility `json:"profileVisibility"`
	AllowFriendRequests bool       `json:"allowFriendRequests"`
}

// GameProgress is a player's standing in one game as shown on profiles:
// the aggregate plus the derived rank title and currency label.
type GameProgress struct {
	GameXPSummary
	Rank     string `json:"rank"`
	Currency string `json:"currency"`
}

// Profile is the full public projection of a player: identity fields,
// totals, per-game progress, and recent ledger activity.
type Profile struct {
	ID             string         `json:"id"`
	ShortCode      string         `json:"shortCode"`
	DisplayName    string         `json:"displayName"`
	RealName       string         `json:"realName,omitempty"`
	Discord        string         `json:"discord,omitempty"`
	Avatar         Avatar         `json:"avatar"`
	PassTier       PassTier       `json:"passTier"`
	TotalXP        int            `json:"totalXp"`
	Level          int            `json:"level"`
	Games          []GameProgress `json:"games"`
	RecentActivity []LedgerEntry  `json:"recentActivity"`
	CreatedAt      string         `json:"createdAt"`
}
