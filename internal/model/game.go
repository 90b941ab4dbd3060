package model

// Frequency classifies how often a game runs store events. High-frequency
// games (twice weekly) use a doubled rank threshold ladder.
type Frequency string

const (
	FrequencyStandard Frequency = "standard"
	FrequencyHigh     Frequency = "high"
)

// Game is a supported tabletop game the program tracks points for.
type Game struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	Color        string    `json:"color"`
	CurrencyName string    `json:"currencyName"`
	Frequency    Frequency `json:"frequency"`
	IsActive     bool      `json:"isActive"`
}
