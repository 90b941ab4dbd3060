// Package spin defines the daily spin prize wheel: a fixed weighted table
// of outcomes and the draw over it.
package spin

import "github.com/hyperbolichq/loyalty-api/internal/random"

// Outcome is one prize wheel entry. XP may be zero for physical prizes;
// a zero-XP spin still consumes the player's daily gate.
type Outcome struct {
	Name        string  `json:"name"`
	Rarity      string  `json:"rarity"`
	XP          int     `json:"xp"`
	Probability float64 `json:"probability"`
}

// MaxXP bounds any spin outcome's XP. Client-submitted outcomes outside
// [0, MaxXP] are rejected.
const MaxXP = 100

// Table is the prize wheel. Probabilities sum to 1.0.
var Table = []Outcome{
	{Name: "5 XP", Rarity: "common", XP: 5, Probability: 0.35},
	{Name: "15 XP", Rarity: "uncommon", XP: 15, Probability: 0.25},
	{Name: "25 XP", Rarity: "rare", XP: 25, Probability: 0.18},
	{Name: "50 XP", Rarity: "epic", XP: 50, Probability: 0.12},
	{Name: "100 XP JACKPOT", Rarity: "legendary", XP: 100, Probability: 0.04},
	{Name: "Free Booster Pack", Rarity: "epic", XP: 0, Probability: 0.06},
}

// Draw picks an outcome: uniform r in [0,1), walk the table accumulating
// probability mass, return the first entry whose cumulative mass covers r.
// Falls back to the first entry if floating-point drift leaves r beyond
// the last boundary.
func Draw(rng random.Random) Outcome {
	r := rng.Float64()

	var cumulative float64
	for _, o := range Table {
		cumulative += o.Probability
		if r < cumulative {
			return o
		}
	}
	return Table[0]
}

// ValidXP reports whether a submitted spin XP value is within bounds.
func ValidXP(xp int) bool {
	return xp >= 0 && xp <= MaxXP
}
