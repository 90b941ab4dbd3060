// Package rank derives display titles from cumulative XP.
//
// Two distinct concepts live here:
//   - Rank: a per-game title from a fixed 7-tier threshold ladder.
//   - Level: a game-agnostic number, totalXP/100 + 1.
//
// Both are pure table lookups. Standard-frequency games share one
// threshold schedule; the high-frequency game (one_piece, twice-weekly
// events) uses a doubled schedule so its titles keep comparable effort.
package rank

// Tier count of every ladder. Ladders are defined with exactly this many
// entries, sorted ascending by threshold.
const Tiers = 7

var standardThresholds = [Tiers]int{0, 100, 250, 500, 1000, 1500, 2500}

var highThresholds = [Tiers]int{0, 200, 500, 1000, 1500, 2500, 4000}

// genericTitles is the fallback ladder for unknown game identifiers.
var genericTitles = [Tiers]string{
	"Newcomer", "Regular", "Veteran", "Expert", "Master", "Elite", "Legend",
}

type ladder struct {
	thresholds [Tiers]int
	titles     [Tiers]string
}

// gameLadders carries the flavor ladders for configured games. Games
// without a flavor ladder fall back to generic titles at the standard
// schedule (they still get a total rank for any XP).
var gameLadders = map[string]ladder{
	"one_piece": {
		thresholds: highThresholds,
		titles: [Tiers]string{
			"East Blue Rookie", "Paradise Pirate", "Super Rookie",
			"Notorious Pirate", "Worst Generation", "Warlord",
			"Yonko Commander",
		},
	},
	"pokemon": {
		thresholds: standardThresholds,
		titles: [Tiers]string{
			"Pokemon Fan", "Trainer", "Ace Trainer", "Gym Challenger",
			"Gym Leader", "Elite Four", "Champion",
		},
	},
	"mtg": {
		thresholds: standardThresholds,
		titles: [Tiers]string{
			"Apprentice", "Mage", "Wizard", "Sorcerer", "Archmage",
			"Planeswalker", "Oldwalker",
		},
	},
	"gundam": {
		thresholds: standardThresholds,
		titles: [Tiers]string{
			"Cadet", "Ensign", "Lieutenant", "Captain", "Commander",
			"Ace Pilot", "Newtype",
		},
	},
}

// Rank maps a game identifier and cumulative XP to a rank title.
//
// The returned title is the highest tier whose threshold is <= totalXP
// (floor lookup). Unknown games use the generic ladder at standard
// thresholds. Total for any totalXP >= 0: xp 0 always maps to tier 0, and
// a negative value is clamped to 0.
func Rank(gameID string, totalXP int) string {
	if totalXP < 0 {
		totalXP = 0
	}

	l, ok := gameLadders[gameID]
	if !ok {
		l = ladder{thresholds: standardThresholds, titles: genericTitles}
	}

	title := l.titles[0]
	for i := 1; i < Tiers; i++ {
		if totalXP >= l.thresholds[i] {
			title = l.titles[i]
		}
	}
	return title
}

// gameCurrencies maps game identifiers to the display name of that game's
// point currency.
var gameCurrencies = map[string]string{
	"one_piece": "Berries",
	"gundam":    "Pilot Points",
	"star_wars": "Holopoints",
	"vanguard":  "Ride Gauge",
	"mtg":       "Mana Marks",
	"pokemon":   "Pokepoints",
	"lorcana":   "Ink Points",
	"yugioh":    "Duel Points",
	"digimon":   "Digi-Bits",
}

// CurrencyName returns the display label for a game's point currency, or
// the literal "XP" for unknown game identifiers.
func CurrencyName(gameID string) string {
	if name, ok := gameCurrencies[gameID]; ok {
		return name
	}
	return "XP"
}

// Level computes the game-agnostic level from total XP: one level per
// 100 XP, starting at level 1.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/100 + 1
}
