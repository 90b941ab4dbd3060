package rank

import "testing"

func TestRankBoundaryExactness(t *testing.T) {
	tests := []struct {
		game string
		xp   int
		want string
	}{
		{"one_piece", 0, "East Blue Rookie"},
		{"one_piece", 199, "East Blue Rookie"},
		{"one_piece", 200, "Paradise Pirate"},
		{"one_piece", 3999, "Warlord"},
		{"one_piece", 4000, "Yonko Commander"},
		{"one_piece", 999999, "Yonko Commander"},
		{"pokemon", 0, "Pokemon Fan"},
		{"pokemon", 99, "Pokemon Fan"},
		{"pokemon", 100, "Trainer"},
		{"pokemon", 2500, "Champion"},
		{"mtg", 2499, "Planeswalker"},
		{"mtg", 2500, "Oldwalker"},
		{"gundam", 1000, "Commander"},
		{"unknown_game", 0, "Newcomer"},
		{"unknown_game", 2500, "Legend"},
		{"unknown_game", 2499, "Elite"},
	}

	for _, tt := range tests {
		if got := Rank(tt.game, tt.xp); got != tt.want {
			t.Errorf("Rank(%q, %d) = %q, want %q", tt.game, tt.xp, got, tt.want)
		}
	}
}

func TestRankMonotonicity(t *testing.T) {
	games := []string{"one_piece", "pokemon", "mtg", "gundam", "unknown_game"}
	for _, game := range games {
		prevIndex := -1
		for xp := 0; xp <= 5000; xp += 7 {
			title := Rank(game, xp)
			index := tierIndex(game, title)
			if index < 0 {
				t.Fatalf("Rank(%q, %d) = %q is not one of that game's titles", game, xp, title)
			}
			if index < prevIndex {
				t.Fatalf("Rank(%q, ...) decreased at xp=%d", game, xp)
			}
			prevIndex = index
		}
	}
}

func TestRankNegativeXPClampsToTierZero(t *testing.T) {
	if got := Rank("one_piece", -5); got != "East Blue Rookie" {
		t.Errorf("Rank(one_piece, -5) = %q, want tier 0", got)
	}
}

// tierIndex finds where title sits in the game's ladder, -1 if absent.
func tierIndex(game, title string) int {
	l, ok := gameLadders[game]
	if !ok {
		l = ladder{thresholds: standardThresholds, titles: genericTitles}
	}
	for i, t := range l.titles {
		if t == title {
			return i
		}
	}
	return -1
}

func TestCurrencyName(t *testing.T) {
	if got := CurrencyName("one_piece"); got != "Berries" {
		t.Errorf("CurrencyName(one_piece) = %q, want Berries", got)
	}
	if got := CurrencyName("no_such_game"); got != "XP" {
		t.Errorf("CurrencyName(no_such_game) = %q, want XP", got)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{1000, 11},
		{-10, 1},
	}
	for _, tt := range tests {
		if got := Level(tt.xp); got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}
