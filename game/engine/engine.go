package engine

// beats maps each move to the single move it defeats
var beats = map[Move]Move{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Beats reports whether a defeats b
func Beats(a, b Move) bool {
	return a.Valid() && beats[a] == b
}

// Resolve decides a round between player 1's move a and player 2's move b.
// Callers must pass playable moves; anything else resolves as a draw.
func Resolve(a, b Move) Outcome {
	switch {
	case a == b:
		return Draw
	case Beats(a, b):
		return Player1Wins
	case Beats(b, a):
		return Player2Wins
	default:
		return Draw
	}
}

// Rule describes one edge of the beats-relation
type Rule struct {
	Winner Move `json:"winner"`
	Loser  Move `json:"loser"`
}

// Rules returns the beats-relation in display order
func Rules() []Rule {
	rules := make([]Rule, 0, len(Moves))
	for _, m := range Moves {
		rules = append(rules, Rule{Winner: m, Loser: beats[m]})
	}
	return rules
}
