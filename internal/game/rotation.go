package game

import "slices"

// RotationPlan describes how the next hole's hitting order is determined.
// In the normal phase Order is the concrete rotation. In the end-game phase
// GoatMustChoose is set and the caller must collect the Goat's position
// choice before the next hole can start.
type RotationPlan struct {
	Order          []string
	GoatMustChoose bool
	Goat           string
	ValidPositions []int
}

// NextRotation computes the rotation plan for the hole after the current
// one. It never mutates the game.
func NextRotation(g *Game) (RotationPlan, error) {
	if _, err := EndGameStartHole(len(g.Players)); err != nil {
		return RotationPlan{}, err
	}
	if err := g.validateRotation(); err != nil {
		return RotationPlan{}, err
	}

	if nextPhase(g) == EndGame {
		goat := g.Goat()
		positions := make([]int, len(g.Players))
		for i := range positions {
			positions[i] = i + 1
		}
		return RotationPlan{
			GoatMustChoose: true,
			Goat:           goat.ID,
			ValidPositions: positions,
		}, nil
	}

	return RotationPlan{Order: rotateLeft(g.Rotation)}, nil
}

// nextPhase returns the phase the hole after the current one falls in.
func nextPhase(g *Game) Phase {
	start, err := EndGameStartHole(len(g.Players))
	if err != nil {
		return Normal
	}
	if g.CurrentHole+1 >= start {
		return EndGame
	}
	return Normal
}

// rotateLeft shifts the order left by one: the captain drops to the back
// and the next player takes the captaincy at index 0.
func rotateLeft(order []string) []string {
	next := make([]string, 0, len(order))
	next = append(next, order[1:]...)
	next = append(next, order[0])
	return next
}

// BuildGoatOrder inserts the Goat at the requested 1-based position,
// preserving the relative order of everyone else from the current rotation.
func BuildGoatOrder(current []string, goat string, position int) ([]string, error) {
	if position < 1 || position > len(current) {
		return nil, newRuleError(FamilyGameState, CodeGoatPositionInvalid, "position", position,
			"position must be between 1 and %d", len(current))
	}
	rest := make([]string, 0, len(current)-1)
	for _, id := range current {
		if id != goat {
			rest = append(rest, id)
		}
	}
	if len(rest) != len(current)-1 {
		return nil, newRuleError(FamilyGameState, CodeUnknownPlayer, "goat", goat,
			"goat is not in the rotation")
	}
	order := slices.Insert(rest, position-1, goat)
	return order, nil
}
