package game

import (
	"fmt"
	"testing"
)

// newTestGame builds a game with n zero-handicap players p1..pn and the
// given base wager.
func newTestGame(t *testing.T, n, baseWager int) *Game {
	t.Helper()
	players := make([]*Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, &Player{
			ID:   fmt.Sprintf("p%d", i),
			Name: fmt.Sprintf("Player %d", i),
		})
	}
	g, err := NewGame("test-game", players, baseWager)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	return g
}

// setPoints assigns running totals by player ID.
func setPoints(t *testing.T, g *Game, points map[string]int) {
	t.Helper()
	for id, pts := range points {
		p := g.PlayerByID(id)
		if p == nil {
			t.Fatalf("no player %s", id)
		}
		p.Points = pts
	}
}

// evenScores returns identical gross scores for every player, producing a
// push on any formation.
func evenScores(g *Game, score int) map[string]int {
	scores := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		scores[p.ID] = score
	}
	return scores
}
