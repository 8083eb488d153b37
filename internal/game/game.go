package game

import (
	"fmt"
	"slices"
)

// Phase is the stage of the round that governs how rotation advances.
type Phase int

const (
	// Normal rotates the captaincy mechanically each hole.
	Normal Phase = iota
	// EndGame (the Hoepfinger stretch) lets the Goat choose their own
	// position in the rotation before each hole.
	EndGame
)

func (p Phase) String() string {
	return [...]string{"normal", "endgame"}[p]
}

const (
	MinPlayers = 4
	MaxPlayers = 6
	TotalHoles = 18

	// MaxHoleWager bounds a single hole's final wager. Modifier stacking can
	// at most reach base x32 in legal play; anything beyond this is a bad
	// request rather than an exotic game.
	MaxHoleWager = 128
)

// endGameStart maps player count to the hole on which the end-game phase
// begins.
var endGameStart = map[int]int{4: 17, 5: 16, 6: 13}

// EndGameStartHole returns the hole on which the end-game phase begins for
// the given player count.
func EndGameStartHole(playerCount int) (int, error) {
	hole, ok := endGameStart[playerCount]
	if !ok {
		return 0, newRuleError(FamilyGameState, CodeInvalidPlayerCount, "players", playerCount,
			"player count must be between %d and %d", MinPlayers, MaxPlayers)
	}
	return hole, nil
}

// Game is the mutable state of one Wolf-Goat-Pig round. It is advanced
// strictly hole-by-hole by an Engine; all fields are exported so an external
// persistence layer can snapshot and restore it wholesale.
type Game struct {
	ID        string
	Players   []*Player
	BaseWager int

	CurrentHole  int
	Rotation     []string // player IDs, always a permutation of Players
	CaptainIndex int
	Phase        Phase

	// CarryOver is the wager carried into the current hole after a push on
	// the previous one. Zero means no carry-over is pending.
	CarryOver int
	// CarryBlocked is set when the carried amount came from a hole that was
	// itself carried over, so another push must not double it again.
	CarryBlocked bool

	// AwaitingGoatChoice is set between holes during the end-game phase
	// until the Goat has selected their rotation position.
	AwaitingGoatChoice bool

	History []HoleResult

	// Pending holds deferred "hanging chad" settlements waiting for a tie
	// in running totals to break.
	Pending []PendingSettlement
}

// NewGame creates a game with the players hitting in the given order on the
// first hole.
func NewGame(id string, players []*Player, baseWager int) (*Game, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, newRuleError(FamilyGameState, CodeInvalidPlayerCount, "players", len(players),
			"player count must be between %d and %d", MinPlayers, MaxPlayers)
	}
	if baseWager < 1 {
		return nil, newRuleError(FamilyBetting, CodeInvalidWager, "base_wager", baseWager,
			"base wager must be at least 1 quarter")
	}
	seen := make(map[string]bool, len(players))
	rotation := make([]string, 0, len(players))
	for _, p := range players {
		if p.ID == "" || seen[p.ID] {
			return nil, newRuleError(FamilyGameState, CodeUnknownPlayer, "player_id", p.ID,
				"player IDs must be unique and non-empty")
		}
		seen[p.ID] = true
		rotation = append(rotation, p.ID)
	}
	return &Game{
		ID:          id,
		Players:     players,
		BaseWager:   baseWager,
		CurrentHole: 1,
		Rotation:    rotation,
	}, nil
}

// Captain returns the ID of the current captain.
func (g *Game) Captain() string {
	return g.Rotation[g.CaptainIndex]
}

// PlayerByID returns the player with the given ID, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Goat returns the player with the lowest running total. Ties are broken in
// favour of the player earliest in the current rotation, so the designation
// is deterministic.
func (g *Game) Goat() *Player {
	var goat *Player
	for _, id := range g.Rotation {
		p := g.PlayerByID(id)
		if p == nil {
			continue
		}
		if goat == nil || p.Points < goat.Points {
			goat = p
		}
	}
	return goat
}

// Leader returns the highest running total among all players.
func (g *Game) Leader() int {
	best := g.Players[0].Points
	for _, p := range g.Players[1:] {
		if p.Points > best {
			best = p.Points
		}
	}
	return best
}

// Clone returns a deep copy of the game suitable for read-only consumers
// such as the odds estimator.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Rotation = slices.Clone(g.Rotation)
	cp.History = slices.Clone(g.History)
	cp.Pending = slices.Clone(g.Pending)
	return &cp
}

// validateRotation checks the standing invariant that the rotation is a
// permutation of all players and the captain index is in range.
func (g *Game) validateRotation() error {
	if len(g.Rotation) != len(g.Players) {
		return &InvariantError{Hole: g.CurrentHole,
			Detail: fmt.Sprintf("rotation has %d entries for %d players", len(g.Rotation), len(g.Players))}
	}
	seen := make(map[string]bool, len(g.Rotation))
	for _, id := range g.Rotation {
		if g.PlayerByID(id) == nil || seen[id] {
			return &InvariantError{Hole: g.CurrentHole,
				Detail: fmt.Sprintf("rotation entry %q is not a distinct player", id)}
		}
		seen[id] = true
	}
	if g.CaptainIndex < 0 || g.CaptainIndex >= len(g.Rotation) {
		return &InvariantError{Hole: g.CurrentHole,
			Detail: fmt.Sprintf("captain index %d out of range", g.CaptainIndex)}
	}
	return nil
}

// Winner tags which side of a hole's formation won.
type Winner int

const (
	WinnerPush Winner = iota
	WinnerTeamA
	WinnerTeamB
	WinnerCaptain
	WinnerOpponents
	WinnerAardvark
	WinnerField
)

func (w Winner) String() string {
	return [...]string{"push", "team_a", "team_b", "captain", "opponents", "aardvark", "field"}[w]
}

// HoleResult is the immutable record of a settled hole. Corrections replace
// the entry wholesale; entries are never patched in place.
type HoleResult struct {
	Hole      int
	Rotation  []string
	Formation TeamConfiguration
	Wager     WagerResult
	Winner    Winner
	Deltas    map[string]int

	// Digest identifies the request that produced this result, used to
	// detect idempotent resubmissions.
	Digest uint64
}
