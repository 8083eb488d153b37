package game

import (
	"fmt"
	"hash/fnv"
	"maps"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lox/wolfgoatpig/internal/course"
)

// Engine advances a single game strictly hole-by-hole. It is not safe for
// concurrent use; callers serialise access per game (see internal/server).
type Engine struct {
	game   *Game
	course *course.Course
	logger *log.Logger
	bus    EventBus
}

// NewEngine wraps a game with the rules engine. A nil course uses the
// built-in default.
func NewEngine(g *Game, c *course.Course, logger *log.Logger) *Engine {
	if c == nil {
		c = course.Default()
	}
	return &Engine{
		game:   g,
		course: c,
		logger: logger.WithPrefix("engine"),
		bus:    NewEventBus(),
	}
}

// Game returns the underlying game state.
func (e *Engine) Game() *Game { return e.game }

// EventBus returns the bus engine events are published on.
func (e *Engine) EventBus() EventBus { return e.bus }

// Finished reports whether all holes have been settled.
func (e *Engine) Finished() bool { return e.game.CurrentHole > TotalHoles }

// CompleteHoleRequest carries everything needed to settle one hole.
type CompleteHoleRequest struct {
	Hole          int
	Rotation      []string
	CaptainIndex  int
	Formation     TeamConfiguration
	Modifiers     Modifiers
	TeeShotsTaken int
	GrossScores   map[string]int
}

// CompleteHole validates the declaration, resolves the wager, determines
// the winner from net best-ball scores, settles quarters and advances the
// game to the next hole. Resubmitting an identical completed hole returns
// the stored result without reapplying anything.
func (e *Engine) CompleteHole(req CompleteHoleRequest) (*HoleResult, error) {
	g := e.game
	digest := requestDigest(req)

	if req.Hole < g.CurrentHole {
		for i := range g.History {
			if g.History[i].Hole != req.Hole {
				continue
			}
			if g.History[i].Digest == digest {
				e.logger.Debug("Duplicate hole submission ignored", "game", g.ID, "hole", req.Hole)
				stored := g.History[i]
				return &stored, nil
			}
			return nil, newRuleError(FamilyGameState, CodeHoleConflict, "hole", req.Hole,
				"hole %d is already settled with a different payload", req.Hole)
		}
		return nil, newRuleError(FamilyGameState, CodeHoleOutOfOrder, "hole", req.Hole,
			"hole %d precedes the current hole but has no record", req.Hole)
	}
	if req.Hole > g.CurrentHole {
		return nil, newRuleError(FamilyGameState, CodeHoleOutOfOrder, "hole", req.Hole,
			"expected hole %d next", g.CurrentHole)
	}
	if g.AwaitingGoatChoice {
		return nil, newRuleError(FamilyGameState, CodeGoatChoicePending, "hole", req.Hole,
			"the Goat must select a rotation position before hole %d can be played", g.CurrentHole)
	}
	if !slices.Equal(req.Rotation, g.Rotation) || req.CaptainIndex != g.CaptainIndex {
		return nil, newRuleError(FamilyGameState, CodeRotationMismatch, "rotation", req.Rotation,
			"declared rotation does not match the game's rotation")
	}
	for _, p := range g.Players {
		if _, ok := req.GrossScores[p.ID]; !ok {
			return nil, newRuleError(FamilyGameState, CodeScoreMissing, "player", p.ID,
				"no gross score submitted for %s", p.ID)
		}
	}
	if err := ValidateFormation(g, req.Formation, req.TeeShotsTaken); err != nil {
		return nil, err
	}
	wr, err := ResolveWager(g, req.Formation, req.Modifiers)
	if err != nil {
		return nil, err
	}

	winner := e.determineWinner(req.Formation, req.GrossScores)
	settlement, err := Settle(wr, winner, req.Formation, g, req.Hole)
	if err != nil {
		return nil, err
	}
	if err := checkZeroSum(req.Hole, settlement.Deltas); err != nil {
		e.logger.Error("FATAL: settlement broke the zero-sum invariant",
			"game", g.ID, "hole", req.Hole, "deltas", settlement.Deltas, "error", err)
		return nil, err
	}

	for id, d := range settlement.Deltas {
		g.PlayerByID(id).Points += d
	}
	if wr.FloatApplied {
		g.PlayerByID(g.Captain()).FloatUsed = true
	}
	g.Pending = append(g.Pending, settlement.Deferred...)

	result := HoleResult{
		Hole:      req.Hole,
		Rotation:  slices.Clone(g.Rotation),
		Formation: req.Formation,
		Wager:     wr,
		Winner:    winner,
		Deltas:    maps.Clone(settlement.Deltas),
		Digest:    digest,
	}
	g.History = append(g.History, result)

	e.logger.Debug("Hole settled",
		"game", g.ID, "hole", req.Hole, "winner", winner, "wager", wr.Final)
	e.bus.Publish(NewHoleSettledEvent(req.Hole, winner, wr.Final, maps.Clone(settlement.Deltas)))

	e.updateCarryOver(req.Hole, wr, winner)

	if resolved := ResolvePending(g); len(resolved) > 0 {
		e.logger.Debug("Deferred settlement resolved", "game", g.ID, "hole", req.Hole, "deltas", resolved)
		e.bus.Publish(NewChadResolvedEvent(req.Hole, resolved))
	}

	if err := e.advance(); err != nil {
		return nil, err
	}
	return &result, nil
}

// updateCarryOver arms, holds or clears the carry-over after a hole.
func (e *Engine) updateCarryOver(hole int, wr WagerResult, winner Winner) {
	g := e.game
	if winner != WinnerPush {
		g.CarryOver = 0
		g.CarryBlocked = false
		return
	}
	held := g.CarryOver > 0
	if held {
		// A push on a hole that was itself carried over holds the wager.
		g.CarryOver = wr.Final
	} else {
		g.CarryOver = wr.Final * 2
	}
	g.CarryBlocked = held
	e.bus.Publish(NewCarryOverEvent(hole, g.CarryOver, held))
}

// advance moves the game to the next hole, entering the end-game phase and
// requesting the Goat's position when the trigger hole is reached.
func (e *Engine) advance() error {
	g := e.game
	plan, err := NextRotation(g)
	if err != nil {
		return err
	}
	g.CurrentHole++
	if g.CurrentHole > TotalHoles {
		e.logger.Info("Round complete", "game", g.ID)
		return nil
	}
	if plan.GoatMustChoose {
		if g.Phase != EndGame {
			g.Phase = EndGame
			e.bus.Publish(NewPhaseChangeEvent(g.CurrentHole, EndGame))
		}
		g.AwaitingGoatChoice = true
		e.bus.Publish(NewGoatChoiceEvent(g.CurrentHole, plan.Goat, plan.ValidPositions))
		return nil
	}
	g.Rotation = plan.Order
	g.CaptainIndex = 0
	return g.validateRotation()
}

// SelectGoatPosition applies the Goat's end-game position choice, building
// the next rotation around it.
func (e *Engine) SelectGoatPosition(position int) error {
	g := e.game
	if !g.AwaitingGoatChoice {
		return newRuleError(FamilyGameState, CodeGoatChoicePending, "position", position,
			"no goat position choice is pending")
	}
	order, err := BuildGoatOrder(g.Rotation, g.Goat().ID, position)
	if err != nil {
		return err
	}
	g.Rotation = order
	g.CaptainIndex = 0
	g.AwaitingGoatChoice = false
	return g.validateRotation()
}

// NextRotation reports the rotation plan for the upcoming hole: either a
// concrete order or the instruction that the Goat must pick a position.
func (e *Engine) NextRotation() (RotationPlan, error) {
	g := e.game
	if g.AwaitingGoatChoice {
		positions := make([]int, len(g.Players))
		for i := range positions {
			positions[i] = i + 1
		}
		return RotationPlan{GoatMustChoose: true, Goat: g.Goat().ID, ValidPositions: positions}, nil
	}
	return NextRotation(g)
}

// NextWager reports the starting wager for the upcoming hole and which
// state-derived modifiers are active. holeOverride, when non-zero, asks
// about a specific hole instead (used by tests and previews).
func (e *Engine) NextWager(holeOverride int) NextWagerInfo {
	return NextWager(e.game, holeOverride)
}

// determineWinner compares net best-ball scores between the two sides.
func (e *Engine) determineWinner(tc TeamConfiguration, gross map[string]int) Winner {
	sideA, sideB := tc.Sides()
	bestA := e.bestBall(sideA, gross)
	bestB := e.bestBall(sideB, gross)
	if bestA == bestB {
		return WinnerPush
	}
	aWins := bestA < bestB
	switch tc.Kind {
	case FormationPartners, FormationAardvarkJoin:
		if aWins {
			return WinnerTeamA
		}
		return WinnerTeamB
	case FormationSolo:
		if aWins {
			return WinnerCaptain
		}
		return WinnerOpponents
	case FormationAardvarkSolo:
		if aWins {
			return WinnerAardvark
		}
		return WinnerField
	}
	return WinnerPush
}

// bestBall returns the lowest net score on the side.
func (e *Engine) bestBall(side []string, gross map[string]int) int {
	g := e.game
	best := 0
	for i, id := range side {
		p := g.PlayerByID(id)
		net := gross[id] - course.StrokesReceived(p.Handicap, e.course.StrokeIndex(g.CurrentHole))
		if i == 0 || net < best {
			best = net
		}
	}
	return best
}

// requestDigest hashes the canonical request fields for idempotency checks.
func requestDigest(req CompleteHoleRequest) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%v|%d|%d|", req.Hole, req.Rotation, req.CaptainIndex, req.TeeShotsTaken)
	fmt.Fprintf(h, "%d|%v|%v|%s|%v|%v|%s|%v|", req.Formation.Kind, req.Formation.TeamA, req.Formation.TeamB,
		req.Formation.Captain, req.Formation.Opponents, req.Formation.Duncan, req.Formation.Aardvark, req.Formation.Tossed)
	fmt.Fprintf(h, "%v|%v|%v|%d|%s|", req.Modifiers.Doubled, req.Modifiers.Float,
		req.Modifiers.OptionDeclined, req.Modifiers.GoatSpecial, req.Modifiers.GoatSpecialBy)
	ids := make([]string, 0, len(req.GrossScores))
	for id := range req.GrossScores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(h, "%s=%d|", id, req.GrossScores[id])
	}
	return h.Sum64()
}
