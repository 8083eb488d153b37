package game

import (
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestEngine(t *testing.T, n, baseWager int) *Engine {
	t.Helper()
	return NewEngine(newTestGame(t, n, baseWager), nil, log.New(io.Discard))
}

// holeRequest builds a request for the engine's current hole from its own
// rotation state.
func holeRequest(e *Engine, tc TeamConfiguration, mods Modifiers, scores map[string]int) CompleteHoleRequest {
	g := e.Game()
	return CompleteHoleRequest{
		Hole:         g.CurrentHole,
		Rotation:     slices.Clone(g.Rotation),
		CaptainIndex: g.CaptainIndex,
		Formation:    tc,
		Modifiers:    mods,
		GrossScores:  scores,
	}
}

type recordingSubscriber struct {
	events []GameEvent
}

func (r *recordingSubscriber) OnEvent(ev GameEvent) { r.events = append(r.events, ev) }

func (r *recordingSubscriber) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventType()
	}
	return out
}

func TestCompleteHoleSettlesAndAdvances(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	setPoints(t, g, map[string]int{"p2": -1, "p3": 1, "p4": 2}) // goat is p2

	res, err := e.CompleteHole(holeRequest(e, partnersTC(), Modifiers{},
		map[string]int{"p1": 4, "p2": 5, "p3": 5, "p4": 6}))
	if err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}
	if res.Winner != WinnerTeamA {
		t.Errorf("Expected team A to win, got %v", res.Winner)
	}
	if res.Wager.Final != 1 {
		t.Errorf("Expected final wager 1, got %d", res.Wager.Final)
	}
	// One quarter between pairs: the down-most winner collects from the
	// up-most loser.
	if res.Deltas["p2"] != 1 || res.Deltas["p4"] != -1 {
		t.Errorf("Expected p2 to collect from p4, got %v", res.Deltas)
	}
	if g.PlayerByID("p2").Points != 0 || g.PlayerByID("p4").Points != 1 {
		t.Errorf("Expected points applied, got p2=%d p4=%d",
			g.PlayerByID("p2").Points, g.PlayerByID("p4").Points)
	}
	if g.CurrentHole != 2 {
		t.Errorf("Expected hole 2 next, got %d", g.CurrentHole)
	}
	wantRotation := []string{"p2", "p3", "p4", "p1"}
	if !slices.Equal(g.Rotation, wantRotation) || g.CaptainIndex != 0 {
		t.Errorf("Expected rotation %v captain 0, got %v captain %d",
			wantRotation, g.Rotation, g.CaptainIndex)
	}
	if len(g.History) != 1 {
		t.Errorf("Expected one history entry, got %d", len(g.History))
	}
}

func TestCompleteHoleIdempotentResubmission(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	setPoints(t, g, map[string]int{"p2": -1, "p3": 1, "p4": 2})

	req := holeRequest(e, partnersTC(), Modifiers{},
		map[string]int{"p1": 4, "p2": 5, "p3": 5, "p4": 6})
	first, err := e.CompleteHole(req)
	if err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}
	p2After := g.PlayerByID("p2").Points

	again, err := e.CompleteHole(req)
	if err != nil {
		t.Fatalf("Expected an identical resubmission to succeed, got %v", err)
	}
	if again.Hole != first.Hole || again.Winner != first.Winner || again.Digest != first.Digest {
		t.Errorf("Expected the stored result back, got %+v", again)
	}
	if g.PlayerByID("p2").Points != p2After {
		t.Error("Expected no second settlement on resubmission")
	}
	if g.CurrentHole != 2 || len(g.History) != 1 {
		t.Errorf("Expected game state untouched, got hole %d history %d",
			g.CurrentHole, len(g.History))
	}
}

func TestCompleteHoleConflict(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	setPoints(t, e.Game(), map[string]int{"p2": -1, "p3": 1, "p4": 2})

	req := holeRequest(e, partnersTC(), Modifiers{},
		map[string]int{"p1": 4, "p2": 5, "p3": 5, "p4": 6})
	if _, err := e.CompleteHole(req); err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}

	// Same hole, different payload.
	req.GrossScores = map[string]int{"p1": 5, "p2": 5, "p3": 4, "p4": 6}
	_, err := e.CompleteHole(req)
	if !IsRuleCode(err, CodeHoleConflict) {
		t.Errorf("Expected hole_conflict, got %v", err)
	}
}

func TestCompleteHoleOutOfOrder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	setPoints(t, e.Game(), map[string]int{"p2": -1})

	req := holeRequest(e, partnersTC(), Modifiers{}, evenScores(e.Game(), 4))
	req.Hole = 3
	_, err := e.CompleteHole(req)
	if !IsRuleCode(err, CodeHoleOutOfOrder) {
		t.Errorf("Expected hole_out_of_order for a future hole, got %v", err)
	}

	// A past hole with no record is equally out of order.
	req.Hole = 0
	_, err = e.CompleteHole(req)
	if !IsRuleCode(err, CodeHoleOutOfOrder) {
		t.Errorf("Expected hole_out_of_order for an unrecorded past hole, got %v", err)
	}
}

func TestCompleteHoleRotationMismatch(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	setPoints(t, e.Game(), map[string]int{"p2": -1})

	req := holeRequest(e, partnersTC(), Modifiers{}, evenScores(e.Game(), 4))
	req.Rotation = []string{"p2", "p1", "p3", "p4"}
	_, err := e.CompleteHole(req)
	if !IsRuleCode(err, CodeRotationMismatch) {
		t.Errorf("Expected rotation_mismatch for a reordered rotation, got %v", err)
	}

	req = holeRequest(e, partnersTC(), Modifiers{}, evenScores(e.Game(), 4))
	req.CaptainIndex = 1
	_, err = e.CompleteHole(req)
	if !IsRuleCode(err, CodeRotationMismatch) {
		t.Errorf("Expected rotation_mismatch for a wrong captain index, got %v", err)
	}
}

func TestCompleteHoleScoreMissing(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	setPoints(t, e.Game(), map[string]int{"p2": -1})

	scores := evenScores(e.Game(), 4)
	delete(scores, "p4")
	_, err := e.CompleteHole(holeRequest(e, partnersTC(), Modifiers{}, scores))
	if !IsRuleCode(err, CodeScoreMissing) {
		t.Errorf("Expected score_missing, got %v", err)
	}
}

func TestCarryOverSequence(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()

	// Hole 1: doubled, then pushed. The carry-over arms at twice the
	// final wager. Every captain here is also the Goat (all square), so
	// the Option is declined to keep the arithmetic visible.
	decline := Modifiers{OptionDeclined: true, Doubled: true}
	if _, err := e.CompleteHole(holeRequest(e, partnersTC(), decline, evenScores(g, 4))); err != nil {
		t.Fatalf("hole 1 failed: %v", err)
	}
	if g.CarryOver != 4 || g.CarryBlocked {
		t.Fatalf("Expected carry-over 4 unblocked, got %d blocked=%v", g.CarryOver, g.CarryBlocked)
	}

	info := e.NextWager(0)
	if !info.CarryOver || info.StartingWager != 4 {
		t.Errorf("Expected hole 2 to start from the carried 4, got %+v", info)
	}

	// Hole 2: pushed again on the carried wager. A consecutive push holds
	// the amount instead of doubling it.
	tc2 := TeamConfiguration{Kind: FormationPartners, TeamA: []string{"p2", "p3"}, TeamB: []string{"p4", "p1"}}
	if _, err := e.CompleteHole(holeRequest(e, tc2, Modifiers{OptionDeclined: true}, evenScores(g, 4))); err != nil {
		t.Fatalf("hole 2 failed: %v", err)
	}
	if g.CarryOver != 4 || !g.CarryBlocked {
		t.Fatalf("Expected carry-over held at 4, got %d blocked=%v", g.CarryOver, g.CarryBlocked)
	}

	// Hole 3: a decisive result pays out the carried wager and clears it.
	tc3 := TeamConfiguration{Kind: FormationPartners, TeamA: []string{"p3", "p4"}, TeamB: []string{"p1", "p2"}}
	scores := map[string]int{"p1": 5, "p2": 5, "p3": 4, "p4": 5}
	res, err := e.CompleteHole(holeRequest(e, tc3, Modifiers{OptionDeclined: true}, scores))
	if err != nil {
		t.Fatalf("hole 3 failed: %v", err)
	}
	if res.Wager.Final != 4 || !res.Wager.CarryOverApplied {
		t.Errorf("Expected the carried 4 to settle, got %+v", res.Wager)
	}
	if res.Deltas["p3"] != 2 || res.Deltas["p1"] != -2 {
		t.Errorf("Expected +2/-2 per player, got %v", res.Deltas)
	}
	if g.CarryOver != 0 || g.CarryBlocked {
		t.Errorf("Expected carry-over cleared, got %d blocked=%v", g.CarryOver, g.CarryBlocked)
	}
}

func TestEndGameTransitionAndGoatChoice(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	g.CurrentHole = 16
	setPoints(t, g, map[string]int{"p1": 5, "p2": 3, "p3": -4, "p4": 2})

	scores := map[string]int{"p1": 4, "p2": 5, "p3": 5, "p4": 5}
	if _, err := e.CompleteHole(holeRequest(e, partnersTC(), Modifiers{}, scores)); err != nil {
		t.Fatalf("hole 16 failed: %v", err)
	}

	if g.Phase != EndGame {
		t.Errorf("Expected the end-game phase, got %v", g.Phase)
	}
	if g.CurrentHole != 17 || !g.AwaitingGoatChoice {
		t.Fatalf("Expected hole 17 awaiting the Goat, got hole %d awaiting=%v",
			g.CurrentHole, g.AwaitingGoatChoice)
	}

	// No hole can be played until the Goat picks a position.
	_, err := e.CompleteHole(holeRequest(e, partnersTC(), Modifiers{}, evenScores(g, 4)))
	if !IsRuleCode(err, CodeGoatChoicePending) {
		t.Errorf("Expected goat_choice_pending, got %v", err)
	}

	plan, err := e.NextRotation()
	if err != nil {
		t.Fatalf("NextRotation failed: %v", err)
	}
	if !plan.GoatMustChoose || plan.Goat != "p3" {
		t.Errorf("Expected p3 to choose, got %+v", plan)
	}
	if !slices.Equal(plan.ValidPositions, []int{1, 2, 3, 4}) {
		t.Errorf("Expected positions 1-4, got %v", plan.ValidPositions)
	}

	if err := e.SelectGoatPosition(2); err != nil {
		t.Fatalf("SelectGoatPosition failed: %v", err)
	}
	if g.AwaitingGoatChoice {
		t.Error("Expected the choice to be consumed")
	}
	wantRotation := []string{"p1", "p3", "p2", "p4"}
	if !slices.Equal(g.Rotation, wantRotation) {
		t.Errorf("Expected rotation %v, got %v", wantRotation, g.Rotation)
	}

	// A second choice with nothing pending is rejected.
	if err := e.SelectGoatPosition(1); !IsRuleCode(err, CodeGoatChoicePending) {
		t.Errorf("Expected goat_choice_pending, got %v", err)
	}
}

func TestFloatMarksCaptainUsed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	setPoints(t, g, map[string]int{"p2": -1, "p3": 1, "p4": 2})

	res, err := e.CompleteHole(holeRequest(e, partnersTC(), Modifiers{Float: true},
		map[string]int{"p1": 4, "p2": 5, "p3": 5, "p4": 6}))
	if err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}
	if !res.Wager.FloatApplied || res.Wager.Final != 2 {
		t.Errorf("Expected the Float to double to 2, got %+v", res.Wager)
	}
	if !g.PlayerByID("p1").FloatUsed {
		t.Error("Expected the captain's Float to be consumed")
	}
}

func TestHandicapStrokesDecideBestBall(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	setPoints(t, g, map[string]int{"p2": -1})
	g.PlayerByID("p2").Handicap = 20 // at least one stroke on every hole

	tc := TeamConfiguration{Kind: FormationPartners, TeamA: []string{"p1", "p3"}, TeamB: []string{"p2", "p4"}}
	res, err := e.CompleteHole(holeRequest(e, tc, Modifiers{}, evenScores(g, 5)))
	if err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}
	if res.Winner != WinnerTeamB {
		t.Errorf("Expected the stroke to decide for team B, got %v", res.Winner)
	}
}

func TestEnginePublishesEvents(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	sub := &recordingSubscriber{}
	e.EventBus().Subscribe(sub)

	// A push publishes the settlement and the carry-over arming.
	if _, err := e.CompleteHole(holeRequest(e, partnersTC(),
		Modifiers{OptionDeclined: true}, evenScores(g, 4))); err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}
	want := []EventType{EventTypeHoleSettled, EventTypeCarryOver}
	if !slices.Equal(sub.types(), want) {
		t.Errorf("Expected events %v, got %v", want, sub.types())
	}

	co, ok := sub.events[1].(CarryOverEvent)
	if !ok || co.Amount != 2 || co.Held {
		t.Errorf("Expected a fresh carry-over of 2, got %+v", sub.events[1])
	}
	for i, ev := range sub.events {
		if ev.Timestamp().IsZero() {
			t.Errorf("Event %d has no timestamp", i)
		}
	}
}

func TestEnginePublishesPhaseAndGoatEvents(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	g := e.Game()
	g.CurrentHole = 16
	setPoints(t, g, map[string]int{"p1": 5, "p2": 3, "p3": -4, "p4": 2})
	sub := &recordingSubscriber{}
	e.EventBus().Subscribe(sub)

	scores := map[string]int{"p1": 4, "p2": 5, "p3": 5, "p4": 5}
	if _, err := e.CompleteHole(holeRequest(e, partnersTC(), Modifiers{}, scores)); err != nil {
		t.Fatalf("CompleteHole failed: %v", err)
	}

	want := []EventType{EventTypeHoleSettled, EventTypePhaseChange, EventTypeGoatChoice}
	if !slices.Equal(sub.types(), want) {
		t.Errorf("Expected events %v, got %v", want, sub.types())
	}
	gc, ok := sub.events[2].(GoatChoiceEvent)
	if !ok || gc.Goat != "p3" || gc.Hole != 17 {
		t.Errorf("Expected p3's choice for hole 17, got %+v", sub.events[2])
	}
}

func TestFinished(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 4, 1)
	if e.Finished() {
		t.Error("Expected a fresh round to be unfinished")
	}
	e.Game().CurrentHole = TotalHoles + 1
	if !e.Finished() {
		t.Error("Expected the round to be finished past the last hole")
	}
}
