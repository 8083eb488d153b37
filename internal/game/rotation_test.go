package game

import (
	"slices"
	"testing"
)

func TestNextRotationShiftsCaptainLeft(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)

	plan, err := NextRotation(g)
	if err != nil {
		t.Fatalf("NextRotation failed: %v", err)
	}
	if plan.GoatMustChoose {
		t.Fatal("Normal phase should produce a concrete rotation")
	}
	want := []string{"p2", "p3", "p4", "p1"}
	if !slices.Equal(plan.Order, want) {
		t.Errorf("Expected rotation %v, got %v", want, plan.Order)
	}
}

func TestNextRotationDoesNotMutateGame(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	before := slices.Clone(g.Rotation)

	if _, err := NextRotation(g); err != nil {
		t.Fatalf("NextRotation failed: %v", err)
	}
	if !slices.Equal(g.Rotation, before) {
		t.Errorf("NextRotation mutated the rotation: %v -> %v", before, g.Rotation)
	}
}

func TestEndGameStartHole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		players int
		hole    int
	}{
		{4, 17},
		{5, 16},
		{6, 13},
	}
	for _, tc := range cases {
		hole, err := EndGameStartHole(tc.players)
		if err != nil {
			t.Fatalf("EndGameStartHole(%d) failed: %v", tc.players, err)
		}
		if hole != tc.hole {
			t.Errorf("EndGameStartHole(%d) = %d, want %d", tc.players, hole, tc.hole)
		}
	}

	if _, err := EndGameStartHole(3); err == nil {
		t.Error("Expected error for 3 players")
	}
	if _, err := EndGameStartHole(7); err == nil {
		t.Error("Expected error for 7 players")
	}
}

func TestNextRotationEntersGoatChoice(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	g.CurrentHole = 16 // next hole is the 4-player trigger
	setPoints(t, g, map[string]int{"p1": 3, "p2": -2, "p3": 1, "p4": -2})

	plan, err := NextRotation(g)
	if err != nil {
		t.Fatalf("NextRotation failed: %v", err)
	}
	if !plan.GoatMustChoose {
		t.Fatal("Expected goat choice for the hole entering the end game")
	}
	// p2 and p4 tie for lowest; p2 is earlier in the rotation
	if plan.Goat != "p2" {
		t.Errorf("Expected goat p2, got %s", plan.Goat)
	}
	if !slices.Equal(plan.ValidPositions, []int{1, 2, 3, 4}) {
		t.Errorf("Expected positions 1-4, got %v", plan.ValidPositions)
	}
}

func TestNextRotationSixPlayerTrigger(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 6, 1)
	g.CurrentHole = 12
	setPoints(t, g, map[string]int{"p5": -3})

	plan, err := NextRotation(g)
	if err != nil {
		t.Fatalf("NextRotation failed: %v", err)
	}
	if !plan.GoatMustChoose {
		t.Fatal("Expected goat choice before hole 13 in a 6-player game")
	}
	if plan.Goat != "p5" {
		t.Errorf("Expected goat p5, got %s", plan.Goat)
	}
}

func TestBuildGoatOrder(t *testing.T) {
	t.Parallel()

	current := []string{"p1", "p2", "p3", "p4"}

	cases := []struct {
		position int
		want     []string
	}{
		{1, []string{"p3", "p1", "p2", "p4"}},
		{2, []string{"p1", "p3", "p2", "p4"}},
		{4, []string{"p1", "p2", "p4", "p3"}},
	}
	for _, tc := range cases {
		order, err := BuildGoatOrder(current, "p3", tc.position)
		if err != nil {
			t.Fatalf("BuildGoatOrder(position=%d) failed: %v", tc.position, err)
		}
		if !slices.Equal(order, tc.want) {
			t.Errorf("position %d: expected %v, got %v", tc.position, tc.want, order)
		}
	}
}

func TestBuildGoatOrderRejectsBadInput(t *testing.T) {
	t.Parallel()

	current := []string{"p1", "p2", "p3", "p4"}

	if _, err := BuildGoatOrder(current, "p3", 0); !IsRuleCode(err, CodeGoatPositionInvalid) {
		t.Errorf("Expected goat_position_invalid for position 0, got %v", err)
	}
	if _, err := BuildGoatOrder(current, "p3", 5); !IsRuleCode(err, CodeGoatPositionInvalid) {
		t.Errorf("Expected goat_position_invalid for position 5, got %v", err)
	}
	if _, err := BuildGoatOrder(current, "px", 2); !IsRuleCode(err, CodeUnknownPlayer) {
		t.Errorf("Expected unknown_player for missing goat, got %v", err)
	}
}

func TestGoatTieBreakUsesRotationOrder(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p1": 0, "p2": -1, "p3": -1, "p4": 2})
	if goat := g.Goat(); goat.ID != "p2" {
		t.Errorf("Expected goat p2 (earliest tied in rotation), got %s", goat.ID)
	}

	// Same points, different rotation order flips the designation
	g.Rotation = []string{"p3", "p2", "p1", "p4"}
	if goat := g.Goat(); goat.ID != "p3" {
		t.Errorf("Expected goat p3 after rotation change, got %s", goat.ID)
	}
}
