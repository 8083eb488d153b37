package game

import "testing"

// partnersTC is a minimal partners configuration; ResolveWager does not
// validate membership, only wager state.
func partnersTC() TeamConfiguration {
	return TeamConfiguration{
		Kind:  FormationPartners,
		TeamA: []string{"p1", "p2"},
		TeamB: []string{"p3", "p4"},
	}
}

func TestResolveWagerBase(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 2)
	setPoints(t, g, map[string]int{"p2": -1}) // goat off the captaincy

	wr, err := ResolveWager(g, partnersTC(), Modifiers{})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if wr.Base != 2 || wr.Final != 2 {
		t.Errorf("Expected base 2 / final 2, got %d / %d", wr.Base, wr.Final)
	}
	if wr.CarryOverApplied || wr.FixedHoleDoubling || wr.OptionApplied || wr.Doubled {
		t.Errorf("Expected no modifiers on a plain hole, got %+v", wr)
	}
}

func TestOptionDoublesWhenCaptainIsGoat(t *testing.T) {
	t.Parallel()

	// Fresh game: everyone at zero, so the rotation leader is both captain
	// and Goat and the Option fires on its own.
	g := newTestGame(t, 4, 1)

	wr, err := ResolveWager(g, partnersTC(), Modifiers{})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if !wr.OptionApplied {
		t.Error("Expected the Option to apply when the captain is the Goat")
	}
	if wr.Final != 2 {
		t.Errorf("Expected final wager 2, got %d", wr.Final)
	}
}

func TestOptionDeclined(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)

	wr, err := ResolveWager(g, partnersTC(), Modifiers{OptionDeclined: true})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if wr.OptionApplied {
		t.Error("Expected a declined Option to stay off")
	}
	if wr.Final != 1 {
		t.Errorf("Expected final wager 1, got %d", wr.Final)
	}
}

func TestFloatDoublesOnce(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p2": -1})

	wr, err := ResolveWager(g, partnersTC(), Modifiers{Float: true})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if !wr.FloatApplied || wr.Final != 2 {
		t.Errorf("Expected Float to double to 2, got %+v", wr)
	}

	// A captain who already burned their Float cannot invoke it again.
	g.PlayerByID("p1").FloatUsed = true
	_, err = ResolveWager(g, partnersTC(), Modifiers{Float: true})
	if !IsRuleCode(err, CodeFloatReused) {
		t.Errorf("Expected float_reused, got %v", err)
	}
}

func TestDoubledStacks(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p2": -1})

	wr, err := ResolveWager(g, partnersTC(), Modifiers{Float: true, Doubled: true})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if wr.Final != 4 {
		t.Errorf("Expected float + double to reach 4, got %d", wr.Final)
	}
	if !wr.FloatApplied || !wr.Doubled {
		t.Errorf("Expected both modifiers recorded, got %+v", wr)
	}
}

func TestFixedHoleDoubling(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p2": -1})

	for _, tt := range []struct {
		hole    int
		doubled bool
	}{
		{12, false},
		{13, true},
		{16, true},
		{17, false},
	} {
		g.CurrentHole = tt.hole
		wr, err := ResolveWager(g, partnersTC(), Modifiers{})
		if err != nil {
			t.Fatalf("hole %d: ResolveWager failed: %v", tt.hole, err)
		}
		if wr.FixedHoleDoubling != tt.doubled {
			t.Errorf("hole %d: Expected fixed-hole doubling %v, got %v", tt.hole, tt.doubled, wr.FixedHoleDoubling)
		}
		want := 1
		if tt.doubled {
			want = 2
		}
		if wr.Final != want {
			t.Errorf("hole %d: Expected final %d, got %d", tt.hole, want, wr.Final)
		}
	}
}

func TestFixedHoleDoublingOnlyWithFourPlayers(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 5, 1)
	setPoints(t, g, map[string]int{"p2": -1})
	g.CurrentHole = 14

	wr, err := ResolveWager(g, TeamConfiguration{
		Kind:  FormationPartners,
		TeamA: []string{"p1", "p2"},
		TeamB: []string{"p3", "p4", "p5"},
	}, Modifiers{})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if wr.FixedHoleDoubling {
		t.Error("Expected no fixed-hole doubling in a five-player game")
	}
	if wr.Final != 1 {
		t.Errorf("Expected final 1, got %d", wr.Final)
	}
}

func TestCarryOverReplacesBase(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p2": -1})
	g.CurrentHole = 14 // inside the doubling window
	g.CarryOver = 6

	wr, err := ResolveWager(g, partnersTC(), Modifiers{})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if !wr.CarryOverApplied {
		t.Error("Expected carry-over to apply")
	}
	if wr.FixedHoleDoubling {
		t.Error("Expected fixed-hole doubling not to reapply on a carried wager")
	}
	if wr.Base != 6 || wr.Final != 6 {
		t.Errorf("Expected carried wager 6, got base %d final %d", wr.Base, wr.Final)
	}
}

func TestGoatSpecialWager(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	g.Phase = EndGame

	for _, v := range []int{2, 4, 8} {
		wr, err := ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: v, GoatSpecialBy: g.Goat().ID})
		if err != nil {
			t.Fatalf("special %d: ResolveWager failed: %v", v, err)
		}
		if wr.Final != v || wr.GoatSpecial != v {
			t.Errorf("special %d: Expected final %d, got %+v", v, v, wr)
		}
		// The special value replaces everything, including the Option the
		// captain-goat would otherwise be owed.
		if wr.OptionApplied {
			t.Errorf("special %d: Expected no Option on a special wager", v)
		}
	}
}

func TestGoatSpecialErrors(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)

	// Only available once the end game has started.
	_, err := ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: 4, GoatSpecialBy: g.Goat().ID})
	if !IsRuleCode(err, CodeSpecialWagerPhase) {
		t.Errorf("Expected special_wager_phase, got %v", err)
	}

	g.Phase = EndGame
	goat := g.Goat().ID

	// Only the Goat may set it.
	_, err = ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: 4, GoatSpecialBy: "p4"})
	if !IsRuleCode(err, CodeSpecialWagerGoat) {
		t.Errorf("Expected special_wager_goat for non-goat declarer, got %v", err)
	}
	_, err = ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: 4})
	if !IsRuleCode(err, CodeSpecialWagerGoat) {
		t.Errorf("Expected special_wager_goat for missing declarer, got %v", err)
	}

	_, err = ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: 3, GoatSpecialBy: goat})
	if !IsRuleCode(err, CodeSpecialWagerMenu) {
		t.Errorf("Expected special_wager_menu, got %v", err)
	}

	_, err = ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: 4, GoatSpecialBy: goat, Doubled: true})
	if !IsRuleCode(err, CodeModifierConflict) {
		t.Errorf("Expected modifier_conflict for special + double, got %v", err)
	}
	_, err = ResolveWager(g, partnersTC(), Modifiers{GoatSpecial: 4, GoatSpecialBy: goat, Float: true})
	if !IsRuleCode(err, CodeModifierConflict) {
		t.Errorf("Expected modifier_conflict for special + float, got %v", err)
	}
}

func TestTossedAardvarkDoubles(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 5, 1)
	setPoints(t, g, map[string]int{"p2": -1})

	tc := TeamConfiguration{
		Kind:     FormationAardvarkJoin,
		TeamA:    []string{"p1", "p2"},
		TeamB:    []string{"p3", "p4", "p5"},
		Aardvark: "p5",
		Tossed:   true,
	}
	wr, err := ResolveWager(g, tc, Modifiers{})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if !wr.AardvarkTossed {
		t.Error("Expected the toss to be recorded")
	}
	if wr.Final != 2 {
		t.Errorf("Expected tossed aardvark to double the wager to 2, got %d", wr.Final)
	}
}

func TestDuncanRatioFlag(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p2": -1})

	tc := TeamConfiguration{
		Kind:      FormationSolo,
		Captain:   "p1",
		Opponents: []string{"p2", "p3", "p4"},
		Duncan:    true,
	}
	wr, err := ResolveWager(g, tc, Modifiers{})
	if err != nil {
		t.Fatalf("ResolveWager failed: %v", err)
	}
	if !wr.DuncanRatio {
		t.Error("Expected the Duncan payout ratio to be flagged")
	}
	if wr.Final != 1 {
		t.Errorf("Expected the Duncan to leave the stake itself alone, got %d", wr.Final)
	}
}

func TestWagerUpperBound(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 1)
	setPoints(t, g, map[string]int{"p2": -1})
	g.CarryOver = MaxHoleWager // doubling anything on top blows the cap

	_, err := ResolveWager(g, partnersTC(), Modifiers{Doubled: true})
	if !IsRuleCode(err, CodeInvalidWager) {
		t.Errorf("Expected invalid_wager above %d, got %v", MaxHoleWager, err)
	}
}

func TestNextWagerReporting(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, 4, 3)

	info := NextWager(g, 0)
	if info.Hole != 1 || info.StartingWager != 3 || info.CarryOver || info.FixedHoleDoubling {
		t.Errorf("Expected plain hole-1 wager of 3, got %+v", info)
	}

	// Fixed-hole doubling is visible for any hole in the window.
	info = NextWager(g, 15)
	if !info.FixedHoleDoubling || info.StartingWager != 6 {
		t.Errorf("Expected doubled preview for hole 15, got %+v", info)
	}

	// A carried wager shows for the current hole only.
	g.CurrentHole = 7
	g.CarryOver = 12
	info = NextWager(g, 7)
	if !info.CarryOver || info.StartingWager != 12 {
		t.Errorf("Expected carried wager 12 on the current hole, got %+v", info)
	}
	info = NextWager(g, 8)
	if info.CarryOver {
		t.Errorf("Expected no carry-over preview past the current hole, got %+v", info)
	}
}
