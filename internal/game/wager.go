package game

import "slices"

// specialWagerMenu is the fixed menu the Goat may set the hole's wager to
// during the end-game phase.
var specialWagerMenu = []int{2, 4, 8}

// fixed-hole doubling window for four-player games (Vinnie's Variation).
const (
	vinnieFirstHole = 13
	vinnieLastHole  = 16
)

// Modifiers are the wager-affecting declarations made for a hole. The
// carry-over and fixed-hole doubling are derived from game state, not
// declared, so they do not appear here.
type Modifiers struct {
	// Doubled is set when a double was offered and accepted during the hole.
	Doubled bool
	// Float is set when the captain invokes their one-shot Float.
	Float bool
	// OptionDeclined is set when the captain proactively declines the
	// automatic double they are owed while being the Goat.
	OptionDeclined bool
	// GoatSpecial, when non-zero, is the wager value set from the fixed
	// menu. It replaces all multiplicative modifiers and only the Goat may
	// declare it; GoatSpecialBy names the declarer.
	GoatSpecial   int
	GoatSpecialBy string
}

// WagerResult records the resolved wager for a hole together with which
// modifiers contributed to it.
type WagerResult struct {
	Base  int // wager entering the hole, after carry-over
	Final int

	CarryOverApplied  bool
	FixedHoleDoubling bool
	OptionApplied     bool
	FloatApplied      bool
	Doubled           bool
	GoatSpecial       int
	AardvarkTossed    bool

	// DuncanRatio marks that the winning side is paid at 3-for-2 instead
	// of 1-for-1 per opponent.
	DuncanRatio bool
}

// ResolveWager derives the hole's final wager from the base wager, the
// game's carry-over state and the declared modifiers, in fixed precedence:
// a goat-special wager replaces everything; otherwise the multiplicative
// modifiers stack on the carried (or base) amount.
func ResolveWager(g *Game, tc TeamConfiguration, mods Modifiers) (WagerResult, error) {
	wr := WagerResult{
		DuncanRatio:    tc.Kind == FormationSolo && tc.Duncan,
		AardvarkTossed: tc.Tossed,
	}

	if mods.GoatSpecial != 0 {
		if g.Phase != EndGame {
			return wr, newRuleError(FamilyBetting, CodeSpecialWagerPhase, "goat_special", mods.GoatSpecial,
				"the goat-special wager is only available during the end-game phase")
		}
		if mods.GoatSpecialBy != g.Goat().ID {
			return wr, newRuleError(FamilyBetting, CodeSpecialWagerGoat, "declared_by", mods.GoatSpecialBy,
				"only the goat may set the special wager")
		}
		if !slices.Contains(specialWagerMenu, mods.GoatSpecial) {
			return wr, newRuleError(FamilyBetting, CodeSpecialWagerMenu, "goat_special", mods.GoatSpecial,
				"special wager must be one of %v", specialWagerMenu)
		}
		if mods.Doubled || mods.Float {
			return wr, newRuleError(FamilyBetting, CodeModifierConflict, "goat_special", mods.GoatSpecial,
				"the special wager replaces other multipliers and cannot stack with them")
		}
		wr.Base = mods.GoatSpecial
		wr.Final = mods.GoatSpecial
		wr.GoatSpecial = mods.GoatSpecial
		return wr, nil
	}

	w := g.BaseWager
	if g.CarryOver > 0 {
		// The carried amount already reflects the pushed hole's wager, so
		// fixed-hole doubling does not reapply on top of it.
		w = g.CarryOver
		wr.CarryOverApplied = true
	} else if len(g.Players) == 4 && g.CurrentHole >= vinnieFirstHole && g.CurrentHole <= vinnieLastHole {
		w *= 2
		wr.FixedHoleDoubling = true
	}
	wr.Base = w

	if g.Captain() == g.Goat().ID && !mods.OptionDeclined {
		w *= 2
		wr.OptionApplied = true
	}
	if mods.Float {
		captain := g.PlayerByID(g.Captain())
		if captain.FloatUsed {
			return wr, newRuleError(FamilyBetting, CodeFloatReused, "captain", captain.ID,
				"the Float may be invoked only once per round")
		}
		w *= 2
		wr.FloatApplied = true
	}
	if mods.Doubled {
		w *= 2
		wr.Doubled = true
	}
	if tc.Tossed {
		w *= 2
	}

	if w < 1 || w > MaxHoleWager {
		return wr, newRuleError(FamilyBetting, CodeInvalidWager, "wager", w,
			"resolved wager outside sane bounds [1, %d]", MaxHoleWager)
	}
	wr.Final = w
	return wr, nil
}

// NextWagerInfo explains the wager the upcoming hole will start from, so a
// UI can show why before the hole is played.
type NextWagerInfo struct {
	Hole              int
	BaseWager         int
	StartingWager     int
	CarryOver         bool
	FixedHoleDoubling bool
}

// NextWager reports the starting wager for the given hole (defaulting to
// the game's current hole when hole is zero) and which state-derived
// modifiers are active.
func NextWager(g *Game, hole int) NextWagerInfo {
	if hole == 0 {
		hole = g.CurrentHole
	}
	info := NextWagerInfo{Hole: hole, BaseWager: g.BaseWager, StartingWager: g.BaseWager}
	if g.CarryOver > 0 && hole == g.CurrentHole {
		info.StartingWager = g.CarryOver
		info.CarryOver = true
		return info
	}
	if len(g.Players) == 4 && hole >= vinnieFirstHole && hole <= vinnieLastHole {
		info.StartingWager *= 2
		info.FixedHoleDoubling = true
	}
	return info
}
