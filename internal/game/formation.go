package game

import "slices"

// FormationKind tags the team configuration variant for a hole.
type FormationKind int

const (
	// FormationPartners is the standard captain-plus-partner arrangement.
	FormationPartners FormationKind = iota
	// FormationSolo is the captain alone against the field, either declared
	// before any shot (the Duncan) or forced after declined partnerships.
	FormationSolo
	// FormationAardvarkJoin has the fifth (or sixth) player joining one of
	// the formed teams, possibly after being tossed by their first choice.
	FormationAardvarkJoin
	// FormationAardvarkSolo is the Aardvark alone against the field.
	FormationAardvarkSolo
)

func (k FormationKind) String() string {
	return [...]string{"partners", "solo", "aardvark_join", "aardvark_solo"}[k]
}

// TeamConfiguration is the tagged-variant team arrangement for one hole.
// Which fields are meaningful depends on Kind:
//
//	Partners:     TeamA (contains captain), TeamB
//	Solo:         Captain, Opponents, Duncan
//	AardvarkJoin: TeamA, TeamB, Aardvark (member of one team), Tossed
//	AardvarkSolo: Aardvark, Opponents (the field)
type TeamConfiguration struct {
	Kind FormationKind

	TeamA []string
	TeamB []string

	Captain   string
	Opponents []string

	// Duncan marks a solo declared before any tee shot, which pays 3-for-2.
	Duncan bool

	Aardvark string
	// Tossed is set when the Aardvark was rejected by their first-choice
	// team; the toss doubles the hole's wager.
	Tossed bool
}

// Sides returns the two opposing member sets for the formation.
func (tc TeamConfiguration) Sides() (a, b []string) {
	switch tc.Kind {
	case FormationPartners, FormationAardvarkJoin:
		return tc.TeamA, tc.TeamB
	case FormationSolo:
		return []string{tc.Captain}, tc.Opponents
	case FormationAardvarkSolo:
		return []string{tc.Aardvark}, tc.Opponents
	}
	return nil, nil
}

// ValidateFormation enforces the team declaration rules for the current
// hole. teeShotsTaken is how many tee shots had been hit when the
// declaration was made; partnership must be declared before all tee shots
// are in, and a Duncan before any shot at all.
func ValidateFormation(g *Game, tc TeamConfiguration, teeShotsTaken int) error {
	captain := g.Captain()
	switch tc.Kind {
	case FormationPartners:
		if teeShotsTaken >= len(g.Players) {
			return newRuleError(FamilyGameState, CodeDeadlinePassed, "tee_shots_taken", teeShotsTaken,
				"partnership must be declared before all tee shots are complete")
		}
		if !slices.Contains(tc.TeamA, captain) {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "team_a", tc.TeamA,
				"captain %s must be on team A", captain)
		}
		if len(tc.TeamA) == 1 {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "team_a", tc.TeamA,
				"a partnership needs a partner; declare solo instead")
		}
		if len(tc.TeamA) != 2 {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "team_a", tc.TeamA,
				"a partnership is the captain and one partner, not %d players", len(tc.TeamA))
		}
		if countOccurrences(tc.TeamA, captain) > 1 {
			return newRuleError(FamilyGameState, CodePartnerIsSelf, "partner", captain,
				"captain cannot partner with themself")
		}
		return validateMembership(g, append(slices.Clone(tc.TeamA), tc.TeamB...))

	case FormationSolo:
		if tc.Captain != captain {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "captain", tc.Captain,
				"solo declarer %s is not the captain", tc.Captain)
		}
		if tc.Duncan && teeShotsTaken > 0 {
			return newRuleError(FamilyGameState, CodeDeadlinePassed, "tee_shots_taken", teeShotsTaken,
				"the Duncan must be declared before any shot is hit")
		}
		return validateMembership(g, append([]string{tc.Captain}, tc.Opponents...))

	case FormationAardvarkJoin, FormationAardvarkSolo:
		if len(g.Players) < 5 {
			return newRuleError(FamilyGameState, CodeAardvarkUnavailable, "players", len(g.Players),
				"the Aardvark role requires a five or six player game")
		}
		if tc.Aardvark == captain {
			return newRuleError(FamilyGameState, CodeAardvarkCannotCaptain, "aardvark", tc.Aardvark,
				"the captain cannot take the Aardvark role")
		}
		if g.PlayerByID(tc.Aardvark) == nil {
			return newRuleError(FamilyGameState, CodeUnknownPlayer, "aardvark", tc.Aardvark,
				"aardvark is not a player in this game")
		}
		if tc.Kind == FormationAardvarkSolo {
			return validateMembership(g, append([]string{tc.Aardvark}, tc.Opponents...))
		}
		// A join presupposes a formed partnership to join.
		if len(tc.TeamA) == 0 || len(tc.TeamB) == 0 {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "teams", nil,
				"aardvark can only join after a partnership exists")
		}
		if !slices.Contains(tc.TeamA, tc.Aardvark) && !slices.Contains(tc.TeamB, tc.Aardvark) {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "aardvark", tc.Aardvark,
				"aardvark must end up on one of the teams")
		}
		return validateMembership(g, append(slices.Clone(tc.TeamA), tc.TeamB...))
	}
	return newRuleError(FamilyGameState, CodeInvalidFormation, "kind", tc.Kind, "unknown formation kind")
}

// validateMembership checks that members is exactly a permutation of the
// game's players.
func validateMembership(g *Game, members []string) error {
	if len(members) != len(g.Players) {
		return newRuleError(FamilyGameState, CodeInvalidFormation, "members", len(members),
			"formation covers %d of %d players", len(members), len(g.Players))
	}
	seen := make(map[string]bool, len(members))
	for _, id := range members {
		if g.PlayerByID(id) == nil {
			return newRuleError(FamilyGameState, CodeUnknownPlayer, "member", id,
				"%s is not a player in this game", id)
		}
		if seen[id] {
			return newRuleError(FamilyGameState, CodeInvalidFormation, "member", id,
				"%s appears on both sides", id)
		}
		seen[id] = true
	}
	return nil
}

func countOccurrences(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
