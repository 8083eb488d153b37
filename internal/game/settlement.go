package game

import (
	"fmt"
	"slices"
	"sort"
)

// PendingSettlement is a deferred one-unit-or-more quarter transfer whose
// payer and/or payee cannot be named yet because the relevant players are
// exactly tied in running total (the "hanging chad"). Exactly one of
// Payer/PayerPair is set, and one of Payee/PayeePair.
type PendingSettlement struct {
	Hole   int
	Amount int

	Payer     string
	PayerPair []string

	Payee     string
	PayeePair []string
}

// SettlementResult is the outcome of settling one hole: immediate per-player
// deltas (summing to exactly zero) plus any newly deferred transfers.
type SettlementResult struct {
	Deltas   map[string]int
	Deferred []PendingSettlement
}

// Settle converts a resolved wager and a winner declaration into per-player
// quarter deltas. Team wagers that do not divide evenly follow the Karl
// Marx rule: the loser with the lowest running total pays strictly less,
// and the winner with the lowest running total receives strictly more. If
// the players a remainder unit must discriminate between are exactly tied,
// that unit is deferred rather than guessed.
func Settle(wr WagerResult, winner Winner, tc TeamConfiguration, g *Game, hole int) (SettlementResult, error) {
	res := SettlementResult{Deltas: make(map[string]int, len(g.Players))}
	for _, p := range g.Players {
		res.Deltas[p.ID] = 0
	}
	if winner == WinnerPush {
		return res, nil
	}

	sideA, sideB := tc.Sides()
	var winners, losers []string
	switch {
	case winner == WinnerTeamA && (tc.Kind == FormationPartners || tc.Kind == FormationAardvarkJoin):
		winners, losers = sideA, sideB
	case winner == WinnerTeamB && (tc.Kind == FormationPartners || tc.Kind == FormationAardvarkJoin):
		winners, losers = sideB, sideA
	case winner == WinnerCaptain && tc.Kind == FormationSolo,
		winner == WinnerAardvark && tc.Kind == FormationAardvarkSolo:
		winners, losers = sideA, sideB
	case winner == WinnerOpponents && tc.Kind == FormationSolo,
		winner == WinnerField && tc.Kind == FormationAardvarkSolo:
		winners, losers = sideB, sideA
	default:
		return res, newRuleError(FamilyGameState, CodeWinnerMismatch, "winner", winner.String(),
			"winner %s does not match a %s formation", winner, tc.Kind)
	}

	// Solo formations settle per opponent, so shares are always exact and
	// nothing can hang.
	if tc.Kind == FormationSolo || tc.Kind == FormationAardvarkSolo {
		settleSolo(wr, winners, losers, res.Deltas)
		return res, nil
	}

	total := wr.Final
	winShares, winAmb := computeShares(total, winners, g, false)
	loseShares, loseAmb := computeShares(total, losers, g, true)

	for i := 0; i < len(winAmb) || i < len(loseAmb); i++ {
		entry := PendingSettlement{Hole: hole, Amount: 1}
		if i < len(loseAmb) {
			entry.PayerPair = loseAmb[i]
		} else {
			// Borrow the payer from the loser carrying the largest share,
			// keeping the immediate deltas balanced.
			payer := largestShare(loseShares, losers)
			loseShares[payer]--
			entry.Payer = payer
		}
		if i < len(winAmb) {
			entry.PayeePair = winAmb[i]
		} else {
			payee := largestShare(winShares, winners)
			winShares[payee]--
			entry.Payee = payee
		}
		res.Deferred = append(res.Deferred, entry)
	}

	for id, share := range winShares {
		res.Deltas[id] += share
	}
	for id, share := range loseShares {
		res.Deltas[id] -= share
	}
	return res, nil
}

// settleSolo applies the 1-for-1 (or Duncan 3-for-2) per-opponent transfer.
// Exactly one of winners/losers is the lone player.
func settleSolo(wr WagerResult, winners, losers []string, deltas map[string]int) {
	stake := wr.Final
	if wr.DuncanRatio {
		// 3-for-2, rounded up to keep whole quarters.
		stake = (3*wr.Final + 1) / 2
	}
	if len(winners) == 1 {
		solo := winners[0]
		for _, id := range losers {
			deltas[id] -= stake
			deltas[solo] += stake
		}
		return
	}
	solo := losers[0]
	for _, id := range winners {
		deltas[id] += stake
		deltas[solo] -= stake
	}
}

// computeShares splits total among members. Losers (favourLow=true) having
// higher running totals absorb the remainder; for winners the remainder
// goes to the lower totals. A remainder unit whose recipient is tied with
// the first member excluded from the remainder is returned as an ambiguous
// pair instead of being assigned.
func computeShares(total int, members []string, g *Game, losers bool) (map[string]int, [][]string) {
	n := len(members)
	base := total / n
	rem := total % n

	order := slices.Clone(members)
	sort.SliceStable(order, func(i, j int) bool {
		pi, pj := g.PlayerByID(order[i]).Points, g.PlayerByID(order[j]).Points
		if pi != pj {
			if losers {
				return pi > pj // higher totals pay the extra
			}
			return pi < pj // lower totals receive the extra
		}
		return rotationIndex(g, order[i]) < rotationIndex(g, order[j])
	})

	shares := make(map[string]int, n)
	for _, id := range members {
		shares[id] = base
	}
	var ambiguous [][]string
	for i := 0; i < rem; i++ {
		boundary := order[rem]
		if g.PlayerByID(order[i]).Points == g.PlayerByID(boundary).Points {
			ambiguous = append(ambiguous, []string{order[i], boundary})
			continue
		}
		shares[order[i]]++
	}
	return shares, ambiguous
}

func rotationIndex(g *Game, id string) int {
	return slices.Index(g.Rotation, id)
}

// largestShare returns the member with the largest share, breaking ties by
// rotation order so the choice is deterministic.
func largestShare(shares map[string]int, members []string) string {
	best := members[0]
	for _, id := range members[1:] {
		if shares[id] > shares[best] {
			best = id
		}
	}
	return best
}

// ResolvePending applies every deferred settlement whose tie has broken,
// repeating until no further entry can resolve (a resolution shifts points
// and may break other ties). The returned deltas sum to zero.
func ResolvePending(g *Game) map[string]int {
	deltas := make(map[string]int)
	for {
		progressed := false
		remaining := g.Pending[:0]
		for _, ps := range g.Pending {
			payer, payee, ok := resolveParties(g, ps)
			if !ok {
				remaining = append(remaining, ps)
				continue
			}
			deltas[payer] -= ps.Amount
			deltas[payee] += ps.Amount
			g.PlayerByID(payer).Points -= ps.Amount
			g.PlayerByID(payee).Points += ps.Amount
			progressed = true
		}
		g.Pending = remaining
		if !progressed {
			return deltas
		}
	}
}

// resolveParties names the payer and payee of a deferred settlement if the
// relevant ties have broken: the higher of a payer pair pays, the lower of
// a payee pair receives.
func resolveParties(g *Game, ps PendingSettlement) (payer, payee string, ok bool) {
	payer = ps.Payer
	if payer == "" {
		a, b := g.PlayerByID(ps.PayerPair[0]), g.PlayerByID(ps.PayerPair[1])
		if a.Points == b.Points {
			return "", "", false
		}
		if a.Points > b.Points {
			payer = a.ID
		} else {
			payer = b.ID
		}
	}
	payee = ps.Payee
	if payee == "" {
		a, b := g.PlayerByID(ps.PayeePair[0]), g.PlayerByID(ps.PayeePair[1])
		if a.Points == b.Points {
			return "", "", false
		}
		if a.Points < b.Points {
			payee = a.ID
		} else {
			payee = b.ID
		}
	}
	return payer, payee, true
}

// checkZeroSum asserts the settlement invariant.
func checkZeroSum(hole int, deltas map[string]int) error {
	sum := 0
	for _, d := range deltas {
		sum += d
	}
	if sum != 0 {
		return &InvariantError{Hole: hole, Detail: fmt.Sprintf("deltas sum to %+d, want 0", sum)}
	}
	return nil
}
