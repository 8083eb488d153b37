package odds

import (
	"context"
	rand "math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lox/wolfgoatpig/internal/randutil"
)

// DefaultRollouts is the deep-mode sample count when the caller does not
// specify one.
const DefaultRollouts = 5000

// workerResult accumulates rollout outcomes from one worker.
type workerResult struct {
	acceptBetter int
	holeWins     int
	acceptTotal  float64
	samples      int
}

// EstimateDeep refines the heuristic with randomized rollouts of the
// remaining holes. Each rollout plays the current hole and the rest of the
// round once, then scores the accept-the-double branch against the decline
// branch on the same outcomes. Rollouts fan out across workers; a blown
// deadline or cancelled context degrades to the fast heuristic rather than
// failing the caller.
func (e *Engine) EstimateDeep(ctx context.Context, snap Snapshot, playerID string, rollouts int) BettingAnalysis {
	f, err := deriveFactors(snap, playerID)
	if err != nil {
		return unavailable(err)
	}
	if rollouts <= 0 {
		rollouts = DefaultRollouts
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := e.clock.AfterFunc(e.deepTimeout, cancel)
	defer timer.Stop()

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	perWorker := rollouts / workers
	remainder := rollouts % workers

	g, ctx := errgroup.WithContext(ctx)
	results := make(chan workerResult, workers)
	for w := 0; w < workers; w++ {
		samples := perWorker
		if w < remainder {
			samples++
		}
		seed := randutil.WorkerSeed(e.seed, w)
		g.Go(func() error {
			rng := randutil.New(seed)
			res := runRolloutWorker(f, samples, rng)
			select {
			case results <- res:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	go func() {
		defer close(results)
		_ = g.Wait()
	}()

	var total workerResult
	for res := range results {
		total.acceptBetter += res.acceptBetter
		total.holeWins += res.holeWins
		total.acceptTotal += res.acceptTotal
		total.samples += res.samples
	}

	if err := g.Wait(); err != nil || total.samples == 0 {
		e.logger.Warn("Deep estimate did not finish, using heuristic", "error", err, "samples", total.samples)
		out := e.Estimate(snap, playerID)
		if !out.Unavailable {
			out.Rationale += "; deep estimate timed out, heuristic shown"
		}
		return out
	}

	holeWinRate := float64(total.holeWins) / float64(total.samples)
	accept := clamp01(float64(total.acceptBetter) / float64(total.samples))
	offer := clamp01(0.2 + 0.6*(1-holeWinRate) + 0.1*f.late + 0.1*boolTo(f.carryOver))
	ev := total.acceptTotal / float64(total.samples)

	return BettingAnalysis{
		OfferProbability:  offer,
		AcceptProbability: accept,
		ExpectedValue:     ev,
		Risk:              classifyRisk(f.wager, holeWinRate),
		Rationale:         f.rationale(holeWinRate) + "; based on rollouts of the remaining holes",
	}
}

// hole outcome probabilities for rollouts. Pushes are common enough in
// best-ball play to matter for carry-over dynamics.
const pushProbability = 0.12

// runRolloutWorker plays out the round `samples` times. The accept and
// decline branches share each rollout's hole outcomes, so the comparison
// is paired rather than independent.
func runRolloutWorker(f factors, samples int, rng *rand.Rand) workerResult {
	var res workerResult
	winP := f.winProbability()

	for i := 0; i < samples; i++ {
		// Current hole at doubled stakes for the accept branch; declining
		// concedes the current wager outright.
		outcome, carried := playHole(winP, f.wager, f.carryOver, rng)
		accept := 2 * outcome
		decline := -f.wager
		if outcome > 0 {
			res.holeWins++
		}

		// The rest of the round is common to both branches.
		future := 0
		wager := f.wager
		carry := carried
		for h := 1; h < f.remaining; h++ {
			w := wager
			if carry > 0 {
				w = carry
			}
			out, c := playHole(winP, w, carry > 0, rng)
			future += out
			carry = c
		}

		acceptFinal := accept + future
		declineFinal := decline + future
		if acceptFinal > declineFinal {
			res.acceptBetter++
		}
		res.acceptTotal += float64(accept)
		res.samples++
	}
	return res
}

// playHole simulates one hole at the given wager, returning the player's
// quarter delta and the carry-over armed for the next hole (zero when the
// hole was decisive, held rather than doubled when blocked).
func playHole(winP float64, wager int, carryBlocked bool, rng *rand.Rand) (delta, carry int) {
	r := rng.Float64()
	if r < pushProbability {
		if carryBlocked {
			return 0, wager
		}
		return 0, wager * 2
	}
	if r < pushProbability+winP*(1-pushProbability) {
		return wager, 0
	}
	return -wager, 0
}
