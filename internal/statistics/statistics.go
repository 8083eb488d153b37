package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult represents the outcome of a single simulated round for the
// tracked player.
type GameResult struct {
	NetPoints     float64 // Net quarters won/lost over the round
	Seed          int64   // RNG seed for this round (for replay)
	Slot          int     // Tracked player's starting rotation slot (1-6)
	LedgerTotal   int     // Sum of all players' final points, must be zero
	SoloHoles     int     // Holes the tracked player played solo as captain
	DuncanHoles   int     // Solo holes declared before any shot, paid 3-for-2
	CarriedHoles  int     // Holes that pushed and carried the wager forward
	EndGamePoints float64 // Quarters won/lost during the end-game phase
	MaxHoleWager  int     // Largest single-hole wager seen in the round
}

// SlotStats tracks statistics for a specific starting rotation slot
type SlotStats struct {
	Games   int
	SumPts  float64
	SumPts2 float64
}

// Statistics tracks comprehensive simulation statistics
type Statistics struct {
	Games   int
	SumPts  float64
	SumPts2 float64   // Sum of squares for variance calculation
	Values  []float64 // Store all values for median/percentile calculation

	// Phase analytics - track ALL results, not just winning rounds
	WinningRounds  int     // Rounds the tracked player finished positive
	SoloHoles      int     // Total captain-solo holes across all rounds
	DuncanHoles    int     // Total pre-shot solo holes across all rounds
	CarriedHoles   int     // Total carried (pushed) holes across all rounds
	NormalPoints   float64 // Quarters from the regular-rotation phase
	EndGamePoints  float64 // Quarters from the end-game phase
	AllPoints      float64 // Total quarters for sanity check
	LedgerMismatch int     // Rounds whose player points did not sum to zero

	// Rotation slot analytics
	SlotResults [7]SlotStats // Index 0 unused, 1-6 for starting slots

	// Wager analytics
	MaxWager     int     // Largest single-hole wager observed
	BigWagers    int     // Rounds that reached a hole wager >= 8 quarters
	BigWagersPts float64 // Quarters from those rounds
}

// Mean returns the arithmetic mean of all results in quarters per round
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumPts / float64(s.Games)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumPts2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	se := s.StdError()
	margin := 1.96 * se // 95% confidence
	return mean - margin, mean + margin
}

// Add incorporates a new round result into the statistics
func (s *Statistics) Add(result GameResult) {
	pts := result.NetPoints
	s.Games++
	s.SumPts += pts
	s.SumPts2 += pts * pts
	s.Values = append(s.Values, pts)

	if pts > 0 {
		s.WinningRounds++
	}
	if result.LedgerTotal != 0 {
		s.LedgerMismatch++
	}

	s.SoloHoles += result.SoloHoles
	s.DuncanHoles += result.DuncanHoles
	s.CarriedHoles += result.CarriedHoles

	// Track phase buckets (wins and losses both)
	s.EndGamePoints += result.EndGamePoints
	s.NormalPoints += pts - result.EndGamePoints
	s.AllPoints += pts

	// Track by starting rotation slot
	slot := result.Slot
	if slot >= 1 && slot <= 6 {
		s.SlotResults[slot].Games++
		s.SlotResults[slot].SumPts += pts
		s.SlotResults[slot].SumPts2 += pts * pts
	}

	// Track wager escalation
	if result.MaxHoleWager > s.MaxWager {
		s.MaxWager = result.MaxHoleWager
	}
	if result.MaxHoleWager >= 8 {
		s.BigWagers++
		s.BigWagersPts += pts
	}
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// SlotMean returns the mean result for a specific starting slot (1-6)
func (s *Statistics) SlotMean(slot int) float64 {
	if slot < 1 || slot > 6 {
		return 0
	}
	ss := s.SlotResults[slot]
	if ss.Games == 0 {
		return 0
	}
	return ss.SumPts / float64(ss.Games)
}

// IsLedgerBalanced checks if the accounting is consistent
func (s *Statistics) IsLedgerBalanced() bool {
	return s.LedgerMismatch == 0 &&
		math.Abs(s.AllPoints-s.NormalPoints-s.EndGamePoints) <= 1e-6
}

// Validate performs comprehensive validation of statistics data
func (s *Statistics) Validate() error {
	// Every round's points must sum to zero across the table
	if s.LedgerMismatch > 0 {
		return fmt.Errorf("ledger mismatch: %d of %d rounds did not sum to zero",
			s.LedgerMismatch, s.Games)
	}

	if math.Abs(s.AllPoints-s.NormalPoints-s.EndGamePoints) > 1e-6 {
		return fmt.Errorf("phase bucket mismatch: AllPoints=%.6f, NormalPoints=%.6f, EndGamePoints=%.6f",
			s.AllPoints, s.NormalPoints, s.EndGamePoints)
	}

	// Check that round count is positive
	if s.Games <= 0 {
		return fmt.Errorf("invalid round count: %d", s.Games)
	}

	// Check that values array matches round count
	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match round count (%d)",
			len(s.Values), s.Games)
	}

	if s.WinningRounds > s.Games {
		return fmt.Errorf("winning rounds (%d) exceeds total rounds (%d)", s.WinningRounds, s.Games)
	}

	// A Duncan is a solo declared early, so it can never outnumber solos
	if s.DuncanHoles > s.SoloHoles {
		return fmt.Errorf("duncan holes (%d) exceeds solo holes (%d)", s.DuncanHoles, s.SoloHoles)
	}

	// Check slot data consistency
	totalSlotGames := 0
	for slot := 1; slot <= 6; slot++ {
		totalSlotGames += s.SlotResults[slot].Games
	}
	if totalSlotGames != s.Games {
		return fmt.Errorf("slot games total (%d) does not match total rounds (%d)",
			totalSlotGames, s.Games)
	}

	return nil
}
