// Package odds estimates betting-decision probabilities for a game in
// progress: how likely an opponent is to offer a double, whether accepting
// one is the positive-expected-value choice, and the expected value in
// wager units. A fast heuristic answers interactively; a Monte Carlo deep
// mode replays the remaining holes for higher fidelity.
//
// Estimation is read-only and failure-tolerant: a bad snapshot or a blown
// deadline degrades to an explicit unavailable result, never an error that
// could block hole settlement.
package odds

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/wolfgoatpig/internal/game"
)

// PlayerState is the slice of player state the estimator needs.
type PlayerState struct {
	ID       string
	Points   int
	Handicap float64
}

// Snapshot is a read-only view of a game at a betting decision point.
type Snapshot struct {
	Hole         int
	TotalHoles   int
	Phase        game.Phase
	CurrentWager int
	CarryOver    bool
	Rotation     []string
	Captain      string
	Players      []PlayerState
}

// SnapshotFromGame builds an estimator snapshot from game state.
func SnapshotFromGame(g *game.Game) Snapshot {
	snap := Snapshot{
		Hole:       g.CurrentHole,
		TotalHoles: game.TotalHoles,
		Phase:      g.Phase,
		CarryOver:  g.CarryOver > 0,
		Rotation:   append([]string(nil), g.Rotation...),
		Captain:    g.Captain(),
	}
	snap.CurrentWager = game.NextWager(g, 0).StartingWager
	for _, p := range g.Players {
		snap.Players = append(snap.Players, PlayerState{ID: p.ID, Points: p.Points, Handicap: p.Handicap})
	}
	return snap
}

// RiskLevel is a coarse classification of a betting decision.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BettingAnalysis is the estimator's answer for one decision point. When
// Unavailable is set the other fields are zero and Reason explains why.
type BettingAnalysis struct {
	OfferProbability  float64
	AcceptProbability float64
	ExpectedValue     float64
	Risk              RiskLevel
	Rationale         string
	Unavailable       bool
	Reason            string
}

// Engine estimates betting odds from game snapshots.
type Engine struct {
	logger      *log.Logger
	clock       quartz.Clock
	seed        int64
	deepTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the clock, letting tests control the deep-mode
// deadline.
func WithClock(clock quartz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithSeed fixes the rollout seed for reproducible estimates.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithDeepTimeout bounds how long a deep estimate may run.
func WithDeepTimeout(d time.Duration) Option {
	return func(e *Engine) { e.deepTimeout = d }
}

// New creates an odds engine.
func New(logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:      logger.WithPrefix("odds"),
		clock:       quartz.NewReal(),
		seed:        time.Now().UnixNano(),
		deepTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate produces a fast heuristic analysis from the dominant factors:
// score deficit, remaining holes, handicap edge and the current wager.
func (e *Engine) Estimate(snap Snapshot, playerID string) BettingAnalysis {
	f, err := deriveFactors(snap, playerID)
	if err != nil {
		return unavailable(err)
	}

	winP := f.winProbability()
	offer := clamp01(0.25 + 0.5*(1-winP) + 0.15*f.late + 0.1*boolTo(f.carryOver))
	// Accepting a stake double is +EV above roughly 25% equity: declining
	// forfeits one wager, accepting risks two for a shot at two.
	accept := clamp01(logistic(12 * (winP - 0.25)))
	ev := float64(2*f.wager) * (2*winP - 1)

	return BettingAnalysis{
		OfferProbability:  offer,
		AcceptProbability: accept,
		ExpectedValue:     ev,
		Risk:              classifyRisk(f.wager, winP),
		Rationale:         f.rationale(winP),
	}
}

// factors are the heuristic inputs derived from a snapshot.
type factors struct {
	player    PlayerState
	deficit   int     // quarters behind the leader, >= 0
	remaining int     // holes left including the current one
	late      float64 // 0 early round, approaching 1 on the last hole
	edge      float64 // handicap advantage over the field average
	wager     int
	carryOver bool
	isCaptain bool
}

func deriveFactors(snap Snapshot, playerID string) (factors, error) {
	if snap.Hole < 1 || snap.Hole > snap.TotalHoles || snap.TotalHoles < 1 {
		return factors{}, fmt.Errorf("snapshot hole %d outside round of %d", snap.Hole, snap.TotalHoles)
	}
	if snap.CurrentWager < 1 {
		return factors{}, fmt.Errorf("snapshot wager %d is not positive", snap.CurrentWager)
	}
	if len(snap.Players) < game.MinPlayers {
		return factors{}, fmt.Errorf("snapshot has %d players", len(snap.Players))
	}
	var player *PlayerState
	leader := snap.Players[0].Points
	handicapSum := 0.0
	for i := range snap.Players {
		p := &snap.Players[i]
		if p.ID == playerID {
			player = p
		}
		if p.Points > leader {
			leader = p.Points
		}
		handicapSum += p.Handicap
	}
	if player == nil {
		return factors{}, fmt.Errorf("player %s not in snapshot", playerID)
	}
	fieldAvg := (handicapSum - player.Handicap) / float64(len(snap.Players)-1)
	remaining := snap.TotalHoles - snap.Hole + 1
	return factors{
		player:    *player,
		deficit:   leader - player.Points,
		remaining: remaining,
		late:      1 - float64(remaining)/float64(snap.TotalHoles),
		edge:      fieldAvg - player.Handicap,
		wager:     snap.CurrentWager,
		carryOver: snap.CarryOver,
		isCaptain: snap.Captain == playerID,
	}, nil
}

// winProbability estimates the player's chance of winning the current hole
// for their side, from handicap edge with a small captaincy bump.
func (f factors) winProbability() float64 {
	p := 0.5 + 0.035*f.edge
	if f.isCaptain {
		p += 0.03 // captain picks the partner, a real edge
	}
	return clampRange(p, 0.05, 0.95)
}

// rationale names the dominant factors in plain language.
func (f factors) rationale(winP float64) string {
	var parts []string
	switch {
	case f.deficit >= 2*f.remaining:
		parts = append(parts, fmt.Sprintf("%d quarters behind with %d holes left favours gambling", f.deficit, f.remaining))
	case f.deficit > 0:
		parts = append(parts, fmt.Sprintf("%d quarters behind the leader", f.deficit))
	default:
		parts = append(parts, "leading or level on quarters")
	}
	if f.carryOver {
		parts = append(parts, "carried-over wager raises the stakes")
	}
	if f.remaining <= 3 {
		parts = append(parts, fmt.Sprintf("only %d holes remain to recover losses", f.remaining))
	}
	switch {
	case winP >= 0.55:
		parts = append(parts, "handicap edge over the field")
	case winP <= 0.45:
		parts = append(parts, "handicap deficit against the field")
	}
	return strings.Join(parts, "; ")
}

func classifyRisk(wager int, winP float64) RiskLevel {
	switch {
	case wager >= 8 || winP < 0.35:
		return RiskHigh
	case wager >= 4 || winP < 0.45:
		return RiskMedium
	default:
		return RiskLow
	}
}

func unavailable(err error) BettingAnalysis {
	return BettingAnalysis{Unavailable: true, Reason: err.Error(), Risk: RiskHigh}
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func boolTo(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
