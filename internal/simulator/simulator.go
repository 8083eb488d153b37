package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/wolfgoatpig/internal/course"
	"github.com/lox/wolfgoatpig/internal/game"
	"github.com/lox/wolfgoatpig/internal/randutil"
	"github.com/lox/wolfgoatpig/internal/statistics"
)

// Config holds configuration for running simulations
type Config struct {
	Games        int
	Players      int
	OpponentType string
	BaseWager    int
	Seed         int64
	Timeout      time.Duration
	CourseFile   string // empty uses the built-in default course
	Logger       *log.Logger
}

// Simulator plays full rounds against table archetypes and tracks how one
// player ("Hero") fares over many repetitions.
type Simulator struct {
	config Config
	course *course.Course
}

// New creates a new simulator with the given configuration
func New(config Config) (*Simulator, error) {
	crs := course.Default()
	if config.CourseFile != "" {
		loaded, err := course.Load(config.CourseFile)
		if err != nil {
			return nil, fmt.Errorf("load course: %w", err)
		}
		crs = loaded
	}
	return &Simulator{config: config, course: crs}, nil
}

// Run executes the simulation and returns results
func (s *Simulator) Run() (*statistics.Statistics, string, error) {
	stats := &statistics.Statistics{}

	opponentInfo := s.config.OpponentType
	var opponentMix []string
	if s.config.OpponentType == "mixed" {
		opponentMix = createMixedStyles()
		opponentInfo = fmt.Sprintf("mixed(%s)", strings.Join(opponentMix, ","))
	}

	for round := 0; round < s.config.Games; round++ {
		// Independent seed per round so any round can be replayed
		roundSeed := s.config.Seed + int64(round)

		// Rotate Hero's starting slot to eliminate order bias
		heroSlot := (round % s.config.Players) + 1

		result1, err1 := s.playGameWithTimeout(opponentMix, roundSeed, heroSlot)
		if err1 != nil {
			return nil, "", fmt.Errorf("hang detected on round %d: %w", round+1, err1)
		}

		// Duplicate round from a different starting slot with the same
		// seed, so per-slot variance cancels in aggregate
		swappedSlot := 1
		if heroSlot == 1 {
			swappedSlot = 2
		}
		result2, err2 := s.playGameWithTimeout(opponentMix, roundSeed, swappedSlot)
		if err2 != nil {
			return nil, "", fmt.Errorf("hang detected on duplicate round %d: %w", round+1, err2)
		}

		stats.Add(result1)
		stats.Add(result2)
	}

	if err := stats.Validate(); err != nil {
		return nil, "", fmt.Errorf("statistics validation failed: %w", err)
	}

	return stats, opponentInfo, nil
}

// playGameWithTimeout runs a single round with hang protection
func (s *Simulator) playGameWithTimeout(opponentMix []string, roundSeed int64, heroSlot int) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	resultCh := make(chan statistics.GameResult, 1)

	go func() {
		resultCh <- s.playGame(opponentMix, roundSeed, heroSlot)
	}()

	select {
	case result := <-resultCh:
		return result, nil
	case <-ctx.Done():
		return statistics.GameResult{}, fmt.Errorf("round timed out after %v (seed: %d, slot: %d)",
			s.config.Timeout, roundSeed, heroSlot)
	}
}

const heroID = "hero"

var opponentHandicaps = []float64{7, 11, 15, 19, 23}

// playGame simulates a single 18-hole round
func (s *Simulator) playGame(opponentMix []string, roundSeed int64, heroSlot int) statistics.GameResult {
	rng := randutil.New(roundSeed)

	players := make([]*game.Player, 0, s.config.Players)
	styles := make(map[string]tableStyle, s.config.Players)
	styles[heroID] = styleFor("steady", s.config.Logger)

	oppIndex := 0
	for i := 1; i <= s.config.Players; i++ {
		if i == heroSlot {
			players = append(players, &game.Player{ID: heroID, Name: "Hero", Handicap: 12})
			continue
		}
		id := fmt.Sprintf("opp%d", oppIndex+1)
		players = append(players, &game.Player{
			ID:       id,
			Name:     fmt.Sprintf("Opp%d", oppIndex+1),
			Handicap: opponentHandicaps[oppIndex],
		})
		if s.config.OpponentType == "mixed" {
			styles[id] = styleFor(opponentMix[oppIndex%len(opponentMix)], s.config.Logger)
		} else {
			styles[id] = styleFor(s.config.OpponentType, s.config.Logger)
		}
		oppIndex++
	}

	g, err := game.NewGame(fmt.Sprintf("sim-%d", roundSeed), players, s.config.BaseWager)
	if err != nil {
		s.config.Logger.Error("Failed to create round", "error", err, "seed", roundSeed)
		return statistics.GameResult{NetPoints: 0, Seed: roundSeed, Slot: heroSlot}
	}
	eng := game.NewEngine(g, s.course, s.config.Logger)

	endGameStart, _ := game.EndGameStartHole(s.config.Players)
	var (
		soloHoles     int
		duncanHoles   int
		carriedHoles  int
		endGamePoints int
		maxWager      int
	)

	for !eng.Finished() {
		if g.AwaitingGoatChoice {
			// The Goat takes the captaincy, which is the standard choice
			if err := eng.SelectGoatPosition(1); err != nil {
				s.config.Logger.Error("Goat choice failed", "error", err, "seed", roundSeed)
				break
			}
			continue
		}

		hole := g.CurrentHole
		captain := g.Captain()
		style := styles[captain]

		formation := style.chooseFormation(g, rng)
		mods := style.chooseModifiers(g, formation, rng)
		scores := s.sampleScores(g, hole, rng)

		res, err := eng.CompleteHole(game.CompleteHoleRequest{
			Hole:         hole,
			Rotation:     slices.Clone(g.Rotation),
			CaptainIndex: g.CaptainIndex,
			Formation:    formation,
			Modifiers:    mods,
			GrossScores:  scores,
		})
		if err != nil {
			s.config.Logger.Error("Failed to settle hole", "error", err, "hole", hole, "seed", roundSeed)
			break
		}

		if res.Wager.Final > maxWager {
			maxWager = res.Wager.Final
		}
		if res.Winner == game.WinnerPush {
			carriedHoles++
		}
		if captain == heroID && formation.Kind == game.FormationSolo {
			soloHoles++
			if formation.Duncan {
				duncanHoles++
			}
		}
		if hole >= endGameStart {
			endGamePoints += res.Deltas[heroID]
		}
	}

	ledger := 0
	for _, p := range g.Players {
		ledger += p.Points
	}
	hero := g.PlayerByID(heroID)

	return statistics.GameResult{
		NetPoints:     float64(hero.Points),
		Seed:          roundSeed,
		Slot:          heroSlot,
		LedgerTotal:   ledger,
		SoloHoles:     soloHoles,
		DuncanHoles:   duncanHoles,
		CarriedHoles:  carriedHoles,
		EndGamePoints: float64(endGamePoints),
		MaxHoleWager:  maxWager,
	}
}

// sampleScores draws a gross score per player from a handicap-shaped
// distribution around par.
func (s *Simulator) sampleScores(g *game.Game, hole int, rng *rand.Rand) map[string]int {
	par := s.course.Par(hole)
	scores := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		score := par
		// A handicap of 18 averages a stroke over par per hole
		if rng.Float64() < p.Handicap/18.0 {
			score++
		}
		switch r := rng.Float64(); {
		case r < 0.10:
			score-- // birdie run
		case r > 0.88:
			score++ // blow-up
		}
		if score < par-2 {
			score = par - 2
		}
		scores[p.ID] = score
	}
	return scores
}

// tableStyle parameterises how a captain declares teams and presses bets.
type tableStyle struct {
	soloProb     float64
	duncanProb   float64
	aardvarkProb float64
	doubleProb   float64
	floatProb    float64
	specialProb  float64
	declineProb  float64
}

// chooseFormation declares the hole's teams in the captain's style.
func (st tableStyle) chooseFormation(g *game.Game, rng *rand.Rand) game.TeamConfiguration {
	captain := g.Captain()
	others := make([]string, 0, len(g.Rotation)-1)
	for _, id := range g.Rotation {
		if id != captain {
			others = append(others, id)
		}
	}

	if rng.Float64() < st.soloProb {
		return game.TeamConfiguration{
			Kind:      game.FormationSolo,
			Captain:   captain,
			Opponents: others,
			Duncan:    rng.Float64() < st.duncanProb,
		}
	}

	partner := others[rng.IntN(len(others))]
	teamA := []string{captain, partner}
	var teamB []string
	for _, id := range others {
		if id != partner {
			teamB = append(teamB, id)
		}
	}

	if len(g.Players) >= 5 && rng.Float64() < st.aardvarkProb {
		// Last player in the hitting order takes the Aardvark role
		aardvark := g.Rotation[len(g.Rotation)-1]
		if aardvark != captain && aardvark != partner {
			tossed := rng.Float64() < 0.4
			if !tossed && len(teamA) <= len(teamB) {
				teamA = append(teamA, aardvark)
				teamB = slices.DeleteFunc(teamB, func(id string) bool { return id == aardvark })
			}
			return game.TeamConfiguration{
				Kind:     game.FormationAardvarkJoin,
				TeamA:    teamA,
				TeamB:    teamB,
				Aardvark: aardvark,
				Tossed:   tossed,
			}
		}
	}

	return game.TeamConfiguration{Kind: game.FormationPartners, TeamA: teamA, TeamB: teamB}
}

// chooseModifiers picks the hole's betting actions in the captain's style.
func (st tableStyle) chooseModifiers(g *game.Game, tc game.TeamConfiguration, rng *rand.Rand) game.Modifiers {
	captain := g.Captain()

	if g.Phase == game.EndGame && g.Goat().ID == captain && rng.Float64() < st.specialProb {
		menu := []int{2, 4, 8}
		return game.Modifiers{GoatSpecial: menu[rng.IntN(len(menu))], GoatSpecialBy: captain}
	}

	var mods game.Modifiers
	mods.Doubled = rng.Float64() < st.doubleProb
	if cp := g.PlayerByID(captain); cp != nil && !cp.FloatUsed {
		mods.Float = rng.Float64() < st.floatProb
	}
	if g.Goat().ID == captain {
		mods.OptionDeclined = rng.Float64() < st.declineProb
	}
	return mods
}

// createMixedStyles returns a fixed mix of table styles for consistent testing
func createMixedStyles() []string {
	return []string{"steady", "gambler", "steady", "lone", "timid"}
}

// styleFor returns the style parameters for a named archetype
func styleFor(name string, logger *log.Logger) tableStyle {
	switch name {
	case "steady":
		return tableStyle{soloProb: 0.08, duncanProb: 0.3, aardvarkProb: 0.35, doubleProb: 0.2, floatProb: 0.1, specialProb: 0.2, declineProb: 0.1}
	case "gambler":
		return tableStyle{soloProb: 0.2, duncanProb: 0.6, aardvarkProb: 0.5, doubleProb: 0.5, floatProb: 0.35, specialProb: 0.5, declineProb: 0}
	case "lone":
		return tableStyle{soloProb: 0.55, duncanProb: 0.5, aardvarkProb: 0.2, doubleProb: 0.25, floatProb: 0.2, specialProb: 0.3, declineProb: 0.05}
	case "timid":
		return tableStyle{soloProb: 0.02, duncanProb: 0, aardvarkProb: 0.2, doubleProb: 0.05, floatProb: 0.02, specialProb: 0.05, declineProb: 0.5}
	case "rand":
		return tableStyle{soloProb: 0.25, duncanProb: 0.5, aardvarkProb: 0.5, doubleProb: 0.5, floatProb: 0.5, specialProb: 0.5, declineProb: 0.5}
	default:
		logger.Fatal("Unknown opponent type", "type", name)
		return tableStyle{}
	}
}

// RunSimulation is a convenience function for running a simulation with basic parameters
func RunSimulation(games, players int, opponentType string, baseWager int, seed int64, timeout time.Duration, logger *log.Logger) (*statistics.Statistics, string, error) {
	config := Config{
		Games:        games,
		Players:      players,
		OpponentType: opponentType,
		BaseWager:    baseWager,
		Seed:         seed,
		Timeout:      timeout,
		Logger:       logger,
	}

	simulator, err := New(config)
	if err != nil {
		return nil, "", err
	}
	return simulator.Run()
}

// FormatSummary renders a comprehensive summary of simulation results.
func FormatSummary(stats *statistics.Statistics, opponentType string) string {
	mean := stats.Mean()
	median := stats.Median()
	stdDev := stats.StdDev()
	stdErr := stats.StdError()
	low, high := stats.ConfidenceInterval95()
	p25 := stats.Percentile(0.25)
	p75 := stats.Percentile(0.75)
	p95 := stats.Percentile(0.95)
	p05 := stats.Percentile(0.05)

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== FINAL RESULTS vs %s table ===\n", opponentType)
	fmt.Fprintf(&b, "Rounds played: %d\n", stats.Games)

	fmt.Fprintf(&b, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(&b, "Mean: %.4f quarters/round\n", mean)
	fmt.Fprintf(&b, "Median: %.4f quarters/round\n", median)
	fmt.Fprintf(&b, "Std Dev: %.4f quarters\n", stdDev)
	fmt.Fprintf(&b, "Std Error: %.4f quarters\n", stdErr)
	fmt.Fprintf(&b, "95%% CI: [%.4f, %.4f] quarters/round\n", low, high)
	fmt.Fprintf(&b, "Percentiles: P5=%.3f, P25=%.3f, P75=%.3f, P95=%.3f\n", p05, p25, p75, p95)

	fmt.Fprintf(&b, "\n=== PROFIT SOURCE ANALYSIS ===\n")
	winPct := float64(stats.WinningRounds) / float64(stats.Games) * 100
	fmt.Fprintf(&b, "Winning rounds: %d of %d (%.1f%%)\n", stats.WinningRounds, stats.Games, winPct)

	meanNormal := stats.NormalPoints / float64(stats.Games)
	meanEndGame := stats.EndGamePoints / float64(stats.Games)
	fmt.Fprintf(&b, "Regular rotation: %.2f quarters/round avg\n", meanNormal)
	fmt.Fprintf(&b, "End game: %.2f quarters/round avg\n", meanEndGame)
	fmt.Fprintf(&b, "Sanity check: %.2f + %.2f = %.2f (should equal %.2f)\n",
		meanNormal, meanEndGame, meanNormal+meanEndGame, mean)

	fmt.Fprintf(&b, "\n=== WAGER ESCALATION ===\n")
	fmt.Fprintf(&b, "Max hole wager observed: %d quarters\n", stats.MaxWager)
	fmt.Fprintf(&b, "Solo holes: %d (%d Duncan), carried holes: %d\n",
		stats.SoloHoles, stats.DuncanHoles, stats.CarriedHoles)
	fmt.Fprintf(&b, "Big-wager rounds (>=8 quarters on a hole): %d rounds (%.1f%%), %.2f quarters total\n",
		stats.BigWagers, float64(stats.BigWagers)/float64(stats.Games)*100, stats.BigWagersPts)

	fmt.Fprintf(&b, "\n=== STARTING SLOT ANALYSIS ===\n")
	for slot := 1; slot <= 6; slot++ {
		ss := stats.SlotResults[slot]
		if ss.Games > 0 {
			fmt.Fprintf(&b, "Slot %d: %d rounds, %.3f quarters/round\n", slot, ss.Games, stats.SlotMean(slot))
		}
	}
	return b.String()
}

// PrintSummary prints the simulation summary to stdout.
func PrintSummary(stats *statistics.Statistics, opponentType string) {
	fmt.Print(FormatSummary(stats, opponentType))
}
