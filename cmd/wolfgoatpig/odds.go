package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/wolfgoatpig/cmd/wolfgoatpig/shared"
	"github.com/lox/wolfgoatpig/internal/odds"
)

// OddsCmd estimates betting odds for a player from a snapshot file.
type OddsCmd struct {
	Snapshot string `arg:"" help:"Snapshot JSON file ('-' for stdin)"`
	Player   string `kong:"required,help='Player ID to estimate for'"`
	Deep     bool   `kong:"help='Run Monte Carlo rollouts instead of the fast heuristic'"`
	Rollouts int    `kong:"default='5000',help='Rollout count for deep mode'"`
	Seed     *int64 `kong:"help='Random seed for reproducible results'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

var (
	// Style definitions
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	probStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	evStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("14"))

	riskStyles = map[odds.RiskLevel]lipgloss.Style{
		odds.RiskLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		odds.RiskMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		odds.RiskHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

func (c *OddsCmd) Run() error {
	logger := shared.SetupLogger("warn", c.Debug)

	snap, err := c.readSnapshot()
	if err != nil {
		return err
	}

	var opts []odds.Option
	if c.Seed != nil {
		opts = append(opts, odds.WithSeed(*c.Seed))
	}
	engine := odds.New(logger, opts...)

	start := time.Now()
	var analysis odds.BettingAnalysis
	if c.Deep {
		analysis = engine.EstimateDeep(context.Background(), snap, c.Player, c.Rollouts)
	} else {
		analysis = engine.Estimate(snap, c.Player)
	}
	duration := time.Since(start)

	if analysis.Unavailable {
		fmt.Fprintf(os.Stderr, "estimate unavailable: %s\n", analysis.Reason)
		os.Exit(1)
	}

	displayAnalysis(snap, c.Player, analysis, duration)
	return nil
}

func (c *OddsCmd) readSnapshot() (odds.Snapshot, error) {
	var r io.Reader = os.Stdin
	if c.Snapshot != "-" {
		f, err := os.Open(c.Snapshot)
		if err != nil {
			return odds.Snapshot{}, fmt.Errorf("opening snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var snap odds.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return odds.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}

func displayAnalysis(snap odds.Snapshot, playerID string, a odds.BettingAnalysis, duration time.Duration) {
	fmt.Printf("%s\n", headerStyle.Render(fmt.Sprintf("hole %d of %d, wager %d quarters",
		snap.Hole, snap.TotalHoles, snap.CurrentWager)))
	fmt.Printf("\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n",
		labelStyle.Render("player"), headerStyle.Render(playerID))
	fmt.Fprintf(w, "%s\t%s\n",
		labelStyle.Render("offer double"), probStyle.Render(fmt.Sprintf("%.1f%%", a.OfferProbability*100)))
	fmt.Fprintf(w, "%s\t%s\n",
		labelStyle.Render("accept double"), probStyle.Render(fmt.Sprintf("%.1f%%", a.AcceptProbability*100)))
	fmt.Fprintf(w, "%s\t%s\n",
		labelStyle.Render("expected value"), evStyle.Render(fmt.Sprintf("%+.2f quarters", a.ExpectedValue)))
	fmt.Fprintf(w, "%s\t%s\n",
		labelStyle.Render("risk"), riskStyles[a.Risk].Render(string(a.Risk)))
	w.Flush()

	fmt.Printf("\n%s\n", a.Rationale)
	fmt.Printf("\nestimated in %v\n", duration.Truncate(time.Millisecond))
}
