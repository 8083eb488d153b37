package main

import (
	"fmt"
	"time"

	"github.com/lox/wolfgoatpig/cmd/wolfgoatpig/shared"
	"github.com/lox/wolfgoatpig/internal/fileutil"
	"github.com/lox/wolfgoatpig/internal/simulator"
)

// SimulateCmd runs batches of full rounds against table archetypes.
type SimulateCmd struct {
	Games     int    `kong:"default='1000',help='Number of rounds to simulate'"`
	Players   int    `kong:"default='4',help='Players per round (4-6)'"`
	Opponent  string `kong:"default='steady',help='Table archetype: steady, gambler, lone, timid, rand, mixed'"`
	BaseWager int    `kong:"default='1',help='Base wager in quarters'"`
	Seed      int64  `kong:"default='0',help='RNG seed (0 for time-based)'"`
	TimeoutMs int    `kong:"default='5000',help='Per-round hang timeout in milliseconds'"`
	Course    string `kong:"help='Course YAML file (defaults to the built-in course)'"`
	Output    string `kong:"help='Write the summary report to a file as well'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}

	logger := shared.SetupLogger("warn", c.Debug)

	fmt.Printf("Starting simulation: %d rounds, %d players vs %s table (seed: %d)\n",
		c.Games, c.Players, c.Opponent, c.Seed)

	sim, err := simulator.New(simulator.Config{
		Games:        c.Games,
		Players:      c.Players,
		OpponentType: c.Opponent,
		BaseWager:    c.BaseWager,
		Seed:         c.Seed,
		Timeout:      time.Duration(c.TimeoutMs) * time.Millisecond,
		CourseFile:   c.Course,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	stats, opponentInfo, err := sim.Run()
	if err != nil {
		return err
	}
	duration := time.Since(start)

	summary := simulator.FormatSummary(stats, opponentInfo)
	fmt.Print(summary)

	if c.Output != "" {
		if err := fileutil.WriteFileAtomic(c.Output, []byte(summary), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("\nReport written to %s\n", c.Output)
	}

	roundsPerSec := float64(stats.Games) / duration.Seconds()
	fmt.Printf("\nTotal time: %v (%.1f rounds/sec)\n", duration.Round(time.Millisecond), roundsPerSec)
	return nil
}
