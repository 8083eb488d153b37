package main

import (
	"fmt"
	"time"

	"github.com/lox/wolfgoatpig/cmd/wolfgoatpig/shared"
	"github.com/lox/wolfgoatpig/internal/course"
	"github.com/lox/wolfgoatpig/internal/odds"
	"github.com/lox/wolfgoatpig/internal/server"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Config    string `kong:"default='wolfgoatpig.hcl',help='Path to HCL configuration file'"`
	Addr      string `kong:"help='Server address (overrides config)'"`
	Port      int    `kong:"help='Server port (overrides config)'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	BaseWager int    `kong:"help='Default base wager in quarters (overrides config)'"`
	Course    string `kong:"help='Course YAML file (overrides config)'"`
	Seed      *int64 `kong:"help='Deterministic odds seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags override file settings
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.BaseWager != 0 {
		cfg.Game.BaseWager = c.BaseWager
	}
	if c.Course != "" {
		cfg.Game.CourseFile = c.Course
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel, c.Debug)

	crs := course.Default()
	if cfg.Game.CourseFile != "" {
		crs, err = course.Load(cfg.Game.CourseFile)
		if err != nil {
			return fmt.Errorf("loading course: %w", err)
		}
		logger.Info("Loaded course", "file", cfg.Game.CourseFile)
	}

	var oddsOpts []odds.Option
	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic odds seed", "seed", seed)
	}
	oddsOpts = append(oddsOpts, odds.WithSeed(seed))

	games := server.NewGameService(logger, cfg.Game, crs, odds.New(logger, oddsOpts...))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := server.NewServer(addr, games, logger)

	logger.Info("Starting Wolf Goat Pig server",
		"address", addr,
		"base_wager", cfg.Game.BaseWager,
	)

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		return srv.Stop()
	case err := <-serverErr:
		return err
	}
}
