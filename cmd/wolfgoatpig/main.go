package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the game server"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate full rounds against table archetypes"`
	Odds     OddsCmd          `cmd:"" help:"Estimate betting odds from a game snapshot"`
}

func main() {
	// .env is optional; flags and real env win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		os.Stderr.WriteString("warning: could not load .env: " + err.Error() + "\n")
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wolfgoatpig"),
		kong.Description("Wolf Goat Pig betting game engine and odds estimator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
