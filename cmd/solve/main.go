// solve computes the value table and policy for a variant and writes them
// to the data path (or the path given as the only argument).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/yahtzee/cache"
	"github.com/domino14/yahtzee/config"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/solution"
	"github.com/domino14/yahtzee/solver"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("solve-failed")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	v, err := scoring.VariantByName(cfg.GetString(config.ConfigVariant))
	if err != nil {
		return err
	}
	model, err := cache.Model(cfg, v)
	if err != nil {
		return err
	}
	path := cache.SolutionPath(cfg, v)
	if args := cfg.Args(); len(args) > 0 {
		path = args[0]
	}

	sol, err := cache.Solve(ctx, cfg, model)
	if err != nil {
		return err
	}
	if sol.Status != solver.StatusConverged {
		// interrupted or capped; nothing worth saving
		return fmt.Errorf("solve %s after %d sweep(s)", sol.Status, sol.Sweeps)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := solution.Save(path, sol); err != nil {
		return err
	}
	fmt.Printf("%s: expected score of a new game %.6f\n", v.Name, sol.Table.GameValue())
	return nil
}
