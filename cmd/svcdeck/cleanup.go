package main

import (
	"context"
	"time"

	cli "github.com/urfave/cli/v3"

	"svcdeck/cleanup"
	"svcdeck/state"
)

func runCleanup(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	s, err := env.Store()
	if err != nil {
		return err
	}

	cfg := env.Cfg.Cleanup
	opts := cleanup.Options{
		Dir:      cfg.OutputDir,
		Patterns: cleanup.DeckPatterns,
		Interval: cfg.Interval,
		DeckTTL:  cfg.DeckTTL,
		PlanTTL:  cfg.PlanTTL,
	}
	if cmd.Bool("loop") {
		return cleanup.Run(ctx, opts, s, env.Log)
	}
	return cleanup.Once(opts, s, time.Now(), env.Log.Named("cleanup"))
}
