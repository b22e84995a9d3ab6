package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"svcdeck/pptx"
	"svcdeck/state"
)

func inspectDeck(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	fname, err := singleArg(cmd, "presentation")
	if err != nil {
		return err
	}
	slides, err := pptx.Inspect(fname)
	if err != nil {
		return fmt.Errorf("unable to inspect %s: %w", fname, err)
	}
	env.Log.Debug("Presentation inspected", zap.String("file", fname), zap.Int("slides", len(slides)))

	for i, s := range slides {
		fmt.Fprintf(os.Stdout, "%3d  %s\n", i+1, s.Layout)
		idxs := make([]int, 0, len(s.Texts))
		for idx := range s.Texts {
			idxs = append(idxs, idx)
		}
		slices.Sort(idxs)
		for _, idx := range idxs {
			if len(s.Texts[idx]) == 0 {
				continue
			}
			fmt.Fprintf(os.Stdout, "     [%d] %s\n", idx, strings.ReplaceAll(s.Texts[idx], "\n", " / "))
		}
	}
	return nil
}
