// Package cleanup removes generated decks and stale service plans.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DeckPatterns match presentations produced by build.
var DeckPatterns = []string{"*.pptx"}

// Result counts files seen and removed by a sweep.
type Result struct {
	Scanned int
	Deleted int
}

// Sweep removes regular files in dir (not recursive) which match any of the
// patterns and were modified maxAge or more before now. Files disappearing
// in the middle of the sweep are not errors, nor is missing dir.
func Sweep(dir string, patterns []string, maxAge time.Duration, now time.Time) (Result, error) {
	var res Result

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return res, fmt.Errorf("unable to read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && matchAny(e.Name(), patterns) {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	var errs error
	for _, name := range names {
		res.Scanned++
		path := filepath.Join(dir, name)

		fi, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = multierr.Append(errs, err)
			}
			continue
		}
		if now.Sub(fi.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = multierr.Append(errs, err)
			}
			continue
		}
		res.Deleted++
	}
	return res, errs
}

func matchAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Purger drops stored plans not updated since cutoff.
type Purger interface {
	PurgeOlderThan(cutoff time.Time) (int, error)
}

// Options drive periodic cleanup.
type Options struct {
	Dir      string
	Patterns []string
	Interval time.Duration
	DeckTTL  time.Duration
	PlanTTL  time.Duration
}

// Once performs single cleanup cycle. plans may be nil.
func Once(opts Options, plans Purger, now time.Time, log *zap.Logger) error {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DeckPatterns
	}

	res, err := Sweep(opts.Dir, patterns, opts.DeckTTL, now)
	if res.Deleted > 0 {
		log.Info("Old decks removed", zap.String("dir", opts.Dir), zap.Int("deleted", res.Deleted), zap.Int("scanned", res.Scanned))
	} else {
		log.Debug("Nothing to remove", zap.String("dir", opts.Dir), zap.Int("scanned", res.Scanned))
	}

	if plans != nil {
		if _, perr := plans.PurgeOlderThan(now.Add(-opts.PlanTTL)); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	return err
}

// Run repeats cleanup every interval until ctx is done. First cycle runs
// immediately. Cycle errors are logged, they never stop the loop.
func Run(ctx context.Context, opts Options, plans Purger, log *zap.Logger) error {
	if opts.Interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", opts.Interval)
	}
	log = log.Named("cleanup")

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	log.Info("Cleanup loop started", zap.Duration("interval", opts.Interval), zap.Duration("deck_ttl", opts.DeckTTL), zap.Duration("plan_ttl", opts.PlanTTL))
	for {
		if err := Once(opts, plans, time.Now(), log); err != nil {
			log.Error("Cleanup cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			log.Info("Cleanup loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
