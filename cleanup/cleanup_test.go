package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	touch(t, filepath.Join(dir, "20250302_old.pptx"), now.Add(-2*time.Hour))
	touch(t, filepath.Join(dir, "20250302_fresh.pptx"), now.Add(-10*time.Minute))
	touch(t, filepath.Join(dir, "notes.txt"), now.Add(-5*time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "nested.pptx"), 0755); err != nil {
		t.Fatal(err)
	}

	res, err := Sweep(dir, DeckPatterns, time.Hour, now)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if res.Scanned != 2 || res.Deleted != 1 {
		t.Errorf("Sweep() = %+v, want 2 scanned, 1 deleted", res)
	}

	for name, want := range map[string]bool{
		"20250302_old.pptx":   false,
		"20250302_fresh.pptx": true,
		"notes.txt":           true,
		"nested.pptx":         true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != want {
			t.Errorf("%s exists = %v, want %v", name, exists, want)
		}
	}
}

func TestSweep_AgeBoundary(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().Truncate(time.Second)

	touch(t, filepath.Join(dir, "exact.pptx"), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, "younger.pptx"), now.Add(-time.Hour+time.Second))

	res, err := Sweep(dir, DeckPatterns, time.Hour, now)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if res.Deleted != 1 {
		t.Errorf("Sweep() = %+v, want 1 deleted", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "exact.pptx")); !os.IsNotExist(err) {
		t.Errorf("file aged exactly TTL must be removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "younger.pptx")); err != nil {
		t.Errorf("file younger than TTL must be kept: %v", err)
	}
}

func TestSweep_MissingDir(t *testing.T) {
	res, err := Sweep(filepath.Join(t.TempDir(), "absent"), DeckPatterns, time.Hour, time.Now())
	if err != nil {
		t.Errorf("Sweep() error = %v", err)
	}
	if res != (Result{}) {
		t.Errorf("Sweep() = %+v, want zero", res)
	}
}

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePurger) PurgeOlderThan(cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 0, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestOnce(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	p := &fakePurger{}
	opts := Options{Dir: t.TempDir(), DeckTTL: time.Hour, PlanTTL: 6 * time.Hour}

	if err := Once(opts, p, now, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Once() error = %v", err)
	}
	if len(p.cutoffs) != 1 || !p.cutoffs[0].Equal(now.Add(-6*time.Hour)) {
		t.Errorf("purge cutoffs = %v", p.cutoffs)
	}

	p.err = errors.New("boom")
	if err := Once(opts, p, now, zaptest.NewLogger(t)); !errors.Is(err, p.err) {
		t.Errorf("Once() error = %v, want %v", err, p.err)
	}

	if err := Once(opts, nil, now, zaptest.NewLogger(t)); err != nil {
		t.Errorf("Once() without store error = %v", err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := &fakePurger{}
	opts := Options{Dir: t.TempDir(), Interval: 5 * time.Millisecond, DeckTTL: time.Hour, PlanTTL: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, opts, p, zaptest.NewLogger(t)) }()

	deadline := time.After(5 * time.Second)
	for p.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("cleanup loop did not repeat")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestRun_BadInterval(t *testing.T) {
	if err := Run(context.Background(), Options{}, nil, zaptest.NewLogger(t)); err == nil {
		t.Error("Run() expected error for zero interval")
	}
}
