// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"svcdeck/config"
	"svcdeck/store"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by build subcommand
	Overwrite   bool
	ServiceDate time.Time

	start         time.Time
	restoreStdLog func()

	storeOnce sync.Once
	store     *store.Store
	storeErr  error
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Store opens plan store on first use.
func (e *LocalEnv) Store() (*store.Store, error) {
	e.storeOnce.Do(func() {
		if e.Cfg == nil {
			e.storeErr = fmt.Errorf("configuration is not loaded")
			return
		}
		e.store, e.storeErr = store.Open(e.Cfg.Store.Path, e.Log)
	})
	return e.store, e.storeErr
}

// Close releases resources opened during program run.
func (e *LocalEnv) Close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
