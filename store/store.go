// Package store keeps service plans in a SQLite database, so plans prepared
// by one command (plan init, lyrics) can be built by another.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"svcdeck/plan"
)

// Memory opens private in-memory database.
const Memory = ":memory:"

var ErrNotFound = errors.New("plan not found")

const (
	createTable = `CREATE TABLE IF NOT EXISTS plans (
	id      TEXT PRIMARY KEY,
	created INTEGER NOT NULL,
	updated INTEGER NOT NULL,
	title   TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL
)`
	createIndex = `CREATE INDEX IF NOT EXISTS plans_updated ON plans(updated)`
)

// Summary is a listing entry.
type Summary struct {
	ID          string
	SermonTitle string
	Created     time.Time
	Updated     time.Time
}

// Store is a plan repository. Single connection is shared and serialized, so
// Store is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	log  *zap.Logger
}

// Open opens (creating when necessary) database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == Memory {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("unable to create store directory: %w", err)
		}
		flags = append(flags, sqlite.OpenWAL)
	}

	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open store %s: %w", path, err)
	}
	for _, q := range []string{createTable, createIndex} {
		if err := sqlitex.Execute(conn, q, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("unable to prepare store schema: %w", err)
		}
	}

	s := &Store{conn: conn, log: log.Named("store")}
	s.log.Debug("Store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Create assigns new time ordered id to the plan and stores it.
func (s *Store) Create(p *plan.ServicePlan, now time.Time) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("unable to generate plan id: %w", err)
	}
	p.ID = id.String()
	p.Created, p.Updated = now, now

	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("unable to encode plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = sqlitex.Execute(s.conn,
		`INSERT INTO plans (id, created, updated, title, payload) VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{p.ID, now.UnixMilli(), now.UnixMilli(), p.SermonTitle, string(payload)}})
	if err != nil {
		return "", fmt.Errorf("unable to store plan: %w", err)
	}
	s.log.Debug("Plan created", zap.String("id", p.ID))
	return p.ID, nil
}

// Get returns stored plan.
func (s *Store) Get(id string) (*plan.ServicePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		found            bool
		payload          string
		created, updated int64
	)
	err := sqlitex.Execute(s.conn, `SELECT payload, created, updated FROM plans WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				payload = stmt.ColumnText(0)
				created = stmt.ColumnInt64(1)
				updated = stmt.ColumnInt64(2)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read plan %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p := &plan.ServicePlan{}
	if err := json.Unmarshal([]byte(payload), p); err != nil {
		return nil, fmt.Errorf("unable to decode plan %s: %w", id, err)
	}
	p.ID = id
	p.Created = time.UnixMilli(created)
	p.Updated = time.UnixMilli(updated)
	return p, nil
}

// Save replaces content of existing plan.
func (s *Store) Save(p *plan.ServicePlan, now time.Time) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("unable to encode plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = sqlitex.Execute(s.conn, `UPDATE plans SET updated = ?, title = ?, payload = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{now.UnixMilli(), p.SermonTitle, string(payload), p.ID}})
	if err != nil {
		return fmt.Errorf("unable to update plan %s: %w", p.ID, err)
	}
	if s.conn.Changes() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	p.Updated = now
	return nil
}

// Delete removes plan.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sqlitex.Execute(s.conn, `DELETE FROM plans WHERE id = ?`, &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
		return fmt.Errorf("unable to delete plan %s: %w", id, err)
	}
	if s.conn.Changes() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns all plans, oldest first.
func (s *Store) List() ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Summary
	err := sqlitex.Execute(s.conn, `SELECT id, title, created, updated FROM plans ORDER BY created, id`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Summary{
				ID:          stmt.ColumnText(0),
				SermonTitle: stmt.ColumnText(1),
				Created:     time.UnixMilli(stmt.ColumnInt64(2)),
				Updated:     time.UnixMilli(stmt.ColumnInt64(3)),
			})
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("unable to list plans: %w", err)
	}
	return out, nil
}

// PurgeOlderThan deletes plans last updated at or before cutoff and returns
// their number.
func (s *Store) PurgeOlderThan(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sqlitex.Execute(s.conn, `DELETE FROM plans WHERE updated <= ?`,
		&sqlitex.ExecOptions{Args: []any{cutoff.UnixMilli()}}); err != nil {
		return 0, fmt.Errorf("unable to purge plans: %w", err)
	}
	n := s.conn.Changes()
	if n > 0 {
		s.log.Info("Expired plans purged", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
