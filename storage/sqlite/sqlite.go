// Package sqlite is a Storage in a SQLite transitions table.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS transitions (
	run TEXT NOT NULL,
	seq INTEGER NOT NULL,
	day INTEGER NOT NULL,
	hour INTEGER NOT NULL,
	agent INTEGER NOT NULL,
	cond TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	dwell INTEGER NOT NULL,
	cause TEXT NOT NULL,
	PRIMARY KEY (run, seq)
);

CREATE INDEX IF NOT EXISTS idx_transitions_agent ON transitions(run, agent);
`

// Storage keeps transitions in one table keyed by (run, seq).
type Storage struct {
	Debug    bool
	filename string
	db       *sqlx.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		util.Logger().Debugf("sqlite storage."+format, args...)
	}
}

func (s *Storage) Open(ctx context.Context) error {
	db, err := sqlx.Open("sqlite", s.filename+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) MakeRun(ctx context.Context, run string) error {
	s.logf("MakeRun %s", run)
	if _, err := s.db.ExecContext(ctx, "INSERT INTO runs (run) VALUES (?)", run); err != nil {
		return fmt.Errorf("run %s: %w", run, err)
	}
	return nil
}

func (s *Storage) RemRun(ctx context.Context, run string) error {
	s.logf("RemRun %s", run)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transitions WHERE run = ?", run); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run = ?", run); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Storage) Read(ctx context.Context, run string) ([]*storage.Transition, error) {
	s.logf("Read %s", run)
	var ts []*storage.Transition
	err := s.db.SelectContext(ctx, &ts,
		`SELECT seq, day, hour, agent, cond, from_state, to_state, dwell, cause
		 FROM transitions WHERE run = ? ORDER BY seq`, run)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, nil
	}
	return ts, nil
}

func (s *Storage) Write(ctx context.Context, run string, ts []*storage.Transition) error {
	s.logf("Write %s %d", run, len(ts))
	if len(ts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO runs (run) VALUES (?)", run); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT OR REPLACE INTO transitions
		(run, seq, day, hour, agent, cond, from_state, to_state, dwell, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range ts {
		if _, err := stmt.ExecContext(ctx, run, t.Seq, t.Day, t.Hour, t.Agent, t.Cond, t.From, t.To, t.Dwell, t.Cause); err != nil {
			return fmt.Errorf("transition %d: %w", t.Seq, err)
		}
	}
	return tx.Commit()
}
