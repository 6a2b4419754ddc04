// Package history persists tool run records in the shared SQLite database.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

// Record is one persisted tool run
type Record struct {
	ID        string    `db:"id" json:"id"`
	Tool      string    `db:"tool" json:"tool"`
	Command   string    `db:"command" json:"command"`
	ExitCode  int       `db:"exit_code" json:"exit_code"`
	LinePct   *float64  `db:"line_pct" json:"line_pct,omitempty"`
	BranchPct *float64  `db:"branch_pct" json:"branch_pct,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var _ tooltypes.RunRecorder = &Store{}

// Store reads and writes tool run history
type Store struct {
	db *sqlx.DB
}

// NewStore creates a history store over an already-configured database
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// RecordToolRun persists one tool run record
func (s *Store) RecordToolRun(ctx context.Context, rec tooltypes.ToolRunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_runs (id, tool, command, exit_code, line_pct, branch_pct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), rec.Tool, rec.Command, rec.ExitCode, rec.LinePct, rec.BranchPct, time.Now().UTC())
	return errors.Wrap(err, "failed to record tool run")
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	records := []Record{}
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, tool, command, exit_code, line_pct, branch_pct, created_at
		FROM tool_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tool runs")
	}
	return records, nil
}

// GetRun returns one run by ID
func (s *Store) GetRun(ctx context.Context, id string) (*Record, error) {
	var record Record
	err := s.db.GetContext(ctx, &record, `
		SELECT id, tool, command, exit_code, line_pct, branch_pct, created_at
		FROM tool_runs
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get tool run %q", id)
	}
	return &record, nil
}
