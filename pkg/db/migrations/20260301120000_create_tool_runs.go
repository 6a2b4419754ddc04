package migrations

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/covlet/covlet/pkg/db"
)

// Migration20260301120000CreateToolRuns creates the tool_runs history table.
func Migration20260301120000CreateToolRuns() db.Migration {
	return db.Migration{
		Version:     20260301120000,
		Description: "Create tool_runs table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS tool_runs (
					id TEXT PRIMARY KEY,
					tool TEXT NOT NULL,
					command TEXT NOT NULL DEFAULT '',
					exit_code INTEGER NOT NULL DEFAULT 0,
					line_pct REAL,
					branch_pct REAL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create tool_runs table")
			}

			if _, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_tool_runs_created_at
				ON tool_runs(created_at)
			`); err != nil {
				return errors.Wrap(err, "failed to create created_at index")
			}

			if _, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_tool_runs_tool
				ON tool_runs(tool)
			`); err != nil {
				return errors.Wrap(err, "failed to create tool index")
			}

			return nil
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec("DROP TABLE IF EXISTS tool_runs")
			return errors.Wrap(err, "failed to drop tool_runs table")
		},
	}
}
