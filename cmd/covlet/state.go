package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/db"
	"github.com/covlet/covlet/pkg/db/migrations"
	"github.com/covlet/covlet/pkg/history"
	"github.com/covlet/covlet/pkg/tools"
)

// stateOptionsFromFlags builds BasicState options from the persistent flags
func stateOptionsFromFlags(cmd *cobra.Command) []tools.BasicStateOption {
	var opts []tools.BasicStateOption

	if root, err := cmd.Flags().GetString("project-root"); err == nil && root != "" {
		opts = append(opts, tools.WithProjectRoot(root))
	}
	if pom, err := cmd.Flags().GetString("pom"); err == nil && pom != "" {
		opts = append(opts, tools.WithPomPath(pom))
	}
	if report, err := cmd.Flags().GetString("report"); err == nil && report != "" {
		opts = append(opts, tools.WithReportPath(report))
	}

	return opts
}

// openHistory opens the storage database, applies pending migrations, and
// returns a history store. The caller owns closing the database.
func openHistory(ctx context.Context) (*history.Store, *sqlx.DB, error) {
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open storage database")
	}

	runner := db.NewMigrationRunner(database)
	if err := runner.Run(ctx, migrations.All()); err != nil {
		database.Close()
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	return history.NewStore(database), database, nil
}

// newState builds the tool state for a command, wiring the history store as
// the run recorder. When the database cannot be opened the state still works,
// just without recording.
func newState(ctx context.Context, cmd *cobra.Command) (*tools.BasicState, func()) {
	opts := stateOptionsFromFlags(cmd)

	store, database, err := openHistory(ctx)
	if err != nil {
		return tools.NewBasicState(opts...), func() {}
	}

	opts = append(opts, tools.WithRecorder(store))
	return tools.NewBasicState(opts...), func() { database.Close() }
}
