package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Migration represents a database migration
type Migration struct {
	Version     string    `db:"version"`
	Description string    `db:"description"`
	SQL         string    `db:"sql"`
	AppliedAt   time.Time `db:"applied_at"`
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at BIGINT NOT NULL
	)
`

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create runs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					directory TEXT NOT NULL,
					nodes INTEGER NOT NULL,
					clients INTEGER NOT NULL,
					faults INTEGER NOT NULL,
					target_block_time INTEGER NOT NULL,
					rate REAL NOT NULL,
					genesis_hours_in_the_past REAL NOT NULL,
					tx_size INTEGER NOT NULL,
					warmup_duration INTEGER NOT NULL,
					execution_time REAL NOT NULL,
					throughput REAL NOT NULL,
					blocks INTEGER NOT NULL,
					latency_mean REAL,
					latency_std_dev REAL,
					latency_min REAL,
					latency_median REAL,
					latency_max REAL,
					latency_at_fault_height REAL NOT NULL,
					time_fbft REAL,
					time_roast REAL,
					time_bitcoin REAL,
					client_rate REAL NOT NULL DEFAULT 0,
					analyzed_at INTEGER NOT NULL -- unix milliseconds
				);

				CREATE INDEX IF NOT EXISTS idx_runs_nodes_faults ON runs(nodes, faults);
				CREATE INDEX IF NOT EXISTS idx_runs_analyzed_at ON runs(analyzed_at);
			`,
		},
		{
			Version:     "002",
			Description: "Create run_heights table",
			SQL: `
				CREATE TABLE IF NOT EXISTS run_heights (
					run_id TEXT NOT NULL,
					height INTEGER NOT NULL,
					block_size INTEGER NOT NULL,
					latency REAL NOT NULL,
					preprepare_latency REAL NOT NULL,
					time_fbft REAL,
					time_roast REAL,
					time_bitcoin REAL,
					PRIMARY KEY (run_id, height),
					FOREIGN KEY (run_id) REFERENCES runs (id) ON DELETE CASCADE
				);
			`,
		},
	}
}

// GetPostgresMigrations returns PostgreSQL migration scripts
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create runs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS runs (
					id VARCHAR(66) PRIMARY KEY,
					directory TEXT NOT NULL,
					nodes INTEGER NOT NULL,
					clients INTEGER NOT NULL,
					faults INTEGER NOT NULL,
					target_block_time INTEGER NOT NULL,
					rate DOUBLE PRECISION NOT NULL,
					genesis_hours_in_the_past DOUBLE PRECISION NOT NULL,
					tx_size INTEGER NOT NULL,
					warmup_duration INTEGER NOT NULL,
					execution_time DOUBLE PRECISION NOT NULL,
					throughput DOUBLE PRECISION NOT NULL,
					blocks INTEGER NOT NULL,
					latency_mean DOUBLE PRECISION,
					latency_std_dev DOUBLE PRECISION,
					latency_min DOUBLE PRECISION,
					latency_median DOUBLE PRECISION,
					latency_max DOUBLE PRECISION,
					latency_at_fault_height DOUBLE PRECISION NOT NULL,
					time_fbft DOUBLE PRECISION,
					time_roast DOUBLE PRECISION,
					time_bitcoin DOUBLE PRECISION,
					client_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
					analyzed_at BIGINT NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_runs_nodes_faults ON runs(nodes, faults);
				CREATE INDEX IF NOT EXISTS idx_runs_analyzed_at ON runs(analyzed_at);
			`,
		},
		{
			Version:     "002",
			Description: "Create run_heights table",
			SQL: `
				CREATE TABLE IF NOT EXISTS run_heights (
					run_id VARCHAR(66) NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
					height BIGINT NOT NULL,
					block_size INTEGER NOT NULL,
					latency DOUBLE PRECISION NOT NULL,
					preprepare_latency DOUBLE PRECISION NOT NULL,
					time_fbft DOUBLE PRECISION,
					time_roast DOUBLE PRECISION,
					time_bitcoin DOUBLE PRECISION,
					PRIMARY KEY (run_id, height)
				);
			`,
		},
	}
}

// applyMigrations runs every migration not yet recorded in schema_migrations.
func applyMigrations(db *sql.DB, d dialect, migrations []*Migration, logger *logrus.Entry) error {
	if db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	if _, err := db.Exec(createMigrationsTable); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create migrations table", err.Error())
	}

	applied := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to read applied migrations", err.Error())
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to read applied migrations", err.Error())
		}
		applied[v] = true
	}
	rows.Close()

	logger.Info("Starting database migrations")
	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		if _, err := db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version),
				err.Error())
		}
		if _, err := db.Exec(d.rebind("INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"),
			migration.Version, migration.Description, time.Now().UnixMilli()); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Failed to record migration %s", migration.Version),
				err.Error())
		}
	}
	logger.Info("Database migrations completed")
	return nil
}
