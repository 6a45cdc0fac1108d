package storage

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// PostgreSQLStorage implements Storage using PostgreSQL
type PostgreSQLStorage struct {
	sqlStore
	config     *StorageConfig
	migrations []*Migration
}

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
func NewPostgreSQLStorage(config *StorageConfig) *PostgreSQLStorage {
	return &PostgreSQLStorage{
		sqlStore: sqlStore{
			dialect: postgresDialect,
			logger:  utils.GetLogger().WithField("component", "storage.postgres"),
		},
		config:     config,
		migrations: GetPostgresMigrations(),
	}
}

// Connect establishes database connection
func (p *PostgreSQLStorage) Connect() error {
	db, err := sql.Open("postgres", p.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(p.config.MaxConnections)
	db.SetMaxIdleConns(max(1, p.config.MaxConnections/2))
	db.SetConnMaxIdleTime(p.config.MaxIdleTime)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to ping PostgreSQL database", err.Error())
	}

	p.db = db
	p.logger.Info("PostgreSQL database connected")
	return nil
}

// Migrate runs database migrations
func (p *PostgreSQLStorage) Migrate() error {
	return applyMigrations(p.db, p.dialect, p.migrations, p.logger)
}

// GetStorageStats returns row counts and the database size
func (p *PostgreSQLStorage) GetStorageStats() (*StorageStats, error) {
	stats, err := p.baseStats()
	if err != nil {
		return nil, err
	}
	if err := p.db.QueryRow("SELECT pg_database_size(current_database())").Scan(&stats.DatabaseSize); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read database size", err.Error())
	}
	return stats, nil
}
