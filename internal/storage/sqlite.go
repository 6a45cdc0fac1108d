// File: internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// SQLiteStorage implements Storage using SQLite
type SQLiteStorage struct {
	sqlStore
	config     *StorageConfig
	migrations []*Migration
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(config *StorageConfig) *SQLiteStorage {
	return &SQLiteStorage{
		sqlStore: sqlStore{
			dialect: sqliteDialect,
			logger:  utils.GetLogger().WithField("component", "storage.sqlite"),
		},
		config:     config,
		migrations: GetSQLiteMigrations(),
	}
}

// Connect establishes database connection
func (s *SQLiteStorage) Connect() error {
	// Ensure directory exists
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(max(1, s.config.MaxConnections/2))
	db.SetConnMaxIdleTime(s.config.MaxIdleTime)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable foreign keys", err.Error())
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("SQLite database connected")
	return nil
}

// Migrate runs database migrations
func (s *SQLiteStorage) Migrate() error {
	return applyMigrations(s.db, s.dialect, s.migrations, s.logger)
}

// GetStorageStats returns row counts and the database file size
func (s *SQLiteStorage) GetStorageStats() (*StorageStats, error) {
	stats, err := s.baseStats()
	if err != nil {
		return nil, err
	}
	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read page count", err.Error())
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to read page size", err.Error())
	}
	stats.DatabaseSize = pageCount * pageSize
	s.logger.WithFields(logrus.Fields{"runs": stats.TotalRuns, "bytes": stats.DatabaseSize}).Debug("Storage stats")
	return stats, nil
}
