// File: internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

// Storage defines the interface for analysis result storage
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Run operations
	SaveRun(ctx context.Context, run *models.RunRecord, heights []*models.HeightRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	ResolveRunID(ctx context.Context, prefix string) (string, error)
	GetRuns(ctx context.Context, filter models.RunFilter) ([]*models.RunRecord, error)
	GetRunCount(ctx context.Context, filter models.RunFilter) (int64, error)
	GetHeights(ctx context.Context, runID string) ([]*models.HeightRecord, error)
	DeleteRun(ctx context.Context, id string) error

	// Statistics and monitoring
	GetStorageStats() (*StorageStats, error)
}

// StorageStats provides storage statistics
type StorageStats struct {
	TotalRuns      int64      `json:"total_runs"`
	TotalHeights   int64      `json:"total_heights"`
	LatestAnalysis *time.Time `json:"latest_analysis,omitempty"`
	DatabaseSize   int64      `json:"database_size_bytes"`
	OpenConns      int        `json:"open_connections"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}
