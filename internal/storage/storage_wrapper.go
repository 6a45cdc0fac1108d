package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/fbft-benchlogs/internal/metrics"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

// StorageWithMetrics wraps a storage implementation with metrics
type StorageWithMetrics struct {
	Storage
	metricsManager *metrics.Manager
}

// NewStorageWithMetrics creates a storage wrapper with metrics
func NewStorageWithMetrics(storage Storage, metricsManager *metrics.Manager) *StorageWithMetrics {
	return &StorageWithMetrics{
		Storage:        storage,
		metricsManager: metricsManager,
	}
}

func (s *StorageWithMetrics) record(operation, table string, start time.Time, err error) {
	if s.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metricsManager.GetPrometheusMetrics().RecordDatabaseOperation(operation, table, status, time.Since(start))
}

// SaveRun saves a run and records metrics
func (s *StorageWithMetrics) SaveRun(ctx context.Context, run *models.RunRecord, heights []*models.HeightRecord) error {
	start := time.Now()
	err := s.Storage.SaveRun(ctx, run, heights)
	s.record("upsert", "runs", start, err)
	return err
}

// GetRun loads a run and records metrics
func (s *StorageWithMetrics) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	start := time.Now()
	run, err := s.Storage.GetRun(ctx, id)
	s.record("select", "runs", start, err)
	return run, err
}

// GetRuns lists runs and records metrics
func (s *StorageWithMetrics) GetRuns(ctx context.Context, filter models.RunFilter) ([]*models.RunRecord, error) {
	start := time.Now()
	runs, err := s.Storage.GetRuns(ctx, filter)
	s.record("select", "runs", start, err)
	return runs, err
}

// GetHeights loads per-height rows and records metrics
func (s *StorageWithMetrics) GetHeights(ctx context.Context, runID string) ([]*models.HeightRecord, error) {
	start := time.Now()
	heights, err := s.Storage.GetHeights(ctx, runID)
	s.record("select", "run_heights", start, err)
	return heights, err
}
