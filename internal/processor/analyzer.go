// File: internal/processor/analyzer.go
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/parser"
	"github.com/smartdevs17/fbft-benchlogs/internal/storage"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Recorder observes parsing and analysis. *metrics.PrometheusMetrics satisfies it.
type Recorder interface {
	parser.Recorder
	RecordRunAnalyzed(duration time.Duration, err error)
	RecordRunResult(throughput float64, latencies []float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogParsed(string, time.Duration, error) {}
func (nopRecorder) RecordEventsExtracted(models.EventKind, int)  {}
func (nopRecorder) RecordRunAnalyzed(time.Duration, error)       {}
func (nopRecorder) RecordRunResult(float64, []float64)           {}

// Analyzer turns run directories into metrics, CSV rows, text summaries and
// stored records.
type Analyzer struct {
	// Dependencies
	storage  storage.Storage
	recorder Recorder
	logger   *logrus.Entry

	// Configuration
	config *config.AnalysisConfig
	now    func() time.Time

	// Statistics
	mu    sync.RWMutex
	stats *AnalyzerStats
}

// AnalyzerStats provides analyzer statistics
type AnalyzerStats struct {
	StartTime           time.Time     `json:"start_time"`
	RunsAnalyzed        uint64        `json:"runs_analyzed"`
	RunsFailed          uint64        `json:"runs_failed"`
	TotalAnalysisTime   time.Duration `json:"total_analysis_time"`
	AverageAnalysisTime time.Duration `json:"average_analysis_time"`
	LastRunID           string        `json:"last_run_id,omitempty"`
	LastError           *string       `json:"last_error,omitempty"`
	LastErrorTime       *time.Time    `json:"last_error_time,omitempty"`
}

// RunReport is the outcome of analyzing one run directory
type RunReport struct {
	ID          string      `json:"id"`
	Directory   string      `json:"directory"`
	Metrics     *RunMetrics `json:"-"`
	SummaryCSV  string      `json:"summary_csv"`
	HeightCSV   string      `json:"height_csv"`
	SummaryFile string      `json:"summary_file,omitempty"`
	Stored      bool        `json:"stored"`
}

// NewAnalyzer creates an analyzer. store and recorder may be nil.
func NewAnalyzer(cfg *config.AnalysisConfig, store storage.Storage, recorder Recorder) *Analyzer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Analyzer{
		storage:  store,
		recorder: recorder,
		logger:   utils.ComponentLogger("analyzer"),
		config:   cfg,
		now:      time.Now,
		stats:    &AnalyzerStats{StartTime: time.Now()},
	}
}

// SetClock replaces the clock used for output file names and analysis timestamps.
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// LoadRun parses a run directory into a RunResult.
func (a *Analyzer) LoadRun(ctx context.Context, runDirectory string) (*RunResult, error) {
	params, err := config.LoadBenchParameters(runDirectory, a.config.ParametersFile)
	if err != nil {
		return nil, err
	}
	files, err := parser.FindRunFiles(runDirectory, a.config.NodeLogGlob, a.config.ClientLogGlob)
	if err != nil {
		return nil, err
	}
	if len(files.Clients) != params.Clients {
		return nil, utils.NewParseError("client log count does not match bench parameters",
			fmt.Sprintf("found %d, expected %d", len(files.Clients), params.Clients))
	}
	if len(files.Nodes) != params.Nodes {
		a.logger.WithFields(logrus.Fields{
			"found":    len(files.Nodes),
			"expected": params.Nodes,
		}).Warn("Replica log count differs from bench parameters")
	}

	logs, err := parser.NewPool(a.config.Workers, a.recorder).ParseFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	return NewRunResult(params, logs.Participants, logs.Clients), nil
}

// AnalyzeRun parses, measures and records one run directory.
func (a *Analyzer) AnalyzeRun(ctx context.Context, runDirectory string) (report *RunReport, err error) {
	startTime := time.Now()
	logger := a.logger.WithField("run", runDirectory)
	defer func() {
		duration := time.Since(startTime)
		a.recorder.RecordRunAnalyzed(duration, err)
		a.updateStats(report, duration, err)
		if err != nil {
			logger.WithError(err).Error("Run analysis failed")
		}
	}()

	logger.Info("Analyzing run")
	result, err := a.LoadRun(ctx, runDirectory)
	if err != nil {
		return nil, err
	}
	m, err := result.Metrics()
	if err != nil {
		return nil, err
	}
	a.recorder.RecordRunResult(m.Throughput, m.Latencies)
	logger.WithFields(logrus.Fields{
		"client_rate":  m.ClientRate,
		"tx_submitted": m.TxSubmitted,
		"tx_finalized": m.TxFinalized,
	}).Info("Aggregate client rate")

	analyzedAt := a.now()
	report = &RunReport{
		ID:        utils.CreateRunID(runDirectory, m.Params.Fingerprint()),
		Directory: runDirectory,
		Metrics:   m,
	}
	if report.SummaryCSV, report.HeightCSV, err = m.WriteCSVs(a.config.OutputDir, analyzedAt); err != nil {
		return nil, err
	}
	if a.config.WriteSummary {
		report.SummaryFile = filepath.Join(a.config.OutputDir, a.config.SummaryFile)
		if err := m.AppendSummary(report.SummaryFile); err != nil {
			return nil, err
		}
	}
	if a.storage != nil {
		run, heights := m.Record(report.ID, runDirectory, analyzedAt)
		if err := a.storage.SaveRun(ctx, run, heights); err != nil {
			return nil, err
		}
		report.Stored = true
	}

	logger.WithFields(logrus.Fields{
		"id":         report.ID,
		"blocks":     m.Blocks(),
		"throughput": m.Throughput,
		"latency":    m.Latency.Mean,
	}).Info("Run analyzed")
	return report, nil
}

// AnalyzeExperiment analyzes every run directory under experimentDirectory,
// in name order, and aggregates them. Any failing run aborts the experiment.
func (a *Analyzer) AnalyzeExperiment(ctx context.Context, experimentDirectory string) (*Experiment, []*RunReport, error) {
	runDirs, err := a.findRunDirectories(experimentDirectory)
	if err != nil {
		return nil, nil, err
	}

	reports := make([]*RunReport, 0, len(runDirs))
	runs := make([]*RunMetrics, 0, len(runDirs))
	for _, dir := range runDirs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		report, err := a.AnalyzeRun(ctx, dir)
		if err != nil {
			return nil, nil, fmt.Errorf("run %s: %w", filepath.Base(dir), err)
		}
		reports = append(reports, report)
		runs = append(runs, report.Metrics)
	}

	experiment, err := NewExperiment(runs)
	if err != nil {
		return nil, nil, err
	}
	a.logger.WithFields(logrus.Fields{
		"experiment": experimentDirectory,
		"runs":       experiment.Runs(),
	}).Info("Experiment analyzed")
	return experiment, reports, nil
}

// findRunDirectories lists the subdirectories holding a bench parameters file
func (a *Analyzer) findRunDirectories(experimentDirectory string) ([]string, error) {
	entries, err := os.ReadDir(experimentDirectory)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Failed to read experiment directory", err.Error())
	}
	filename := a.config.ParametersFile
	if filename == "" {
		filename = config.DefaultBenchParametersFilename
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(experimentDirectory, e.Name())
		if _, err := os.Stat(filepath.Join(dir, filename)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, utils.NewEmptyResultError("no runs found", experimentDirectory)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (a *Analyzer) updateStats(report *RunReport, duration time.Duration, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.TotalAnalysisTime += duration
	if err != nil {
		a.stats.RunsFailed++
		msg := err.Error()
		now := time.Now()
		a.stats.LastError = &msg
		a.stats.LastErrorTime = &now
	} else {
		a.stats.RunsAnalyzed++
		if report != nil {
			a.stats.LastRunID = report.ID
		}
	}
	if total := a.stats.RunsAnalyzed + a.stats.RunsFailed; total > 0 {
		a.stats.AverageAnalysisTime = a.stats.TotalAnalysisTime / time.Duration(total)
	}
}

// GetStats returns a copy of the analyzer statistics
func (a *Analyzer) GetStats() AnalyzerStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.stats
}
