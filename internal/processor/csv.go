// File: internal/processor/csv.go
package processor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

// SummaryHeaders is the header of the run summary CSV
var SummaryHeaders = []string{
	"Nodes",
	"Faults",
	"Target Block Time",
	"Rate",
	"Genesis hours in the past",
	"Tx size",
	"Execution time",
	"Warm-up time",
	"Consensus blocks/s",
	"Consensus block latency",
	"Consensus block latency std",
	"Latency at fault height",
	"Time for FBFT",
	"Time for ROAST",
	"Time for Bitcoin",
}

// HeightHeaders is the header of the per-height CSV
var HeightHeaders = []string{
	"Nodes",
	"Faults",
	"Target Block Time",
	"Rate",
	"Genesis hours in the past",
	"Tx size",
	"Height",
	"Blocksize",
	"Latency (from request)",
	"Latency (from preprepare)",
	"Time spent in FBFT",
	"Time spent in ROAST",
	"Time spent in Bitcoin",
}

// SummaryFilename is the summary CSV for runs analyzed on the given day
func SummaryFilename(dir string, day time.Time) string {
	return filepath.Join(dir, "bench-"+day.Format("02-01-2006")+".csv")
}

// HeightFilename is the per-height CSV for runs analyzed on the given day
func HeightFilename(dir string, day time.Time) string {
	return filepath.Join(dir, "bench-"+day.Format("02-01-2006")+"-by-height.csv")
}

func (m *RunMetrics) paramColumns() []string {
	p := m.Params
	return []string{
		strconv.Itoa(p.Nodes),
		strconv.Itoa(p.Faults),
		strconv.Itoa(p.TargetBlockTime),
		formatFloat(p.Rate),
		formatFloat(p.GenesisHoursInThePast),
		strconv.Itoa(p.TxSize),
	}
}

// SummaryRow renders the run as one row under SummaryHeaders.
func (m *RunMetrics) SummaryRow() []string {
	return append(m.paramColumns(),
		formatRounded(m.ExecutionTime),
		strconv.Itoa(m.Params.WarmupDuration),
		formatFloat(roundHalfEven(m.Throughput, 5)),
		formatMillis(m.Latency.Mean),
		formatMillis(m.Latency.StdDev),
		formatMillis(m.LatencyAtFaultHeight),
		formatFloat(m.TimeByPhase[models.PhaseFBFT]),
		formatFloat(m.TimeByPhase[models.PhaseROAST]),
		formatFloat(m.TimeByPhase[models.PhaseBitcoin]),
	)
}

// HeightRows renders one row per height under HeightHeaders
func (m *RunMetrics) HeightRows() [][]string {
	rows := make([][]string, 0, len(m.Heights))
	for _, h := range m.Heights {
		rows = append(rows, append(m.paramColumns(),
			strconv.Itoa(h.Height),
			strconv.Itoa(h.BlockSize),
			formatFloat(h.Latency),
			formatFloat(h.PrePrepareLatency),
			formatFloat(h.TimeByPhase[models.PhaseFBFT]),
			formatFloat(h.TimeByPhase[models.PhaseROAST]),
			formatFloat(h.TimeByPhase[models.PhaseBitcoin]),
		))
	}
	return rows
}

// AppendCSV appends rows to path, writing header first when the file does not
// exist yet.
func AppendCSV(path string, header []string, rows [][]string) error {
	_, err := os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if !exists {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Sync()
}

// WriteCSVs appends the run to the summary and per-height files in dir.
func (m *RunMetrics) WriteCSVs(dir string, day time.Time) (summaryPath, heightPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}
	summaryPath = SummaryFilename(dir, day)
	if err := AppendCSV(summaryPath, SummaryHeaders, [][]string{m.SummaryRow()}); err != nil {
		return "", "", err
	}
	heightPath = HeightFilename(dir, day)
	if err := AppendCSV(heightPath, HeightHeaders, m.HeightRows()); err != nil {
		return "", "", err
	}
	return summaryPath, heightPath, nil
}
