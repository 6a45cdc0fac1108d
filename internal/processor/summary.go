package processor

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

const summaryRule = "-----------------------------------------\n"

// NoIntervalsSummary replaces the phase breakdown when it cannot be computed
const NoIntervalsSummary = "No time intervals summary available (view change happened, old logs not containing EndSubmitBlock event).\n"

// Summary renders the human readable report of a run.
func (m *RunMetrics) Summary() string {
	p := m.Params
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(summaryRule)
	b.WriteString(" SUMMARY:\n")
	b.WriteString(summaryRule)
	b.WriteString(" + CONFIG:\n")
	fmt.Fprintf(&b, " Faults: %d nodes\n", p.Faults)
	fmt.Fprintf(&b, " Committee size: %d nodes\n", p.Nodes)
	fmt.Fprintf(&b, " Target block time: %d s\n", p.TargetBlockTime)
	fmt.Fprintf(&b, " Input rate: %s tx/s\n", formatFloat(p.Rate))
	fmt.Fprintf(&b, " Genesis hours in the past: %s h\n", formatFloat(p.GenesisHoursInThePast))
	fmt.Fprintf(&b, " Transaction size: %d B\n", p.TxSize)
	fmt.Fprintf(&b, " Execution time: %s s\n", commaRounded(m.ExecutionTime))
	fmt.Fprintf(&b, " Warm-up time:   %s s\n", commaRounded(float64(p.WarmupDuration)))
	b.WriteString(summaryRule)
	b.WriteString(" + RESULTS:\n")
	fmt.Fprintf(&b, " Throughput (blocks/s):              %s blocks/s\n", commaFloat(roundHalfEven(m.Throughput, 5)))
	writeDistribution(&b, "latency from request", "(mean±std):   ", m.Latency)
	writeDistribution(&b, "latency from preprepare", "(mean/std):", m.PrePrepareLatency)
	fmt.Fprintf(&b, " #Blocks:                            %d\n", m.Blocks())
	fmt.Fprintf(&b, " Latency at fault height:            %s ms\n", commaRounded(m.LatencyAtFaultHeight*1000))
	b.WriteString(m.phaseSummary())
	return b.String()
}

func writeDistribution(b *strings.Builder, label, meanLabel string, d Distribution) {
	fmt.Fprintf(b, " %s %s %s±%s ms\n", label, meanLabel, commaRounded(d.Mean*1000), formatMillis(d.StdDev))
	width := len(" latency from preprepare (mean/std): ")
	for i, p := range SummaryPercentiles {
		prefix := fmt.Sprintf(" %s (%3.0fth):", label, p)
		fmt.Fprintf(b, "%-*s%s ms\n", width, prefix, formatMillis(d.Percentiles[i]))
	}
}

func (m *RunMetrics) phaseSummary() string {
	fbft, roast, bitcoin := m.TimeByPhase[models.PhaseFBFT], m.TimeByPhase[models.PhaseROAST], m.TimeByPhase[models.PhaseBitcoin]
	total := fbft + roast + bitcoin
	if math.IsNaN(total) {
		return NoIntervalsSummary
	}
	var b strings.Builder
	for _, line := range []struct {
		label string
		spent float64
	}{
		{"FBFT", fbft},
		{"ROAST", roast},
		{"Bitcoin", bitcoin},
	} {
		share := 0.0
		if total > 0 {
			share = roundHalfEven(line.spent/total*100, 2)
		}
		prefix := fmt.Sprintf(" Time spent for %s:", line.label)
		fmt.Fprintf(&b, "%-37s%s ms (%s %%)\n", prefix, commaRounded(line.spent*1000), formatFloat(share))
	}
	return b.String()
}

// AppendSummary appends the report to a text file
func (m *RunMetrics) AppendSummary(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	_, err = f.WriteString(m.Summary())
	return err
}
