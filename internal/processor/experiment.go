package processor

import (
	"fmt"
	"strings"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Experiment aggregates repeated runs of the same bench parameters
type Experiment struct {
	runs []*RunMetrics
}

// NewExperiment checks that all runs share the same parameters.
func NewExperiment(runs []*RunMetrics) (*Experiment, error) {
	if len(runs) == 0 {
		return nil, utils.NewEmptyResultError("experiment has no runs")
	}
	for i, r := range runs[1:] {
		if !r.Params.Equal(runs[0].Params) {
			return nil, utils.NewAppError(utils.ErrCodeValidation, "runs of an experiment use different bench parameters",
				fmt.Sprintf("run %d: %s != %s", i+1, r.Params.Fingerprint(), runs[0].Params.Fingerprint()))
		}
	}
	cp := make([]*RunMetrics, len(runs))
	copy(cp, runs)
	return &Experiment{runs: cp}, nil
}

// Params returns the parameters shared by every run
func (e *Experiment) Params() *config.BenchParameters { return e.runs[0].Params }

// Runs returns the number of runs
func (e *Experiment) Runs() int { return len(e.runs) }

// MeanLatencies returns the mean block latency of each run
func (e *Experiment) MeanLatencies() []float64 {
	out := make([]float64, len(e.runs))
	for i, r := range e.runs {
		out[i] = r.Latency.Mean
	}
	return out
}

// Throughputs returns the throughput of each run
func (e *Experiment) Throughputs() []float64 {
	out := make([]float64, len(e.runs))
	for i, r := range e.runs {
		out[i] = r.Throughput
	}
	return out
}

func (e *Experiment) MeanMeanLatency() float64 { return Mean(e.MeanLatencies()) }
func (e *Experiment) StdMeanLatency() float64  { return StdDev(e.MeanLatencies()) }
func (e *Experiment) MeanThroughput() float64  { return Mean(e.Throughputs()) }
func (e *Experiment) StdThroughput() float64   { return StdDev(e.Throughputs()) }

// Summary renders the cross-run statistics
func (e *Experiment) Summary() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(summaryRule)
	b.WriteString(" EXPERIMENT SUMMARY:\n")
	b.WriteString(summaryRule)
	fmt.Fprintf(&b, " Runs: %d\n", e.Runs())
	fmt.Fprintf(&b, " Committee size: %d nodes\n", e.Params().Nodes)
	fmt.Fprintf(&b, " Faults: %d nodes\n", e.Params().Faults)
	fmt.Fprintf(&b, " Throughput (mean±std):              %s±%s blocks/s\n",
		formatFloat(roundHalfEven(e.MeanThroughput(), 5)), formatFloat(roundHalfEven(e.StdThroughput(), 5)))
	fmt.Fprintf(&b, " Latency (mean±std of run means):    %s±%s ms\n",
		commaRounded(e.MeanMeanLatency()*1000), formatMillis(e.StdMeanLatency()))
	return b.String()
}
