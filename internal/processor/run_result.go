// File: internal/processor/run_result.go
package processor

import (
	"fmt"
	"math"
	"sort"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/participant"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// RunResult derives the metrics of one run from its replica logs. Nothing is
// cached; every accessor recomputes from the immutable inputs.
type RunResult struct {
	params  *config.BenchParameters
	logs    *participant.LogSet
	clients []*models.ClientLog
}

// NewRunResult binds parsed logs to the parameters the run was started with
func NewRunResult(params *config.BenchParameters, logs *participant.LogSet, clients []*models.ClientLog) *RunResult {
	return &RunResult{params: params, logs: logs, clients: clients}
}

// Params returns the bench parameters of the run
func (r *RunResult) Params() *config.BenchParameters { return r.params }

// Logs returns the replica logs of the run
func (r *RunResult) Logs() *participant.LogSet { return r.logs }

// warmupCutoff is the first instant that counts toward steady-state metrics
func (r *RunResult) warmupCutoff() (models.Timestamp, error) {
	start, err := r.logs.Start()
	if err != nil {
		return 0, err
	}
	return start + float64(r.params.WarmupDuration), nil
}

// TrueDuration is the time between the first request and the last execution
func (r *RunResult) TrueDuration() (float64, error) {
	start, err := r.logs.Start()
	if err != nil {
		return 0, err
	}
	end, err := r.logs.End()
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// Throughput is the number of blocks executed after warm-up per second. The
// denominator runs to the last execution of the whole run.
func (r *RunResult) Throughput() (float64, error) {
	cutoff, err := r.warmupCutoff()
	if err != nil {
		return 0, err
	}
	executes := r.logs.EarliestExecutes(cutoff)
	if len(executes) == 0 {
		return 0, nil
	}
	end, err := r.logs.End()
	if err != nil {
		return 0, err
	}
	window := end - cutoff
	if window <= 0 {
		return 0, utils.NewEmptyResultError("no time elapsed after warm-up",
			fmt.Sprintf("cutoff=%v end=%v", cutoff, end))
	}
	return float64(len(executes)) / window, nil
}

// LatenciesByHeight is the time from request to execution of every block
// after warm-up.
func (r *RunResult) LatenciesByHeight() (map[models.Height]float64, error) {
	cutoff, err := r.warmupCutoff()
	if err != nil {
		return nil, err
	}
	requests := r.logs.EarliestRequests(cutoff)
	starts := make(map[models.Height]models.Timestamp, len(requests))
	for h, req := range requests {
		starts[h] = req.TrueRequestTime()
	}
	return r.latenciesFrom(cutoff, starts, "request")
}

// LatenciesFromPrePrepareByHeight is the time from pre-prepare to execution
// of every block after warm-up.
func (r *RunResult) LatenciesFromPrePrepareByHeight() (map[models.Height]float64, error) {
	cutoff, err := r.warmupCutoff()
	if err != nil {
		return nil, err
	}
	prePrepares := r.logs.EarliestPrePrepares(cutoff)
	starts := make(map[models.Height]models.Timestamp, len(prePrepares))
	for h, pp := range prePrepares {
		starts[h] = pp.LogTimestamp()
	}
	return r.latenciesFrom(cutoff, starts, "pre-prepare")
}

func (r *RunResult) latenciesFrom(cutoff models.Timestamp, starts map[models.Height]models.Timestamp, from string) (map[models.Height]float64, error) {
	latencies := make(map[models.Height]float64)
	for h, exec := range r.logs.EarliestExecutes(cutoff) {
		start, ok := starts[h]
		if !ok {
			continue
		}
		latency := exec.LogTimestamp() - start
		if latency < 0 {
			return nil, utils.NewInvariantError("negative block latency",
				fmt.Sprintf("height %d from %s: %f", h, from, latency))
		}
		latencies[h] = latency
	}
	if len(latencies) == 0 {
		return nil, utils.NewEmptyResultError("no blocks after warm-up", "latency from "+from)
	}
	return latencies, nil
}

// BlockSizeByHeight returns the size of every block submitted after warm-up
func (r *RunResult) BlockSizeByHeight() (map[models.Height]int, error) {
	cutoff, err := r.warmupCutoff()
	if err != nil {
		return nil, err
	}
	sizes := make(map[models.Height]int)
	for h, submit := range r.logs.EarliestStartSubmits(cutoff) {
		if submit.BlockSize < 0 {
			return nil, utils.NewInvariantError("negative block size", fmt.Sprintf("height %d: %d", h, submit.BlockSize))
		}
		sizes[h] = submit.BlockSize
	}
	if len(sizes) == 0 {
		return nil, utils.NewEmptyResultError("no blocks after warm-up", "block size")
	}
	return sizes, nil
}

// LatencyAtFaultHeight is the latency of the first block after the fault,
// warm-up included. It is 0 for runs without fault injection.
func (r *RunResult) LatencyAtFaultHeight() (float64, error) {
	if !r.params.HasFault() {
		return 0, nil
	}
	faultHeight, err := r.logs.FaultHeight()
	if err != nil {
		return 0, err
	}
	next := faultHeight + 1
	exec, ok := r.logs.EarliestExecutes(math.Inf(-1))[next]
	if !ok {
		return 0, utils.NewEmptyResultError("no execution after fault height", fmt.Sprint(faultHeight))
	}
	req, ok := r.logs.EarliestRequests(math.Inf(-1))[next]
	if !ok {
		return 0, utils.NewEmptyResultError("no request after fault height", fmt.Sprint(faultHeight))
	}
	return exec.LogTimestamp() - req.TrueRequestTime(), nil
}

// TimeIntervals returns the primary's phase intervals, nil after a view change
func (r *RunResult) TimeIntervals() (*participant.Intervals, error) {
	return r.logs.TimeIntervals()
}

// TimeSpentByPhase sums the phase intervals after warm-up. Every phase is NaN
// when no intervals are available.
func (r *RunResult) TimeSpentByPhase() (map[models.Phase]float64, error) {
	intervals, err := r.TimeIntervals()
	if err != nil {
		return nil, err
	}
	if intervals == nil {
		return nanPhases(), nil
	}
	cutoff, err := r.warmupCutoff()
	if err != nil {
		return nil, err
	}
	return intervals.CumulativeByPhase(cutoff), nil
}

// ClientRate is the aggregate input rate announced by the clients
func (r *RunResult) ClientRate() float64 {
	var rate float64
	for _, c := range r.clients {
		rate += c.Rate
	}
	return rate
}

func nanPhases() map[models.Phase]float64 {
	out := make(map[models.Phase]float64, len(models.Phases))
	for _, p := range models.Phases {
		out[p] = math.NaN()
	}
	return out
}

// HeightMetrics is the per-height breakdown of a run
type HeightMetrics struct {
	Height            models.Height
	BlockSize         int
	Latency           float64
	PrePrepareLatency float64
	// TimeByPhase holds NaN for every phase when intervals are unavailable.
	TimeByPhase map[models.Phase]float64
}

// RunMetrics is a snapshot of everything computed for one run
type RunMetrics struct {
	Params               *config.BenchParameters
	Start                models.Timestamp
	End                  models.Timestamp
	ExecutionTime        float64
	Throughput           float64
	Latencies            []float64 // by ascending height
	Latency              Distribution
	PrePrepareLatency    Distribution
	LatencyAtFaultHeight float64
	TimeByPhase          map[models.Phase]float64
	Heights              []HeightMetrics
	ClientRate           float64
	TxSubmitted          int
	TxFinalized          int
}

// Metrics computes the full snapshot, failing on the first error.
func (r *RunResult) Metrics() (*RunMetrics, error) {
	m := &RunMetrics{Params: r.params, ClientRate: r.ClientRate()}
	var err error

	if m.Start, err = r.logs.Start(); err != nil {
		return nil, err
	}
	if m.End, err = r.logs.End(); err != nil {
		return nil, err
	}
	m.ExecutionTime = m.End - m.Start

	if m.Throughput, err = r.Throughput(); err != nil {
		return nil, err
	}
	latencies, err := r.LatenciesByHeight()
	if err != nil {
		return nil, err
	}
	prePrepareLatencies, err := r.LatenciesFromPrePrepareByHeight()
	if err != nil {
		return nil, err
	}
	sizes, err := r.BlockSizeByHeight()
	if err != nil {
		return nil, err
	}
	m.Latencies = values(latencies)
	m.Latency = NewDistribution(m.Latencies)
	m.PrePrepareLatency = NewDistribution(values(prePrepareLatencies))

	if m.LatencyAtFaultHeight, err = r.LatencyAtFaultHeight(); err != nil {
		return nil, err
	}
	intervals, err := r.TimeIntervals()
	if err != nil {
		return nil, err
	}
	if m.TimeByPhase, err = r.TimeSpentByPhase(); err != nil {
		return nil, err
	}

	for h, latency := range latencies {
		ppLatency, ok := prePrepareLatencies[h]
		if !ok {
			continue
		}
		size, ok := sizes[h]
		if !ok {
			continue
		}
		hm := HeightMetrics{
			Height:            h,
			BlockSize:         size,
			Latency:           latency,
			PrePrepareLatency: ppLatency,
			TimeByPhase:       nanPhases(),
		}
		if intervals != nil {
			if phases, ok := intervals.At(h); ok {
				for p, iv := range phases {
					hm.TimeByPhase[p] = iv.Diff()
				}
			}
		}
		m.Heights = append(m.Heights, hm)
	}
	sort.Slice(m.Heights, func(i, j int) bool { return m.Heights[i].Height < m.Heights[j].Height })

	for _, c := range r.clients {
		m.TxSubmitted += len(c.Txs)
		m.TxFinalized += c.FinalizedCount()
	}
	return m, nil
}

// Blocks is the number of blocks with a request latency after warm-up
func (m *RunMetrics) Blocks() int { return m.Latency.Count }

// values returns map values ordered by key so statistics are reproducible
func values(byHeight map[models.Height]float64) []float64 {
	heights := make([]models.Height, 0, len(byHeight))
	for h := range byHeight {
		heights = append(heights, h)
	}
	sort.Ints(heights)
	out := make([]float64, len(heights))
	for i, h := range heights {
		out[i] = byHeight[h]
	}
	return out
}
