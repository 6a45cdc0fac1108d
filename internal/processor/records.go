package processor

import (
	"time"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

// Record converts the metrics into the stored run row and its per-height rows.
func (m *RunMetrics) Record(id, directory string, analyzedAt time.Time) (*models.RunRecord, []*models.HeightRecord) {
	p := m.Params
	run := &models.RunRecord{
		ID:                    id,
		Directory:             directory,
		Nodes:                 p.Nodes,
		Clients:               p.Clients,
		Faults:                p.Faults,
		TargetBlockTime:       p.TargetBlockTime,
		Rate:                  p.Rate,
		GenesisHoursInThePast: p.GenesisHoursInThePast,
		TxSize:                p.TxSize,
		WarmupDuration:        p.WarmupDuration,
		ExecutionTime:         m.ExecutionTime,
		Throughput:            m.Throughput,
		Blocks:                m.Blocks(),
		LatencyMean:           models.Finite(m.Latency.Mean),
		LatencyStdDev:         models.Finite(m.Latency.StdDev),
		LatencyAtFaultHeight:  m.LatencyAtFaultHeight,
		TimeFBFT:              models.Finite(m.TimeByPhase[models.PhaseFBFT]),
		TimeROAST:             models.Finite(m.TimeByPhase[models.PhaseROAST]),
		TimeBitcoin:           models.Finite(m.TimeByPhase[models.PhaseBitcoin]),
		ClientRate:            m.ClientRate,
		AnalyzedAt:            analyzedAt.UTC(),
	}
	if pc := m.Latency.Percentiles; len(pc) == len(SummaryPercentiles) {
		run.LatencyMin = models.Finite(pc[0])
		run.LatencyMedian = models.Finite(pc[2])
		run.LatencyMax = models.Finite(pc[4])
	}

	heights := make([]*models.HeightRecord, 0, len(m.Heights))
	for _, h := range m.Heights {
		heights = append(heights, &models.HeightRecord{
			RunID:             id,
			Height:            h.Height,
			BlockSize:         h.BlockSize,
			Latency:           h.Latency,
			PrePrepareLatency: h.PrePrepareLatency,
			TimeFBFT:          models.Finite(h.TimeByPhase[models.PhaseFBFT]),
			TimeROAST:         models.Finite(h.TimeByPhase[models.PhaseROAST]),
			TimeBitcoin:       models.Finite(h.TimeByPhase[models.PhaseBitcoin]),
		})
	}
	return run, heights
}
