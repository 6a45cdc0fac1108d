package processor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/participant"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

func TestThroughputUsesWholeRunEnd(t *testing.T) {
	r := fixtureResult(t)

	duration, err := r.TrueDuration()
	require.NoError(t, err)
	assert.Equal(t, 34.0, duration)

	// three blocks executed after the cutoff at 110, last execution at 134
	throughput, err := r.Throughput()
	require.NoError(t, err)
	assert.Equal(t, 3.0/24.0, throughput)
}

func TestThroughputWithoutBlocksAfterWarmup(t *testing.T) {
	params := fixtureParams()
	params.WarmupDuration = 1000
	r := NewRunResult(params, fixtureResult(t).Logs(), nil)

	throughput, err := r.Throughput()
	require.NoError(t, err)
	assert.Zero(t, throughput)

	_, err = r.LatenciesByHeight()
	assert.True(t, errors.Is(err, utils.ErrEmptyResult))
	_, err = r.BlockSizeByHeight()
	assert.True(t, errors.Is(err, utils.ErrEmptyResult))
}

func TestThroughputWithCutoffOnLastExecution(t *testing.T) {
	params := fixtureParams()
	params.WarmupDuration = 34
	r := NewRunResult(params, fixtureResult(t).Logs(), nil)

	throughput, err := r.Throughput()
	assert.True(t, errors.Is(err, utils.ErrEmptyResult))
	assert.Zero(t, throughput)

	_, err = r.Metrics()
	assert.True(t, errors.Is(err, utils.ErrEmptyResult))
}

func TestLatenciesByHeight(t *testing.T) {
	r := fixtureResult(t)

	latencies, err := r.LatenciesByHeight()
	require.NoError(t, err)
	assert.Equal(t, map[models.Height]float64{2: 3, 3: 3.5, 4: 4}, latencies)

	fromPrePrepare, err := r.LatenciesFromPrePrepareByHeight()
	require.NoError(t, err)
	assert.Equal(t, map[models.Height]float64{2: 2, 3: 2.5, 4: 3}, fromPrePrepare)

	for h, l := range latencies {
		assert.GreaterOrEqual(t, l, 0.0, "height %d", h)
	}
}

func TestLatencyUsesTrueRequestTime(t *testing.T) {
	// the request was logged before its own block timestamp
	events := primaryEvents(0, 1, 2)
	events[6] = models.ReceiveRequest{Header: hdr(0, 2, 109), BlockTimestamp: 111}
	params := fixtureParams()
	params.WarmupDuration = 0
	logs := participant.NewLogSet(newLog(t, 0, false, events))

	latencies, err := NewRunResult(params, logs, nil).LatenciesByHeight()
	require.NoError(t, err)
	assert.Equal(t, executeAt(2)-111, latencies[2])
}

func TestNegativeLatencyIsInvariantViolation(t *testing.T) {
	events := primaryEvents(0, 1)
	events[0] = models.ReceiveRequest{Header: hdr(0, 1, 100), BlockTimestamp: 200}
	params := fixtureParams()
	params.WarmupDuration = 0
	logs := participant.NewLogSet(newLog(t, 0, false, events))

	_, err := NewRunResult(params, logs, nil).LatenciesByHeight()
	assert.True(t, errors.Is(err, utils.ErrInvariant))
}

func TestBlockSizeByHeight(t *testing.T) {
	sizes, err := fixtureResult(t).BlockSizeByHeight()
	require.NoError(t, err)
	assert.Equal(t, map[models.Height]int{2: 2000, 3: 3000, 4: 4000}, sizes)
}

func TestLatencyAtFaultHeight(t *testing.T) {
	faultTime := 30.0
	params := fixtureParams()
	params.Faults = 1
	params.FaultTime = &faultTime

	t.Run("next primary executes the following height", func(t *testing.T) {
		// R0 is killed after height 2; R1 takes over at height 3 during warm-up
		logs := participant.NewLogSet(
			newLog(t, 0, true, primaryEvents(0, 1, 2)),
			newLog(t, 1, false, primaryEvents(1, 3, 4)),
		)
		latency, err := NewRunResult(params, logs, nil).LatencyAtFaultHeight()
		require.NoError(t, err)
		assert.Equal(t, executeAt(3)-blockBase(3), latency)
	})

	t.Run("fault height inside warm-up is still measured", func(t *testing.T) {
		warm := *params
		warm.WarmupDuration = 1000
		logs := participant.NewLogSet(
			newLog(t, 0, true, primaryEvents(0, 1)),
			newLog(t, 1, false, primaryEvents(1, 2)),
		)
		latency, err := NewRunResult(&warm, logs, nil).LatencyAtFaultHeight()
		require.NoError(t, err)
		assert.Equal(t, executeAt(2)-blockBase(2), latency)
	})

	t.Run("nothing after the fault", func(t *testing.T) {
		logs := participant.NewLogSet(newLog(t, 0, true, primaryEvents(0, allHeights()...)))
		_, err := NewRunResult(params, logs, nil).LatencyAtFaultHeight()
		assert.True(t, errors.Is(err, utils.ErrEmptyResult))
	})

	t.Run("no fault configured", func(t *testing.T) {
		latency, err := fixtureResult(t).LatencyAtFaultHeight()
		require.NoError(t, err)
		assert.Zero(t, latency)
	})
}

func TestTimeSpentByPhase(t *testing.T) {
	spent, err := fixtureResult(t).TimeSpentByPhase()
	require.NoError(t, err)
	assert.Equal(t, 3.0, spent[models.PhaseFBFT])
	assert.Equal(t, 6.0, spent[models.PhaseROAST])
	assert.Equal(t, 3.0, spent[models.PhaseBitcoin])
}

func TestTimeSpentByPhaseAfterViewChange(t *testing.T) {
	logs := participant.NewLogSet(
		newLog(t, 0, false, primaryEvents(0, 1, 2)),
		newLog(t, 1, false, primaryEvents(1, 3, 4)),
	)
	r := NewRunResult(fixtureParams(), logs, nil)

	intervals, err := r.TimeIntervals()
	require.NoError(t, err)
	assert.Nil(t, intervals)

	spent, err := r.TimeSpentByPhase()
	require.NoError(t, err)
	for _, p := range models.Phases {
		assert.True(t, math.IsNaN(spent[p]), p.String())
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := fixtureMetrics(t)

	assert.Equal(t, 100.0, m.Start)
	assert.Equal(t, 134.0, m.End)
	assert.Equal(t, 34.0, m.ExecutionTime)
	assert.Equal(t, 0.125, m.Throughput)
	assert.Equal(t, 3, m.Blocks())

	assert.Equal(t, []float64{3, 3.5, 4}, m.Latencies)
	assert.Equal(t, 3.5, m.Latency.Mean)
	assert.InDelta(t, 0.5, m.Latency.StdDev, 1e-12)
	assert.Equal(t, []float64{3, 3.25, 3.5, 3.75, 4}, m.Latency.Percentiles)
	assert.Equal(t, 2.5, m.PrePrepareLatency.Mean)

	assert.Equal(t, 5.0, m.ClientRate)
	assert.Equal(t, 2, m.TxSubmitted)
	assert.Equal(t, 1, m.TxFinalized)

	require.Len(t, m.Heights, 3)
	for i, h := range m.Heights {
		assert.Equal(t, i+2, h.Height)
		assert.Equal(t, 1000*h.Height, h.BlockSize)
		assert.Equal(t, 1.0, h.TimeByPhase[models.PhaseFBFT])
		assert.Equal(t, float64(h.Height)/2+0.5, h.TimeByPhase[models.PhaseROAST])
		assert.Equal(t, 1.0, h.TimeByPhase[models.PhaseBitcoin])
	}
}

func TestMetricsIsDeterministic(t *testing.T) {
	assert.Equal(t, fixtureMetrics(t), fixtureMetrics(t))
}
