package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	m := fixtureMetrics(t)
	at := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	run, heights := m.Record("run-1", "/runs/a", at)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "/runs/a", run.Directory)
	assert.Equal(t, 2, run.Nodes)
	assert.Equal(t, 3, run.Blocks)
	assert.Equal(t, 0.125, run.Throughput)
	require.NotNil(t, run.LatencyMean)
	assert.Equal(t, 3.5, *run.LatencyMean)
	require.NotNil(t, run.LatencyMedian)
	assert.Equal(t, 3.5, *run.LatencyMedian)
	assert.Equal(t, 3.0, *run.LatencyMin)
	assert.Equal(t, 4.0, *run.LatencyMax)
	require.NotNil(t, run.TimeROAST)
	assert.Equal(t, 6.0, *run.TimeROAST)
	assert.Equal(t, at, run.AnalyzedAt)

	require.Len(t, heights, 3)
	assert.Equal(t, "run-1", heights[0].RunID)
	assert.Equal(t, 2, heights[0].Height)
	assert.Equal(t, 2000, heights[0].BlockSize)
	require.NotNil(t, heights[0].TimeBitcoin)
	assert.Equal(t, 1.0, *heights[0].TimeBitcoin)
}

func TestRecordDropsNaN(t *testing.T) {
	m := fixtureMetrics(t)
	m.TimeByPhase = nanPhases()
	m.Heights[0].TimeByPhase = nanPhases()

	run, heights := m.Record("run-2", "/runs/b", time.Now())
	assert.Nil(t, run.TimeFBFT)
	assert.Nil(t, run.TimeROAST)
	assert.Nil(t, run.TimeBitcoin)
	assert.Nil(t, heights[0].TimeFBFT)
	assert.NotNil(t, heights[1].TimeFBFT)
}
