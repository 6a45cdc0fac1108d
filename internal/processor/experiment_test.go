package processor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

func TestExperimentAggregatesRuns(t *testing.T) {
	a, b := fixtureMetrics(t), fixtureMetrics(t)
	b.Latency.Mean = 4.5
	b.Throughput = 0.175

	e, err := NewExperiment([]*RunMetrics{a, b})
	require.NoError(t, err)

	assert.Equal(t, 2, e.Runs())
	assert.Equal(t, []float64{3.5, 4.5}, e.MeanLatencies())
	assert.Equal(t, 4.0, e.MeanMeanLatency())
	assert.InDelta(t, 0.7071067811865476, e.StdMeanLatency(), 1e-12)
	assert.InDelta(t, 0.15, e.MeanThroughput(), 1e-12)

	s := e.Summary()
	assert.Contains(t, s, " Runs: 2\n")
	assert.Contains(t, s, " Latency (mean±std of run means):    4,000±707 ms\n")
}

func TestExperimentRejectsMixedParameters(t *testing.T) {
	a, b := fixtureMetrics(t), fixtureMetrics(t)
	b.Params.Nodes = 7

	_, err := NewExperiment([]*RunMetrics{a, b})
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.ErrCodeValidation, appErr.Code)
}

func TestExperimentNeedsRuns(t *testing.T) {
	_, err := NewExperiment(nil)
	assert.True(t, errors.Is(err, utils.ErrEmptyResult))
}
