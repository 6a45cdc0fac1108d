package participant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

func TestReconstructIntervalsSingleHeight(t *testing.T) {
	l := mustLog(t, 0, phases(0, 7, 10, 12, 15, 16, 20)...)

	got, err := ReconstructIntervals(l)
	require.NoError(t, err)
	require.NotNil(t, got)

	p, ok := got.At(7)
	require.True(t, ok)
	assert.Equal(t, models.TimeInterval{Start: 10, End: 12, Phase: models.PhaseFBFT}, p[models.PhaseFBFT])
	assert.Equal(t, models.TimeInterval{Start: 12, End: 16, Phase: models.PhaseROAST}, p[models.PhaseROAST])
	assert.Equal(t, models.TimeInterval{Start: 16, End: 20, Phase: models.PhaseBitcoin}, p[models.PhaseBitcoin])
}

func TestReconstructIntervalsChain(t *testing.T) {
	var events []models.LogEvent
	for h := 1; h <= 5; h++ {
		base := float64(h * 100)
		events = append(events, phases(0, h, base, base+1.5, base+2, base+3.25, base+9)...)
	}
	got, err := ReconstructIntervals(mustLog(t, 0, events...))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got.Heights())

	for _, h := range got.Heights() {
		p, _ := got.At(h)
		for _, iv := range p {
			assert.Less(t, iv.Start, iv.End)
		}
		assert.Equal(t, p[models.PhaseFBFT].End, p[models.PhaseROAST].Start)
		assert.Equal(t, p[models.PhaseROAST].End, p[models.PhaseBitcoin].Start)
	}
}

func TestReconstructIntervalsStopsAtShortestSequence(t *testing.T) {
	events := append(phases(0, 1, 1, 2, 3, 4, 5), phases(0, 2, 6, 7, 8, 9, 10)[:4]...)
	got, err := ReconstructIntervals(mustLog(t, 0, events...))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.Heights())
}

func TestReconstructIntervalsOlderLogFormat(t *testing.T) {
	events := phases(0, 1, 1, 2, 3, 4, 5)[:4]
	got, err := ReconstructIntervals(mustLog(t, 0, events...))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReconstructIntervalsHardChecks(t *testing.T) {
	t.Run("heights out of step", func(t *testing.T) {
		events := append(phases(0, 1, 1, 2, 3, 4, 5), phases(0, 2, 6, 7, 8, 9, 10)...)
		// height 1 never reached bitcoind, so position 0 pairs height 1 with height 2
		events = append(events[:4], events[5:]...)
		_, err := ReconstructIntervals(mustLog(t, 0, events...))
		assert.ErrorIs(t, err, utils.ErrInvariant)
	})

	t.Run("timestamps not monotonic", func(t *testing.T) {
		_, err := ReconstructIntervals(mustLog(t, 0, phases(0, 1, 10, 12, 11, 16, 20)...))
		assert.ErrorIs(t, err, utils.ErrInvariant)
	})

	t.Run("empty phase", func(t *testing.T) {
		_, err := ReconstructIntervals(mustLog(t, 0, phases(0, 1, 10, 10, 11, 16, 20)...))
		assert.ErrorIs(t, err, utils.ErrInvariant)
	})
}

func TestCumulativeByPhase(t *testing.T) {
	events := append(phases(0, 1, 10, 12, 15, 16, 20), phases(0, 2, 30, 31, 32, 35, 36)...)
	got, err := ReconstructIntervals(mustLog(t, 0, events...))
	require.NoError(t, err)

	all := got.CumulativeByPhase(0)
	assert.Equal(t, 3.0, all[models.PhaseFBFT])
	assert.Equal(t, 8.0, all[models.PhaseROAST])
	assert.Equal(t, 5.0, all[models.PhaseBitcoin])

	late := got.CumulativeByPhase(11)
	assert.Equal(t, 1.0, late[models.PhaseFBFT])
	assert.Equal(t, 4.0, late[models.PhaseROAST])
	assert.Equal(t, 1.0, late[models.PhaseBitcoin])

	none := got.CumulativeByPhase(100)
	assert.Equal(t, 0.0, none[models.PhaseFBFT])
}
