// File: internal/participant/intervals.go
package participant

import (
	"fmt"
	"sort"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// phaseBoundaries are the five events delimiting the phases of a block, in
// the order they must happen.
var phaseBoundaries = []models.EventKind{
	models.KindSendPrePrepare,
	models.KindRoastInit,
	models.KindExecute,
	models.KindStartSubmitBlock,
	models.KindEndSubmitBlock,
}

// Intervals maps each height to the time spent in every phase
type Intervals struct {
	byHeight map[models.Height]map[models.Phase]models.TimeInterval
}

// ReconstructIntervals walks the primary's boundary events height by height.
// It returns nil without error when one of the boundary kinds was never
// logged.
func ReconstructIntervals(primary *Log) (*Intervals, error) {
	sequences := make([][]models.LogEvent, len(phaseBoundaries))
	n := -1
	for i, kind := range phaseBoundaries {
		if !primary.Has(kind) {
			return nil, nil
		}
		sequences[i] = primary.Sorted(kind)
		if n < 0 || len(sequences[i]) < n {
			n = len(sequences[i])
		}
	}

	out := &Intervals{byHeight: make(map[models.Height]map[models.Phase]models.TimeInterval, n)}
	for pos := 0; pos < n; pos++ {
		height := sequences[0][pos].Height()
		ts := make([]models.Timestamp, len(sequences))
		for i, seq := range sequences {
			ev := seq[pos]
			if ev.Height() != height {
				return nil, utils.NewInvariantError("boundary events out of step",
					fmt.Sprintf("position %d: %s at height %d, %s at height %d",
						pos, phaseBoundaries[0], height, ev.Kind(), ev.Height()))
			}
			ts[i] = ev.LogTimestamp()
			if i > 0 && ts[i] < ts[i-1] {
				return nil, utils.NewInvariantError("boundary events not monotonic",
					fmt.Sprintf("height %d: %s at %f before %s at %f",
						height, ev.Kind(), ts[i], phaseBoundaries[i-1], ts[i-1]))
			}
		}

		prePrepare, roastInit, submitStart, submitEnd := ts[0], ts[1], ts[3], ts[4]
		fbft, err := models.NewTimeInterval(prePrepare, roastInit, models.PhaseFBFT)
		if err != nil {
			return nil, fmt.Errorf("height %d: %w", height, err)
		}
		roast, err := models.NewTimeInterval(roastInit, submitStart, models.PhaseROAST)
		if err != nil {
			return nil, fmt.Errorf("height %d: %w", height, err)
		}
		bitcoin, err := models.NewTimeInterval(submitStart, submitEnd, models.PhaseBitcoin)
		if err != nil {
			return nil, fmt.Errorf("height %d: %w", height, err)
		}
		out.byHeight[height] = map[models.Phase]models.TimeInterval{
			models.PhaseFBFT:    fbft,
			models.PhaseROAST:   roast,
			models.PhaseBitcoin: bitcoin,
		}
	}
	return out, nil
}

// Len returns the number of heights with intervals
func (t *Intervals) Len() int { return len(t.byHeight) }

// At returns the intervals of one height
func (t *Intervals) At(h models.Height) (map[models.Phase]models.TimeInterval, bool) {
	p, ok := t.byHeight[h]
	return p, ok
}

// Heights returns the covered heights in ascending order
func (t *Intervals) Heights() []models.Height {
	heights := make([]models.Height, 0, len(t.byHeight))
	for h := range t.byHeight {
		heights = append(heights, h)
	}
	sort.Ints(heights)
	return heights
}

// CumulativeByPhase sums interval lengths per phase over the heights whose
// FBFT phase started at or after notBefore.
func (t *Intervals) CumulativeByPhase(notBefore models.Timestamp) map[models.Phase]float64 {
	totals := make(map[models.Phase]float64, len(models.Phases))
	for _, phase := range models.Phases {
		totals[phase] = 0
	}
	for _, h := range t.Heights() {
		phases := t.byHeight[h]
		if phases[models.PhaseFBFT].Start < notBefore {
			continue
		}
		for _, phase := range models.Phases {
			totals[phase] += phases[phase].Diff()
		}
	}
	return totals
}
