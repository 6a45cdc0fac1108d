package participant

import (
	"fmt"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// LogSet is the ordered, immutable collection of all replica logs of a run.
type LogSet struct {
	logs []*Log
}

// NewLogSet copies the given logs into a new set
func NewLogSet(logs ...*Log) *LogSet {
	cp := make([]*Log, len(logs))
	copy(cp, logs)
	return &LogSet{logs: cp}
}

// Logs returns the participant logs in node order
func (s *LogSet) Logs() []*Log {
	cp := make([]*Log, len(s.logs))
	copy(cp, s.logs)
	return cp
}

// Len returns the number of participants
func (s *LogSet) Len() int { return len(s.logs) }

// Primaries returns every log that executed at least one request
func (s *LogSet) Primaries() []*Log {
	var out []*Log
	for _, l := range s.logs {
		if l.IsPrimary() {
			out = append(out, l)
		}
	}
	return out
}

// HasNoViewChange reports whether exactly one replica acted as primary.
func (s *LogSet) HasNoViewChange() bool {
	return len(s.Primaries()) == 1
}

// Primary returns the unique primary, or false after a view change.
func (s *LogSet) Primary() (*Log, bool) {
	p := s.Primaries()
	if len(p) != 1 {
		return nil, false
	}
	return p[0], true
}

// Start is the earliest request log timestamp over all replicas.
func (s *LogSet) Start() (models.Timestamp, error) {
	return s.extreme(models.KindReceiveRequest, func(a, b models.Timestamp) bool { return a < b })
}

// End is the latest execute log timestamp over all replicas.
func (s *LogSet) End() (models.Timestamp, error) {
	return s.extreme(models.KindExecute, func(a, b models.Timestamp) bool { return a > b })
}

func (s *LogSet) extreme(kind models.EventKind, better func(a, b models.Timestamp) bool) (models.Timestamp, error) {
	var (
		best  models.Timestamp
		found bool
	)
	for _, l := range s.logs {
		for _, ev := range l.Events(kind) {
			if !found || better(ev.LogTimestamp(), best) {
				best = ev.LogTimestamp()
				found = true
			}
		}
	}
	if !found {
		return 0, utils.NewEmptyResultError(fmt.Sprintf("no %s events in any replica log", kind))
	}
	return best, nil
}

// FaultHeight returns the height reported by every killed replica, or 0 when
// no replica was killed. Replicas must agree.
func (s *LogSet) FaultHeight() (models.Height, error) {
	fault := 0
	for _, l := range s.logs {
		h := l.FaultHeight()
		if h == 0 {
			continue
		}
		if fault != 0 && fault != h {
			return 0, utils.NewInvariantError("inconsistent fault height across replicas",
				fmt.Sprintf("%d != %d (participant %d)", fault, h, l.ID()))
		}
		fault = h
	}
	return fault, nil
}

// TimeIntervals reconstructs the phase intervals of the primary. It returns
// nil without error after a view change or when the logs predate the submit
// block events.
func (s *LogSet) TimeIntervals() (*Intervals, error) {
	primary, ok := s.Primary()
	if !ok {
		return nil, nil
	}
	return ReconstructIntervals(primary)
}
