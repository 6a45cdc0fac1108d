// File: internal/participant/log.go
package participant

import (
	"fmt"
	"sort"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Log is everything the analyzer extracted from one replica's log file.
// A Log never changes after construction; maps returned by its accessors
// are shared and must be treated as read-only.
type Log struct {
	id          int
	events      map[models.EventKind]map[models.Height]models.LogEvent
	faultHeight models.Height
	raw         string
}

// NewLog indexes events by kind and height. A second event of the same kind
// at the same height is an invariant violation. When killed is set, the fault
// height is the highest executed height (0 if nothing was executed).
func NewLog(id int, raw string, events []models.LogEvent, killed bool) (*Log, error) {
	l := &Log{
		id:     id,
		events: make(map[models.EventKind]map[models.Height]models.LogEvent, len(models.AllKinds)),
		raw:    raw,
	}
	for _, kind := range models.AllKinds {
		l.events[kind] = make(map[models.Height]models.LogEvent)
	}

	for _, ev := range events {
		byHeight, ok := l.events[ev.Kind()]
		if !ok {
			return nil, utils.NewInvariantError("unknown event kind", ev.Kind().String())
		}
		if _, dup := byHeight[ev.Height()]; dup {
			return nil, utils.NewInvariantError("duplicate event",
				fmt.Sprintf("participant=%d kind=%s height=%d", id, ev.Kind(), ev.Height()))
		}
		byHeight[ev.Height()] = ev
	}

	if killed {
		if h, ok := l.MaxExecutedHeight(); ok {
			l.faultHeight = h
		}
	}
	return l, nil
}

// ID is the position of the replica in the run's node list
func (l *Log) ID() int { return l.id }

// RawText returns the log file contents
func (l *Log) RawText() string { return l.raw }

// FaultHeight is the last height executed before this replica was killed, 0 otherwise
func (l *Log) FaultHeight() models.Height { return l.faultHeight }

// Events returns the events of one kind keyed by height.
func (l *Log) Events(kind models.EventKind) map[models.Height]models.LogEvent {
	return l.events[kind]
}

// Has reports whether at least one event of the kind was logged
func (l *Log) Has(kind models.EventKind) bool {
	return len(l.events[kind]) > 0
}

// Count returns the number of events of a kind
func (l *Log) Count(kind models.EventKind) int {
	return len(l.events[kind])
}

// IsPrimary reports whether this replica executed any request.
func (l *Log) IsPrimary() bool {
	return l.Has(models.KindExecute)
}

// Heights returns the heights of one kind in ascending order
func (l *Log) Heights(kind models.EventKind) []models.Height {
	heights := make([]models.Height, 0, len(l.events[kind]))
	for h := range l.events[kind] {
		heights = append(heights, h)
	}
	sort.Ints(heights)
	return heights
}

// Sorted returns the events of one kind ordered by height
func (l *Log) Sorted(kind models.EventKind) []models.LogEvent {
	heights := l.Heights(kind)
	out := make([]models.LogEvent, len(heights))
	for i, h := range heights {
		out[i] = l.events[kind][h]
	}
	return out
}

// MaxExecutedHeight returns the highest height with an Execute event.
func (l *Log) MaxExecutedHeight() (models.Height, bool) {
	found := false
	max := 0
	for h := range l.events[models.KindExecute] {
		if !found || h > max {
			max = h
			found = true
		}
	}
	return max, found
}
