package participant

import (
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
)

// Reconciliation is the earliest compliant observation of one event kind per
// height across all replicas.
type Reconciliation struct {
	Events map[models.Height]models.LogEvent
	// Banned holds heights observed at least once before the cutoff.
	Banned map[models.Height]struct{}
}

// Reconcile merges the events of one kind from every replica. Any
// observation before notBefore bans its height for good, even if another
// replica reported it later. Among the remaining observations the one with
// the earliest log timestamp wins; ties go to the lowest participant id.
func (s *LogSet) Reconcile(kind models.EventKind, notBefore models.Timestamp) Reconciliation {
	r := Reconciliation{
		Events: make(map[models.Height]models.LogEvent),
		Banned: make(map[models.Height]struct{}),
	}
	for _, l := range s.logs {
		for h, ev := range l.Events(kind) {
			if models.EffectiveTimestamp(ev) < notBefore {
				r.Banned[h] = struct{}{}
				delete(r.Events, h)
				continue
			}
			if _, banned := r.Banned[h]; banned {
				continue
			}
			if cur, ok := r.Events[h]; !ok || earlier(ev, cur) {
				r.Events[h] = ev
			}
		}
	}
	return r
}

func earlier(a, b models.LogEvent) bool {
	if a.LogTimestamp() != b.LogTimestamp() {
		return a.LogTimestamp() < b.LogTimestamp()
	}
	return a.ParticipantID() < b.ParticipantID()
}

// EarliestRequests returns the reconciled block requests
func (s *LogSet) EarliestRequests(notBefore models.Timestamp) map[models.Height]models.ReceiveRequest {
	out := make(map[models.Height]models.ReceiveRequest)
	for h, ev := range s.Reconcile(models.KindReceiveRequest, notBefore).Events {
		out[h] = ev.(models.ReceiveRequest)
	}
	return out
}

// EarliestExecutes returns the reconciled executions
func (s *LogSet) EarliestExecutes(notBefore models.Timestamp) map[models.Height]models.ProtocolAction {
	return s.actions(models.KindExecute, notBefore)
}

// EarliestPrePrepares returns the reconciled pre-prepares
func (s *LogSet) EarliestPrePrepares(notBefore models.Timestamp) map[models.Height]models.ProtocolAction {
	return s.actions(models.KindSendPrePrepare, notBefore)
}

// EarliestStartSubmits returns the reconciled block submissions
func (s *LogSet) EarliestStartSubmits(notBefore models.Timestamp) map[models.Height]models.StartSubmitBlock {
	out := make(map[models.Height]models.StartSubmitBlock)
	for h, ev := range s.Reconcile(models.KindStartSubmitBlock, notBefore).Events {
		out[h] = ev.(models.StartSubmitBlock)
	}
	return out
}

func (s *LogSet) actions(kind models.EventKind, notBefore models.Timestamp) map[models.Height]models.ProtocolAction {
	out := make(map[models.Height]models.ProtocolAction)
	for h, ev := range s.Reconcile(kind, notBefore).Events {
		out[h] = ev.(models.ProtocolAction)
	}
	return out
}
