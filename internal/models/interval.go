package models

import (
	"fmt"

	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Phase is one of the three stages a block goes through
type Phase int

const (
	PhaseFBFT Phase = iota
	PhaseROAST
	PhaseBitcoin
)

// Phases lists the phases in protocol order
var Phases = []Phase{PhaseFBFT, PhaseROAST, PhaseBitcoin}

func (p Phase) String() string {
	switch p {
	case PhaseFBFT:
		return "fbft"
	case PhaseROAST:
		return "roast"
	case PhaseBitcoin:
		return "bitcoin"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// TimeInterval is the time a block spent in one phase
type TimeInterval struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
	Phase Phase     `json:"phase"`
}

// NewTimeInterval builds an interval, rejecting empty or reversed ones.
func NewTimeInterval(start, end Timestamp, phase Phase) (TimeInterval, error) {
	if !(start < end) {
		return TimeInterval{}, utils.NewInvariantError("time interval must have start < end",
			fmt.Sprintf("phase=%s start=%f end=%f", phase, start, end))
	}
	return TimeInterval{Start: start, End: end, Phase: phase}, nil
}

// Diff returns the interval length in seconds
func (t TimeInterval) Diff() float64 {
	return t.End - t.Start
}
