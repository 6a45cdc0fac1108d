package models

import (
	"math"
	"time"
)

// RunRecord is the stored summary of one analyzed run. Values that could not
// be computed (NaN) are nil.
type RunRecord struct {
	ID                    string    `json:"id" db:"id"`
	Directory             string    `json:"directory" db:"directory"`
	Nodes                 int       `json:"nodes" db:"nodes"`
	Clients               int       `json:"clients" db:"clients"`
	Faults                int       `json:"faults" db:"faults"`
	TargetBlockTime       int       `json:"target_block_time" db:"target_block_time"`
	Rate                  float64   `json:"rate" db:"rate"`
	GenesisHoursInThePast float64   `json:"genesis_hours_in_the_past" db:"genesis_hours_in_the_past"`
	TxSize                int       `json:"tx_size" db:"tx_size"`
	WarmupDuration        int       `json:"warmup_duration" db:"warmup_duration"`
	ExecutionTime         float64   `json:"execution_time" db:"execution_time"`
	Throughput            float64   `json:"throughput" db:"throughput"`
	Blocks                int       `json:"blocks" db:"blocks"`
	LatencyMean           *float64  `json:"latency_mean,omitempty" db:"latency_mean"`
	LatencyStdDev         *float64  `json:"latency_std_dev,omitempty" db:"latency_std_dev"`
	LatencyMin            *float64  `json:"latency_min,omitempty" db:"latency_min"`
	LatencyMedian         *float64  `json:"latency_median,omitempty" db:"latency_median"`
	LatencyMax            *float64  `json:"latency_max,omitempty" db:"latency_max"`
	LatencyAtFaultHeight  float64   `json:"latency_at_fault_height" db:"latency_at_fault_height"`
	TimeFBFT              *float64  `json:"time_fbft,omitempty" db:"time_fbft"`
	TimeROAST             *float64  `json:"time_roast,omitempty" db:"time_roast"`
	TimeBitcoin           *float64  `json:"time_bitcoin,omitempty" db:"time_bitcoin"`
	ClientRate            float64   `json:"client_rate" db:"client_rate"`
	AnalyzedAt            time.Time `json:"analyzed_at" db:"analyzed_at"`
}

// HeightRecord is the stored per-height breakdown of a run
type HeightRecord struct {
	RunID             string   `json:"run_id" db:"run_id"`
	Height            Height   `json:"height" db:"height"`
	BlockSize         int      `json:"block_size" db:"block_size"`
	Latency           float64  `json:"latency" db:"latency"`
	PrePrepareLatency float64  `json:"preprepare_latency" db:"preprepare_latency"`
	TimeFBFT          *float64 `json:"time_fbft,omitempty" db:"time_fbft"`
	TimeROAST         *float64 `json:"time_roast,omitempty" db:"time_roast"`
	TimeBitcoin       *float64 `json:"time_bitcoin,omitempty" db:"time_bitcoin"`
}

// RunFilter narrows run listings
type RunFilter struct {
	Nodes  *int `json:"nodes,omitempty"`
	Faults *int `json:"faults,omitempty"`
	Limit  int  `json:"limit,omitempty"`
	Offset int  `json:"offset,omitempty"`
}

// Finite returns nil for NaN and infinities
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
