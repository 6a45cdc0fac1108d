package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// DefaultBenchParametersFilename is written by the orchestrator into every run directory.
const DefaultBenchParametersFilename = "bench_parameters.json"

// BenchParameters describes one benchmark run as configured by the orchestrator.
type BenchParameters struct {
	Nodes                 int      `mapstructure:"nodes" json:"nodes"`
	Clients               int      `mapstructure:"clients" json:"clients"`
	WarmupDuration        int      `mapstructure:"warmup_duration" json:"warmup_duration"`
	Rate                  float64  `mapstructure:"rate" json:"rate"`
	TxSize                int      `mapstructure:"tx_size" json:"tx_size"`
	GenesisHoursInThePast float64  `mapstructure:"genesis_hours_in_the_past" json:"genesis_hours_in_the_past"`
	TargetBlockTime       int      `mapstructure:"target_block_time" json:"target_block_time"`
	Duration              int      `mapstructure:"duration" json:"duration"`
	Runs                  int      `mapstructure:"runs" json:"runs"`
	Faults                int      `mapstructure:"faults" json:"faults"`
	FaultTime             *float64 `mapstructure:"fault_time" json:"fault_time"`
}

var requiredBenchKeys = []string{
	"nodes", "clients", "warmup_duration", "rate", "tx_size",
	"genesis_hours_in_the_past", "target_block_time", "duration",
}

// LoadBenchParameters reads the bench parameters file of a run directory.
func LoadBenchParameters(runDirectory, filename string) (*BenchParameters, error) {
	if filename == "" {
		filename = DefaultBenchParametersFilename
	}
	path := filepath.Join(runDirectory, filename)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("runs", 1)
	v.SetDefault("faults", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Failed to read bench parameters", err.Error())
	}
	for _, key := range requiredBenchKeys {
		if !v.IsSet(key) {
			return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Missing bench parameter", key)
		}
	}

	var params BenchParameters
	if err := v.Unmarshal(&params); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Malformed bench parameters", err.Error())
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

// Validate applies the orchestrator's parameter constraints.
func (p *BenchParameters) Validate() error {
	switch {
	case p.Nodes <= 0:
		return utils.NewAppError(utils.ErrCodeConfiguration, "nodes must be positive", fmt.Sprint(p.Nodes))
	case p.Clients <= 0:
		return utils.NewAppError(utils.ErrCodeConfiguration, "clients must be positive", fmt.Sprint(p.Clients))
	case p.TxSize <= 0:
		return utils.NewAppError(utils.ErrCodeConfiguration, "tx_size must be positive", fmt.Sprint(p.TxSize))
	case p.WarmupDuration < 0 || p.TargetBlockTime < 0 || p.Duration < 0:
		return utils.NewAppError(utils.ErrCodeConfiguration, "durations must be non-negative")
	case p.Runs < 1:
		return utils.NewAppError(utils.ErrCodeConfiguration, "runs must be at least 1", fmt.Sprint(p.Runs))
	case p.Faults < 0 || p.Faults > p.Nodes:
		return utils.NewAppError(utils.ErrCodeConfiguration, "faults out of range", fmt.Sprintf("faults=%d nodes=%d", p.Faults, p.Nodes))
	case p.Faults > 0 && p.FaultTime == nil:
		return utils.NewAppError(utils.ErrCodeConfiguration, "missing fault time when faults > 0")
	case p.Faults == 0 && p.FaultTime != nil:
		return utils.NewAppError(utils.ErrCodeConfiguration, "fault time given without faults")
	}
	return nil
}

// HasFault reports whether a fault injection time was configured.
func (p *BenchParameters) HasFault() bool {
	return p.FaultTime != nil
}

// Equal compares two parameter sets field by field.
func (p *BenchParameters) Equal(o *BenchParameters) bool {
	if p == nil || o == nil {
		return p == o
	}
	a, b := *p, *o
	a.FaultTime, b.FaultTime = nil, nil
	if a != b {
		return false
	}
	if (p.FaultTime == nil) != (o.FaultTime == nil) {
		return false
	}
	return p.FaultTime == nil || *p.FaultTime == *o.FaultTime
}

// Fingerprint renders the parameters as a stable string.
func (p *BenchParameters) Fingerprint() string {
	ft := "none"
	if p.FaultTime != nil {
		ft = fmt.Sprint(*p.FaultTime)
	}
	return fmt.Sprintf("n=%d c=%d w=%d r=%v tx=%d g=%v tbt=%d d=%d runs=%d f=%d ft=%s",
		p.Nodes, p.Clients, p.WarmupDuration, p.Rate, p.TxSize, p.GenesisHoursInThePast,
		p.TargetBlockTime, p.Duration, p.Runs, p.Faults, ft)
}
