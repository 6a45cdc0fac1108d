package processor

import (
	"math"
	"sort"
)

// SummaryPercentiles are reported for every latency distribution
var SummaryPercentiles = []float64{0, 25, 50, 75, 100}

// Distribution summarizes a sample of latencies in seconds
type Distribution struct {
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Percentiles []float64 `json:"percentiles"` // one per SummaryPercentiles entry
}

// NewDistribution computes the mean, sample standard deviation and summary
// percentiles of values. The standard deviation is NaN for fewer than two values.
func NewDistribution(values []float64) Distribution {
	d := Distribution{
		Count:  len(values),
		Mean:   Mean(values),
		StdDev: StdDev(values),
	}
	sorted := sortedCopy(values)
	d.Percentiles = make([]float64, len(SummaryPercentiles))
	for i, p := range SummaryPercentiles {
		d.Percentiles[i] = percentileSorted(sorted, p)
	}
	return d
}

// Mean returns the arithmetic mean, NaN for an empty sample
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample (n-1) standard deviation.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	mean := Mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between the closest ranks.
func Percentile(values []float64, p float64) float64 {
	return percentileSorted(sortedCopy(values), p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	fraction := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*fraction
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
