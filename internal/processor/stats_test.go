package processor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		mean   float64
		std    float64
	}{
		{"three values", []float64{3, 3.5, 4}, 3.5, 0.5},
		{"constant", []float64{2, 2, 2, 2}, 2, 0},
		{"sample std", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, math.Sqrt(32.0 / 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.mean, Mean(tt.values), 1e-12)
			assert.InDelta(t, tt.std, StdDev(tt.values), 1e-12)
		})
	}
}

func TestStatsOnTinySamples(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(StdDev(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{1})))
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 25))
}

func TestPercentileInterpolatesBetweenRanks(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 1.75, Percentile(values, 25))
	assert.Equal(t, 2.5, Percentile(values, 50))
	assert.Equal(t, 3.25, Percentile(values, 75))
	assert.Equal(t, 4.0, Percentile(values, 100))
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "input must not be reordered")
}

func TestPercentilesStayWithinBounds(t *testing.T) {
	values := []float64{0.9, 12, 3.3, 3.3, 7.25, 0.1, 5}
	d := NewDistribution(values)
	assert.Equal(t, len(values), d.Count)
	for i, p := range d.Percentiles {
		assert.GreaterOrEqual(t, p, 0.1)
		assert.LessOrEqual(t, p, 12.0)
		if i > 0 {
			assert.GreaterOrEqual(t, p, d.Percentiles[i-1])
		}
	}
	assert.Equal(t, 0.1, d.Percentiles[0])
	assert.Equal(t, 12.0, d.Percentiles[len(d.Percentiles)-1])
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "nan", formatFloat(math.NaN()))
	assert.Equal(t, "-inf", formatFloat(math.Inf(-1)))
	assert.Equal(t, "3.0", formatFloat(3))
	assert.Equal(t, "0.125", formatFloat(0.125))
	assert.Equal(t, "2", formatRounded(2.5))
	assert.Equal(t, "4", formatRounded(3.5))
	assert.Equal(t, "1500", formatMillis(1.5))
	assert.Equal(t, "nan", formatMillis(math.NaN()))
	assert.Equal(t, "1,234,568", commaRounded(1234567.5))
	assert.Equal(t, "1,234.5", commaFloat(1234.5))
	assert.Equal(t, "12.0", commaFloat(12))
	assert.Equal(t, 0.12346, roundHalfEven(0.123456, 5))
}
