package performance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createTestCalculator(values ...float64) *Calculator {
	c := NewCalculator()
	for i, v := range values {
		c.AddValue(start.AddDate(0, 0, i), v)
	}
	return c
}

func TestCalculator_Scenario(t *testing.T) {
	c := createTestCalculator(100000, 110000, 95000, 105000)

	total, err := c.TotalReturn()
	require.NoError(t, err)
	assert.InDelta(t, 0.05, total, 1e-12)

	dd, err := c.MaxDrawdown()
	require.NoError(t, err)
	assert.InDelta(t, -0.1364, dd.MaxDrawdown, 1e-4)
	assert.Equal(t, 110000.0, dd.Peak)
	assert.Equal(t, 95000.0, dd.Trough)
	assert.Equal(t, 1, dd.PeakIndex)
	assert.Equal(t, 2, dd.TroughIndex)
	assert.Equal(t, 1, dd.Duration)
}

func TestCalculator_Returns(t *testing.T) {
	c := createTestCalculator(100, 110, 0, 50)

	returns := c.Returns()
	require.Len(t, returns, 3)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.InDelta(t, -1.0, returns[1], 1e-12)
	assert.Equal(t, 0.0, returns[2])
	assert.Equal(t, 4, c.Len())
}

func TestCalculator_TotalReturnInsufficient(t *testing.T) {
	_, err := createTestCalculator().TotalReturn()
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = createTestCalculator(100).TotalReturn()
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = createTestCalculator(0, 100).TotalReturn()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.02, 0.0, 0.015}

	got, err := SharpeRatio(returns, 0.02, 252)
	require.NoError(t, err)

	mean := 0.008
	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / 4)
	rf := math.Pow(1.02, 1.0/252) - 1
	assert.InDelta(t, (mean-rf)/std*math.Sqrt(252), got, 1e-9)

	crypto, err := SharpeRatio(returns, 0.02, 365)
	require.NoError(t, err)
	assert.Greater(t, crypto, got)
}

func TestSharpeRatio_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		periods int
		want    error
	}{
		{"Empty", nil, 252, ErrInsufficientData},
		{"Single", []float64{0.1}, 252, ErrInsufficientData},
		{"Constant", []float64{0.01, 0.01, 0.01, 0.01}, 252, ErrInsufficientData},
		{"NaN", []float64{0.01, math.NaN(), 0.02}, 252, ErrInsufficientData},
		{"Inf", []float64{0.01, math.Inf(1)}, 252, ErrInsufficientData},
		{"No Periods", []float64{0.01, 0.02}, 0, ErrInvalidPeriods},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SharpeRatio(tt.returns, 0.02, tt.periods)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
		})
	}
}

func TestMaxDrawdown_Monotonic(t *testing.T) {
	dd, err := MaxDrawdown([]float64{100, 101, 105, 120})

	require.NoError(t, err)
	assert.Equal(t, 0.0, dd.MaxDrawdown)
	assert.Equal(t, 0, dd.Duration)
}

func TestMaxDrawdown_PeakIsLastRunningMaxBeforeTrough(t *testing.T) {
	dd, err := MaxDrawdown([]float64{100, 120, 90, 120, 130, 80, 140})

	require.NoError(t, err)
	assert.InDelta(t, (80.0-130.0)/130.0, dd.MaxDrawdown, 1e-12)
	assert.Equal(t, 4, dd.PeakIndex)
	assert.Equal(t, 5, dd.TroughIndex)
	assert.Equal(t, 130.0, dd.Peak)
	assert.Equal(t, 80.0, dd.Trough)
	assert.Equal(t, 1, dd.Duration)
}

func TestMaxDrawdown_Rejects(t *testing.T) {
	for name, values := range map[string][]float64{
		"Single":   {100},
		"NaN":      {100, math.NaN()},
		"Inf":      {100, math.Inf(-1)},
		"Negative": {100, -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := MaxDrawdown(values)
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestCalculator_Report(t *testing.T) {
	empty := createTestCalculator(100000).Report(0.02, 252)
	assert.Nil(t, empty.TotalReturn)
	assert.Nil(t, empty.SharpeRatio)
	assert.Nil(t, empty.Drawdown)

	full := createTestCalculator(100, 104, 101, 108, 107).Report(0.02, 252)
	require.NotNil(t, full.TotalReturn)
	require.NotNil(t, full.SharpeRatio)
	require.NotNil(t, full.Drawdown)
	assert.InDelta(t, 0.07, *full.TotalReturn, 1e-12)
}
