package performance

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidPeriods   = errors.New("periods per year must be positive")
)

// MinVolatility is the standard deviation under which a Sharpe ratio is
// not reported.
const MinVolatility = 1e-8

// Drawdown describes the deepest peak-to-trough decline of a value series.
// MaxDrawdown is a non-positive fraction; Duration counts observations from
// peak to trough.
type Drawdown struct {
	MaxDrawdown float64 `json:"max_drawdown"`
	Peak        float64 `json:"peak"`
	Trough      float64 `json:"trough"`
	PeakIndex   int     `json:"peak_index"`
	TroughIndex int     `json:"trough_index"`
	Duration    int     `json:"duration"`
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SharpeRatio annualizes the mean excess return over the sample standard
// deviation. riskFreeRate is annual and is compounded down to one period.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPeriods, periodsPerYear)
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 returns, got %d", ErrInsufficientData, len(returns))
	}
	if !finite(returns) || math.IsNaN(riskFreeRate) || math.IsInf(riskFreeRate, 0) {
		return 0, fmt.Errorf("%w: non-finite input", ErrInsufficientData)
	}

	n := float64(len(returns))
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / n

	var squares float64
	for _, r := range returns {
		diff := r - mean
		squares += diff * diff
	}
	std := math.Sqrt(squares / (n - 1))
	if std < MinVolatility {
		return 0, fmt.Errorf("%w: volatility %g below %g", ErrInsufficientData, std, MinVolatility)
	}

	ppy := float64(periodsPerYear)
	rfPerPeriod := math.Pow(1+riskFreeRate, 1/ppy) - 1
	return (mean - rfPerPeriod) / std * math.Sqrt(ppy), nil
}

// MaxDrawdown finds the most negative (value - running max) / running max.
// The peak is the last index at or before the trough holding the running
// maximum.
func MaxDrawdown(values []float64) (Drawdown, error) {
	if len(values) < 2 {
		return Drawdown{}, fmt.Errorf("%w: need at least 2 values, got %d", ErrInsufficientData, len(values))
	}
	if !finite(values) {
		return Drawdown{}, fmt.Errorf("%w: non-finite value", ErrInsufficientData)
	}
	for i, v := range values {
		if v < 0 {
			return Drawdown{}, fmt.Errorf("%w: negative value %g at %d", ErrInsufficientData, v, i)
		}
	}

	runningMax := values[0]
	peakIndex := 0
	result := Drawdown{Peak: values[0], Trough: values[0]}
	for i, v := range values {
		if v >= runningMax {
			runningMax = v
			peakIndex = i
		}
		if runningMax == 0 {
			continue
		}
		dd := (v - runningMax) / runningMax
		if dd < result.MaxDrawdown {
			result = Drawdown{
				MaxDrawdown: dd,
				Peak:        runningMax,
				Trough:      v,
				PeakIndex:   peakIndex,
				TroughIndex: i,
			}
		}
	}

	if result.TroughIndex > result.PeakIndex {
		result.Duration = result.TroughIndex - result.PeakIndex
	}
	return result, nil
}
