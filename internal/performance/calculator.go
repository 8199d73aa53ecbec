package performance

import (
	"fmt"
	"time"
)

type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Calculator accumulates a portfolio value series. Returns are derived as
// values are appended and never edited independently.
type Calculator struct {
	points  []Point
	returns []float64
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// AddValue appends a value. A non-positive previous value yields a zero
// return.
func (c *Calculator) AddValue(ts time.Time, value float64) {
	if n := len(c.points); n > 0 {
		prev := c.points[n-1].Value
		r := 0.0
		if prev > 0 {
			r = (value - prev) / prev
		}
		c.returns = append(c.returns, r)
	}
	c.points = append(c.points, Point{Timestamp: ts, Value: value})
}

func (c *Calculator) Len() int {
	return len(c.points)
}

func (c *Calculator) Values() []float64 {
	out := make([]float64, len(c.points))
	for i, p := range c.points {
		out[i] = p.Value
	}
	return out
}

func (c *Calculator) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

func (c *Calculator) Returns() []float64 {
	out := make([]float64, len(c.returns))
	copy(out, c.returns)
	return out
}

func (c *Calculator) TotalReturn() (float64, error) {
	if len(c.points) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 values, got %d", ErrInsufficientData, len(c.points))
	}
	first := c.points[0].Value
	if first == 0 {
		return 0, fmt.Errorf("%w: first value is zero", ErrInsufficientData)
	}
	return (c.points[len(c.points)-1].Value - first) / first, nil
}

func (c *Calculator) SharpeRatio(riskFreeRate float64, periodsPerYear int) (float64, error) {
	return SharpeRatio(c.returns, riskFreeRate, periodsPerYear)
}

func (c *Calculator) MaxDrawdown() (Drawdown, error) {
	return MaxDrawdown(c.Values())
}

// Report holds the headline statistics; a nil field means there was not
// enough data to compute it.
type Report struct {
	TotalReturn *float64  `json:"total_return"`
	SharpeRatio *float64  `json:"sharpe_ratio"`
	Drawdown    *Drawdown `json:"drawdown"`
}

func (c *Calculator) Report(riskFreeRate float64, periodsPerYear int) Report {
	var r Report
	if v, err := c.TotalReturn(); err == nil {
		r.TotalReturn = &v
	}
	if v, err := c.SharpeRatio(riskFreeRate, periodsPerYear); err == nil {
		r.SharpeRatio = &v
	}
	if v, err := c.MaxDrawdown(); err == nil {
		r.Drawdown = &v
	}
	return r
}
