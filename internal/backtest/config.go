package backtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/1cbyc/tradesim/internal/execution"
	"github.com/shopspring/decimal"
)

const (
	DefaultRiskFreeRate      = 0.02
	DefaultQuantityPrecision = 8
	maxQuantityPrecision     = 16
)

var DefaultPositionFraction = decimal.NewFromFloat(0.1)

// Config describes one run. PeriodsPerYear has no default: it depends on
// the bar interval and the market calendar and must be set by the caller.
type Config struct {
	Symbols           []string         `json:"symbols" yaml:"symbols"`
	Start             time.Time        `json:"start" yaml:"start"`
	End               time.Time        `json:"end" yaml:"end"`
	InitialCapital    decimal.Decimal  `json:"initial_capital" yaml:"initial_capital"`
	Execution         execution.Config `json:"execution" yaml:"execution"`
	RiskFreeRate      float64          `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear    int              `json:"periods_per_year" yaml:"periods_per_year"`
	PositionFraction  decimal.Decimal  `json:"position_fraction" yaml:"position_fraction"`
	QuantityPrecision int32            `json:"quantity_precision" yaml:"quantity_precision"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapital:    decimal.NewFromInt(100000),
		Execution:         execution.DefaultConfig(),
		RiskFreeRate:      DefaultRiskFreeRate,
		PositionFraction:  DefaultPositionFraction,
		QuantityPrecision: DefaultQuantityPrecision,
	}
}

func (c Config) validate(strategies int) error {
	if strategies < 1 {
		return fmt.Errorf("at least one strategy is required")
	}
	if len(c.Symbols) < 1 {
		return fmt.Errorf("at least one symbol is required")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, symbol := range c.Symbols {
		s := strings.ToUpper(strings.TrimSpace(symbol))
		if s == "" {
			return fmt.Errorf("empty symbol")
		}
		if seen[s] {
			return fmt.Errorf("duplicate symbol %s", s)
		}
		seen[s] = true
	}
	if c.Start.IsZero() || c.End.IsZero() || !c.Start.Before(c.End) {
		return fmt.Errorf("start %s must be before end %s", c.Start, c.End)
	}
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("initial capital must be positive, got %s", c.InitialCapital)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got %d", c.PeriodsPerYear)
	}
	if !c.PositionFraction.IsPositive() || c.PositionFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("position fraction %s outside (0, 1]", c.PositionFraction)
	}
	if c.QuantityPrecision < 0 || c.QuantityPrecision > maxQuantityPrecision {
		return fmt.Errorf("quantity precision %d outside [0, %d]", c.QuantityPrecision, maxQuantityPrecision)
	}
	return c.Execution.Validate()
}

func (c Config) normalizedSymbols() []string {
	out := make([]string, len(c.Symbols))
	for i, symbol := range c.Symbols {
		out[i] = strings.ToUpper(strings.TrimSpace(symbol))
	}
	return out
}
