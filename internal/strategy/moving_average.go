package strategy

import (
	"context"
	"fmt"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
)

// MovingAverageStrategy buys when the short SMA crosses above the long SMA
// and sells when it crosses back below.
type MovingAverageStrategy struct {
	*BaseStrategy
	shortPeriod int
	longPeriod  int
	above       map[string]bool
}

func NewMovingAverageStrategy(shortPeriod, longPeriod int) (*MovingAverageStrategy, error) {
	if shortPeriod <= 0 || longPeriod <= shortPeriod {
		return nil, fmt.Errorf("%w: need 0 < short (%d) < long (%d)", ErrInvalidConfig, shortPeriod, longPeriod)
	}
	return &MovingAverageStrategy{
		BaseStrategy: NewBaseStrategy(fmt.Sprintf("ma_crossover_%d_%d", shortPeriod, longPeriod), longPeriod+1),
		shortPeriod:  shortPeriod,
		longPeriod:   longPeriod,
		above:        make(map[string]bool),
	}, nil
}

func (s *MovingAverageStrategy) Reset() {
	s.BaseStrategy.Reset()
	s.above = make(map[string]bool)
}

func (s *MovingAverageStrategy) GenerateSignals(ctx context.Context, event *events.MarketEvent) ([]Signal, error) {
	if event == nil {
		return nil, ErrNilEvent
	}
	symbol := event.Symbol()
	prices := s.record(symbol, event.Close())

	shortMA := sma(prices, s.shortPeriod)
	longMA := sma(prices, s.longPeriod)
	if shortMA.IsZero() || longMA.IsZero() {
		return nil, nil
	}

	above := shortMA.GreaterThan(longMA)
	previous, seen := s.above[symbol]
	s.above[symbol] = above
	if !seen || previous == above {
		return nil, nil
	}

	confidence := s.calculateConfidence(shortMA, longMA)
	if above {
		return []Signal{Buy(symbol, confidence)}, nil
	}
	return []Signal{Sell(symbol, decimal.NewFromInt(1))}, nil
}

// calculateConfidence is the relative spread between the averages scaled so
// that a 5% gap is full confidence.
func (s *MovingAverageStrategy) calculateConfidence(shortMA, longMA decimal.Decimal) decimal.Decimal {
	spread := shortMA.Sub(longMA).Div(longMA).Abs()
	confidence := spread.Mul(decimal.NewFromInt(20))
	if confidence.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return confidence
}
