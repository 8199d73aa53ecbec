package strategy

import (
	"context"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
)

// BuyAndHoldStrategy buys every symbol once on its first bar.
type BuyAndHoldStrategy struct {
	*BaseStrategy
	bought map[string]bool
}

func NewBuyAndHoldStrategy() *BuyAndHoldStrategy {
	return &BuyAndHoldStrategy{
		BaseStrategy: NewBaseStrategy("buy_and_hold", 1),
		bought:       make(map[string]bool),
	}
}

func (s *BuyAndHoldStrategy) Reset() {
	s.BaseStrategy.Reset()
	s.bought = make(map[string]bool)
}

func (s *BuyAndHoldStrategy) GenerateSignals(ctx context.Context, event *events.MarketEvent) ([]Signal, error) {
	if event == nil {
		return nil, ErrNilEvent
	}
	if s.bought[event.Symbol()] {
		return nil, nil
	}
	s.bought[event.Symbol()] = true
	return []Signal{Buy(event.Symbol(), decimal.NewFromInt(1))}, nil
}
