package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
)

// Strategy decides what to trade. It sees one bar at a time, in
// chronological order, and returns zero or more signals for it.
type Strategy interface {
	Name() string
	GenerateSignals(ctx context.Context, event *events.MarketEvent) ([]Signal, error)
}

// Resetter is implemented by strategies that keep history between bars
// and can be returned to their initial state before a new run.
type Resetter interface {
	Reset()
}

// Signal is what a strategy emits. Symbol defaults to the bar's symbol and
// Strength defaults to 1 when unset or outside [0, 1].
type Signal struct {
	Symbol   string
	Action   string
	Strength decimal.NullDecimal
}

func Buy(symbol string, strength decimal.Decimal) Signal {
	return Signal{Symbol: symbol, Action: string(events.SignalBuy), Strength: decimal.NewNullDecimal(strength)}
}

func Sell(symbol string, strength decimal.Decimal) Signal {
	return Signal{Symbol: symbol, Action: string(events.SignalSell), Strength: decimal.NewNullDecimal(strength)}
}

// ToEvent normalizes the signal against the bar it was generated for.
// An unknown action is an error; every other field is defaulted.
func (s Signal) ToEvent(bar *events.MarketEvent, strategyName string) (*events.SignalEvent, error) {
	signalType, ok := events.ParseSignalType(s.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %q from %s", ErrInvalidAction, s.Action, strategyName)
	}

	symbol := strings.TrimSpace(s.Symbol)
	if symbol == "" {
		symbol = bar.Symbol()
	}

	one := decimal.NewFromInt(1)
	strength := one
	if s.Strength.Valid && !s.Strength.Decimal.IsNegative() && s.Strength.Decimal.LessThanOrEqual(one) {
		strength = s.Strength.Decimal
	}

	return events.NewSignalEvent(bar.Timestamp(), symbol, signalType, strength, strategyName)
}
