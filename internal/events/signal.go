package events

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

func ParseSignalType(s string) (SignalType, bool) {
	t := SignalType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case SignalBuy, SignalSell, SignalHold:
		return t, true
	}
	return "", false
}

// Direction maps an actionable signal onto an order direction.
// HOLD has no direction.
func (t SignalType) Direction() (Direction, bool) {
	t, _ = ParseSignalType(string(t))
	switch t {
	case SignalBuy:
		return DirectionBuy, true
	case SignalSell:
		return DirectionSell, true
	}
	return "", false
}

// SignalEvent is advisory: it never mutates a portfolio by itself.
type SignalEvent struct {
	header
	symbol     string
	signalType SignalType
	strength   decimal.Decimal
	strategy   string
}

func NewSignalEvent(ts time.Time, symbol string, signalType SignalType, strength decimal.Decimal, strategy string) (*SignalEvent, error) {
	if t, ok := ParseSignalType(string(signalType)); ok {
		signalType = t
	}
	e := &SignalEvent{
		header:     newHeader(EventTypeSignal, "SIG", ts),
		symbol:     normalizeSymbol(symbol),
		signalType: signalType,
		strength:   strength,
		strategy:   strategy,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *SignalEvent) Symbol() string            { return e.symbol }
func (e *SignalEvent) SignalType() SignalType    { return e.signalType }
func (e *SignalEvent) Strength() decimal.Decimal { return e.strength }
func (e *SignalEvent) Strategy() string          { return e.strategy }

func (e *SignalEvent) Validate() error {
	if err := e.header.validate(EventTypeSignal); err != nil {
		return err
	}
	if e.symbol == "" {
		return invalid(EventTypeSignal, "symbol", "must not be empty")
	}
	if t, ok := ParseSignalType(string(e.signalType)); !ok || t != e.signalType {
		return invalid(EventTypeSignal, "signal_type", "unknown %q", e.signalType)
	}
	if e.strength.IsNegative() || e.strength.GreaterThan(decimal.NewFromInt(1)) {
		return invalid(EventTypeSignal, "strength", "%s outside [0, 1]", e.strength)
	}
	if strings.TrimSpace(e.strategy) == "" {
		return invalid(EventTypeSignal, "strategy", "must not be empty")
	}
	return nil
}
