package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketEvent is one OHLCV bar for a symbol.
type MarketEvent struct {
	header
	symbol string
	open   decimal.Decimal
	high   decimal.Decimal
	low    decimal.Decimal
	close  decimal.Decimal
	volume decimal.Decimal
}

func NewMarketEvent(ts time.Time, symbol string, open, high, low, close, volume decimal.Decimal) (*MarketEvent, error) {
	e := &MarketEvent{
		header: newHeader(EventTypeMarket, "MKT", ts),
		symbol: normalizeSymbol(symbol),
		open:   open,
		high:   high,
		low:    low,
		close:  close,
		volume: volume,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *MarketEvent) Symbol() string          { return e.symbol }
func (e *MarketEvent) Open() decimal.Decimal   { return e.open }
func (e *MarketEvent) High() decimal.Decimal   { return e.high }
func (e *MarketEvent) Low() decimal.Decimal    { return e.low }
func (e *MarketEvent) Close() decimal.Decimal  { return e.close }
func (e *MarketEvent) Volume() decimal.Decimal { return e.volume }

func (e *MarketEvent) Validate() error {
	if err := e.header.validate(EventTypeMarket); err != nil {
		return err
	}
	if e.symbol == "" {
		return invalid(EventTypeMarket, "symbol", "must not be empty")
	}
	prices := []struct {
		field string
		value decimal.Decimal
	}{
		{"open", e.open},
		{"high", e.high},
		{"low", e.low},
		{"close", e.close},
	}
	for _, p := range prices {
		if !p.value.IsPositive() {
			return invalid(EventTypeMarket, p.field, "must be positive, got %s", p.value)
		}
	}
	if e.volume.IsNegative() {
		return invalid(EventTypeMarket, "volume", "must not be negative, got %s", e.volume)
	}
	if e.high.LessThan(e.low) {
		return invalid(EventTypeMarket, "high", "%s below low %s", e.high, e.low)
	}
	if e.open.LessThan(e.low) || e.open.GreaterThan(e.high) {
		return invalid(EventTypeMarket, "open", "%s outside [%s, %s]", e.open, e.low, e.high)
	}
	if e.close.LessThan(e.low) || e.close.GreaterThan(e.high) {
		return invalid(EventTypeMarket, "close", "%s outside [%s, %s]", e.close, e.low, e.high)
	}
	return nil
}
