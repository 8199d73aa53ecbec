package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillEvent is the single fill record shared by execution, portfolio and
// the trade log.
type FillEvent struct {
	header
	symbol     string
	quantity   decimal.Decimal
	fillPrice  decimal.Decimal
	commission decimal.Decimal
	direction  Direction
}

func NewFillEvent(ts time.Time, symbol string, quantity, fillPrice, commission decimal.Decimal, direction Direction) (*FillEvent, error) {
	if d, ok := ParseDirection(string(direction)); ok {
		direction = d
	}
	e := &FillEvent{
		header:     newHeader(EventTypeFill, "FIL", ts),
		symbol:     normalizeSymbol(symbol),
		quantity:   quantity,
		fillPrice:  fillPrice,
		commission: commission,
		direction:  direction,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *FillEvent) Symbol() string              { return e.symbol }
func (e *FillEvent) Quantity() decimal.Decimal   { return e.quantity }
func (e *FillEvent) FillPrice() decimal.Decimal  { return e.fillPrice }
func (e *FillEvent) Commission() decimal.Decimal { return e.commission }
func (e *FillEvent) Direction() Direction        { return e.direction }

// NetQuantity is the signed quantity: positive for BUY, negative for SELL.
func (e *FillEvent) NetQuantity() decimal.Decimal {
	return e.quantity.Mul(e.direction.Sign())
}

// TotalCost is the notional plus commission for a BUY and the notional
// less commission for a SELL.
func (e *FillEvent) TotalCost() decimal.Decimal {
	notional := e.quantity.Mul(e.fillPrice)
	if e.direction == DirectionSell {
		return notional.Sub(e.commission)
	}
	return notional.Add(e.commission)
}

func (e *FillEvent) Validate() error {
	if err := e.header.validate(EventTypeFill); err != nil {
		return err
	}
	if e.symbol == "" {
		return invalid(EventTypeFill, "symbol", "must not be empty")
	}
	if !e.quantity.IsPositive() {
		return invalid(EventTypeFill, "quantity", "must be positive, got %s", e.quantity)
	}
	if !e.fillPrice.IsPositive() {
		return invalid(EventTypeFill, "fill_price", "must be positive, got %s", e.fillPrice)
	}
	if e.commission.IsNegative() {
		return invalid(EventTypeFill, "commission", "must not be negative, got %s", e.commission)
	}
	if d, ok := ParseDirection(string(e.direction)); !ok || d != e.direction {
		return invalid(EventTypeFill, "direction", "unknown %q", e.direction)
	}
	return nil
}
