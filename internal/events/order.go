package events

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
)

// OrderEvent carries an unsigned quantity; Direction gives the side.
type OrderEvent struct {
	header
	symbol    string
	orderType OrderType
	quantity  decimal.Decimal
	direction Direction
}

func NewOrderEvent(ts time.Time, symbol string, orderType OrderType, quantity decimal.Decimal, direction Direction) (*OrderEvent, error) {
	if d, ok := ParseDirection(string(direction)); ok {
		direction = d
	}
	if t := OrderType(strings.ToUpper(strings.TrimSpace(string(orderType)))); t == OrderTypeMarket {
		orderType = t
	}
	e := &OrderEvent{
		header:    newHeader(EventTypeOrder, "ORD", ts),
		symbol:    normalizeSymbol(symbol),
		orderType: orderType,
		quantity:  quantity,
		direction: direction,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *OrderEvent) Symbol() string            { return e.symbol }
func (e *OrderEvent) OrderType() OrderType      { return e.orderType }
func (e *OrderEvent) Quantity() decimal.Decimal { return e.quantity }
func (e *OrderEvent) Direction() Direction      { return e.direction }

func (e *OrderEvent) Validate() error {
	if err := e.header.validate(EventTypeOrder); err != nil {
		return err
	}
	if e.symbol == "" {
		return invalid(EventTypeOrder, "symbol", "must not be empty")
	}
	if e.orderType != OrderTypeMarket {
		return invalid(EventTypeOrder, "order_type", "unsupported %q", e.orderType)
	}
	if !e.quantity.IsPositive() {
		return invalid(EventTypeOrder, "quantity", "must be positive, got %s", e.quantity)
	}
	if d, ok := ParseDirection(string(e.direction)); !ok || d != e.direction {
		return invalid(EventTypeOrder, "direction", "unknown %q", e.direction)
	}
	return nil
}
