package backtest

import (
	"github.com/1cbyc/tradesim/internal/events"
	"github.com/1cbyc/tradesim/internal/execution"
	"github.com/shopspring/decimal"
)

type SkipReason string

const (
	SkipNoPosition SkipReason = "no_position"
	SkipZeroSize   SkipReason = "zero_size"
	SkipNoPrice    SkipReason = "no_price"
)

// Sizer turns a signal's direction and strength into an order quantity.
// Buys spend fraction*strength of the cash, including slippage and
// commission. Sells close strength of the held quantity.
type Sizer struct {
	fraction   decimal.Decimal
	slippage   decimal.Decimal
	commission decimal.Decimal
	precision  int32
}

func NewSizer(fraction decimal.Decimal, exec execution.Config, precision int32) *Sizer {
	return &Sizer{
		fraction:   fraction,
		slippage:   exec.Slippage,
		commission: exec.CommissionRate,
		precision:  precision,
	}
}

// Size returns the order quantity, or zero and the reason no order should
// be placed.
func (s *Sizer) Size(direction events.Direction, strength, price, cash, held decimal.Decimal) (decimal.Decimal, SkipReason) {
	var quantity decimal.Decimal
	switch direction {
	case events.DirectionBuy:
		one := decimal.NewFromInt(1)
		unitCost := price.Mul(one.Add(s.slippage)).Mul(one.Add(s.commission))
		if !unitCost.IsPositive() {
			return decimal.Zero, SkipNoPrice
		}
		budget := cash.Mul(s.fraction).Mul(strength)
		quantity = budget.Div(unitCost).Truncate(s.precision)
	case events.DirectionSell:
		if !held.IsPositive() {
			return decimal.Zero, SkipNoPosition
		}
		quantity = held.Mul(strength).Truncate(s.precision)
	}
	if !quantity.IsPositive() {
		return decimal.Zero, SkipZeroSize
	}
	return quantity, ""
}
