package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance under which a quantity counts as zero.
var Epsilon = decimal.New(1, -9)

// Position tracks one symbol's signed exposure. Quantity is positive for
// long, negative for short and zero when flat. AverageCost is the cost
// basis per unit of the current exposure and is zero when flat.
type Position struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
}

func NewPosition(symbol string) *Position {
	return &Position{
		Symbol:        symbol,
		Quantity:      decimal.Zero,
		AverageCost:   decimal.Zero,
		UnrealizedPnL: decimal.Zero,
		RealizedPnL:   decimal.Zero,
	}
}

func isZero(q decimal.Decimal) bool {
	return q.Abs().LessThan(Epsilon)
}

func (p *Position) IsFlat() bool {
	return isZero(p.Quantity)
}

// Update applies a signed quantity change traded at tradePrice using
// weighted average cost. A trade that crosses zero discards the old basis
// and opens the remainder at tradePrice. When mark is valid the unrealized
// P&L is recomputed against it, otherwise it is reset to zero.
//
// The returned value is the P&L realized by the part of the trade that
// reduced existing exposure, gross of commission.
func (p *Position) Update(change, tradePrice decimal.Decimal, mark decimal.NullDecimal) (decimal.Decimal, error) {
	if !tradePrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("position %s: trade price must be positive, got %s", p.Symbol, tradePrice)
	}
	if mark.Valid && !mark.Decimal.IsPositive() {
		return decimal.Zero, fmt.Errorf("position %s: mark price must be positive, got %s", p.Symbol, mark.Decimal)
	}
	if change.IsZero() {
		return decimal.Zero, nil
	}
	if !p.IsFlat() && !p.AverageCost.IsPositive() {
		return decimal.Zero, fmt.Errorf("position %s: open quantity %s has cost basis %s", p.Symbol, p.Quantity, p.AverageCost)
	}

	old := p.Quantity
	newQuantity := old.Add(change)
	wasFlat := isZero(old)

	realized := decimal.Zero
	if !wasFlat && change.Sign() != old.Sign() {
		closed := decimal.Min(change.Abs(), old.Abs())
		realized = tradePrice.Sub(p.AverageCost).Mul(closed).Mul(decimal.NewFromInt(int64(old.Sign())))
	}

	switch {
	case isZero(newQuantity):
		newQuantity = decimal.Zero
		p.AverageCost = decimal.Zero
	case wasFlat || newQuantity.Sign() != old.Sign():
		p.AverageCost = tradePrice
	case change.Sign() == old.Sign():
		p.AverageCost = p.AverageCost.Mul(old.Abs()).
			Add(tradePrice.Mul(change.Abs())).
			Div(newQuantity.Abs())
	}

	p.Quantity = newQuantity
	p.RealizedPnL = p.RealizedPnL.Add(realized)
	if mark.Valid {
		p.Mark(mark.Decimal)
	} else {
		p.UnrealizedPnL = decimal.Zero
	}
	return realized, nil
}

// Mark recomputes the unrealized P&L at price.
func (p *Position) Mark(price decimal.Decimal) {
	if p.IsFlat() {
		p.UnrealizedPnL = decimal.Zero
		return
	}
	if p.Quantity.IsPositive() {
		p.UnrealizedPnL = price.Sub(p.AverageCost).Mul(p.Quantity)
		return
	}
	p.UnrealizedPnL = p.AverageCost.Sub(price).Mul(p.Quantity.Abs())
}

// MarketValue is the signed value of the exposure at price.
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}
