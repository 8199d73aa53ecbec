package execution

import (
	"errors"
	"fmt"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrder          = errors.New("invalid order")
	ErrInvalidReferencePrice = errors.New("invalid reference price")
	ErrInvalidConfig         = errors.New("invalid execution configuration")
)

var (
	DefaultSlippage       = decimal.NewFromFloat(0.0005)
	DefaultCommissionRate = decimal.NewFromFloat(0.001)
)

type Config struct {
	Slippage       decimal.Decimal `json:"slippage" yaml:"slippage"`
	CommissionRate decimal.Decimal `json:"commission_rate" yaml:"commission_rate"`
}

func DefaultConfig() Config {
	return Config{
		Slippage:       DefaultSlippage,
		CommissionRate: DefaultCommissionRate,
	}
}

func (c Config) Validate() error {
	if c.Slippage.IsNegative() || c.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: slippage %s outside [0, 1)", ErrInvalidConfig, c.Slippage)
	}
	if c.CommissionRate.IsNegative() {
		return fmt.Errorf("%w: commission rate %s is negative", ErrInvalidConfig, c.CommissionRate)
	}
	return nil
}

// Handler turns orders into fills at a reference price with constant
// slippage and proportional commission. It holds no state beyond its
// configuration, so the same inputs always give the same fill.
type Handler struct {
	config Config
}

func NewHandler(config Config) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Handler{config: config}, nil
}

func (h *Handler) Config() Config {
	return h.config
}

// FillPrice is the reference price moved against the trader by the
// configured slippage.
func (h *Handler) FillPrice(direction events.Direction, referencePrice decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if d, _ := events.ParseDirection(string(direction)); d == events.DirectionSell {
		return referencePrice.Mul(one.Sub(h.config.Slippage))
	}
	return referencePrice.Mul(one.Add(h.config.Slippage))
}

// Commission is quantity * fillPrice * commission rate.
func (h *Handler) Commission(quantity, fillPrice decimal.Decimal) decimal.Decimal {
	return quantity.Abs().Mul(fillPrice).Mul(h.config.CommissionRate)
}

// Execute fills order at referencePrice. The fill carries the order's
// timestamp.
func (h *Handler) Execute(order *events.OrderEvent, referencePrice decimal.Decimal) (*events.FillEvent, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	if !order.Quantity().IsPositive() {
		return nil, fmt.Errorf("%w: quantity %s", ErrInvalidOrder, order.Quantity())
	}
	if !referencePrice.IsPositive() {
		return nil, fmt.Errorf("%w: %s for %s", ErrInvalidReferencePrice, referencePrice, order.Symbol())
	}

	fillPrice := h.FillPrice(order.Direction(), referencePrice)
	commission := h.Commission(order.Quantity(), fillPrice)

	fill, err := events.NewFillEvent(order.Timestamp(), order.Symbol(), order.Quantity(), fillPrice, commission, order.Direction())
	if err != nil {
		return nil, fmt.Errorf("build fill for %s: %w", order.ID(), err)
	}
	return fill, nil
}
