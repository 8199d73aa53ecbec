package strategy

import "github.com/shopspring/decimal"

// BaseStrategy carries the name and per-symbol close history shared by
// the bundled strategies.
type BaseStrategy struct {
	name    string
	window  int
	history map[string][]decimal.Decimal
}

func NewBaseStrategy(name string, window int) *BaseStrategy {
	return &BaseStrategy{
		name:    name,
		window:  window,
		history: make(map[string][]decimal.Decimal),
	}
}

func (s *BaseStrategy) Name() string {
	return s.name
}

func (s *BaseStrategy) Reset() {
	s.history = make(map[string][]decimal.Decimal)
}

// record appends a close and trims the history to the window.
func (s *BaseStrategy) record(symbol string, price decimal.Decimal) []decimal.Decimal {
	prices := append(s.history[symbol], price)
	if s.window > 0 && len(prices) > s.window {
		prices = prices[len(prices)-s.window:]
	}
	s.history[symbol] = prices
	return prices
}

// sma averages the last period prices, or returns zero when there are not
// enough of them.
func sma(prices []decimal.Decimal, period int) decimal.Decimal {
	if period <= 0 || len(prices) < period {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, price := range prices[len(prices)-period:] {
		sum = sum.Add(price)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
