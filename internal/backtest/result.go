package backtest

import (
	"github.com/1cbyc/tradesim/internal/performance"
	"github.com/1cbyc/tradesim/internal/portfolio"
	"github.com/shopspring/decimal"
)

// Result is produced once per completed run. Nil metrics mean there was
// not enough data to compute them. PortfolioValues[0] is the initial
// capital.
type Result struct {
	State                State                         `json:"state"`
	Strategies           []string                      `json:"strategies"`
	TotalReturn          *float64                      `json:"total_return"`
	SharpeRatio          *float64                      `json:"sharpe_ratio"`
	MaxDrawdown          *float64                      `json:"max_drawdown"`
	Drawdown             *performance.Drawdown         `json:"drawdown,omitempty"`
	TradeCount           int                           `json:"trade_count"`
	PortfolioValues      []float64                     `json:"portfolio_values"`
	ValueHistory         []performance.Point           `json:"value_history"`
	TradeHistory         []portfolio.TradeRecord       `json:"trade_history"`
	BarsProcessed        int                           `json:"bars_processed"`
	SkippedRows          int                           `json:"skipped_rows"`
	SkippedTrades        map[SkipReason]int            `json:"skipped_trades"`
	IncompleteValuations int                           `json:"incomplete_valuations"`
	InitialCapital       decimal.Decimal               `json:"initial_capital"`
	FinalCash            decimal.Decimal               `json:"final_cash"`
	FinalValue           decimal.Decimal               `json:"final_value"`
	TotalCommission      decimal.Decimal               `json:"total_commission"`
	RealizedPnL          decimal.Decimal               `json:"realized_pnl"`
	Positions            map[string]portfolio.Position `json:"positions"`
}

// SkippedTradeCount sums the skipped trades over every reason.
func (r *Result) SkippedTradeCount() int {
	total := 0
	for _, n := range r.SkippedTrades {
		total += n
	}
	return total
}
