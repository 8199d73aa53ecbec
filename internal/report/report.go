package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/1cbyc/tradesim/internal/backtest"
	"github.com/1cbyc/tradesim/internal/portfolio"
	"github.com/olekukonko/tablewriter"
)

// Console prints backtest results as tables.
type Console struct {
	out io.Writer
}

func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter writes to w instead of stdout.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Print writes the summary, open positions and the trade log.
func (c *Console) Print(result *backtest.Result) error {
	if err := c.Summary(result); err != nil {
		return err
	}
	if len(result.Positions) > 0 {
		fmt.Fprintln(c.out)
		if err := c.Positions(result.Positions); err != nil {
			return err
		}
	}
	if len(result.TradeHistory) > 0 {
		fmt.Fprintln(c.out)
		return c.Trades(result.TradeHistory)
	}
	return nil
}

func (c *Console) Summary(result *backtest.Result) error {
	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")

	rows := [][]string{
		{"State", string(result.State)},
		{"Strategies", fmt.Sprint(result.Strategies)},
		{"Initial capital", result.InitialCapital.StringFixed(2)},
		{"Final value", result.FinalValue.StringFixed(2)},
		{"Final cash", result.FinalCash.StringFixed(2)},
		{"Total return", percent(result.TotalReturn)},
		{"Sharpe ratio", ratio(result.SharpeRatio)},
		{"Max drawdown", percent(result.MaxDrawdown)},
		{"Trades", fmt.Sprintf("%d", result.TradeCount)},
		{"Realized P&L", result.RealizedPnL.StringFixed(2)},
		{"Commission", result.TotalCommission.StringFixed(2)},
		{"Bars", fmt.Sprintf("%d", result.BarsProcessed)},
		{"Skipped rows", fmt.Sprintf("%d", result.SkippedRows)},
		{"Skipped trades", skipped(result)},
	}
	if result.Drawdown != nil && result.Drawdown.MaxDrawdown < 0 {
		rows = append(rows, []string{"Drawdown length", fmt.Sprintf("%d bars", result.Drawdown.Duration)})
	}
	if result.IncompleteValuations > 0 {
		rows = append(rows, []string{"Incomplete valuations", fmt.Sprintf("%d", result.IncompleteValuations)})
	}

	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

func (c *Console) Positions(positions map[string]portfolio.Position) error {
	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Quantity", "Avg cost", "Unrealized", "Realized")
	for _, symbol := range symbols {
		p := positions[symbol]
		if err := table.Append(
			p.Symbol,
			p.Quantity.String(),
			p.AverageCost.StringFixed(4),
			p.UnrealizedPnL.StringFixed(2),
			p.RealizedPnL.StringFixed(2),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func (c *Console) Trades(trades []portfolio.TradeRecord) error {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Symbol", "Side", "Quantity", "Price", "Fee", "P&L")
	for i, trade := range trades {
		pnl := "-"
		if trade.RealizedPnL.Valid {
			pnl = trade.RealizedPnL.Decimal.StringFixed(2)
		}
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			trade.Timestamp.Format("2006-01-02 15:04"),
			trade.Symbol,
			string(trade.Action),
			trade.Quantity.String(),
			trade.Price.StringFixed(4),
			trade.Commission.StringFixed(4),
			pnl,
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func skipped(result *backtest.Result) string {
	total := result.SkippedTradeCount()
	if total == 0 {
		return "0"
	}
	reasons := make([]string, 0, len(result.SkippedTrades))
	for reason, n := range result.SkippedTrades {
		reasons = append(reasons, fmt.Sprintf("%s: %d", reason, n))
	}
	sort.Strings(reasons)
	return fmt.Sprintf("%d (%s)", total, strings.Join(reasons, ", "))
}
