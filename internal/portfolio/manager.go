package portfolio

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/1cbyc/tradesim/internal/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeRecord is one applied fill as it appears in the trade history.
type TradeRecord struct {
	Timestamp   time.Time           `json:"timestamp"`
	Symbol      string              `json:"symbol"`
	Action      events.Direction    `json:"action"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Price       decimal.Decimal     `json:"price"`
	Commission  decimal.Decimal     `json:"commission"`
	RealizedPnL decimal.NullDecimal `json:"realized_pnl"`
}

// Valuation is the result of marking the portfolio to market. Missing
// lists held symbols that had no price and were left out of Total.
type Valuation struct {
	Total   decimal.Decimal
	Missing []string
}

func (v Valuation) Complete() bool {
	return len(v.Missing) == 0
}

// Manager owns the cash balance and the open positions of one backtest.
// It is the only mutator of its positions and applies fills all or nothing.
type Manager struct {
	cash        decimal.Decimal
	positions   map[string]*Position
	trades      []TradeRecord
	commissions decimal.Decimal
	realized    decimal.Decimal
	logger      *zap.Logger
}

func NewManager(initialCash decimal.Decimal, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cash:        initialCash,
		positions:   make(map[string]*Position),
		trades:      []TradeRecord{},
		commissions: decimal.Zero,
		realized:    decimal.Zero,
		logger:      logger,
	}
}

// Apply applies a fill event.
func (m *Manager) Apply(fill *events.FillEvent) error {
	return m.ApplyFill(fill.Timestamp(), fill.Symbol(), fill.NetQuantity(), fill.FillPrice(), fill.Commission())
}

// ApplyFill debits or credits cash by signedQuantity*price+commission and
// moves the symbol's position by signedQuantity. A non-nil error is always
// a *RejectionError and means nothing was changed.
func (m *Manager) ApplyFill(ts time.Time, symbol string, signedQuantity, price, commission decimal.Decimal) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := m.check(symbol, signedQuantity, price, commission); err != nil {
		m.logger.Debug("Fill rejected",
			zap.String("symbol", symbol),
			zap.String("reason", string(err.Reason)),
			zap.String("detail", err.Detail),
		)
		return err
	}

	totalCost := signedQuantity.Mul(price).Add(commission)
	prevCash := m.cash
	position, exists := m.positions[symbol]
	if !exists {
		position = NewPosition(symbol)
	}
	snapshot := *position

	m.cash = m.cash.Sub(totalCost)
	realized, err := position.Update(signedQuantity, price, decimal.NewNullDecimal(price))
	if err != nil {
		m.cash = prevCash
		*position = snapshot
		m.logger.Error("Position update failed, fill rolled back", zap.String("symbol", symbol), zap.Error(err))
		return &RejectionError{Reason: RejectInternalError, Symbol: symbol, Err: err}
	}

	if position.IsFlat() {
		delete(m.positions, symbol)
	} else {
		m.positions[symbol] = position
	}

	action := events.DirectionBuy
	if signedQuantity.IsNegative() {
		action = events.DirectionSell
	}
	record := TradeRecord{
		Timestamp:  ts,
		Symbol:     symbol,
		Action:     action,
		Quantity:   signedQuantity.Abs(),
		Price:      price,
		Commission: commission,
	}
	if exists && signedQuantity.Sign() != snapshot.Quantity.Sign() {
		record.RealizedPnL = decimal.NewNullDecimal(realized)
	}
	m.trades = append(m.trades, record)
	m.commissions = m.commissions.Add(commission)
	m.realized = m.realized.Add(realized)

	m.logger.Info("Trade executed",
		zap.String("symbol", symbol),
		zap.String("side", string(action)),
		zap.String("quantity", record.Quantity.String()),
		zap.String("price", price.String()),
		zap.String("commission", commission.String()),
		zap.String("cash", m.cash.String()),
	)
	return nil
}

func (m *Manager) check(symbol string, signedQuantity, price, commission decimal.Decimal) *RejectionError {
	if symbol == "" {
		return reject(RejectInvalidFill, symbol, "symbol must not be empty")
	}
	if signedQuantity.Abs().LessThanOrEqual(Epsilon) {
		return reject(RejectInvalidFill, symbol, "quantity %s is not above %s", signedQuantity, Epsilon)
	}
	if !price.IsPositive() {
		return reject(RejectInvalidFill, symbol, "price must be positive, got %s", price)
	}
	if commission.IsNegative() {
		return reject(RejectInvalidFill, symbol, "commission must not be negative, got %s", commission)
	}

	if signedQuantity.IsPositive() {
		totalCost := signedQuantity.Mul(price).Add(commission)
		if m.cash.LessThan(totalCost) {
			return reject(RejectInsufficientFunds, symbol, "need %s, have %s", totalCost, m.cash)
		}
		return nil
	}

	position, exists := m.positions[symbol]
	if !exists {
		return reject(RejectNoPosition, symbol, "nothing to sell")
	}
	if signedQuantity.Abs().GreaterThan(position.Quantity.Add(Epsilon)) {
		return reject(RejectInsufficientShares, symbol, "sell %s, hold %s", signedQuantity.Abs(), position.Quantity)
	}
	return nil
}

// MarkToMarket values cash plus every position at prices. A held symbol
// without a price is skipped and reported in Valuation.Missing.
func (m *Manager) MarkToMarket(prices map[string]decimal.Decimal) Valuation {
	total := m.cash
	var missing []string
	for _, symbol := range m.symbols() {
		position := m.positions[symbol]
		price, ok := prices[symbol]
		if !ok || !price.IsPositive() {
			missing = append(missing, symbol)
			m.logger.Warn("No price for held position, excluded from valuation", zap.String("symbol", symbol))
			continue
		}
		position.Mark(price)
		total = total.Add(position.MarketValue(price))
	}
	return Valuation{Total: total, Missing: missing}
}

func (m *Manager) symbols() []string {
	symbols := make([]string, 0, len(m.positions))
	for symbol := range m.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (m *Manager) Cash() decimal.Decimal {
	return m.cash
}

// Position returns a copy of the open position for symbol.
func (m *Manager) Position(symbol string) (Position, bool) {
	position, ok := m.positions[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Position{}, false
	}
	return *position, true
}

// Positions returns copies of all open positions keyed by symbol.
func (m *Manager) Positions() map[string]Position {
	out := make(map[string]Position, len(m.positions))
	for symbol, position := range m.positions {
		out[symbol] = *position
	}
	return out
}

// HeldQuantity is the open quantity for symbol, zero when not held.
func (m *Manager) HeldQuantity(symbol string) decimal.Decimal {
	if position, ok := m.positions[symbol]; ok {
		return position.Quantity
	}
	return decimal.Zero
}

func (m *Manager) Trades() []TradeRecord {
	out := make([]TradeRecord, len(m.trades))
	copy(out, m.trades)
	return out
}

func (m *Manager) TotalCommission() decimal.Decimal {
	return m.commissions
}

func (m *Manager) RealizedPnL() decimal.Decimal {
	return m.realized
}

func (m *Manager) String() string {
	return fmt.Sprintf("cash=%s positions=%d trades=%d", m.cash, len(m.positions), len(m.trades))
}
