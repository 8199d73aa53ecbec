package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypeMarket EventType = "MARKET"
	EventTypeSignal EventType = "SIGNAL"
	EventTypeOrder  EventType = "ORDER"
	EventTypeFill   EventType = "FILL"
)

// ParseEventType normalizes s to upper case and checks it names a known type.
func ParseEventType(s string) (EventType, bool) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case EventTypeMarket, EventTypeSignal, EventTypeOrder, EventTypeFill:
		return t, true
	}
	return "", false
}

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DirectionBuy, DirectionSell:
		return d, true
	}
	return "", false
}

// Sign is +1 for BUY and -1 for SELL, in any letter case.
func (d Direction) Sign() decimal.Decimal {
	if parsed, _ := ParseDirection(string(d)); parsed == DirectionSell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Event is the capability shared by every record flowing through a backtest.
// Events are immutable once constructed; constructors reject invalid input,
// so Validate on a constructed event only fails for a zero value.
type Event interface {
	ID() string
	Type() EventType
	Timestamp() time.Time
	Validate() error
}

type header struct {
	id        string
	eventType EventType
	timestamp time.Time
}

func newHeader(eventType EventType, prefix string, ts time.Time) header {
	return header{
		id:        prefix + "-" + uuid.New().String(),
		eventType: eventType,
		timestamp: ts,
	}
}

func (h header) ID() string           { return h.id }
func (h header) Type() EventType      { return h.eventType }
func (h header) Timestamp() time.Time { return h.timestamp }

func (h header) validate(eventType EventType) error {
	if h.timestamp.IsZero() {
		return invalid(eventType, "timestamp", "must be set")
	}
	if h.eventType != eventType {
		return invalid(eventType, "event_type", "got %q", h.eventType)
	}
	if h.id == "" {
		return invalid(eventType, "event_id", "must be assigned")
	}
	return nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
