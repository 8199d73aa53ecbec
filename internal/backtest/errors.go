package backtest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrData          = errors.New("data error")
	ErrStrategy      = errors.New("strategy error")
	ErrExecution     = errors.New("execution error")
	ErrBacktesting   = errors.New("backtesting error")
	ErrCancelled     = errors.New("backtest cancelled")
)

// Error is a fatal run error. Kind is one of the sentinel errors above and
// Err is the underlying cause; errors.Is matches both.
type Error struct {
	Kind   error
	Op     string
	Symbol string
	Start  time.Time
	End    time.Time
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Symbol != "" {
		fmt.Fprintf(&b, " %s", e.Symbol)
	}
	if !e.Start.IsZero() || !e.End.IsZero() {
		fmt.Fprintf(&b, " [%s, %s]", e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
