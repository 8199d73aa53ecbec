package portfolio

import (
	"errors"
	"fmt"
)

type RejectionReason string

const (
	RejectInsufficientFunds  RejectionReason = "insufficient_funds"
	RejectInsufficientShares RejectionReason = "insufficient_shares"
	RejectNoPosition         RejectionReason = "no_position"
	RejectInvalidFill        RejectionReason = "invalid_fill"
	RejectInternalError      RejectionReason = "internal_error"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoPosition         = errors.New("no position")
	ErrInvalidFill        = errors.New("invalid fill")
	ErrInternal           = errors.New("internal portfolio error")
)

var reasonErrors = map[RejectionReason]error{
	RejectInsufficientFunds:  ErrInsufficientFunds,
	RejectInsufficientShares: ErrInsufficientShares,
	RejectNoPosition:         ErrNoPosition,
	RejectInvalidFill:        ErrInvalidFill,
	RejectInternalError:      ErrInternal,
}

// RejectionError reports a fill the Manager refused to apply. The
// portfolio is left exactly as it was before the call.
type RejectionError struct {
	Reason RejectionReason
	Symbol string
	Detail string
	Err    error
}

func (e *RejectionError) Error() string {
	msg := fmt.Sprintf("fill rejected for %s: %s", e.Symbol, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func (e *RejectionError) Is(target error) bool {
	return reasonErrors[e.Reason] == target
}

// Fatal reports whether the rejection indicates a broken invariant rather
// than an expected solvency outcome.
func (e *RejectionError) Fatal() bool {
	return e.Reason == RejectInternalError
}

func reject(reason RejectionReason, symbol, format string, args ...interface{}) *RejectionError {
	return &RejectionError{Reason: reason, Symbol: symbol, Detail: fmt.Sprintf(format, args...)}
}
