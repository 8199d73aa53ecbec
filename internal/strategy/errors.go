package strategy

import "errors"

var (
	ErrInvalidAction = errors.New("invalid signal action")
	ErrInvalidConfig = errors.New("invalid strategy configuration")
	ErrNilEvent      = errors.New("nil market event")
)
