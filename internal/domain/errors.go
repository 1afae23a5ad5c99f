package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrPriceRequired       = errors.New("price must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance after reserves")
	ErrLockHeld            = errors.New("lock already held")
	ErrGatewayClosed       = errors.New("ledger gateway connection closed")
	ErrInvalidPair         = errors.New("invalid trading pair")
)
