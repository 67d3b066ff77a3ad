package service

import "errors"

// Validation and lookup failures returned by the ledger operations. All of
// them are rejected before any write, so the account state is untouched.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidAmount          = errors.New("amount must be a positive value")
	ErrChargeLimitExceeded    = errors.New("charge amount must be 50,000 yen or less")
	ErrBalanceCapExceeded     = errors.New("charge would exceed the balance cap of 200,000 yen")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidDuration        = errors.New("unknown commuter pass duration")
	ErrTicketNotIssued        = errors.New("ticket not found or not in issued state")
	ErrPassNotFound           = errors.New("commuter pass not found")
	ErrPaymentMethodNotFound  = errors.New("payment method not found")
	ErrInvalidPaymentType     = errors.New("unknown payment method type")
	ErrInvalidTransactionType = errors.New("unknown transaction type")
)
