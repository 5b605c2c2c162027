// Package common — errors.go defines the sentinel errors shared by the
// account service and the dialogue controller. Handlers match on them with
// errors.Is to pick the right user-facing reply.
package common

import "errors"

// Account and transaction errors.
var (
	// ErrAccountNotFound — no account record exists for the user yet.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAmount — amount is zero, negative or not a number.
	ErrInvalidAmount = errors.New("amount must be a positive whole number")
	// ErrInsufficientBalance — withdrawal exceeds the current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnknownPaymentMethod — the selected method is not attached to the account.
	ErrUnknownPaymentMethod = errors.New("payment method not found on account")
)
