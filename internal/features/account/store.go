package account

import "context"

// Store is the durable account holder. The dialogue core needs only these
// four operations; each call is atomic on its own, no cross-call
// transactions are assumed.
type Store interface {
	// Find returns the account for userID, or common.ErrAccountNotFound.
	Find(ctx context.Context, userID int64) (*Account, error)
	// Create inserts a fresh account with balance 0 and no methods.
	// Creating an existing account is a no-op (idempotent).
	Create(ctx context.Context, userID int64) error
	// UpdateBalance writes the new balance and last transaction as one update.
	UpdateBalance(ctx context.Context, userID int64, balance int64, last *LastTransaction) error
	// AppendPaymentMethod appends one method to the end of the account's list.
	AppendPaymentMethod(ctx context.Context, userID int64, m PaymentMethod) error
}
