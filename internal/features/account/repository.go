// Package account — repository.go is the PostgreSQL implementation of Store.
// last_transaction and payment_methods live in JSONB columns; the method
// list is appended in place with the || operator so two appends cannot
// clobber each other.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mockbank.dev/telegram-bot/internal/common"
)

// Repository provides account persistence on top of a pgx pool.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new account repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// Find returns the account for userID, or common.ErrAccountNotFound.
func (r *Repository) Find(ctx context.Context, userID int64) (*Account, error) {
	query := `
		SELECT user_id, balance, last_transaction, payment_methods, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`
	var (
		a          Account
		lastRaw    []byte
		methodsRaw []byte
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&a.UserID, &a.Balance, &lastRaw, &methodsRaw, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if len(lastRaw) > 0 {
		var last LastTransaction
		if err := json.Unmarshal(lastRaw, &last); err != nil {
			return nil, fmt.Errorf("bad last_transaction payload: %w", err)
		}
		a.LastTransaction = &last
	}
	if len(methodsRaw) > 0 {
		if err := json.Unmarshal(methodsRaw, &a.PaymentMethods); err != nil {
			return nil, fmt.Errorf("bad payment_methods payload: %w", err)
		}
	}
	return &a, nil
}

// Create inserts a fresh account with balance 0. Idempotent: an existing
// row is left untouched.
func (r *Repository) Create(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO accounts (user_id, balance, payment_methods)
		VALUES ($1, 0, '[]'::jsonb)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// UpdateBalance writes the new balance and last transaction in one UPDATE,
// so a commit is all-or-nothing at the row level.
func (r *Repository) UpdateBalance(ctx context.Context, userID int64, balance int64, last *LastTransaction) error {
	lastJSON, err := json.Marshal(last)
	if err != nil {
		return fmt.Errorf("failed to encode last_transaction: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET balance = $2, last_transaction = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, balance, lastJSON)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}

// AppendPaymentMethod appends one method to the end of payment_methods.
func (r *Repository) AppendPaymentMethod(ctx context.Context, userID int64, m PaymentMethod) error {
	methodJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode payment method: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET payment_methods = payment_methods || $2::jsonb, updated_at = NOW()
		WHERE user_id = $1
	`, userID, methodJSON)
	if err != nil {
		return fmt.Errorf("failed to append payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}
