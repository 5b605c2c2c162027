// Package account — service.go carries the business logic: lazy account
// creation, payment-method attachment and the transaction commit.
package account

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"mockbank.dev/telegram-bot/internal/common"
)

// Service manages account state on top of a Store.
type Service struct {
	store Store

	// now is swappable in tests so last_transaction timestamps are stable.
	now func() time.Time
}

// NewService creates a new account service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Ensure returns the user's account, creating it with balance 0 on first
// contact. Safe to call on every inbound event.
func (s *Service) Ensure(ctx context.Context, userID int64) (*Account, error) {
	a, err := s.store.Find(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, common.ErrAccountNotFound) {
		return nil, err
	}

	if err := s.store.Create(ctx, userID); err != nil {
		return nil, err
	}
	log.WithField("user_id", userID).Info("Account created")
	return s.store.Find(ctx, userID)
}

// Get returns the user's account without creating it.
func (s *Service) Get(ctx context.Context, userID int64) (*Account, error) {
	return s.store.Find(ctx, userID)
}

// AddPaymentMethod appends a captured method to the account.
func (s *Service) AddPaymentMethod(ctx context.Context, userID int64, m PaymentMethod) error {
	if err := s.store.AppendPaymentMethod(ctx, userID, m); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"type":    m.Type,
	}).Info("Payment method added")
	return nil
}

// Commit applies a confirmed transaction: reads the current balance,
// computes the new one and writes balance + last_transaction as a single
// store update. Returns the new balance.
//
// The amount was validated against the balance when it was entered, and
// events for one user are serialized, so the balance cannot have moved in
// between. The overdraft check here only enforces the balance-never-negative
// invariant; the user is never re-prompted from this path.
func (s *Service) Commit(ctx context.Context, userID int64, action string, amount int64, method PaymentMethod) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	a, err := s.store.Find(ctx, userID)
	if err != nil {
		return 0, err
	}

	newBalance := a.Balance + amount
	if action == ActionWithdraw {
		if amount > a.Balance {
			return 0, common.ErrInsufficientBalance
		}
		newBalance = a.Balance - amount
	}

	last := &LastTransaction{
		Amount:        amount,
		Time:          common.FormatTimestamp(s.now()),
		PaymentMethod: method,
	}
	if err := s.store.UpdateBalance(ctx, userID, newBalance, last); err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"action":      action,
		"amount":      amount,
		"method":      method.Label(),
		"new_balance": newBalance,
	}).Info("Transaction committed")
	return newBalance, nil
}
