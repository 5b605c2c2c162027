// Package account — memstore.go is an in-memory Store used for local
// development (DB_BACKEND=memory) and in tests. State lives for the
// process lifetime only.
package account

import (
	"context"
	"sync"
	"time"

	"mockbank.dev/telegram-bot/internal/common"
)

// MemStore keeps accounts in a mutex-guarded map.
type MemStore struct {
	mu       sync.Mutex
	accounts map[int64]*Account
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{accounts: make(map[int64]*Account)}
}

var _ Store = (*MemStore)(nil)

// Find returns a copy of the account so callers cannot mutate shared state.
func (s *MemStore) Find(_ context.Context, userID int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	cp := *a
	cp.PaymentMethods = append([]PaymentMethod(nil), a.PaymentMethods...)
	if a.LastTransaction != nil {
		last := *a.LastTransaction
		cp.LastTransaction = &last
	}
	return &cp, nil
}

// Create inserts a zero-balance account if none exists.
func (s *MemStore) Create(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; ok {
		return nil
	}
	now := time.Now()
	s.accounts[userID] = &Account{
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// UpdateBalance writes the balance and last transaction together.
func (s *MemStore) UpdateBalance(_ context.Context, userID int64, balance int64, last *LastTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return common.ErrAccountNotFound
	}
	a.Balance = balance
	a.LastTransaction = last
	a.UpdatedAt = time.Now()
	return nil
}

// AppendPaymentMethod appends one method to the account's list.
func (s *MemStore) AppendPaymentMethod(_ context.Context, userID int64, m PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return common.ErrAccountNotFound
	}
	a.PaymentMethods = append(a.PaymentMethods, m)
	a.UpdatedAt = time.Now()
	return nil
}
