// Package dialog — session.go holds the transient per-user conversation
// state. One record per user, kept in memory, cleared on commit, cancel
// or error recovery and swept when abandoned.
package dialog

import (
	"sync"
	"time"

	"mockbank.dev/telegram-bot/internal/features/account"
)

// State is the position in the conversation state machine. Free-text
// input is routed by exactly one handler per state.
type State int

// Conversation states.
const (
	// StateIdle — no flow in progress; free text is ignored.
	StateIdle State = iota
	// StateAmountEntry — waiting for a numeric amount for Action.
	StateAmountEntry
	// StateMethodSelect — waiting for a payment-method button press.
	StateMethodSelect
	// StateCaptureDetails — waiting for bank name / PayPal email free text.
	StateCaptureDetails
	// StateCaptureCurrency — waiting for the crypto currency (step 1 of 2).
	StateCaptureCurrency
	// StateCaptureAddress — waiting for the wallet address (step 2 of 2).
	StateCaptureAddress
	// StateConfirm — waiting for the Confirm/Cancel button press.
	StateConfirm
)

// Session is the in-progress flow for one user. The zero value is a
// fresh, idle session.
type Session struct {
	State  State
	Action string // account.ActionDeposit / ActionWithdraw, or "" outside a transaction
	Amount int64  // validated amount, 0 until amount entry passes

	// OriginalAction preserves the transaction action while the
	// payment-method capture sub-flow runs.
	OriginalAction string

	// Selected is the method the pending transaction will use.
	Selected *account.PaymentMethod

	// Capture scratch. NewMethodType is set when a "new method" button is
	// pressed; NewMethodCurrency holds the crypto currency between the two
	// capture steps.
	NewMethodType     account.MethodType
	NewMethodCurrency string

	// ChatID of the conversation, kept for the sweep job's logging.
	ChatID int64

	UpdatedAt time.Time
}

// Reset returns the session to idle, dropping every in-flight field.
func (s *Session) Reset() {
	chatID := s.ChatID
	*s = Session{ChatID: chatID, UpdatedAt: time.Now()}
}

// InTransaction reports whether a deposit/withdraw flow is in progress.
func (s *Session) InTransaction() bool {
	return s.Action == account.ActionDeposit || s.Action == account.ActionWithdraw
}

// Sessions maps user IDs to their conversation state. All access goes
// through the mutex; handlers for one user never run concurrently (the
// bot serializes per user), but different users share this map.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[int64]*Session)}
}

// Get returns the session for userID, creating an idle one if needed,
// and stamps it as touched.
func (s *Sessions) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	sess.UpdatedAt = time.Now()
	return sess
}

// Clear drops the session for userID entirely.
func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Sweep removes sessions idle for longer than ttl and returns how many
// were dropped. Called from the cron job.
func (s *Sessions) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	dropped := 0
	for userID, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, userID)
			dropped++
		}
	}
	return dropped
}
