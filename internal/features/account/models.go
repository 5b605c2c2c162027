// Package account holds the durable banking state: one record per Telegram
// user with a balance, the most recent committed transaction and the list
// of attached payment methods.
// models.go describes the record structures.
package account

import "time"

// Action names the two committable transaction kinds.
const (
	ActionDeposit  = "deposit"
	ActionWithdraw = "withdraw"
)

// MethodType is a payment-method kind. Stored capitalized, as displayed.
type MethodType string

// Supported payment-method types.
const (
	MethodBank   MethodType = "Bank"
	MethodPaypal MethodType = "Paypal"
	MethodCrypto MethodType = "Crypto"
)

// CryptoDetails holds the two-part payload of a crypto payment method.
type CryptoDetails struct {
	Currency string `json:"currency"` // BTC, ETH, USDT (suggested, not enforced)
	Address  string `json:"address"`  // wallet address, free text
}

// PaymentMethod is one settlement channel attached to an account.
// Details carries the free-text payload for Bank/Paypal; Crypto methods
// use the structured Crypto field instead.
type PaymentMethod struct {
	Type    MethodType     `json:"type"`
	Details string         `json:"details,omitempty"`
	Crypto  *CryptoDetails `json:"crypto,omitempty"`
}

// Label is the short name shown on selection buttons and in confirmations:
// the currency for crypto, a fixed label for PayPal, the details string
// otherwise.
func (m PaymentMethod) Label() string {
	switch m.Type {
	case MethodCrypto:
		if m.Crypto != nil {
			return m.Crypto.Currency
		}
		return string(MethodCrypto)
	case MethodPaypal:
		return "Paypal Account"
	default:
		return m.Details
	}
}

// LastTransaction is the most recent committed transaction on an account.
// Time is pre-formatted ("2006-01-02 15:04:05") because it is only ever
// rendered back to the user, never computed with.
type LastTransaction struct {
	Amount        int64         `json:"amount"`
	Time          string        `json:"time"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// Account is the per-user durable record.
// Balance is in whole currency units and never goes negative through a
// committed withdrawal. PaymentMethods keeps insertion order, which is
// also display order.
type Account struct {
	UserID          int64
	Balance         int64
	LastTransaction *LastTransaction
	PaymentMethods  []PaymentMethod
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MethodByType returns the first attached method of the given type.
// Selection buttons reference methods by type, so first match wins.
func (a *Account) MethodByType(t MethodType) (PaymentMethod, bool) {
	for _, m := range a.PaymentMethods {
		if m.Type == t {
			return m, true
		}
	}
	return PaymentMethod{}, false
}
