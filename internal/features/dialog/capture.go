// Package dialog — capture.go is the payment-method capture sub-flow.
// Bank and PayPal take a single free-text detail; crypto takes two steps,
// currency then wallet address, and appends exactly one method at the end.
// Cancelling anywhere aborts the whole outer transaction.
package dialog

import (
	"context"
	"fmt"
	"strings"

	"mockbank.dev/telegram-bot/internal/common"
	"mockbank.dev/telegram-bot/internal/features/account"
)

// startCapture enters the sub-flow after a method-type button press.
// The transaction action (if any) is parked in OriginalAction so the
// capture can borrow the session.
func (c *Controller) startCapture(chatID int64, sess *Session, typeCode string) error {
	if sess.InTransaction() {
		sess.OriginalAction = sess.Action
	}
	sess.Action = actionSaveMethod

	switch typeCode {
	case "bank":
		sess.NewMethodType = account.MethodBank
		sess.State = StateCaptureDetails
		c.sendText(chatID, msgBankName)
	case "paypal":
		sess.NewMethodType = account.MethodPaypal
		sess.State = StateCaptureDetails
		c.sendText(chatID, msgPaypalEmail)
	case "crypto":
		sess.NewMethodType = account.MethodCrypto
		sess.State = StateCaptureCurrency
		c.sendText(chatID, msgCryptoCurrency)
	default:
		return fmt.Errorf("unknown payment method type code %q", typeCode)
	}
	return nil
}

// handleCaptureDetails finishes a bank/paypal capture from one line of text.
func (c *Controller) handleCaptureDetails(ctx context.Context, chatID, userID int64, sess *Session, text string) error {
	if isCancel(text) {
		c.cancelFlow(chatID, userID)
		return nil
	}
	m := account.PaymentMethod{
		Type:    sess.NewMethodType,
		Details: common.Capitalize(text),
	}
	return c.finishCapture(ctx, chatID, userID, sess, m)
}

// handleCaptureCurrency stores the crypto currency and asks for the
// address. The BTC/ETH/USDT list in the prompt is a suggestion, not a
// validation: any entered text is accepted, uppercased.
func (c *Controller) handleCaptureCurrency(chatID, userID int64, sess *Session, text string) error {
	if isCancel(text) {
		c.cancelFlow(chatID, userID)
		return nil
	}
	sess.NewMethodCurrency = strings.ToUpper(strings.TrimSpace(text))
	sess.State = StateCaptureAddress
	c.sendText(chatID, msgCryptoAddress)
	return nil
}

// handleCaptureAddress finishes the crypto capture. Only now is the
// method appended, with both fields in place.
func (c *Controller) handleCaptureAddress(ctx context.Context, chatID, userID int64, sess *Session, text string) error {
	if isCancel(text) {
		c.cancelFlow(chatID, userID)
		return nil
	}
	m := account.PaymentMethod{
		Type: account.MethodCrypto,
		Crypto: &account.CryptoDetails{
			Currency: sess.NewMethodCurrency,
			Address:  strings.TrimSpace(text),
		},
	}
	return c.finishCapture(ctx, chatID, userID, sess, m)
}

// finishCapture appends the method, restores the parked transaction and
// jumps straight to confirmation with the new method selected. A capture
// started from the main menu has no transaction to return to and ends
// with the follow-up menu instead.
func (c *Controller) finishCapture(ctx context.Context, chatID, userID int64, sess *Session, m account.PaymentMethod) error {
	if err := c.accounts.AddPaymentMethod(ctx, userID, m); err != nil {
		return err
	}

	sess.Action = sess.OriginalAction
	sess.OriginalAction = ""
	sess.NewMethodType = ""
	sess.NewMethodCurrency = ""
	sess.Selected = &m

	if sess.InTransaction() {
		sess.State = StateConfirm
		c.sendWithKeyboard(chatID, confirmPrompt(sess.Action, sess.Amount, m), confirmKeyboard())
		return nil
	}

	c.sendText(chatID, fmt.Sprintf("%s added to your payment methods.", m.Label()))
	c.sendWithKeyboard(chatID, msgFollowUp, followUpKeyboard())
	c.sessions.Clear(userID)
	return nil
}
