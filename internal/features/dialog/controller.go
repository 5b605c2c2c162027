// Package dialog — controller.go routes inbound events against the
// current session: menu selections from callback queries and free text
// keyed by the conversation state. Confirmed transactions are handed to
// the account service; every error path ends in a re-prompt or a clean
// return to the main menu, never a silent drop.
package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"mockbank.dev/telegram-bot/internal/common"
	"mockbank.dev/telegram-bot/internal/features/account"
)

// actionSaveMethod marks a session that is inside the payment-method
// capture sub-flow. Transaction actions use the account package constants.
const actionSaveMethod = "save_payment_method"

// Sender is the slice of the Telegram API the controller needs.
// *tgbotapi.BotAPI satisfies it; tests substitute a recorder.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Controller is the dialogue state machine.
type Controller struct {
	accounts *account.Service
	sessions *Sessions
	bot      Sender
}

// NewController creates the dialogue controller.
func NewController(accounts *account.Service, sessions *Sessions, bot Sender) *Controller {
	return &Controller{
		accounts: accounts,
		sessions: sessions,
		bot:      bot,
	}
}

// SendMainMenu renders the top-level menu. Idempotent: safe to call any
// number of times, also used as the error-recovery landing point.
func (c *Controller) SendMainMenu(chatID int64) {
	c.sendWithKeyboard(chatID, msgWelcome, mainMenuKeyboard())
}

// HandleCallback processes one menu selection. Any unexpected failure is
// a recovery barrier: the in-flight transaction is discarded and the user
// lands back on the main menu.
func (c *Controller) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query == nil || query.From == nil || query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	sess := c.sessions.Get(userID)
	sess.ChatID = chatID

	ev := DecodeCallback(query.Data)
	if err := c.routeEvent(ctx, chatID, userID, sess, ev); err != nil {
		c.recoverFlow(chatID, userID, err)
	}

	c.ack(query.ID)
}

// routeEvent dispatches a decoded menu selection. Cases follow the
// routing precedence: balance, transaction start, method management,
// confirmation, cancellation, navigation.
func (c *Controller) routeEvent(ctx context.Context, chatID, userID int64, sess *Session, ev Event) error {
	switch ev.Kind {
	case KindCheckBalance:
		a, err := c.accounts.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		c.sendWithKeyboard(chatID, balanceText(a), followUpKeyboard())
		return nil

	case KindDeposit, KindWithdraw:
		if _, err := c.accounts.Ensure(ctx, userID); err != nil {
			return err
		}
		sess.Action = account.ActionDeposit
		if ev.Kind == KindWithdraw {
			sess.Action = account.ActionWithdraw
		}
		sess.Amount = 0
		sess.State = StateAmountEntry
		c.sendText(chatID, amountPrompt(sess.Action))
		return nil

	case KindAddMethod:
		if _, err := c.accounts.Ensure(ctx, userID); err != nil {
			return err
		}
		c.sendWithKeyboard(chatID, msgChooseMethodType, methodTypeKeyboard())
		return nil

	case KindNewMethodChosen:
		return c.startCapture(chatID, sess, ev.Payload)

	case KindExistingMethodChosen:
		if !sess.InTransaction() || sess.Amount <= 0 {
			// Stale button from a finished flow; nothing to confirm.
			log.WithField("user_id", userID).Debug("Method chosen with no pending transaction")
			c.SendMainMenu(chatID)
			return nil
		}
		a, err := c.accounts.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		m, ok := a.MethodByType(account.MethodType(ev.Payload))
		if !ok {
			return fmt.Errorf("%w: type %q", common.ErrUnknownPaymentMethod, ev.Payload)
		}
		sess.Selected = &m
		sess.State = StateConfirm
		c.sendWithKeyboard(chatID, confirmPrompt(sess.Action, sess.Amount, m), confirmKeyboard())
		return nil

	case KindConfirm:
		return c.commit(ctx, chatID, userID, sess)

	case KindCancel:
		c.cancelFlow(chatID, userID)
		return nil

	case KindReturnMain:
		c.SendMainMenu(chatID)
		return nil

	case KindExit:
		c.sendText(chatID, msgGoodbye)
		return nil

	default:
		log.WithFields(log.Fields{
			"user_id": userID,
			"data":    ev.Payload,
		}).Debug("Unknown callback code ignored")
		return nil
	}
}

// HandleText processes one free-text message, routed by the session state.
func (c *Controller) HandleText(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	sess := c.sessions.Get(userID)
	sess.ChatID = chatID

	var err error
	switch sess.State {
	case StateIdle:
		// No flow in progress; nothing to do with stray text.

	case StateAmountEntry:
		err = c.handleAmount(ctx, chatID, userID, sess, text)

	case StateMethodSelect:
		// Re-entry with the amount already validated: rebuild the method
		// prompt, do not re-validate.
		err = c.sendMethodSelection(ctx, chatID, userID, sess)

	case StateCaptureDetails:
		err = c.handleCaptureDetails(ctx, chatID, userID, sess, text)

	case StateCaptureCurrency:
		err = c.handleCaptureCurrency(chatID, userID, sess, text)

	case StateCaptureAddress:
		err = c.handleCaptureAddress(ctx, chatID, userID, sess, text)

	case StateConfirm:
		if isCancel(text) {
			c.cancelFlow(chatID, userID)
			return
		}
		if sess.Selected != nil {
			c.sendWithKeyboard(chatID, confirmPrompt(sess.Action, sess.Amount, *sess.Selected), confirmKeyboard())
		}
	}

	if err != nil {
		c.recoverFlow(chatID, userID, err)
	}
}

// handleAmount validates the entered amount. Failed validation re-prompts
// and leaves the session where it is; success stores the amount and moves
// on to method selection.
func (c *Controller) handleAmount(ctx context.Context, chatID, userID int64, sess *Session, text string) error {
	if isCancel(text) {
		c.cancelFlow(chatID, userID)
		return nil
	}

	amount, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		c.sendText(chatID, msgInvalidNumber)
		return nil
	}
	if amount <= 0 {
		c.sendText(chatID, msgNonPositive)
		return nil
	}

	if sess.Action == account.ActionWithdraw {
		a, err := c.accounts.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		if amount > a.Balance {
			c.sendText(chatID, msgInsufficient)
			return nil
		}
	}

	sess.Amount = amount
	sess.OriginalAction = sess.Action
	sess.State = StateMethodSelect
	return c.sendMethodSelection(ctx, chatID, userID, sess)
}

// sendMethodSelection lists the account's methods plus Add New Method and
// Cancel. With no methods attached, only the latter two are offered.
func (c *Controller) sendMethodSelection(ctx context.Context, chatID, userID int64, sess *Session) error {
	a, err := c.accounts.Ensure(ctx, userID)
	if err != nil {
		return err
	}
	c.sendWithKeyboard(chatID,
		methodSelectPrompt(sess.Action, sess.Amount),
		methodSelectKeyboard(a.PaymentMethods))
	return nil
}

// commit is the transaction committer. It runs only on an explicit
// confirm with action, amount and method all present; anything less is a
// stale button press and falls back to a cancellation message without
// touching the store.
func (c *Controller) commit(ctx context.Context, chatID, userID int64, sess *Session) error {
	if !sess.InTransaction() || sess.Amount <= 0 || sess.Selected == nil {
		log.WithField("user_id", userID).Debug("Stale confirm, nothing to commit")
		c.sendText(chatID, msgStaleConfirm)
		c.sendWithKeyboard(chatID, msgFollowUp, followUpKeyboard())
		c.sessions.Clear(userID)
		return nil
	}

	newBalance, err := c.accounts.Commit(ctx, userID, sess.Action, sess.Amount, *sess.Selected)
	if err != nil {
		return err
	}

	c.sendText(chatID, commitText(sess.Action, sess.Amount, *sess.Selected, newBalance))
	c.sendWithKeyboard(chatID, msgFollowUp, followUpKeyboard())
	c.sessions.Clear(userID)
	return nil
}

// cancelFlow is the uniform cancellation handler, reachable from every
// sub-state: message, full session clear, main menu.
func (c *Controller) cancelFlow(chatID, userID int64) {
	c.sendText(chatID, msgCancelled)
	c.sessions.Clear(userID)
	c.SendMainMenu(chatID)
}

// recoverFlow is the recovery barrier for unexpected failures: log,
// apologize, discard the in-flight transaction, land on the main menu.
func (c *Controller) recoverFlow(chatID, userID int64, err error) {
	log.WithError(err).WithField("user_id", userID).Error("Dialogue flow failed")
	c.sendText(chatID, msgUnexpected)
	c.sessions.Clear(userID)
	c.SendMainMenu(chatID)
}

// isCancel matches the free-text abort word, case-insensitively.
func isCancel(text string) bool {
	return strings.EqualFold(text, "cancel")
}

// ack dismisses the pending indicator on a callback query.
func (c *Controller) ack(queryID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(queryID, "")); err != nil {
		log.WithError(err).Debug("Failed to answer callback query")
	}
}

// sendText sends a plain text message.
func (c *Controller) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// sendWithKeyboard sends a message with an inline keyboard attached.
func (c *Controller) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := c.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}
