package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mockbank.dev/telegram-bot/internal/common"
	"mockbank.dev/telegram-bot/internal/features/account"
)

const (
	testUserID int64 = 101
	testChatID int64 = 101
)

// fakeSender records everything the controller sends.
type fakeSender struct {
	msgs []tgbotapi.MessageConfig
	acks int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.msgs = append(f.msgs, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.acks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	if len(f.msgs) == 0 {
		t.Fatal("no messages sent")
	}
	return f.msgs[len(f.msgs)-1].Text
}

func (f *fakeSender) texts() []string {
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Text
	}
	return out
}

func (f *fakeSender) lastKeyboard(t *testing.T) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if kb, ok := f.msgs[i].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			return kb
		}
	}
	t.Fatal("no keyboard sent")
	return tgbotapi.InlineKeyboardMarkup{}
}

// fixture wires a controller over the in-memory store.
type fixture struct {
	ctrl     *Controller
	sender   *fakeSender
	store    *account.MemStore
	sessions *Sessions
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sender := &fakeSender{}
	store := account.NewMemStore()
	sessions := NewSessions()
	return &fixture{
		ctrl:     NewController(account.NewService(store), sessions, sender),
		sender:   sender,
		store:    store,
		sessions: sessions,
		ctx:      context.Background(),
	}
}

func (f *fixture) press(data string) {
	f.ctrl.HandleCallback(f.ctx, &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID, Type: "private"}},
		Data:    data,
	})
}

func (f *fixture) typeText(text string) {
	f.ctrl.HandleText(f.ctx, &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID, Type: "private"},
		Text: text,
	})
}

func (f *fixture) mustAccount(t *testing.T) *account.Account {
	t.Helper()
	a, err := f.store.Find(f.ctx, testUserID)
	if err != nil {
		t.Fatalf("account lookup: %v", err)
	}
	return a
}

func (f *fixture) seedBalance(t *testing.T, balance int64, methods ...account.PaymentMethod) {
	t.Helper()
	if err := f.store.Create(f.ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := f.store.UpdateBalance(f.ctx, testUserID, balance, nil); err != nil {
		t.Fatal(err)
	}
	for _, m := range methods {
		if err := f.store.AppendPaymentMethod(f.ctx, testUserID, m); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCheckBalanceCreatesAccountLazily(t *testing.T) {
	f := newFixture(t)

	f.press(cbCheckBalance)
	f.press(cbCheckBalance)

	a := f.mustAccount(t)
	if a.Balance != 0 || a.LastTransaction != nil {
		t.Fatalf("lazy account has wrong defaults: %+v", a)
	}
	if got := f.sender.lastText(t); !strings.Contains(got, "Your balance is $0") ||
		!strings.Contains(got, "No transactions have been made yet.") {
		t.Fatalf("balance message wrong: %q", got)
	}
	if f.sender.acks != 2 {
		t.Fatalf("callbacks not acknowledged: acks=%d", f.sender.acks)
	}
}

func TestDepositFlowWithExistingPaypalMethod(t *testing.T) {
	f := newFixture(t)
	paypal := account.PaymentMethod{Type: account.MethodPaypal, Details: "user@example.com"}
	f.seedBalance(t, 100, paypal)

	f.press(cbDeposit)
	if got := f.sender.lastText(t); !strings.Contains(got, "deposited") {
		t.Fatalf("amount prompt wrong: %q", got)
	}

	f.typeText("50")
	kb := f.sender.lastKeyboard(t)
	// Paypal Account + Add New Method + Cancel.
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("method keyboard rows=%d want=3", len(kb.InlineKeyboard))
	}
	if kb.InlineKeyboard[0][0].Text != "Paypal Account" {
		t.Fatalf("method label=%q want Paypal Account", kb.InlineKeyboard[0][0].Text)
	}

	f.press(cbUseMethodPrefix + "Paypal")
	if got := f.sender.lastText(t); got != "Confirm deposit of $50 via Paypal Account?" {
		t.Fatalf("confirm prompt wrong: %q", got)
	}

	f.press(cbConfirm)

	a := f.mustAccount(t)
	if a.Balance != 150 {
		t.Fatalf("balance=%d want=150", a.Balance)
	}
	lt := a.LastTransaction
	if lt == nil || lt.Amount != 50 || lt.PaymentMethod.Type != account.MethodPaypal {
		t.Fatalf("last transaction wrong: %+v", lt)
	}

	texts := f.sender.texts()
	success := texts[len(texts)-2]
	if success != "Deposit successful! $50 via Paypal Account. Current Balance: $150" {
		t.Fatalf("success message wrong: %q", success)
	}
	if texts[len(texts)-1] != msgFollowUp {
		t.Fatalf("missing follow-up prompt, got %q", texts[len(texts)-1])
	}

	if sess := f.sessions.Get(testUserID); sess.State != StateIdle || sess.Amount != 0 {
		t.Fatalf("session not cleared after commit: %+v", sess)
	}
}

func TestWithdrawInsufficientBalanceReprompts(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, 10)

	f.press(cbWithdraw)
	f.typeText("20")

	if got := f.sender.lastText(t); got != msgInsufficient {
		t.Fatalf("got %q want insufficient-balance re-prompt", got)
	}
	// Same sub-state: the next entry is treated as a fresh amount.
	if sess := f.sessions.Get(testUserID); sess.State != StateAmountEntry {
		t.Fatalf("state=%v want StateAmountEntry", sess.State)
	}
	if a := f.mustAccount(t); a.Balance != 10 || a.LastTransaction != nil {
		t.Fatalf("store was written on a rejected withdrawal: %+v", a)
	}
}

func TestAmountValidationReprompts(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, 100)

	f.press(cbDeposit)

	f.typeText("abc")
	if got := f.sender.lastText(t); got != msgInvalidNumber {
		t.Fatalf("got %q want invalid-number re-prompt", got)
	}

	f.typeText("-5")
	if got := f.sender.lastText(t); got != msgNonPositive {
		t.Fatalf("got %q want non-positive re-prompt", got)
	}

	f.typeText("0")
	if got := f.sender.lastText(t); got != msgNonPositive {
		t.Fatalf("got %q want non-positive re-prompt", got)
	}

	// Still recoverable: a valid amount moves the flow along.
	f.typeText("30")
	if sess := f.sessions.Get(testUserID); sess.Amount != 30 || sess.State != StateMethodSelect {
		t.Fatalf("valid amount not stored after re-prompts: %+v", sess)
	}
}

func TestCancelMidFlowLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	bank := account.PaymentMethod{Type: account.MethodBank, Details: "Chase"}
	f.seedBalance(t, 100, bank)

	f.press(cbWithdraw)
	f.typeText("30")
	f.press(cbCancel)

	a := f.mustAccount(t)
	if a.Balance != 100 || a.LastTransaction != nil || len(a.PaymentMethods) != 1 {
		t.Fatalf("cancel mutated the account: %+v", a)
	}
	if sess := f.sessions.Get(testUserID); sess.State != StateIdle || sess.Amount != 0 {
		t.Fatalf("session not cleared on cancel: %+v", sess)
	}

	texts := f.sender.texts()
	if texts[len(texts)-2] != msgCancelled || texts[len(texts)-1] != msgWelcome {
		t.Fatalf("cancel must acknowledge and re-render the menu, got %v", texts[len(texts)-2:])
	}
}

func TestFreeTextCancelDuringAmountEntry(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, 100)

	f.press(cbDeposit)
	f.typeText("CANCEL") // case-insensitive

	if sess := f.sessions.Get(testUserID); sess.State != StateIdle {
		t.Fatalf("session not cleared: %+v", sess)
	}
	if got := f.sender.lastText(t); got != msgWelcome {
		t.Fatalf("expected main menu after cancel, got %q", got)
	}
}

func TestCryptoTwoStepCaptureAppendsOnce(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, 0)

	f.press(cbDeposit)
	f.typeText("25")

	// No methods yet: only Add New Method and Cancel offered.
	kb := f.sender.lastKeyboard(t)
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("empty-account method keyboard rows=%d want=2", len(kb.InlineKeyboard))
	}

	f.press(cbAddMethod)
	f.press(cbNewMethodPrefix + "crypto")
	if got := f.sender.lastText(t); got != msgCryptoCurrency {
		t.Fatalf("currency prompt wrong: %q", got)
	}

	f.typeText("ETH")
	// Nothing appended until the address arrives.
	if a := f.mustAccount(t); len(a.PaymentMethods) != 0 {
		t.Fatalf("method appended after step one: %+v", a.PaymentMethods)
	}

	f.typeText("0xABC")

	a := f.mustAccount(t)
	if len(a.PaymentMethods) != 1 {
		t.Fatalf("got %d methods, want exactly 1", len(a.PaymentMethods))
	}
	m := a.PaymentMethods[0]
	if m.Type != account.MethodCrypto || m.Crypto == nil ||
		m.Crypto.Currency != "ETH" || m.Crypto.Address != "0xABC" {
		t.Fatalf("captured method wrong: %+v", m)
	}

	// Straight to confirmation with the new method selected.
	if got := f.sender.lastText(t); got != "Confirm deposit of $25 via ETH?" {
		t.Fatalf("expected confirmation prompt, got %q", got)
	}

	f.press(cbConfirm)
	if a := f.mustAccount(t); a.Balance != 25 {
		t.Fatalf("balance=%d want=25", a.Balance)
	}
}

func TestBankCaptureFromMainMenu(t *testing.T) {
	f := newFixture(t)

	f.press(cbAddMethod)
	f.press(cbNewMethodPrefix + "bank")
	f.typeText("chase bank")

	a := f.mustAccount(t)
	if len(a.PaymentMethods) != 1 {
		t.Fatalf("got %d methods, want 1", len(a.PaymentMethods))
	}
	m := a.PaymentMethods[0]
	if m.Type != account.MethodBank || m.Details != "Chase bank" {
		t.Fatalf("captured method wrong: %+v", m)
	}

	// No transaction was pending, so no confirmation — just the follow-up.
	if got := f.sender.lastText(t); got != msgFollowUp {
		t.Fatalf("expected follow-up menu, got %q", got)
	}
	if sess := f.sessions.Get(testUserID); sess.State != StateIdle {
		t.Fatalf("session not cleared: %+v", sess)
	}
}

func TestCancelDuringCaptureAbortsWholeTransaction(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, 100)

	f.press(cbWithdraw)
	f.typeText("30")
	f.press(cbAddMethod)
	f.press(cbNewMethodPrefix + "paypal")
	f.typeText("cancel")

	a := f.mustAccount(t)
	if a.Balance != 100 || len(a.PaymentMethods) != 0 {
		t.Fatalf("cancel in capture mutated the account: %+v", a)
	}
	if sess := f.sessions.Get(testUserID); sess.State != StateIdle || sess.Amount != 0 || sess.OriginalAction != "" {
		t.Fatalf("outer transaction survived cancel: %+v", sess)
	}
}

func TestStaleConfirmIsHandledWithoutStoreAccess(t *testing.T) {
	f := newFixture(t)

	f.press(cbConfirm)

	texts := f.sender.texts()
	if texts[0] != msgStaleConfirm {
		t.Fatalf("got %q want stale-confirm fallback", texts[0])
	}
	// The commit path must not have touched the store at all.
	if _, err := f.store.Find(f.ctx, testUserID); !errors.Is(err, common.ErrAccountNotFound) {
		t.Fatalf("stale confirm reached the store: %v", err)
	}
}

func TestMethodReentryReusesStoredAmount(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, 100)

	f.press(cbDeposit)
	f.typeText("40")

	// Stray text while the method keyboard is up: rebuild the prompt,
	// amount untouched.
	f.typeText("hello?")
	if got := f.sender.lastText(t); got != "Select a payment method for your deposit of $40:" {
		t.Fatalf("re-entry prompt wrong: %q", got)
	}
	if sess := f.sessions.Get(testUserID); sess.Amount != 40 {
		t.Fatalf("amount lost on re-entry: %+v", sess)
	}
}

func TestReturnMainAndExit(t *testing.T) {
	f := newFixture(t)

	f.press(cbReturnMain)
	if got := f.sender.lastText(t); got != msgWelcome {
		t.Fatalf("return_main must render the menu, got %q", got)
	}

	f.press(cbExit)
	if got := f.sender.lastText(t); got != msgGoodbye {
		t.Fatalf("exit message wrong: %q", got)
	}
}

// failStore errors on every operation to exercise the recovery barrier.
type failStore struct{}

func (failStore) Find(context.Context, int64) (*account.Account, error) {
	return nil, errors.New("store down")
}
func (failStore) Create(context.Context, int64) error { return errors.New("store down") }
func (failStore) UpdateBalance(context.Context, int64, int64, *account.LastTransaction) error {
	return errors.New("store down")
}
func (failStore) AppendPaymentMethod(context.Context, int64, account.PaymentMethod) error {
	return errors.New("store down")
}

func TestStoreFailureRecoversToMainMenu(t *testing.T) {
	sender := &fakeSender{}
	sessions := NewSessions()
	ctrl := NewController(account.NewService(failStore{}), sessions, sender)

	ctrl.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID, Type: "private"}},
		Data:    cbDeposit,
	})

	texts := sender.texts()
	if len(texts) != 2 || texts[0] != msgUnexpected || texts[1] != msgWelcome {
		t.Fatalf("recovery barrier output wrong: %v", texts)
	}
	if sess := sessions.Get(testUserID); sess.State != StateIdle {
		t.Fatalf("session not reset on recovery: %+v", sess)
	}
}
