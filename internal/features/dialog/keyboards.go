// Package dialog — keyboards.go builds the inline keyboards and prompt
// text for every step of the conversation.
package dialog

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mockbank.dev/telegram-bot/internal/common"
	"mockbank.dev/telegram-bot/internal/features/account"
)

// Fixed prompt text.
const (
	msgWelcome      = "Welcome to the Deeper Mock Bank! What would you like to do today?"
	msgFollowUp     = "Is there anything else I can help you with?"
	msgGoodbye      = "Thank you for using the Deeper Mock Banking Bot! Have a great day! \U0001F44B"
	msgCancelled    = "Transaction cancelled. Returning to the main menu."
	msgStaleConfirm = "Transaction Cancelled."
	msgUnexpected   = "An unexpected error occurred. Returning to the main menu."

	msgInvalidNumber    = "Invalid number. Please try again:"
	msgNonPositive      = "The amount must be greater than zero. Please try again:"
	msgInsufficient     = "Insufficient balance. Please try again:"
	msgChooseMethodType = "How would you like to pay? Choose a payment method to add:"
	msgBankName         = "Please enter the name of your bank (or type \"cancel\" to abort):"
	msgPaypalEmail      = "Please enter your PayPal email (or type \"cancel\" to abort):"
	msgCryptoCurrency   = "Which cryptocurrency would you like to use? Type BTC, ETH or USDT (or \"cancel\" to abort):"
	msgCryptoAddress    = "Now enter the wallet address (or type \"cancel\" to abort):"
)

// mainMenuKeyboard is the top-level menu.
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Check my Account Balance", cbCheckBalance),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Deposit", cbDeposit),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Withdraw", cbWithdraw),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Add Payment Method", cbAddMethod),
		),
	)
}

// followUpKeyboard closes out a flow.
func followUpKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Return to Main Menu", cbReturnMain),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Exit", cbExit),
		),
	)
}

// confirmKeyboard asks for the final go-ahead on a transaction.
func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Confirm", cbConfirm),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
		),
	)
}

// methodTypeKeyboard offers the three method types for capture.
func methodTypeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Bank Transfer", cbNewMethodPrefix+"bank"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("PayPal", cbNewMethodPrefix+"paypal"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Crypto", cbNewMethodPrefix+"crypto"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
		),
	)
}

// methodSelectKeyboard lists the account's methods in insertion order,
// then Add New Method and Cancel.
func methodSelectKeyboard(methods []account.PaymentMethod) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range methods {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(m.Label(), cbUseMethodPrefix+string(m.Type)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Add New Method", cbAddMethod),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// amountPrompt asks for the transaction amount.
func amountPrompt(action string) string {
	verb := "deposited"
	if action == account.ActionWithdraw {
		verb = "withdrawn"
	}
	return fmt.Sprintf("Enter the amount to be %s (type \"cancel\" to abort):", verb)
}

// methodSelectPrompt heads the payment-method selection keyboard.
func methodSelectPrompt(action string, amount int64) string {
	return fmt.Sprintf("Select a payment method for your %s of %s:", action, common.FormatUSD(amount))
}

// confirmPrompt restates the transaction before commit.
func confirmPrompt(action string, amount int64, method account.PaymentMethod) string {
	return fmt.Sprintf("Confirm %s of %s via %s?", action, common.FormatUSD(amount), method.Label())
}

// balanceText renders the balance plus the last-transaction summary.
func balanceText(a *account.Account) string {
	lastLine := "No transactions have been made yet."
	if lt := a.LastTransaction; lt != nil {
		lastLine = fmt.Sprintf("Your last transaction was of %s at %s via %s.",
			common.FormatUSD(lt.Amount), lt.Time, lt.PaymentMethod.Label())
	}
	return fmt.Sprintf("Your balance is %s\n%s %s",
		common.FormatUSD(a.Balance), lastLine, msgFollowUp)
}

// commitText reports a successful commit.
func commitText(action string, amount int64, method account.PaymentMethod, newBalance int64) string {
	return fmt.Sprintf("%s successful! %s via %s. Current Balance: %s",
		common.Capitalize(action), common.FormatUSD(amount), method.Label(),
		common.FormatUSD(newBalance))
}
