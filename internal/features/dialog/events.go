// Package dialog drives the multi-turn banking conversation: it routes
// menu selections and free-text input against a per-user session, prompts
// for the next step and delegates confirmed transactions to the account
// service.
// events.go decodes raw callback data into a tagged event exactly once,
// at the transport boundary, so nothing downstream string-matches on codes.
package dialog

import "strings"

// Kind classifies a decoded menu-selection event.
type Kind int

// Event kinds, in routing-precedence order.
const (
	KindUnknown Kind = iota
	KindCheckBalance
	KindDeposit
	KindWithdraw
	KindAddMethod
	KindNewMethodChosen      // Payload: method type code (bank|paypal|crypto)
	KindExistingMethodChosen // Payload: method type label (Bank|Paypal|Crypto)
	KindConfirm
	KindCancel
	KindReturnMain
	KindExit
)

// Event is one decoded menu selection.
type Event struct {
	Kind    Kind
	Payload string
}

// Callback data codes. These travel inside inline-keyboard buttons and
// come back verbatim in callback queries.
const (
	cbCheckBalance = "check_balance"
	cbDeposit      = "deposit"
	cbWithdraw     = "withdraw"
	cbAddMethod    = "add_payment_method"
	cbConfirm      = "confirm"
	cbCancel       = "cancel"
	cbReturnMain   = "return_main"
	cbExit         = "exit_bot"

	cbNewMethodPrefix = "new_method_" // + bank|paypal|crypto
	cbUseMethodPrefix = "use_method_" // + method type label
)

// DecodeCallback maps raw callback data to an Event.
// Unrecognized codes decode to KindUnknown and are ignored by the router.
func DecodeCallback(data string) Event {
	switch data {
	case cbCheckBalance:
		return Event{Kind: KindCheckBalance}
	case cbDeposit:
		return Event{Kind: KindDeposit}
	case cbWithdraw:
		return Event{Kind: KindWithdraw}
	case cbAddMethod:
		return Event{Kind: KindAddMethod}
	case cbConfirm:
		return Event{Kind: KindConfirm}
	case cbCancel:
		return Event{Kind: KindCancel}
	case cbReturnMain:
		return Event{Kind: KindReturnMain}
	case cbExit:
		return Event{Kind: KindExit}
	}

	if rest, ok := strings.CutPrefix(data, cbNewMethodPrefix); ok {
		return Event{Kind: KindNewMethodChosen, Payload: rest}
	}
	if rest, ok := strings.CutPrefix(data, cbUseMethodPrefix); ok {
		return Event{Kind: KindExistingMethodChosen, Payload: rest}
	}
	return Event{Kind: KindUnknown, Payload: data}
}
