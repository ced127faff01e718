package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pandodao/gasless-wallet/core"
)

// failureText maps an error to the short reply shown to the user. The
// technical cause is logged by the caller, never shown.
func failureText(err error) string {
	switch {
	case errors.Is(err, core.ErrAlreadyRegistered):
		return "You already have a wallet."
	case errors.Is(err, core.ErrNotRegistered):
		return "You don't have a wallet yet. Tap Register to create one."
	case errors.Is(err, core.ErrAmbiguousUsername):
		return "More than one wallet matches that username. Use the wallet address instead."
	case errors.Is(err, core.ErrRecipientNotFound), errors.Is(err, core.ErrInvalidAddress):
		return "Recipient not found. Use a wallet address or the @username of a registered user."
	case errors.Is(err, core.ErrIncorrectPin):
		return "Incorrect PIN."
	case errors.Is(err, core.ErrInvalidInput):
		return "That doesn't look right. Please check your input."
	case errors.Is(err, core.ErrNoSupportedFeeToken):
		return "No fee token is available right now. Please try again later."
	case errors.Is(err, core.ErrPaymasterUnavailable):
		return "The fee sponsor is unavailable right now. Please try again later."
	case errors.Is(err, core.ErrServiceUnavailable):
		return "The network is unavailable right now. Please try again later."
	case errors.Is(err, core.ErrDecryptionFailed):
		return "Your wallet could not be unlocked. Please contact support."
	case errors.Is(err, core.ErrSubmissionFailed):
		return "The network rejected the transaction. No funds were moved."
	default:
		return "Something went wrong. Please try again later."
	}
}

func sentText(amount, symbol, to string, handle *core.TxHandle) string {
	return fmt.Sprintf("Transfer submitted!\nAmount: %s %s\nTo: %s\nTx: %s", amount, symbol, to, handle.Hash)
}

func receivedText(amount, symbol, to string, handle *core.TxHandle) string {
	return fmt.Sprintf("Deposit submitted!\nAmount: %s %s\nTo: %s\nTx: %s", amount, symbol, to, handle.Hash)
}

func balanceText(balance, symbol, address string) string {
	return fmt.Sprintf("Balance: %s %s\nAddress: %s", balance, symbol, address)
}

func historyText(events []*core.TransferEvent, symbol, address string) string {
	if len(events) == 0 {
		return "No recent transfers."
	}

	self := core.NormalizeAddress(address)

	var b strings.Builder
	b.WriteString("Recent transfers:\n")
	for _, e := range events {
		amount := core.FormatAmount(e.Amount)
		if e.From == self {
			fmt.Fprintf(&b, "-%s %s to %s (block %d)\n", amount, symbol, e.To, e.BlockNumber)
		} else {
			fmt.Fprintf(&b, "+%s %s from %s (block %d)\n", amount, symbol, e.From, e.BlockNumber)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}
