package core

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIncorrectPin      = errors.New("incorrect pin")

	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrNoSupportedFeeToken = errors.New("no supported fee token")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrSubmissionFailed    = errors.New("submission failed")

	ErrInvalidAddress       = fmt.Errorf("%w: address", ErrInvalidInput)
	ErrRecipientNotFound    = fmt.Errorf("%w: recipient not found", ErrInvalidInput)
	ErrAmbiguousUsername    = fmt.Errorf("%w: username matches several wallets", ErrRecipientNotFound)
	ErrPaymasterUnavailable = fmt.Errorf("%w: paymaster", ErrServiceUnavailable)
)

// IsValidationErr reports whether err should be answered with a reprompt
// instead of ending the flow.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrIncorrectPin)
}
