package core

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// FieldPrime is the modulus of the network's field elements; every address
// and calldata word is a value below it.
var FieldPrime = uint256.MustFromHex("0x800000000000011000000000000000000000000000000000000000000000001")

// ParseFelt parses a 0x-prefixed hex field element. Leading zeros are allowed.
func ParseFelt(s string) (*uint256.Int, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("%w: missing 0x prefix", ErrInvalidInput)
	}

	digits := s[2:]
	if len(digits) == 0 || len(digits) > 64 {
		return nil, fmt.Errorf("%w: bad felt length", ErrInvalidInput)
	}

	if trimmed := strings.TrimLeft(digits, "0"); trimmed == "" {
		digits = "0"
	} else {
		digits = trimmed
	}

	v, err := uint256.FromHex("0x" + digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	if !v.Lt(FieldPrime) {
		return nil, fmt.Errorf("%w: felt out of range", ErrInvalidInput)
	}

	return v, nil
}

// IsAddress reports whether s is a non-zero field element in hex form.
func IsAddress(s string) bool {
	v, err := ParseFelt(strings.TrimSpace(s))
	return err == nil && !v.IsZero()
}

// NormalizeAddress returns the canonical lower-case form without leading
// zeros, so that addresses can be compared as strings. Invalid input is
// returned unchanged.
func NormalizeAddress(s string) string {
	v, err := ParseFelt(strings.TrimSpace(s))
	if err != nil {
		return s
	}

	return v.Hex()
}

func FeltHex(v *uint256.Int) string {
	return v.Hex()
}
