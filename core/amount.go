package core

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the precision of the transfer token.
const TokenDecimals = 6

var (
	minorUnit = uint256.NewInt(1_000_000)
	mask128   = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
)

// ScaleAmount parses a positive whole-unit integer and converts it to minor
// units. Fractions, signs and zero are rejected.
func ScaleAmount(whole string) (*uint256.Int, error) {
	whole = strings.TrimSpace(whole)
	if whole == "" || strings.Trim(whole, "0123456789") != "" {
		return nil, fmt.Errorf("%w: amount must be a positive whole number", ErrInvalidInput)
	}

	digits := strings.TrimLeft(whole, "0")
	if digits == "" {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	n, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	minor, overflow := new(uint256.Int).MulOverflow(n, minorUnit)
	if overflow {
		return nil, fmt.Errorf("%w: amount too large", ErrInvalidInput)
	}

	return minor, nil
}

// FormatAmount renders minor units as a whole-unit decimal string.
func FormatAmount(minor *uint256.Int) string {
	return AmountDecimal(minor).String()
}

func AmountDecimal(minor *uint256.Int) decimal.Decimal {
	if minor == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(minor.ToBig(), -TokenDecimals)
}

// SplitUint256 returns the low and high 128-bit words of v as felts.
func SplitUint256(v *uint256.Int) (low, high string) {
	l := new(uint256.Int).And(v, mask128)
	h := new(uint256.Int).Rsh(v, 128)
	return l.Hex(), h.Hex()
}

// JoinUint256 is the inverse of SplitUint256.
func JoinUint256(low, high string) (*uint256.Int, error) {
	l, err := ParseFelt(low)
	if err != nil {
		return nil, err
	}

	h, err := ParseFelt(high)
	if err != nil {
		return nil, err
	}

	if l.Gt(mask128) || h.Gt(mask128) {
		return nil, fmt.Errorf("%w: uint256 word out of range", ErrInvalidInput)
	}

	return new(uint256.Int).Or(l, new(uint256.Int).Lsh(h, 128)), nil
}
