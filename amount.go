package accrual

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual/errors"
	"github.com/shopspring/decimal"
)

// PrecisionDigits is the number of decimal places of every fixed-point
// value: amounts of the base asset as well as accrual rates.
const PrecisionDigits = 18

var (
	// Precision is the fixed-point denominator, 1e18.
	Precision = uint256.NewInt(1e18)

	// MaxAmount is the sentinel that means "the entire settled balance"
	// when passed to any debiting operation. It is resolved to a concrete
	// number only after the account was settled.
	MaxAmount = new(uint256.Int).SetAllOne()
)

// IsMaxAmount returns true if given amount is the MaxAmount sentinel.
func IsMaxAmount(amount *uint256.Int) bool {
	return amount != nil && amount.Eq(MaxAmount)
}

// NewAmount returns a fresh 256-bit integer holding given value.
func NewAmount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Units returns v whole units of the base asset, that is v * 1e18.
func Units(v uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), Precision)
}

// ParseAmount reads a human readable decimal ("1000.5") and returns its
// fixed-point representation. The literal "max" is parsed into MaxAmount.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "max" {
		return new(uint256.Int).Set(MaxAmount), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "amount %q: %s", s, err)
	}
	if d.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "amount %q is negative", s)
	}
	shifted := d.Shift(PrecisionDigits)
	if !shifted.Truncate(0).Equal(shifted) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "amount %q exceeds %d decimal places", s, PrecisionDigits)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "amount %q", s)
	}
	return v, nil
}

// ParseRaw reads a base 10 integer without applying the precision.
func ParseRaw(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "integer %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "integer %q", s)
	}
	return v, nil
}

// FormatAmount renders a fixed-point value as a human readable decimal.
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	if IsMaxAmount(v) {
		return "max"
	}
	return decimal.NewFromBigInt(v.ToBig(), -PrecisionDigits).String()
}
