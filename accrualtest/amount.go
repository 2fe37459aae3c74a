package accrualtest

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
)

// Amount parses a human readable decimal into a fixed-point value, failing
// the test if it is not valid.
func Amount(t testing.TB, human string) *uint256.Int {
	t.Helper()

	v, err := accrual.ParseAmount(human)
	if err != nil {
		t.Fatalf("cannot parse %q amount: %s", human, err)
	}
	return v
}

// Raw parses a base 10 integer, failing the test if it is not valid.
func Raw(t testing.TB, s string) *uint256.Int {
	t.Helper()

	v, err := accrual.ParseRaw(s)
	if err != nil {
		t.Fatalf("cannot parse %q integer: %s", s, err)
	}
	return v
}
