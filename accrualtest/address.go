package accrualtest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/accrual"
)

// RandomAddr returns a fresh holder address.
func RandomAddr(t testing.TB) accrual.Address {
	t.Helper()
	addr := make(accrual.Address, accrual.AddressLength)
	if _, err := rand.Read(addr); err != nil {
		t.Fatalf("random address: %s", err)
	}
	return addr
}
