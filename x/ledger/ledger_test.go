package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/accrualtest"
	"github.com/iov-one/accrual/accrualtest/assert"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/store"
)

var fullAccess = NewCapability("test", PermSettle, PermCredit, PermDebit, PermTransfer)

func TestCapability(t *testing.T) {
	c := NewCapability("vault", PermCredit, PermDebit)
	assert.Equal(t, "vault", c.Holder())
	assert.Equal(t, true, c.Allows(PermCredit))
	assert.Equal(t, true, c.Allows(PermCredit|PermDebit))
	assert.Equal(t, false, c.Allows(PermTransfer))
	assert.Equal(t, false, c.Allows(PermCredit|PermTransfer))
	assert.Equal(t, false, Capability{}.Allows(PermCredit))
	assert.Equal(t, false, c.Allows(0))
	assert.Equal(t, "credit|debit", (PermCredit | PermDebit).String())
	assert.Equal(t, "none", Permission(0).String())
}

func TestLedgerRequiresCapability(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	bob := accrualtest.RandomAddr(t)
	readOnly := NewCapability("reader", PermSettle)

	err := l.Credit(db, readOnly, alice, accrual.Units(1), uint256.NewInt(5), epoch)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = l.Debit(db, readOnly, alice, accrual.Units(1), epoch)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = l.TransferLocal(db, readOnly, alice, bob, accrual.Units(1), epoch)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	err = l.Settle(db, Capability{}, alice, epoch)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = l.Account(db, alice)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestLedgerCredit(t *testing.T) {
	alice := accrualtest.RandomAddr(t)

	cases := map[string]struct {
		amount  *uint256.Int
		rate    *uint256.Int
		holder  accrual.Address
		wantErr *errors.Error
	}{
		"valid credit": {
			amount: accrual.Units(500),
			rate:   uint256.NewInt(2e10),
			holder: alice,
		},
		"zero amount": {
			amount:  uint256.NewInt(0),
			rate:    uint256.NewInt(2e10),
			holder:  alice,
			wantErr: errors.ErrZeroAmount,
		},
		"nil amount": {
			rate:    uint256.NewInt(2e10),
			holder:  alice,
			wantErr: errors.ErrZeroAmount,
		},
		"sentinel cannot be credited": {
			amount:  accrual.MaxAmount,
			rate:    uint256.NewInt(2e10),
			holder:  alice,
			wantErr: errors.ErrInvalidInput,
		},
		"missing rate": {
			amount:  accrual.Units(500),
			holder:  alice,
			wantErr: errors.ErrEmpty,
		},
		"invalid holder": {
			amount:  accrual.Units(500),
			rate:    uint256.NewInt(2e10),
			holder:  accrual.Address("short"),
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			l := NewLedger()
			err := l.Credit(db, fullAccess, tc.holder, tc.amount, tc.rate, epoch)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			acct, err := l.Account(db, tc.holder)
			assert.Nil(t, err)
			assert.AmountEqual(t, tc.amount, acct.Principal)
			assert.AmountEqual(t, tc.rate, acct.Rate)
			assert.Equal(t, epoch, acct.LastSettled)
		})
	}
}

func TestFreshAccountInheritsOfferedRate(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	holder := accrualtest.RandomAddr(t)

	// Leave a zero principal account with a stale 5e10 rate behind.
	assert.Nil(t, l.Credit(db, fullAccess, holder, accrual.Units(100), uint256.NewInt(5e10), epoch))
	_, err := l.Debit(db, fullAccess, holder, accrual.MaxAmount, epoch+100)
	assert.Nil(t, err)
	acct, err := l.Account(db, holder)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(0), acct.Principal)
	assert.AmountEqual(t, uint256.NewInt(5e10), acct.Rate)

	assert.Nil(t, l.Credit(db, fullAccess, holder, accrual.Units(500), uint256.NewInt(2e10), epoch+200))
	acct, err = l.Account(db, holder)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(2e10), acct.Rate)
	assert.AmountEqual(t, accrual.Units(500), acct.Principal)
}

func TestLedgerDebit(t *testing.T) {
	cases := map[string]struct {
		amount      *uint256.Int
		at          accrual.UnixTime
		wantDebited *uint256.Int
		wantLeft    *uint256.Int
		wantErr     *errors.Error
	}{
		"part of the principal": {
			amount:      accrual.Units(400),
			at:          epoch,
			wantDebited: accrual.Units(400),
			wantLeft:    accrual.Units(600),
		},
		"accrued interest can be debited": {
			amount:      new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16)),
			at:          epoch + 3600,
			wantDebited: new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16)),
			wantLeft:    uint256.NewInt(0),
		},
		"sentinel takes everything": {
			amount:      accrual.MaxAmount,
			at:          epoch + 3600,
			wantDebited: new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16)),
			wantLeft:    uint256.NewInt(0),
		},
		"more than the settled balance": {
			amount:  new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16+1)),
			at:      epoch + 3600,
			wantErr: errors.ErrInsufficientBalance,
		},
		"zero amount": {
			amount:  uint256.NewInt(0),
			at:      epoch,
			wantErr: errors.ErrZeroAmount,
		},
		"time travel": {
			amount:  accrual.Units(1),
			at:      epoch - 1,
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			l := NewLedger()
			holder := accrualtest.RandomAddr(t)
			assert.Nil(t, l.Credit(db, fullAccess, holder, accrual.Units(1000), uint256.NewInt(5e10), epoch))

			debited, err := l.Debit(db, fullAccess, holder, tc.amount, tc.at)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			acct, aerr := l.Account(db, holder)
			assert.Nil(t, aerr)
			if tc.wantErr != nil {
				// Failure leaves the account untouched, not even settled.
				assert.AmountEqual(t, accrual.Units(1000), acct.Principal)
				assert.Equal(t, epoch, acct.LastSettled)
				return
			}
			assert.AmountEqual(t, tc.wantDebited, debited)
			assert.AmountEqual(t, tc.wantLeft, acct.Principal)
			assert.AmountEqual(t, uint256.NewInt(5e10), acct.Rate)
			assert.Equal(t, tc.at, acct.LastSettled)
		})
	}
}

func TestDebitUnknownHolder(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	holder := accrualtest.RandomAddr(t)

	_, err := l.Debit(db, fullAccess, holder, accrual.Units(1), epoch)
	assert.IsErr(t, errors.ErrInsufficientBalance, err)
	_, err = l.Debit(db, fullAccess, holder, accrual.MaxAmount, epoch)
	assert.IsErr(t, errors.ErrZeroAmount, err)
	_, err = l.Account(db, holder)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestTransferLocal(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	bob := accrualtest.RandomAddr(t)
	carol := accrualtest.RandomAddr(t)

	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(1000), uint256.NewInt(5e10), epoch))
	assert.Nil(t, l.Credit(db, fullAccess, bob, accrual.Units(200), uint256.NewInt(7e10), epoch))

	// The recipient keeps its higher rate.
	moved, err := l.TransferLocal(db, fullAccess, alice, bob, accrual.Units(500), epoch)
	assert.Nil(t, err)
	assert.AmountEqual(t, accrual.Units(500), moved)

	b, err := l.Account(db, bob)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(7e10), b.Rate)
	assert.AmountEqual(t, accrual.Units(700), b.Principal)

	a, err := l.Account(db, alice)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(5e10), a.Rate)
	assert.AmountEqual(t, accrual.Units(500), a.Principal)

	// A fresh recipient inherits the sender rate.
	_, err = l.TransferLocal(db, fullAccess, bob, carol, accrual.Units(100), epoch)
	assert.Nil(t, err)
	c, err := l.Account(db, carol)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(7e10), c.Rate)

	// A holding recipient with a lower rate is upgraded.
	_, err = l.TransferLocal(db, fullAccess, bob, alice, accrual.Units(100), epoch)
	assert.Nil(t, err)
	a, err = l.Account(db, alice)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(7e10), a.Rate)
	assert.AmountEqual(t, accrual.Units(600), a.Principal)
}

func TestTransferLocalSettlesBothSides(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	bob := accrualtest.RandomAddr(t)

	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(1000), uint256.NewInt(5e10), epoch))
	assert.Nil(t, l.Credit(db, fullAccess, bob, accrual.Units(1000), uint256.NewInt(5e10), epoch))

	_, err := l.TransferLocal(db, fullAccess, alice, bob, accrual.Units(500), epoch+3600)
	assert.Nil(t, err)

	grown := new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16))
	a, err := l.Account(db, alice)
	assert.Nil(t, err)
	assert.AmountEqual(t, new(uint256.Int).Sub(grown, accrual.Units(500)), a.Principal)
	assert.Equal(t, epoch+3600, a.LastSettled)

	b, err := l.Account(db, bob)
	assert.Nil(t, err)
	assert.AmountEqual(t, new(uint256.Int).Add(grown, accrual.Units(500)), b.Principal)
	assert.Equal(t, epoch+3600, b.LastSettled)
}

func TestTransferLocalFailureIsAtomic(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	bob := accrualtest.RandomAddr(t)

	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(10), uint256.NewInt(5e10), epoch))
	assert.Nil(t, l.Credit(db, fullAccess, bob, accrual.Units(20), uint256.NewInt(1e10), epoch))

	_, err := l.TransferLocal(db, fullAccess, alice, bob, accrual.Units(11), epoch+10)
	assert.IsErr(t, errors.ErrInsufficientBalance, err)

	a, err := l.Account(db, alice)
	assert.Nil(t, err)
	assert.AmountEqual(t, accrual.Units(10), a.Principal)
	assert.Equal(t, epoch, a.LastSettled)
	b, err := l.Account(db, bob)
	assert.Nil(t, err)
	assert.AmountEqual(t, accrual.Units(20), b.Principal)
	assert.AmountEqual(t, uint256.NewInt(1e10), b.Rate)
	assert.Equal(t, epoch, b.LastSettled)
}

func TestTransferToSelfOnlySettles(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(1000), uint256.NewInt(5e10), epoch))

	moved, err := l.TransferLocal(db, fullAccess, alice, alice, accrual.MaxAmount, epoch+3600)
	assert.Nil(t, err)
	grown := new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16))
	assert.AmountEqual(t, grown, moved)

	a, err := l.Account(db, alice)
	assert.Nil(t, err)
	assert.AmountEqual(t, grown, a.Principal)
	assert.Equal(t, epoch+3600, a.LastSettled)

	_, err = l.TransferLocal(db, fullAccess, alice, alice, accrual.Units(2000), epoch+3600)
	assert.IsErr(t, errors.ErrInsufficientBalance, err)
}

func TestCapture(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(1000), uint256.NewInt(5e10), epoch))

	amount, rate, err := l.Capture(db, fullAccess, alice, accrual.MaxAmount, epoch+3600)
	assert.Nil(t, err)
	assert.AmountEqual(t, new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16)), amount)
	assert.AmountEqual(t, uint256.NewInt(5e10), rate)

	a, err := l.Account(db, alice)
	assert.Nil(t, err)
	assert.AmountEqual(t, amount, a.Principal)
	assert.Equal(t, epoch+3600, a.LastSettled)

	_, _, err = l.Capture(db, fullAccess, alice, accrual.Units(2000), epoch+3600)
	assert.IsErr(t, errors.ErrInsufficientBalance, err)
}

func TestSupply(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)
	bob := accrualtest.RandomAddr(t)

	total, err := l.TotalSupply(db)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(0), total)

	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(1000), uint256.NewInt(5e10), epoch))
	assert.Nil(t, l.Credit(db, fullAccess, bob, accrual.Units(1000), uint256.NewInt(5e10), epoch))

	// Unsettled growth is not part of the total supply.
	total, err = l.TotalSupply(db)
	assert.Nil(t, err)
	assert.AmountEqual(t, accrual.Units(2000), total)

	grown := new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16))
	accrued, err := l.AccruedSupply(db, epoch+3600)
	assert.Nil(t, err)
	assert.AmountEqual(t, new(uint256.Int).Add(grown, grown), accrued)

	// Settling one account realizes its growth in the total supply.
	assert.Nil(t, l.Settle(db, fullAccess, alice, epoch+3600))
	total, err = l.TotalSupply(db)
	assert.Nil(t, err)
	assert.AmountEqual(t, new(uint256.Int).Add(grown, accrual.Units(1000)), total)

	_, err = l.Debit(db, fullAccess, alice, accrual.MaxAmount, epoch+3600)
	assert.Nil(t, err)
	total, err = l.TotalSupply(db)
	assert.Nil(t, err)
	assert.AmountEqual(t, accrual.Units(1000), total)

	// A transfer only realizes the sender growth, moving value between
	// holders does not change the supply.
	_, err = l.TransferLocal(db, fullAccess, bob, alice, accrual.Units(10), epoch+3600)
	assert.Nil(t, err)
	total, err = l.TotalSupply(db)
	assert.Nil(t, err)
	assert.AmountEqual(t, grown, total)
}

func TestBalanceOf(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()
	alice := accrualtest.RandomAddr(t)

	got, err := l.BalanceOf(db, alice, epoch)
	assert.Nil(t, err)
	assert.AmountEqual(t, uint256.NewInt(0), got)

	assert.Nil(t, l.Credit(db, fullAccess, alice, accrual.Units(1000), uint256.NewInt(5e10), epoch))
	got, err = l.BalanceOf(db, alice, epoch+3600)
	assert.Nil(t, err)
	assert.AmountEqual(t, new(uint256.Int).Add(accrual.Units(1000), uint256.NewInt(18e16)), got)

	// Reading a balance does not settle.
	a, err := l.Account(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, epoch, a.LastSettled)
}
