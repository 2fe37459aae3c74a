package ledger

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/orm"
)

const (
	// BucketName is where the holder accounts are stored.
	BucketName = "acct"

	supplyBucketName = "supply"
)

var supplyKey = []byte("total")

// Ledger gives access to the accounts of a single domain. It holds no state
// of its own, all data lives in the store passed to each call.
type Ledger struct {
	accounts orm.ModelBucket
	supply   orm.ModelBucket
}

// NewLedger returns a ledger storing accounts in the "acct" bucket.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: orm.NewModelBucket(BucketName),
		supply:   orm.NewModelBucket(supplyBucketName),
	}
}

// Account returns the stored record of given holder. It returns
// ErrNotFound if the holder was never credited.
func (l *Ledger) Account(db accrual.ReadOnlyKVStore, holder accrual.Address) (*Account, error) {
	if err := holder.Validate(); err != nil {
		return nil, errors.Wrap(err, "holder")
	}
	var acct Account
	if err := l.accounts.One(db, holder, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// load returns the account of given holder, or a fresh one when it does
// not exist yet. Accounts are created lazily on first credit.
func (l *Ledger) load(db accrual.ReadOnlyKVStore, holder accrual.Address) (*Account, error) {
	acct, err := l.Account(db, holder)
	switch {
	case err == nil:
		return acct, nil
	case errors.ErrNotFound.Is(err):
		return NewAccount(), nil
	default:
		return nil, err
	}
}

// BalanceOf returns the balance of given holder at now, including growth
// that was not settled yet. An unknown holder has a zero balance.
func (l *Ledger) BalanceOf(db accrual.ReadOnlyKVStore, holder accrual.Address, now accrual.UnixTime) (*uint256.Int, error) {
	acct, err := l.load(db, holder)
	if err != nil {
		return nil, err
	}
	return ComputeBalance(acct, now)
}

// Settle realizes the growth of given holder account. Settling an unknown
// holder is a no-op.
func (l *Ledger) Settle(db accrual.KVStore, token Capability, holder accrual.Address, now accrual.UnixTime) error {
	if err := token.require(PermSettle); err != nil {
		return err
	}
	acct, err := l.Account(db, holder)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	if err != nil {
		return err
	}
	prev := acct.Copy()
	if err := Settle(acct, now); err != nil {
		return err
	}
	return l.save(db, holder, prev, acct)
}

// Credit adds amount to the holder account. The account is settled first
// and its rate follows the non-downgrade rule: it becomes proposedRate if
// the account is empty or proposedRate is higher than the current rate.
func (l *Ledger) Credit(db accrual.KVStore, token Capability, holder accrual.Address, amount, proposedRate *uint256.Int, now accrual.UnixTime) error {
	if err := token.require(PermCredit); err != nil {
		return err
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	if accrual.IsMaxAmount(amount) {
		return errors.Wrap(errors.ErrInvalidInput, "max amount cannot be credited")
	}
	if proposedRate == nil {
		return errors.Wrap(errors.ErrEmpty, "rate")
	}
	acct, err := l.load(db, holder)
	if err != nil {
		return err
	}
	prev := acct.Copy()
	if err := credit(acct, amount, proposedRate, now); err != nil {
		return err
	}
	return l.save(db, holder, prev, acct)
}

// Debit removes amount from the holder account after settling it.
// MaxAmount debits the whole settled balance. The rate is not changed.
// The concrete debited amount is returned.
func (l *Ledger) Debit(db accrual.KVStore, token Capability, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*uint256.Int, error) {
	if err := token.require(PermDebit); err != nil {
		return nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	acct, err := l.load(db, holder)
	if err != nil {
		return nil, err
	}
	prev := acct.Copy()
	debited, err := debit(acct, amount, now)
	if err != nil {
		return nil, err
	}
	if debited.IsZero() {
		return nil, errors.Wrap(errors.ErrZeroAmount, "nothing to debit")
	}
	if err := l.save(db, holder, prev, acct); err != nil {
		return nil, err
	}
	return debited, nil
}

// Capture settles the holder account and returns its concrete debitable
// amount together with the rate the holder is entitled to at now. The
// settlement is persisted. This is what a relocation reads before it
// debits.
func (l *Ledger) Capture(db accrual.KVStore, token Capability, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) (resolved, rate *uint256.Int, err error) {
	if err := token.require(PermSettle); err != nil {
		return nil, nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, nil, err
	}
	acct, err := l.load(db, holder)
	if err != nil {
		return nil, nil, err
	}
	prev := acct.Copy()
	if err := Settle(acct, now); err != nil {
		return nil, nil, err
	}
	resolved = resolve(acct, amount)
	if resolved.IsZero() {
		return nil, nil, errors.Wrap(errors.ErrZeroAmount, "nothing to capture")
	}
	if resolved.Gt(acct.Principal) {
		return nil, nil, errors.Wrapf(errors.ErrInsufficientBalance,
			"requested %s, settled balance %s", accrual.FormatAmount(resolved), accrual.FormatAmount(acct.Principal))
	}
	if err := l.save(db, holder, prev, acct); err != nil {
		return nil, nil, err
	}
	return resolved, new(uint256.Int).Set(acct.Rate), nil
}

// TransferLocal moves amount from one holder to another. Both accounts are
// settled, the recipient is credited with the sender rate under the
// non-downgrade rule. Both accounts are written only after both legs
// succeeded, so a failure leaves no partial transfer behind.
//
// A transfer to self only settles the account.
func (l *Ledger) TransferLocal(db accrual.KVStore, token Capability, from, to accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*uint256.Int, error) {
	if err := token.require(PermTransfer); err != nil {
		return nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, errors.Wrap(err, "recipient")
	}

	sender, err := l.load(db, from)
	if err != nil {
		return nil, err
	}
	prevSender := sender.Copy()

	if from.Equals(to) {
		if err := Settle(sender, now); err != nil {
			return nil, err
		}
		moved := resolve(sender, amount)
		if moved.Gt(sender.Principal) {
			return nil, errors.Wrapf(errors.ErrInsufficientBalance,
				"requested %s, settled balance %s", accrual.FormatAmount(moved), accrual.FormatAmount(sender.Principal))
		}
		if moved.IsZero() {
			return nil, errors.Wrap(errors.ErrZeroAmount, "nothing to transfer")
		}
		return moved, l.save(db, from, prevSender, sender)
	}

	recipient, err := l.load(db, to)
	if err != nil {
		return nil, err
	}
	prevRecipient := recipient.Copy()

	if err := Settle(recipient, now); err != nil {
		return nil, err
	}
	moved, err := debit(sender, amount, now)
	if err != nil {
		return nil, err
	}
	if moved.IsZero() {
		return nil, errors.Wrap(errors.ErrZeroAmount, "nothing to transfer")
	}
	if err := credit(recipient, moved, sender.Rate, now); err != nil {
		return nil, err
	}

	if err := l.save(db, from, prevSender, sender); err != nil {
		return nil, err
	}
	if err := l.save(db, to, prevRecipient, recipient); err != nil {
		return nil, err
	}
	return moved, nil
}

// TotalSupply returns the sum of all settled principals. It is not
// interest inclusive: growth that was not settled yet is not counted. This
// is a constant time read.
func (l *Ledger) TotalSupply(db accrual.ReadOnlyKVStore) (*uint256.Int, error) {
	var s supply
	switch err := l.supply.One(db, supplyKey, &s); {
	case err == nil:
		return s.Principal, nil
	case errors.ErrNotFound.Is(err):
		return new(uint256.Int), nil
	default:
		return nil, err
	}
}

// AccruedSupply returns the sum of all balances at now, including growth
// that was not settled yet. It iterates over every account.
func (l *Ledger) AccruedSupply(db accrual.ReadOnlyKVStore, now accrual.UnixTime) (*uint256.Int, error) {
	total := new(uint256.Int)
	err := l.accounts.Iterate(db, func(key, value []byte) error {
		var acct Account
		if err := acct.Unmarshal(value); err != nil {
			return errors.Wrapf(err, "account %X", key)
		}
		balance, err := ComputeBalance(&acct, now)
		if err != nil {
			return errors.Wrapf(err, "account %X", key)
		}
		if _, overflow := total.AddOverflow(total, balance); overflow {
			return errors.Wrap(errors.ErrOverflow, "accrued supply")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// save writes the account and adjusts the total supply by the principal
// difference.
func (l *Ledger) save(db accrual.KVStore, holder accrual.Address, prev, acct *Account) error {
	if acct.LastSettled < prev.LastSettled {
		return errors.Wrap(errors.ErrState, "settlement watermark moved backwards")
	}
	if err := holder.Validate(); err != nil {
		return errors.Wrap(err, "holder")
	}
	if err := l.accounts.Put(db, holder, acct); err != nil {
		return err
	}
	if acct.Principal.Eq(prev.Principal) {
		return nil
	}

	total, err := l.TotalSupply(db)
	if err != nil {
		return err
	}
	total = new(uint256.Int).Set(total)
	if acct.Principal.Gt(prev.Principal) {
		diff := new(uint256.Int).Sub(acct.Principal, prev.Principal)
		if _, overflow := total.AddOverflow(total, diff); overflow {
			return errors.Wrap(errors.ErrOverflow, "total supply")
		}
	} else {
		diff := new(uint256.Int).Sub(prev.Principal, acct.Principal)
		if diff.Gt(total) {
			return errors.Wrap(errors.ErrState, "total supply below zero")
		}
		total.Sub(total, diff)
	}
	return l.supply.Put(db, supplyKey, &supply{Principal: total})
}

func validAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return errors.Wrap(errors.ErrZeroAmount, "amount")
	}
	return nil
}
