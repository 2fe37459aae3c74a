package ledger

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
)

// ComputeBalance returns the time accreted balance of given account at now:
//
//   principal * (Precision + rate * elapsed) / Precision
//
// Accrual is linear, not compounded. This function does not modify the
// account. It fails if now is before the last settlement.
func ComputeBalance(acct *Account, now accrual.UnixTime) (*uint256.Int, error) {
	elapsed, err := now.Since(acct.LastSettled)
	if err != nil {
		return nil, errors.Wrap(err, "settlement watermark")
	}
	if acct.Principal.IsZero() || acct.Rate.IsZero() || elapsed == 0 {
		return new(uint256.Int).Set(acct.Principal), nil
	}

	// rate * elapsed must be computed before Precision is added, so that
	// a fractional rate is not truncated.
	growth, overflow := new(uint256.Int).MulOverflow(acct.Rate, uint256.NewInt(elapsed))
	if overflow {
		return nil, errors.Wrap(errors.ErrOverflow, "rate multiplied by elapsed time")
	}
	multiplier, overflow := new(uint256.Int).AddOverflow(growth, accrual.Precision)
	if overflow {
		return nil, errors.Wrap(errors.ErrOverflow, "accrual multiplier")
	}
	balance, overflow := new(uint256.Int).MulDivOverflow(acct.Principal, multiplier, accrual.Precision)
	if overflow {
		return nil, errors.Wrap(errors.ErrOverflow, "accreted balance")
	}
	return balance, nil
}

// Settle converts the growth accumulated since the last settlement into
// principal and moves the watermark to now. Calling it again with the same
// now does not change the account.
func Settle(acct *Account, now accrual.UnixTime) error {
	balance, err := ComputeBalance(acct, now)
	if err != nil {
		return err
	}
	acct.Principal = balance
	acct.LastSettled = now
	return nil
}

// credit settles the account and adds amount to it, applying the rate
// non-downgrade rule.
func credit(acct *Account, amount, proposedRate *uint256.Int, now accrual.UnixTime) error {
	if err := Settle(acct, now); err != nil {
		return err
	}
	if acct.Principal.IsZero() || proposedRate.Gt(acct.Rate) {
		acct.Rate = new(uint256.Int).Set(proposedRate)
	}
	principal, overflow := new(uint256.Int).AddOverflow(acct.Principal, amount)
	if overflow {
		return errors.Wrap(errors.ErrOverflow, "principal")
	}
	acct.Principal = principal
	return nil
}

// debit settles the account and subtracts amount from it. MaxAmount is
// resolved to the settled principal. The debited amount is returned.
func debit(acct *Account, amount *uint256.Int, now accrual.UnixTime) (*uint256.Int, error) {
	if err := Settle(acct, now); err != nil {
		return nil, err
	}
	amount = resolve(acct, amount)
	if amount.Gt(acct.Principal) {
		return nil, errors.Wrapf(errors.ErrInsufficientBalance,
			"requested %s, settled balance %s", accrual.FormatAmount(amount), accrual.FormatAmount(acct.Principal))
	}
	acct.Principal = new(uint256.Int).Sub(acct.Principal, amount)
	return amount, nil
}

// resolve returns the concrete amount for the MaxAmount sentinel. It must
// only be called on a settled account, otherwise the result is stale.
func resolve(acct *Account, amount *uint256.Int) *uint256.Int {
	if accrual.IsMaxAmount(amount) {
		return new(uint256.Int).Set(acct.Principal)
	}
	return new(uint256.Int).Set(amount)
}
