package ledger

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/orm"
)

// Account is the ledger record of a single holder.
type Account struct {
	// Principal is the last settled balance.
	Principal *uint256.Int
	// Rate is the per second accrual numerator over accrual.Precision.
	Rate *uint256.Int
	// LastSettled is the moment the principal was last brought up to date.
	LastSettled accrual.UnixTime
}

var _ orm.Model = (*Account)(nil)

// NewAccount returns an empty account.
func NewAccount() *Account {
	return &Account{
		Principal: new(uint256.Int),
		Rate:      new(uint256.Int),
	}
}

// Copy returns a deep copy of this account.
func (a *Account) Copy() *Account {
	return &Account{
		Principal:   new(uint256.Int).Set(a.Principal),
		Rate:        new(uint256.Int).Set(a.Rate),
		LastSettled: a.LastSettled,
	}
}

func (a *Account) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Int(a.Principal).
		Int(a.Rate).
		Uint64(uint64(a.LastSettled)).
		Marshal()
}

func (a *Account) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	a.Principal = d.Int()
	a.Rate = d.Int()
	a.LastSettled = accrual.UnixTime(d.Uint64())
	return d.Err()
}

func (a *Account) Validate() error {
	var errs error
	if a.Principal == nil {
		errs = errors.AppendField(errs, "Principal", errors.ErrEmpty)
	}
	if a.Rate == nil {
		errs = errors.AppendField(errs, "Rate", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "LastSettled", a.LastSettled.Validate())
	return errs
}

// supply is the running sum of all settled principals.
type supply struct {
	Principal *uint256.Int
}

var _ orm.Model = (*supply)(nil)

func (s *supply) Marshal() ([]byte, error) {
	return orm.NewEncoder().Int(s.Principal).Marshal()
}

func (s *supply) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	s.Principal = d.Int()
	return d.Err()
}

func (s *supply) Validate() error {
	if s.Principal == nil {
		return errors.Field("Principal", errors.ErrEmpty, "required")
	}
	return nil
}
