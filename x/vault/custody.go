package vault

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
)

// Custody is the base asset primitive the vault relies on. Both movements
// happen within the transaction of the calling operation.
type Custody interface {
	// Receive takes amount of the base asset from given holder into
	// custody.
	Receive(ctx context.Context, db accrual.KVStore, from accrual.Address, amount *uint256.Int) error
	// Release hands amount of the base asset out of custody to given
	// address.
	Release(ctx context.Context, db accrual.KVStore, to accrual.Address, amount *uint256.Int) error
	// Reserves returns the amount of the base asset held in custody.
	Reserves(db accrual.ReadOnlyKVStore) (*uint256.Int, error)
}

// Balance is a single amount of the base asset.
type Balance struct {
	Amount *uint256.Int
}

var _ orm.Model = (*Balance)(nil)

func (b *Balance) Marshal() ([]byte, error) {
	return orm.NewEncoder().Int(b.Amount).Marshal()
}

func (b *Balance) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	b.Amount = d.Int()
	return d.Err()
}

func (b *Balance) Validate() error {
	if b.Amount == nil {
		return errors.Field("Amount", errors.ErrEmpty, "required")
	}
	return nil
}

var reserveKey = []byte("reserve")

// StoreCustody keeps the custodial reserve in the domain store, next to
// the ledger, so that asset movements share the transaction of the ledger
// mutation. Released assets are recorded per recipient.
type StoreCustody struct {
	reserve orm.ModelBucket
	paid    orm.ModelBucket
}

var _ Custody = (*StoreCustody)(nil)

// NewStoreCustody returns a custody using the "custody" and "paid" buckets.
func NewStoreCustody() *StoreCustody {
	return &StoreCustody{
		reserve: orm.NewModelBucket("custody"),
		paid:    orm.NewModelBucket("paid"),
	}
}

func (s *StoreCustody) amount(db accrual.ReadOnlyKVStore, b orm.ModelBucket, key []byte) (*uint256.Int, error) {
	var bal Balance
	switch err := b.One(db, key, &bal); {
	case err == nil:
		return bal.Amount, nil
	case errors.ErrNotFound.Is(err):
		return new(uint256.Int), nil
	default:
		return nil, err
	}
}

// Reserves returns the amount held in custody.
func (s *StoreCustody) Reserves(db accrual.ReadOnlyKVStore) (*uint256.Int, error) {
	return s.amount(db, s.reserve, reserveKey)
}

// Paid returns the total amount released to given address.
func (s *StoreCustody) Paid(db accrual.ReadOnlyKVStore, to accrual.Address) (*uint256.Int, error) {
	return s.amount(db, s.paid, to)
}

// Receive adds amount to the reserve.
func (s *StoreCustody) Receive(ctx context.Context, db accrual.KVStore, from accrual.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reserve, err := s.Reserves(db)
	if err != nil {
		return err
	}
	total, overflow := new(uint256.Int).AddOverflow(reserve, amount)
	if overflow {
		return errors.Wrap(errors.ErrOverflow, "reserves")
	}
	return s.reserve.Put(db, reserveKey, &Balance{Amount: total})
}

// Release takes amount out of the reserve. It fails if the reserve is too
// small or the recipient is configured as rejected.
func (s *StoreCustody) Release(ctx context.Context, db accrual.KVStore, to accrual.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var conf Configuration
	switch err := gconf.Load(db, pkgName, &conf); {
	case err == nil:
		if conf.rejects(to) {
			return errors.Wrapf(errors.ErrUnauthorized, "recipient %s rejects the asset", to)
		}
	case errors.ErrNotFound.Is(err):
		// Nothing is rejected without configuration.
	default:
		return err
	}

	reserve, err := s.Reserves(db)
	if err != nil {
		return err
	}
	if amount.Gt(reserve) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "reserves %s cannot cover %s",
			accrual.FormatAmount(reserve), accrual.FormatAmount(amount))
	}
	if err := s.reserve.Put(db, reserveKey, &Balance{Amount: new(uint256.Int).Sub(reserve, amount)}); err != nil {
		return err
	}

	paid, err := s.Paid(db, to)
	if err != nil {
		return err
	}
	total, overflow := new(uint256.Int).AddOverflow(paid, amount)
	if overflow {
		return errors.Wrap(errors.ErrOverflow, "paid")
	}
	return s.paid.Put(db, to, &Balance{Amount: total})
}
