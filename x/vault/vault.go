package vault

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
	"github.com/iov-one/accrual/x/ledger"
	"github.com/iov-one/accrual/x/rate"
)

// Totals is the persisted vault bookkeeping.
type Totals struct {
	// Deposited is the sum of all deposits.
	Deposited *uint256.Int
	// Withdrawn is the sum of all released withdrawals, interest included.
	Withdrawn *uint256.Int
}

var _ orm.Model = (*Totals)(nil)

func (t *Totals) Marshal() ([]byte, error) {
	return orm.NewEncoder().Int(t.Deposited).Int(t.Withdrawn).Marshal()
}

func (t *Totals) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	t.Deposited = d.Int()
	t.Withdrawn = d.Int()
	return d.Err()
}

func (t *Totals) Validate() error {
	var errs error
	if t.Deposited == nil {
		errs = errors.AppendField(errs, "Deposited", errors.ErrEmpty)
	}
	if t.Withdrawn == nil {
		errs = errors.AppendField(errs, "Withdrawn", errors.ErrEmpty)
	}
	return errs
}

// Liability returns deposits minus withdrawals. Withdrawals include paid
// out interest, so once interest was paid the liability is floored at zero.
func (t *Totals) Liability() *uint256.Int {
	if t.Withdrawn.Gt(t.Deposited) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(t.Deposited, t.Withdrawn)
}

var totalsKey = []byte("totals")

// Receipt is the proof that a withdrawal was debited from the ledger and
// its asset may be released. It can be released only once.
type Receipt struct {
	holder   accrual.Address
	amount   *uint256.Int
	consumed bool
}

// Holder returns the address the asset is released to.
func (r *Receipt) Holder() accrual.Address {
	return r.holder
}

// Amount returns the concrete debited amount.
func (r *Receipt) Amount() *uint256.Int {
	return new(uint256.Int).Set(r.amount)
}

// Consumed returns true once the receipt was released.
func (r *Receipt) Consumed() bool {
	return r.consumed
}

// Vault mints and burns ledger credit against the base asset.
type Vault struct {
	ledger   *ledger.Ledger
	governor *rate.Governor
	custody  Custody
	totals   orm.ModelBucket
}

var _ accrual.Initializer = (*Vault)(nil)

// NewVault returns a vault crediting given ledger at the rate of given
// governor, keeping the asset in given custody.
func NewVault(l *ledger.Ledger, g *rate.Governor, c Custody) *Vault {
	return &Vault{
		ledger:   l,
		governor: g,
		custody:  c,
		totals:   orm.NewModelBucket("vault"),
	}
}

// FromGenesis stores the vault configuration. The configuration is
// optional.
func (v *Vault) FromGenesis(opts accrual.Options, db accrual.KVStore) error {
	var conf Configuration
	err := gconf.InitConfig(db, opts, pkgName, &conf)
	if errors.ErrNotFound.Is(err) {
		return gconf.Save(db, pkgName, &Configuration{})
	}
	return err
}

// Custody returns the asset custody of this vault.
func (v *Vault) Custody() Custody {
	return v.custody
}

// Deposit accepts amount of the base asset from holder and credits the
// ledger with the same amount at the current governor rate.
func (v *Vault) Deposit(ctx context.Context, db accrual.KVStore, token ledger.Capability, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) error {
	if amount == nil || amount.IsZero() {
		return errors.Wrap(errors.ErrZeroAmount, "deposit")
	}
	if accrual.IsMaxAmount(amount) {
		return errors.Wrap(errors.ErrInvalidInput, "max amount cannot be deposited")
	}
	current, err := v.governor.CurrentRate(db)
	if err != nil {
		return errors.Wrap(err, "current rate")
	}
	if err := v.ledger.Credit(db, token, holder, amount, current, now); err != nil {
		return errors.Wrap(err, "credit")
	}
	if err := v.track(db, amount, nil); err != nil {
		return err
	}
	if err := v.custody.Receive(ctx, db, holder, amount); err != nil {
		return errors.Wrap(err, "custody receive")
	}
	return nil
}

// Reserve debits the holder ledger account and returns a receipt for the
// release of the debited asset. MaxAmount reserves the entire settled
// balance.
func (v *Vault) Reserve(db accrual.KVStore, token ledger.Capability, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*Receipt, error) {
	if amount == nil || amount.IsZero() {
		return nil, errors.Wrap(errors.ErrZeroAmount, "withdraw")
	}
	debited, err := v.ledger.Debit(db, token, holder, amount, now)
	if err != nil {
		return nil, errors.Wrap(err, "debit")
	}
	if err := v.track(db, nil, debited); err != nil {
		return nil, err
	}
	return &Receipt{holder: holder, amount: debited}, nil
}

// Release moves the asset of given receipt out of custody. Any custody
// failure is reported as ErrReleaseFailed. The receipt is consumed even if
// the release failed: the caller must discard the transaction the receipt
// was created in.
func (v *Vault) Release(ctx context.Context, db accrual.KVStore, r *Receipt) error {
	if r == nil {
		return errors.Wrap(errors.ErrEmpty, "receipt")
	}
	if r.consumed {
		return errors.Wrap(errors.ErrReceiptConsumed, "release")
	}
	r.consumed = true
	if err := v.custody.Release(ctx, db, r.holder, r.amount); err != nil {
		return errors.Wrap(errors.ErrReleaseFailed, err.Error())
	}
	return nil
}

// Withdraw reserves and releases in one call. It returns the concrete
// withdrawn amount.
func (v *Vault) Withdraw(ctx context.Context, db accrual.KVStore, token ledger.Capability, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*uint256.Int, error) {
	r, err := v.Reserve(db, token, holder, amount, now)
	if err != nil {
		return nil, err
	}
	if err := v.Release(ctx, db, r); err != nil {
		return nil, err
	}
	return r.Amount(), nil
}

// Totals returns the vault bookkeeping.
func (v *Vault) Totals(db accrual.ReadOnlyKVStore) (*Totals, error) {
	var t Totals
	switch err := v.totals.One(db, totalsKey, &t); {
	case err == nil:
		return &t, nil
	case errors.ErrNotFound.Is(err):
		return &Totals{Deposited: new(uint256.Int), Withdrawn: new(uint256.Int)}, nil
	default:
		return nil, err
	}
}

// Liability returns deposits minus withdrawals. It is not interest
// inclusive.
func (v *Vault) Liability(db accrual.ReadOnlyKVStore) (*uint256.Int, error) {
	t, err := v.Totals(db)
	if err != nil {
		return nil, err
	}
	return t.Liability(), nil
}

func (v *Vault) track(db accrual.KVStore, deposited, withdrawn *uint256.Int) error {
	t, err := v.Totals(db)
	if err != nil {
		return err
	}
	var overflow bool
	if deposited != nil {
		if t.Deposited, overflow = new(uint256.Int).AddOverflow(t.Deposited, deposited); overflow {
			return errors.Wrap(errors.ErrOverflow, "deposited")
		}
	}
	if withdrawn != nil {
		if t.Withdrawn, overflow = new(uint256.Int).AddOverflow(t.Withdrawn, withdrawn); overflow {
			return errors.Wrap(errors.ErrOverflow, "withdrawn")
		}
	}
	return v.totals.Put(db, totalsKey, t)
}
