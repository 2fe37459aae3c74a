package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/x/bridge"
	"github.com/iov-one/accrual/x/ledger"
	"github.com/iov-one/accrual/x/rate"
	"github.com/iov-one/accrual/x/vault"
	"github.com/tendermint/tendermint/libs/log"
)

// Domain is a single ledger domain. It serializes all calls, so it is safe
// to use from many goroutines. Independent domains share nothing.
type Domain struct {
	mu sync.Mutex

	name    string
	db      accrual.CacheableKVStore
	logger  log.Logger
	metrics *Metrics

	ledger   *ledger.Ledger
	governor *rate.Governor
	vault    *vault.Vault
	bridge   *bridge.Bridge

	// Each collaborator gets only the ledger permissions it needs.
	vaultAccess    ledger.Capability
	bridgeAccess   ledger.Capability
	transferAccess ledger.Capability
}

// NewDomain returns a domain keeping its state in db and relocating value
// over given transport. A nil custody defaults to store kept reserves.
func NewDomain(name string, db accrual.CacheableKVStore, t bridge.Transport, c vault.Custody) *Domain {
	if c == nil {
		c = vault.NewStoreCustody()
	}
	l := ledger.NewLedger()
	g := rate.NewGovernor()
	d := &Domain{
		name:     name,
		db:       db,
		metrics:  NewMetrics(nil),
		ledger:   l,
		governor: g,
		vault:    vault.NewVault(l, g, c),
		bridge:   bridge.NewBridge(l, t),

		vaultAccess:    ledger.NewCapability("vault", ledger.PermCredit, ledger.PermDebit),
		bridgeAccess:   ledger.NewCapability("bridge", ledger.PermSettle, ledger.PermCredit, ledger.PermDebit),
		transferAccess: ledger.NewCapability("transfer", ledger.PermSettle, ledger.PermTransfer),
	}
	return d.WithLogger(log.NewNopLogger())
}

// WithLogger sets the logger on the domain and returns it, to make it easy
// to chain in initialization.
func (d *Domain) WithLogger(logger log.Logger) *Domain {
	d.logger = logger.With("module", "app", "domain", d.name)
	return d
}

// WithMetrics records operation metrics in given registry holder.
func (d *Domain) WithMetrics(m *Metrics) *Domain {
	d.metrics = m
	return d
}

// Name returns the domain identifier.
func (d *Domain) Name() string {
	return d.name
}

// Metrics returns the operation metrics of this domain.
func (d *Domain) Metrics() *Metrics {
	return d.metrics
}

// InitGenesis initializes the domain store from given genesis. The genesis
// must be issued for this domain and a domain can be initialized only once.
func (d *Domain) InitGenesis(gen *Genesis) error {
	return d.run("init_genesis", func(db accrual.KVStore) error {
		if err := gen.Validate(); err != nil {
			return err
		}
		if gen.DomainID != d.name {
			return errors.Wrapf(errors.ErrInvalidInput, "genesis of %q loaded into %q", gen.DomainID, d.name)
		}
		if err := saveDomainID(db, gen.DomainID); err != nil {
			return err
		}
		init := ChainInitializers(d.governor, d.vault, d.bridge)
		if err := init.FromGenesis(gen.AppState, db); err != nil {
			return err
		}
		conf, err := d.bridge.Configuration(db)
		if err != nil {
			return err
		}
		if conf.Domain != d.name {
			return errors.Wrapf(errors.ErrInvalidInput, "bridge configured for %q", conf.Domain)
		}
		return nil
	})
}

// Initialized returns true once InitGenesis succeeded.
func (d *Domain) Initialized() (bool, error) {
	var id string
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		id, err = loadDomainID(db)
		return err
	})
	return id != "", err
}

// Deposit credits amount to holder at the current governor rate and takes
// the base asset into custody.
func (d *Domain) Deposit(ctx context.Context, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) error {
	return d.run("deposit", func(db accrual.KVStore) error {
		return d.vault.Deposit(ctx, db, d.vaultAccess, holder, amount, now)
	}, "holder", holder, "amount", accrual.FormatAmount(amount))
}

// Withdraw debits holder and releases the base asset. MaxAmount withdraws
// the whole settled balance. It returns the withdrawn amount.
func (d *Domain) Withdraw(ctx context.Context, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*uint256.Int, error) {
	var withdrawn *uint256.Int
	err := d.run("withdraw", func(db accrual.KVStore) error {
		var err error
		withdrawn, err = d.vault.Withdraw(ctx, db, d.vaultAccess, holder, amount, now)
		return err
	}, "holder", holder, "amount", accrual.FormatAmount(amount))
	return withdrawn, err
}

// Transfer moves amount between two holders of this domain. The receiver
// inherits the rate of the sender under the non-downgrade rule. It returns
// the transferred amount.
func (d *Domain) Transfer(from, to accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*uint256.Int, error) {
	var moved *uint256.Int
	err := d.run("transfer", func(db accrual.KVStore) error {
		var err error
		moved, err = d.ledger.TransferLocal(db, d.transferAccess, from, to, amount, now)
		return err
	}, "from", from, "to", to, "amount", accrual.FormatAmount(amount))
	return moved, err
}

// Settle folds the interest accrued by holder into its principal.
func (d *Domain) Settle(holder accrual.Address, now accrual.UnixTime) error {
	return d.run("settle", func(db accrual.KVStore) error {
		return d.ledger.Settle(db, d.transferAccess, holder, now)
	}, "holder", holder)
}

// Relocate debits holder and hands the value, together with the holder
// rate, to the transport for delivery to recipient in destination domain.
// Nothing is debited if the transport does not accept the message.
func (d *Domain) Relocate(ctx context.Context, holder accrual.Address, destination string, recipient accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*bridge.Envelope, bridge.DeliveryHandle, error) {
	var (
		env    *bridge.Envelope
		handle bridge.DeliveryHandle
	)
	err := d.run("relocate", func(db accrual.KVStore) error {
		var err error
		env, handle, err = d.bridge.Relocate(ctx, db, d.bridgeAccess, holder, destination, recipient, amount, now)
		return err
	}, "holder", holder, "destination", destination, "amount", accrual.FormatAmount(amount))
	if err != nil {
		return nil, bridge.DeliveryHandle{}, err
	}
	d.logger.Info("relocation sent", "id", env.ID, "destination", destination)
	return env, handle, nil
}

// Receive applies an envelope delivered by the transport.
func (d *Domain) Receive(ctx context.Context, raw []byte, now accrual.UnixTime) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var env *bridge.Envelope
	err := d.run("receive", func(db accrual.KVStore) error {
		var err error
		env, _, err = d.bridge.Receive(db, d.bridgeAccess, raw, now)
		return err
	})
	if err == nil {
		d.logger.Info("relocation received", "id", env.ID, "source", env.Source)
	}
	return err
}

// Handler returns a transport handler delivering into this domain. The
// clock provides the time each delivery is applied at.
func (d *Domain) Handler(clock func() accrual.UnixTime) bridge.Handler {
	return func(ctx context.Context, raw []byte) error {
		return d.Receive(ctx, raw, clock())
	}
}

// Pending returns the relocations sent from this domain whose delivery was
// not acknowledged yet.
func (d *Domain) Pending() ([]*bridge.Envelope, error) {
	var res []*bridge.Envelope
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		res, err = d.bridge.Pending(db)
		return err
	})
	return res, err
}

// Acknowledge drops a delivered relocation from the outbox.
func (d *Domain) Acknowledge(id uuid.UUID) error {
	return d.run("acknowledge", func(db accrual.KVStore) error {
		return d.bridge.Acknowledge(db, id)
	}, "id", id)
}

// Resend hands all pending relocations to the transport again. Call it
// after a restart, when the transport lost whatever it had queued.
func (d *Domain) Resend(ctx context.Context) (int, error) {
	var n int
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		n, err = d.bridge.Resend(ctx, db)
		return err
	})
	if n > 0 {
		d.logger.Info("relocations resent", "count", n)
	}
	return n, err
}

// SetRate lowers the rate offered to new deposits. Only the configured
// admin may call it.
func (d *Domain) SetRate(caller accrual.Address, newRate *uint256.Int) error {
	return d.run("set_rate", func(db accrual.KVStore) error {
		if err := d.governor.Authorize(db, caller); err != nil {
			return err
		}
		return d.governor.SetRate(db, newRate)
	}, "caller", caller, "rate", newRate)
}

// FundReserves moves base asset from the admin into custody, so that
// accrued interest can be paid out.
func (d *Domain) FundReserves(ctx context.Context, caller accrual.Address, amount *uint256.Int) error {
	return d.run("fund", func(db accrual.KVStore) error {
		if amount == nil || amount.IsZero() {
			return errors.Wrap(errors.ErrZeroAmount, "fund")
		}
		if accrual.IsMaxAmount(amount) {
			return errors.Wrap(errors.ErrInvalidInput, "cannot fund with the max amount sentinel")
		}
		if err := d.governor.Authorize(db, caller); err != nil {
			return err
		}
		return d.vault.Custody().Receive(ctx, db, caller, amount)
	}, "caller", caller, "amount", accrual.FormatAmount(amount))
}

// BalanceOf returns the interest inclusive balance of holder.
func (d *Domain) BalanceOf(holder accrual.Address, now accrual.UnixTime) (*uint256.Int, error) {
	var res *uint256.Int
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		res, err = d.ledger.BalanceOf(db, holder, now)
		return err
	})
	return res, err
}

// Account returns the stored account of holder.
func (d *Domain) Account(holder accrual.Address) (*ledger.Account, error) {
	var res *ledger.Account
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		res, err = d.ledger.Account(db, holder)
		return err
	})
	return res, err
}

// CurrentRate returns the rate offered to new deposits.
func (d *Domain) CurrentRate() (*uint256.Int, error) {
	var res *uint256.Int
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		res, err = d.governor.CurrentRate(db)
		return err
	})
	return res, err
}

// Supply is a snapshot of the domain aggregates.
type Supply struct {
	// Total is the sum of settled principals.
	Total *uint256.Int
	// Accrued is the interest inclusive sum of all balances.
	Accrued *uint256.Int
	// Liability is deposits minus withdrawals.
	Liability *uint256.Int
	// Reserves is the base asset held in custody.
	Reserves *uint256.Int
	Bridge   *bridge.Totals
}

// Supply collects all aggregates. It iterates over every account.
func (d *Domain) Supply(now accrual.UnixTime) (*Supply, error) {
	var s Supply
	err := d.view(func(db accrual.ReadOnlyKVStore) error {
		var err error
		if s.Total, err = d.ledger.TotalSupply(db); err != nil {
			return errors.Wrap(err, "total")
		}
		if s.Accrued, err = d.ledger.AccruedSupply(db, now); err != nil {
			return errors.Wrap(err, "accrued")
		}
		if s.Liability, err = d.vault.Liability(db); err != nil {
			return errors.Wrap(err, "liability")
		}
		if s.Reserves, err = d.vault.Custody().Reserves(db); err != nil {
			return errors.Wrap(err, "reserves")
		}
		if s.Bridge, err = d.bridge.Totals(db); err != nil {
			return errors.Wrap(err, "bridge")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// run executes fn in a transaction. The transaction is written only if fn
// succeeds. A panic is reported as ErrPanic.
func (d *Domain) run(op string, fn func(db accrual.KVStore) error, keyvals ...interface{}) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	tx := d.db.CacheWrap()
	defer func() {
		if err == nil {
			err = tx.Write()
		} else {
			tx.Discard()
		}
		d.metrics.observe(op, start, err)
		if err != nil {
			d.logger.Info("operation failed", append(keyvals, "op", op, "err", err)...)
			return
		}
		d.logger.Debug("operation", append(keyvals, "op", op)...)
	}()
	defer errors.Recover(&err)

	return fn(tx)
}

// view executes a read only fn against the committed state.
func (d *Domain) view(fn func(db accrual.ReadOnlyKVStore) error) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer errors.Recover(&err)
	return fn(d.db)
}
