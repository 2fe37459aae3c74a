package bridge

import (
	"context"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
	"github.com/iov-one/accrual/x/ledger"
)

// Totals is the persisted bridge bookkeeping.
type Totals struct {
	// Sent is the sum of all relocated amounts leaving this domain.
	Sent *uint256.Int
	// Received is the sum of all relocated amounts credited in this
	// domain.
	Received *uint256.Int
}

var _ orm.Model = (*Totals)(nil)

func (t *Totals) Marshal() ([]byte, error) {
	return orm.NewEncoder().Int(t.Sent).Int(t.Received).Marshal()
}

func (t *Totals) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	t.Sent = d.Int()
	t.Received = d.Int()
	return d.Err()
}

func (t *Totals) Validate() error {
	var errs error
	if t.Sent == nil {
		errs = errors.AppendField(errs, "Sent", errors.ErrEmpty)
	}
	if t.Received == nil {
		errs = errors.AppendField(errs, "Received", errors.ErrEmpty)
	}
	return errs
}

var totalsKey = []byte("totals")

// Bridge relocates ledger value to and from peer domains.
type Bridge struct {
	ledger    *ledger.Ledger
	transport Transport
	guard     *ReplayGuard
	outbox    *Outbox
	totals    orm.ModelBucket
}

var _ accrual.Initializer = (*Bridge)(nil)

// NewBridge returns a bridge moving value of given ledger over given
// transport.
func NewBridge(l *ledger.Ledger, t Transport) *Bridge {
	return &Bridge{
		ledger:    l,
		transport: t,
		guard:     NewReplayGuard(),
		outbox:    NewOutbox(),
		totals:    orm.NewModelBucket("bridge"),
	}
}

// FromGenesis stores the bridge configuration.
func (b *Bridge) FromGenesis(opts accrual.Options, db accrual.KVStore) error {
	var conf Configuration
	return gconf.InitConfig(db, opts, pkgName, &conf)
}

// Configuration returns the stored configuration.
func (b *Bridge) Configuration(db accrual.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, pkgName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

// PrepareRelocation settles the holder, captures its rate and debits
// amount. MaxAmount is resolved to the settled balance. The returned
// payload carries the debited amount and the captured rate.
//
// The rate is read before the debit. Debiting to zero does not erase the
// rate, but the captured value must never depend on that.
func (b *Bridge) PrepareRelocation(db accrual.KVStore, token ledger.Capability, holder accrual.Address, amount *uint256.Int, now accrual.UnixTime) (Payload, error) {
	resolved, rate, err := b.ledger.Capture(db, token, holder, amount, now)
	if err != nil {
		return Payload{}, errors.Wrap(err, "capture")
	}
	debited, err := b.ledger.Debit(db, token, holder, resolved, now)
	if err != nil {
		return Payload{}, errors.Wrap(err, "debit")
	}
	return Payload{Amount: debited, Rate: rate}, nil
}

// ApplyRelocation credits the payload to the recipient, using the payload
// rate under the non-downgrade rule.
//
// This function keeps no history. Applying the same payload twice credits
// twice.
func (b *Bridge) ApplyRelocation(db accrual.KVStore, token ledger.Capability, p Payload, recipient accrual.Address, now accrual.UnixTime) error {
	if p.Amount == nil || p.Rate == nil {
		return errors.Wrap(errors.ErrEmpty, "payload")
	}
	if err := b.ledger.Credit(db, token, recipient, p.Amount, p.Rate, now); err != nil {
		return errors.Wrap(err, "credit")
	}
	return nil
}

// Relocate debits holder and sends the value to recipient in given
// destination domain. It must run inside the transaction of the caller: if
// sending fails the debit must be discarded. The envelope stays in the
// outbox of the same transaction until it is acknowledged.
func (b *Bridge) Relocate(ctx context.Context, db accrual.KVStore, token ledger.Capability, holder accrual.Address, destination string, recipient accrual.Address, amount *uint256.Int, now accrual.UnixTime) (*Envelope, DeliveryHandle, error) {
	conf, err := b.Configuration(db)
	if err != nil {
		return nil, DeliveryHandle{}, err
	}
	if err := conf.Supports(destination); err != nil {
		return nil, DeliveryHandle{}, err
	}
	if err := recipient.Validate(); err != nil {
		return nil, DeliveryHandle{}, errors.Wrap(err, "recipient")
	}

	p, err := b.PrepareRelocation(db, token, holder, amount, now)
	if err != nil {
		return nil, DeliveryHandle{}, err
	}
	raw, err := p.Marshal()
	if err != nil {
		return nil, DeliveryHandle{}, err
	}
	env := &Envelope{
		ID:          uuid.New(),
		Source:      conf.Domain,
		Destination: destination,
		Recipient:   recipient,
		Payload:     raw,
	}
	bz, err := env.Marshal()
	if err != nil {
		return nil, DeliveryHandle{}, err
	}
	if err := b.track(db, p.Amount, nil); err != nil {
		return nil, DeliveryHandle{}, err
	}
	if err := b.outbox.Put(db, env); err != nil {
		return nil, DeliveryHandle{}, errors.Wrap(err, "outbox")
	}
	h, err := b.transport.Send(ctx, destination, bz)
	if err != nil {
		return nil, DeliveryHandle{}, errors.Wrap(err, "send")
	}
	return env, h, nil
}

// Receive decodes an envelope delivered by the transport and applies its
// payload. Envelopes addressed to another domain or coming from a domain
// that is not a peer are rejected with ErrUnsupportedDomain. When the
// replay guard is enabled a redelivered envelope fails with ErrDuplicate.
func (b *Bridge) Receive(db accrual.KVStore, token ledger.Capability, raw []byte, now accrual.UnixTime) (*Envelope, Payload, error) {
	var env Envelope
	if err := env.Unmarshal(raw); err != nil {
		return nil, Payload{}, errors.Wrap(err, "envelope")
	}
	conf, err := b.Configuration(db)
	if err != nil {
		return nil, Payload{}, err
	}
	if env.Destination != conf.Domain {
		return nil, Payload{}, errors.Wrapf(errors.ErrUnsupportedDomain, "envelope for %q delivered to %q", env.Destination, conf.Domain)
	}
	if err := conf.Supports(env.Source); err != nil {
		return nil, Payload{}, err
	}
	p, err := UnmarshalPayload(env.Payload)
	if err != nil {
		return nil, Payload{}, err
	}
	if conf.Dedup {
		if err := b.guard.Consume(db, &env); err != nil {
			return nil, Payload{}, err
		}
	}
	if err := b.ApplyRelocation(db, token, p, env.Recipient, now); err != nil {
		return nil, Payload{}, err
	}
	if err := b.track(db, nil, p.Amount); err != nil {
		return nil, Payload{}, err
	}
	return &env, p, nil
}

// Totals returns the bridge bookkeeping.
func (b *Bridge) Totals(db accrual.ReadOnlyKVStore) (*Totals, error) {
	var t Totals
	switch err := b.totals.One(db, totalsKey, &t); {
	case err == nil:
		return &t, nil
	case errors.ErrNotFound.Is(err):
		return &Totals{Sent: new(uint256.Int), Received: new(uint256.Int)}, nil
	default:
		return nil, err
	}
}

func (b *Bridge) track(db accrual.KVStore, sent, received *uint256.Int) error {
	t, err := b.Totals(db)
	if err != nil {
		return err
	}
	var overflow bool
	if sent != nil {
		if t.Sent, overflow = new(uint256.Int).AddOverflow(t.Sent, sent); overflow {
			return errors.Wrap(errors.ErrOverflow, "sent")
		}
	}
	if received != nil {
		if t.Received, overflow = new(uint256.Int).AddOverflow(t.Received, received); overflow {
			return errors.Wrap(errors.ErrOverflow, "received")
		}
	}
	return b.totals.Put(db, totalsKey, t)
}
