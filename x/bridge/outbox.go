package bridge

import (
	"context"

	"github.com/google/uuid"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/orm"
)

// Outbox keeps every sent envelope until its delivery is acknowledged.
// The entry is written in the transaction that debits the holder, so a
// message the transport loses can always be sent again.
type Outbox struct {
	bucket orm.ModelBucket
}

// NewOutbox returns an outbox using the "outbox" bucket.
func NewOutbox() *Outbox {
	return &Outbox{bucket: orm.NewModelBucket("outbox")}
}

// Put stores the envelope under its ID.
func (o *Outbox) Put(db accrual.KVStore, e *Envelope) error {
	return o.bucket.Put(db, e.ID[:], e)
}

// Pending returns all unacknowledged envelopes ordered by ID.
func (o *Outbox) Pending(db accrual.ReadOnlyKVStore) ([]*Envelope, error) {
	var res []*Envelope
	err := o.bucket.Iterate(db, func(key, value []byte) error {
		var e Envelope
		if err := e.Unmarshal(value); err != nil {
			return errors.Wrapf(err, "outbox entry %X", key)
		}
		res = append(res, &e)
		return nil
	})
	return res, err
}

// Acknowledge removes the envelope with given ID. Acknowledging an unknown
// or already acknowledged envelope is not an error.
func (o *Outbox) Acknowledge(db accrual.KVStore, id uuid.UUID) error {
	switch err := o.bucket.Delete(db, id[:]); {
	case err == nil, errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
}

// Pending returns the relocations sent from this domain that were not
// acknowledged yet.
func (b *Bridge) Pending(db accrual.ReadOnlyKVStore) ([]*Envelope, error) {
	return b.outbox.Pending(db)
}

// Acknowledge marks the relocation with given ID as delivered.
func (b *Bridge) Acknowledge(db accrual.KVStore, id uuid.UUID) error {
	return b.outbox.Acknowledge(db, id)
}

// Resend hands every pending envelope to the transport again. The
// receiving side must tolerate the copies, either through the replay
// guard or because the original was lost. It returns the number of
// envelopes sent.
func (b *Bridge) Resend(ctx context.Context, db accrual.ReadOnlyKVStore) (int, error) {
	pending, err := b.outbox.Pending(db)
	if err != nil {
		return 0, err
	}
	for i, e := range pending {
		bz, err := e.Marshal()
		if err != nil {
			return i, err
		}
		if _, err := b.transport.Send(ctx, e.Destination, bz); err != nil {
			return i, errors.Wrapf(err, "resend %s", e.ID)
		}
	}
	return len(pending), nil
}
