package bridge

import (
	"github.com/google/uuid"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/orm"
)

// consumed marks an envelope that was applied.
type consumed struct {
	Source string
}

var _ orm.Model = (*consumed)(nil)

func (c *consumed) Marshal() ([]byte, error) {
	return orm.NewEncoder().Text(c.Source).Marshal()
}

func (c *consumed) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	c.Source = d.Text()
	return d.Err()
}

func (c *consumed) Validate() error {
	if c.Source == "" {
		return errors.Field("Source", errors.ErrEmpty, "required")
	}
	return nil
}

// ReplayGuard remembers the IDs of applied envelopes. It trades one store
// entry per relocation for the guarantee that a redelivered envelope is
// not applied twice.
type ReplayGuard struct {
	bucket orm.ModelBucket
}

// NewReplayGuard returns a guard using the "relayed" bucket.
func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{bucket: orm.NewModelBucket("relayed")}
}

// Consume records the envelope. It returns ErrDuplicate if the envelope
// was consumed before.
func (g *ReplayGuard) Consume(db accrual.KVStore, e *Envelope) error {
	seen, err := g.Seen(db, e.ID)
	if err != nil {
		return err
	}
	if seen {
		return errors.Wrapf(errors.ErrDuplicate, "envelope %s from %q", e.ID, e.Source)
	}
	return g.bucket.Put(db, e.ID[:], &consumed{Source: e.Source})
}

// Seen returns true if an envelope with given ID was consumed.
func (g *ReplayGuard) Seen(db accrual.ReadOnlyKVStore, id uuid.UUID) (bool, error) {
	return g.bucket.Has(db, id[:])
}
