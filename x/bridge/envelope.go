package bridge

import (
	"github.com/google/uuid"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/orm"
)

// Envelope wraps a payload with the routing information needed by the
// destination domain.
type Envelope struct {
	// ID is unique for every relocation. The replay guard uses it to
	// recognize a redelivery.
	ID          uuid.UUID
	Source      string
	Destination string
	Recipient   accrual.Address
	Payload     []byte
}

func (e *Envelope) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return orm.NewEncoder().
		Bytes(e.ID[:]).
		Text(e.Source).
		Text(e.Destination).
		Bytes(e.Recipient).
		Bytes(e.Payload).
		Marshal()
}

func (e *Envelope) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	id := d.Bytes()
	e.Source = d.Text()
	e.Destination = d.Text()
	e.Recipient = d.Bytes()
	e.Payload = d.Bytes()
	if err := d.Err(); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	parsed, err := uuid.FromBytes(id)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "envelope id: %s", err)
	}
	e.ID = parsed
	return e.Validate()
}

func (e *Envelope) Validate() error {
	var errs error
	if e.ID == uuid.Nil {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	if e.Source == "" {
		errs = errors.AppendField(errs, "Source", errors.ErrEmpty)
	}
	if e.Destination == "" {
		errs = errors.AppendField(errs, "Destination", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Recipient", e.Recipient.Validate())
	if len(e.Payload) != PayloadSize {
		errs = errors.AppendField(errs, "Payload", errors.ErrInvalidInput)
	}
	return errs
}
