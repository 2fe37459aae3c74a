package bridge

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual/errors"
)

// PayloadSize is the exact length of a serialized payload: a 32 byte big
// endian amount followed by a 32 byte big endian rate.
const PayloadSize = 64

// Payload is the value carried between domains. It is immutable once
// emitted.
type Payload struct {
	Amount *uint256.Int
	Rate   *uint256.Int
}

// Marshal returns the fixed width binary representation.
func (p Payload) Marshal() ([]byte, error) {
	if p.Amount == nil || p.Rate == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "payload")
	}
	amount := p.Amount.Bytes32()
	rate := p.Rate.Bytes32()
	raw := make([]byte, 0, PayloadSize)
	raw = append(raw, amount[:]...)
	return append(raw, rate[:]...), nil
}

// Unmarshal reads the fixed width binary representation.
func (p *Payload) Unmarshal(raw []byte) error {
	if len(raw) != PayloadSize {
		return errors.Wrapf(errors.ErrInvalidInput, "payload must be %d bytes, got %d", PayloadSize, len(raw))
	}
	p.Amount = new(uint256.Int).SetBytes(raw[:32])
	p.Rate = new(uint256.Int).SetBytes(raw[32:])
	return nil
}

// UnmarshalPayload is a convenience function returning the decoded
// payload.
func UnmarshalPayload(raw []byte) (Payload, error) {
	var p Payload
	err := p.Unmarshal(raw)
	return p, err
}
