package bridge

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/accrualtest/assert"
	"github.com/iov-one/accrual/errors"
)

func TestPayloadLayout(t *testing.T) {
	p := Payload{Amount: uint256.NewInt(0x0102), Rate: uint256.NewInt(0x0a0b0c)}
	raw, err := p.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, PayloadSize, len(raw))

	want := make([]byte, PayloadSize)
	want[30], want[31] = 0x01, 0x02
	want[61], want[62], want[63] = 0x0a, 0x0b, 0x0c
	if !bytes.Equal(want, raw) {
		t.Fatalf("unexpected layout\nwant %X\n got %X", want, raw)
	}

	got, err := UnmarshalPayload(raw)
	assert.Nil(t, err)
	assert.AmountEqual(t, p.Amount, got.Amount)
	assert.AmountEqual(t, p.Rate, got.Rate)
}

func TestPayloadFullWidth(t *testing.T) {
	p := Payload{Amount: accrual.MaxAmount, Rate: new(uint256.Int).Rsh(accrual.MaxAmount, 8)}
	raw, err := p.Marshal()
	assert.Nil(t, err)
	got, err := UnmarshalPayload(raw)
	assert.Nil(t, err)
	assert.AmountEqual(t, p.Amount, got.Amount)
	assert.AmountEqual(t, p.Rate, got.Rate)
}

func TestPayloadErrors(t *testing.T) {
	cases := map[string]struct {
		raw     []byte
		wantErr *errors.Error
	}{
		"empty":     {raw: nil, wantErr: errors.ErrInvalidInput},
		"too short": {raw: make([]byte, PayloadSize-1), wantErr: errors.ErrInvalidInput},
		"too long":  {raw: make([]byte, PayloadSize+1), wantErr: errors.ErrInvalidInput},
		"zeros":     {raw: make([]byte, PayloadSize)},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := UnmarshalPayload(tc.raw)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}

	_, err := Payload{Amount: uint256.NewInt(1)}.Marshal()
	assert.IsErr(t, errors.ErrEmpty, err)
}
