package accrual

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/accrual/errors"
)

const (
	AddressLength = 20
	// AddressHRP prefixes bech32 encoded addresses.
	AddressHRP = "acc"
)

// Address identifies a holder. It keys the holder's ledger account and is
// always AddressLength bytes long.
type Address []byte

// NewAddress derives an address from arbitrary data.
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	sum := sha256.Sum256(data)
	return Address(sum[:AddressLength])
}

// ParseAddress reads an address in hex or bech32. The encoding may be
// forced with a "hex:" or "bech32:" prefix, otherwise a string starting
// with the AddressHRP separator is taken as bech32. An empty value is a
// nil address.
func ParseAddress(s string) (Address, error) {
	format, value := "", s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		format, value = s[:i], s[i+1:]
	} else if len(s) != 2*AddressLength && strings.HasPrefix(strings.ToLower(s), AddressHRP+"1") {
		format = "bech32"
	}
	if value == "" {
		return nil, nil
	}

	var (
		addr Address
		err  error
	)
	switch format {
	case "", "hex":
		addr, err = hex.DecodeString(value)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "hex address: %s", err)
		}
	case "bech32":
		if addr, err = fromBech32(value); err != nil {
			return nil, err
		}
	default:
		return nil, errors.ErrType.Newf("address format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

func fromBech32(s string) (Address, error) {
	_, data, err := bech32.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "bech32 address: %s", err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "bech32 address: %s", err)
	}
	return raw, nil
}

// Bech32 encodes the address with AddressHRP.
func (a Address) Bech32() (string, error) {
	data, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	s, err := bech32.Encode(AddressHRP, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return s, nil
}

func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.ErrInvalidInput.Newf("address of %d bytes", len(a))
	}
	return nil
}

// String is the upper case hex form, the one accepted by ParseAddress
// without a prefix.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// MarshalJSON writes the hex form instead of base64.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(a)))
}

func (a *Address) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "address json: %s", err)
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
