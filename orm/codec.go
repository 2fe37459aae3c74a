package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual/errors"
)

// Encoder writes a sequence of fields using protobuf wire primitives:
// varints for numbers and length prefixed bytes for everything else.
// Fields have no tags, so the order of writes defines the format and must
// match the order of reads on the Decoder side.
//
// The first error is remembered and returned by Marshal.
type Encoder struct {
	buf *proto.Buffer
	err error
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: proto.NewBuffer(nil)}
}

// Uint64 writes a varint.
func (e *Encoder) Uint64(v uint64) *Encoder {
	if e.err == nil {
		e.err = e.buf.EncodeVarint(v)
	}
	return e
}

// Bool writes a boolean as a varint.
func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		return e.Uint64(1)
	}
	return e.Uint64(0)
}

// Bytes writes a length prefixed byte slice.
func (e *Encoder) Bytes(b []byte) *Encoder {
	if e.err == nil {
		e.err = e.buf.EncodeRawBytes(b)
	}
	return e
}

// Text writes a length prefixed string.
func (e *Encoder) Text(s string) *Encoder {
	if e.err == nil {
		e.err = e.buf.EncodeStringBytes(s)
	}
	return e
}

// Int writes a 256-bit integer in its shortest big-endian form. Nil is
// written as zero.
func (e *Encoder) Int(v *uint256.Int) *Encoder {
	if v == nil {
		return e.Bytes(nil)
	}
	return e.Bytes(v.Bytes())
}

// Marshal returns the serialized fields.
func (e *Encoder) Marshal() ([]byte, error) {
	if e.err != nil {
		return nil, errors.Wrap(errors.ErrInvalidModel, e.err.Error())
	}
	return e.buf.Bytes(), nil
}

// Decoder reads fields written by an Encoder. Once a read fails all
// following reads return zero values and Err reports the first failure.
// Data left unread when Err is called is an error too.
type Decoder struct {
	raw []byte
	off int
	err error
}

// NewDecoder returns a decoder reading given serialized data.
func NewDecoder(raw []byte) *Decoder {
	return &Decoder{raw: raw}
}

// Uint64 reads a varint.
func (d *Decoder) Uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := proto.DecodeVarint(d.raw[d.off:])
	if n == 0 {
		d.fail(errors.Wrapf(errors.ErrInvalidModel, "truncated varint at %d", d.off))
		return 0
	}
	d.off += n
	return v
}

// Bool reads a boolean.
func (d *Decoder) Bool() bool {
	switch v := d.Uint64(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail(errors.Wrapf(errors.ErrInvalidModel, "invalid bool value %d", v))
		return false
	}
}

// Bytes reads a length prefixed byte slice. The result is a copy.
func (d *Decoder) Bytes() []byte {
	size := d.Uint64()
	if d.err != nil {
		return nil
	}
	if size > uint64(len(d.raw)-d.off) {
		d.fail(errors.Wrapf(errors.ErrInvalidModel, "%d bytes declared, %d left", size, len(d.raw)-d.off))
		return nil
	}
	if size == 0 {
		return nil
	}
	b := make([]byte, size)
	d.off += copy(b, d.raw[d.off:])
	return b
}

// Text reads a length prefixed string.
func (d *Decoder) Text() string {
	return string(d.Bytes())
}

// Int reads a 256-bit integer.
func (d *Decoder) Int() *uint256.Int {
	b := d.Bytes()
	if len(b) > 32 {
		d.fail(errors.Wrapf(errors.ErrOverflow, "integer of %d bytes", len(b)))
		return new(uint256.Int)
	}
	return new(uint256.Int).SetBytes(b)
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Err returns the first error that happened while decoding, or
// ErrInvalidModel if not all data was read.
func (d *Decoder) Err() error {
	if d.err != nil {
		return d.err
	}
	if n := len(d.raw) - d.off; n != 0 {
		return errors.Wrapf(errors.ErrInvalidModel, "%d trailing bytes", n)
	}
	return nil
}
