package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Root errors. Codes are part of the public interface and never change.
var (
	// ErrUnauthorized is returned when a caller lacks the permission or
	// the role an operation requires.
	ErrUnauthorized = Register(2, "unauthorized")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = Register(3, "not found")

	// ErrInvalidModel is returned when a model cannot be encoded, decoded
	// or persisted.
	ErrInvalidModel = Register(5, "invalid model")

	// ErrDuplicate is returned when a unique record already exists.
	ErrDuplicate = Register(6, "duplicate")

	// ErrHuman marks a code path that correct code never reaches.
	ErrHuman = Register(7, "coding error")

	// ErrEmpty is returned when a required value is missing.
	ErrEmpty = Register(9, "value is empty")

	// ErrState is returned when an object is not in a state allowing the
	// operation.
	ErrState = Register(10, "invalid state")

	// ErrType is returned when a value is of an unexpected type or format.
	ErrType = Register(11, "invalid type")

	// ErrInvalidInput is returned for malformed or out of range input.
	ErrInvalidInput = Register(14, "invalid input")

	// ErrOverflow is returned when a result does not fit in 256 bits.
	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")

	// ErrDatabase is returned when the underlying storage fails.
	ErrDatabase = Register(17, "database")

	// ErrZeroAmount is returned when an amount parameter is zero where a
	// positive value is required.
	ErrZeroAmount = Register(30, "zero amount")

	// ErrInsufficientBalance is returned when a debit exceeds the settled
	// balance of an account.
	ErrInsufficientBalance = Register(31, "insufficient balance")

	// ErrRateIncreaseRejected is returned when a new depositor rate is not
	// strictly lower than the current one.
	ErrRateIncreaseRejected = Register(32, "rate increase rejected")

	// ErrReleaseFailed is returned when the custody could not hand out the
	// base asset.
	ErrReleaseFailed = Register(33, "asset release failed")

	// ErrUnsupportedDomain is returned when a relocation targets, or
	// arrives from, a domain that is not configured.
	ErrUnsupportedDomain = Register(34, "unsupported domain")

	// ErrReceiptConsumed is returned when a withdrawal receipt is released
	// a second time.
	ErrReceiptConsumed = Register(35, "receipt already consumed")

	// ErrPanic wraps a recovered panic. Its message may expose internals
	// and is redacted outside of debug mode.
	ErrPanic = Register(111222, "panic")
)

// registry maps every registered code to its error. Code 1 is reserved for
// errors without a code.
var registry = map[uint32]*Error{
	internalCode: nil,
}

// Register declares a root error with a unique code. It panics if the
// code is taken, so call it only from package level variable declarations.
func Register(code uint32, description string) *Error {
	if prev, ok := registry[code]; ok {
		panic(fmt.Sprintf("error code %d is already used by %q", code, prev.Error()))
	}
	e := &Error{code: code, desc: description}
	registry[code] = e
	return e
}

// Error is a root error. Errors created at runtime wrap one of them, which
// gives each a stable code and a kind to test against.
type Error struct {
	code uint32
	desc string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.desc
}

// Code returns the registered code.
func (e *Error) Code() uint32 {
	return e.code
}

// New is a shorthand for Wrap(e, description).
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is a shorthand for Wrapf(e, format, args...).
func (e *Error) Newf(format string, args ...interface{}) error {
	return Wrap(e, fmt.Sprintf(format, args...))
}

// Is returns true if err is of this kind. Wrapping layers are unwound and
// a multi error matches if any of its members does. A nil kind only
// matches a nil error.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for err != nil {
		if err == error(e) {
			return true
		}
		if u, ok := err.(unpacker); ok {
			for _, member := range u.Unpack() {
				if e.Is(member) {
					return true
				}
			}
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}

// Wrap adds description to err. The first wrap of an error records the
// stack trace. Wrapping nil returns nil.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{parent: err, msg: description}
}

// Wrapf is Wrap with a formatted description.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.parent.Error()
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Recover turns a panic into an ErrPanic assigned to err. It must be
// called with defer.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

type causer interface {
	Cause() error
}

// isNilErr also catches typed nil pointers stored in an error interface.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
