package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches a model attribute name to err. It returns nil for a nil
// err, so validation code can call it unconditionally.
//
// Name attributes the Go way (Principal, LastSettled). Nested attributes
// are joined with a dot (Account.Rate) and slice elements use their index
// (Peers.1, Rejected.0).
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	// The innermost wrap records the stack, once.
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &attrError{cause: err, name: fieldName, msg: description}
}

// AppendField adds err, attributed to fieldName, to errs. Both arguments
// may be nil.
func AppendField(errs error, fieldName string, err error) error {
	return Append(errs, Field(fieldName, err, ""))
}

// attrError is an error bound to a model attribute.
type attrError struct {
	cause error
	name  string
	msg   string
}

func (e *attrError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("field %q: %s: %s", e.name, e.msg, e.cause)
	}
	return fmt.Sprintf("field %q: %s", e.name, e.cause)
}

func (e *attrError) Cause() error {
	return e.cause
}

func (e *attrError) Field() string {
	return e.name
}

type fielder interface {
	Field() string
}

// FieldErrors walks the error tree of err and returns every error bound to
// fieldName. A match is not searched any deeper, so of two nested errors
// bound to the same name only the outer one is returned.
func FieldErrors(err error, fieldName string) []error {
	var found []error
	collectField(err, fieldName, &found)
	return found
}

func collectField(err error, fieldName string, found *[]error) {
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			*found = append(*found, err)
			return
		}
		// Members of a multi error are its whole subtree.
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				collectField(e, fieldName, found)
			}
			return
		}
		c, ok := err.(causer)
		if !ok {
			return
		}
		err = c.Cause()
	}
}
