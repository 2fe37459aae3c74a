package errors

import (
	"fmt"
	"strings"
)

// unpacker is a container of many errors.
type unpacker interface {
	Unpack() []error
}

// Append combines errs into one error, flattening nested containers and
// skipping nils. It returns nil if nothing is left.
func Append(errs ...error) error {
	var all multiErr
	for _, err := range errs {
		switch e := err.(type) {
		case unpacker:
			all = append(all, e.Unpack()...)
		default:
			if !isNilErr(err) {
				all = append(all, err)
			}
		}
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// multiErr keeps its members in the order they were appended.
type multiErr []error

var (
	_ unpacker = multiErr(nil)
	_ coder    = multiErr(nil)
)

func (m multiErr) Unpack() []error {
	return m
}

func (m multiErr) Error() string {
	if len(m) == 1 {
		return m[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:", len(m))
	for _, err := range m {
		fmt.Fprintf(&b, "\n\t* %s", err)
	}
	b.WriteString("\n")
	return b.String()
}

// Code is the code of the first member.
func (m multiErr) Code() uint32 {
	if len(m) == 0 {
		return SuccessCode
	}
	return Code(m[0])
}
