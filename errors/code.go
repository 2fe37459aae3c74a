package errors

import "fmt"

// SuccessCode is the code of a nil error.
const SuccessCode = 0

// Errors without a registered root share the internal code. Their message
// is hidden unless debugging.
const (
	internalCode uint32 = 1
	internalLog         = "internal error"
)

type coder interface {
	Code() uint32
}

// Code returns the code of the registered error err wraps, or the internal
// code when there is none.
func Code(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return internalCode
}

// Info returns the code and a message fit for the user. Internal errors
// are reported as "internal error" unless debug is set, in which case every
// message carries the stack trace.
func Info(err error, debug bool) (uint32, string) {
	code := Code(err)
	switch {
	case code == SuccessCode:
		return code, ""
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalCode, ErrPanic.Is(err):
		return code, internalLog
	default:
		return code, err.Error()
	}
}
