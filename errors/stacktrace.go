package errors

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

const pkgPath = "github.com/iov-one/accrual/errors."

// creators are the frames that build an error rather than fail. They are
// cut from the top of a recorded stack.
var creators = []string{
	pkgPath + "Wrap",
	pkgPath + "Field",
	pkgPath + "(*Error).New",
	"runtime.",
	"/_test/",
}

func frameFunc(f errors.Frame) *runtime.Func {
	return runtime.FuncForPC(uintptr(f) - 1)
}

func frameHasPrefix(f errors.Frame, prefixes ...string) bool {
	fn := frameFunc(f)
	if fn == nil {
		return false
	}
	name := fn.Name()
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// trimInternal drops the error constructors from the top of st and the
// runtime and testing frames from its bottom.
func trimInternal(st errors.StackTrace) errors.StackTrace {
	for len(st) > 0 && frameHasPrefix(st[0], creators...) {
		st = st[1:]
	}
	for len(st) > 1 && frameHasPrefix(st[len(st)-1], "runtime.", "testing.") {
		st = st[:len(st)-1]
	}
	return st
}

// writeLocation writes " [path:line]" with the path relative to the
// repository host.
func writeLocation(w io.Writer, f errors.Frame) {
	file, line := "unknown", 0
	if fn := frameFunc(f); fn != nil {
		file, line = fn.FileLine(uintptr(f) - 1)
	}
	if i := strings.Index(file, "github.com/"); i >= 0 {
		file = file[i+len("github.com/"):]
	}
	fmt.Fprintf(w, " [%s:%d]", file, line)
}

// Format prints the message for %s. %v adds the creation point and %+v
// the whole trace.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	if verb != 'v' {
		io.WriteString(s, e.Error())
		return
	}
	stack := trimInternal(stackTrace(e))
	if s.Flag('+') {
		fmt.Fprintf(s, "%+v\n%s", stack, e.Error())
		return
	}
	io.WriteString(s, e.Error())
	if len(stack) > 0 {
		writeLocation(s, stack[0])
	}
}

// stackTrace returns the outermost trace recorded in the chain of err.
func stackTrace(err error) errors.StackTrace {
	type tracer interface {
		StackTrace() errors.StackTrace
	}
	for err != nil {
		if t, ok := err.(tracer); ok {
			return t.StackTrace()
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}
