// Package assert holds the test assertions shared by the accrual packages.
// Every helper stops the test on failure.
package assert

import (
	"reflect"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual/errors"
)

// Tester is the part of testing.TB the assertions need.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// Nil fails unless value is nil or a typed nil. Errors are printed with
// their stack trace.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// Equal fails unless want and got are deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// AmountEqual compares two fixed point amounts. Nil counts as zero.
func AmountEqual(t Tester, want, got *uint256.Int) {
	t.Helper()
	if orZero(want).Eq(orZero(got)) {
		return
	}
	t.Fatalf("amounts not equal\nwant %s\n got %s", orZero(want).ToBig(), orZero(got).ToBig())
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// Panics fails if fn returns normally.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails unless got is of the kind of want. Two nils match.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if kind, ok := want.(interface{ Is(error) bool }); ok && kind.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}

// FieldError checks the errors err reports for field. A nil want asserts
// there are none, otherwise exactly one error of the kind want must be
// reported.
func FieldError(t Tester, err error, field string, want *errors.Error) {
	t.Helper()
	errs := errors.FieldErrors(err, field)
	if want == nil {
		if len(errs) == 0 {
			return
		}
		logAll(t, errs)
		t.Fatalf("want no %q errors, got %d", field, len(errs))
		return
	}
	if len(errs) != 1 {
		logAll(t, errs)
		t.Fatalf("want one %q error, got %d", field, len(errs))
		return
	}
	if !want.Is(errs[0]) {
		t.Fatalf("want %q error for %q, got %q", want, field, errs[0])
	}
}

func logAll(t Tester, errs []error) {
	t.Helper()
	for i, e := range errs {
		t.Logf("\t%d: %s", i+1, e)
	}
}
