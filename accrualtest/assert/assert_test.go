package assert

import (
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual/errors"
)

// recorder counts the failures of an assertion instead of stopping the
// test, so a failing assertion can be checked too.
type recorder struct {
	testing.TB
	failures []string
}

func (r *recorder) Fatal(args ...interface{}) {
	r.failures = append(r.failures, fmt.Sprint(args...))
}

func (r *recorder) Fatalf(format string, args ...interface{}) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func (r *recorder) Logf(string, ...interface{}) {}

func TestAssertions(t *testing.T) {
	balanceErr := errors.Field("balance", errors.ErrInsufficientBalance, "debit of 10")
	var nilAmount *uint256.Int

	cases := map[string]struct {
		check    func(Tester)
		wantFail bool
	}{
		"nil": {
			check: func(t Tester) { Nil(t, nil) },
		},
		"typed nil": {
			check: func(t Tester) { Nil(t, nilAmount) },
		},
		"zero value is not nil": {
			check:    func(t Tester) { Nil(t, 0) },
			wantFail: true,
		},
		"equal structs": {
			check: func(t Tester) { Equal(t, []string{"alpha"}, []string{"alpha"}) },
		},
		"different types": {
			check:    func(t Tester) { Equal(t, int32(1), int64(1)) },
			wantFail: true,
		},
		"same amount": {
			check: func(t Tester) { AmountEqual(t, uint256.NewInt(7), uint256.NewInt(7)) },
		},
		"different amounts": {
			check:    func(t Tester) { AmountEqual(t, uint256.NewInt(7), uint256.NewInt(8)) },
			wantFail: true,
		},
		"nil amount is zero": {
			check: func(t Tester) { AmountEqual(t, new(uint256.Int), nil) },
		},
		"nil amount is not one": {
			check:    func(t Tester) { AmountEqual(t, nil, uint256.NewInt(1)) },
			wantFail: true,
		},
		"panic": {
			check: func(t Tester) { Panics(t, func() { panic("boom") }) },
		},
		"no panic": {
			check:    func(t Tester) { Panics(t, func() {}) },
			wantFail: true,
		},
		"same kind": {
			check: func(t Tester) { IsErr(t, errors.ErrEmpty, errors.ErrEmpty) },
		},
		"wrapped kind": {
			check: func(t Tester) { IsErr(t, errors.ErrEmpty, errors.Wrap(errors.ErrEmpty, "holder")) },
		},
		"both nil": {
			check: func(t Tester) { IsErr(t, nil, nil) },
		},
		"error where none expected": {
			check:    func(t Tester) { IsErr(t, nil, errors.ErrEmpty) },
			wantFail: true,
		},
		"field error found": {
			check: func(t Tester) { FieldError(t, balanceErr, "balance", errors.ErrInsufficientBalance) },
		},
		"field error of another kind": {
			check:    func(t Tester) { FieldError(t, balanceErr, "balance", errors.ErrOverflow) },
			wantFail: true,
		},
		"no error for other field": {
			check: func(t Tester) { FieldError(t, balanceErr, "rate", nil) },
		},
		"unexpected field error": {
			check:    func(t Tester) { FieldError(t, balanceErr, "balance", nil) },
			wantFail: true,
		},
		"two errors for one field": {
			check: func(t Tester) {
				err := errors.Append(balanceErr, errors.Field("balance", errors.ErrInsufficientBalance, "again"))
				FieldError(t, err, "balance", errors.ErrInsufficientBalance)
			},
			wantFail: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			r := &recorder{TB: t}
			tc.check(r)
			if failed := len(r.failures) > 0; failed != tc.wantFail {
				t.Fatalf("want failure %v, got %q", tc.wantFail, r.failures)
			}
		})
	}
}
