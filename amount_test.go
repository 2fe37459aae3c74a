package accrual

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual/errors"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    *uint256.Int
		wantErr *errors.Error
	}{
		"whole units": {
			raw:  "1000",
			want: Units(1000),
		},
		"fraction": {
			raw:  "0.5",
			want: NewAmount(5e17),
		},
		"smallest unit": {
			raw:  "0.000000000000000001",
			want: NewAmount(1),
		},
		"sentinel": {
			raw:  "max",
			want: MaxAmount,
		},
		"too precise": {
			raw:     "0.0000000000000000001",
			wantErr: errors.ErrInvalidInput,
		},
		"negative": {
			raw:     "-1",
			wantErr: errors.ErrInvalidInput,
		},
		"garbage": {
			raw:     "ten",
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseAmount(tc.raw)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil && !got.Eq(tc.want) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]struct {
		v    *uint256.Int
		want string
	}{
		"zero":     {v: NewAmount(0), want: "0"},
		"nil":      {v: nil, want: "0"},
		"units":    {v: Units(7), want: "7"},
		"fraction": {v: new(uint256.Int).Add(Units(1000), NewAmount(18e16)), want: "1000.18"},
		"sentinel": {v: MaxAmount, want: "max"},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := FormatAmount(tc.v); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParseRaw(t *testing.T) {
	got, err := ParseRaw("50000000000")
	if err != nil {
		t.Fatalf("cannot parse: %s", err)
	}
	if !got.Eq(NewAmount(5e10)) {
		t.Fatalf("unexpected value: %s", got)
	}
	if _, err := ParseRaw("-5"); !errors.ErrInvalidInput.Is(err) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseRaw("115792089237316195423570985008687907853269984665640564039457584007913129639936"); !errors.ErrOverflow.Is(err) {
		t.Fatalf("unexpected error: %v", err)
	}
}
