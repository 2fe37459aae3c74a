package accrual

import (
	"testing"
	"time"

	"github.com/iov-one/accrual/errors"
)

func TestParseUnixTime(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    UnixTime
		wantErr *errors.Error
	}{
		"epoch": {
			raw:  "0",
			want: 0,
		},
		"seconds": {
			raw:  "1600000000",
			want: 1600000000,
		},
		"timestamp with offset": {
			raw:  "2020-09-13T14:26:40+02:00",
			want: 1600000000,
		},
		"timestamp in utc": {
			raw:  "2020-09-13T12:26:40Z",
			want: 1600000000,
		},
		"negative seconds": {
			raw:     "-1",
			wantErr: errors.ErrInvalidInput,
		},
		"timestamp before epoch": {
			raw:     "1969-12-31T23:59:59Z",
			wantErr: errors.ErrInvalidInput,
		},
		"garbage": {
			raw:     "tomorrow",
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseUnixTime(tc.raw)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestUnixTimeSince(t *testing.T) {
	cases := map[string]struct {
		now, earlier UnixTime
		want         uint64
		wantErr      *errors.Error
	}{
		"same moment": {
			now:     100,
			earlier: 100,
			want:    0,
		},
		"one hour": {
			now:     3700,
			earlier: 100,
			want:    3600,
		},
		"clock went backwards": {
			now:     99,
			earlier: 100,
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := tc.now.Since(tc.earlier)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestUnixTimeRoundTrip(t *testing.T) {
	now := time.Date(2020, 9, 13, 12, 26, 40, 999, time.UTC)
	u := AsUnixTime(now)
	if u != 1600000000 {
		t.Fatalf("want whole seconds, got %d", u)
	}
	if got := u.String(); got != "2020-09-13T12:26:40Z" {
		t.Fatalf("unexpected format %q", got)
	}
	if !u.Time().Equal(now.Truncate(time.Second)) {
		t.Fatalf("want %s, got %s", now.Truncate(time.Second), u.Time())
	}
}
