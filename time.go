package accrual

import (
	"strconv"
	"time"

	"github.com/iov-one/accrual/errors"
)

// UnixTime is a moment in seconds since the epoch. Rates accrue per second,
// so the ledger never needs a finer clock.
type UnixTime int64

// Now reads the wall clock.
func Now() UnixTime {
	return AsUnixTime(time.Now())
}

// AsUnixTime truncates t to whole seconds.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// ParseUnixTime accepts seconds since the epoch or an RFC 3339 timestamp.
// Moments before the epoch are rejected.
func ParseUnixTime(s string) (UnixTime, error) {
	var t UnixTime
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t = UnixTime(secs)
	} else if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t = AsUnixTime(parsed)
	} else {
		return 0, errors.Wrapf(errors.ErrInvalidInput, "time %q", s)
	}
	if err := t.Validate(); err != nil {
		return 0, errors.Wrapf(err, "time %q", s)
	}
	return t, nil
}

func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0)
}

func (t UnixTime) IsZero() bool {
	return t == 0
}

// Since returns the seconds elapsed from earlier to t. Time running
// backwards is an error.
func (t UnixTime) Since(earlier UnixTime) (uint64, error) {
	if t < earlier {
		return 0, errors.Wrapf(errors.ErrInvalidInput, "time %d is before %d", t, earlier)
	}
	return uint64(t - earlier), nil
}

func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "before epoch")
	}
	return nil
}

func (t UnixTime) String() string {
	return t.Time().UTC().Format(time.RFC3339)
}
