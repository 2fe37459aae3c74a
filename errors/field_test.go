package errors

import (
	"reflect"
	"testing"
)

func TestFieldErrors(t *testing.T) {
	// Errors are built once so that results can be compared by identity.
	var (
		emptyPrincipal = Field("Principal", ErrEmpty, "required")
		overflowRate   = Field("Rate", ErrOverflow, "too wide")
		badPeer        = Field("Peers.1", ErrDuplicate, "peer %q", "beta")
		wrongRate      = Field("Rate", ErrInvalidInput, "")
		account        = Field("Account", Append(
			emptyPrincipal,
			Append(overflowRate, ErrState),
		), "invalid account")
		nestedRate = Field("Rate", overflowRate, "outer")
	)

	cases := map[string]struct {
		err   error
		field string
		want  []error
	}{
		"nil has no fields": {
			err:   nil,
			field: "Rate",
		},
		"plain error has no fields": {
			err:   ErrInsufficientBalance,
			field: "Rate",
		},
		"other field": {
			err:   emptyPrincipal,
			field: "Rate",
		},
		"direct match": {
			err:   overflowRate,
			field: "Rate",
			want:  []error{overflowRate},
		},
		"formatted description": {
			err:   Append(emptyPrincipal, badPeer),
			field: "Peers.1",
			want:  []error{badPeer},
		},
		"all members of a multi error": {
			err:   Append(overflowRate, emptyPrincipal, wrongRate),
			field: "Rate",
			want:  []error{overflowRate, wrongRate},
		},
		"field holding a multi error": {
			err:   account,
			field: "Account",
			want:  []error{account},
		},
		"inside a field holding a multi error": {
			err:   account,
			field: "Rate",
			want:  []error{overflowRate},
		},
		"through wraps": {
			err:   Wrap(Wrapf(account, "load %d", 1), "settle"),
			field: "Principal",
			want:  []error{emptyPrincipal},
		},
		"no match through wraps": {
			err:   Wrap(account, "settle"),
			field: "LastSettled",
		},
		"through other fields": {
			err:   Field("Account", Field("Balance", emptyPrincipal, ""), ""),
			field: "Principal",
			want:  []error{emptyPrincipal},
		},
		"outer of the same name wins": {
			err:   nestedRate,
			field: "Rate",
			want:  []error{nestedRate},
		},
		"wrapped members of a wrapped multi error": {
			err: Wrap(Append(
				Wrap(overflowRate, "a"),
				Wrap(emptyPrincipal, "b"),
				Wrap(wrongRate, "c"),
			), "outer"),
			field: "Rate",
			want:  []error{overflowRate, wrongRate},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldErrors(tc.err, tc.field)
			if !reflect.DeepEqual(tc.want, got) {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFieldMessage(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"without description": {
			err:  Field("Rate", ErrEmpty, ""),
			want: `field "Rate": value is empty`,
		},
		"with description": {
			err:  Field("Peers.0", ErrDuplicate, "peer %q", "alpha"),
			want: `field "Peers.0": peer "alpha": duplicate`,
		},
		"nil is not wrapped": {
			err:  Field("Rate", nil, "ignored"),
			want: "",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got string
			if tc.err != nil {
				got = tc.err.Error()
			}
			if got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}
