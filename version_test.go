package accrual_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iov-one/accrual"
)

func TestVersion(t *testing.T) {
	defer func(commit string) { accrual.GitCommit = commit }(accrual.GitCommit)

	cases := map[string]struct {
		commit string
		want   string
	}{
		"untagged build": {commit: "", want: "v0.1.0-dev"},
		"with commit":    {commit: "4c204d6", want: "v0.1.0-dev 4c204d6"},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			accrual.GitCommit = tc.commit
			assert.Equal(t, tc.want, accrual.Version())
		})
	}
}
