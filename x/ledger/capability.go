package ledger

import (
	"strings"

	"github.com/iov-one/accrual/errors"
)

// Permission is a single right to mutate the ledger.
type Permission uint8

const (
	// PermSettle allows to realize accrued growth of an account.
	PermSettle Permission = 1 << iota
	// PermCredit allows to add value to an account.
	PermCredit
	// PermDebit allows to remove value from an account.
	PermDebit
	// PermTransfer allows to move value between two accounts.
	PermTransfer
)

var permNames = []struct {
	perm Permission
	name string
}{
	{PermSettle, "settle"},
	{PermCredit, "credit"},
	{PermDebit, "debit"},
	{PermTransfer, "transfer"},
}

func (p Permission) String() string {
	var names []string
	for _, pn := range permNames {
		if p&pn.perm != 0 {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Capability is a token granting a set of permissions. It is minted by the
// component orchestrating calls and handed to the collaborators that are
// allowed to mutate the ledger. The zero value grants nothing.
type Capability struct {
	holder string
	perms  Permission
}

// NewCapability returns a token named after its holder, granting all given
// permissions.
func NewCapability(holder string, perms ...Permission) Capability {
	c := Capability{holder: holder}
	for _, p := range perms {
		c.perms |= p
	}
	return c
}

// Holder returns the name of the component owning this capability.
func (c Capability) Holder() string {
	return c.holder
}

// Allows returns true if this capability grants all given permissions.
func (c Capability) Allows(p Permission) bool {
	return p != 0 && c.perms&p == p
}

func (c Capability) require(p Permission) error {
	if !c.Allows(p) {
		return errors.Wrapf(errors.ErrUnauthorized, "%q is not allowed to %s", c.holder, p)
	}
	return nil
}
