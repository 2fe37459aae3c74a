package vault

import (
	"fmt"

	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
)

const pkgName = "vault"

// Configuration is the genesis configuration of the vault custody.
type Configuration struct {
	// Rejected lists addresses the custody refuses to pay out to.
	Rejected []accrual.Address `json:"rejected"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	e := orm.NewEncoder().Uint64(uint64(len(c.Rejected)))
	for _, a := range c.Rejected {
		e.Bytes(a)
	}
	return e.Marshal()
}

func (c *Configuration) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	n := d.Uint64()
	if n > uint64(len(raw)) {
		return errors.Wrapf(errors.ErrInvalidModel, "%d rejected addresses", n)
	}
	c.Rejected = nil
	for i := uint64(0); i < n; i++ {
		c.Rejected = append(c.Rejected, accrual.Address(d.Bytes()))
	}
	return d.Err()
}

func (c *Configuration) Validate() error {
	var errs error
	for i, a := range c.Rejected {
		errs = errors.AppendField(errs, fmt.Sprintf("Rejected.%d", i), a.Validate())
	}
	return errs
}

// rejects returns true if given address is configured as rejected.
func (c *Configuration) rejects(a accrual.Address) bool {
	for _, r := range c.Rejected {
		if r.Equals(a) {
			return true
		}
	}
	return false
}
