package bridge

import (
	"fmt"

	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
)

const pkgName = "bridge"

// Configuration is the genesis configuration of the bridge.
type Configuration struct {
	// Domain is the identifier of this domain.
	Domain string `json:"domain"`
	// Peers lists domains value can be relocated to and received from.
	Peers []string `json:"peers"`
	// Dedup enables the replay guard.
	Dedup bool `json:"dedup"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	e := orm.NewEncoder().Text(c.Domain).Bool(c.Dedup).Uint64(uint64(len(c.Peers)))
	for _, p := range c.Peers {
		e.Text(p)
	}
	return e.Marshal()
}

func (c *Configuration) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	c.Domain = d.Text()
	c.Dedup = d.Bool()
	n := d.Uint64()
	if n > uint64(len(raw)) {
		return errors.Wrapf(errors.ErrInvalidModel, "%d peers", n)
	}
	c.Peers = nil
	for i := uint64(0); i < n; i++ {
		c.Peers = append(c.Peers, d.Text())
	}
	return d.Err()
}

func (c *Configuration) Validate() error {
	var errs error
	if c.Domain == "" {
		errs = errors.AppendField(errs, "Domain", errors.ErrEmpty)
	}
	seen := make(map[string]bool, len(c.Peers))
	for i, p := range c.Peers {
		field := fmt.Sprintf("Peers.%d", i)
		switch {
		case p == "":
			errs = errors.AppendField(errs, field, errors.ErrEmpty)
		case p == c.Domain:
			errs = errors.Append(errs, errors.Field(field, errors.ErrInvalidInput, "domain cannot be its own peer"))
		case seen[p]:
			errs = errors.AppendField(errs, field, errors.ErrDuplicate)
		}
		seen[p] = true
	}
	return errs
}

// Supports returns ErrUnsupportedDomain unless given domain is a
// configured peer.
func (c *Configuration) Supports(domain string) error {
	for _, p := range c.Peers {
		if p == domain {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrUnsupportedDomain, "%q is not a peer of %q", domain, c.Domain)
}
