package rate

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
)

const pkgName = "rate"

// Configuration is the genesis configuration of the governor.
type Configuration struct {
	// InitialRate is the raw per second rate numerator, as a base 10
	// integer over accrual.Precision.
	InitialRate string `json:"initial_rate"`
	// Admin is the only address allowed to lower the rate.
	Admin accrual.Address `json:"admin"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// Rate returns the parsed initial rate.
func (c *Configuration) Rate() (*uint256.Int, error) {
	return accrual.ParseRaw(c.InitialRate)
}

func (c *Configuration) Marshal() ([]byte, error) {
	return orm.NewEncoder().Text(c.InitialRate).Bytes(c.Admin).Marshal()
}

func (c *Configuration) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	c.InitialRate = d.Text()
	c.Admin = d.Bytes()
	return d.Err()
}

func (c *Configuration) Validate() error {
	var errs error
	if _, err := c.Rate(); err != nil {
		errs = errors.AppendField(errs, "InitialRate", err)
	}
	errs = errors.AppendField(errs, "Admin", c.Admin.Validate())
	return errs
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, pkgName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
