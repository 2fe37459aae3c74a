package rate

import (
	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/gconf"
	"github.com/iov-one/accrual/orm"
)

var stateKey = []byte("current")

// State is the persisted governor singleton.
type State struct {
	CurrentRate *uint256.Int
	// Changes counts successful rate updates since genesis.
	Changes uint64
}

var _ orm.Model = (*State)(nil)

func (s *State) Marshal() ([]byte, error) {
	return orm.NewEncoder().Int(s.CurrentRate).Uint64(s.Changes).Marshal()
}

func (s *State) Unmarshal(raw []byte) error {
	d := orm.NewDecoder(raw)
	s.CurrentRate = d.Int()
	s.Changes = d.Uint64()
	return d.Err()
}

func (s *State) Validate() error {
	if s.CurrentRate == nil {
		return errors.Field("CurrentRate", errors.ErrEmpty, "required")
	}
	return nil
}

// Governor holds the rate offered to new deposits. It is owned by the
// domain orchestrating calls. The rate itself lives in the domain store.
type Governor struct {
	bucket orm.ModelBucket
}

var _ accrual.Initializer = (*Governor)(nil)

// NewGovernor returns a governor keeping its state in the "rate" bucket.
func NewGovernor() *Governor {
	return &Governor{bucket: orm.NewModelBucket(pkgName)}
}

// FromGenesis loads the configuration and stores the initial rate.
func (g *Governor) FromGenesis(opts accrual.Options, db accrual.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(db, opts, pkgName, &conf); err != nil {
		return errors.Wrap(err, "init config")
	}
	initial, err := conf.Rate()
	if err != nil {
		return err
	}
	return g.bucket.Put(db, stateKey, &State{CurrentRate: initial})
}

func (g *Governor) state(db accrual.ReadOnlyKVStore) (*State, error) {
	var s State
	if err := g.bucket.One(db, stateKey, &s); err != nil {
		if errors.ErrNotFound.Is(err) {
			return nil, errors.Wrap(errors.ErrState, "governor not initialized")
		}
		return nil, err
	}
	return &s, nil
}

// CurrentRate returns the rate assigned to new deposits.
func (g *Governor) CurrentRate(db accrual.ReadOnlyKVStore) (*uint256.Int, error) {
	s, err := g.state(db)
	if err != nil {
		return nil, err
	}
	return s.CurrentRate, nil
}

// SetRate lowers the current rate. Any rate that is not strictly lower
// than the current one is rejected and the current rate stays unchanged.
func (g *Governor) SetRate(db accrual.KVStore, newRate *uint256.Int) error {
	if newRate == nil {
		return errors.Wrap(errors.ErrEmpty, "rate")
	}
	s, err := g.state(db)
	if err != nil {
		return err
	}
	if !newRate.Lt(s.CurrentRate) {
		return errors.Wrapf(errors.ErrRateIncreaseRejected, "current rate %s, proposed %s", s.CurrentRate.ToBig(), newRate.ToBig())
	}
	s.CurrentRate = new(uint256.Int).Set(newRate)
	s.Changes++
	return g.bucket.Put(db, stateKey, s)
}

// Changes returns how many times the rate was lowered since genesis.
func (g *Governor) Changes(db accrual.ReadOnlyKVStore) (uint64, error) {
	s, err := g.state(db)
	if err != nil {
		return 0, err
	}
	return s.Changes, nil
}

// Authorize returns ErrUnauthorized unless caller is the configured admin.
func (g *Governor) Authorize(db accrual.ReadOnlyKVStore, caller accrual.Address) error {
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if !conf.Admin.Equals(caller) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the rate admin", caller)
	}
	return nil
}
