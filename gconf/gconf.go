package gconf

import (
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
)

// ReadStore is the part of a store Load needs.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is the part of a store Save needs.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is the settings object of one package. It is validated on
// every save.
type Configuration interface {
	accrual.Persistent
	Validate() error
}

// Section is the genesis section holding the configurations, keyed by
// package name.
const Section = "conf"

func confKey(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save stores conf as the configuration of pkg, replacing any previous one.
func Save(db Store, pkg string, conf Configuration) error {
	if err := conf.Validate(); err != nil {
		return errors.Wrapf(err, "%s configuration", pkg)
	}
	raw, err := conf.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal %s configuration", pkg)
	}
	return db.Set(confKey(pkg), raw)
}

// Load reads the configuration of pkg into dst. ErrNotFound means it was
// never saved.
func Load(db ReadStore, pkg string, dst accrual.Persistent) error {
	raw, err := db.Get(confKey(pkg))
	switch {
	case err != nil:
		return errors.Wrapf(err, "load %s configuration", pkg)
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "%s configuration", pkg)
	}
	if err := dst.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal %s configuration", pkg)
	}
	return nil
}

// InitConfig decodes the genesis entry of pkg from the conf section into
// conf and saves it.
func InitConfig(db Store, opts accrual.Options, pkg string, conf Configuration) error {
	var section accrual.Options
	if err := opts.Read(Section, &section); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "genesis %s section: %s", Section, err)
	}
	if _, ok := section[pkg]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "genesis has no %s configuration", pkg)
	}
	if err := section.Read(pkg, conf); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "genesis %s configuration: %s", pkg, err)
	}
	return Save(db, pkg, conf)
}
