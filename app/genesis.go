package app

import (
	"encoding/json"
	"io/ioutil"
	"regexp"

	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
)

// Genesis file format. AppState holds the configuration of every
// extension, keyed the way accrual.Options are read.
type Genesis struct {
	DomainID string          `json:"domain_id"`
	AppState accrual.Options `json:"app_state"`
}

var isDomainID = regexp.MustCompile(`^[a-z0-9_\-]{2,20}$`).MatchString

// IsValidDomainID returns true if given string can be used as a domain
// identifier.
func IsValidDomainID(id string) bool {
	return isDomainID(id)
}

// Validate checks the genesis header. Extension configurations are
// validated by the extensions themselves.
func (g *Genesis) Validate() error {
	if !IsValidDomainID(g.DomainID) {
		return errors.Field("DomainID", errors.ErrInvalidInput, "invalid domain id %q", g.DomainID)
	}
	return nil
}

// LoadGenesis reads the genesis file at given path.
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "read genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unmarshal genesis file: %s", err)
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// SaveGenesis writes given genesis as indented JSON.
func SaveGenesis(filePath string, gen *Genesis) error {
	if err := gen.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "marshal genesis: %s", err)
	}
	if err := ioutil.WriteFile(filePath, raw, 0600); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "write genesis file: %s", err)
	}
	return nil
}

// ChainInitializers lets you initialize many extensions with one function.
func ChainInitializers(inits ...accrual.Initializer) accrual.Initializer {
	return chainInitializer(inits)
}

type chainInitializer []accrual.Initializer

// FromGenesis passes opts to all initializers in the list, aborting at the
// first error.
func (c chainInitializer) FromGenesis(opts accrual.Options, db accrual.KVStore) error {
	for _, i := range c {
		if err := i.FromGenesis(opts, db); err != nil {
			return err
		}
	}
	return nil
}

const domainIDKey = "_i:domain_id"

// loadDomainID returns the stored domain id, empty if the domain was never
// initialized.
func loadDomainID(db accrual.ReadOnlyKVStore) (string, error) {
	v, err := db.Get([]byte(domainIDKey))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// saveDomainID stores the domain id. A domain is initialized only once.
func saveDomainID(db accrual.KVStore, id string) error {
	if !IsValidDomainID(id) {
		return errors.Wrapf(errors.ErrInvalidInput, "domain id %q", id)
	}
	k := []byte(domainIDKey)
	switch ok, err := db.Has(k); {
	case err != nil:
		return err
	case ok:
		return errors.Wrap(errors.ErrState, "domain already initialized")
	}
	return db.Set(k, []byte(id))
}
