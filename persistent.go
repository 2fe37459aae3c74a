package accrual

import "encoding/json"

// Persistent is a model stored in binary form. Unmarshal needs a pointer
// receiver.
type Persistent interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Options is the app_state section of a genesis file, one raw JSON
// document per section name.
type Options map[string]json.RawMessage

// Read decodes the section called name into dst. A missing section leaves
// dst untouched.
func (o Options) Read(name string, dst interface{}) error {
	raw, ok := o[name]
	if !ok || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Initializer loads the initial state of a component from genesis.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
