package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	accrual.Persistent
	Validate() error
}

// ModelBucket is a prefixed subspace of the database holding models of a
// single type.
type ModelBucket struct {
	name   string
	prefix []byte
}

// NewModelBucket returns a bucket storing all models under the "<name>:"
// prefix. Name must be 3 to 10 lowercase letters, otherwise this function
// panics.
func NewModelBucket(name string) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return ModelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the bucket name.
func (b ModelBucket) Name() string {
	return b.name
}

// DBKey prefixes key with the bucket name. The result never shares memory
// with the prefix.
func (b ModelBucket) DBKey(key []byte) []byte {
	out := make([]byte, 0, len(b.prefix)+len(key))
	return append(append(out, b.prefix...), key...)
}

// One loads the model stored under key into dest, or returns ErrNotFound.
func (b ModelBucket) One(db accrual.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal %T", dest)
	}
	return nil
}

// Has returns true if an entity with given key exists.
func (b ModelBucket) Has(db accrual.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot read from the database")
	}
	return ok, nil
}

// Put saves given model in the database.
func (b ModelBucket) Put(db accrual.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(err, "cannot marshal %T", m)
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (b ModelBucket) Delete(db accrual.KVStore, key []byte) error {
	ok, err := b.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "key %X", key)
	}
	return db.Delete(b.DBKey(key))
}

// Iterate calls fn for every entity of the bucket, in ascending key order.
// The key passed to fn is stripped of the bucket prefix. Iteration stops on
// the first error, which is returned.
//
// Iterating is linear in the size of the bucket. Use it for views that are
// allowed to be expensive.
func (b ModelBucket) Iterate(db accrual.ReadOnlyKVStore, fn func(key, value []byte) error) error {
	it, err := db.Iterator(b.prefix, prefixEnd(b.prefix))
	if err != nil {
		return errors.Wrap(err, "cannot iterate")
	}
	defer it.Close()

	for it.Valid() {
		if err := fn(it.Key()[len(b.prefix):], it.Value()); err != nil {
			return err
		}
		if err := it.Next(); err != nil {
			return errors.Wrap(err, "cannot iterate")
		}
	}
	return nil
}

// prefixEnd returns the first key that does not start with given prefix.
// Bucket prefixes always end with ':' so there is no overflow.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	end[len(end)-1]++
	return end
}
