package accrual

// ReadOnlyKVStore reads raw keys. Nil keys are not allowed.
type ReadOnlyKVStore interface {
	// Get returns nil for a missing key.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Iterator walks start <= key < end in ascending order. Nil bounds are
	// open. The range must not be written to while the iterator is open.
	Iterator(start, end []byte) (Iterator, error)
}

// SetDeleter is the write half shared by stores and batches.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the storage every ledger component persists into.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	NewBatch() Batch
}

// Batch collects writes and applies them on Write.
type Batch interface {
	SetDeleter
	Write() error
}

// Iterator is a cursor over a key range:
//
//	it, err := db.Iterator(start, end)
//	...
//	defer it.Close()
//	for ; it.Valid(); err = it.Next() {
//		key, value := it.Key(), it.Value()
//	}
//
// Next, Key and Value panic once Valid returned false. Returned slices must
// not be modified.
type Iterator interface {
	Valid() bool
	Next() error
	Key() []byte
	Value() []byte
	Close()
}

// CacheableKVStore can open a transaction over itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap is an open transaction. Reads observe its own writes. Write
// hands them to the parent store and Discard drops them. Each operation of
// a domain runs in one, so a failure leaves no partial state behind.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// Model is a stored key value pair.
type Model struct {
	Key   []byte
	Value []byte
}

func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}
