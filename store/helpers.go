package store

// SliceIterator iterates over models already loaded in memory. The slice
// must be sorted by key.
type SliceIterator struct {
	models []Model
	pos    int
}

var _ Iterator = (*SliceIterator)(nil)

func NewSliceIterator(models []Model) *SliceIterator {
	return &SliceIterator{models: models}
}

func (s *SliceIterator) Valid() bool {
	return s.pos < len(s.models)
}

func (s *SliceIterator) Next() error {
	s.current()
	s.pos++
	return nil
}

func (s *SliceIterator) Key() []byte {
	return s.current().Key
}

func (s *SliceIterator) Value() []byte {
	return s.current().Value
}

func (s *SliceIterator) Close() {
	s.models = nil
}

func (s *SliceIterator) current() Model {
	if !s.Valid() {
		panic("iterator is not valid")
	}
	return s.models[s.pos]
}

// EmptyKVStore holds nothing and ignores all writes. It is the bottom
// layer of a MemStore.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) ([]byte, error)                { return nil, nil }
func (EmptyKVStore) Has(key []byte) (bool, error)                  { return false, nil }
func (EmptyKVStore) Set(key, value []byte) error                   { return nil }
func (EmptyKVStore) Delete(key []byte) error                       { return nil }
func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) { return NewSliceIterator(nil), nil }
func (e EmptyKVStore) NewBatch() Batch                             { return NewNonAtomicBatch(e) }

// Op is a single recorded write, a set or a delete.
type Op struct {
	key     []byte
	value   []byte
	deleted bool
}

// SetOp records that key is set to value.
func SetOp(key, value []byte) Op {
	return Op{key: key, value: value}
}

// DelOp records that key is deleted.
func DelOp(key []byte) Op {
	return Op{key: key, deleted: true}
}

// Apply replays the operation on out.
func (o Op) Apply(out SetDeleter) error {
	if o.deleted {
		return out.Delete(o.key)
	}
	return out.Set(o.key, o.value)
}

// discarder is a batch that can drop its recorded operations.
type discarder interface {
	discard()
}

// NonAtomicBatch records operations and replays them one by one on Write.
// A failure in the middle of Write leaves the earlier operations applied,
// so only use it over in-memory stores.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// Write replays all recorded operations and forgets them.
func (b *NonAtomicBatch) Write() error {
	for _, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

func (b *NonAtomicBatch) discard() {
	b.ops = nil
}
