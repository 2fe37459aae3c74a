package store

import (
	"github.com/iov-one/accrual/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a persistent KVStore backed by goleveldb. This is the store a
// domain keeps its accounts in between process runs.
//
// Writes through a cache-wrap are committed with a single leveldb batch, so
// an operation is persisted entirely or not at all.
type LevelDB struct {
	db *leveldb.DB
}

var _ CacheableKVStore = (*LevelDB)(nil)

// OpenLevelDB opens (creating if needed) the database in given directory.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// MemLevelDB returns a leveldb instance that keeps all files in memory.
// Useful for tests that want the production storage engine.
func MemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open memory storage: %s", err)
	}
	return &LevelDB{db: db}, nil
}

// Close releases the database files.
func (l *LevelDB) Close() error {
	if err := l.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get returns nil iff key doesn't exist.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

// Has checks if a key exists.
func (l *LevelDB) Has(key []byte) (bool, error) {
	ok, err := l.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Set writes a single key directly to disk.
func (l *LevelDB) Set(key, value []byte) error {
	if err := l.db.Put(key, value, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Delete removes a single key directly from disk.
func (l *LevelDB) Delete(key []byte) error {
	if err := l.db.Delete(key, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (l *LevelDB) Iterator(start, end []byte) (Iterator, error) {
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	res := &levelIterator{it: it, valid: it.First()}
	if err := it.Error(); err != nil {
		it.Release()
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}

// NewBatch returns an atomic leveldb batch.
func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch)}
}

// CacheWrap returns a btree cache whose Write commits through one atomic
// leveldb batch.
func (l *LevelDB) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(l, l.NewBatch(), nil)
}

type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

var _ Batch = (*levelBatch)(nil)

func (b *levelBatch) Set(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelBatch) Write() error {
	if err := b.db.Write(b.batch, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	b.batch.Reset()
	return nil
}

func (b *levelBatch) discard() {
	b.batch.Reset()
}

type levelIterator struct {
	it    iterator.Iterator
	valid bool
}

var _ Iterator = (*levelIterator)(nil)

func (i *levelIterator) Valid() bool {
	return i.valid
}

func (i *levelIterator) Next() error {
	if !i.valid {
		panic("advanced past the end")
	}
	i.valid = i.it.Next()
	if err := i.it.Error(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Key returns a copy, leveldb reuses the underlying buffer.
func (i *levelIterator) Key() []byte {
	return append([]byte(nil), i.it.Key()...)
}

// Value returns a copy, leveldb reuses the underlying buffer.
func (i *levelIterator) Value() []byte {
	return append([]byte(nil), i.it.Value()...)
}

func (i *levelIterator) Close() {
	i.it.Release()
}
