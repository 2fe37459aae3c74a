package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/accrual/errors"
)

// DefaultFreeListSize is the number of btree nodes kept for reuse.
const DefaultFreeListSize = btree.DefaultFreeListSize

// BTreeCacheable gives any KVStore a transaction cache.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap starts a transaction over the wrapped store.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns an empty in-memory store. Nothing is persisted, which
// makes it the store of choice in tests.
func MemStore() CacheableKVStore {
	return NewBTreeCacheWrap(EmptyKVStore{}, memBatch{}, nil)
}

// memBatch drops all writes. The btree of a MemStore is its only storage.
type memBatch struct{}

func (memBatch) Set(key, value []byte) error { return nil }
func (memBatch) Delete(key []byte) error     { return nil }
func (memBatch) Write() error                { return nil }

// BTreeCacheWrap holds the pending writes of a transaction in a btree.
// Reads see the pending writes first and fall back to the parent store.
// Write replays all of them through a single batch of the parent.
type BTreeCacheWrap struct {
	pending *btree.BTree
	free    *btree.FreeList
	parent  ReadOnlyKVStore
	batch   Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a transaction reading from parent and writing
// through batch. Pass the free list of an enclosing cache to share nodes,
// nil allocates a new one.
func NewBTreeCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		pending: btree.NewWithFreeList(2, free),
		free:    free,
		parent:  parent,
		batch:   batch,
	}
}

// CacheWrap nests a transaction. Its writes land in this cache.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch applying its operations to this cache.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write commits the pending writes and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops the pending writes.
func (b BTreeCacheWrap) Discard() {
	for b.pending.DeleteMin() != nil {
	}
	if d, ok := b.batch.(discarder); ok {
		d.discard()
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.pending.ReplaceOrInsert(&entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	b.pending.ReplaceOrInsert(&entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

func (b BTreeCacheWrap) lookup(key []byte) (*entry, error) {
	item := b.pending.Get(&entry{key: key})
	if item == nil {
		return nil, nil
	}
	e, ok := item.(*entry)
	if !ok {
		return nil, errors.Wrapf(errors.ErrDatabase, "unexpected cache item %T", item)
	}
	return e, nil
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	e, err := b.lookup(key)
	switch {
	case err != nil:
		return nil, err
	case e == nil:
		return b.parent.Get(key)
	case e.deleted:
		return nil, nil
	default:
		return e.value, nil
	}
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	e, err := b.lookup(key)
	switch {
	case err != nil:
		return false, err
	case e == nil:
		return b.parent.Has(key)
	default:
		return !e.deleted, nil
	}
}

// Iterator merges the pending writes with the parent content. End is
// exclusive, nil bounds are open.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(pendingRange(b.pending, start, end), parent)
}

// entry is a pending write. A deleted entry hides the parent value.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = (*entry)(nil)

func (e *entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(*entry).key) < 0
}
