package store

import (
	"bytes"

	"github.com/google/btree"
)

// pendingRange returns the pending writes with start <= key < end in key
// order, deletions included. A nil bound is open.
func pendingRange(bt *btree.BTree, start, end []byte) []*entry {
	var res []*entry
	visit := func(item btree.Item) bool {
		res = append(res, item.(*entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(visit)
	case start == nil:
		bt.AscendLessThan(&entry{key: end}, visit)
	case end == nil:
		bt.AscendGreaterOrEqual(&entry{key: start}, visit)
	default:
		bt.AscendRange(&entry{key: start}, &entry{key: end}, visit)
	}
	return res
}

// head tells which side holds the lowest current key.
type head int

const (
	headNone head = iota
	headPending
	headParent
	// headBoth means both sides are at the same key. The pending write
	// shadows the parent value.
	headBoth
)

// mergeIterator walks the pending writes of a cache together with the
// parent iterator, hiding deleted keys. The pending side is a slice
// snapshot taken when the iterator is created.
type mergeIterator struct {
	pending []*entry
	pos     int
	parent  Iterator
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(pending []*entry, parent Iterator) (*mergeIterator, error) {
	it := &mergeIterator{pending: pending, parent: parent}
	if err := it.skipDeleted(); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *mergeIterator) Valid() bool {
	return it.head() != headNone
}

// Next advances past the current key. It panics if the iterator is not
// valid.
func (it *mergeIterator) Next() error {
	switch it.head() {
	case headPending:
		it.pos++
	case headParent:
		if err := it.parent.Next(); err != nil {
			return err
		}
	case headBoth:
		it.pos++
		if err := it.parent.Next(); err != nil {
			return err
		}
	default:
		panic("iterator is not valid")
	}
	return it.skipDeleted()
}

func (it *mergeIterator) Key() []byte {
	switch it.head() {
	case headPending, headBoth:
		return it.pending[it.pos].key
	case headParent:
		return it.parent.Key()
	default:
		panic("iterator is not valid")
	}
}

func (it *mergeIterator) Value() []byte {
	switch it.head() {
	case headPending, headBoth:
		return it.pending[it.pos].value
	case headParent:
		return it.parent.Value()
	default:
		panic("iterator is not valid")
	}
}

func (it *mergeIterator) Close() {
	if it.parent != nil {
		it.parent.Close()
	}
	it.pending = nil
}

// skipDeleted moves over pending deletions at the head, together with the
// parent values they hide.
func (it *mergeIterator) skipDeleted() error {
	for {
		h := it.head()
		if h != headPending && h != headBoth {
			return nil
		}
		if !it.pending[it.pos].deleted {
			return nil
		}
		it.pos++
		if h == headBoth {
			if err := it.parent.Next(); err != nil {
				return err
			}
		}
	}
}

func (it *mergeIterator) head() head {
	ownOk := it.pos < len(it.pending)
	parentOk := it.parent != nil && it.parent.Valid()
	switch {
	case !ownOk && !parentOk:
		return headNone
	case !parentOk:
		return headPending
	case !ownOk:
		return headParent
	}
	switch cmp := bytes.Compare(it.pending[it.pos].key, it.parent.Key()); {
	case cmp < 0:
		return headPending
	case cmp > 0:
		return headParent
	default:
		return headBoth
	}
}
