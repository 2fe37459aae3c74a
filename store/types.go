package store

import "github.com/iov-one/accrual"

// The storage interfaces live in the root package so that models can use
// them without importing an implementation.
type (
	ReadOnlyKVStore  = accrual.ReadOnlyKVStore
	SetDeleter       = accrual.SetDeleter
	KVStore          = accrual.KVStore
	Batch            = accrual.Batch
	Iterator         = accrual.Iterator
	CacheableKVStore = accrual.CacheableKVStore
	KVCacheWrap      = accrual.KVCacheWrap
	Model            = accrual.Model
)

var Pair = accrual.Pair
