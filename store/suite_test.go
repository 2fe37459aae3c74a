package store

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite checks the transaction semantics every CacheableKVStore
// must provide. open returns an empty store owned by the test.
func runStoreSuite(t *testing.T, open func(testing.TB) CacheableKVStore) {
	t.Run("write and discard", func(t *testing.T) { checkWriteDiscard(t, open(t)) })
	t.Run("child shadows parent", func(t *testing.T) { checkShadowing(t, open(t)) })
	t.Run("nested caches", func(t *testing.T) { checkNested(t, open(t)) })
	t.Run("ranges", func(t *testing.T) { checkRanges(t, open) })
	t.Run("matches a map", func(t *testing.T) { checkAgainstMap(t, open(t)) })
}

func checkWriteDiscard(t *testing.T, base CacheableKVStore) {
	alice, bob := []byte("acct:alice"), []byte("acct:bob")

	require.NoError(t, base.Set(alice, []byte("100")))
	expectValue(t, base, alice, []byte("100"))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set(bob, []byte("7")))
	expectValue(t, cache, bob, []byte("7"))
	expectValue(t, base, bob, nil)

	cache.Discard()
	expectValue(t, cache, bob, nil)
	require.NoError(t, cache.Write())
	expectValue(t, base, bob, nil)

	cache = base.CacheWrap()
	require.NoError(t, cache.Delete(alice))
	require.NoError(t, cache.Set(bob, []byte("8")))
	expectValue(t, base, alice, []byte("100"))
	require.NoError(t, cache.Write())
	expectValue(t, base, alice, nil)
	expectValue(t, base, bob, []byte("8"))
}

func checkShadowing(t *testing.T, base CacheableKVStore) {
	apply(t, base, SetOp([]byte("a"), []byte("1")), SetOp([]byte("b"), []byte("2")))

	cache := base.CacheWrap()
	apply(t, cache, SetOp([]byte("a"), []byte("10")), DelOp([]byte("b")), SetOp([]byte("c"), []byte("3")))

	want := map[string][]byte{"a": []byte("10"), "b": nil, "c": []byte("3")}
	for k, v := range want {
		expectValue(t, cache, []byte(k), v)
	}
	expectValue(t, base, []byte("a"), []byte("1"))
	expectValue(t, base, []byte("b"), []byte("2"))
	expectValue(t, base, []byte("c"), nil)

	require.NoError(t, cache.Write())
	for k, v := range want {
		expectValue(t, base, []byte(k), v)
	}
}

func checkNested(t *testing.T, base CacheableKVStore) {
	outer := base.CacheWrap()
	require.NoError(t, outer.Set([]byte("k"), []byte("outer")))

	inner := outer.CacheWrap()
	expectValue(t, inner, []byte("k"), []byte("outer"))
	require.NoError(t, inner.Set([]byte("k"), []byte("inner")))
	expectValue(t, outer, []byte("k"), []byte("outer"))

	require.NoError(t, inner.Write())
	expectValue(t, outer, []byte("k"), []byte("inner"))
	expectValue(t, base, []byte("k"), nil)

	require.NoError(t, outer.Write())
	expectValue(t, base, []byte("k"), []byte("inner"))
}

func checkRanges(t *testing.T, open func(testing.TB) CacheableKVStore) {
	cases := map[string]struct {
		parent     []Op
		child      []Op
		start, end string
		want       []string
	}{
		"child only": {
			child: sets("a", "b", "c"),
			want:  []string{"a", "b", "c"},
		},
		"parent only": {
			parent: sets("a", "b", "c"),
			start:  "b",
			want:   []string{"b", "c"},
		},
		"interleaved": {
			parent: sets("a", "c", "e"),
			child:  sets("b", "d"),
			end:    "e",
			want:   []string{"a", "b", "c", "d"},
		},
		"child deletes hide parent keys": {
			parent: sets("a", "b", "c", "d"),
			child:  dels("a", "c", "x"),
			want:   []string{"b", "d"},
		},
		"everything deleted": {
			parent: sets("a", "b"),
			child:  dels("a", "b"),
			want:   nil,
		},
		"bounded range": {
			parent: sets("a", "b", "c", "d"),
			child:  sets("bb", "cc"),
			start:  "b",
			end:    "c",
			want:   []string{"b", "bb"},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base := open(t)
			apply(t, base, tc.parent...)
			cache := base.CacheWrap()
			apply(t, cache, tc.child...)
			assert.Equal(t, tc.want, keysIn(t, cache, bound(tc.start), bound(tc.end)))
		})
	}
}

// checkAgainstMap applies random operations to a cache and to a map, then
// compares random ranges of both.
func checkAgainstMap(t *testing.T, base CacheableKVStore) {
	r := rand.New(rand.NewSource(42))
	ref := make(map[string]string)
	key := func() string { return fmt.Sprintf("k%03d", r.Intn(200)) }

	for i := 0; i < 100; i++ {
		k, v := key(), fmt.Sprint(r.Int())
		require.NoError(t, base.Set([]byte(k), []byte(v)))
		ref[k] = v
	}

	cache := base.CacheWrap()
	for i := 0; i < 150; i++ {
		k := key()
		if r.Intn(3) == 0 {
			require.NoError(t, cache.Delete([]byte(k)))
			delete(ref, k)
			continue
		}
		v := fmt.Sprint(r.Int())
		require.NoError(t, cache.Set([]byte(k), []byte(v)))
		ref[k] = v
	}

	for i := 0; i < 20; i++ {
		start, end := key(), key()
		if start > end {
			start, end = end, start
		}
		var want []string
		for k := range ref {
			if k >= start && k < end {
				want = append(want, k)
			}
		}
		sort.Strings(want)
		require.Equal(t, want, keysIn(t, cache, []byte(start), []byte(end)), "range [%s, %s)", start, end)
	}

	require.NoError(t, cache.Write())
	all := keysIn(t, base, nil, nil)
	require.Len(t, all, len(ref))
	for _, k := range all {
		expectValue(t, base, []byte(k), []byte(ref[k]))
	}
}

func expectValue(t testing.TB, db ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got, "value of %q", key)
	has, err := db.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has, "presence of %q", key)
}

func apply(t testing.TB, db SetDeleter, ops ...Op) {
	t.Helper()
	for _, op := range ops {
		require.NoError(t, op.Apply(db))
	}
}

// keysIn lists the keys of a range, checking the iterator stays ordered.
func keysIn(t testing.TB, db ReadOnlyKVStore, start, end []byte) []string {
	t.Helper()
	it, err := db.Iterator(start, end)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	var prev []byte
	for it.Valid() {
		k := it.Key()
		require.True(t, prev == nil || bytes.Compare(prev, k) < 0, "%q after %q", k, prev)
		keys = append(keys, string(k))
		prev = append([]byte(nil), k...)
		require.NoError(t, it.Next())
	}
	return keys
}

func sets(keys ...string) []Op {
	ops := make([]Op, len(keys))
	for i, k := range keys {
		ops[i] = SetOp([]byte(k), []byte("v"+k))
	}
	return ops
}

func dels(keys ...string) []Op {
	ops := make([]Op, len(keys))
	for i, k := range keys {
		ops[i] = DelOp([]byte(k))
	}
	return ops
}

func bound(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
