package accrualtest

import (
	"testing"

	"github.com/iov-one/accrual/store"
)

// LevelDBStore opens a LevelDB in a temporary directory, the same engine
// a node persists to. It is closed when the test ends.
func LevelDBStore(t testing.TB, dir string) *store.LevelDB {
	t.Helper()
	db, err := store.OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("open leveldb in %s: %+v", dir, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
