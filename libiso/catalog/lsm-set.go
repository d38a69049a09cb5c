package catalog

import (
	"sync"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Catalog database format:

	gCatalogStateKey => catalogState

	kKeyPrefix, CanonicalKey => (empty)
	...

Canonical keys sort after the state key, so a prefix iteration over kKeyPrefix visits every key in order.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const kKeyPrefix = byte(0x01)

// lsmSet retains keys in a badger LSM, either in memory or persisted to a directory.
type lsmSet struct {
	mu         sync.Mutex
	db         *badger.DB
	state      catalogState
	stateDirty bool
}

func openLSMSet(opts isofilter.CacheOpts) (*lsmSet, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	if len(opts.DbPathName) == 0 {
		dbOpts.InMemory = true
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	set := &lsmSet{
		db: db,
	}

	err = set.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		set.state = newCatalogState(opts.KeyStyle)
		set.stateDirty = true
	}

	if err == nil {
		err = set.recount()
	}

	if err == nil {
		if set.state.MajorVers != kMajorVers || set.state.MinorVers != kMinorVers {
			err = errors.Wrapf(isofilter.ErrCatalogVersion, "catalog is v%d.%d", set.state.MajorVers, set.state.MinorVers)
		} else if set.state.KeyStyle != string(opts.KeyStyle) {
			err = errors.Wrapf(isofilter.ErrBadCatalogParam, "catalog holds %q keys, not %q", set.state.KeyStyle, opts.KeyStyle)
		}
	}

	if err != nil {
		set.db.Close()
		return nil, err
	}

	if !dbOpts.InMemory {
		klog.V(1).Infof("opened catalog %q holding %d keys", opts.DbPathName, set.state.NumKeys)
	}
	return set, nil
}

func (set *lsmSet) loadState() error {
	err := set.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return set.state.Unmarshal(val)
			})
		}
		return err
	})
	return err
}

// recount restores NumKeys from the stored keys, since the state record is only flushed on Close().
func (set *lsmSet) recount() error {
	numKeys := uint64(0)
	err := set.db.View(func(txn *badger.Txn) error {
		prefix := [1]byte{kKeyPrefix}
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
			Prefix:         prefix[:],
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			numKeys++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if numKeys != set.state.NumKeys {
		klog.Warningf("catalog state lists %d keys but holds %d; catalog was not closed cleanly", set.state.NumKeys, numKeys)
		set.state.NumKeys = numKeys
		set.stateDirty = true
	}
	return nil
}

func (set *lsmSet) flushState() error {
	if !set.stateDirty {
		return nil
	}
	err := set.db.Update(func(txn *badger.Txn) error {
		stateBuf, err := set.state.Marshal()
		if err != nil {
			return err
		}
		return txn.Set(gCatalogStateKey, stateBuf)
	})
	if err == nil {
		set.stateDirty = false
	}
	return err
}

func formLSMKey(key []byte) []byte {
	lsmKey := make([]byte, 1+len(key))
	lsmKey[0] = kKeyPrefix
	copy(lsmKey[1:], key)
	return lsmKey
}

func (set *lsmSet) Has(key []byte) (bool, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.db == nil {
		return false, isofilter.ErrCatalogClosed
	}

	found := false
	err := set.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(formLSMKey(key))
		if err == nil {
			found = true
		} else if err == badger.ErrKeyNotFound {
			err = nil
		}
		return err
	})
	return found, err
}

func (set *lsmSet) TryAdd(key []byte) (bool, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.db == nil {
		return false, isofilter.ErrCatalogClosed
	}

	txn := set.db.NewTransaction(true)
	defer txn.Discard()

	// badger retains lsmKey until commit, so it is not reused
	lsmKey := formLSMKey(key)
	_, err := txn.Get(lsmKey)
	if err == nil {
		return false, nil // already in the db
	}
	if err != badger.ErrKeyNotFound {
		return false, err
	}

	if err = txn.Set(lsmKey, nil); err == nil {
		err = txn.Commit()
	}
	if err != nil {
		return false, err
	}

	set.state.NumKeys++
	set.stateDirty = true
	return true, nil
}

func (set *lsmSet) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return int(set.state.NumKeys)
}

// VisitSorted calls onKey with each retained key in ascending order until onKey returns false.
//
// Warning: if onKey() retains the given key, then it must make a copy.
func (set *lsmSet) VisitSorted(onKey func(key []byte) bool) error {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.db == nil {
		return isofilter.ErrCatalogClosed
	}

	txn := set.db.NewTransaction(false)
	defer txn.Discard()

	prefix := [1]byte{kKeyPrefix}
	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: false,
		Prefix:         prefix[:],
	})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if !onKey(it.Item().Key()[1:]) {
			break
		}
	}
	return nil
}

func (set *lsmSet) Close() error {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.db == nil {
		return nil
	}
	err := set.flushState()
	if closeErr := set.db.Close(); err == nil {
		err = closeErr
	}
	set.db = nil
	return err
}
