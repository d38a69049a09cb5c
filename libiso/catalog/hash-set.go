package catalog

import (
	"bytes"
	"hash/maphash"
	"sync"

	"github.com/2x3systems/isofilter/isofilter"
)

// hashSet retains keys in pooled slabs, indexed by an open-addressed maphash table.
type hashSet struct {
	mu        sync.Mutex
	hashMap   map[uint64][]byte
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	poolSz    int
}

func newHashSet(poolSz int) *hashSet {
	if poolSz <= 0 {
		poolSz = isofilter.DefaultPoolSz
	}
	return &hashSet{
		hashMap: make(map[uint64][]byte),
		poolSz:  poolSz,
	}
}

// probe returns the slot at which key resides or would be placed, and if key is already present.
func (set *hashSet) probe(key []byte) (uint64, bool) {
	set.hasher.Reset()
	set.hasher.Write(key)
	hash := set.hasher.Sum64()

	existing, found := set.hashMap[hash]
	for found {
		if bytes.Equal(existing, key) {
			return hash, true
		}
		hash++
		existing, found = set.hashMap[hash]
	}
	return hash, false
}

func (set *hashSet) Has(key []byte) (bool, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.hashMap == nil {
		return false, isofilter.ErrCatalogClosed
	}
	_, found := set.probe(key)
	return found, nil
}

func (set *hashSet) TryAdd(key []byte) (bool, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.hashMap == nil {
		return false, isofilter.ErrCatalogClosed
	}
	hash, found := set.probe(key)
	if found {
		return false, nil
	}

	// Place a copy of key in our backing pool, starting a new pool if we run out of space
	pos := set.bufPoolSz
	itemLen := len(key)
	if pos+itemLen > cap(set.bufPool) {
		set.bufPool = make([]byte, max(set.poolSz, itemLen))
		set.bufPoolSz = 0
		pos = 0
	}

	set.hashMap[hash] = append(set.bufPool[pos:pos], key...)
	set.bufPoolSz += itemLen
	return true, nil
}

func (set *hashSet) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.hashMap)
}

func (set *hashSet) Close() error {
	set.mu.Lock()
	defer set.mu.Unlock()

	set.bufPool = nil
	set.bufPoolSz = 0
	set.hashMap = nil
	return nil
}
