package catalog

import (
	"sync"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// treeSet retains keys in a red-black tree, so they can be visited in sorted order.
type treeSet struct {
	mu   sync.Mutex
	tree *redblacktree.Tree
}

func newTreeSet() *treeSet {
	return &treeSet{
		tree: redblacktree.NewWith(utils.StringComparator),
	}
}

func (set *treeSet) Has(key []byte) (bool, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.tree == nil {
		return false, isofilter.ErrCatalogClosed
	}
	_, found := set.tree.Get(string(key))
	return found, nil
}

func (set *treeSet) TryAdd(key []byte) (bool, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.tree == nil {
		return false, isofilter.ErrCatalogClosed
	}
	skey := string(key)
	if _, found := set.tree.Get(skey); found {
		return false, nil
	}
	set.tree.Put(skey, nil)
	return true, nil
}

func (set *treeSet) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.tree == nil {
		return 0
	}
	return set.tree.Size()
}

// VisitSorted calls onKey with each retained key in ascending order until onKey returns false.
func (set *treeSet) VisitSorted(onKey func(key []byte) bool) error {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.tree == nil {
		return isofilter.ErrCatalogClosed
	}
	it := set.tree.Iterator()
	for it.Next() {
		if !onKey([]byte(it.Key().(string))) {
			break
		}
	}
	return nil
}

func (set *treeSet) Close() error {
	set.mu.Lock()
	defer set.mu.Unlock()

	if set.tree != nil {
		set.tree.Clear()
		set.tree = nil
	}
	return nil
}
