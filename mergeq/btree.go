package mergeq

import (
	"sync"

	"github.com/google/btree"

	"github.com/tracering/tracering/model"
)

// Queue defined the merge queue interface
// you can use some other data structure once you implement this interface
type Queue interface {
	Push(Item)
	PopMin() (Item, bool)
	Len() int
}

// Item is one pending stream head during a merge pass.
type Item struct {
	TS     model.Timespec
	Source int
}

// Less orders items by timestamp, ties broken by lower stream index.
func (i Item) Less(than Item) bool {
	if i.TS.Sec != than.TS.Sec {
		return i.TS.Sec < than.TS.Sec
	}
	if i.TS.Nsec != than.TS.Nsec {
		return i.TS.Nsec < than.TS.Nsec
	}
	return i.Source < than.Source
}

var _ Queue = (*BTree)(nil)

const defaultDegree = 4

// BTree implement the merge queue
type BTree struct {
	tree *btree.BTreeG[Item]

	// be cautious!!!
	// lock should be caught before concurrent use
	lock *sync.Mutex
}

func NewBTree(degree int) *BTree {
	if degree <= 1 {
		degree = defaultDegree
	}
	return &BTree{
		tree: btree.NewG[Item](degree, Item.Less),
		lock: &sync.Mutex{},
	}
}

func (bt *BTree) Push(item Item) {
	bt.lock.Lock()
	defer bt.lock.Unlock()
	bt.tree.ReplaceOrInsert(item)
}

func (bt *BTree) PopMin() (Item, bool) {
	bt.lock.Lock()
	defer bt.lock.Unlock()
	return bt.tree.DeleteMin()
}

func (bt *BTree) Len() int {
	return bt.tree.Len()
}
