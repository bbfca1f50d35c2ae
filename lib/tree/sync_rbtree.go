package tree

import "sync"

// syncRBTree guards a RBTree by a RWMutex.
// The RBNode views returned by Root and Get are not protected,
// they must not be read while other goroutines mutate the tree.
type syncRBTree[K any] struct {
	lock sync.RWMutex
	tree RBTree[K]
}

func (t *syncRBTree[K]) Compare(i, j K) int64 {
	return t.tree.Compare(i, j)
}

func (t *syncRBTree[K]) Len() int64 {
	return t.tree.Len()
}

func (t *syncRBTree[K]) Root() RBNode[K] {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.tree.Root()
}

func (t *syncRBTree[K]) Insert(key K) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.tree.Insert(key)
}

func (t *syncRBTree[K]) Delete(key K) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.tree.Delete(key)
}

func (t *syncRBTree[K]) Contains(key K) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.tree.Contains(key)
}

func (t *syncRBTree[K]) Get(key K) RBNode[K] {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.tree.Get(key)
}

// Foreach holds the read lock during the whole traversal.
// The action must not mutate the tree.
func (t *syncRBTree[K]) Foreach(action func(idx int64, color RBColor, key K) bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	t.tree.Foreach(action)
}

func (t *syncRBTree[K]) Release() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.tree.Release()
}

func (t *syncRBTree[K]) view(fn func(tree RBTree[K])) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	fn(t.tree)
}

type treeViewer[K any] interface {
	view(fn func(tree RBTree[K]))
}

// View runs fn with a tree snapshot that is not mutated during the call.
// A synchronized tree is viewed under its read lock.
func View[K any](tree RBTree[K], fn func(tree RBTree[K])) {
	if v, ok := tree.(treeViewer[K]); ok {
		v.view(fn)
		return
	}
	fn(tree)
}

// IsSyncRBTree reports whether the tree is safe to be read by other
// goroutines while it is mutated.
func IsSyncRBTree[K any](tree RBTree[K]) bool {
	_, ok := tree.(treeViewer[K])
	return ok
}

func NewSyncRBTree[K any](tree RBTree[K]) RBTree[K] {
	if tree == nil {
		panic("[rbtree] nil tree to synchronize")
	}
	if st, ok := tree.(*syncRBTree[K]); ok {
		return st
	}
	return &syncRBTree[K]{
		tree: tree,
	}
}
