package tree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRBTree_ConcurrentWriters(t *testing.T) {
	tree := NewSyncRBTree[int](NewRBTree[int]())
	require.Same(t, tree, NewSyncRBTree[int](tree))

	const (
		workers = 8
		perWork = 500
	)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				key := base*perWork + i
				assert.True(t, tree.Insert(key))
				assert.True(t, tree.Contains(key))
				if i%2 == 0 {
					assert.True(t, tree.Delete(key))
				}
				_ = Height[int](tree)
			}
		}(w)
	}
	wg.Wait()

	require.NoError(t, Validate[int](tree))
	require.Equal(t, int64(workers*perWork/2), tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key int) bool {
		require.Equal(t, 1, key%2)
		return true
	})
	require.Positive(t, BlackHeight[int](tree))

	tree.Release()
	require.Nil(t, tree.Root())
	require.Equal(t, int64(0), tree.Len())
}

func TestIsSyncRBTree(t *testing.T) {
	tree := NewRBTree[int]()
	require.False(t, IsSyncRBTree[int](tree))
	require.True(t, IsSyncRBTree[int](NewSyncRBTree[int](tree)))
	require.False(t, IsSyncRBTree[int](nil))
}

func TestNewSyncRBTree_Nil(t *testing.T) {
	require.Panics(t, func() {
		NewSyncRBTree[int](nil)
	})
}
