package tree

import (
	randv2 "math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
)

var scenarioKeys = []int{12, 7, 13, 21, 15, 2, 4, 33, 1, 27, 17}

func rbtreeKeys[K any](tree RBTree[K]) []K {
	keys := make([]K, 0, tree.Len())
	tree.Foreach(func(idx int64, color RBColor, key K) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func rbtreeDump[K any](t *testing.T, tree RBTree[K]) string {
	var sb strings.Builder
	require.NoError(t, Dump[K](&sb, tree))
	return sb.String()
}

func TestNilNode(t *testing.T) {
	var nilNode RBNode[int] = nil
	require.True(t, nilNode == nil)
	require.True(t, isBlack[int](nilNode))
	require.False(t, isRed[int](nilNode))

	var nilNode2 *rbNode[int] = nil
	require.Equal(t, Black, nilNode2.Color())
	require.True(t, nilNode2.isBlack())
	require.False(t, nilNode2.isRed())
	require.Nil(t, nilNode2.Left())
	require.Nil(t, nilNode2.Right())
	require.Nil(t, nilNode2.Parent())
	require.Panics(t, func() {
		nilNode2.Direction()
	})

	tree := NewRBTree[int]()
	require.Nil(t, tree.Root())
	require.True(t, tree.Root() == nil)
}

func TestRBTree_InsertScenario(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range scenarioKeys {
		require.True(t, tree.Insert(key))
		require.NoError(t, Validate[int](tree))
	}
	require.Equal(t, int64(len(scenarioKeys)), tree.Len())
	require.Equal(t, []int{1, 2, 4, 7, 12, 13, 15, 17, 21, 27, 33}, rbtreeKeys[int](tree))
	require.Equal(t, Black, tree.Root().Color())
	require.Equal(t, 12, tree.Root().Key())
	require.Equal(t, 5, Height[int](tree))
	require.Equal(t, 2, BlackHeight[int](tree))

	expected := `[12|Black]
  L:[4|Black]
    L:[2|Black]
      L:[1|Red]
    R:[7|Black]
  R:[15|Black]
    L:[13|Black]
    R:[27|Red]
      L:[21|Black]
        L:[17|Red]
      R:[33|Black]
`
	require.Equal(t, expected, rbtreeDump[int](t, tree))
}

func TestRBTree_DeleteScenario(t *testing.T) {
	type testcase struct {
		name     string
		opts     []RBTreeOpt[int]
		root     int
		expected string
	}
	testcases := []testcase{
		{
			name: "borrow succ",
			root: 13,
			expected: `[13|Black]
  L:[4|Black]
    L:[2|Black]
      L:[1|Red]
    R:[7|Black]
  R:[27|Black]
    L:[17|Red]
      L:[15|Black]
      R:[21|Black]
    R:[33|Black]
`,
		},
		{
			name: "borrow pred",
			opts: []RBTreeOpt[int]{WithRBTreeRemoveBorrowPred[int]()},
			root: 7,
			expected: `[7|Black]
  L:[2|Black]
    L:[1|Black]
    R:[4|Black]
  R:[15|Black]
    L:[13|Black]
    R:[27|Red]
      L:[21|Black]
        L:[17|Red]
      R:[33|Black]
`,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewRBTree[int](tc.opts...)
			for _, key := range scenarioKeys {
				tree.Insert(key)
			}
			require.True(tt, tree.Delete(12))
			require.NoError(tt, Validate[int](tree))
			require.False(tt, tree.Contains(12))
			require.Nil(tt, tree.Get(12))
			require.Equal(tt, int64(len(scenarioKeys)-1), tree.Len())
			require.Equal(tt, []int{1, 2, 4, 7, 13, 15, 17, 21, 27, 33}, rbtreeKeys[int](tree))
			require.Equal(tt, tc.root, tree.Root().Key())
			require.Equal(tt, tc.expected, rbtreeDump[int](tt, tree))
		})
	}
}

func TestRBTree_SingleKey(t *testing.T) {
	tree := NewRBTree[int]()
	require.True(t, tree.Insert(5))
	root := tree.Root()
	require.NotNil(t, root)
	require.Equal(t, 5, root.Key())
	require.Equal(t, Black, root.Color())
	require.Nil(t, root.Left())
	require.Nil(t, root.Right())
	require.Nil(t, root.Parent())
	require.Equal(t, 0, BlackHeight[int](tree))
	require.Equal(t, 1, Height[int](tree))
	require.Equal(t, "[5|Black]\n", rbtreeDump[int](t, tree))

	require.True(t, tree.Delete(5))
	require.Nil(t, tree.Root())
	require.Equal(t, int64(0), tree.Len())
	require.Equal(t, 0, BlackHeight[int](tree))
}

func TestRBTree_InsertRotation(t *testing.T) {
	tree := NewRBTree[int]()
	tree.Insert(10)
	tree.Insert(5)
	require.Equal(t, Red, tree.Get(5).Color())
	tree.Insert(1)
	require.NoError(t, Validate[int](tree))

	root := tree.Root()
	require.Equal(t, 5, root.Key())
	require.Equal(t, Black, root.Color())
	require.Equal(t, 1, root.Left().Key())
	require.Equal(t, Red, root.Left().Color())
	require.Equal(t, 10, root.Right().Key())
	require.Equal(t, Red, root.Right().Color())
	require.Equal(t, "[5|Black]\n  L:[1|Red]\n  R:[10|Red]\n", rbtreeDump[int](t, tree))
}

func TestRBTree_EmptyTree(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range []int{0, 1, -1, 42} {
		require.False(t, tree.Contains(key))
		require.Nil(t, tree.Get(key))
		require.False(t, tree.Delete(key))
	}
	require.Equal(t, int64(0), tree.Len())
	require.NoError(t, Validate[int](tree))
	require.Equal(t, 0, Height[int](tree))
	require.Equal(t, "", rbtreeDump[int](t, tree))

	called := false
	tree.Foreach(func(idx int64, color RBColor, key int) bool {
		called = true
		return true
	})
	require.False(t, called)
}

func TestRBTree_Idempotent(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range scenarioKeys {
		tree.Insert(key)
	}
	snapshot := rbtreeDump[int](t, tree)

	for _, key := range scenarioKeys {
		require.False(t, tree.Insert(key))
	}
	require.Equal(t, snapshot, rbtreeDump[int](t, tree))

	for _, key := range []int{0, 3, 100, -7} {
		require.False(t, tree.Delete(key))
	}
	require.Equal(t, snapshot, rbtreeDump[int](t, tree))
	require.Equal(t, int64(len(scenarioKeys)), tree.Len())
}

func TestRBTree_NilKey(t *testing.T) {
	cmp := func(i, j *int) int64 {
		return infra.OrderedKeyCompare[int](*i, *j)
	}
	tree := NewRBTreeWithComparator[*int](cmp)
	require.False(t, tree.Insert(nil))
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())

	keys := make([]*int, 0, len(scenarioKeys))
	for _, k := range scenarioKeys {
		key := k
		keys = append(keys, &key)
		require.True(t, tree.Insert(&key))
	}
	require.False(t, tree.Insert(nil))
	require.False(t, tree.Contains(nil))
	require.Nil(t, tree.Get(nil))
	require.False(t, tree.Delete(nil))
	require.Equal(t, int64(len(scenarioKeys)), tree.Len())
	require.NoError(t, Validate[*int](tree))

	for _, key := range keys {
		dup := *key
		require.True(t, tree.Contains(&dup))
		require.True(t, tree.Delete(&dup))
		require.NoError(t, Validate[*int](tree))
	}
	require.Nil(t, tree.Root())
}

func TestRBTree_Desc(t *testing.T) {
	tree := NewRBTree[int](WithRBTreeDesc[int]())
	for _, key := range scenarioKeys {
		require.True(t, tree.Insert(key))
		require.NoError(t, Validate[int](tree))
	}
	require.Equal(t, []int{33, 27, 21, 17, 15, 13, 12, 7, 4, 2, 1}, rbtreeKeys[int](tree))
	require.Positive(t, tree.Compare(1, 2))
	require.Negative(t, tree.Compare(2, 1))

	require.True(t, tree.Delete(12))
	require.NoError(t, Validate[int](tree))
	require.Equal(t, []int{33, 27, 21, 17, 15, 13, 7, 4, 2, 1}, rbtreeKeys[int](tree))
}

func TestRBTree_StringKey(t *testing.T) {
	tree := NewRBTree[string]()
	for _, key := range []string{"m", "c", "x", "a", "e", "z", "b"} {
		require.True(t, tree.Insert(key))
	}
	require.NoError(t, Validate[string](tree))
	require.Equal(t, []string{"a", "b", "c", "e", "m", "x", "z"}, rbtreeKeys[string](tree))
	require.True(t, tree.Contains("e"))
	require.False(t, tree.Contains("f"))
}

func TestRBTree_Foreach(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range scenarioKeys {
		tree.Insert(key)
	}

	visited := make([]int, 0, 3)
	tree.Foreach(func(idx int64, color RBColor, key int) bool {
		require.Equal(t, int64(len(visited)), idx)
		visited = append(visited, key)
		return idx < 2
	})
	require.Equal(t, []int{1, 2, 4}, visited)

	tree.Foreach(func(idx int64, color RBColor, key int) bool {
		require.Equal(t, tree.Get(key).Color(), color)
		return true
	})
}

func TestRBTree_Release(t *testing.T) {
	tree := NewRBTree[int]()
	for i := 0; i < 1000; i++ {
		tree.Insert(i)
	}
	x := tree.Get(500)
	require.NotNil(t, x)

	tree.Release()
	require.Equal(t, int64(0), tree.Len())
	require.Nil(t, tree.Root())
	require.False(t, tree.Contains(500))
	require.Nil(t, x.Parent())
	require.Nil(t, x.Left())
	require.Nil(t, x.Right())

	require.True(t, tree.Insert(500))
	require.Equal(t, int64(1), tree.Len())
	require.NoError(t, Validate[int](tree))
}

func TestRBTree_RotateWithoutChild(t *testing.T) {
	tree := &rbTree[int]{
		keyCmp: infra.OrderedKeyCompare[int],
	}
	tree.Insert(1)
	require.Panics(t, func() {
		tree.leftRotate(tree.root)
	})
	require.Panics(t, func() {
		tree.rightRotate(tree.root)
	})
	require.Panics(t, func() {
		tree.rotate(tree.root, Root)
	})
}

func TestNewRBTreeWithComparator_Nil(t *testing.T) {
	require.Panics(t, func() {
		NewRBTreeWithComparator[int](nil)
	})
	require.NotPanics(t, func() {
		NewRBTree[int](nil, WithRBTreeDesc[int]())
	})
}

func TestRBTree_SequentialNumber(t *testing.T) {
	type testcase struct {
		name    string
		total   int
		reverse bool
		opts    []RBTreeOpt[int]
	}
	testcases := []testcase{
		{
			name:  "borrow succ 2000",
			total: 2000,
		},
		{
			name:    "borrow succ reverse 2000",
			total:   2000,
			reverse: true,
		},
		{
			name:  "borrow pred 2000",
			total: 2000,
			opts:  []RBTreeOpt[int]{WithRBTreeRemoveBorrowPred[int]()},
		},
		{
			name:    "borrow pred reverse 2000",
			total:   2000,
			reverse: true,
			opts:    []RBTreeOpt[int]{WithRBTreeRemoveBorrowPred[int]()},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			keys := lo.Range(tc.total)
			if tc.reverse {
				keys = lo.Reverse(keys)
			}
			tree := NewRBTree[int](tc.opts...)
			for _, key := range keys {
				require.True(tt, tree.Insert(key))
			}
			require.NoError(tt, Validate[int](tree))
			require.Equal(tt, lo.Range(tc.total), rbtreeKeys[int](tree))
			// 2*log2(n+1)
			require.LessOrEqual(tt, Height[int](tree), 22)

			for i, key := range keys {
				if i%3 != 0 {
					continue
				}
				require.True(tt, tree.Delete(key))
				require.NoError(tt, Validate[int](tree))
			}
			expected := lo.Filter(lo.Range(tc.total), func(key int, _ int) bool {
				idx := key
				if tc.reverse {
					idx = tc.total - 1 - key
				}
				return idx%3 != 0
			})
			require.Equal(tt, expected, rbtreeKeys[int](tree))
			require.Equal(tt, int64(len(expected)), tree.Len())
		})
	}
}

func rbtreeRandomInsertAndDeleteRunCore(t *testing.T, total, maxKey int, opts ...RBTreeOpt[int]) {
	keys := make([]int, 0, total)
	for i := 0; i < total; i++ {
		keys = append(keys, randv2.IntN(maxKey))
	}
	uniq := lo.Uniq(keys)

	tree := NewRBTree[int](opts...)
	model := make(map[int]struct{}, len(uniq))
	for _, key := range keys {
		_, exists := model[key]
		require.Equal(t, !exists, tree.Insert(key))
		model[key] = struct{}{}
		require.NoError(t, Validate[int](tree))
	}
	require.Equal(t, int64(len(uniq)), tree.Len())

	sorted := slices.Clone(uniq)
	slices.SortFunc(sorted, func(i, j int) int {
		return int(tree.Compare(i, j))
	})
	require.Equal(t, sorted, rbtreeKeys[int](tree))

	for i := 0; i < maxKey && i < 4*total; i++ {
		_, exists := model[i]
		require.Equal(t, exists, tree.Contains(i))
	}

	randv2.Shuffle(len(uniq), func(i, j int) {
		uniq[i], uniq[j] = uniq[j], uniq[i]
	})
	for _, key := range uniq {
		require.True(t, tree.Delete(key))
		require.False(t, tree.Contains(key))
		delete(model, key)
		require.NoError(t, Validate[int](tree))
		require.Equal(t, int64(len(model)), tree.Len())
	}
	require.Nil(t, tree.Root())
}

func TestRBTree_RandomInsertAndDelete(t *testing.T) {
	type testcase struct {
		name   string
		total  int
		maxKey int
		opts   []RBTreeOpt[int]
	}
	testcases := []testcase{
		{
			name:   "100 random keys",
			total:  100,
			maxKey: 10_000,
		},
		{
			name:   "100 random keys borrow pred",
			total:  100,
			maxKey: 10_000,
			opts:   []RBTreeOpt[int]{WithRBTreeRemoveBorrowPred[int]()},
		},
		{
			name:   "5000 dense keys",
			total:  5000,
			maxKey: 2000,
		},
		{
			name:   "5000 dense keys desc",
			total:  5000,
			maxKey: 2000,
			opts:   []RBTreeOpt[int]{WithRBTreeDesc[int]()},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			if tc.total > 100 && testing.Short() {
				tt.Skip("skip large random rbtree test in short mode")
			}
			rbtreeRandomInsertAndDeleteRunCore(tt, tc.total, tc.maxKey, tc.opts...)
		})
	}
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(rngArr[i])
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(i)
	}
}
