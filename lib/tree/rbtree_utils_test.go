package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// link builds the tree by hand, so the validators can be fed with broken trees.
func link[K any](parent *rbNode[K], left, right *rbNode[K]) *rbNode[K] {
	parent.left, parent.right = left, right
	parent.fixLink()
	return parent
}

func node[K any](key K, color RBColor) *rbNode[K] {
	return &rbNode[K]{key: key, color: color}
}

func handTree(root *rbNode[int]) *rbTree[int] {
	return &rbTree[int]{
		root:   root,
		keyCmp: infra.OrderedKeyCompare[int],
	}
}

func TestRBTreeValidators(t *testing.T) {
	type testcase struct {
		name   string
		root   func() *rbNode[int]
		target []error
	}
	testcases := []testcase{
		{
			name: "empty",
			root: func() *rbNode[int] {
				return nil
			},
		},
		{
			name: "valid",
			root: func() *rbNode[int] {
				return link(node(5, Black), node(1, Red), node(10, Red))
			},
		},
		{
			name: "red root",
			root: func() *rbNode[int] {
				return link(node(5, Red), node(1, Black), node(10, Black))
			},
			target: []error{ErrRBTreeRootViolation},
		},
		{
			name: "red violation",
			root: func() *rbNode[int] {
				return link(node(5, Black),
					link(node(2, Red), node(1, Red), nil),
					link(node(10, Red), nil, nil),
				)
			},
			target: []error{ErrRBTreeRedViolation},
		},
		{
			name: "black violation",
			root: func() *rbNode[int] {
				return link(node(5, Black), node(1, Black), nil)
			},
			target: []error{ErrRBTreeBlackViolation},
		},
		{
			name: "order violation",
			root: func() *rbNode[int] {
				return link(node(5, Black), node(10, Red), node(1, Red))
			},
			target: []error{ErrRBTreeOrderViolation},
		},
		{
			name: "duplicate key",
			root: func() *rbNode[int] {
				return link(node(5, Black), node(5, Red), nil)
			},
			target: []error{ErrRBTreeOrderViolation},
		},
		{
			name: "broken parent link",
			root: func() *rbNode[int] {
				root := link(node(5, Black), node(1, Red), node(10, Red))
				root.right.parent = root.left
				return root
			},
			target: []error{ErrRBTreeLinkViolation},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := handTree(tc.root())
			err := Validate[int](tree)
			if len(tc.target) == 0 {
				require.NoError(tt, err)
				return
			}
			require.Error(tt, err)
			require.Len(tt, multierr.Errors(err), len(tc.target))
			for _, target := range tc.target {
				require.Truef(tt, errors.Is(err, target), "%v is not %v", err, target)
			}
		})
	}
}

func TestRBTreeValidators_ErrorStack(t *testing.T) {
	tree := handTree(link(node(5, Red), nil, nil))
	err := RootColorValidate[int](tree)
	require.ErrorIs(t, err, ErrRBTreeRootViolation)

	var es infra.ErrorStack
	require.True(t, errors.As(err, &es))
	require.NotEmpty(t, es.Frames())
	require.Contains(t, err.Error(), "root 5 is Red")
}

func TestBlackHeight(t *testing.T) {
	type testcase struct {
		name     string
		root     func() *rbNode[int]
		height   int
		blackLen int
	}
	testcases := []testcase{
		{
			name: "empty",
			root: func() *rbNode[int] {
				return nil
			},
		},
		{
			name: "single",
			root: func() *rbNode[int] {
				return node(1, Black)
			},
			height: 1,
		},
		{
			name: "two levels black",
			root: func() *rbNode[int] {
				return link(node(2, Black), node(1, Black), node(3, Black))
			},
			height:   2,
			blackLen: 1,
		},
		{
			name: "black violation",
			root: func() *rbNode[int] {
				return link(node(2, Black), node(1, Black), nil)
			},
			height:   2,
			blackLen: -1,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := handTree(tc.root())
			require.Equal(tt, tc.height, Height[int](tree))
			require.Equal(tt, tc.blackLen, BlackHeight[int](tree))
		})
	}
}
