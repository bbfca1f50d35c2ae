package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// The NIL leaf is black, it is the only color rule for a missing node.
func isBlack[K any](node RBNode[K]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K any](node RBNode[K]) bool {
	return node != nil && node.Color() == Red
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func RootColorValidate[K any](tree RBTree[K]) error {
	if root := tree.Root(); root != nil && !isBlack[K](root) {
		return infra.WrapErrorStackWithMessage(ErrRBTreeRootViolation,
			fmt.Sprintf("root %v is %s", root.Key(), root.Color()),
		)
	}
	return nil
}

// Preorder traversal to validate that no red node owns a red child.
func RedViolationValidate[K any](tree RBTree[K]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	stack := make([]RBNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		l, r := aux.Left(), aux.Right()
		if isRed[K](aux) && (isRed[K](l) || isRed[K](r)) {
			return infra.WrapErrorStackWithMessage(ErrRBTreeRedViolation,
				fmt.Sprintf("red node %v has a red child", aux.Key()),
			)
		}
		if r != nil {
			stack = append(stack, r)
		}
		if l != nil {
			stack = append(stack, l)
		}
	}
	return nil
}

// blackHeightOf returns the black nodes' number from the node (included)
// to its NIL leaves. Both children subtrees are checked independently.
func blackHeightOf[K any](node RBNode[K]) (int, error) {
	if node == nil {
		return 0, nil
	}

	l, err := blackHeightOf[K](node.Left())
	if err != nil {
		return 0, err
	}
	r, err := blackHeightOf[K](node.Right())
	if err != nil {
		return 0, err
	}
	if l != r {
		return 0, infra.WrapErrorStackWithMessage(ErrRBTreeBlackViolation,
			fmt.Sprintf("node %v black height left %d, right %d", node.Key(), l, r),
		)
	}
	if isBlack[K](node) {
		l++
	}
	return l, nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
	        /  \
	     <8>    <15>
	     / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

2-3-4 tree like:

	         <8> --- [13] --- <15>
	        /   \            /    \
	  <1>-[6]   [11]      [14]   <16>-[17]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K any](tree RBTree[K]) error {
	_, err := blackHeightOf[K](tree.Root())
	return err
}

// Inorder traversal to validate the keys are strictly increasing
// under the tree order and each child links back to its parent.
func OrderViolationValidate[K any](tree RBTree[K]) error {
	aux := tree.Root()
	if aux == nil {
		return nil
	}
	if aux.Parent() != nil {
		return infra.WrapErrorStackWithMessage(ErrRBTreeLinkViolation,
			fmt.Sprintf("root %v has a parent", aux.Key()),
		)
	}

	stack := make([]RBNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()

	var prev RBNode[K]
	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if prev != nil && tree.Compare(prev.Key(), aux.Key()) >= 0 {
			return infra.WrapErrorStackWithMessage(ErrRBTreeOrderViolation,
				fmt.Sprintf("key %v is not less than key %v", prev.Key(), aux.Key()),
			)
		}
		for _, child := range []RBNode[K]{aux.Left(), aux.Right()} {
			if child != nil && child.Parent() != aux {
				return infra.WrapErrorStackWithMessage(ErrRBTreeLinkViolation,
					fmt.Sprintf("child %v does not link back to %v", child.Key(), aux.Key()),
				)
			}
		}
		prev = aux
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// Validate checks all the rbtree properties and the BST order.
// Every violation found is returned, combined by multierr.
func Validate[K any](tree RBTree[K]) (err error) {
	View[K](tree, func(tree RBTree[K]) {
		err = multierr.Combine(
			RootColorValidate[K](tree),
			RedViolationValidate[K](tree),
			BlackViolationValidate[K](tree),
			OrderViolationValidate[K](tree),
		)
	})
	return err
}

// BlackHeight returns the black nodes' number from the root (excluded)
// to any NIL leaf. It returns -1 if the tree violates p4.
func BlackHeight[K any](tree RBTree[K]) (h int) {
	View[K](tree, func(tree RBTree[K]) {
		root := tree.Root()
		if root == nil {
			h = 0
			return
		}
		var err error
		if h, err = blackHeightOf[K](root); err != nil {
			h = -1
			return
		}
		if isBlack[K](root) {
			h--
		}
	})
	return h
}

// Height returns the nodes' number of the longest root to leaf path.
func Height[K any](tree RBTree[K]) (h int) {
	View[K](tree, func(tree RBTree[K]) {
		h = heightOf[K](tree.Root())
	})
	return h
}

func heightOf[K any](node RBNode[K]) int {
	if node == nil {
		return 0
	}
	return 1 + max(heightOf[K](node.Left()), heightOf[K](node.Right()))
}
