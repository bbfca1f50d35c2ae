package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Preorder visits the nodes in root, left, right order.
// The depth of the root is 0 and its direction is Root.
// It is a diagnostic traversal, the visiting stops if action returns false.
func Preorder[K any](tree RBTree[K], action func(depth int, dir RBDirection, color RBColor, key K) bool) {
	if action == nil {
		return
	}
	View[K](tree, func(tree RBTree[K]) {
		preorder[K](tree.Root(), action)
	})
}

func preorder[K any](root RBNode[K], action func(depth int, dir RBDirection, color RBColor, key K) bool) {
	if root == nil {
		return
	}

	type visit struct {
		node  RBNode[K]
		dir   RBDirection
		depth int
	}
	stack := make([]visit, 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, visit{node: root, dir: Root})

	for size := len(stack); size > 0; size = len(stack) {
		v := stack[size-1]
		stack = stack[:size-1]
		if !action(v.depth, v.dir, v.node.Color(), v.node.Key()) {
			return
		}
		if r := v.node.Right(); r != nil {
			stack = append(stack, visit{node: r, dir: Right, depth: v.depth + 1})
		}
		if l := v.node.Left(); l != nil {
			stack = append(stack, visit{node: l, dir: Left, depth: v.depth + 1})
		}
	}
}

/*
Dump writes the tree in preorder, one node per line.
It is used for debugging only, not a stable format.

	[12|Black]
	  L:[7|Red]
	    L:[2|Black]
	  R:[15|Red]
*/
func Dump[K any](w io.Writer, tree RBTree[K]) error {
	bw := bufio.NewWriter(w)
	var err error
	Preorder[K](tree, func(depth int, dir RBDirection, color RBColor, key K) bool {
		prefix := ""
		switch dir {
		case Left:
			prefix = "L:"
		case Right:
			prefix = "R:"
		default:
		}
		_, err = fmt.Fprintf(bw, "%s%s[%v|%s]\n", strings.Repeat("  ", depth), prefix, key, color)
		return err == nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
