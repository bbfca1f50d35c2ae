package tree

import (
	"sync/atomic"

	"github.com/benz9527/xtree/lib/infra"
)

type rbTree[K any] struct {
	root           *rbNode[K]
	count          int64
	keyCmp         infra.KeyComparator[K]
	isDesc         bool
	isRmBorrowPred bool
	isNilableKey   bool
}

func (tree *rbTree[K]) Compare(k1, k2 K) int64 {
	if tree.isDesc {
		return tree.keyCmp(k2, k1)
	}
	return tree.keyCmp(k1, k2)
}

func (tree *rbTree[K]) isNilKey(key K) bool {
	return tree.isNilableKey && infra.IsNilKey(key)
}

func (tree *rbTree[K]) Len() int64 {
	return atomic.LoadInt64(&tree.count)
}

func (tree *rbTree[K]) Root() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
// So the shortest path nodes are black nodes. Otherwise,
// the path must contain red node.
// The longest path nodes' number is 2 * shortest path nodes' number.

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K]) leftRotate(x *rbNode[K]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	p, y := x.parent, x.right
	dir := x.Direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to left-rotate")
	}
	y.parent = p
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *rbTree[K]) rightRotate(x *rbNode[K]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	p, y := x.parent, x.left
	dir := x.Direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to right-rotate")
	}
	y.parent = p
}

// rotate moves x down to the dir side.
func (tree *rbTree[K]) rotate(x *rbNode[K], dir RBDirection) {
	switch dir {
	case Left:
		tree.leftRotate(x)
	case Right:
		tree.rightRotate(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate without direction")
	}
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
// i2: The key is present, the first inserted key is retained.
func (tree *rbTree[K]) Insert(key K) bool {
	if tree.isNilKey(key) {
		return false
	}

	var (
		x, y *rbNode[K] = tree.root, nil
		res  int64
	)
	for x != nil {
		y = x
		if res = tree.Compare(key, x.key); /* i2 */ res == 0 {
			return false
		} else /* less */ if res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	z := &rbNode[K]{
		key:    key,
		color:  Red,
		parent: y,
	}
	switch {
	case /* i1 */ y == nil:
		tree.root = z
	case res < 0:
		y.left = z
	default:
		y.right = z
	}

	atomic.AddInt64(&tree.count, 1)
	tree.insertRebalance(z)
	return true
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X is root, repaint it into black.

im2: Current node X's parent P is black, so hold p3 and p4.

im3: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Loop to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to straighten G, P and X into a line.
After rotation may be still red-violation. Here must enter im5 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: Handle im4 scenario, current node is the same direction as parent.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (tree *rbTree[K]) insertRebalance(x *rbNode[K]) {
	for x != nil {
		if /* im1 */ x.isRoot() {
			x.color = Black
			return
		}

		p := x.parent
		if /* im2 */ p.isBlack() {
			return
		}

		// A red parent is never the root, the grandpa exists.
		gp := p.parent
		if /* im3 */ u := p.sibling(); u.isRed() {
			p.color = Black
			u.color = Black
			gp.color = Red
			x = gp
			continue
		}

		pdir := p.Direction()
		if /* im4 */ x.Direction() != pdir {
			// Rotate P down to its own side, then X takes the P's place.
			tree.rotate(p, pdir)
			p = x
		}

		/* im5 */
		p.color = Black
		gp.color = Red
		tree.rotate(gp, pdir.opposite())
		return
	}
}

func (tree *rbTree[K]) Delete(key K) bool {
	if tree.isNilKey(key) || tree.root == nil {
		return false
	}
	z := tree.search(key)
	if z == nil {
		return false
	}

	tree.removeNode(z)
	atomic.AddInt64(&tree.count, -1)
	return true
}

/*
r1: Current node Z has left and right node.
Find node Z's succ (or pred) to replace it to be removed.
Copy the key only, node identity does not follow the key.
The succ has no left child and the pred has no right child.

Find succ:

	  |                    |
	  Z                    S
	 / \                  / \
	L  ..   copy(S, Z)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                Y  ..

r2: Current node Y (Z itself or the borrowed node) has at most
one child C. C (or a NIL) takes the Y's place.

r3: Y is red, no black-violation, remove directly.

r4: Y is black, C is red. Repaint C into black.
(See conclusion, a single child must be red.)

r5: Y is black, C is NIL. One black is missing on the path of C.
(black-violation) Rebalance from C with its parent.
*/
func (tree *rbTree[K]) removeNode(z *rbNode[K]) {
	y := z
	if /* r1 */ z.left != nil && z.right != nil {
		if tree.isRmBorrowPred {
			y = z.left.maximum()
		} else {
			y = z.right.minimum()
		}
		z.key = y.key
	}

	/* r2 */
	c := y.left
	if c == nil {
		c = y.right
	}
	p := y.parent
	if c != nil {
		c.parent = p
	}
	switch y.Direction() {
	case Root:
		tree.root = c
	case Left:
		p.left = c
	case Right:
		p.right = c
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to remove")
	}

	if /* r4, r5 */ y.isBlack() {
		tree.removeRebalance(c, p)
	}

	// Unlink node
	y.parent = nil
	y.left = nil
	y.right = nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

Sc is the same direction to X and it X's sibling's child node. (near)
Sd is the opposite direction to X and it X's sibling's child node. (far)

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) Repaint S into black, P into red.
(2) X is left node of P, left rotate P.
(3) X is right node of P, right rotate P.
The new sibling is black, enter rm2-rm5.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [D]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: Current node X's parent P is red, the sibling S, nephew node Sc and Sd
is black.
Repaint S into red and P into black. The missing black is absorbed.

	  <P>             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: All of current node X's parent P, the sibling S, nephew node Sc and Sd
are black.
Unable to satisfy p3 and p4. We have to paint the S into red to satisfy
p4 locally. Then loop to handle P, the whole P subtree misses one black.

	  [P]             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm4: Current node X's sibling S is black, nephew node Sc is red.
Ignore X's parent P's color (red or black is okay) and Sd's color.
(1) Sc inherits P's color, repaint P into black.
(2) If X is left node of P, right rotate S then left rotate P.
(3) If X is right node of P, left rotate S then right rotate P.

	  {P}                   {P}                   {Sc}
	  / \    r-rotate(S)    / \    l-rotate(P)    /  \
	[X] [S]  ==========>  [X] <Sc> ==========>  [P]  [S]
	    / \                      \              /      \
	  <Sc> {Sd}                  [S]          [X]     {Sd}
	                               \
	                               {Sd}

rm5: Current node X's sibling S is black, nephew node Sc is black and Sd
is red. Ignore X's parent P's color (red or black is okay)
(1) S inherits P's color, repaint P and Sd into black.
(2) If X is left node of P, left rotate P.
(3) If X is right node of P, right rotate P.

	  {P}                   {S}
	  / \    l-rotate(P)    / \
	[X] [S]  ==========>  [P] [Sd]
	    / \               / \
	 [Sc] <Sd>          [X] [Sc]

The loop stops at the root or at a red X, which is repainted into black.
*/
func (tree *rbTree[K]) removeRebalance(x, p *rbNode[K]) {
	for x != tree.root && x.isBlack() {
		// X may be a NIL, so the direction comes from P.
		dir := Right
		if x == p.left {
			dir = Left
		}

		s := p.child(dir.opposite())
		if /* rm1 */ s.isRed() {
			s.color = Black
			p.color = Red
			tree.rotate(p, dir)
			s = p.child(dir.opposite())
		}

		sc, sd := s.child(dir), s.child(dir.opposite())
		if sc.isBlack() && sd.isBlack() {
			s.color = Red
			if /* rm2 */ p.isRed() {
				p.color = Black
				return
			}
			/* rm3 */
			x, p = p, p.parent
			continue
		}

		if /* rm4 */ sc.isRed() {
			sc.color = p.color
			p.color = Black
			tree.rotate(s, dir.opposite())
			tree.rotate(p, dir)
			return
		}

		/* rm5 */
		s.color = p.color
		p.color = Black
		sd.color = Black
		tree.rotate(p, dir)
		return
	}

	if x != nil {
		x.color = Black
	}
}

func (tree *rbTree[K]) search(key K) *rbNode[K] {
	for aux := tree.root; aux != nil; {
		res := tree.Compare(key, aux.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

func (tree *rbTree[K]) Contains(key K) bool {
	if tree.isNilKey(key) {
		return false
	}
	return tree.search(key) != nil
}

func (tree *rbTree[K]) Get(key K) RBNode[K] {
	if tree.isNilKey(key) {
		return nil
	}
	if x := tree.search(key); x != nil {
		return x
	}
	return nil
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[K]) Foreach(action func(idx int64, color RBColor, key K) bool) {
	size := atomic.LoadInt64(&tree.count)
	aux := tree.root
	if size <= 0 || aux == nil {
		return
	}

	stack := make([]*rbNode[K], 0, size>>1+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; !action(idx, aux.color, aux.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (tree *rbTree[K]) Release() {
	aux := tree.root
	tree.root = nil
	atomic.StoreInt64(&tree.count, 0)
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.parent, aux.left, aux.right = nil, nil, nil
	}
}

type RBTreeOpt[K any] func(*rbTree[K])

func WithRBTreeDesc[K any]() RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.isDesc = true
	}
}

// WithRBTreeRemoveBorrowPred removes a node with two children by
// borrowing the key of its in-order predecessor instead of the successor.
func WithRBTreeRemoveBorrowPred[K any]() RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.isRmBorrowPred = true
	}
}

func NewRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) RBTree[K] {
	return NewRBTreeWithComparator[K](infra.OrderedKeyCompare[K], opts...)
}

func NewRBTreeWithComparator[K any](cmp infra.KeyComparator[K], opts ...RBTreeOpt[K]) RBTree[K] {
	if cmp == nil {
		panic("[rbtree] nil key comparator")
	}

	tree := &rbTree[K]{
		count:          0,
		keyCmp:         cmp,
		isDesc:         false,
		isRmBorrowPred: false,
		isNilableKey:   infra.NilableKey[K](),
	}

	for _, o := range opts {
		if o != nil {
			o(tree)
		}
	}
	return tree
}
