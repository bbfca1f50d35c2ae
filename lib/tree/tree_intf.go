package tree

import "errors"

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (d RBDirection) String() string {
	switch d {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

func (d RBDirection) opposite() RBDirection {
	return -d
}

var (
	ErrRBTreeRootViolation  = errors.New("[rbtree] root is not black")
	ErrRBTreeRedViolation   = errors.New("[rbtree] red violation")
	ErrRBTreeBlackViolation = errors.New("[rbtree] black violation")
	ErrRBTreeOrderViolation = errors.New("[rbtree] order violation")
	ErrRBTreeLinkViolation  = errors.New("[rbtree] parent link violation")
)

// RBNode is the read only view of a tree node.
// It is used by the validators and the dump routines only.
type RBNode[K any] interface {
	Key() K
	Color() RBColor
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
}

// RBTree is an ordered set of unique keys.
//
// Insert and Delete return whether the tree has been mutated.
// An absent (nil) key, a duplicate insert or a missing key
// deletion are silently ignored.
// The tree is not safe for concurrent use, see NewSyncRBTree.
type RBTree[K any] interface {
	// Compare applies the tree order (the descending option included).
	Compare(i, j K) int64
	Len() int64
	Root() RBNode[K]
	Insert(key K) bool
	Delete(key K) bool
	Contains(key K) bool
	Get(key K) RBNode[K]
	Foreach(action func(idx int64, color RBColor, key K) bool)
	Release()
}
