package counter

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// node is never modified once built. Every write copies the path from the
// root down to the touched node and shares the remaining subtrees.
type node[K constraints.Ordered] struct {
	key   K
	count int

	left, right *node[K]
}

func newLeafNode[K constraints.Ordered](key K) *node[K] {
	return &node[K]{key: key, count: 1}
}

func (n *node[K]) withLeft(left *node[K]) *node[K] {
	return &node[K]{key: n.key, count: n.count, left: left, right: n.right}
}

func (n *node[K]) withRight(right *node[K]) *node[K] {
	return &node[K]{key: n.key, count: n.count, left: n.left, right: right}
}

func (n *node[K]) withCount(count int) *node[K] {
	return &node[K]{key: n.key, count: count, left: n.left, right: n.right}
}

func (n *node[K]) lookup(key K) (*node[K], bool) {
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n, true
		}
	}

	return nil, false
}

// insert returns the new subtree and 1 if key was not present before.
func (n *node[K]) insert(key K) (*node[K], int) {
	if n == nil {
		return newLeafNode(key), 1
	}

	switch {
	case key < n.key:
		left, diff := n.left.insert(key)
		return n.withLeft(left), diff
	case key > n.key:
		right, diff := n.right.insert(key)
		return n.withRight(right), diff
	}

	return n.withCount(n.count + 1), 0
}

// delete removes the node holding key whatever its count. The key must be
// present.
func (n *node[K]) delete(key K) *node[K] {
	if n == nil {
		panic(errors.Errorf("counter: on delete, key %v was not found", key))
	}

	switch {
	case key < n.key:
		return n.withLeft(n.left.delete(key))
	case key > n.key:
		return n.withRight(n.right.delete(key))
	}

	if n.left == nil {
		return n.right
	}

	if n.right == nil {
		return n.left
	}

	successor := n.right.min()

	return &node[K]{
		key:   successor.key,
		count: successor.count,
		left:  n.left,
		right: n.right.delete(successor.key),
	}
}

// release lowers the count of key by one, deleting the node once the count
// would reach zero. The key must be present.
func (n *node[K]) release(key K) (*node[K], int) {
	if n == nil {
		panic(errors.Errorf("counter: on release, key %v was not found", key))
	}

	switch {
	case key < n.key:
		left, diff := n.left.release(key)
		return n.withLeft(left), diff
	case key > n.key:
		right, diff := n.right.release(key)
		return n.withRight(right), diff
	}

	if n.count > 1 {
		return n.withCount(n.count - 1), 0
	}

	return n.delete(key), -1
}

func (n *node[K]) min() *node[K] {
	for n.left != nil {
		n = n.left
	}

	return n
}

func (n *node[K]) walk(fn func(key K, count int) bool) bool {
	if n == nil {
		return true
	}

	if !n.left.walk(fn) {
		return false
	}

	if !fn(n.key, n.count) {
		return false
	}

	return n.right.walk(fn)
}

func (n *node[K]) String() string {
	return fmt.Sprintf("%v:%d", n.key, n.count)
}
