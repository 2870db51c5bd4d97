// Package counter implements a persistent multiset over ordered keys.
//
// A Counter is an unbalanced binary search tree with a count attached to each
// distinct key. Every write returns a new Counter sharing all untouched
// subtrees with the old one, so values may be handed to any number of
// goroutines without copying or locking.
package counter

import (
	"strings"

	"github.com/phf/go-queue/queue"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var ErrEmpty = errors.New("counter: tree must have at least one entry")

type Counter[K constraints.Ordered] struct {
	root *node[K]

	size  int
	total int
}

func Empty[K constraints.Ordered]() *Counter[K] {
	return &Counter[K]{}
}

func (c *Counter[K]) Contains(key K) bool {
	_, ok := c.root.lookup(key)
	return ok
}

// Size returns the number of distinct keys.
func (c *Counter[K]) Size() int {
	return c.size
}

// Total returns the sum of all counts.
func (c *Counter[K]) Total() int {
	return c.total
}

func (c *Counter[K]) Count(key K) int {
	n, ok := c.root.lookup(key)
	if !ok {
		return 0
	}

	return n.count
}

// Increment adds one occurrence of key. The returned delta is 1 when key was
// absent and 0 otherwise.
func (c *Counter[K]) Increment(key K) (*Counter[K], int) {
	root, diff := c.root.insert(key)

	return &Counter[K]{root: root, size: c.size + diff, total: c.total + 1}, diff
}

// Decrement drops key from the counter entirely, no matter how many times it
// was incremented. Decrementing an absent key returns c unchanged and a delta
// of 0; otherwise the delta is -1.
func (c *Counter[K]) Decrement(key K) (*Counter[K], int) {
	n, ok := c.root.lookup(key)
	if !ok {
		return c, 0
	}

	return &Counter[K]{root: c.root.delete(key), size: c.size - 1, total: c.total - n.count}, -1
}

// Release removes a single occurrence of key. The delta is -1 only when the
// last occurrence goes away. Releasing an absent key is a no-op.
func (c *Counter[K]) Release(key K) (*Counter[K], int) {
	if !c.Contains(key) {
		return c, 0
	}

	root, diff := c.root.release(key)

	return &Counter[K]{root: root, size: c.size + diff, total: c.total - 1}, diff
}

// Minimum returns the smallest key and its count.
func (c *Counter[K]) Minimum() (K, int, error) {
	if c.root == nil {
		var zero K
		return zero, 0, ErrEmpty
	}

	n := c.root.min()

	return n.key, n.count, nil
}

// Range calls fn for every key in ascending order until fn returns false.
func (c *Counter[K]) Range(fn func(key K, count int) bool) {
	c.root.walk(fn)
}

// Depth returns the height of the underlying tree. Nothing rebalances the
// tree, so this is the true cost of a lookup.
func (c *Counter[K]) Depth() int {
	type level struct {
		n     *node[K]
		depth int
	}

	if c.root == nil {
		return 0
	}

	var q queue.Queue
	q.PushBack(level{n: c.root, depth: 1})

	depth := 0

	for q.Len() > 0 {
		current := q.PopFront().(level)

		if current.depth > depth {
			depth = current.depth
		}

		if current.n.left != nil {
			q.PushBack(level{n: current.n.left, depth: current.depth + 1})
		}

		if current.n.right != nil {
			q.PushBack(level{n: current.n.right, depth: current.depth + 1})
		}
	}

	return depth
}

func (c *Counter[K]) String() string {
	var b strings.Builder

	b.WriteByte('{')
	c.Range(func(key K, count int) bool {
		if b.Len() > 1 {
			b.WriteString(", ")
		}
		b.WriteString((&node[K]{key: key, count: count}).String())
		return true
	})
	b.WriteByte('}')

	return b.String()
}
