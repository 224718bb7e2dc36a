package rbtree

import (
	"errors"
	"fmt"
)

var (
	// ErrRedRoot means the root node is red.
	ErrRedRoot = errors.New("rbtree: root is red")

	// ErrRedRed means a red node has a red child.
	ErrRedRed = errors.New("rbtree: red node with red child")

	// ErrBlackHeight means two root-to-leaf paths cross different numbers of black nodes.
	ErrBlackHeight = errors.New("rbtree: unequal black height")

	// ErrOrder means the in-order key sequence is not sorted.
	ErrOrder = errors.New("rbtree: keys out of order")

	// ErrLinks means a child's parent pointer does not point back at its parent.
	ErrLinks = errors.New("rbtree: inconsistent parent link")

	// ErrSize means the cached size differs from the number of reachable nodes.
	ErrSize = errors.New("rbtree: size mismatch")
)

// Validate checks the red–black invariants, key order, parent links and the
// cached size. It walks the whole tree and is meant for tests and
// verification runs.
func (t *Tree[V]) Validate() error {
	if t.root == t.nil {
		if t.size != 0 {
			return fmt.Errorf("%w: empty tree reports %d nodes", ErrSize, t.size)
		}
		return nil
	}
	if t.root.color != black {
		return ErrRedRoot
	}
	if t.root.parent != t.nil {
		return fmt.Errorf("%w: root has a parent", ErrLinks)
	}
	count := 0
	if _, err := t.check(t.root, &count); err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("%w: counted %d, cached %d", ErrSize, count, t.size)
	}

	first := true
	last := 0
	var orderErr error
	t.Ascend(func(n *Node[V]) bool {
		k := t.Key(n)
		if !first && k < last {
			orderErr = fmt.Errorf("%w: %d after %d", ErrOrder, k, last)
			return false
		}
		first, last = false, k
		return true
	})
	return orderErr
}

// check returns the black height of the subtree rooted at n.
func (t *Tree[V]) check(n *Node[V], count *int) (int, error) {
	if n == t.nil {
		return 1, nil
	}
	*count++
	for _, c := range [2]*Node[V]{n.left, n.right} {
		if c == t.nil {
			continue
		}
		if c.parent != n {
			return 0, fmt.Errorf("%w: child of %d", ErrLinks, t.Key(n))
		}
		if n.color == red && c.color == red {
			return 0, fmt.Errorf("%w: at %d", ErrRedRed, t.Key(n))
		}
	}
	if n.left != t.nil && t.Key(n.left) > t.Key(n) {
		return 0, fmt.Errorf("%w: left child %d of %d", ErrOrder, t.Key(n.left), t.Key(n))
	}
	if n.right != t.nil && t.Key(n.right) < t.Key(n) {
		return 0, fmt.Errorf("%w: right child %d of %d", ErrOrder, t.Key(n.right), t.Key(n))
	}
	lh, err := t.check(n.left, count)
	if err != nil {
		return 0, err
	}
	rh, err := t.check(n.right, count)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("%w: %d vs %d below %d", ErrBlackHeight, lh, rh, t.Key(n))
	}
	if n.color == black {
		lh++
	}
	return lh, nil
}
