// Package rbtree implements a generic red–black tree keyed by an integer
// extracted from each node's payload.
//
//   - Single-writer API (caller coordinates concurrency).
//   - Embedded sentinel nil node to simplify rotations & fixups.
//   - O(log n) Search/Insert/Delete/Predecessor/Successor.
//   - Duplicate keys are allowed; equal keys keep insertion order.
//
// Nodes are allocated by the caller (typically from an arena) so that the
// tree never owns storage. Public methods return Go nil where the tree
// internally uses its sentinel.
package rbtree

type Color uint8

const (
	red   Color = 0
	black Color = 1
)

// Node is a tree node carrying a payload of type V.
type Node[V any] struct {
	Value  V
	color  Color
	left   *Node[V]
	right  *Node[V]
	parent *Node[V]
}

// KeyFunc extracts the ordering key from a payload.
type KeyFunc[V any] func(*V) int

type Tree[V any] struct {
	root     *Node[V]
	nil      *Node[V] // points at sentinel
	sentinel Node[V]
	key      KeyFunc[V]
	size     int
}

// New allocates an empty tree ordered by key.
func New[V any](key KeyFunc[V]) *Tree[V] {
	return new(Tree[V]).Init(key)
}

// Init resets t to an empty tree ordered by key and returns it. It allows a
// Tree embedded in arena-allocated storage to be used without a separate
// allocation. A Tree must not be copied after Init.
func (t *Tree[V]) Init(key KeyFunc[V]) *Tree[V] {
	t.sentinel = Node[V]{color: black}
	t.nil = &t.sentinel
	t.root = t.nil
	t.key = key
	t.size = 0
	return t
}

// Len returns the number of nodes currently in the tree.
func (t *Tree[V]) Len() int { return t.size }

// Key returns the ordering key of n.
func (t *Tree[V]) Key(n *Node[V]) int { return t.key(&n.Value) }

// Search returns a node with the given key, or nil. With duplicate keys any
// matching node may be returned.
func (t *Tree[V]) Search(key int) *Node[V] {
	return t.public(t.searchNode(key))
}

// Insert links n into the tree. The caller sets n.Value (and therefore its
// key) first; n's links are overwritten. A node whose key equals an existing
// one is placed after it in order.
func (t *Tree[V]) Insert(z *Node[V]) {
	k := t.Key(z)
	y := t.nil
	x := t.root
	for x != t.nil {
		y = x
		if k < t.Key(x) {
			x = x.left
		} else {
			x = x.right
		}
	}

	z.parent = y
	z.left = t.nil
	z.right = t.nil
	z.color = red // new insertions start red

	if y == t.nil {
		t.root = z
	} else if k < t.Key(y) {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
}

// Delete unlinks z, which must currently be in the tree, and returns the node
// that left the tree. When z has two children its in-order successor is moved
// into z's position by relinking rather than by copying keys or payloads, so
// the returned node is always z and pointers to every other node stay valid.
func (t *Tree[V]) Delete(z *Node[V]) *Node[V] {
	t.deleteNode(z)
	t.size--
	z.parent, z.left, z.right = nil, nil, nil
	return z
}

// Min returns the node with the smallest key, or nil if the tree is empty.
func (t *Tree[V]) Min() *Node[V] { return t.public(t.minNode(t.root)) }

// Max returns the node with the greatest key, or nil if the tree is empty.
func (t *Tree[V]) Max() *Node[V] { return t.public(t.maxNode(t.root)) }

// Successor returns the in-order successor of n, or nil if n is the last node.
func (t *Tree[V]) Successor(n *Node[V]) *Node[V] { return t.public(t.next(n)) }

// Predecessor returns the in-order predecessor of n, or nil if n is the first node.
func (t *Tree[V]) Predecessor(n *Node[V]) *Node[V] { return t.public(t.prev(n)) }

// Ascend applies fn from lowest to highest key.
// If fn returns false, iteration stops early.
func (t *Tree[V]) Ascend(fn func(*Node[V]) bool) {
	for n := t.minNode(t.root); n != t.nil; n = t.next(n) {
		if !fn(n) {
			return
		}
	}
}

/*************** Internal helpers (nodes & search) ***************/

func (t *Tree[V]) public(n *Node[V]) *Node[V] {
	if n == t.nil {
		return nil
	}
	return n
}

func (t *Tree[V]) searchNode(key int) *Node[V] {
	n := t.root
	for n != t.nil {
		switch k := t.Key(n); {
		case key < k:
			n = n.left
		case key > k:
			n = n.right
		default:
			return n
		}
	}
	return t.nil
}

func (t *Tree[V]) minNode(n *Node[V]) *Node[V] {
	if n == t.nil {
		return t.nil
	}
	for n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *Tree[V]) maxNode(n *Node[V]) *Node[V] {
	if n == t.nil {
		return t.nil
	}
	for n.right != t.nil {
		n = n.right
	}
	return n
}

// In-order successor
func (t *Tree[V]) next(n *Node[V]) *Node[V] {
	if n.right != t.nil {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

// In-order predecessor
func (t *Tree[V]) prev(n *Node[V]) *Node[V] {
	if n.left != t.nil {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nil && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

/******************** Rotations & Fixups ********************/

func (t *Tree[V]) leftRotate(x *Node[V]) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree[V]) rightRotate(y *Node[V]) {
	x := y.left
	y.left = x.right
	if x.right != t.nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *Tree[V]) insertFixup(z *Node[V]) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right // uncle
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left // uncle
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *Tree[V]) transplant(u, v *Node[V]) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *Tree[V]) deleteNode(z *Node[V]) {
	y := z
	yOrigColor := y.color
	var x *Node[V]

	if z.left == t.nil {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nil {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right) // successor takes z's place
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
}

func (t *Tree[V]) deleteFixup(x *Node[V]) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
