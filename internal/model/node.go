package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is one element of a model tree. Children are owned by their parent;
// the parent pointer is a back-link only.
type Node struct {
	UUID uuid.UUID
	Name string
	Data Data

	parent   *Node
	children []*Node
	tree     *Tree
}

// New creates a detached node with a fresh uuid.
func New(name string, data Data) *Node {
	return &Node{UUID: uuid.New(), Name: name, Data: data}
}

// NewWithUUID creates a detached node with the given uuid.
func NewWithUUID(id uuid.UUID, name string, data Data) *Node {
	return &Node{UUID: id, Name: name, Data: data}
}

func (n *Node) Kind() Kind { return n.Data.Kind() }

func (n *Node) Parent() *Node { return n.parent }

// Tree returns the tree n is attached to, or nil for a detached subtree.
func (n *Node) Tree() *Tree { return n.tree }

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

func (n *Node) Len() int { return len(n.children) }

func (n *Node) Child(i int) *Node { return n.children[i] }

// Index returns the position of n within its parent, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// FindRoot walks parent links up to the topmost node.
func (n *Node) FindRoot() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

func (n *Node) isAncestorOrSelf(of *Node) bool {
	for p := of; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) AppendChild(child *Node) error {
	return n.InsertChild(len(n.children), child)
}

// InsertChild inserts a detached child at position i. Nothing is modified
// when an error is returned.
func (n *Node) InsertChild(i int, child *Node) error {
	if child.parent != nil {
		return fmt.Errorf("%w: %s %q", ErrAttached, child.Kind(), child.Name)
	}
	if !Accepts(n, child.Kind()) {
		return fmt.Errorf("%w: %s under %s", ErrInvalidChild, child.Kind(), n.Kind())
	}
	if child.isAncestorOrSelf(n) {
		return fmt.Errorf("%w: %q would contain itself", ErrInvalidChild, child.Name)
	}
	if i < 0 || i > len(n.children) {
		return fmt.Errorf("insert index %d out of range [0, %d]", i, len(n.children))
	}
	if n.tree != nil {
		if err := n.tree.register(child); err != nil {
			return err
		}
	}

	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n

	n.tree.notify(Change{Kind: ChildAdded, Parent: n, Child: child, Index: i})
	return nil
}

// RemoveChild detaches child and its subtree.
func (n *Node) RemoveChild(child *Node) error {
	i := child.Index()
	if child.parent != n || i < 0 {
		return fmt.Errorf("%w: %q of %q", ErrNotChild, child.Name, n.Name)
	}

	n.children = append(n.children[:i], n.children[i+1:]...)
	child.parent = nil
	if n.tree != nil {
		n.tree.unregister(child)
	}

	n.tree.notify(Change{Kind: ChildRemoved, Parent: n, Child: child, Index: i})
	return nil
}

// InternalMove moves an existing child to position to within the same parent.
func (n *Node) InternalMove(child *Node, to int) error {
	from := child.Index()
	if child.parent != n || from < 0 {
		return fmt.Errorf("%w: %q of %q", ErrNotChild, child.Name, n.Name)
	}
	if to < 0 || to >= len(n.children) {
		return fmt.Errorf("move index %d out of range [0, %d)", to, len(n.children))
	}

	n.children = append(n.children[:from], n.children[from+1:]...)
	n.children = append(n.children, nil)
	copy(n.children[to+1:], n.children[to:])
	n.children[to] = child

	n.tree.notify(Change{Kind: ChildMoved, Parent: n, Child: child, Index: to})
	return nil
}

// RecursivelyRemoveChildren detaches every descendant of n and returns them
// in pre-order. Each returned node is left without parent or children so it
// can be re-inserted individually.
func (n *Node) RecursivelyRemoveChildren() []*Node {
	var removed []*Node
	for len(n.children) > 0 {
		child := n.children[0]
		descendants := child.RecursivelyRemoveChildren()
		// child is now a leaf, so only its own uuid leaves the index
		_ = n.RemoveChild(child)
		removed = append(removed, child)
		removed = append(removed, descendants...)
	}
	return removed
}
