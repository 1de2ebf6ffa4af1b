package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Index resolves uuids to nodes.
type Index interface {
	NodeFromUUID(id uuid.UUID) (*Node, error)
}

type ChangeKind int

const (
	ChildAdded ChangeKind = iota
	ChildRemoved
	ChildMoved
)

// Change is delivered to observers after a structural edit of a tree.
type Change struct {
	Kind   ChangeKind
	Parent *Node
	Child  *Node
	Index  int
}

// Tree owns every node below its Root and keeps a uuid index over them.
type Tree struct {
	Model ModelKind
	Root  *Node

	byUUID    map[uuid.UUID]*Node
	observers []func(Change)
}

// NewTree creates a tree holding an empty root for the given model.
func NewTree(model ModelKind) *Tree {
	t, _ := NewTreeFromRoot(New(model.defaultRootName(), &Root{Model: model}))
	return t
}

// NewTreeFromRoot adopts a detached root subtree.
func NewTreeFromRoot(root *Node) (*Tree, error) {
	r, ok := root.Data.(*Root)
	if !ok {
		return nil, fmt.Errorf("%w: tree root must be %s, got %s", ErrInvalidChild, KindRoot, root.Kind())
	}
	if root.parent != nil {
		return nil, fmt.Errorf("%w: root %q", ErrAttached, root.Name)
	}
	t := &Tree{
		Model:  r.Model,
		Root:   root,
		byUUID: make(map[uuid.UUID]*Node),
	}
	if err := t.register(root); err != nil {
		return nil, err
	}
	return t, nil
}

// NodeFromUUID looks id up across the whole tree.
func (t *Tree) NodeFromUUID(id uuid.UUID) (*Node, error) {
	if n, ok := t.byUUID[id]; ok {
		return n, nil
	}
	return nil, &NotFoundError{UUID: id}
}

func (t *Tree) Len() int { return len(t.byUUID) }

func (t *Tree) Walk(fn func(*Node)) { t.Root.Walk(fn) }

// Find returns every node matching pred in pre-order.
func (t *Tree) Find(pred func(*Node) bool) []*Node {
	var found []*Node
	t.Walk(func(n *Node) {
		if pred(n) {
			found = append(found, n)
		}
	})
	return found
}

// Observe registers fn to be called after every structural change.
func (t *Tree) Observe(fn func(Change)) {
	t.observers = append(t.observers, fn)
}

func (t *Tree) notify(c Change) {
	if t == nil {
		return
	}
	for _, fn := range t.observers {
		fn(c)
	}
}

// register indexes the subtree rooted at n. Either every node is indexed or
// none is.
func (t *Tree) register(n *Node) error {
	seen := make(map[uuid.UUID]bool)
	var dup *Node
	n.Walk(func(c *Node) {
		if dup != nil {
			return
		}
		if _, exists := t.byUUID[c.UUID]; exists || seen[c.UUID] {
			dup = c
			return
		}
		seen[c.UUID] = true
	})
	if dup != nil {
		return fmt.Errorf("%w: %s (%s %q)", ErrDuplicateUUID, dup.UUID, dup.Kind(), dup.Name)
	}

	n.Walk(func(c *Node) {
		t.byUUID[c.UUID] = c
		c.tree = t
	})
	return nil
}

func (t *Tree) unregister(n *Node) {
	n.Walk(func(c *Node) {
		delete(t.byUUID, c.UUID)
		c.tree = nil
	})
}

type subtreeIndex map[uuid.UUID]*Node

func (s subtreeIndex) NodeFromUUID(id uuid.UUID) (*Node, error) {
	if n, ok := s[id]; ok {
		return n, nil
	}
	return nil, &NotFoundError{UUID: id}
}

// IndexOf returns the index that covers n: its tree when attached, otherwise
// a snapshot index over the detached subtree containing n.
func IndexOf(n *Node) Index {
	if n.tree != nil {
		return n.tree
	}
	idx := make(subtreeIndex)
	n.FindRoot().Walk(func(c *Node) {
		idx[c.UUID] = c
	})
	return idx
}
