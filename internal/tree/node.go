// Package tree models a host's nested test suites and implements the
// selection algorithms (listing, reordering and subsetting) over it.
//
// A tree is built once per run from the host's representation, mutated in
// place by the selection algorithms, and discarded once execution begins.
// Trees are not safe for concurrent use.
package tree

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// ID identifies a node for the lifetime of the process
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDSource hands out monotonically increasing node ids, starting at 1.
// The zero value is ready to use and safe for concurrent use.
type IDSource struct {
	last atomic.Uint64
}

// Next returns an id that has not been returned before
func (s *IDSource) Next() ID {
	return ID(s.last.Add(1))
}

// Kind tells composites and leaves apart
type Kind int

const (
	Composite Kind = iota
	Leaf
)

func (k Kind) String() string {
	if k == Leaf {
		return "leaf"
	}
	return "composite"
}

// Node is either a composite grouping ordered children, or a leaf naming
// one directly executable unit.
type Node struct {
	id       ID
	kind     Kind
	name     string
	empty    bool
	children []*Node
}

// NewComposite creates a composite node owning children in execution order
func NewComposite(ids *IDSource, children ...*Node) *Node {
	n := &Node{id: ids.Next(), kind: Composite}
	n.children = append(make([]*Node, 0, len(children)), children...)
	return n
}

// NewLeaf creates a leaf for the executable unit called name
func NewLeaf(ids *IDSource, name string) *Node {
	return &Node{id: ids.Next(), kind: Leaf, name: name}
}

// NewEmptyLeaf creates a leaf known to hold no test cases.
// Empty leaves stay in the tree but are not listed.
func NewEmptyLeaf(ids *IDSource, name string) *Node {
	n := NewLeaf(ids, name)
	n.empty = true
	return n
}

func (n *Node) ID() ID { return n.id }
func (n *Node) Kind() Kind { return n.kind }
func (n *Node) IsLeaf() bool { return n.kind == Leaf }

// Name returns a leaf's test name; composites have none
func (n *Node) Name() string { return n.name }

// Empty reports whether a leaf holds no test cases
func (n *Node) Empty() bool { return n.kind == Leaf && n.empty }

// Children returns a copy of the current child list
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Len returns the number of direct children
func (n *Node) Len() int { return len(n.children) }

func (n *Node) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("leaf#%d(%s)", n.id, n.name)
	}
	return fmt.Sprintf("composite#%d[%d]", n.id, len(n.children))
}
