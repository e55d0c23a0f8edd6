package tree

import (
	"errors"
	"fmt"
)

// Node type tags of the order-tree wire format
const (
	TreeType         = "tree"
	TreeNodeType     = "treeNode"
	TestCaseNodeType = "testCaseNode"
)

// ErrUnexpectedNodeType is returned when an order tree carries a tag other
// than the three known ones. It indicates a programming error on either
// side and is not retried.
var ErrUnexpectedNodeType = errors.New("unexpected node type")

// OrderTree is the serialized form of a tree, used both as the reorder
// request payload and as the response.
type OrderTree struct {
	Type string     `json:"type"`
	Root *OrderNode `json:"root,omitempty"`
}

// OrderNode describes a composite (treeNode, matched by ID) or a leaf
// (testCaseNode, matched by TestName).
type OrderNode struct {
	Type     string       `json:"type"`
	ID       string       `json:"id,omitempty"`
	TestName string       `json:"testName,omitempty"`
	Children []*OrderNode `json:"children,omitempty"`
}

// Empty reports whether the tree carries no information at all
func (t *OrderTree) Empty() bool {
	return t == nil || (t.Type == "" && t.Root == nil)
}

// Encode serializes the tree under root
func Encode(root *Node) *OrderTree {
	return &OrderTree{Type: TreeType, Root: encode(root)}
}

func encode(n *Node) *OrderNode {
	if n.IsLeaf() {
		return &OrderNode{Type: TestCaseNodeType, TestName: n.name}
	}
	children := make([]*OrderNode, len(n.children))
	for i, c := range n.children {
		children[i] = encode(c)
	}
	return &OrderNode{Type: TreeNodeType, ID: n.id.String(), Children: children}
}

// Validate checks every tag in t
func (t *OrderTree) Validate() error {
	if t.Type != TreeType {
		return fmt.Errorf("%w: %q at the top level", ErrUnexpectedNodeType, t.Type)
	}
	if t.Root == nil {
		return nil
	}
	return t.Root.validate()
}

func (d *OrderNode) validate() error {
	switch d.Type {
	case TestCaseNodeType:
		return nil
	case TreeNodeType:
		for _, c := range d.Children {
			if c == nil {
				return fmt.Errorf("%w: null child of node %q", ErrUnexpectedNodeType, d.ID)
			}
			if err := c.validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnexpectedNodeType, d.Type)
	}
}
