package tree

// Reorder rewrites the child lists under root to follow order, in place.
//
// At each composite the described children are matched against the
// current ones, leaves by name and composites by id, and become the new
// child list in the described order. Current children that the order does
// not mention are dropped, so an order naming only some children acts as a
// subset. Names and ids that match nothing are ignored.
//
// The whole order is validated and the new child lists are computed before
// anything is assigned: on error the tree is left untouched.
func Reorder(root *Node, order *OrderTree) error {
	if order.Empty() {
		return nil
	}
	if err := order.Validate(); err != nil {
		return err
	}
	if order.Root == nil {
		return nil
	}

	var plan []assignment
	planReorder(root, order.Root, &plan)
	for _, a := range plan {
		a.node.children = a.children
	}
	return nil
}

type assignment struct {
	node     *Node
	children []*Node
}

// planReorder appends the child list n should get according to desc, then
// recurses into the matched composites. A leaf or a testCaseNode is
// terminal: its position was fixed by its parent.
func planReorder(n *Node, desc *OrderNode, plan *[]assignment) {
	if n.IsLeaf() || desc.Type == TestCaseNodeType {
		return
	}

	// Sibling leaves may share a name; they are handed out in their
	// current order.
	leaves := make(map[string][]*Node)
	composites := make(map[string]*Node)
	for _, c := range n.children {
		if c.IsLeaf() {
			leaves[c.name] = append(leaves[c.name], c)
		} else {
			composites[c.id.String()] = c
		}
	}

	type match struct {
		node *Node
		desc *OrderNode
	}
	var nested []match
	children := make([]*Node, 0, len(desc.Children))

	for _, d := range desc.Children {
		switch d.Type {
		case TestCaseNodeType:
			queue := leaves[d.TestName]
			if len(queue) == 0 {
				continue
			}
			children = append(children, queue[0])
			leaves[d.TestName] = queue[1:]
		case TreeNodeType:
			c, ok := composites[d.ID]
			if !ok {
				continue
			}
			delete(composites, d.ID)
			children = append(children, c)
			nested = append(nested, match{node: c, desc: d})
		}
	}

	*plan = append(*plan, assignment{node: n, children: children})
	for _, m := range nested {
		planReorder(m.node, m.desc, plan)
	}
}
