package tree

// ListNames returns the names of the non-empty leaves under n, depth-first
// and left to right. It does not modify the tree.
func ListNames(n *Node) []string {
	names := []string{}

	var dfs func(n *Node)
	dfs = func(n *Node) {
		if n.IsLeaf() {
			if !n.empty {
				names = append(names, n.name)
			}
			return
		}
		for _, c := range n.children {
			dfs(c)
		}
	}

	dfs(n)
	return names
}

// IsEmpty reports whether no test case is reachable from n. It returns as
// soon as a non-empty leaf is found.
func IsEmpty(n *Node) bool {
	if n.IsLeaf() {
		return n.empty
	}
	for _, c := range n.children {
		if !IsEmpty(c) {
			return false
		}
	}
	return true
}
