package tree

// FailureName is the name given to a leaf standing for a module that
// failed to load.
const FailureName = "failure"

// Source is the host framework's view of its suites. The tree package
// treats it as opaque: it only asks whether a suite is a leaf, what a
// leaf is called, and whether a suite directly executes a test case.
type Source interface {
	// Leaf reports whether the suite is one executable unit (a loadable
	// module, a class, or a failed-to-load marker).
	Leaf() bool
	// Name returns a leaf's test name, conventionally a relative file path.
	Name() string
	// Runnable reports whether the suite directly executes a test case,
	// or is a generator that must not be expanded.
	Runnable() bool
	// Children returns the nested suites. It may be called more than once.
	Children() []Source
}

// Build materializes src into a Node tree, assigning ids from ids in
// pre-order. Leaves that contain no test cases are marked empty.
func Build(ids *IDSource, src Source) *Node {
	if src.Leaf() {
		if IsEmptySource(src) {
			return NewEmptyLeaf(ids, src.Name())
		}
		return NewLeaf(ids, src.Name())
	}

	n := &Node{id: ids.Next(), kind: Composite}
	for _, c := range src.Children() {
		n.children = append(n.children, Build(ids, c))
	}
	return n
}

// IsEmptySource reports whether src contains no test case. The search
// stops at the first runnable suite and never descends into one, so
// generator suites are not invoked.
func IsEmptySource(src Source) bool {
	empty := true

	var dfs func(s Source)
	dfs = func(s Source) {
		if !empty {
			return
		}
		if s.Runnable() {
			empty = false
			return
		}
		for _, c := range s.Children() {
			dfs(c)
			if !empty {
				return
			}
		}
	}

	dfs(src)
	return empty
}
