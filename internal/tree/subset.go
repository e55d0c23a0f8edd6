package tree

import "sort"

// NameSet is a set of leaf names
type NameSet map[string]struct{}

// NewNameSet returns a set holding names
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Ranks maps each name of an ordered list to its position. The first
// occurrence of a repeated name wins.
func Ranks(order []string) map[string]float64 {
	ranks := make(map[string]float64, len(order))
	for i, name := range order {
		if _, ok := ranks[name]; !ok {
			ranks[name] = float64(i)
		}
	}
	return ranks
}

// Subset prunes the tree under root to the leaves named in targets, in
// place. Kept children keep their relative order. A composite is kept iff
// it retains at least one child; the return value reports whether root
// itself would be kept.
func Subset(root *Node, targets NameSet) bool {
	if root.IsLeaf() {
		return targets.Has(root.name)
	}

	kept := root.children[:0:0]
	for _, c := range root.children {
		if Subset(c, targets) {
			kept = append(kept, c)
		}
	}
	root.children = kept
	return len(kept) != 0
}

// ScoreSubset prunes the tree under root like Subset, keeping the leaves
// that have a score, and sorts every composite's kept children by ascending
// score. A leaf's score is scores[name]; a composite's score is the mean of
// its kept children's scores. Equal scores keep their relative order.
func ScoreSubset(root *Node, scores map[string]float64) {
	scoreSubset(root, scores)
}

func scoreSubset(n *Node, scores map[string]float64) (bool, float64) {
	if n.IsLeaf() {
		score, ok := scores[n.name]
		return ok, score
	}

	type scored struct {
		node  *Node
		score float64
	}
	kept := make([]scored, 0, len(n.children))
	total := 0.0
	for _, c := range n.children {
		ok, score := scoreSubset(c, scores)
		if !ok {
			continue
		}
		kept = append(kept, scored{node: c, score: score})
		total += score
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score < kept[j].score
	})

	n.children = make([]*Node, len(kept))
	for i, k := range kept {
		n.children[i] = k.node
	}

	// Avoid dividing by zero when nothing was kept
	return len(kept) != 0, total / float64(max(1, len(kept)))
}
