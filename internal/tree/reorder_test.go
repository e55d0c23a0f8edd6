package tree_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tso/internal/tree"
)

// reversed mirrors every child list of d
func reversed(d *tree.OrderNode) *tree.OrderNode {
	out := *d
	out.Children = nil
	for i := len(d.Children) - 1; i >= 0; i-- {
		out.Children = append(out.Children, reversed(d.Children[i]))
	}
	return &out
}

// orderNames lists the leaf names of an order tree depth-first
func orderNames(d *tree.OrderNode) []string {
	names := []string{}
	var dfs func(d *tree.OrderNode)
	dfs = func(d *tree.OrderNode) {
		if d.Type == tree.TestCaseNodeType {
			names = append(names, d.TestName)
			return
		}
		for _, c := range d.Children {
			dfs(c)
		}
	}
	dfs(d)
	return names
}

func TestEncode(t *testing.T) {
	var ids tree.IDSource
	root := sample(&ids)

	raw, err := json.Marshal(tree.Encode(root))
	require.NoError(t, err)

	var decoded tree.OrderTree
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, decoded.Validate())

	assert.Equal(t, tree.TreeType, decoded.Type)
	assert.Equal(t, root.ID().String(), decoded.Root.ID)
	assert.Equal(t, root.Children()[1].ID().String(), decoded.Root.Children[1].ID)
	assert.Equal(t, tree.ListNames(root), orderNames(decoded.Root))
}

func TestReorder_FullPermutation(t *testing.T) {
	var ids tree.IDSource
	root := sample(&ids)

	order := tree.Encode(root)
	order.Root = reversed(order.Root)

	require.NoError(t, tree.Reorder(root, order))

	want := []string{"tests/d_test.py", "tests/pkg/c_test.py", "tests/pkg/b_test.py", "tests/a_test.py"}
	if diff := cmp.Diff(want, tree.ListNames(root)); diff != "" {
		t.Errorf("ListNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orderNames(order.Root), tree.ListNames(root)); diff != "" {
		t.Errorf("tree does not follow the order (-want +got):\n%s", diff)
	}
}

func TestReorder_PartialOrderDropsUnlisted(t *testing.T) {
	var ids tree.IDSource
	root := sample(&ids)
	pkg := root.Children()[1]

	order := &tree.OrderTree{
		Type: tree.TreeType,
		Root: &tree.OrderNode{
			Type: tree.TreeNodeType,
			ID:   root.ID().String(),
			Children: []*tree.OrderNode{
				{Type: tree.TestCaseNodeType, TestName: "tests/d_test.py"},
				{
					Type: tree.TreeNodeType,
					ID:   pkg.ID().String(),
					Children: []*tree.OrderNode{
						{Type: tree.TestCaseNodeType, TestName: "tests/pkg/c_test.py"},
					},
				},
			},
		},
	}

	require.NoError(t, tree.Reorder(root, order))

	want := []string{"tests/d_test.py", "tests/pkg/c_test.py"}
	if diff := cmp.Diff(want, tree.ListNames(root)); diff != "" {
		t.Errorf("ListNames mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, root.Len())
}

func TestReorder_UnknownNamesIgnored(t *testing.T) {
	var ids tree.IDSource
	root := sample(&ids)

	order := tree.Encode(root)
	order.Root.Children = append([]*tree.OrderNode{
		{Type: tree.TestCaseNodeType, TestName: "tests/unknown_test.py"},
		{Type: tree.TreeNodeType, ID: "999999", Children: []*tree.OrderNode{
			{Type: tree.TestCaseNodeType, TestName: "tests/a_test.py"},
		}},
	}, order.Root.Children...)

	require.NoError(t, tree.Reorder(root, order))
	assert.Equal(t, []string{"tests/a_test.py", "tests/pkg/b_test.py", "tests/pkg/c_test.py", "tests/d_test.py"}, tree.ListNames(root))
}

func TestReorder_DuplicateNames(t *testing.T) {
	var ids tree.IDSource
	first := tree.NewLeaf(&ids, "dup.py")
	second := tree.NewLeaf(&ids, "dup.py")
	other := tree.NewLeaf(&ids, "other.py")
	root := tree.NewComposite(&ids, first, other, second)

	order := &tree.OrderTree{Type: tree.TreeType, Root: &tree.OrderNode{
		Type: tree.TreeNodeType,
		ID:   root.ID().String(),
		Children: []*tree.OrderNode{
			{Type: tree.TestCaseNodeType, TestName: "dup.py"},
			{Type: tree.TestCaseNodeType, TestName: "dup.py"},
			{Type: tree.TestCaseNodeType, TestName: "dup.py"},
			{Type: tree.TestCaseNodeType, TestName: "other.py"},
		},
	}}

	require.NoError(t, tree.Reorder(root, order))

	got := root.Children()
	require.Len(t, got, 3)
	assert.Same(t, first, got[0])
	assert.Same(t, second, got[1])
	assert.Same(t, other, got[2])
}

func TestReorder_Empty(t *testing.T) {
	var ids tree.IDSource
	root := sample(&ids)
	before := tree.ListNames(root)

	require.NoError(t, tree.Reorder(root, nil))
	require.NoError(t, tree.Reorder(root, &tree.OrderTree{}))
	assert.Equal(t, before, tree.ListNames(root))
}

func TestReorder_UnexpectedNodeType(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *tree.OrderTree)
	}{
		{
			name:   "top level",
			mutate: func(o *tree.OrderTree) { o.Type = "forest" },
		},
		{
			name:   "root",
			mutate: func(o *tree.OrderTree) { o.Root.Type = "branch" },
		},
		{
			name: "deep child after valid siblings",
			mutate: func(o *tree.OrderTree) {
				o.Root = reversed(o.Root)
				o.Root.Children[1].Children[0].Type = "testNode"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids tree.IDSource
			root := sample(&ids)
			before := tree.Encode(root)

			order := tree.Encode(root)
			tt.mutate(order)

			err := tree.Reorder(root, order)
			require.ErrorIs(t, err, tree.ErrUnexpectedNodeType)

			if diff := cmp.Diff(before, tree.Encode(root)); diff != "" {
				t.Errorf("tree was modified (-before +after):\n%s", diff)
			}
		})
	}
}
