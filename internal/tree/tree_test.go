package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiquest/internal/types"
)

func sampleGroups() []types.Group {
	return []types.Group{
		{Name: "zeta", Requests: []types.Request{
			types.NewRequest("list", types.MethodGet),
		}},
		{Name: "a-b", Requests: []types.Request{
			types.NewRequest("c", types.MethodPost),
			types.NewRequest("create-user", types.MethodPut),
		}},
		{Name: "a", Requests: []types.Request{
			types.NewRequest("b-c", types.MethodDelete),
		}},
	}
}

func labels(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Node.Label
	}
	return out
}

func TestBuildOrdersGroupsByName(t *testing.T) {
	tr := Build(sampleGroups())

	require.Len(t, tr.Root.Children, 3)
	assert.Equal(t, "a", tr.Root.Children[0].Label)
	assert.Equal(t, "a-b", tr.Root.Children[1].Label)
	assert.Equal(t, "zeta", tr.Root.Children[2].Label)

	ab := tr.Root.Children[1]
	assert.Equal(t, "+ POST c", ab.Children[0].Label)
	assert.Equal(t, "↺ PUT create-user", ab.Children[1].Label)
}

func TestAddressesWithDashesStayDistinct(t *testing.T) {
	// "a" / "b-c" and "a-b" / "c" collide under a naive "request-<g>-<r>" scheme
	x := RequestAddr("a", "b-c")
	y := RequestAddr("a-b", "c")
	assert.NotEqual(t, x.Key(), y.Key())

	tr := Build(sampleGroups())
	nx, ok := tr.Find(x)
	require.True(t, ok)
	assert.Equal(t, types.MethodDelete, nx.Method)

	ny, ok := tr.Find(y)
	require.True(t, ok)
	assert.Equal(t, types.MethodPost, ny.Method)
}

func TestFindUnknown(t *testing.T) {
	tr := Build(sampleGroups())
	_, ok := tr.Find(RequestAddr("zeta", "missing"))
	assert.False(t, ok)
	assert.True(t, tr.Contains(Root()))
}

func TestFlattenRespectsExpansion(t *testing.T) {
	tr := Build(sampleGroups())

	collapsed := tr.Flatten(nil)
	assert.Equal(t, []string{"/", "a", "a-b", "zeta"}, labels(collapsed))

	open := tr.Flatten(func(a Address) bool { return a == GroupAddr("a-b") })
	assert.Equal(t, []string{"/", "a", "a-b", "+ POST c", "↺ PUT create-user", "zeta"}, labels(open))
	assert.Equal(t, 2, open[3].Depth)
}

func TestNavigatorMovement(t *testing.T) {
	tr := Build(sampleGroups())
	nav := NewNavigator()

	nav.MoveUp(tr)
	assert.Equal(t, Root(), nav.Selected())

	nav.MoveDown(tr)
	assert.Equal(t, GroupAddr("a"), nav.Selected())

	nav.Open()
	nav.MoveDown(tr)
	assert.Equal(t, RequestAddr("a", "b-c"), nav.Selected())

	nav.Close()
	assert.Equal(t, GroupAddr("a"), nav.Selected())
	nav.Close()
	assert.False(t, nav.IsOpen(GroupAddr("a")))

	nav.Last(tr)
	assert.Equal(t, GroupAddr("zeta"), nav.Selected())
	nav.MoveDown(tr)
	assert.Equal(t, GroupAddr("zeta"), nav.Selected())
}

func TestNavigatorSelectOpensGroup(t *testing.T) {
	tr := Build(sampleGroups())
	nav := NewNavigator()

	assert.True(t, nav.Select(tr, RequestAddr("zeta", "list")))
	assert.True(t, nav.IsOpen(GroupAddr("zeta")))
	assert.Equal(t, 4, nav.CursorIndex(tr))

	assert.False(t, nav.Select(tr, RequestAddr("zeta", "nope")))
	assert.Equal(t, RequestAddr("zeta", "list"), nav.Selected())
}

func TestNavigatorReconcileAfterDelete(t *testing.T) {
	groups := sampleGroups()
	nav := NewNavigator()
	require.True(t, nav.Select(Build(groups), RequestAddr("a", "b-c")))

	rebuilt := Build(groups[:2])
	assert.True(t, nav.Reconcile(rebuilt))
	assert.Equal(t, Root(), nav.Selected())
	assert.False(t, nav.IsOpen(GroupAddr("a")))
}

func TestNavigatorToggle(t *testing.T) {
	tr := Build(sampleGroups())
	nav := NewNavigator()
	nav.Select(tr, GroupAddr("zeta"))

	nav.Toggle()
	assert.True(t, nav.IsOpen(GroupAddr("zeta")))
	nav.Toggle()
	assert.False(t, nav.IsOpen(GroupAddr("zeta")))
}

func TestSearch(t *testing.T) {
	tr := Build(sampleGroups())

	assert.Empty(t, tr.Search(""))

	hits := tr.Search("creatuser")
	require.NotEmpty(t, hits)
	assert.Equal(t, RequestAddr("a-b", "create-user"), hits[0].Node.Address)
}
