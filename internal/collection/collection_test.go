package collection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

func newWithRequest(t *testing.T) *Collection {
	t.Helper()
	c := New()
	require.NoError(t, c.CreateGroup("g1"))
	_, err := c.CreateRequest("g1", "r1", types.MethodGet)
	require.NoError(t, err)
	return c
}

func TestCreateGroupOnce(t *testing.T) {
	c := New()
	require.NoError(t, c.CreateGroup("users"))

	err := c.CreateGroup("users")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateGroup))
	assert.Equal(t, errdef.CodeValidation, errdef.CodeOf(err))
	assert.Equal(t, []string{"users"}, c.GroupNames())
}

func TestCreateGroupRejectsBlankName(t *testing.T) {
	c := New()
	for _, name := range []string{"", "   "} {
		err := c.CreateGroup(name)
		assert.ErrorIs(t, err, ErrEmptyName)
	}
	assert.Zero(t, c.Len())
}

func TestGroupNamesSorted(t *testing.T) {
	c := New()
	for _, name := range []string{"zeta", "alpha", "mid-dle"} {
		require.NoError(t, c.CreateGroup(name))
	}
	assert.Equal(t, []string{"alpha", "mid-dle", "zeta"}, c.GroupNames())

	groups := c.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "alpha", groups[0].Name)
}

func TestCreateRequestErrors(t *testing.T) {
	c := newWithRequest(t)

	_, err := c.CreateRequest("g1", "r1", types.MethodPost)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	_, err = c.CreateRequest("missing", "r1", types.MethodPost)
	assert.ErrorIs(t, err, ErrUnknownGroup)
	assert.Equal(t, errdef.CodeAddressing, errdef.CodeOf(err))

	_, err = c.CreateRequest("g1", "", types.MethodPost)
	assert.ErrorIs(t, err, ErrEmptyName)

	g, _ := c.Group("g1")
	assert.Len(t, g.Requests, 1)
}

func TestRequestsKeepInsertionOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.CreateGroup("g"))
	for _, name := range []string{"c", "a", "b"} {
		_, err := c.CreateRequest("g", name, types.MethodGet)
		require.NoError(t, err)
	}
	g, ok := c.Group("g")
	require.True(t, ok)
	var names []string
	for _, r := range g.Requests {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestBasicAuthScenario(t *testing.T) {
	c := newWithRequest(t)

	require.NoError(t, c.SetField("g1", "r1", types.TextURL, "http://x"))
	require.NoError(t, c.SetAuthType("g1", "r1", types.AuthBasic))
	require.NoError(t, c.SetField("g1", "r1", types.TextUsername, "u"))
	require.NoError(t, c.SetField("g1", "r1", types.TextPassword, "p"))

	r, ok := c.Request("g1", "r1")
	require.True(t, ok)
	assert.Equal(t, "http://x", r.Details.URL)
	assert.Equal(t, "Basic dTpw", r.Details.Headers[types.AuthorizationHeader])

	require.NoError(t, c.SetAuthType("g1", "r1", types.AuthNone))
	r, _ = c.Request("g1", "r1")
	assert.NotContains(t, r.Details.Headers, types.AuthorizationHeader)
	assert.Nil(t, r.Details.Basic)
}

func TestCredentialsIgnoredWithoutBasic(t *testing.T) {
	c := newWithRequest(t)
	require.NoError(t, c.SetField("g1", "r1", types.TextUsername, "u"))

	r, _ := c.Request("g1", "r1")
	assert.Nil(t, r.Details.Basic)
	assert.Empty(t, r.Details.Headers)
}

func TestUpsertHeaderRejectsAuthorization(t *testing.T) {
	c := newWithRequest(t)

	for _, key := range []string{"Authorization", "authorization", " AUTHORIZATION "} {
		err := c.UpsertHeader("g1", "r1", key, "Bearer x")
		assert.ErrorIs(t, err, ErrReservedHeader)
	}
	r, _ := c.Request("g1", "r1")
	assert.Empty(t, r.Details.Headers)
}

func TestUpsertAndRemoveHeadersAndParams(t *testing.T) {
	c := newWithRequest(t)

	require.NoError(t, c.UpsertHeader("g1", "r1", "X-A", "1"))
	require.NoError(t, c.UpsertHeader("g1", "r1", "X-A", "2"))
	require.NoError(t, c.UpsertParam("g1", "r1", "q", "v"))
	assert.ErrorIs(t, c.UpsertParam("g1", "r1", "", "v"), ErrEmptyKey)

	r, _ := c.Request("g1", "r1")
	assert.Equal(t, map[string]string{"X-A": "2"}, r.Details.Headers)
	assert.Equal(t, map[string]string{"q": "v"}, r.Details.Params)

	require.NoError(t, c.RemoveHeader("g1", "r1", "X-A"))
	require.NoError(t, c.RemoveParam("g1", "r1", "q"))
	r, _ = c.Request("g1", "r1")
	assert.Empty(t, r.Details.Headers)
	assert.Empty(t, r.Details.Params)

	require.NoError(t, c.UpsertHeader("g1", "r1", "X-B", "1"))
	require.NoError(t, c.Apply("g1", "r1", Chain(RemoveHeader("X-B"), RemoveParam("missing"))))
	r, _ = c.Request("g1", "r1")
	assert.Empty(t, r.Details.Headers)
}

func TestRemoveHeaderKeepsDerivedAuthorization(t *testing.T) {
	c := newWithRequest(t)
	require.NoError(t, c.SetAuthType("g1", "r1", types.AuthBasic))
	require.NoError(t, c.SetField("g1", "r1", types.TextUsername, "u"))

	assert.ErrorIs(t, c.RemoveHeader("g1", "r1", "authorization"), ErrReservedHeader)
	r, _ := c.Request("g1", "r1")
	assert.Contains(t, r.Details.Headers, types.AuthorizationHeader)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	c := newWithRequest(t)

	updated, err := c.Preview("g1", "r1", SetMethod(types.MethodDelete))
	require.NoError(t, err)
	assert.Equal(t, types.MethodDelete, updated.Method)

	r, _ := c.Request("g1", "r1")
	assert.Equal(t, types.MethodGet, r.Method)
}

func TestFailedMutationLeavesRequestUnchanged(t *testing.T) {
	c := newWithRequest(t)
	err := c.Apply("g1", "r1", Chain(SetField(types.TextURL, "http://changed"), UpsertHeader("Authorization", "x")))
	require.Error(t, err)

	r, _ := c.Request("g1", "r1")
	assert.Empty(t, r.Details.URL)
}

func TestDeleteGroupAndRequest(t *testing.T) {
	c := newWithRequest(t)
	_, err := c.CreateRequest("g1", "r2", types.MethodPut)
	require.NoError(t, err)

	removed, err := c.DeleteRequest("g1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", removed.Name)
	_, ok := c.Request("g1", "r1")
	assert.False(t, ok)

	_, err = c.DeleteRequest("g1", "r1")
	assert.ErrorIs(t, err, ErrUnknownRequest)

	g, err := c.DeleteGroup("g1")
	require.NoError(t, err)
	assert.Len(t, g.Requests, 1)
	assert.Empty(t, c.GroupNames())

	_, err = c.DeleteGroup("g1")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	c := newWithRequest(t)
	r, _ := c.Request("g1", "r1")
	r.Details.Headers["X-Leak"] = "1"

	again, _ := c.Request("g1", "r1")
	assert.NotContains(t, again.Details.Headers, "X-Leak")
}

func TestFromGroupsKeepsIDs(t *testing.T) {
	req := types.NewRequest("r1", types.MethodGet)
	req.ID = 7
	c, err := FromGroups([]types.Group{{ID: 3, Name: "g1", Requests: []types.Request{req}}})
	require.NoError(t, err)

	g, _ := c.Group("g1")
	assert.Equal(t, int64(3), g.ID)
	assert.Equal(t, int64(7), g.Requests[0].ID)

	_, err = FromGroups([]types.Group{{Name: "a"}, {Name: "a"}})
	assert.ErrorIs(t, err, ErrDuplicateGroup)
}
