package workspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/history"
	"github.com/studiowebux/apiquest/internal/navigation"
	"github.com/studiowebux/apiquest/internal/store"
	"github.com/studiowebux/apiquest/internal/tree"
	"github.com/studiowebux/apiquest/internal/types"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "apiquest.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newWorkspace(t *testing.T, p Persister) *Workspace {
	t.Helper()
	w, err := New(p, Options{})
	require.NoError(t, err)
	return w
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func createGroup(t *testing.T, w *Workspace, name string) {
	t.Helper()
	w.OpenGroupEditor()
	w.TypeDraft(name)
	require.NoError(t, w.ConfirmGroup())
}

func createRequest(t *testing.T, w *Workspace, group, name string) {
	t.Helper()
	w.Select(tree.GroupAddr(group))
	w.StartAddRequest()
	w.TypeDraft(name)
	require.NoError(t, w.ConfirmRequest())
}

func focusField(t *testing.T, w *Workspace, f navigation.Field) {
	t.Helper()
	if !w.State().InDetails() {
		w.FocusDetails()
	}
	for i := 0; i < 8 && w.State().Field() != f; i++ {
		w.NextField()
	}
	require.Equal(t, f, w.State().Field())
}

func TestBasicAuthScenarioPersists(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)

	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")
	assert.Equal(t, navigation.Selection{Group: "g1", Request: "r1"}, w.State().Selection())

	focusField(t, w, navigation.FieldAuthType)
	w.Right(tea.KeyMsg{Type: tea.KeyRight})

	focusField(t, w, navigation.FieldAuthUsername)
	w.Edit(keys("u"))
	focusField(t, w, navigation.FieldAuthPassword)
	w.Edit(keys("p"))

	req, ok := w.SelectedRequest()
	require.True(t, ok)
	assert.Equal(t, "Basic dTpw", req.Details.Headers[types.AuthorizationHeader])

	groups, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Requests, 1)
	stored := groups[0].Requests[0]
	assert.Equal(t, types.AuthBasic, stored.Details.AuthType)
	assert.Equal(t, "Basic dTpw", stored.Details.Headers[types.AuthorizationHeader])

	reopened := newWorkspace(t, s)
	reopened.Select(tree.RequestAddr("g1", "r1"))
	assert.Equal(t, "u", reopened.Buffers().Values().Username)
	assert.Equal(t, "p", reopened.Buffers().Values().Password)
}

func TestSwitchingAuthOffClearsPayload(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")

	focusField(t, w, navigation.FieldAuthType)
	w.CycleAuth(true)
	focusField(t, w, navigation.FieldAuthPassword)
	w.Edit(keys("p"))

	w.CycleAuth(true)
	assert.Equal(t, navigation.FieldAuthType, w.State().Field())

	req, _ := w.SelectedRequest()
	assert.Equal(t, types.AuthNone, req.Details.AuthType)
	assert.Nil(t, req.Details.Basic)
	assert.NotContains(t, req.Details.Headers, types.AuthorizationHeader)

	w.CycleAuth(true)
	req, _ = w.SelectedRequest()
	require.NotNil(t, req.Details.Basic)
	assert.Empty(t, req.Details.Basic.Password)
}

func TestDeletingGroupClearsSelection(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")

	w.StartDelete()
	w.MoveUp()
	require.Equal(t, tree.GroupAddr("g1"), w.Navigator().Selected())
	w.PickDeleteTarget()
	assert.Contains(t, w.DeletePrompt(), "1 request")
	require.NoError(t, w.ConfirmDelete())

	assert.True(t, w.State().IsMain())
	assert.False(t, w.State().Selection().HasGroup())
	assert.True(t, w.Navigator().Selected().IsRoot())
	assert.Empty(t, w.Groups())

	groups, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestDeletingRequestKeepsGroupSelected(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")
	createRequest(t, w, "g1", "r2")

	w.StartDelete()
	w.Select(tree.RequestAddr("g1", "r1"))
	w.PickDeleteTarget()
	require.NoError(t, w.ConfirmDelete())

	g, ok := w.SelectedGroup()
	require.True(t, ok)
	require.Len(t, g.Requests, 1)
	assert.Equal(t, "r2", g.Requests[0].Name)
	_, ok = w.SelectedRequest()
	assert.False(t, ok)
}

func TestRootCannotBeDeleted(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "g1")

	w.StartDelete()
	w.Select(tree.Root())
	w.PickDeleteTarget()
	assert.True(t, w.Status().Error)
	_, isPicking := w.State().Screen().(navigation.Deleting)
	assert.True(t, isPicking)
}

func TestDuplicateNamesAreRejected(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "g1")

	w.OpenGroupEditor()
	w.TypeDraft(" g1 ")
	err := w.ConfirmGroup()
	require.Error(t, err)
	assert.True(t, errdef.Is(err, errdef.CodeValidation))
	assert.True(t, w.Status().Error)
	_, editing := w.State().Screen().(navigation.Editing)
	assert.True(t, editing, "prompt stays open after a rejected name")

	w.Cancel()
	createRequest(t, w, "g1", "r1")
	w.Select(tree.GroupAddr("g1"))
	w.StartAddRequest()
	w.TypeDraft("r1")
	assert.Error(t, w.ConfirmRequest())
}

func TestAddRequestNeedsGroup(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	w.StartAddRequest()
	assert.True(t, w.State().IsMain())
	assert.True(t, w.Status().Error)
}

func TestHeaderOverlay(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")

	focusField(t, w, navigation.FieldHeaders)
	w.OpenOverlay()
	w.OverlayType("X-Trace")
	w.OverlaySwitch()
	w.OverlayType("abc")
	require.NoError(t, w.SaveOverlay())

	req, _ := w.SelectedRequest()
	assert.Equal(t, "abc", req.Details.Headers["X-Trace"])

	w.OpenOverlay()
	w.OverlayType("Authorization")
	w.OverlaySwitch()
	w.OverlayType("Bearer x")
	err := w.SaveOverlay()
	require.Error(t, err)
	_, open := w.State().Overlay()
	assert.True(t, open, "rejected entry keeps the overlay open")
	w.Cancel()

	w.OpenOverlay()
	w.OverlayType("X-Trace")
	require.NoError(t, w.RemoveOverlayKey())

	stored, err := s.GetRequest(req.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.Details.Headers, "X-Trace")
}

func TestParamOverlay(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")

	focusField(t, w, navigation.FieldParams)
	w.OpenOverlay()
	w.OverlayType("q")
	w.OverlaySwitch()
	w.OverlayType("1")
	require.NoError(t, w.SaveOverlay())

	req, _ := w.SelectedRequest()
	assert.Equal(t, map[string]string{"q": "1"}, req.Details.Params)
}

func TestCycleMethodUpdatesTreeLabel(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")

	w.CycleMethod(true)
	req, _ := w.SelectedRequest()
	assert.Equal(t, types.MethodGet.Next(), req.Method)

	node, ok := w.Tree().Find(tree.RequestAddr("g1", "r1"))
	require.True(t, ok)
	assert.Equal(t, req.Label(), node.Label)
}

func TestURLEditsFlushOnSelectionChange(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")
	createRequest(t, w, "g1", "r2")

	w.Select(tree.RequestAddr("g1", "r1"))
	focusField(t, w, navigation.FieldURL)
	w.Paste("http://example.test")
	w.FocusTree()
	w.MoveDown()

	assert.Equal(t, navigation.Selection{Group: "g1", Request: "r2"}, w.State().Selection())
	assert.Empty(t, w.Buffers().Values().URL)

	groups, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", groups[0].Requests[0].Details.URL)
}

type failingUpdates struct {
	*store.Store
}

func (failingUpdates) UpdateRequest(int64, types.Request) error {
	return errdef.New(errdef.CodeStorage, "disk full")
}

func TestFailedWriteLeavesModelUntouched(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")

	w, err := New(failingUpdates{s}, Options{})
	require.NoError(t, err)
	w.Select(tree.RequestAddr("g1", "r1"))

	w.CycleMethod(true)
	req, _ := w.SelectedRequest()
	assert.Equal(t, types.MethodGet, req.Method)
	assert.True(t, w.Status().Error)
	assert.Equal(t, "disk full", w.Status().Text)

	focusField(t, w, navigation.FieldURL)
	w.Edit(keys("h"))
	req, _ = w.SelectedRequest()
	assert.Empty(t, req.Details.URL)
	assert.Empty(t, w.Buffers().Values().URL, "buffers are rebuilt from the model")
}

func TestSendRunsOffTheModelSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")
	focusField(t, w, navigation.FieldURL)
	w.Paste(srv.URL)

	sent, job, err := w.Send()
	require.NoError(t, err)
	assert.True(t, w.Busy())
	assert.Equal(t, srv.URL, sent.Details.URL)

	_, _, err = w.Send()
	assert.ErrorIs(t, err, executor.ErrInFlight)

	resp, err := job(context.Background())
	w.SetResponse(sent, resp, err)
	require.NoError(t, err)
	assert.False(t, w.Busy())
	assert.Equal(t, http.StatusCreated, w.Response().Status)
	assert.False(t, w.Status().Error)

	w.OpenDetail()
	body, err := w.ResponseBody(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"id":7}`, body)

	w.EditFilter()
	w.TypeDraft("id")
	w.ApplyFilter()
	body, err = w.ResponseBody(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", body)
}

func TestSendRecordsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := openStore(t)
	hist := history.NewManager(s.DB(), 0)
	w, err := New(s, Options{History: hist})
	require.NoError(t, err)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")
	focusField(t, w, navigation.FieldURL)
	w.Paste(srv.URL)

	sent, job, err := w.Send()
	require.NoError(t, err)
	resp, err := job(context.Background())
	w.SetResponse(sent, resp, err)

	req, ok := w.SelectedRequest()
	require.True(t, ok)
	entries, err := hist.Load(req.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, http.StatusAccepted, entries[0].Status)
	assert.Equal(t, srv.URL, entries[0].URL)

	// a response without a sent request is shown but not recorded
	w.SetResponse(types.Request{}, &types.Response{Status: 200}, nil)
	entries, err = hist.Load(req.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInterleavedSendsRecordAgainstTheirOwnRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/a" {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := openStore(t)
	hist := history.NewManager(s.DB(), 0)
	w, err := New(s, Options{History: hist})
	require.NoError(t, err)
	createGroup(t, w, "g1")
	for _, name := range []string{"a", "b"} {
		createRequest(t, w, "g1", name)
		focusField(t, w, navigation.FieldURL)
		w.Paste(srv.URL + "/" + name)
		w.FocusTree()
	}

	// the slot frees when a job returns, before its response is handled
	w.Select(tree.RequestAddr("g1", "a"))
	sentA, jobA, err := w.Send()
	require.NoError(t, err)
	respA, errA := jobA(context.Background())

	w.Select(tree.RequestAddr("g1", "b"))
	sentB, jobB, err := w.Send()
	require.NoError(t, err)
	respB, errB := jobB(context.Background())

	w.SetResponse(sentA, respA, errA)
	w.SetResponse(sentB, respB, errB)

	for _, want := range []struct {
		sent   types.Request
		status int
		url    string
	}{
		{sentA, http.StatusCreated, srv.URL + "/a"},
		{sentB, http.StatusAccepted, srv.URL + "/b"},
	} {
		entries, err := hist.Load(want.sent.ID, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1, want.sent.Name)
		assert.Equal(t, want.status, entries[0].Status, want.sent.Name)
		assert.Equal(t, want.url, entries[0].URL, want.sent.Name)
	}
	assert.Equal(t, http.StatusAccepted, w.Response().Status)
}

func TestSendWithoutSelection(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	_, _, err := w.Send()
	require.Error(t, err)
	assert.True(t, w.Status().Error)
}

func TestNetworkFailureKeepsResponse(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	w.SetResponse(types.Request{}, nil, errors.New("boom"))
	require.NotNil(t, w.Response())
	assert.Equal(t, "boom", w.Response().Error)
	assert.True(t, w.Status().Error)
}

func TestSearchSelectsBestMatch(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "users")
	createRequest(t, w, "users", "list")
	createGroup(t, w, "orders")

	w.StartSearch()
	w.TypeDraft("uslist")
	require.NotEmpty(t, w.SearchResults())
	w.ConfirmSearch()

	assert.True(t, w.State().IsMain())
	assert.Equal(t, navigation.Selection{Group: "users", Request: "list"}, w.State().Selection())
}

func TestQuitFlushesAndCanBeDenied(t *testing.T) {
	s := openStore(t)
	w := newWorkspace(t, s)
	createGroup(t, w, "g1")
	createRequest(t, w, "g1", "r1")
	focusField(t, w, navigation.FieldBody)
	w.Paste("{}")

	w.Quit()
	assert.True(t, w.State().IsExiting())
	groups, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, "{}", groups[0].Requests[0].Details.Body)

	w.DenyQuit()
	assert.True(t, w.State().IsMain())
}

func TestSelectionIndices(t *testing.T) {
	w := newWorkspace(t, openStore(t))
	createGroup(t, w, "b")
	createGroup(t, w, "a")
	createRequest(t, w, "b", "x")
	createRequest(t, w, "b", "y")

	w.Select(tree.RequestAddr("b", "y"))
	g, r := w.SelectionIndices()
	assert.Equal(t, 1, g)
	assert.Equal(t, 1, r)
}
