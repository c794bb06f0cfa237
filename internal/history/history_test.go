package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/store"
	"github.com/studiowebux/apiquest/internal/types"
)

func setup(t *testing.T, keep int) (*store.Store, *Manager, types.Request) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "apiquest.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	gid, err := s.CreateGroup("api")
	require.NoError(t, err)
	req := types.NewRequest("list", types.MethodGet)
	req.Details.URL = "http://example.test/items"
	req.ID, err = s.CreateRequest(gid, req)
	require.NoError(t, err)

	return s, NewManager(s.DB(), keep), req
}

func response(status int, d time.Duration) *types.Response {
	return &types.Response{
		Status:     status,
		StatusText: "x",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"ok":true}`,
		Duration:   d,
	}
}

func TestRecordAndLoad(t *testing.T) {
	_, m, req := setup(t, 0)

	require.NoError(t, m.Record(req, response(200, 120*time.Millisecond)))
	require.NoError(t, m.Record(req, response(404, 80*time.Millisecond)))

	entries, err := m.Load(req.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	assert.Equal(t, 404, newest.Status)
	assert.Equal(t, req.ID, newest.RequestID)
	assert.Equal(t, types.MethodGet, newest.Method)
	assert.Equal(t, "http://example.test/items", newest.URL)
	assert.Equal(t, "application/json", newest.Headers["Content-Type"])
	assert.Equal(t, 80*time.Millisecond, newest.Duration)
	assert.False(t, newest.Timestamp.IsZero())
	assert.Equal(t, 200, entries[1].Status)

	resp := newest.Response()
	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, `{"ok":true}`, resp.Body)

	limited, err := m.Load(req.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecord_PrunesBeyondKeep(t *testing.T) {
	_, m, req := setup(t, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Record(req, response(200+i, time.Millisecond)))
	}

	n, err := m.Count(req.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := m.Load(req.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 204, entries[0].Status)
	assert.Equal(t, 202, entries[2].Status)
}

func TestRecord_Rejects(t *testing.T) {
	_, m, req := setup(t, 0)

	err := m.Record(types.NewRequest("unsaved", types.MethodGet), response(200, 0))
	assert.True(t, errdef.Is(err, errdef.CodeValidation))

	err = m.Record(req, nil)
	assert.True(t, errdef.Is(err, errdef.CodeValidation))
}

func TestClear(t *testing.T) {
	_, m, req := setup(t, 0)
	require.NoError(t, m.Record(req, response(200, 0)))
	require.NoError(t, m.Clear(req.ID))

	entries, err := m.Load(req.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeletingRequestRemovesHistory(t *testing.T) {
	s, m, req := setup(t, 0)
	require.NoError(t, m.Record(req, response(200, 0)))

	require.NoError(t, s.DeleteRequest(req.ID))

	n, err := m.Count(req.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStats(t *testing.T) {
	_, m, req := setup(t, 0)

	empty, err := m.Stats(req.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCalls)
	assert.Zero(t, empty.SuccessRate())
	assert.True(t, empty.LastCalled.IsZero())

	require.NoError(t, m.Record(req, response(200, 100*time.Millisecond)))
	require.NoError(t, m.Record(req, response(200, 300*time.Millisecond)))
	require.NoError(t, m.Record(req, response(500, 200*time.Millisecond)))
	require.NoError(t, m.Record(req, &types.Response{Error: "connection refused"}))

	stats, err := m.Stats(req.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalCalls)
	assert.Equal(t, 2, stats.SuccessCount)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 1, stats.NetworkErrors)
	assert.Equal(t, 150*time.Millisecond, stats.AvgDuration)
	assert.Equal(t, time.Duration(0), stats.MinDuration)
	assert.Equal(t, 300*time.Millisecond, stats.MaxDuration)
	assert.Equal(t, map[int]int{0: 1, 200: 2, 500: 1}, stats.StatusCodes)
	assert.InDelta(t, 0.5, stats.SuccessRate(), 0.001)
	assert.False(t, stats.LastCalled.IsZero())
}
