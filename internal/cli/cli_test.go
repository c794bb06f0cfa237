package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/executor"
	"github.com/studiowebux/apiquest/internal/history"
	"github.com/studiowebux/apiquest/internal/store"
	"github.com/studiowebux/apiquest/internal/types"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "apiquest.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store, group string, reqs ...types.Request) {
	t.Helper()
	id, err := s.CreateGroup(group)
	require.NoError(t, err)
	for _, r := range reqs {
		_, err := s.CreateRequest(id, r)
		require.NoError(t, err)
	}
}

func request(name string, method types.Method, url string) types.Request {
	r := types.NewRequest(name, method)
	r.Details.URL = url
	return r
}

func TestList(t *testing.T) {
	s := openStore(t)
	var out bytes.Buffer
	require.NoError(t, List(&out, s))
	assert.Contains(t, out.String(), "No groups yet")

	seed(t, s, "users", request("list", types.MethodGet, "http://example.test/users"))
	seed(t, s, "empty")

	out.Reset()
	require.NoError(t, List(&out, s))
	got := out.String()
	assert.Contains(t, got, "empty (0)")
	assert.Contains(t, got, "users (1)")
	assert.Contains(t, got, "○ GET list")
	assert.Contains(t, got, "http://example.test/users")
	assert.Less(t, strings.Index(got, "empty"), strings.Index(got, "users"))
}

func TestSend_BodyWithFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	s := openStore(t)
	req := request("create", types.MethodPost, srv.URL)
	req.Details.Params["page"] = "1"
	seed(t, s, "api", req)

	var out bytes.Buffer
	err := Send(context.Background(), &out, s, SendOptions{
		Group:        "api",
		Request:      "create",
		OutputFormat: "body",
		Filter:       "items[].id",
		Executor:     executor.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, out.String())
}

func TestSend_ErrorStatusPrintsThenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer srv.Close()

	s := openStore(t)
	seed(t, s, "api", request("get", types.MethodGet, srv.URL))

	var out bytes.Buffer
	err := Send(context.Background(), &out, s, SendOptions{
		Group: "api", Request: "get", OutputFormat: "text", ShowFull: true,
		Executor: executor.DefaultOptions(),
	})
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, out.String(), "404 Not Found")
	assert.Contains(t, out.String(), "Body:\nmissing")
}

func TestSend_RecordsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := openStore(t)
	seed(t, s, "api", request("get", types.MethodGet, srv.URL))
	hist := history.NewManager(s.DB(), 0)

	for i := 0; i < 2; i++ {
		err := Send(context.Background(), &bytes.Buffer{}, s, SendOptions{
			Group: "api", Request: "get", OutputFormat: "body",
			Executor: executor.DefaultOptions(),
			History:  hist,
		})
		assert.ErrorIs(t, err, ErrRequestFailed)
	}

	var out bytes.Buffer
	require.NoError(t, History(&out, s, hist, "api", "get", 10))
	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "500 Internal Server Error"))
	assert.Contains(t, got, "2 call(s), 0% success, 0 network error(s)")
	assert.Contains(t, got, "500×2")

	err := History(&out, s, hist, "api", "missing", 10)
	assert.True(t, errdef.Is(err, errdef.CodeAddressing))
}

func TestHistory_Empty(t *testing.T) {
	s := openStore(t)
	seed(t, s, "api", request("get", types.MethodGet, "http://example.test"))

	var out bytes.Buffer
	require.NoError(t, History(&out, s, history.NewManager(s.DB(), 0), "api", "get", 0))
	assert.Equal(t, "No history for api/get\n", out.String())
}

func TestSend_UnknownRequest(t *testing.T) {
	s := openStore(t)
	seed(t, s, "api")

	err := Send(context.Background(), &bytes.Buffer{}, s, SendOptions{Group: "api", Request: "nope"})
	assert.True(t, errdef.Is(err, errdef.CodeAddressing))

	err = Send(context.Background(), &bytes.Buffer{}, s, SendOptions{Group: "other", Request: "nope"})
	assert.True(t, errdef.Is(err, errdef.CodeAddressing))
}

func TestFormatOutput(t *testing.T) {
	resp := &types.Response{Status: 201, StatusText: "Created", Body: "ok", Headers: map[string]string{"X-A": "1"}}

	out, err := formatOutput(resp, "json", false)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": 201`)

	out, err = formatOutput(resp, "yaml", false)
	require.NoError(t, err)
	assert.Contains(t, out, "statusText: Created")

	out, err = formatOutput(resp, "text", false)
	require.NoError(t, err)
	assert.Contains(t, out, colorGreen+"201 Created")
	assert.NotContains(t, out, "X-A")

	_, err = formatOutput(resp, "xml", false)
	assert.True(t, errdef.Is(err, errdef.CodeValidation))
}

func TestExportImportRoundTrip(t *testing.T) {
	src := openStore(t)
	basic := request("me", types.MethodGet, "http://example.test/me")
	basic.Details.SetAuthType(types.AuthBasic)
	basic.Details.Basic.Username = "u"
	basic.Details.Basic.Password = "p"
	basic.Details.SyncAuthorization()
	basic.Details.Headers["Accept"] = "application/json"
	seed(t, src, "auth", basic)

	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, src, format))

			doc, err := ParseDocument(buf.Bytes(), "."+format)
			require.NoError(t, err)

			dst := openStore(t)
			result, err := Import(dst, doc)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Groups)
			assert.Equal(t, 1, result.Requests)

			groups, err := dst.LoadAll()
			require.NoError(t, err)
			require.Len(t, groups, 1)
			got := groups[0].Requests[0]
			assert.Equal(t, types.AuthBasic, got.Details.AuthType)
			assert.Equal(t, "Basic dTpw", got.Details.Headers[types.AuthorizationHeader])
			assert.Equal(t, "application/json", got.Details.Headers["Accept"])
		})
	}
}

func TestImport_JSONCMergesAndSkipsDuplicates(t *testing.T) {
	s := openStore(t)
	seed(t, s, "api", request("list", types.MethodGet, "http://old"))

	doc, err := ParseDocument([]byte(`{
		// comments are allowed
		"groups": [
			{"name": "api", "requests": [
				{"name": "list", "method": "GET", "details": {"url": "http://new"}},
				{"name": "create", "method": "post", "details": {"url": "http://new", "headers": {"Authorization": "forged"}}},
			]},
		],
	}`), ".jsonc")
	require.NoError(t, err)

	result, err := Import(s, doc)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Groups)
	assert.Equal(t, 1, result.Requests)
	assert.Equal(t, []string{"api/list"}, result.Skipped)

	groups, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, groups[0].Requests, 2)
	for _, r := range groups[0].Requests {
		switch r.Name {
		case "list":
			assert.Equal(t, "http://old", r.Details.URL)
		case "create":
			assert.Equal(t, types.MethodPost, r.Method)
			assert.NotContains(t, r.Details.Headers, types.AuthorizationHeader)
		}
	}
}

func TestImport_RejectsInvalidDocumentWithoutWriting(t *testing.T) {
	s := openStore(t)
	doc := Document{Groups: []types.Group{
		{Name: "ok"},
		{Name: "bad", Requests: []types.Request{{Name: "x", Method: "TRACE"}}},
	}}

	_, err := Import(s, doc)
	assert.True(t, errdef.Is(err, errdef.CodeValidation))

	groups, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestParseDocument_UnsupportedExtension(t *testing.T) {
	_, err := ParseDocument([]byte("x"), ".toml")
	assert.True(t, errdef.Is(err, errdef.CodeValidation))
}
