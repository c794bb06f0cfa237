package executor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

type captured struct {
	method string
	query  string
	auth   string
	custom string
	body   string
}

func echoServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*got = captured{
			method: r.Method,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			custom: r.Header.Get("X-A"),
			body:   string(body),
		}
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecuteSendsEverything(t *testing.T) {
	var got captured
	srv := echoServer(t, &got)

	req := types.NewRequest("create", types.MethodPost)
	req.Details.URL = srv.URL + "/users?page=1"
	req.Details.Body = `{"name":"x"}`
	req.Details.Headers["X-A"] = "1"
	req.Details.Params["q"] = "v"
	req.Details.SetAuthType(types.AuthBasic)
	req.Details.Basic.Username = "u"
	req.Details.Basic.Password = "p"
	req.Details.SyncAuthorization()

	resp, err := Execute(context.Background(), req, DefaultOptions())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got.method != "POST" {
		t.Errorf("method = %s", got.method)
	}
	if got.query != "page=1&q=v" {
		t.Errorf("query = %q", got.query)
	}
	if got.auth != "Basic dTpw" {
		t.Errorf("Authorization = %q", got.auth)
	}
	if got.custom != "1" {
		t.Errorf("X-A = %q", got.custom)
	}
	if got.body != `{"name":"x"}` {
		t.Errorf("body = %q", got.body)
	}

	if resp.Status != http.StatusCreated || resp.StatusText != "Created" {
		t.Errorf("status = %d %q", resp.Status, resp.StatusText)
	}
	if resp.Headers["X-Multi"] != "one, two" {
		t.Errorf("X-Multi = %q", resp.Headers["X-Multi"])
	}
	if resp.Body != `{"ok":true}` || resp.ResponseSize != len(resp.Body) {
		t.Errorf("body = %q size %d", resp.Body, resp.ResponseSize)
	}
	if resp.RequestSize != len(`{"name":"x"}`) {
		t.Errorf("request size = %d", resp.RequestSize)
	}
	if resp.Duration <= 0 {
		t.Error("duration should be measured")
	}
}

func TestExecuteGetHasNoBody(t *testing.T) {
	var got captured
	srv := echoServer(t, &got)

	req := types.NewRequest("list", types.MethodGet)
	req.Details.URL = srv.URL
	req.Details.Body = "ignored"

	resp, err := Execute(context.Background(), req, DefaultOptions())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.body != "" || resp.RequestSize != 0 {
		t.Errorf("GET sent a body: %q", got.body)
	}
}

func TestExecuteEveryMethod(t *testing.T) {
	var got captured
	srv := echoServer(t, &got)

	for _, m := range types.Methods {
		req := types.NewRequest("r", m)
		req.Details.URL = srv.URL
		if _, err := Execute(context.Background(), req, DefaultOptions()); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if got.method != m.String() {
			t.Errorf("sent %s, want %s", got.method, m)
		}
	}
}

func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "example.com/path"},
		{"bad escape", "http://x/%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := types.NewRequest("r", types.MethodGet)
			req.Details.URL = tt.url
			resp, err := Execute(context.Background(), req, DefaultOptions())
			if resp != nil {
				t.Error("no response expected for an invalid request")
			}
			if errdef.CodeOf(err) != errdef.CodeValidation {
				t.Errorf("code = %s, err = %v", errdef.CodeOf(err), err)
			}
		})
	}
}

func TestExecuteNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	req := types.NewRequest("r", types.MethodGet)
	req.Details.URL = addr

	resp, err := Execute(context.Background(), req, DefaultOptions())
	if !errdef.Is(err, errdef.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if resp == nil || resp.Error == "" {
		t.Fatal("a response carrying the error is expected")
	}
}

func TestExecuteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	req := types.NewRequest("r", types.MethodGet)
	req.Details.URL = srv.URL

	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond
	_, err := Execute(context.Background(), req, opts)
	if !errdef.Is(err, errdef.CodeNetwork) {
		t.Errorf("expected network error on timeout, got %v", err)
	}
}

func TestRedirectsCanBeDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.Write([]byte("new"))
	}))
	defer srv.Close()

	req := types.NewRequest("r", types.MethodGet)
	req.Details.URL = srv.URL + "/old"

	resp, err := Execute(context.Background(), req, DefaultOptions())
	if err != nil || resp.Body != "new" {
		t.Fatalf("follow: %v %q", err, resp.Body)
	}

	opts := DefaultOptions()
	opts.FollowRedirects = false
	resp, err = Execute(context.Background(), req, opts)
	if err != nil || resp.Status != http.StatusFound {
		t.Fatalf("no follow: %v %d", err, resp.Status)
	}
}

func TestBadCAFile(t *testing.T) {
	req := types.NewRequest("r", types.MethodGet)
	req.Details.URL = "https://example.invalid"

	opts := DefaultOptions()
	opts.CAFile = "/does/not/exist.pem"
	_, err := Execute(context.Background(), req, opts)
	if errdef.CodeOf(err) != errdef.CodeConfig || !strings.Contains(err.Error(), "CA certificate") {
		t.Errorf("err = %v", err)
	}
}

func TestRunnerSingleFlight(t *testing.T) {
	r := NewRunner(DefaultOptions())
	started := make(chan struct{})
	release := make(chan struct{})
	r.execute = func(ctx context.Context, req types.Request, _ Options) (*types.Response, error) {
		close(started)
		<-release
		return &types.Response{Status: 200, Body: req.Details.URL}, nil
	}

	req := types.NewRequest("r", types.MethodGet)
	req.Details.URL = "http://snapshot"
	job, err := r.Start(req)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	req.Details.URL = "http://edited"

	done := make(chan *types.Response)
	go func() {
		resp, _ := job(context.Background())
		done <- resp
	}()
	<-started

	if !r.Busy() {
		t.Error("runner should be busy")
	}
	if _, err := r.Start(req); !errors.Is(err, ErrInFlight) {
		t.Errorf("second Start() error = %v, want ErrInFlight", err)
	}

	close(release)
	resp := <-done
	if resp.Body != "http://snapshot" {
		t.Errorf("job saw %q, edits leaked into the snapshot", resp.Body)
	}
	if r.Busy() {
		t.Error("runner should be idle after the job")
	}
	if _, err := r.Start(req); err != nil {
		t.Errorf("Start() after completion error = %v", err)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatDuration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("FormatDuration = %s", got)
	}
	if got := FormatDuration(1500 * time.Millisecond); got != "1.50s" {
		t.Errorf("FormatDuration = %s", got)
	}
	if got := FormatSize(2048); got != "2.00KB" {
		t.Errorf("FormatSize = %s", got)
	}
	if !IsSuccessStatus(204) || IsSuccessStatus(301) || !IsClientErrorStatus(404) || !IsServerErrorStatus(503) {
		t.Error("status helpers mismatch")
	}
}
