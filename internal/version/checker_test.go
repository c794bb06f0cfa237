package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiquest/internal/errdef"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name     string
		latest   string
		current  string
		expected bool
	}{
		{"same version", "0.1.0", "0.1.0", false},
		{"patch upgrade", "0.1.1", "0.1.0", true},
		{"patch downgrade", "0.0.9", "0.1.0", false},
		{"major upgrade", "1.0.0", "0.9.12", true},
		{"multi-digit patch", "0.0.100", "0.0.99", true},
		{"different lengths v1", "1.0", "0.0.28", true},
		{"different lengths v2", "0.0.28", "1.0", false},
		{"dev version ahead", "0.2.0-dev", "0.1.0", true},
		{"pre-release same base", "0.1.0-alpha", "0.1.0", false},
		{"build metadata", "0.1.1+build123", "0.1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNewer(tt.latest, tt.current))
		})
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "apiquest/0.1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"tag_name":"v0.2.0","html_url":"https://example.test/r/0.2.0"}`))
	}))
	defer srv.Close()

	c := &Checker{URL: srv.URL, Client: srv.Client()}
	update, err := c.Check(context.Background(), "v0.1.0")
	require.NoError(t, err)
	assert.True(t, update.Available)
	assert.Equal(t, "0.2.0", update.Latest)
	assert.Equal(t, "0.1.0", update.Current)
	assert.Equal(t, "https://example.test/r/0.2.0", update.URL)

	update, err = c.Check(context.Background(), "0.2.0")
	require.NoError(t, err)
	assert.False(t, update.Available)
}

func TestCheck_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := (&Checker{URL: srv.URL}).Check(context.Background(), "0.1.0")
	assert.True(t, errdef.Is(err, errdef.CodeNetwork))
}
