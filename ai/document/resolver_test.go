package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abraxas-365/doccraft/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_BytesPassThrough(t *testing.T) {
	r := NewResolver()
	for _, in := range [][]byte{{}, []byte("%PDF-1.7\n"), {0x00, 0xff, 0x10}} {
		out, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestResolve_FetchesURL(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("%PDF-remote"))
	}))
	defer srv.Close()

	out, err := NewResolver().Resolve(context.Background(), srv.URL+"/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-remote", string(out))
	assert.Contains(t, ua, "Mozilla/5.0")
	assert.Contains(t, accept, "text/html")
}

func TestResolve_NonOKStatusIsFetchError(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		out, err := NewResolver().Resolve(context.Background(), srv.URL)
		srv.Close()

		require.Error(t, err)
		assert.Nil(t, out)
		assert.True(t, errx.IsCode(err, ErrCodeFetchFailed), "status %d: %v", status, err)
	}
}

func TestResolve_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewResolver(WithFetchTimeout(50*time.Millisecond)).Resolve(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ErrCodeFetchFailed))
}

func TestResolve_LocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-local"), 0o644))

	out, err := NewResolver().Resolve(context.Background(), "  "+path+" ")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-local", string(out))
}

func TestResolve_MissingPathIsNotFound(t *testing.T) {
	_, err := NewResolver().Resolve(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ErrCodeNotFound))
	assert.True(t, errx.IsType(err, errx.TypeNotFound))
}

func TestResolve_UnsupportedType(t *testing.T) {
	for _, in := range []any{42, nil, struct{}{}, []string{"a"}} {
		_, err := NewResolver().Resolve(context.Background(), in)
		assert.True(t, errx.IsCode(err, ErrCodeUnsupportedContent), "%T", in)
	}
}

func TestIsURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/a.pdf": true,
		"HTTP://example.com":        true,
		"ftp://example.com/a.pdf":   false,
		"/tmp/a.pdf":                false,
		"reports/a.pdf":             false,
		"file:///tmp/a.pdf":         false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsURL(in), in)
	}
}
