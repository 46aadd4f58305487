package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<p>hi</p>"))
	}))
	defer srv.Close()

	f := New(WithUserAgent("test-agent"))
	res, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", res.HTML)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "test-agent", gotUA)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestFetchFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>file</h1>"), 0o644))

	f := New(WithStdin(strings.NewReader("<h1>stdin</h1>")))
	res, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "<h1>file</h1>", res.HTML)
	assert.Zero(t, res.StatusCode)

	res, err = f.Fetch(context.Background(), "-")
	require.NoError(t, err)
	assert.Equal(t, "<h1>stdin</h1>", res.HTML)

	_, err = f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a"))
	assert.True(t, IsURL("http://localhost:8080"))
	assert.False(t, IsURL("ftp://example.com"))
	assert.False(t, IsURL("docs/index.html"))
	assert.False(t, IsURL("-"))
}
