package util

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuman(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", Human(512))
	assert.Equal(t, "1.50 KB", Human(1536))
	assert.Equal(t, "2.00 MB", Human(2<<20))
	assert.Equal(t, "1.00 GB", Human(1<<30))
}

func TestElapsed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "250ms", Elapsed(250*time.Millisecond))
	assert.Equal(t, "3s", Elapsed(2600*time.Millisecond))
}

func TestPromoteFileReplacesFinal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "book.epub.tmp")
	final := filepath.Join(dir, "book.epub")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(final, []byte("old"), 0644))

	require.NoError(t, PromoteFile(tmp, final, nil))

	got, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	assert.False(t, Exists(tmp))
}

func TestPromoteFileRenameFailureKeepsBoth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "book.epub.tmp")
	final := filepath.Join(dir, "book.epub")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(final, []byte("old"), 0644))

	failing := func(string, string) error { return errors.New("cross-device link") }
	err := PromoteFile(tmp, final, failing)
	require.Error(t, err)

	got, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	assert.True(t, Exists(tmp))
}

func TestPromoteFileMissingTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := PromoteFile(filepath.Join(dir, "nope.tmp"), filepath.Join(dir, "out.epub"), nil)
	require.Error(t, err)
	assert.False(t, Exists(filepath.Join(dir, "out.epub")))
}

func TestRemoveIfExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "x")
	require.NoError(t, RemoveIfExists(p))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	require.NoError(t, RemoveIfExists(p))
	assert.False(t, Exists(p))
}

func TestHTTPClientInjectsHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("\n  cf_clearance=abc  \nignored=1\n"), 0644))

	client, err := NewHTTPClient(HTTPClientOptions{
		Timeout:    time.Second,
		UserAgent:  "test-agent",
		Cookie:     "session=1",
		CookieFile: cookieFile,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "ru")

	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "test-agent", got.Get("User-Agent"))
	assert.Equal(t, "session=1; cf_clearance=abc", got.Get("Cookie"))
	assert.Equal(t, "ru", got.Get("Accept-Language"))
	assert.Equal(t, "1", got.Get("Dnt"))
}

func TestPickUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "custom", PickUserAgent("custom"))
	assert.Contains(t, PickUserAgent(""), "Mozilla/5.0")
}
