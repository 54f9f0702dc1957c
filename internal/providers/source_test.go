package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/fetcher"
	"github.com/brogergvhs/noveld/internal/providers/freewebnovel"
	"github.com/brogergvhs/noveld/internal/ui"
)

type instantTimer struct{}

func (instantTimer) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

type fixtureServer struct {
	*httptest.Server

	mu       sync.Mutex
	referers map[string]string
}

func newFixtureServer(t *testing.T) *fixtureServer {
	t.Helper()

	fs := &fixtureServer{referers: map[string]string{}}
	mux := http.NewServeMux()

	mux.HandleFunc("/novel/shadow-slave", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="m-info"><div class="m-desc"><h1 class="tit">Shadow Slave</h1></div>
<div class="m-book1"><div class="pic"><img src="/cover.png"></div></div></div></body></html>`))
	})
	mux.HandleFunc("/novel/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/novel/shadow-slave/", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.referers[r.URL.Path] = r.Header.Get("Referer")
		fs.mu.Unlock()

		if r.URL.Path == "/novel/shadow-slave/chapter-9" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><div class="txt"><span class="chapter">Title</span><p>text</p></div></body></html>`))
	})
	mux.HandleFunc("/cover.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)

	return fs
}

func (fs *fixtureServer) referer(path string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.referers[path]
}

func newTestSource(t *testing.T, srv *fixtureServer, slug string) *Source {
	t.Helper()

	site, err := Lookup(freewebnovel.Name, srv.URL)
	require.NoError(t, err)

	f := fetcher.New(srv.Client(), ui.NopLogger(), fetcher.WithTimer(instantTimer{}))
	src := NewSource(site, f, slug, ui.NopLogger())
	quick := fetcher.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 2, Timeout: 5 * time.Second}
	src.MetadataPolicy, src.ChapterPolicy, src.CoverPolicy = quick, quick, quick

	return src
}

func TestLookup(t *testing.T) {
	t.Parallel()

	site, err := Lookup("", "")
	require.NoError(t, err)
	assert.Equal(t, freewebnovel.Name, site.Name())

	_, err = Lookup("royalroad", "")
	assert.ErrorIs(t, err, ErrUnknownSite)

	_, err = Lookup(freewebnovel.Name, "not a url")
	assert.Error(t, err)
}

func TestFetchMetadata(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)
	meta, err := newTestSource(t, srv, "shadow-slave").FetchMetadata(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Shadow Slave", meta.Title)
	assert.Equal(t, srv.URL+"/cover.png", meta.CoverURL)
	assert.Equal(t, srv.URL+"/novel/shadow-slave", meta.SourceURL)
}

func TestFetchMetadataUnavailable(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)

	_, err := newTestSource(t, srv, "broken").FetchMetadata(context.Background())
	assert.ErrorIs(t, err, ErrMetadataUnavailable)
	assert.ErrorIs(t, err, fetcher.ErrRetriesExhausted)

	_, err = newTestSource(t, srv, "missing").FetchMetadata(context.Background())
	assert.ErrorIs(t, err, ErrMetadataUnavailable)
}

func TestFetchChapterReferer(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)
	src := newTestSource(t, srv, "shadow-slave")

	// a run resumed at chapter 3 still sends chapter 2 as Referer
	for n := 3; n <= 4; n++ {
		ch, err := src.FetchChapter(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, n, ch.Number)
		assert.Equal(t, "Title", ch.Title)
	}

	assert.Equal(t, srv.URL+"/novel/shadow-slave/chapter-2", srv.referer("/novel/shadow-slave/chapter-3"))
	assert.Equal(t, srv.URL+"/novel/shadow-slave/chapter-3", srv.referer("/novel/shadow-slave/chapter-4"))
}

func TestFetchFirstChapterHasNoReferer(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)
	_, err := newTestSource(t, srv, "shadow-slave").FetchChapter(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, srv.referer("/novel/shadow-slave/chapter-1"))
}

func TestFetchChapterNotFound(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)
	_, err := newTestSource(t, srv, "shadow-slave").FetchChapter(context.Background(), 9)
	assert.ErrorIs(t, err, chapters.ErrNoContent)
}

func TestFetchCover(t *testing.T) {
	t.Parallel()

	srv := newFixtureServer(t)
	src := newTestSource(t, srv, "shadow-slave")

	ct, data, err := src.FetchCover(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	_, _, err = src.FetchCover(context.Background(), "")
	assert.Error(t, err)
}
