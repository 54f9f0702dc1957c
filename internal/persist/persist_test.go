package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/epub"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"
)

// recordingWriter writes a marker file with the chapter count instead of a
// real archive.
type recordingWriter struct {
	calls []int
	fail  bool
}

func (w *recordingWriter) WriteFile(doc *book.Document, path string) error {
	w.calls = append(w.calls, doc.ChapterCount())
	if w.fail {
		return errors.New("disk full")
	}
	return os.WriteFile(path, []byte{byte('0' + doc.ChapterCount())}, 0644)
}

func docWith(t *testing.T, n int) *book.Document {
	t.Helper()
	doc := book.New(book.Metadata{Slug: "x"})
	doc.AddDescriptionPage()
	for i := 1; i <= n; i++ {
		require.NoError(t, doc.AppendChapter(chapters.New(i, "", "<p>x</p>")))
	}
	return doc
}

func TestTempPath(t *testing.T) {
	t.Parallel()

	p := New(&recordingWriter{}, "out/book.epub", 0, nil)
	assert.Equal(t, "out/book.epub.tmp", p.TempPath())
	assert.Equal(t, DefaultEvery, p.Every())
}

func TestCheckpointCadence(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	p := New(w, filepath.Join(t.TempDir(), "book.epub"), 3, ui.NopLogger())
	doc := docWith(t, 0)

	var at []int
	for count := 0; count <= 10; count++ {
		if p.MaybeCheckpoint(doc, count) {
			at = append(at, count)
		}
	}
	assert.Equal(t, []int{3, 6, 9}, at)
	assert.Len(t, w.calls, 3)

	require.True(t, p.Finalize(doc))
	assert.Len(t, w.calls, 4)
}

func TestCheckpointFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	stats := &ui.Stats{}
	w := &recordingWriter{fail: true}
	p := New(w, filepath.Join(t.TempDir(), "book.epub"), 1, nil).WithStats(stats)

	assert.False(t, p.Checkpoint(docWith(t, 1)))
	assert.True(t, p.MaybeCheckpoint(docWith(t, 1), 1))
	assert.Zero(t, stats.Checkpoints.Load())

	w.fail = false
	assert.True(t, p.Checkpoint(docWith(t, 1)))
	assert.EqualValues(t, 1, stats.Checkpoints.Load())
}

func TestFinalizePromotesTemp(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0644))

	p := New(&recordingWriter{}, out, 5, nil)
	require.True(t, p.Finalize(docWith(t, 2)))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
	assert.False(t, util.Exists(p.TempPath()))
}

func TestFinalizeRenameFailureKeepsTempAndPrior(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0644))

	p := New(&recordingWriter{}, out, 5, nil)
	p.rename = func(string, string) error { return errors.New("permission denied") }

	assert.False(t, p.Finalize(docWith(t, 2)))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	tmp, err := os.ReadFile(p.TempPath())
	require.NoError(t, err)
	assert.Equal(t, "2", string(tmp))
}

func TestFinalizeWriteFailure(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "book.epub")
	p := New(&recordingWriter{fail: true}, out, 5, nil)

	assert.False(t, p.Finalize(docWith(t, 1)))
	assert.False(t, util.Exists(out))
}

func TestFinalizeWithEPUBWriter(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "nested", "book.epub")
	p := New(epub.NewWriter(), out, 2, nil)
	doc := docWith(t, 3)

	require.True(t, p.Checkpoint(doc))
	assert.True(t, util.Exists(p.TempPath()))

	require.True(t, p.Finalize(doc))
	assert.True(t, util.Exists(out))
	assert.False(t, util.Exists(p.TempPath()))
	assert.Positive(t, util.FileSize(out))
}
