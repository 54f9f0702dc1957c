package providers

import (
	"context"
	"errors"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/fetcher"
)

var (
	ErrMetadataUnavailable = errors.New("metadata unavailable")
	ErrUnknownSite         = errors.New("unknown site")
)

// Site knows where a novel's pages live on one site template and how to read
// them.
type Site interface {
	Name() string
	NovelURL(slug string) string
	ChapterURL(slug string, n int) string
	ParseMetadata(page []byte, slug string) (book.Metadata, error)
	ParseChapter(page []byte, n int) (chapters.Chapter, error)
}

// Doer is the part of *fetcher.Fetcher a Source needs.
type Doer interface {
	Do(ctx context.Context, req fetcher.Request) (*fetcher.Response, error)
}
