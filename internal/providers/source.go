package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/fetcher"
	"github.com/brogergvhs/noveld/internal/ui"
)

// Source downloads the pages of one novel from one site.
type Source struct {
	site  Site
	fetch Doer
	slug  string
	log   *ui.Logger

	MetadataPolicy fetcher.Policy
	ChapterPolicy  fetcher.Policy
	CoverPolicy    fetcher.Policy
}

// NewSource returns a Source for slug.
func NewSource(site Site, fetch Doer, slug string, log *ui.Logger) *Source {
	if log == nil {
		log = ui.NopLogger()
	}

	return &Source{
		site:  site,
		fetch: fetch,
		slug:  slug,
		log:   log,

		MetadataPolicy: fetcher.MetadataPolicy,
		ChapterPolicy:  fetcher.ChapterPolicy,
		CoverPolicy:    fetcher.CoverPolicy,
	}
}

func (s *Source) Slug() string {
	return s.slug
}

// FetchMetadata downloads and parses the overview page. Any failure, a 404
// included, wraps ErrMetadataUnavailable.
func (s *Source) FetchMetadata(ctx context.Context) (book.Metadata, error) {
	url := s.site.NovelURL(s.slug)

	resp, err := s.fetch.Do(ctx, fetcher.Request{URL: url, Policy: s.MetadataPolicy})
	if err != nil {
		return book.Metadata{}, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}
	if resp.NotFound() {
		return book.Metadata{}, fmt.Errorf("%w: %s not found", ErrMetadataUnavailable, url)
	}

	meta, err := s.site.ParseMetadata(resp.Body, s.slug)
	if err != nil {
		return book.Metadata{}, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}

	s.log.Debugf("Metadata for %s: title=%q author=%q genres=%v", s.slug, meta.Title, meta.Author, meta.Genres)
	return meta, nil
}

// FetchChapter downloads and parses chapter n. Every chapter after the first
// one of the novel is requested with the previous chapter as Referer, whatever
// chapter the run started from. A missing page wraps
// chapters.ErrNoContent; exhausted retries and cancellation are returned as
// they are.
func (s *Source) FetchChapter(ctx context.Context, n int) (chapters.Chapter, error) {
	url := s.site.ChapterURL(s.slug, n)

	header := http.Header{}
	if n > 1 {
		header.Set("Referer", s.site.ChapterURL(s.slug, n-1))
	}

	resp, err := s.fetch.Do(ctx, fetcher.Request{URL: url, Header: header, Policy: s.ChapterPolicy})
	if err != nil {
		return chapters.Chapter{}, fmt.Errorf("chapter %d: %w", n, err)
	}
	if resp.NotFound() {
		return chapters.Chapter{}, fmt.Errorf("chapter %d: page not found: %w", n, chapters.ErrNoContent)
	}

	return s.site.ParseChapter(resp.Body, n)
}

// FetchCover downloads the cover image and returns its content type as sent
// by the server.
func (s *Source) FetchCover(ctx context.Context, url string) (string, []byte, error) {
	if url == "" {
		return "", nil, errors.New("no cover url")
	}

	header := http.Header{}
	header.Set("Referer", s.site.NovelURL(s.slug))

	resp, err := s.fetch.Do(ctx, fetcher.Request{URL: url, Header: header, Policy: s.CoverPolicy})
	if err != nil {
		return "", nil, fmt.Errorf("cover: %w", err)
	}
	if resp.NotFound() {
		return "", nil, fmt.Errorf("cover %s not found", url)
	}

	return resp.ContentType(), resp.Body, nil
}
