package freewebnovel

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/chapters"
)

const (
	Name           = "freewebnovel"
	DefaultBaseURL = "https://freewebnovel.com"

	missingMarker = "Chapter content is missing or does not exist!"
)

// ErrNoContent is returned by ParseChapter when the page has no chapter.
var ErrNoContent = chapters.ErrNoContent

const (
	selInfo        = ".m-info"
	selTitle       = ".m-desc h1.tit"
	selAuthor      = `.txt .item:has(span[title="Author"]) .right a`
	selGenres      = `.txt .item:has(span[title="Genre"]) .right a`
	selStatus      = `.txt .item:has(span[title="Status"]) .right`
	selDescription = ".inner p"
	selCover       = ".m-book1 .pic img[src]"

	selContent      = "div.txt"
	selChapterTitle = "span.chapter"
	selArticle      = "#article"
)

// ParseError reports a page that does not have the expected layout.
type ParseError struct {
	Page     string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s page: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("parse %s page: %s not found", e.Page, e.Selector)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Site struct {
	base *url.URL
}

// New returns a site rooted at baseURL, or at DefaultBaseURL when empty.
func New(baseURL string) (*Site, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing host", baseURL)
	}

	return &Site{base: u}, nil
}

func (s *Site) Name() string {
	return Name
}

func (s *Site) BaseURL() *url.URL {
	u := *s.base
	return &u
}

func (s *Site) NovelURL(slug string) string {
	return s.base.String() + "/novel/" + url.PathEscape(slug)
}

func (s *Site) ChapterURL(slug string, n int) string {
	return fmt.Sprintf("%s/chapter-%d", s.NovelURL(slug), n)
}

// ParseMetadata reads the overview page. Only the .m-info block is required;
// every field inside it falls back to a default.
func (s *Site) ParseMetadata(page []byte, slug string) (book.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return book.Metadata{}, &ParseError{Page: "novel", Err: err}
	}

	info := doc.Find(selInfo).First()
	if info.Length() == 0 {
		return book.Metadata{}, &ParseError{Page: "novel", Selector: selInfo}
	}

	meta := book.Metadata{
		Slug:      slug,
		Title:     text(info.Find(selTitle)),
		Author:    text(info.Find(selAuthor)),
		Status:    text(info.Find(selStatus)),
		SourceURL: s.NovelURL(slug),
	}

	info.Find(selGenres).Each(func(_ int, a *goquery.Selection) {
		if g := strings.TrimSpace(a.Text()); g != "" {
			meta.Genres = append(meta.Genres, g)
		}
	})

	var desc strings.Builder
	info.Find(selDescription).Each(func(_ int, p *goquery.Selection) {
		if h, err := goquery.OuterHtml(p); err == nil {
			desc.WriteString(h)
		}
	})
	if desc.Len() > 0 {
		sanitized, err := Sanitize(desc.String(), s.base)
		if err != nil {
			return book.Metadata{}, &ParseError{Page: "novel", Selector: selDescription, Err: err}
		}
		meta.Description = sanitized
	}

	if src, ok := info.Find(selCover).First().Attr("src"); ok {
		meta.CoverURL = resolveURL(s.base, src)
	}

	return meta.Normalized(), nil
}

// ParseChapter reads chapter n. A page without a content container, or one
// that reports the chapter as missing, returns ErrNoContent.
func (s *Site) ParseChapter(page []byte, n int) (chapters.Chapter, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return chapters.Chapter{}, &ParseError{Page: "chapter", Err: err}
	}

	content := doc.Find(selContent).First()
	if content.Length() == 0 {
		return chapters.Chapter{}, fmt.Errorf("chapter %d: %w", n, ErrNoContent)
	}
	if strings.Contains(doc.Find(selArticle).Text(), missingMarker) ||
		strings.Contains(content.Text(), missingMarker) {
		return chapters.Chapter{}, fmt.Errorf("chapter %d: %w", n, ErrNoContent)
	}

	heading := content.Find(selChapterTitle).First()
	if heading.Length() == 0 {
		heading = doc.Find(selChapterTitle).First()
	}
	title := strings.TrimSpace(heading.Text())
	content.Find(selChapterTitle).Remove()

	clean(content, s.base)
	body, err := content.Html()
	if err != nil {
		return chapters.Chapter{}, &ParseError{Page: "chapter", Selector: selContent, Err: err}
	}

	return chapters.New(n, title, strings.TrimSpace(body)), nil
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}
