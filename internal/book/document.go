// Package book assembles the in-progress e-book: metadata, the description
// page, chapter pages in reading order and an optional cover image.
package book

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/brogergvhs/noveld/internal/chapters"
)

var (
	ErrChapterOrder = errors.New("chapter out of order")
	ErrInvalidCover = errors.New("invalid cover")
)

type PageKind int

const (
	DescriptionPage PageKind = iota
	ChapterPage
)

// Page is one XHTML document of the book. Its position in Document.Pages is
// its position in the spine.
type Page struct {
	Kind     PageKind
	ID       string
	FileName string
	Title    string
	Content  string
}

// NavPoint is one table of contents entry.
type NavPoint struct {
	Title    string
	FileName string
}

type Cover struct {
	FileName  string
	MediaType string
	Data      []byte
}

// Document is written by a single owner during the run. Pages and TOC always
// list the same files in the same order, with the description page first.
type Document struct {
	meta  Metadata
	pages []Page
	toc   []NavPoint
	cover *Cover

	chapters    int
	lastChapter int
}

func New(meta Metadata) *Document {
	return &Document{meta: meta.Normalized()}
}

func (d *Document) Metadata() Metadata {
	m := d.meta
	m.Genres = append([]string(nil), d.meta.Genres...)
	return m
}

func (d *Document) Pages() []Page {
	return append([]Page(nil), d.pages...)
}

func (d *Document) TOC() []NavPoint {
	return append([]NavPoint(nil), d.toc...)
}

func (d *Document) Cover() *Cover {
	if d.cover == nil {
		return nil
	}
	c := *d.cover
	return &c
}

func (d *Document) ChapterCount() int {
	return d.chapters
}

// LastChapter is the number of the most recently appended chapter, 0 if none.
func (d *Document) LastChapter() int {
	return d.lastChapter
}

func (d *Document) HasDescription() bool {
	return len(d.pages) > 0 && d.pages[0].Kind == DescriptionPage
}

// AddDescriptionPage puts the description page at the front of the spine and
// the table of contents. Calling it again re-renders it in place.
func (d *Document) AddDescriptionPage() {
	page := Page{
		Kind:     DescriptionPage,
		ID:       DescriptionID,
		FileName: DescriptionFileName,
		Title:    DescriptionTitle,
		Content:  renderDescription(d.meta),
	}
	nav := NavPoint{Title: DescriptionTitle, FileName: DescriptionFileName}

	if d.HasDescription() {
		d.pages[0] = page
		d.toc[0] = nav
		return
	}

	d.pages = append([]Page{page}, d.pages...)
	d.toc = append([]NavPoint{nav}, d.toc...)
}

// AppendChapter adds ch at the end of the spine and the table of contents.
// Chapter numbers must be positive and strictly increasing.
func (d *Document) AppendChapter(ch chapters.Chapter) error {
	if ch.Number < 1 {
		return fmt.Errorf("%w: chapter number %d", ErrChapterOrder, ch.Number)
	}
	if d.chapters > 0 && ch.Number <= d.lastChapter {
		return fmt.Errorf("%w: chapter %d after %d", ErrChapterOrder, ch.Number, d.lastChapter)
	}

	d.pages = append(d.pages, Page{
		Kind:     ChapterPage,
		ID:       ch.ID(),
		FileName: ch.FileName(),
		Title:    ch.Title,
		Content:  renderChapter(ch),
	})
	d.toc = append(d.toc, NavPoint{Title: ch.Title, FileName: ch.FileName()})

	d.chapters++
	d.lastChapter = ch.Number

	return nil
}

var coverExt = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/pjpeg":   ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
	"image/bmp":     ".bmp",
}

// CoverExtension maps an image media type to a file extension, defaulting
// to .jpg.
func CoverExtension(mediaType string) string {
	if ext, ok := coverExt[mediaType]; ok {
		return ext
	}
	return ".jpg"
}

// AttachCover stores data as the cover image. Only image/* content types are
// accepted; anything else returns ErrInvalidCover and leaves the document as is.
func (d *Document) AttachCover(contentType string, data []byte) error {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: content type %q: %v", ErrInvalidCover, contentType, err)
	}
	if !strings.HasPrefix(mt, "image/") {
		return fmt.Errorf("%w: content type %q", ErrInvalidCover, contentType)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidCover)
	}

	d.cover = &Cover{
		FileName:  "cover" + CoverExtension(mt),
		MediaType: mt,
		Data:      append([]byte(nil), data...),
	}

	return nil
}
