// Package chapters holds the record produced for every successfully fetched
// chapter.
package chapters

import (
	"fmt"
	"strings"
)

// Chapter is one sanitized chapter. Body is an XHTML fragment without the
// chapter heading, which is rendered separately from Title.
type Chapter struct {
	Number int
	Title  string
	Body   string
}

func New(number int, title, body string) Chapter {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle(number)
	}

	return Chapter{Number: number, Title: title, Body: body}
}

func DefaultTitle(number int) string {
	return fmt.Sprintf("Chapter %d", number)
}

// ID is the manifest id of the chapter page.
func (c Chapter) ID() string {
	return fmt.Sprintf("chapter_%d", c.Number)
}

// FileName is derived from the number only, so table of contents and spine
// references stay stable across checkpoints.
func (c Chapter) FileName() string {
	return c.ID() + ".xhtml"
}

func (c Chapter) Size() int64 {
	return int64(len(c.Title) + len(c.Body))
}
