package book

import "strings"

const (
	UnknownAuthor = "Unknown Author"
	DefaultLang   = "en"
)

// Metadata describes the novel as read from its overview page. Description is
// a sanitized HTML fragment; every other field is plain text.
type Metadata struct {
	Slug        string
	Title       string
	Author      string
	Genres      []string
	Status      string
	Description string
	CoverURL    string
	SourceURL   string
	Language    string
}

// Normalized trims every field and applies the title, author and language
// defaults.
func (m Metadata) Normalized() Metadata {
	m.Title = strings.TrimSpace(m.Title)
	m.Author = strings.TrimSpace(m.Author)
	m.Status = strings.TrimSpace(m.Status)
	m.CoverURL = strings.TrimSpace(m.CoverURL)

	if m.Title == "" {
		m.Title = TitleFromSlug(m.Slug)
	}
	if m.Author == "" {
		m.Author = UnknownAuthor
	}
	if m.Language == "" {
		m.Language = DefaultLang
	}

	genres := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	m.Genres = genres

	return m
}
