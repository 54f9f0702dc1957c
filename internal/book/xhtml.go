package book

import (
	"strings"
	"unicode/utf8"

	"github.com/brogergvhs/noveld/internal/chapters"
)

const (
	DescriptionID       = "description"
	DescriptionFileName = "description.xhtml"
	DescriptionTitle    = "Description"
	StylesheetPath      = "styles/style.css"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes text for XHTML element content and attribute values.
// Characters XML 1.0 does not allow are dropped.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(StripInvalidXML(s))
}

// StripInvalidXML removes runes outside the XML 1.0 Char production, such as
// C0 controls other than tab, newline and carriage return. Invalid UTF-8 is
// replaced with U+FFFD.
func StripInvalidXML(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	if strings.IndexFunc(s, invalidXMLRune) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if invalidXMLRune(r) {
			return -1
		}
		return r
	}, s)
}

func invalidXMLRune(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
		return true
	case r > 0x10FFFF:
		return true
	}
	return false
}

func pageHeader(sb *strings.Builder, title string) {
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
<head>
  <title>`)
	sb.WriteString(EscapeXML(title))
	sb.WriteString(`</title>
  <link rel="stylesheet" type="text/css" href="`)
	sb.WriteString(StylesheetPath)
	sb.WriteString(`"/>
</head>
<body>
`)
}

func pageFooter(sb *strings.Builder) {
	sb.WriteString("</body>\n</html>\n")
}

// renderDescription builds the description page. Scraped text fields are
// escaped; the description itself is already a sanitized fragment.
func renderDescription(m Metadata) string {
	status := m.Status
	if status == "" {
		status = "Unknown"
	}
	description := m.Description
	if strings.TrimSpace(description) == "" {
		description = "<p>No description available</p>"
	}

	var sb strings.Builder
	pageHeader(&sb, DescriptionTitle)

	sb.WriteString("  <h1>")
	sb.WriteString(EscapeXML(m.Title))
	sb.WriteString("</h1>\n")

	sb.WriteString("  <div class=\"meta\">\n")
	metaRow(&sb, "Author", m.Author)
	metaRow(&sb, "Status", status)
	metaRow(&sb, "Genres", strings.Join(m.Genres, ", "))
	sb.WriteString("  </div>\n")

	sb.WriteString("  <h2>Summary</h2>\n")
	sb.WriteString("  <div class=\"description\">")
	sb.WriteString(description)
	sb.WriteString("</div>\n")

	pageFooter(&sb)
	return sb.String()
}

func metaRow(sb *strings.Builder, label, value string) {
	sb.WriteString("    <div><strong>")
	sb.WriteString(label)
	sb.WriteString(":</strong> ")
	sb.WriteString(EscapeXML(value))
	sb.WriteString("</div>\n")
}

func renderChapter(ch chapters.Chapter) string {
	var sb strings.Builder
	pageHeader(&sb, ch.Title)

	sb.WriteString("  <h1>")
	sb.WriteString(EscapeXML(ch.Title))
	sb.WriteString("</h1>\n")
	sb.WriteString("  <div class=\"content\">")
	sb.WriteString(ch.Body)
	sb.WriteString("</div>\n")

	pageFooter(&sb)
	return sb.String()
}

// Stylesheet is shipped with every book.
const Stylesheet = `body {
  font-family: Georgia, "Times New Roman", serif;
  line-height: 1.6;
  margin: 1em;
}

h1 {
  font-size: 1.6em;
  margin: 1em 0 0.8em;
  text-align: center;
}

h2 {
  font-size: 1.3em;
}

p {
  margin: 0.5em 0;
  text-indent: 1.2em;
}

.meta div {
  margin: 0.2em 0;
}

.description p {
  text-indent: 0;
}

.content img {
  max-width: 100%;
}

.cover {
  text-align: center;
}

.cover img {
  max-height: 100%;
  max-width: 100%;
}
`
