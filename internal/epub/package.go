package epub

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/brogergvhs/noveld/internal/book"
)

// pkg is a snapshot of a document taken once per write, so every file in the
// archive agrees on the same pages.
type pkg struct {
	meta     book.Metadata
	pages    []book.Page
	toc      []book.NavPoint
	cover    *book.Cover
	modified time.Time
}

func newPackage(doc *book.Document, now time.Time) *pkg {
	return &pkg{
		meta:     doc.Metadata(),
		pages:    doc.Pages(),
		toc:      doc.TOC(),
		cover:    doc.Cover(),
		modified: now.UTC(),
	}
}

// Identifier is derived from the novel's source so every checkpoint and the
// final book share it.
func Identifier(meta book.Metadata) string {
	source := meta.SourceURL
	if source == "" {
		source = meta.Slug
	}
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}

func (p *pkg) coverHref() string {
	return imagesDir + "/" + p.cover.FileName
}

const (
	coverPageID   = "cover"
	coverPageFile = "cover.xhtml"
)

// coverPage wraps the cover image in its own page so readers that ignore the
// cover-image property still open on it.
func (p *pkg) coverPage() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="en" lang="en">
<head>
  <title>Cover</title>
  <link rel="stylesheet" type="text/css" href="`)
	sb.WriteString(book.StylesheetPath)
	sb.WriteString(`"/>
</head>
<body epub:type="cover">
  <div class="cover"><img src="`)
	sb.WriteString(book.EscapeXML(p.coverHref()))
	sb.WriteString(`" alt="`)
	sb.WriteString(book.EscapeXML(p.meta.Title))
	sb.WriteString(`"/></div>
</body>
</html>
`)

	return sb.String()
}

// opf generates OEBPS/content.opf.
func (p *pkg) opf() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
`)

	fmt.Fprintf(&sb, "    <dc:identifier id=\"pub-id\">%s</dc:identifier>\n", Identifier(p.meta))
	fmt.Fprintf(&sb, "    <dc:title>%s</dc:title>\n", book.EscapeXML(p.meta.Title))
	fmt.Fprintf(&sb, "    <dc:creator>%s</dc:creator>\n", book.EscapeXML(p.meta.Author))
	fmt.Fprintf(&sb, "    <dc:language>%s</dc:language>\n", book.EscapeXML(p.meta.Language))

	if desc := plainText(p.meta.Description); desc != "" {
		fmt.Fprintf(&sb, "    <dc:description>%s</dc:description>\n", book.EscapeXML(desc))
	}
	for _, genre := range p.meta.Genres {
		fmt.Fprintf(&sb, "    <dc:subject>%s</dc:subject>\n", book.EscapeXML(genre))
	}
	if p.meta.SourceURL != "" {
		fmt.Fprintf(&sb, "    <dc:source>%s</dc:source>\n", book.EscapeXML(p.meta.SourceURL))
	}

	// required for ePub 3
	fmt.Fprintf(&sb, "    <meta property=\"dcterms:modified\">%s</meta>\n",
		p.modified.Format("2006-01-02T15:04:05Z"))

	if p.cover != nil {
		sb.WriteString("    <meta name=\"cover\" content=\"cover-image\"/>\n")
	}

	sb.WriteString("  </metadata>\n\n")

	sb.WriteString("  <manifest>\n")
	sb.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	sb.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
	fmt.Fprintf(&sb, "    <item id=\"style\" href=\"%s\" media-type=\"text/css\"/>\n", book.StylesheetPath)
	if p.cover != nil {
		fmt.Fprintf(&sb, "    <item id=\"cover-image\" href=\"%s\" media-type=\"%s\" properties=\"cover-image\"/>\n",
			book.EscapeXML(p.coverHref()), book.EscapeXML(p.cover.MediaType))
		fmt.Fprintf(&sb, "    <item id=\"%s\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n",
			coverPageID, coverPageFile)
	}
	for _, page := range p.pages {
		fmt.Fprintf(&sb, "    <item id=\"%s\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n",
			page.ID, page.FileName)
	}
	sb.WriteString("  </manifest>\n\n")

	// reading order
	sb.WriteString("  <spine toc=\"ncx\">\n")
	if p.cover != nil {
		fmt.Fprintf(&sb, "    <itemref idref=\"%s\"/>\n", coverPageID)
	}
	for _, page := range p.pages {
		fmt.Fprintf(&sb, "    <itemref idref=\"%s\"/>\n", page.ID)
	}
	sb.WriteString("  </spine>\n")

	sb.WriteString("</package>\n")

	return sb.String()
}

// nav generates OEBPS/nav.xhtml.
func (p *pkg) nav() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>Table of Contents</title>
  <link rel="stylesheet" type="text/css" href="styles/style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Table of Contents</h1>
    <ol>
`)

	for _, point := range p.toc {
		fmt.Fprintf(&sb, "      <li><a href=\"%s\">%s</a></li>\n",
			point.FileName, book.EscapeXML(point.Title))
	}

	sb.WriteString(`    </ol>
  </nav>
</body>
</html>
`)

	return sb.String()
}

// ncx generates OEBPS/toc.ncx for ePub 2 readers.
func (p *pkg) ncx() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="`)
	sb.WriteString(Identifier(p.meta))
	sb.WriteString(`"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle>
    <text>`)
	sb.WriteString(book.EscapeXML(p.meta.Title))
	sb.WriteString(`</text>
  </docTitle>
  <navMap>
`)

	for i, point := range p.toc {
		fmt.Fprintf(&sb, "    <navPoint id=\"navpoint-%d\" playOrder=\"%d\">\n", i+1, i+1)
		fmt.Fprintf(&sb, "      <navLabel><text>%s</text></navLabel>\n", book.EscapeXML(point.Title))
		fmt.Fprintf(&sb, "      <content src=\"%s\"/>\n", point.FileName)
		sb.WriteString("    </navPoint>\n")
	}

	sb.WriteString(`  </navMap>
</ncx>
`)

	return sb.String()
}

// plainText flattens an HTML fragment for dc:description.
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var parts []string
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}
