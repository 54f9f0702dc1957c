package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/chapters"
)

func sampleMeta() Metadata {
	return Metadata{
		Slug:        "shadow-slave",
		Title:       "Shadow Slave",
		Author:      "Guiltythree",
		Genres:      []string{"Action", " Fantasy ", ""},
		Status:      "OnGoing",
		Description: "<p>Growing up in poverty...</p>",
	}
}

func fileNames(points []NavPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.FileName
	}
	return out
}

func pageNames(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.FileName
	}
	return out
}

func TestDescriptionFirstAndOrderKept(t *testing.T) {
	t.Parallel()

	doc := New(sampleMeta())
	doc.AddDescriptionPage()
	for n := 1; n <= 3; n++ {
		require.NoError(t, doc.AppendChapter(chapters.New(n, "", "<p>text</p>")))
	}

	want := []string{"description.xhtml", "chapter_1.xhtml", "chapter_2.xhtml", "chapter_3.xhtml"}
	assert.Equal(t, want, fileNames(doc.TOC()))
	assert.Equal(t, want, pageNames(doc.Pages()))
	assert.Equal(t, 3, doc.ChapterCount())
	assert.Equal(t, 3, doc.LastChapter())
	assert.Equal(t, "Chapter 2", doc.TOC()[2].Title)
}

func TestDescriptionAddedLateStillFirst(t *testing.T) {
	t.Parallel()

	doc := New(sampleMeta())
	require.NoError(t, doc.AppendChapter(chapters.New(4, "Four", "")))
	doc.AddDescriptionPage()
	doc.AddDescriptionPage()

	assert.Equal(t, []string{"description.xhtml", "chapter_4.xhtml"}, fileNames(doc.TOC()))
	assert.Equal(t, []string{"description.xhtml", "chapter_4.xhtml"}, pageNames(doc.Pages()))
	assert.True(t, doc.HasDescription())
}

func TestAppendChapterRejectsOutOfOrder(t *testing.T) {
	t.Parallel()

	doc := New(sampleMeta())
	require.NoError(t, doc.AppendChapter(chapters.New(5, "", "")))

	assert.ErrorIs(t, doc.AppendChapter(chapters.New(5, "", "")), ErrChapterOrder)
	assert.ErrorIs(t, doc.AppendChapter(chapters.New(3, "", "")), ErrChapterOrder)
	assert.ErrorIs(t, doc.AppendChapter(chapters.New(0, "", "")), ErrChapterOrder)
	assert.Equal(t, 1, doc.ChapterCount())
}

func TestDescriptionEscapesScrapedText(t *testing.T) {
	t.Parallel()

	meta := sampleMeta()
	meta.Title = `<script>alert(1)</script> & "friends"`
	meta.Author = "<b>Bold</b>"
	meta.Genres = []string{"<i>Drama</i>"}
	meta.Status = ""

	doc := New(meta)
	doc.AddDescriptionPage()
	page := doc.Pages()[0].Content

	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;alert(1)&lt;/script&gt; &amp; &quot;friends&quot;")
	assert.Contains(t, page, "&lt;b&gt;Bold&lt;/b&gt;")
	assert.Contains(t, page, "&lt;i&gt;Drama&lt;/i&gt;")
	assert.Contains(t, page, "<strong>Status:</strong> Unknown")
	assert.Contains(t, page, "<p>Growing up in poverty...</p>")
}

func TestDescriptionDefaults(t *testing.T) {
	t.Parallel()

	doc := New(Metadata{Slug: "reverend-insanity"})
	doc.AddDescriptionPage()

	meta := doc.Metadata()
	assert.Equal(t, "Reverend Insanity", meta.Title)
	assert.Equal(t, UnknownAuthor, meta.Author)
	assert.Equal(t, "en", meta.Language)
	assert.Contains(t, doc.Pages()[0].Content, "No description available")
}

func TestChapterPageEscapesTitle(t *testing.T) {
	t.Parallel()

	doc := New(sampleMeta())
	require.NoError(t, doc.AppendChapter(chapters.New(1, "Fish & <Chips>", "<p>Body</p>")))

	page := doc.Pages()[0]
	assert.Equal(t, "chapter_1", page.ID)
	assert.Contains(t, page.Content, "<h1>Fish &amp; &lt;Chips&gt;</h1>")
	assert.Contains(t, page.Content, `<div class="content"><p>Body</p></div>`)
	assert.Equal(t, "Fish & <Chips>", doc.TOC()[0].Title)
}

func TestEscapeXMLDropsIllegalCharacters(t *testing.T) {
	t.Parallel()

	cases := map[string]struct{ in, want string }{
		"bell":         {"Chapter\u00071", "Chapter1"},
		"form feed":    {"a\fb", "ab"},
		"nul":          {"a\x00b", "ab"},
		"kept":         {"tab\tnl\ncr\r", "tab\tnl\ncr\r"},
		"nbsp":         {"a\u00a0b", "a\u00a0b"},
		"bad utf8":     {"a\xffb", "a\ufffdb"},
		"nonchar":      {"a\ufffeb", "ab"},
		"still escape": {"<\u0001&>", "&lt;&amp;&gt;"},
	}

	for name, tc := range cases {
		assert.Equal(t, tc.want, EscapeXML(tc.in), name)
	}
}

func TestDescriptionPageDropsControlCharacters(t *testing.T) {
	t.Parallel()

	meta := sampleMeta()
	meta.Title = "Shadow\u0007Slave"
	meta.Author = "Guilty\fthree"

	doc := New(meta)
	doc.AddDescriptionPage()
	page := doc.Pages()[0].Content

	assert.Contains(t, page, "<h1>ShadowSlave</h1>")
	assert.Contains(t, page, "Guiltythree")
	assert.NotContains(t, page, "\u0007")
	assert.NotContains(t, page, "\f")
}

func TestAttachCover(t *testing.T) {
	t.Parallel()

	cases := []struct {
		contentType string
		wantFile    string
	}{
		{"image/png", "cover.png"},
		{"image/jpeg; charset=binary", "cover.jpg"},
		{"image/webp", "cover.webp"},
		{"image/x-unknown", "cover.jpg"},
	}

	for _, tc := range cases {
		doc := New(sampleMeta())
		require.NoError(t, doc.AttachCover(tc.contentType, []byte{1, 2, 3}), tc.contentType)
		require.NotNil(t, doc.Cover())
		assert.Equal(t, tc.wantFile, doc.Cover().FileName)
	}
}

func TestAttachCoverRejectsNonImage(t *testing.T) {
	t.Parallel()

	doc := New(sampleMeta())
	assert.ErrorIs(t, doc.AttachCover("text/html; charset=utf-8", []byte("<html>")), ErrInvalidCover)
	assert.ErrorIs(t, doc.AttachCover("", []byte{1}), ErrInvalidCover)
	assert.ErrorIs(t, doc.AttachCover("image/png", nil), ErrInvalidCover)
	assert.Nil(t, doc.Cover())
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	doc := New(sampleMeta())
	doc.AddDescriptionPage()

	pages := doc.Pages()
	pages[0].Title = "changed"
	meta := doc.Metadata()
	meta.Genres[0] = "changed"

	assert.Equal(t, DescriptionTitle, doc.Pages()[0].Title)
	assert.Equal(t, "Action", doc.Metadata().Genres[0])
	assert.Equal(t, []string{"Action", "Fantasy"}, doc.Metadata().Genres)
}

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "shadow-slave", NormalizeSlug("  Shadow Slave "))
	assert.Equal(t, "lord-of-the-mysteries", NormalizeSlug("lord_of__the--mysteries"))
	assert.Equal(t, "re-zero", NormalizeSlug("Re:Zero"))
}

func TestTitleFromSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Shadow Slave", TitleFromSlug("shadow-slave"))
	assert.Equal(t, "", TitleFromSlug(""))
}
