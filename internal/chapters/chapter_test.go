package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSynthesizesTitle(t *testing.T) {
	t.Parallel()

	c := New(7, "   ", "<p>x</p>")
	assert.Equal(t, "Chapter 7", c.Title)

	c = New(8, "  Chapter 8: The Gate \n", "")
	assert.Equal(t, "Chapter 8: The Gate", c.Title)
}

func TestFileNameIsDeterministic(t *testing.T) {
	t.Parallel()

	a := New(12, "A", "")
	b := New(12, "B", "<p>other</p>")

	assert.Equal(t, "chapter_12.xhtml", a.FileName())
	assert.Equal(t, a.FileName(), b.FileName())
	assert.Equal(t, "chapter_12", a.ID())
}
