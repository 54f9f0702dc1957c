package book

import (
	"regexp"
	"strings"
	"unicode"
)

var reDashes = regexp.MustCompile(`-+`)

// NormalizeSlug turns user input like "Shadow Slave" or "shadow_slave" into the
// URL slug form "shadow-slave".
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	repl := strings.NewReplacer(
		" ", "-",
		"_", "-",
		"—", "-",
		"–", "-",
		".", "-",
		"/", "-",
		":", "-",
	)
	s = repl.Replace(s)

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			clean = append(clean, r)
		}
	}
	s = reDashes.ReplaceAllString(string(clean), "-")

	return strings.Trim(s, "-")
}

// TitleFromSlug is the fallback title when the overview page has none:
// "shadow-slave" becomes "Shadow Slave".
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
