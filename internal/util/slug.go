package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// đ has no combining-mark decomposition
	s = strings.ReplaceAll(s, "đ", "d")
	if plain, _, err := transform.String(stripMarks, s); err == nil {
		s = plain
	}
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "item"
	}
	return s
}
