package parse

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spaceRunRe = regexp.MustCompile(`[\s\p{Zs}]+`)

// Name normalises a single-line value such as a name or a faculty:
// surrounding whitespace is removed and inner whitespace runs (tabs,
// line breaks, non-breaking spaces) collapse to a single space.
func Name(raw string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(raw, " "))
}

// Paragraphs normalises free text. Line endings become "\n" and
// surrounding whitespace is removed; inner line breaks and spacing are kept.
func Paragraphs(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// Filename makes a value safe to embed in a download filename: path
// separators, quotes and wildcard characters are dropped.
func Filename(raw string) string {
	s := Name(raw)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return -1
		}
		return r
	}, s)
	return s
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ASCII folds diacritics ("Ștefan" becomes "Stefan") and replaces any
// remaining non-ASCII rune with '_'.
func ASCII(raw string) string {
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		s = raw
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return '_'
		}
		return r
	}, s)
}
