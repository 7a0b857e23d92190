package render

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line is one drawn line of the document.
type Line struct {
	Block string
	// Text is the drawn text.
	Text string
	// Tail is the whitespace consumed by a soft wrap after Text. It is not drawn.
	Tail         string
	NewParagraph bool
	Bold         bool
	Size         float64
	SpaceBefore  float64
}

func (l Line) style() string {
	if l.Bold {
		return "B"
	}
	return ""
}

// Layout is the ordered list of lines of a document.
type Layout []Line

// Text reassembles the source text of block: soft-wrapped lines are
// joined with the whitespace they consumed, paragraphs with "\n".
func (l Layout) Text(block string) string {
	var b strings.Builder
	first := true
	for _, line := range l {
		if line.Block != block {
			continue
		}
		if line.NewParagraph && !first {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text)
		b.WriteString(line.Tail)
		first = false
	}
	return b.String()
}

// Field returns the value of a labelled block without its label.
func (l Layout) Field(block string) string {
	return strings.TrimPrefix(l.Text(block), labels[block])
}

type segment struct {
	text string
	tail string
}

// wrap breaks one paragraph into lines no wider than width. Lines break
// after whitespace; a word that does not fit on a line of its own (after
// any indentation) is split between runes.
func wrap(para string, width float64, measure func(string) float64) []segment {
	var segs []segment
	line := ""

	for _, tok := range tokens(para) {
		if isBlank(tok) {
			line += tok
			continue
		}
		if strings.TrimSpace(line) != "" && measure(line+tok) > width {
			segs = append(segs, splitTail(line))
			line = ""
		}
		// Only indentation precedes tok, so a word too wide to fit is
		// split right after it.
		for isBlank(line) && measure(line+tok) > width {
			n := fitPrefix(tok, width-measure(line), measure)
			if n >= len(tok) {
				break
			}
			segs = append(segs, segment{text: line + tok[:n]})
			line = ""
			tok = tok[n:]
		}
		line += tok
	}
	return append(segs, splitTail(line))
}

// tokens splits s into alternating runs of whitespace and non-whitespace.
func tokens(s string) []string {
	var out []string
	start := 0
	prevSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i > start && sp != prevSpace {
			out = append(out, s[start:i])
			start = i
		}
		prevSpace = sp
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func splitTail(line string) segment {
	text := strings.TrimRightFunc(line, unicode.IsSpace)
	return segment{text: text, tail: line[len(text):]}
}

// fitPrefix returns the byte length of the longest prefix of s that fits
// in width. At least one rune is always kept.
func fitPrefix(s string, width float64, measure func(string) float64) int {
	end := 0
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if end > 0 && measure(s[:next]) > width {
			break
		}
		end = next
	}
	return end
}
