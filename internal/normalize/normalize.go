// Package normalize strips layout noise and OCR artifacts from extracted text.
package normalize

import (
	"strings"
	"unicode"
)

// Normalizer cleans extracted text. The zero value is not usable; construct
// with New. Normalize is deterministic and idempotent:
// Normalize(Normalize(x)) == Normalize(x).
type Normalizer struct {
	runLength    int
	repeatLength int
	denylist     []string
}

// New returns a Normalizer. runLength bounds maximal runs of symbol
// characters, repeatLength bounds repetitions of a single non-alphanumeric
// character; longer runs are removed as noise. denylist is a set of literal
// scanner/stamp artifact substrings stripped from every line.
func New(runLength, repeatLength int, denylist []string) *Normalizer {
	if runLength <= 0 {
		runLength = 4
	}
	if repeatLength <= 0 {
		repeatLength = 4
	}
	return &Normalizer{runLength: runLength, repeatLength: repeatLength, denylist: denylist}
}

// Normalize applies, in order: whitespace collapsing (double line breaks
// survive as paragraph markers), noise-token removal, and denylist
// stripping. Empty lines inside a paragraph are dropped.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paras []string
	for _, para := range splitParagraphs(text) {
		var lines []string
		for _, line := range strings.Split(para, "\n") {
			line = n.cleanLine(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			paras = append(paras, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(paras, "\n\n")
}

func (n *Normalizer) cleanLine(line string) string {
	line = collapseSpaces(line)
	line = n.removeNoiseTokens(line)
	for _, artifact := range n.denylist {
		if artifact != "" {
			line = strings.ReplaceAll(line, artifact, "")
		}
	}
	// Removals can leave doubled spaces behind.
	return strings.TrimSpace(collapseSpaces(line))
}

// removeNoiseTokens drops maximal runs of symbol characters longer than
// runLength, and runs of one repeated non-alphanumeric character longer
// than repeatLength.
func (n *Normalizer) removeNoiseTokens(line string) string {
	runes := []rune(line)
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(runes); {
		r := runes[i]
		if isSymbolRune(r) {
			j := i
			for j < len(runes) && isSymbolRune(runes[j]) {
				j++
			}
			if j-i <= n.runLength {
				b.WriteString(string(runes[i:j]))
			}
			i = j
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			if j-i <= n.repeatLength {
				b.WriteString(string(runes[i:j]))
			}
			i = j
			continue
		}
		b.WriteRune(r)
		i++
	}
	return b.String()
}

// isSymbolRune reports whether r is neither alphanumeric, punctuation,
// nor whitespace: box-drawing fragments, stray math symbols, control
// characters and the like that OCR produces around tables and stamps.
func isSymbolRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) {
		return false
	}
	return true
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasSpace := false
	for _, r := range s {
		if r == '\n' {
			b.WriteRune(r)
			wasSpace = false
			continue
		}
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return b.String()
}

// splitParagraphs splits on runs of 2+ newlines, keeping single newlines
// inside each paragraph.
func splitParagraphs(text string) []string {
	var paras []string
	var cur strings.Builder
	newlines := 0
	flush := func() {
		if cur.Len() > 0 {
			paras = append(paras, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if r == '\n' {
			newlines++
			if newlines == 1 {
				cur.WriteRune(r)
			} else if newlines == 2 {
				// Strip the single newline written for the first of the run.
				s := strings.TrimSuffix(cur.String(), "\n")
				cur.Reset()
				cur.WriteString(s)
				flush()
			}
			continue
		}
		newlines = 0
		cur.WriteRune(r)
	}
	flush()
	return paras
}
