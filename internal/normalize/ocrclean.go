package normalize

import (
	"strings"
	"unicode"
)

// CleanOCR filters recognizer output line by line before Normalize runs.
// OCR on scanned Korean office documents produces lines of stray jamo,
// gibberish latin, and table-border fragments; a line survives only when
// enough of it is meaningful text.
func CleanOCR(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if keepOCRLine(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func keepOCRLine(line string) bool {
	runes := []rune(line)
	if len(runes) < 2 {
		return false
	}

	total := 0
	meaningful := 0
	hangul := 0
	latin := 0
	jamo := 0
	for _, r := range runes {
		total++
		switch {
		case r >= 0xAC00 && r <= 0xD7A3:
			hangul++
			meaningful++
		case r >= 0x3131 && r <= 0x318E:
			// Bare jamo: recognizer split syllables it could not resolve.
			jamo++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				latin++
			}
			meaningful++
		}
	}
	if meaningful == 0 {
		return false
	}
	if float64(meaningful)/float64(total) < 0.3 {
		return false
	}
	if float64(jamo)/float64(total) > 0.2 {
		return false
	}
	// Short lines need a minimum of real letters to be worth keeping.
	if total < 10 && hangul+latin < 3 {
		return false
	}
	return !isLatinGibberish(runes, latin)
}

// isLatinGibberish flags short latin-only tokens with an implausible vowel
// ratio, a common artifact of OCR misreading stamps and logos.
func isLatinGibberish(runes []rune, latin int) bool {
	if latin < 4 || latin >= 8 {
		return false
	}
	vowels := 0
	for _, r := range runes {
		switch unicode.ToLower(r) {
		case 'a', 'e', 'i', 'o', 'u':
			vowels++
		}
	}
	ratio := float64(vowels) / float64(latin)
	return ratio < 0.15 || ratio > 0.85
}
