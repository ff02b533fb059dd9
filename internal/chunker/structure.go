package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/seonbi/munseo/internal/models"
)

// headingMaxLen bounds how long a line can be and still read as a heading.
const headingMaxLen = 40

var (
	// bulletMarkers open list items in office documents and OCR output.
	bulletMarkers = []string{"-", "*", "•", "·", "○", "●", "▶", "▷", "■", "□", "※"}
	// numberedItem matches "1)" / "(1)" / "가." style enumerations.
	numberedItem = regexp.MustCompile(`^(\(?\d{1,3}\)|[가나다라마바사아자차]\.)\s`)
	// sectionNumber matches "1." / "1.2" / "제3장" style section openers.
	sectionNumber = regexp.MustCompile(`^(제\s?\d+\s?[장절조항편]|\d{1,2}(\.\d{1,2})*\.?)\s`)
)

// classifyLine tags a single line with structural cues. The heuristics favor
// precision over recall; an untagged line simply packs as body text.
func classifyLine(line string) models.StructureTags {
	var tags models.StructureTags
	if strings.Count(line, "|") >= 2 || strings.Count(line, "\t") >= 2 {
		tags.Table = true
		return tags
	}
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker+" ") || line == marker {
			tags.List = true
			return tags
		}
	}
	if numberedItem.MatchString(line) {
		tags.List = true
		return tags
	}
	if isHeading(line) {
		tags.Heading = true
	}
	return tags
}

// isHeading reports whether a line reads as a section title: short, not
// ending like a sentence, and opened by markdown or section numbering.
func isHeading(line string) bool {
	runes := []rune(line)
	if len(runes) == 0 || len(runes) > headingMaxLen {
		return false
	}
	if strings.HasPrefix(line, "#") {
		return true
	}
	last := runes[len(runes)-1]
	if last == '.' || last == '!' || last == '?' || last == ',' || unicode.IsDigit(last) {
		return false
	}
	return sectionNumber.MatchString(line)
}
