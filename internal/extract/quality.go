package extract

import (
	"fmt"
	"unicode"

	"github.com/seonbi/munseo/internal/models"
)

// printableFloor is the minimum printable-character ratio for extracted
// text to be trusted. Below it the text is treated as a failed extraction
// (broken font encodings produce PUA runs and replacement characters).
const printableFloor = 0.85

// ExtractionQuality captures metrics used to decide tier escalation.
type ExtractionQuality struct {
	PageCount      int
	CharCount      int
	CharsPerPage   float64
	PrintableRatio float64
}

// MeasureQuality computes quality metrics over a set of extracted pages.
func MeasureQuality(pages []models.ExtractedPage) ExtractionQuality {
	q := ExtractionQuality{PageCount: len(pages), PrintableRatio: 1.0}
	printable, total := 0, 0
	for _, p := range pages {
		for _, r := range p.Text {
			total++
			if isGarbageRune(r) {
				continue
			}
			if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
				printable++
			}
		}
		q.CharCount += len([]rune(p.Text))
	}
	if q.PageCount > 0 {
		q.CharsPerPage = float64(q.CharCount) / float64(q.PageCount)
	}
	if total > 0 {
		q.PrintableRatio = float64(printable) / float64(total)
	}
	return q
}

// Insufficient reports whether the extraction should escalate to the next
// tier, with a human-readable reason recorded in provenance.
func (q ExtractionQuality) Insufficient(minCharsPerPage int) (bool, string) {
	if q.PageCount == 0 || q.CharCount == 0 {
		return true, "no text extracted"
	}
	if q.CharsPerPage < float64(minCharsPerPage) {
		return true, fmt.Sprintf("%.0f chars/page below threshold %d", q.CharsPerPage, minCharsPerPage)
	}
	if q.PrintableRatio < printableFloor {
		return true, fmt.Sprintf("printable ratio %.2f below %.2f", q.PrintableRatio, printableFloor)
	}
	return false, ""
}

func isGarbageRune(r rune) bool {
	// Private Use Area, common with subsetted fonts that lost their cmap.
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}
