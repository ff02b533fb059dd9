package extract

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/seonbi/munseo/internal/models"
)

// pdfText extracts the embedded text layer of a PDF, one entry per page.
// Pages whose text layer is empty still appear in the result so that page
// numbering stays aligned with the source document.
func pdfText(path string) ([]models.ExtractedPage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := make([]models.ExtractedPage, 0, numPages)
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			pages = append(pages, models.ExtractedPage{Index: i + 1, Tier: tierPDFText})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i+1, err)
		}
		pages = append(pages, models.ExtractedPage{Index: i + 1, Text: text, Tier: tierPDFText})
	}
	return pages, nil
}
