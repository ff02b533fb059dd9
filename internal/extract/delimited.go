package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seonbi/munseo/internal/models"
)

// delimitedText extracts rows from CSV and TSV files. Every record becomes
// one line with cells joined by the table separator, so the chunker can
// recognize the content as tabular.
func delimitedText(path string) ([]models.ExtractedPage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text, _ := decodeText(content)

	r := csv.NewReader(strings.NewReader(text))
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited rows: %w", err)
	}
	lines := make([]string, 0, len(records))
	for _, record := range records {
		line := strings.TrimSpace(strings.Join(record, cellSeparator))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return []models.ExtractedPage{{Index: 0, Text: strings.Join(lines, "\n"), Tier: tierDelimitedRows}}, nil
}
