package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/seonbi/munseo/internal/models"
)

// cellSeparator joins cells within a row so that downstream table detection
// can recognize tabular lines.
const cellSeparator = " | "

// sheetHeader labels the first line of a sheet page with the sheet name.
func sheetHeader(name string) string {
	return "[시트: " + name + "]"
}

var (
	odsTableBlock = regexp.MustCompile(`(?s)<table:table[\s>].*?</table:table>`)
	odsTableName  = regexp.MustCompile(`table:name="([^"]*)"`)
	odsRowEnd     = regexp.MustCompile(`</table:table-row>`)
	odsCellEnd    = regexp.MustCompile(`</table:table-cell>`)
)

// sheetText extracts spreadsheet content, one page per sheet. The first line
// of each page is the sheet name so that chunk metadata can carry it.
func sheetText(path string) ([]models.ExtractedPage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".ods" {
		return odsSheets(content)
	}
	return xlsxSheets(content)
}

func xlsxSheets(content []byte) ([]models.ExtractedPage, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var pages []models.ExtractedPage
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		lines := []string{sheetHeader(sheet)}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, cellSeparator))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, models.ExtractedPage{
			Index: len(pages) + 1,
			Text:  strings.Join(lines, "\n"),
			Tier:  tierSheetGrid,
		})
	}
	return pages, nil
}

func odsSheets(content []byte) ([]models.ExtractedPage, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODS: not a zip: %w", err)
	}
	contentXML, err := readZipFile(zr, "content.xml")
	if err != nil {
		return nil, fmt.Errorf("extract ODS: %w", err)
	}
	var pages []models.ExtractedPage
	for _, block := range odsTableBlock.FindAllString(string(contentXML), -1) {
		var lines []string
		if m := odsTableName.FindStringSubmatch(block); m != nil {
			lines = append(lines, sheetHeader(xmlEntities.Replace(m[1])))
		}
		for _, row := range odsRowEnd.Split(block, -1) {
			var cells []string
			for _, cell := range odsCellEnd.Split(row, -1) {
				var b strings.Builder
				for _, m := range odtTextP.FindAllStringSubmatch(cell, -1) {
					b.WriteString(xmlEntities.Replace(innerTag.ReplaceAllString(m[1], " ")))
				}
				if text := strings.TrimSpace(b.String()); text != "" {
					cells = append(cells, text)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, cellSeparator))
			}
		}
		if len(lines) == 0 {
			continue
		}
		pages = append(pages, models.ExtractedPage{
			Index: len(pages) + 1,
			Text:  strings.Join(lines, "\n"),
			Tier:  tierSheetGrid,
		})
	}
	return pages, nil
}
