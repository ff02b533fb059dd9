package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/seonbi/munseo/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var (
	// wtTag matches <w:t>text</w:t> with any attributes.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// wpEnd separates OOXML paragraphs.
	wpEnd = regexp.MustCompile(`</w:p>`)
	// wTblBlock matches a whole table so its rows can be rebuilt as lines.
	wTblBlock = regexp.MustCompile(`(?s)<w:tbl[\s>].*?</w:tbl>`)
	// wTrEnd and wTcEnd separate table rows and cells.
	wTrEnd = regexp.MustCompile(`</w:tr>`)
	wTcEnd = regexp.MustCompile(`</w:tc>`)
	// odtTextP matches OpenDocument paragraph elements.
	odtTextP = regexp.MustCompile(`(?s)<text:p[^>]*>(.*?)</text:p>`)
	// innerTag strips any remaining markup inside a matched paragraph.
	innerTag = regexp.MustCompile(`<[^>]*>`)

	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// xmlEntities reverses the predefined XML character entities.
var xmlEntities = strings.NewReplacer(
	"&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&",
)

// wordText extracts the body text of a word-processor file. DOCX and ODT are
// ZIP containers holding XML; RTF is handled by the plain-text fallback tier
// because it is not a ZIP.
func wordText(path string) ([]models.ExtractedPage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	var text string
	switch ext {
	case ".odt":
		text, err = odfParagraphText(content, "extract ODT")
	default:
		text, err = docxText(content)
	}
	if err != nil {
		return nil, err
	}
	return []models.ExtractedPage{{Index: 0, Text: text, Tier: tierOfficeXML}}, nil
}

// docxText extracts body text from .docx bytes. The main document part is
// located through [Content_Types].xml with word/document.xml as fallback.
// Each <w:p> becomes one output line; each table row becomes one line of
// cells joined with the grid separator, in document order.
func docxText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var lines []string
	body := string(docXML)
	tables := wTblBlock.FindAllStringIndex(body, -1)
	pos := 0
	for _, span := range tables {
		lines = append(lines, docxParagraphLines(body[pos:span[0]])...)
		lines = append(lines, docxTableLines(body[span[0]:span[1]])...)
		pos = span[1]
	}
	lines = append(lines, docxParagraphLines(body[pos:])...)
	return strings.Join(lines, "\n"), nil
}

func docxParagraphLines(fragment string) []string {
	var lines []string
	for _, para := range wpEnd.Split(fragment, -1) {
		if line := docxRunText(para); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// docxTableLines rebuilds a table block as one line per row, cells joined
// with the grid separator so downstream table detection fires.
func docxTableLines(block string) []string {
	var lines []string
	for _, row := range wTrEnd.Split(block, -1) {
		var cells []string
		for _, cell := range wTcEnd.Split(row, -1) {
			if text := docxRunText(cell); text != "" {
				cells = append(cells, text)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, cellSeparator))
		}
	}
	return lines
}

func docxRunText(fragment string) string {
	var b strings.Builder
	for _, m := range wtTag.FindAllStringSubmatch(fragment, -1) {
		b.WriteString(xmlEntities.Replace(m[1]))
	}
	return strings.TrimSpace(b.String())
}

// odfParagraphText extracts text:p paragraphs from an OpenDocument container.
func odfParagraphText(content []byte, op string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%s: not a zip: %w", op, err)
	}
	contentXML, err := readZipFile(zr, "content.xml")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var lines []string
	for _, m := range odtTextP.FindAllStringSubmatch(string(contentXML), -1) {
		line := strings.TrimSpace(xmlEntities.Replace(innerTag.ReplaceAllString(m[1], " ")))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	body, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return ""
	}
	content := string(body)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile returns the contents of the named file inside the archive.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
