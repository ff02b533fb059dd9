package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"

	"github.com/seonbi/munseo/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText decodes raw file bytes into a string. UTF-8 input passes
// through, otherwise EUC-KR is tried, and Latin-1 is the final fallback
// because it accepts any byte sequence.
func decodeText(content []byte) (text, encoding string) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), "utf-8"
	}
	if decoded, err := korean.EUCKR.NewDecoder().Bytes(content); err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), "euc-kr"
	}
	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(content)
	return string(decoded), "latin-1"
}

// plainText reads a file as character data with encoding detection.
func plainText(path string) ([]models.ExtractedPage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text, _ := decodeText(content)
	return []models.ExtractedPage{{Index: 0, Text: strings.TrimSpace(text), Tier: tierPlainText}}, nil
}
