// Package format maps filenames to document kinds.
package format

import (
	"path/filepath"
	"strings"

	"github.com/seonbi/munseo/internal/models"
)

// kindByExt is the fixed extension table. Matching is case-insensitive and
// purely name-based; content sniffing (e.g. OLE vs ZIP signature bytes for
// the legacy word formats) happens inside the extraction tier for that kind.
var kindByExt = map[string]models.DocumentKind{
	".txt":  models.KindPlainText,
	".md":   models.KindPlainText,
	".rst":  models.KindPlainText,
	".csv":  models.KindDelimitedTable,
	".tsv":  models.KindDelimitedTable,
	".docx": models.KindWordProcessor,
	".odt":  models.KindWordProcessor,
	".rtf":  models.KindWordProcessor,
	".pptx": models.KindPresentation,
	".odp":  models.KindPresentation,
	".xlsx": models.KindSpreadsheet,
	".ods":  models.KindSpreadsheet,
	".hwp":  models.KindLegacyWordBinary,
	".hwpx": models.KindLegacyWordXML,
	".jpg":  models.KindRasterImage,
	".jpeg": models.KindRasterImage,
	".png":  models.KindRasterImage,
	".bmp":  models.KindRasterImage,
	".tif":  models.KindRasterImage,
	".tiff": models.KindRasterImage,
	".pdf":  models.KindPortableDocument,
}

// Classify returns the DocumentKind for filename. It never fails:
// unrecognized extensions map to KindUnknown, which routes to best-effort
// plain-text extraction.
func Classify(filename string) models.DocumentKind {
	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := kindByExt[ext]; ok {
		return kind
	}
	return models.KindUnknown
}
