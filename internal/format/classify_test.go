package format

import (
	"testing"

	"github.com/seonbi/munseo/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     models.DocumentKind
	}{
		{"report.pdf", models.KindPortableDocument},
		{"REPORT.PDF", models.KindPortableDocument},
		{"meeting.hwp", models.KindLegacyWordBinary},
		{"meeting.hwpx", models.KindLegacyWordXML},
		{"notes.txt", models.KindPlainText},
		{"readme.md", models.KindPlainText},
		{"data.csv", models.KindDelimitedTable},
		{"data.tsv", models.KindDelimitedTable},
		{"letter.docx", models.KindWordProcessor},
		{"letter.odt", models.KindWordProcessor},
		{"old.rtf", models.KindWordProcessor},
		{"deck.pptx", models.KindPresentation},
		{"deck.odp", models.KindPresentation},
		{"sheet.xlsx", models.KindSpreadsheet},
		{"sheet.ods", models.KindSpreadsheet},
		{"scan.jpg", models.KindRasterImage},
		{"scan.JPEG", models.KindRasterImage},
		{"scan.png", models.KindRasterImage},
		{"archive.tar.gz", models.KindUnknown},
		{"noextension", models.KindUnknown},
		{"", models.KindUnknown},
		{"/some/dir/2024년 보고서.hwp", models.KindLegacyWordBinary},
	}
	for _, tt := range tests {
		if got := Classify(tt.filename); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
