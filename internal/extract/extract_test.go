package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/seonbi/munseo/internal/config"
	"github.com/seonbi/munseo/internal/models"
	"github.com/seonbi/munseo/internal/ocr"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	off := false
	cfg.OCR.CloudEnabled = &off
	cfg.OCR.LocalEnabled = &off
	cfg.Convert.Enabled = &off
	return cfg
}

// zipBytes builds an in-memory zip with the given name -> content entries.
func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDocxText(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` +
			`<w:p><w:r><w:t>사업 개요</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t xml:space="preserve">첫 문단 </w:t></w:r><w:r><w:t>이어짐</w:t></w:r></w:p>` +
			`<w:p></w:p>` +
			`</w:body></w:document>`,
	})
	got, err := docxText(content)
	if err != nil {
		t.Fatalf("docxText: %v", err)
	}
	want := "사업 개요\n첫 문단 이어짐"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDocxText_tableRows(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="ns"><w:body>` +
			`<w:p><w:r><w:t>지출 내역</w:t></w:r></w:p>` +
			`<w:tbl>` +
			`<w:tr><w:tc><w:p><w:r><w:t>항목</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>금액</w:t></w:r></w:p></w:tc></w:tr>` +
			`<w:tr><w:tc><w:p><w:r><w:t>출장비</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>350000</w:t></w:r></w:p></w:tc></w:tr>` +
			`</w:tbl>` +
			`<w:p><w:r><w:t>이상입니다</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})
	got, err := docxText(content)
	if err != nil {
		t.Fatalf("docxText: %v", err)
	}
	want := "지출 내역\n항목 | 금액\n출장비 | 350000\n이상입니다"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDocxText_contentTypesOverride(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"[Content_Types].xml": `<Types><Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/></Types>`,
		"word/document2.xml":  `<w:document><w:body><w:p><w:r><w:t>moved body</w:t></w:r></w:p></w:body></w:document>`,
	})
	got, err := docxText(content)
	if err != nil {
		t.Fatalf("docxText: %v", err)
	}
	if got != "moved body" {
		t.Errorf("got %q", got)
	}
}

func TestDocxText_entities(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"word/document.xml": `<w:document><w:body><w:p><w:r><w:t>A &amp; B &lt;C&gt;</w:t></w:r></w:p></w:body></w:document>`,
	})
	got, err := docxText(content)
	if err != nil {
		t.Fatalf("docxText: %v", err)
	}
	if got != "A & B <C>" {
		t.Errorf("got %q", got)
	}
}

func TestDocxText_notAZip(t *testing.T) {
	if _, err := docxText([]byte("{\\rtf1 hello}")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestWordText_odt(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"content.xml": `<office:document-content>` +
			`<text:p text:style-name="P1">제목 <text:span>문단</text:span></text:p>` +
			`<text:p>둘째 문단</text:p>` +
			`</office:document-content>`,
	})
	path := writeFile(t, "doc.odt", content)
	pages, err := wordText(path)
	if err != nil {
		t.Fatalf("wordText: %v", err)
	}
	if len(pages) != 1 || pages[0].Index != 0 {
		t.Fatalf("pages = %+v", pages)
	}
	if !strings.Contains(pages[0].Text, "제목") || !strings.Contains(pages[0].Text, "둘째 문단") {
		t.Errorf("text = %q", pages[0].Text)
	}
}

func TestSlidesText_pptxOrdersSlides(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"ppt/slides/slide10.xml": `<p:sld><a:t>tenth</a:t></p:sld>`,
		"ppt/slides/slide2.xml":  `<p:sld><a:t>second</a:t></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld><a:p><a:r><a:t>발표 제목</a:t></a:r></a:p></p:sld>`,
	})
	path := writeFile(t, "deck.pptx", content)
	pages, err := slidesText(path)
	if err != nil {
		t.Fatalf("slidesText: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("pages = %+v", pages)
	}
	if pages[0].Text != "발표 제목" || pages[0].Index != 1 {
		t.Errorf("first slide = %+v", pages[0])
	}
	if pages[2].Text != "tenth" || pages[2].Index != 3 {
		t.Errorf("slide10 must sort numerically last, got %+v", pages[2])
	}
}

func TestSheetText_xlsx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "부서")
	f.SetCellValue("Sheet1", "B1", "예산")
	f.SetCellValue("Sheet1", "A2", "기획팀")
	f.SetCellValue("Sheet1", "B2", "1200")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	pages, err := sheetText(path)
	if err != nil {
		t.Fatalf("sheetText: %v", err)
	}
	if len(pages) != 1 || pages[0].Index != 1 {
		t.Fatalf("pages = %+v", pages)
	}
	lines := strings.Split(pages[0].Text, "\n")
	if lines[0] != "[시트: Sheet1]" {
		t.Errorf("first line should label the sheet name, got %q", lines[0])
	}
	if lines[1] != "부서 | 예산" || lines[2] != "기획팀 | 1200" {
		t.Errorf("rows = %q", lines[1:])
	}
}

func TestSheetText_ods(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"content.xml": `<office:document-content><office:body><office:spreadsheet>` +
			`<table:table table:name="현황">` +
			`<table:table-row><table:table-cell><text:p>항목</text:p></table:table-cell><table:table-cell><text:p>금액</text:p></table:table-cell></table:table-row>` +
			`</table:table>` +
			`</office:spreadsheet></office:body></office:document-content>`,
	})
	path := writeFile(t, "data.ods", content)
	pages, err := sheetText(path)
	if err != nil {
		t.Fatalf("sheetText: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %+v", pages)
	}
	want := "[시트: 현황]\n항목 | 금액"
	if pages[0].Text != want {
		t.Errorf("got %q, want %q", pages[0].Text, want)
	}
}

func TestDelimitedText(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"csv", "rows.csv", "이름,부서\n김철수,기획팀\n", "이름 | 부서\n김철수 | 기획팀"},
		{"tsv", "rows.tsv", "a\tb\nc\td\n", "a | b\nc | d"},
		{"quoted", "q.csv", "\"a, b\",c\n", "a, b | c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, []byte(tt.content))
			pages, err := delimitedText(path)
			if err != nil {
				t.Fatalf("delimitedText: %v", err)
			}
			if len(pages) != 1 || pages[0].Index != 0 {
				t.Fatalf("pages = %+v", pages)
			}
			if pages[0].Text != tt.want {
				t.Errorf("got %q, want %q", pages[0].Text, tt.want)
			}
		})
	}
}

func TestDecodeText(t *testing.T) {
	// "한글" encoded as EUC-KR.
	eucKR := []byte{0xC7, 0xD1, 0xB1, 0xDB}
	tests := []struct {
		name         string
		content      []byte
		wantText     string
		wantEncoding string
	}{
		{"utf8", []byte("한글 텍스트"), "한글 텍스트", "utf-8"},
		{"utf8 bom", append(append([]byte{}, utf8BOM...), []byte("bom text")...), "bom text", "utf-8"},
		{"euc-kr", eucKR, "한글", "euc-kr"},
		{"latin-1", []byte{'c', 'a', 'f', 0xE9, 0xFF}, "caféÿ", "latin-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, enc := decodeText(tt.content)
			if text != tt.wantText || enc != tt.wantEncoding {
				t.Errorf("decodeText = %q (%s), want %q (%s)", text, enc, tt.wantText, tt.wantEncoding)
			}
		})
	}
}

func TestMeasureQuality(t *testing.T) {
	pages := []models.ExtractedPage{
		{Index: 1, Text: strings.Repeat("가", 100)},
		{Index: 2, Text: strings.Repeat("나", 50)},
	}
	q := MeasureQuality(pages)
	if q.PageCount != 2 || q.CharCount != 150 {
		t.Errorf("quality = %+v", q)
	}
	if q.CharsPerPage != 75 {
		t.Errorf("chars/page = %v", q.CharsPerPage)
	}
	if q.PrintableRatio != 1.0 {
		t.Errorf("printable ratio = %v", q.PrintableRatio)
	}
}

func TestQualityInsufficient(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"enough text", strings.Repeat("본문 ", 40), false},
		{"sparse page", "표지", true},
		{"empty", "", true},
		{"garbage font runs", strings.Repeat("", 60), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := MeasureQuality([]models.ExtractedPage{{Index: 1, Text: tt.text}})
			got, _ := q.Insufficient(50)
			if got != tt.want {
				t.Errorf("Insufficient = %v, want %v (quality %+v)", got, tt.want, q)
			}
		})
	}
}

// fakeOCR is an ocr.Engine returning fixed text.
type fakeOCR struct {
	name string
	text string
}

func (f fakeOCR) Name() string { return f.name }
func (f fakeOCR) Recognize(context.Context, []byte, string) (string, error) {
	return f.text, nil
}

func TestEngineExtract_plainFile(t *testing.T) {
	path := writeFile(t, "memo.txt", []byte("회의 결과를 정리한 메모입니다."))
	e := NewEngine(testConfig())
	res := e.Extract(context.Background(), path)
	if res.Kind != models.KindPlainText {
		t.Errorf("kind = %v", res.Kind)
	}
	if len(res.Pages) != 1 || res.Pages[0].Tier != tierPlainText {
		t.Fatalf("pages = %+v", res.Pages)
	}
	if res.LowConfidence {
		t.Error("non-empty plain file must not be low confidence")
	}
	if len(res.Attempts) != 1 || !res.Attempts[0].Succeeded {
		t.Errorf("attempts = %+v", res.Attempts)
	}
}

func TestEngineExtract_emptyFileLowConfidence(t *testing.T) {
	path := writeFile(t, "empty.txt", nil)
	e := NewEngine(testConfig())
	res := e.Extract(context.Background(), path)
	if !res.LowConfidence {
		t.Error("empty file must be low confidence")
	}
	if len(res.Attempts) != 1 || !res.Attempts[0].Succeeded {
		t.Errorf("plain tier still runs cleanly on empty input, attempts = %+v", res.Attempts)
	}
	if res.CharCount() != 0 {
		t.Errorf("char count = %d", res.CharCount())
	}
}

func TestEngineExtract_rtfFallsThroughToPlain(t *testing.T) {
	body := "This memo summarizes the quarterly review meeting and its action items in detail."
	path := writeFile(t, "memo.rtf", []byte(body))
	e := NewEngine(testConfig())
	res := e.Extract(context.Background(), path)
	if res.Kind != models.KindWordProcessor {
		t.Fatalf("kind = %v", res.Kind)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %+v", res.Attempts)
	}
	if res.Attempts[0].Tier != tierOfficeXML || res.Attempts[0].Succeeded {
		t.Errorf("container tier must fail first: %+v", res.Attempts[0])
	}
	if res.Attempts[1].Tier != tierPlainText || !res.Attempts[1].Succeeded {
		t.Errorf("fallback tier = %+v", res.Attempts[1])
	}
	if len(res.Pages) != 1 || !strings.Contains(res.Pages[0].Text, "quarterly review") {
		t.Errorf("pages = %+v", res.Pages)
	}
}

func TestNewEngine_disabledCapabilitiesStayAbsent(t *testing.T) {
	// Capability flags resolve at construction; with everything disabled the
	// OCR tiers fail as absent rather than probing at extraction time.
	path := writeFile(t, "scan.png", []byte("bytes"))
	e := NewEngine(testConfig())
	res := e.Extract(context.Background(), path)
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %+v", res.Attempts)
	}
	for i, a := range res.Attempts {
		if a.Succeeded || a.Reason == "" {
			t.Errorf("attempt %d = %+v, want absent-capability failure", i, a)
		}
	}
	if !res.LowConfidence {
		t.Error("no capability available must be low confidence")
	}
}

func TestEngineExtract_imageEscalatesToLocal(t *testing.T) {
	path := writeFile(t, "scan.png", []byte("not a real png, the fake engine ignores bytes"))
	recognized := "스캔 문서에서 추출한 본문입니다. " + strings.Repeat("내용이 충분히 길어야 합니다. ", 5)
	e := NewEngine(testConfig(),
		WithCloudEngine(ocr.AbsentEngine{Reason: "no endpoint"}),
		WithLocalEngine(fakeOCR{name: "local", text: recognized}),
	)
	res := e.Extract(context.Background(), path)
	if res.Kind != models.KindRasterImage {
		t.Fatalf("kind = %v", res.Kind)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %+v", res.Attempts)
	}
	if res.Attempts[0].Tier != tierCloudOCR || res.Attempts[0].Succeeded {
		t.Errorf("cloud attempt = %+v", res.Attempts[0])
	}
	if res.Attempts[1].Tier != tierLocalOCR || !res.Attempts[1].Succeeded {
		t.Errorf("local attempt = %+v", res.Attempts[1])
	}
	if len(res.Pages) != 1 || res.Pages[0].Index != 1 {
		t.Fatalf("pages = %+v", res.Pages)
	}
	if res.LowConfidence {
		t.Error("accepted OCR output must not be low confidence")
	}
}

func TestEngineExtract_allTiersFailRetainsBest(t *testing.T) {
	path := writeFile(t, "scan.jpg", []byte("bytes"))
	// Both engines return text below the sufficiency threshold; the longer
	// partial output must be retained.
	e := NewEngine(testConfig(),
		WithCloudEngine(fakeOCR{name: "cloud", text: "짧은 결과"}),
		WithLocalEngine(fakeOCR{name: "local", text: "조금 더 길지만 여전히 짧은 결과"}),
	)
	res := e.Extract(context.Background(), path)
	if !res.LowConfidence {
		t.Fatal("insufficient output on every tier must be low confidence")
	}
	for _, a := range res.Attempts {
		if a.Succeeded {
			t.Errorf("no attempt may be marked accepted: %+v", a)
		}
	}
	if len(res.Pages) != 1 || !strings.Contains(res.Pages[0].Text, "조금 더") {
		t.Errorf("best partial output must be retained, pages = %+v", res.Pages)
	}
}

func TestEngineExtract_pdfEscalationOrder(t *testing.T) {
	// A file that no tier can parse still records the whole chain in order:
	// the native parse must be attempted and fail before any OCR tier runs.
	path := writeFile(t, "broken.pdf", []byte("%PDF-1.7 truncated garbage"))
	e := NewEngine(testConfig(),
		WithCloudEngine(fakeOCR{name: "cloud", text: "unreachable"}),
		WithLocalEngine(fakeOCR{name: "local", text: "unreachable"}),
	)
	res := e.Extract(context.Background(), path)
	if res.Kind != models.KindPortableDocument {
		t.Fatalf("kind = %v", res.Kind)
	}
	want := []string{tierPDFText, tierCloudOCR, tierLocalOCR}
	if len(res.Attempts) != len(want) {
		t.Fatalf("attempts = %+v", res.Attempts)
	}
	for i, a := range res.Attempts {
		if a.Tier != want[i] {
			t.Errorf("attempt %d tier = %q, want %q", i, a.Tier, want[i])
		}
		if a.Succeeded {
			t.Errorf("attempt %d must not succeed: %+v", i, a)
		}
		if a.Reason == "" {
			t.Errorf("attempt %d missing failure reason", i)
		}
	}
	if !res.LowConfidence {
		t.Error("total failure must be low confidence")
	}
}

func TestEngineExtract_docxEndToEnd(t *testing.T) {
	content := zipBytes(t, map[string]string{
		"word/document.xml": `<w:document><w:body><w:p><w:r><w:t>연간 사업 계획</w:t></w:r></w:p></w:body></w:document>`,
	})
	path := writeFile(t, "plan.docx", content)
	e := NewEngine(testConfig())
	res := e.Extract(context.Background(), path)
	if res.Kind != models.KindWordProcessor {
		t.Fatalf("kind = %v", res.Kind)
	}
	if len(res.Pages) != 1 || res.Pages[0].Text != "연간 사업 계획" {
		t.Errorf("pages = %+v", res.Pages)
	}
	if res.LowConfidence {
		t.Error("container extraction must be accepted")
	}
}

func TestEngineExtract_canceledContext(t *testing.T) {
	path := writeFile(t, "memo.txt", []byte("content"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(testConfig())
	res := e.Extract(ctx, path)
	if !res.LowConfidence {
		t.Error("canceled extraction must be low confidence")
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Succeeded {
		t.Errorf("attempts = %+v", res.Attempts)
	}
}
