// Package e2e runs the document pipeline end to end over generated input
// files; this file builds minimal binary fixtures for the supported types.
package e2e

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
)

// BuildSlideDeck returns a minimal .pptx archive with one slide per entry
// of texts. Slide part names are numbered so extraction order is deterministic.
func BuildSlideDeck(texts []string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i, text := range texts {
		fw, _ := w.Create(fmt.Sprintf("ppt/slides/slide%d.xml", i+1))
		_, _ = fw.Write([]byte(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`))
	}
	_ = w.Close()
	return buf.Bytes()
}

// BuildWordDocument returns a minimal .docx archive with one paragraph per
// entry of paragraphs.
func BuildWordDocument(paragraphs []string) []byte {
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

// pdfTextEscape escapes the characters with meaning inside a PDF string
// literal.
var pdfTextEscape = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// BuildTypedPDF returns a minimal uncompressed PDF with an embedded text
// layer, one page per entry of texts. Object offsets are recorded while
// writing so the cross-reference table is exact.
func BuildTypedPDF(texts []string) []byte {
	n := len(texts)
	total := 3 + 2*n
	offsets := make([]int, total+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i)
	}

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = buf.Len()
	fmt.Fprintf(&buf, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)
	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i := range texts {
		pageObj := 4 + i
		contentObj := 4 + n + i
		offsets[pageObj] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageObj, contentObj)
	}
	for i, text := range texts {
		contentObj := 4 + n + i
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", pdfTextEscape.Replace(text))
		offsets[contentObj] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xrefPos)
	return buf.Bytes()
}

// BuildScanImage returns a small valid PNG standing in for a scanned page.
// The pixel content is irrelevant; recognition is faked in tests.
func BuildScanImage() []byte {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		if i%3 == 0 {
			img.SetGray(i%8, i/8, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// SentenceBlock returns n numbered sentences joined into one block of prose.
// Each sentence is long enough that realistic chunking behavior emerges.
func SentenceBlock(topic string, start, n int) string {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s 처리 절차의 %d번째 단계는 추출된 본문을 검증하고 다음 단계로 전달하는 것이다.", topic, start+i)
	}
	return b.String()
}

// TypedPageText returns n numbered ASCII sentences for an embedded PDF text
// layer. Built-in PDF fonts carry no Hangul glyphs, so typed-page fixtures
// stay in Latin text.
func TypedPageText(start, n int) string {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "Stage %d of the ingestion run validates the extracted body text before it moves on.", start+i)
	}
	return b.String()
}
