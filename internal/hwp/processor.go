package hwp

import (
	"context"
	"os"

	"github.com/seonbi/munseo/internal/models"
	"github.com/seonbi/munseo/internal/ocr"
	"go.uber.org/zap"
)

// Tier names recorded in extraction provenance.
const (
	TierPreview = "hwp_prvtext"
	TierConvert = "hwp_convert_pdf"
	TierZipXML  = "hwpx_xml"
	tierProbe   = "hwp_probe"
)

// PDFExtractor re-runs a converted artifact through the portable-document
// extraction chain. Implemented by the extraction engine.
type PDFExtractor interface {
	ExtractPDF(ctx context.Context, path string) ([]models.ExtractedPage, []models.ExtractionAttempt)
}

// Processor extracts text from the legacy word-processor container formats.
type Processor struct {
	converter  ocr.Converter
	pdfChain   PDFExtractor
	minChars   int
	charsPerKB int
	logger     *zap.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor returns a Processor. converter may be an ocr.AbsentConverter;
// pdfChain handles converted artifacts. minChars and charsPerKB parameterize
// the preview-stream sufficiency predicate.
func NewProcessor(converter ocr.Converter, pdfChain PDFExtractor, minChars, charsPerKB int, opts ...ProcessorOption) *Processor {
	if minChars <= 0 {
		minChars = 1500
	}
	if charsPerKB <= 0 {
		charsPerKB = 100
	}
	p := &Processor{
		converter:  converter,
		pdfChain:   pdfChain,
		minChars:   minChars,
		charsPerKB: charsPerKB,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract pulls text out of the file at path. The container signature
// selects exactly one branch; there is no escalation between the binary and
// ZIP branches. All failures are recorded as attempts, never returned as
// errors.
func (p *Processor) Extract(ctx context.Context, path string) ([]models.ExtractedPage, []models.ExtractionAttempt) {
	branch, err := Probe(path)
	if err != nil {
		return nil, []models.ExtractionAttempt{{Tier: tierProbe, Reason: err.Error()}}
	}
	switch branch {
	case BranchBinary:
		return p.extractBinary(ctx, path)
	case BranchZip:
		return p.extractZip(path)
	default:
		return nil, []models.ExtractionAttempt{{Tier: tierProbe, Reason: "unrecognized container signature"}}
	}
}

// extractBinary decodes the preview stream, and escalates to PDF conversion
// when the stream holds too little text for the file's size. The preview
// result is retained as the fallback whenever conversion fails.
func (p *Processor) extractBinary(ctx context.Context, path string) ([]models.ExtractedPage, []models.ExtractionAttempt) {
	var attempts []models.ExtractionAttempt

	preview, err := PreviewText(path)
	sufficient := err == nil && p.previewSufficient(path, preview)
	switch {
	case err != nil:
		attempts = append(attempts, models.ExtractionAttempt{Tier: TierPreview, Reason: err.Error()})
	case sufficient:
		attempts = append(attempts, models.ExtractionAttempt{Tier: TierPreview, Succeeded: true, CharCount: len([]rune(preview))})
	default:
		attempts = append(attempts, models.ExtractionAttempt{
			Tier:      TierPreview,
			CharCount: len([]rune(preview)),
			Reason:    "preview stream below expected length for file size",
		})
	}

	previewPages := []models.ExtractedPage{}
	if err == nil && preview != "" {
		previewPages = []models.ExtractedPage{{Index: 0, Text: preview, Tier: TierPreview}}
	}

	if sufficient {
		return previewPages, attempts
	}

	pages, convAttempts := p.convertAndReextract(ctx, path)
	attempts = append(attempts, convAttempts...)
	if len(pages) > 0 {
		return pages, attempts
	}

	// Conversion failed: the truncated preview is still better than nothing.
	return previewPages, attempts
}

func (p *Processor) extractZip(path string) ([]models.ExtractedPage, []models.ExtractionAttempt) {
	text, err := SectionText(path)
	if err != nil {
		return nil, []models.ExtractionAttempt{{Tier: TierZipXML, Reason: err.Error()}}
	}
	attempt := models.ExtractionAttempt{Tier: TierZipXML, Succeeded: true, CharCount: len([]rune(text))}
	if text == "" {
		return nil, []models.ExtractionAttempt{attempt}
	}
	return []models.ExtractedPage{{Index: 0, Text: text, Tier: TierZipXML}}, []models.ExtractionAttempt{attempt}
}

// previewSufficient applies the size-scaled sufficiency predicate: the
// preview stream is a truncated rendering, so a large file with a short
// preview almost certainly lost content.
func (p *Processor) previewSufficient(path, preview string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	expected := int(info.Size()/1024) * p.charsPerKB
	if expected < p.minChars {
		expected = p.minChars
	}
	return len([]rune(preview)) >= expected
}

// convertAndReextract runs the automation conversion and feeds the produced
// PDF back through the portable-document chain.
func (p *Processor) convertAndReextract(ctx context.Context, path string) ([]models.ExtractedPage, []models.ExtractionAttempt) {
	pdfPath, err := p.converter.ToPDF(ctx, path)
	if err != nil {
		return nil, []models.ExtractionAttempt{{Tier: TierConvert, Reason: err.Error()}}
	}
	defer os.Remove(pdfPath)

	pages, chainAttempts := p.pdfChain.ExtractPDF(ctx, pdfPath)
	total := 0
	for _, pg := range pages {
		total += len([]rune(pg.Text))
	}
	if p.logger != nil {
		p.logger.Debug("legacy document converted and re-extracted",
			zap.String("path", path), zap.Int("pages", len(pages)), zap.Int("chars", total))
	}
	attempts := []models.ExtractionAttempt{{
		Tier:      TierConvert,
		Succeeded: len(pages) > 0,
		CharCount: total,
		Reason:    reasonIfEmpty(pages),
	}}
	return pages, append(attempts, chainAttempts...)
}

func reasonIfEmpty(pages []models.ExtractedPage) string {
	if len(pages) == 0 {
		return "converted document yielded no pages"
	}
	return ""
}
