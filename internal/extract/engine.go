// Package extract turns heterogeneous document files into extracted page
// text. Each document kind has an ordered list of extraction tiers; a tier
// that fails or produces insufficient text escalates to the next one, and
// every outcome is recorded as provenance.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/seonbi/munseo/internal/config"
	"github.com/seonbi/munseo/internal/format"
	"github.com/seonbi/munseo/internal/hwp"
	"github.com/seonbi/munseo/internal/models"
	"github.com/seonbi/munseo/internal/normalize"
	"github.com/seonbi/munseo/internal/ocr"
)

// Tier names recorded in extraction provenance.
const (
	tierPDFText       = "pdf_text"
	tierCloudOCR      = "ocr_cloud"
	tierLocalOCR      = "ocr_local"
	tierOfficeXML     = "office_xml"
	tierSlidesXML     = "slides_xml"
	tierSheetGrid     = "sheet_grid"
	tierDelimitedRows = "delimited_rows"
	tierPlainText     = "plain_text"
)

// Result is the outcome of extracting one file. Pages hold the accepted
// tier's output; Attempts record every tier that ran, in order.
type Result struct {
	Kind          models.DocumentKind
	Pages         []models.ExtractedPage
	Attempts      []models.ExtractionAttempt
	LowConfidence bool
}

// CharCount returns the total number of runes across all pages.
func (r *Result) CharCount() int {
	total := 0
	for _, p := range r.Pages {
		total += len([]rune(p.Text))
	}
	return total
}

// tierFunc runs one extraction strategy against a file.
type tierFunc func(ctx context.Context, path string) ([]models.ExtractedPage, error)

// tier is one entry in a kind's escalation chain. Gated tiers must pass the
// sufficiency check to be accepted; ungated tiers accept whatever they read.
type tier struct {
	name  string
	run   tierFunc
	gated bool
}

// Engine resolves extraction capabilities once at construction. Absent
// capabilities stay in the chain and fail like any other tier, which keeps
// escalation order independent of deployment configuration.
type Engine struct {
	minCharsPerPage int
	lang            string
	dpi             int
	cloud           ocr.Engine
	local           ocr.Engine
	converter       ocr.Converter
	legacy          *hwp.Processor
	logger          *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCloudEngine overrides the cloud OCR engine.
func WithCloudEngine(eng ocr.Engine) Option {
	return func(e *Engine) { e.cloud = eng }
}

// WithLocalEngine overrides the local OCR engine.
func WithLocalEngine(eng ocr.Engine) Option {
	return func(e *Engine) { e.local = eng }
}

// WithConverter overrides the legacy-format converter.
func WithConverter(c ocr.Converter) Option {
	return func(e *Engine) { e.converter = c }
}

// NewEngine builds an Engine from configuration. OCR engines and the
// conversion host are probed here, never during extraction.
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		minCharsPerPage: cfg.Pipeline.MinCharsPerPage,
		lang:            cfg.OCR.Language,
		dpi:             cfg.OCR.DPI,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cloud == nil {
		if cfg.OCR.CloudOCREnabled() {
			e.cloud = ocr.NewCloudEngine(cfg.OCR.CloudURL, cfg.OCR.CloudAPIKey, ocr.WithCloudLogger(e.logger))
		} else {
			e.cloud = ocr.AbsentEngine{Reason: "cloud OCR not configured"}
		}
	}
	if e.local == nil {
		if cfg.OCR.LocalOCREnabled() {
			e.local = ocr.NewLocalEngine(cfg.OCR.LocalCommand)
		} else {
			e.local = ocr.AbsentEngine{Reason: "local OCR disabled"}
		}
	}
	if e.converter == nil {
		if cfg.Convert.ConvertEnabled() {
			e.converter = ocr.NewAutomationConverter(cfg.Convert.Command, cfg.Convert.DismissRetries, ocr.WithConvertLogger(e.logger))
		} else {
			e.converter = ocr.AbsentConverter{Reason: "conversion host not configured"}
		}
	}
	e.legacy = hwp.NewProcessor(e.converter, e, cfg.Convert.MinChars, cfg.Convert.CharsPerKB, hwp.WithLogger(e.logger))
	return e
}

// Extract classifies the file and runs its kind's tier chain. It never
// returns an error; total failure yields an empty low-confidence result
// whose attempts explain what happened.
func (e *Engine) Extract(ctx context.Context, path string) *Result {
	kind := format.Classify(path)

	switch kind {
	case models.KindLegacyWordBinary, models.KindLegacyWordXML:
		pages, attempts := e.legacy.Extract(ctx, path)
		return &Result{
			Kind:          kind,
			Pages:         pages,
			Attempts:      attempts,
			LowConfidence: !acceptedTierSucceeded(pages, attempts),
		}
	}

	pages, attempts, low := e.runTiers(ctx, path, e.tiers(kind))
	return &Result{Kind: kind, Pages: pages, Attempts: attempts, LowConfidence: low}
}

// ExtractPDF runs the portable-document chain against an already-converted
// artifact. It satisfies the re-extraction hook used by the legacy word
// processor path.
func (e *Engine) ExtractPDF(ctx context.Context, path string) ([]models.ExtractedPage, []models.ExtractionAttempt) {
	pages, attempts, _ := e.runTiers(ctx, path, e.tiers(models.KindPortableDocument))
	return pages, attempts
}

// tiers returns the escalation chain for a document kind.
func (e *Engine) tiers(kind models.DocumentKind) []tier {
	switch kind {
	case models.KindPortableDocument:
		return []tier{
			{name: tierPDFText, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return pdfText(p) }, gated: true},
			{name: tierCloudOCR, run: e.ocrPDF(e.cloud, tierCloudOCR), gated: true},
			{name: tierLocalOCR, run: e.ocrPDF(e.local, tierLocalOCR), gated: true},
		}
	case models.KindRasterImage:
		return []tier{
			{name: tierCloudOCR, run: e.ocrImage(e.cloud, tierCloudOCR), gated: true},
			{name: tierLocalOCR, run: e.ocrImage(e.local, tierLocalOCR), gated: true},
		}
	case models.KindWordProcessor:
		return []tier{
			{name: tierOfficeXML, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return wordText(p) }},
			// Non-container formats such as RTF fall through to a gated
			// character decode; binary junk fails the printable check.
			{name: tierPlainText, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return plainText(p) }, gated: true},
		}
	case models.KindPresentation:
		return []tier{
			{name: tierSlidesXML, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return slidesText(p) }},
		}
	case models.KindSpreadsheet:
		return []tier{
			{name: tierSheetGrid, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return sheetText(p) }},
		}
	case models.KindDelimitedTable:
		return []tier{
			{name: tierDelimitedRows, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return delimitedText(p) }},
		}
	default:
		return []tier{
			{name: tierPlainText, run: func(_ context.Context, p string) ([]models.ExtractedPage, error) { return plainText(p) }},
		}
	}
}

// runTiers executes the chain in order and returns the first accepted
// output. When every tier fails, the best partial output by character count
// is retained and the result is marked low confidence.
func (e *Engine) runTiers(ctx context.Context, path string, tiers []tier) ([]models.ExtractedPage, []models.ExtractionAttempt, bool) {
	var attempts []models.ExtractionAttempt
	var best []models.ExtractedPage
	bestChars := -1

	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, models.ExtractionAttempt{Tier: t.name, Reason: err.Error()})
			break
		}
		pages, err := t.run(ctx, path)
		if err != nil {
			e.logger.Debug("extraction tier failed",
				zap.String("tier", t.name), zap.String("path", path), zap.Error(err))
			attempts = append(attempts, models.ExtractionAttempt{Tier: t.name, Reason: err.Error()})
			continue
		}
		q := MeasureQuality(pages)
		if t.gated {
			if bad, reason := q.Insufficient(e.minCharsPerPage); bad {
				attempts = append(attempts, models.ExtractionAttempt{Tier: t.name, CharCount: q.CharCount, Reason: reason})
				if q.CharCount > bestChars {
					best, bestChars = pages, q.CharCount
				}
				continue
			}
		}
		attempts = append(attempts, models.ExtractionAttempt{Tier: t.name, Succeeded: true, CharCount: q.CharCount})
		return pages, attempts, q.CharCount == 0
	}
	return best, attempts, true
}

// ocrPDF builds a tier that rasterizes every PDF page and recognizes each
// image. Pages that fail individually stay empty; the tier as a whole fails
// only when no page could be recognized.
func (e *Engine) ocrPDF(engine ocr.Engine, tierName string) tierFunc {
	return func(ctx context.Context, path string) ([]models.ExtractedPage, error) {
		images, err := renderPDFPages(path, e.dpi)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			return nil, errors.New("no pages to render")
		}
		pages := make([]models.ExtractedPage, 0, len(images))
		var firstErr error
		recognized := 0
		for i, img := range images {
			text, err := engine.Recognize(ctx, img, e.lang)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				e.logger.Debug("page recognition failed",
					zap.String("tier", tierName), zap.Int("page", i+1), zap.Error(err))
				pages = append(pages, models.ExtractedPage{Index: i + 1, Tier: tierName})
				continue
			}
			recognized++
			pages = append(pages, models.ExtractedPage{
				Index: i + 1,
				Text:  normalize.CleanOCR(text),
				Tier:  tierName,
			})
		}
		if recognized == 0 {
			return nil, fmt.Errorf("recognize pages: %w", firstErr)
		}
		return pages, nil
	}
}

// ocrImage builds a tier that recognizes a raster image as a single page.
func (e *Engine) ocrImage(engine ocr.Engine, tierName string) tierFunc {
	return func(ctx context.Context, path string) ([]models.ExtractedPage, error) {
		img, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		text, err := engine.Recognize(ctx, img, e.lang)
		if err != nil {
			return nil, fmt.Errorf("recognize image: %w", err)
		}
		return []models.ExtractedPage{{Index: 1, Text: normalize.CleanOCR(text), Tier: tierName}}, nil
	}
}

// acceptedTierSucceeded reports whether the attempt that produced the final
// pages was recorded as a success.
func acceptedTierSucceeded(pages []models.ExtractedPage, attempts []models.ExtractionAttempt) bool {
	if len(pages) == 0 {
		return false
	}
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Tier == pages[0].Tier {
			return attempts[i].Succeeded
		}
	}
	return false
}
