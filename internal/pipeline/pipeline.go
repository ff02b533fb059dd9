// Package pipeline orchestrates per-document processing: classify, extract,
// normalize, chunk. One document is sequential; batches fan out over a
// bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seonbi/munseo/internal/chunker"
	"github.com/seonbi/munseo/internal/config"
	"github.com/seonbi/munseo/internal/extract"
	"github.com/seonbi/munseo/internal/fileid"
	"github.com/seonbi/munseo/internal/format"
	"github.com/seonbi/munseo/internal/models"
	"github.com/seonbi/munseo/internal/normalize"
)

// Pipeline processes document files into DocumentResults.
type Pipeline struct {
	engine     *extract.Engine
	normalizer *normalize.Normalizer
	chunker    *chunker.Chunker
	workers    int
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithEngine overrides the extraction engine.
func WithEngine(e *extract.Engine) Option {
	return func(p *Pipeline) { p.engine = e }
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	ch, err := chunker.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	p := &Pipeline{
		normalizer: normalize.New(cfg.Pipeline.NoiseRunLength, cfg.Pipeline.NoiseRepeatLength, cfg.Pipeline.ArtifactDenylist),
		chunker:    ch,
		workers:    cfg.Pipeline.Workers,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = extract.NewEngine(cfg, extract.WithLogger(p.logger))
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p, nil
}

// ProcessFile runs the full pipeline for one file. It never returns an
// error; extraction failures surface as low-confidence results whose
// provenance explains what happened.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) *models.DocumentResult {
	start := time.Now()
	ext := p.engine.Extract(ctx, path)

	pages := make([]models.ExtractedPage, len(ext.Pages))
	charCount := 0
	for i, page := range ext.Pages {
		page.Text = p.normalizer.Normalize(page.Text)
		pages[i] = page
		charCount += len([]rune(page.Text))
	}

	chunks := p.chunker.Chunk(pages)

	result := &models.DocumentResult{
		ID:            fileid.DocumentID(path),
		Source:        path,
		Kind:          ext.Kind,
		Pages:         pages,
		Chunks:        chunks,
		Attempts:      ext.Attempts,
		LowConfidence: ext.LowConfidence,
		Summary: models.Summary{
			PageCount:  len(pages),
			CharCount:  charCount,
			ChunkCount: len(chunks),
		},
		ProcessedAt: time.Now(),
	}
	p.logger.Info("processed document",
		zap.String("path", path),
		zap.String("kind", string(result.Kind)),
		zap.Int("pages", result.Summary.PageCount),
		zap.Int("chunks", result.Summary.ChunkCount),
		zap.Bool("low_confidence", result.LowConfidence),
		zap.Duration("took", time.Since(start)))
	return result
}

// ProcessDir walks dir recursively and processes every regular file of a
// recognized kind. Results keep walk order. One bad document never aborts
// the batch.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string) ([]*models.DocumentResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	var files []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if format.Classify(path) == models.KindUnknown {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	results := make([]*models.DocumentResult, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.ProcessFile(ctx, files[i])
			}
		}()
	}
	for i := range files {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return compactResults(results), ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return compactResults(results), nil
}

// ProcessExtension reports whether the pipeline recognizes the extension.
func ProcessExtension(ext string) bool {
	return format.Classify("f"+strings.ToLower(ext)) != models.KindUnknown
}

func compactResults(results []*models.DocumentResult) []*models.DocumentResult {
	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
