// Package chunker splits normalized document text into bounded, overlapping
// chunks while preserving structural cues and document-scoped metadata.
package chunker

import (
	"fmt"
	"strings"

	"github.com/seonbi/munseo/internal/config"
	"github.com/seonbi/munseo/internal/models"
)

// unitSeparator joins units inside one chunk. Newlines keep table rows and
// headings on their own lines for downstream consumers.
const unitSeparator = "\n"

// Chunker packs segmented units into chunks of at most size runes, carrying
// overlap runes of trailing context into each following chunk.
type Chunker struct {
	size    int
	overlap int
	meta    *metadataExtractor
}

// New builds a Chunker from configuration. The overlap must be smaller than
// the chunk size; configuration validation enforces that before this runs.
func New(cfg *config.Config) (*Chunker, error) {
	meta, err := newMetadataExtractor(cfg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata patterns: %w", err)
	}
	return &Chunker{
		size:    cfg.Pipeline.ChunkSize,
		overlap: cfg.Pipeline.ChunkOverlap,
		meta:    meta,
	}, nil
}

// Chunk converts normalized pages into an ordered chunk sequence. Ids are
// dense starting at 0. An empty document yields zero chunks; a non-empty
// document always yields at least one. The size cap is hard: when a unit
// nearly fills a chunk on its own, the carried overlap is trimmed below the
// configured length to keep the chunk within size.
func (c *Chunker) Chunk(pages []models.ExtractedPage) []models.ChunkRecord {
	units := segmentPages(pages, c.size, c.overlap)
	if len(units) == 0 {
		return c.fallbackChunk(pages)
	}

	metadata := c.meta.extract(joinPages(pages))

	var chunks []models.ChunkRecord
	var cur strings.Builder
	curLen := 0
	curPage := -1
	var curTags models.StructureTags
	fromOverlap := false
	pendingTail := ""

	flush := func() {
		if curLen == 0 {
			return
		}
		text := cur.String()
		chunks = append(chunks, models.ChunkRecord{
			ID:          len(chunks),
			Text:        text,
			CharCount:   len([]rune(text)),
			Page:        curPage,
			Tags:        curTags,
			Metadata:    metadata,
			FromOverlap: fromOverlap,
		})
		pendingTail = trailingRunes(text, c.overlap)
		cur.Reset()
		curLen = 0
		curPage = -1
		curTags = models.StructureTags{}
		fromOverlap = false
	}

	for _, u := range units {
		uLen := len([]rune(u.text))
		if curLen > 0 && curLen+1+uLen > c.size {
			flush()
		}
		if curLen == 0 && pendingTail != "" {
			// Carry trailing context forward, trimmed so the new chunk
			// still fits the unit under the size cap.
			allowed := c.size - uLen - 1
			if allowed > 0 {
				tail := trailingRunes(pendingTail, min(allowed, c.overlap))
				cur.WriteString(tail)
				curLen = len([]rune(tail))
				fromOverlap = true
			}
			pendingTail = ""
		}
		if curLen > 0 {
			cur.WriteString(unitSeparator)
			curLen++
		}
		cur.WriteString(u.text)
		curLen += uLen
		if curPage == -1 {
			curPage = u.page
		}
		curTags.Heading = curTags.Heading || u.tags.Heading
		curTags.Table = curTags.Table || u.tags.Table
		curTags.List = curTags.List || u.tags.List
		// A single unit longer than the chunk size ships whole rather than
		// severed mid-row or mid-heading.
		if uLen > c.size {
			flush()
		}
	}
	flush()
	return chunks
}

// fallbackChunk covers documents whose text produced no units. The document
// still yields one truncated chunk when any text exists at all.
func (c *Chunker) fallbackChunk(pages []models.ExtractedPage) []models.ChunkRecord {
	text := strings.TrimSpace(joinPages(pages))
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) > c.size {
		runes = runes[:c.size]
	}
	page := 0
	if len(pages) > 0 {
		page = pages[0].Index
	}
	return []models.ChunkRecord{{
		ID:        0,
		Text:      string(runes),
		CharCount: len(runes),
		Page:      page,
		Metadata:  c.meta.extract(text),
	}}
}

func joinPages(pages []models.ExtractedPage) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// trailingRunes returns the last n runes of text.
func trailingRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
