// Package models defines core data structures for documents, pages, and chunks.
package models

import "time"

// DocumentKind identifies the family of a source file. It is derived once
// from the filename and never changes afterwards.
type DocumentKind string

const (
	KindPlainText        DocumentKind = "plain-text"
	KindDelimitedTable   DocumentKind = "delimited-table"
	KindWordProcessor    DocumentKind = "word-processor"
	KindPresentation     DocumentKind = "presentation"
	KindSpreadsheet      DocumentKind = "spreadsheet"
	KindLegacyWordBinary DocumentKind = "legacy-word-binary"
	KindLegacyWordXML    DocumentKind = "legacy-word-xml"
	KindRasterImage      DocumentKind = "raster-image"
	KindPortableDocument DocumentKind = "portable-document"
	KindUnknown          DocumentKind = "unknown"
)

// ExtractionAttempt records one tier's outcome for provenance and
// escalation decisions. Attempts are append-only and keep their order.
type ExtractionAttempt struct {
	Tier      string `json:"tier"`
	Succeeded bool   `json:"succeeded"`
	CharCount int    `json:"char_count"`
	Reason    string `json:"reason,omitempty"`
}

// ExtractedPage is one page of extracted text. Index is 1-based; 0 means
// the source format is not paginated. Pages are never reordered.
type ExtractedPage struct {
	Index int    `json:"page_num"`
	Text  string `json:"text"`
	Tier  string `json:"tier"`
}

// StructureTags marks which structural cues were detected inside a chunk.
type StructureTags struct {
	Heading bool `json:"heading,omitempty"`
	Table   bool `json:"table,omitempty"`
	List    bool `json:"list,omitempty"`
}

// Any reports whether at least one structural cue was detected.
func (s StructureTags) Any() bool { return s.Heading || s.Table || s.List }

// Metadata field keys extracted by the chunker. The vocabulary is fixed;
// the patterns that fill it are configurable.
const (
	MetaTitle      = "title"
	MetaDate       = "date"
	MetaAuthor     = "author"
	MetaDepartment = "department"
)

// ChunkRecord is one bounded, possibly overlapping text segment.
// IDs are dense and contiguous starting at 0 within a document.
type ChunkRecord struct {
	ID          int               `json:"chunk_id"`
	Text        string            `json:"text"`
	CharCount   int               `json:"char_count"`
	Page        int               `json:"page_num"`
	Tags        StructureTags     `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	FromOverlap bool              `json:"from_overlap,omitempty"`
}

// Summary holds per-document aggregate counts.
type Summary struct {
	PageCount  int `json:"page_count"`
	CharCount  int `json:"char_count"`
	ChunkCount int `json:"chunk_count"`
}

// DocumentResult is the aggregate output for one input file. It is created
// once per file, filled by the pipeline, and immutable afterwards.
type DocumentResult struct {
	ID            string              `json:"id"`
	Source        string              `json:"source"`
	Kind          DocumentKind        `json:"kind"`
	Pages         []ExtractedPage     `json:"pages"`
	Chunks        []ChunkRecord       `json:"chunks"`
	Attempts      []ExtractionAttempt `json:"attempts"`
	LowConfidence bool                `json:"low_confidence,omitempty"`
	Summary       Summary             `json:"summary"`
	ProcessedAt   time.Time           `json:"processed_at"`
}

// BestAttempt returns the attempt with the highest character count, or nil
// if no attempts were recorded. Used when every tier failed and the best
// partial output is retained as the result.
func BestAttempt(attempts []ExtractionAttempt) *ExtractionAttempt {
	var best *ExtractionAttempt
	for i := range attempts {
		if best == nil || attempts[i].CharCount > best.CharCount {
			best = &attempts[i]
		}
	}
	return best
}
