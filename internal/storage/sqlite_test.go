package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/seonbi/munseo/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "munseo.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult(id, source string) *models.DocumentResult {
	return &models.DocumentResult{
		ID:     id,
		Source: source,
		Kind:   models.KindPlainText,
		Chunks: []models.ChunkRecord{
			{ID: 0, Text: "첫 청크", CharCount: 4, Page: 1,
				Metadata: map[string]string{models.MetaTitle: "제목"}},
			{ID: 1, Text: "둘째 청크", CharCount: 5, Page: 1,
				Tags: models.StructureTags{Table: true}, FromOverlap: true},
		},
		Attempts: []models.ExtractionAttempt{
			{Tier: "plain_text", Succeeded: true, CharCount: 9},
		},
		Summary:     models.Summary{PageCount: 1, CharCount: 9, ChunkCount: 2},
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndGetResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := sampleResult("doc-1", "/tmp/a.txt")
	if err := s.SaveResult(ctx, want); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	got, err := s.GetResult(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.Source != want.Source || got.Kind != want.Kind {
		t.Errorf("got %+v", got)
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("chunks = %+v", got.Chunks)
	}
	if got.Chunks[0].Metadata[models.MetaTitle] != "제목" {
		t.Errorf("chunk metadata = %+v", got.Chunks[0].Metadata)
	}
	if !got.Chunks[1].Tags.Table || !got.Chunks[1].FromOverlap {
		t.Errorf("chunk 1 = %+v", got.Chunks[1])
	}
	if len(got.Attempts) != 1 || got.Attempts[0].Tier != "plain_text" {
		t.Errorf("attempts = %+v", got.Attempts)
	}
	if got.Summary != want.Summary {
		t.Errorf("summary = %+v", got.Summary)
	}
}

func TestSaveResult_replacesSameSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SaveResult(ctx, sampleResult("doc-1", "/tmp/a.txt")); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := s.SaveResult(ctx, sampleResult("doc-2", "/tmp/a.txt")); err != nil {
		t.Fatalf("SaveResult (reprocess): %v", err)
	}

	if _, err := s.GetResult(ctx, "doc-1"); err == nil {
		t.Error("previous result for the same source must be replaced")
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-2" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestGetResult_missing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetResult(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestDeleteBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SaveResult(ctx, sampleResult("doc-1", "/tmp/a.txt")); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := s.DeleteBySource(ctx, "/tmp/a.txt"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("docs = %+v", docs)
	}
}

func TestLowConfidenceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := sampleResult("doc-low", "/tmp/low.txt")
	r.LowConfidence = true
	if err := s.SaveResult(ctx, r); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	got, err := s.GetResult(ctx, "doc-low")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if !got.LowConfidence {
		t.Error("low-confidence marker must survive storage")
	}
}
