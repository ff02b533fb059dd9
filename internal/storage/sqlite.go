// Package storage persists processed document results in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/seonbi/munseo/internal/models"
)

// Store writes and reads DocumentResults. Reprocessing a source replaces
// its previous result; results are otherwise immutable.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		char_count INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL,
		low_confidence INTEGER NOT NULL DEFAULT 0,
		attempts TEXT,
		processed_at TIMESTAMP NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	CREATE INDEX IF NOT EXISTS idx_documents_processed_at ON documents(processed_at);

	CREATE TABLE IF NOT EXISTS chunks (
		document_id TEXT NOT NULL,
		chunk_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		char_count INTEGER NOT NULL,
		page INTEGER NOT NULL,
		tags TEXT,
		metadata TEXT,
		from_overlap INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (document_id, chunk_id),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveResult stores a result and its chunks in one transaction. A previous
// result for the same source is replaced.
func (s *Store) SaveResult(ctx context.Context, result *models.DocumentResult) error {
	attemptsJSON, err := json.Marshal(result.Attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE source = ?`, result.Source); err != nil {
		return fmt.Errorf("replace previous result: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, source, kind, page_count, char_count, chunk_count, low_confidence, attempts, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.Source, string(result.Kind),
		result.Summary.PageCount, result.Summary.CharCount, result.Summary.ChunkCount,
		boolToInt(result.LowConfidence), string(attemptsJSON), result.ProcessedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, chunk_id, text, char_count, page, tags, metadata, from_overlap)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range result.Chunks {
		tagsJSON, err := json.Marshal(ch.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		metaJSON, err := json.Marshal(ch.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			result.ID, ch.ID, ch.Text, ch.CharCount, ch.Page,
			string(tagsJSON), string(metaJSON), boolToInt(ch.FromOverlap),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetResult returns a stored result by document id, including its chunks.
func (s *Store) GetResult(ctx context.Context, id string) (*models.DocumentResult, error) {
	var result models.DocumentResult
	var kind, attemptsJSON string
	var lowConfidence int

	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, kind, page_count, char_count, chunk_count, low_confidence, attempts, processed_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&result.ID, &result.Source, &kind,
		&result.Summary.PageCount, &result.Summary.CharCount, &result.Summary.ChunkCount,
		&lowConfidence, &attemptsJSON, &result.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	result.Kind = models.DocumentKind(kind)
	result.LowConfidence = lowConfidence != 0
	if attemptsJSON != "" {
		if err := json.Unmarshal([]byte(attemptsJSON), &result.Attempts); err != nil {
			return nil, fmt.Errorf("unmarshal attempts: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, text, char_count, page, tags, metadata, from_overlap
		 FROM chunks WHERE document_id = ? ORDER BY chunk_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ch models.ChunkRecord
		var tagsJSON, metaJSON string
		var fromOverlap int
		if err := rows.Scan(&ch.ID, &ch.Text, &ch.CharCount, &ch.Page, &tagsJSON, &metaJSON, &fromOverlap); err != nil {
			return nil, err
		}
		ch.FromOverlap = fromOverlap != 0
		if tagsJSON != "" {
			if err := json.Unmarshal([]byte(tagsJSON), &ch.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags: %w", err)
			}
		}
		if metaJSON != "" && metaJSON != "null" {
			if err := json.Unmarshal([]byte(metaJSON), &ch.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		result.Chunks = append(result.Chunks, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &result, nil
}

// DocumentInfo is a summary row used by listings.
type DocumentInfo struct {
	ID            string              `json:"id"`
	Source        string              `json:"source"`
	Kind          models.DocumentKind `json:"kind"`
	Summary       models.Summary      `json:"summary"`
	LowConfidence bool                `json:"low_confidence,omitempty"`
}

// ListDocuments returns summaries of stored documents, most recent first.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, kind, page_count, char_count, chunk_count, low_confidence
		 FROM documents ORDER BY processed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		var kind string
		var low int
		if err := rows.Scan(&d.ID, &d.Source, &kind,
			&d.Summary.PageCount, &d.Summary.CharCount, &d.Summary.ChunkCount, &low); err != nil {
			return nil, err
		}
		d.Kind = models.DocumentKind(kind)
		d.LowConfidence = low != 0
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// DeleteDocument removes a stored result and its chunks by document id.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// DeleteBySource removes a stored result and its chunks.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, source)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
