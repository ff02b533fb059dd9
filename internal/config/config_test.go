package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
pipeline:
  chunk_size: 800
  chunk_overlap: 120
ocr:
  language: kor+eng
  dpi: 200
storage:
  database_path: ./results.db
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Pipeline.ChunkSize != 800 || cfg.Pipeline.ChunkOverlap != 120 {
		t.Errorf("chunk settings = %d/%d", cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	}
	if cfg.OCR.DPI != 200 {
		t.Errorf("DPI = %d", cfg.OCR.DPI)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "results.db") {
		t.Errorf("DatabasePath = %q not expanded relative to config dir", cfg.Storage.DatabasePath)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Pipeline.ChunkSize != 500 || cfg.Pipeline.ChunkOverlap != 100 {
		t.Errorf("default chunk settings = %d/%d", cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	}
	if cfg.OCR.Language != "kor+eng" {
		t.Errorf("default language = %q", cfg.OCR.Language)
	}
	if cfg.OCR.DPI != 300 {
		t.Errorf("default DPI = %d", cfg.OCR.DPI)
	}
	if cfg.Convert.MinChars != 1500 || cfg.Convert.CharsPerKB != 100 {
		t.Errorf("convert sufficiency = %d/%d", cfg.Convert.MinChars, cfg.Convert.CharsPerKB)
	}
	if len(cfg.Metadata.DatePatterns) == 0 {
		t.Error("default date patterns missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate_overlapContract(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Pipeline.ChunkSize = 100
	cfg.Pipeline.ChunkOverlap = 100
	if err := cfg.Validate(); err == nil {
		t.Error("overlap >= chunk size must be rejected")
	}
	cfg.Pipeline.ChunkOverlap = 150
	if err := cfg.Validate(); err == nil {
		t.Error("overlap > chunk size must be rejected")
	}
}

func TestValidate_badPattern(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Metadata.DatePatterns = []string{`(`}
	if err := cfg.Validate(); err == nil {
		t.Error("invalid regex must be rejected")
	}
}

func TestOCRToggles(t *testing.T) {
	var ocr OCRConfig
	if ocr.CloudOCREnabled() {
		t.Error("cloud OCR should be off without an API key")
	}
	ocr.CloudAPIKey = "k"
	if !ocr.CloudOCREnabled() {
		t.Error("cloud OCR should be on with an API key")
	}
	off := false
	ocr.CloudEnabled = &off
	if ocr.CloudOCREnabled() {
		t.Error("explicit flag wins over API key presence")
	}
	if !ocr.LocalOCREnabled() {
		t.Error("local OCR defaults on")
	}
}
