// Package config provides configuration loading and structs for the munseo pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	OCR      OCRConfig      `yaml:"ocr"`
	Convert  ConvertConfig  `yaml:"convert"`
	Metadata MetadataConfig `yaml:"metadata"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the result sink database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// PipelineConfig holds chunking, sufficiency, and normalizer settings.
type PipelineConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	Workers      int `yaml:"workers"`

	// MinCharsPerPage is the sufficiency threshold for native extraction:
	// below it, the engine escalates to the next tier. A heuristic, not a law.
	MinCharsPerPage int `yaml:"min_chars_per_page"`

	// NoiseRunLength is the maximum allowed run of symbol characters before
	// the run is treated as OCR noise. NoiseRepeatLength is the maximum
	// allowed repetition of a single character.
	NoiseRunLength    int      `yaml:"noise_run_length"`
	NoiseRepeatLength int      `yaml:"noise_repeat_length"`
	ArtifactDenylist  []string `yaml:"artifact_denylist"`
}

// OCRConfig holds settings for the cloud and local OCR tiers.
type OCRConfig struct {
	Language     string `yaml:"language"`
	DPI          int    `yaml:"dpi"`
	CloudEnabled *bool  `yaml:"cloud_enabled"`
	CloudURL     string `yaml:"cloud_url"`
	CloudAPIKey  string `yaml:"cloud_api_key"`
	LocalEnabled *bool  `yaml:"local_enabled"`
	LocalCommand string `yaml:"local_command"`
}

// ConvertConfig holds settings for the document-automation conversion path.
type ConvertConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Command string `yaml:"command"`

	// DismissRetries bounds the attempts to clear the automation host's
	// security-confirmation dialog before conversion is declared failed.
	DismissRetries int `yaml:"dismiss_retries"`

	// Sufficiency scaling for the legacy binary preview stream: the stream
	// must yield at least max(file_kb*CharsPerKB, MinChars) characters or the
	// conversion path is entered.
	MinChars   int `yaml:"hwp_min_chars"`
	CharsPerKB int `yaml:"hwp_chars_per_kb"`
}

// MetadataConfig holds the replaceable matcher set for chunk metadata.
// The defaults are tuned for Korean office documents.
type MetadataConfig struct {
	TitleMaxLen        int      `yaml:"title_max_len"`
	DatePatterns       []string `yaml:"date_patterns"`
	DepartmentPatterns []string `yaml:"department_patterns"`
	AuthorPatterns     []string `yaml:"author_patterns"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and validates. Returns an error if the file cannot be read or
// parsed, or if a contract is violated (e.g. overlap >= chunk size).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration contracts. Violations abort the run; they
// are the only fatal error class in the pipeline.
func (c *Config) Validate() error {
	if c.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Pipeline.ChunkSize)
	}
	if c.Pipeline.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative, got %d", c.Pipeline.ChunkOverlap)
	}
	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Pipeline.ChunkOverlap, c.Pipeline.ChunkSize)
	}
	for _, group := range [][]string{
		c.Metadata.DatePatterns,
		c.Metadata.DepartmentPatterns,
		c.Metadata.AuthorPatterns,
	} {
		for _, p := range group {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("invalid metadata pattern %q: %w", p, err)
			}
		}
	}
	return nil
}

// CloudOCREnabled reports whether the cloud OCR tier should be constructed.
func (c *OCRConfig) CloudOCREnabled() bool {
	if c.CloudEnabled != nil {
		return *c.CloudEnabled
	}
	return c.CloudAPIKey != ""
}

// LocalOCREnabled reports whether the local OCR tier should be constructed.
func (c *OCRConfig) LocalOCREnabled() bool {
	if c.LocalEnabled != nil {
		return *c.LocalEnabled
	}
	return true
}

// ConvertEnabled reports whether the automation conversion path should be constructed.
func (c *ConvertConfig) ConvertEnabled() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return c.Command != ""
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
