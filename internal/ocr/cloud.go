package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CloudEngine recognizes text through a hosted document-parse API. It gives
// the best results on tables and stamped pages but is rate- and
// cost-limited, so calls are serialized per process.
type CloudEngine struct {
	url    string
	apiKey string
	client *http.Client
	mu     sync.Mutex
	logger *zap.Logger
}

// CloudOption configures a CloudEngine.
type CloudOption func(*CloudEngine)

// WithCloudLogger sets a logger for debug output.
func WithCloudLogger(l *zap.Logger) CloudOption {
	return func(e *CloudEngine) { e.logger = l }
}

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(c *http.Client) CloudOption {
	return func(e *CloudEngine) { e.client = c }
}

// NewCloudEngine returns a cloud OCR engine for the given endpoint and key.
func NewCloudEngine(url, apiKey string, opts ...CloudOption) *CloudEngine {
	e := &CloudEngine{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *CloudEngine) Name() string { return "cloud" }

// Recognize uploads the page image and returns the recognized text.
// Auth failures, quota exhaustion, and transient network errors all surface
// as plain errors; the extraction engine demotes them to tier failures.
func (e *CloudEngine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("document", "page.png")
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if err := mw.WriteField("language", lang); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloud ocr request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("cloud ocr auth failed: status %d", resp.StatusCode)
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("cloud ocr quota exceeded: status %d", resp.StatusCode)
	default:
		return "", fmt.Errorf("cloud ocr: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("cloud ocr response: %w", err)
	}
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("cloud ocr response: %w", err)
	}
	if e.logger != nil {
		e.logger.Debug("cloud ocr page recognized", zap.Int("chars", len(parsed.Text)))
	}
	return parsed.Text, nil
}
