package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// automationMu serializes conversions process-wide. The automation host is
// a singleton on the machine; concurrent requests must queue.
var automationMu sync.Mutex

// AutomationConverter converts documents to PDF through an OS automation
// host wrapper. The wrapper contract: `<command> <src> <dst>` converts, and
// `<command> -acknowledge` dismisses a pending security-confirmation dialog
// in the host. Opening a legacy document can raise that modal dialog; the
// converter pokes the wrapper a bounded number of times while waiting, and
// gives up (conversion failure, not a fatal error) when the budget runs out.
type AutomationConverter struct {
	command        string
	dismissRetries int
	pollInterval   time.Duration
	logger         *zap.Logger
}

// ConvertOption configures an AutomationConverter.
type ConvertOption func(*AutomationConverter)

// WithConvertLogger sets a logger for debug output.
func WithConvertLogger(l *zap.Logger) ConvertOption {
	return func(c *AutomationConverter) { c.logger = l }
}

// WithPollInterval overrides the dialog-poll interval (used by tests).
func WithPollInterval(d time.Duration) ConvertOption {
	return func(c *AutomationConverter) { c.pollInterval = d }
}

// NewAutomationConverter returns a converter, or an AbsentConverter when the
// automation host wrapper is not on PATH.
func NewAutomationConverter(command string, dismissRetries int, opts ...ConvertOption) Converter {
	if command == "" {
		return AbsentConverter{Reason: "no automation command configured"}
	}
	if _, err := exec.LookPath(command); err != nil {
		return AbsentConverter{Reason: fmt.Sprintf("%s not found", command)}
	}
	if dismissRetries <= 0 {
		dismissRetries = 5
	}
	c := &AutomationConverter{
		command:        command,
		dismissRetries: dismissRetries,
		pollInterval:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToPDF converts src to a PDF in the temp directory and returns its path.
// The caller removes the file when done.
func (c *AutomationConverter) ToPDF(ctx context.Context, src string) (string, error) {
	automationMu.Lock()
	defer automationMu.Unlock()

	dst := filepath.Join(os.TempDir(), "munseo_conv_"+uuid.New().String()+".pdf")
	cmd := exec.CommandContext(ctx, c.command, src, dst)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start automation host: %w", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	dismissals := 0
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				_ = os.Remove(dst)
				return "", fmt.Errorf("automation conversion: %w", err)
			}
			if _, statErr := os.Stat(dst); statErr != nil {
				return "", fmt.Errorf("automation conversion produced no output: %w", statErr)
			}
			if c.logger != nil {
				c.logger.Debug("document converted", zap.String("src", src), zap.String("dst", dst))
			}
			return dst, nil
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-done
			_ = os.Remove(dst)
			return "", ctx.Err()
		case <-ticker.C:
			// Still running: the host may be stuck on its confirmation
			// dialog. Poke it, up to the retry budget.
			if dismissals >= c.dismissRetries {
				_ = cmd.Process.Kill()
				<-done
				_ = os.Remove(dst)
				return "", fmt.Errorf("automation dialog not dismissed after %d attempts", dismissals)
			}
			dismissals++
			ack := exec.CommandContext(ctx, c.command, "-acknowledge")
			if err := ack.Run(); err != nil && c.logger != nil {
				c.logger.Debug("dialog dismiss attempt failed",
					zap.Int("attempt", dismissals), zap.Error(err))
			}
		}
	}
}
