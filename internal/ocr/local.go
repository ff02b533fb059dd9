package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LocalEngine recognizes text by shelling out to a locally installed
// tesseract binary. Slower and weaker on tables than the cloud engine, but
// free and dependency-light, so it is the last tier in every OCR chain.
type LocalEngine struct {
	command string
}

// NewLocalEngine returns a local OCR engine, or an AbsentEngine when the
// command is not on PATH. Resolution happens once, here.
func NewLocalEngine(command string) Engine {
	if command == "" {
		command = "tesseract"
	}
	if _, err := exec.LookPath(command); err != nil {
		return AbsentEngine{Reason: fmt.Sprintf("%s not found", command)}
	}
	return &LocalEngine{command: command}
}

func (e *LocalEngine) Name() string { return "local" }

// Recognize runs the recognizer with the image on stdin and reads the text
// from stdout. Recognition errors surface as plain errors for the engine to
// demote to tier failures.
func (e *LocalEngine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	args := []string{"stdin", "stdout", "--oem", "1", "--psm", "6"}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Stdin = bytes.NewReader(image)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errOut.String())
		if msg != "" {
			return "", fmt.Errorf("local ocr: %w: %s", err, msg)
		}
		return "", fmt.Errorf("local ocr: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
