// Package ocr provides the external recognition and conversion capabilities
// used by the extraction tiers. Capabilities are resolved once at
// construction: a capability that is not configured or not installed is
// represented by an explicit absent implementation, so callers branch on a
// value instead of probing the environment at every call site.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned by absent capabilities. The extraction engine
// treats it like any other tier failure and escalates.
var ErrUnavailable = errors.New("capability unavailable")

// Engine recognizes text in a rendered page image. Implementations must be
// safe for concurrent use; scarce backends serialize internally.
type Engine interface {
	// Name identifies the engine in extraction provenance.
	Name() string
	// Recognize returns the plain text found in a PNG-encoded page image.
	// lang is a recognition language hint (e.g. "kor+eng").
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

// Converter converts a document file to PDF so it can re-enter the
// portable-document extraction chain.
type Converter interface {
	// ToPDF converts src and returns the path of the produced PDF.
	// The caller owns the returned file and removes it when done.
	ToPDF(ctx context.Context, src string) (string, error)
}

// AbsentEngine is an Engine that always fails with ErrUnavailable.
type AbsentEngine struct {
	Reason string
}

func (a AbsentEngine) Name() string { return "absent" }

func (a AbsentEngine) Recognize(context.Context, []byte, string) (string, error) {
	if a.Reason != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, a.Reason)
	}
	return "", ErrUnavailable
}

// AbsentConverter is a Converter that always fails with ErrUnavailable.
type AbsentConverter struct {
	Reason string
}

func (a AbsentConverter) ToPDF(context.Context, string) (string, error) {
	if a.Reason != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, a.Reason)
	}
	return "", ErrUnavailable
}
