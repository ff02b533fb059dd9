// Package fileid derives a deterministic document ID from a source path.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "doc:"

// DocumentID returns a stable document ID for the given source path. The
// same path always yields the same ID, so reprocessing a file replaces its
// earlier result instead of accumulating duplicates.
func DocumentID(path string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}
