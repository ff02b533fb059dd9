// Package hwp extracts text from the legacy Hangul word-processor formats:
// the OLE compound-file binary container (.hwp) and its ZIP/XML successor
// (.hwpx). A file is handled by exactly one branch, selected by signature.
package hwp

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// previewStreamName is the fixed name of the plaintext preview stream inside
// the binary container. The stream is a lossy, size-capped rendering of the
// document body; it carries no completeness guarantee but needs no external
// process, so it is always tried first.
const previewStreamName = "PrvText"

var (
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipSignature = []byte{'P', 'K', 0x03, 0x04}
)

// Branch identifies which container branch a file belongs to.
type Branch int

const (
	BranchUnknown Branch = iota
	BranchBinary
	BranchZip
)

// Probe reads the first container signature bytes of the file at path and
// reports which branch handles it.
func Probe(path string) (Branch, error) {
	f, err := os.Open(path)
	if err != nil {
		return BranchUnknown, fmt.Errorf("probe: %w", err)
	}
	defer f.Close()
	sig := make([]byte, len(oleSignature))
	n, err := io.ReadFull(f, sig)
	if err != nil && err != io.ErrUnexpectedEOF {
		return BranchUnknown, fmt.Errorf("probe: %w", err)
	}
	sig = sig[:n]
	if bytes.HasPrefix(sig, oleSignature) {
		return BranchBinary, nil
	}
	if bytes.HasPrefix(sig, zipSignature) {
		return BranchZip, nil
	}
	return BranchUnknown, nil
}

// PreviewText opens the binary container at path and decodes its preview
// stream. Returns an error when the container cannot be opened or carries
// no preview stream; the caller demotes that to a tier failure.
func PreviewText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open container: %w", err)
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return "", fmt.Errorf("read compound file: %w", err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != previewStreamName {
			continue
		}
		data, readErr := io.ReadAll(entry)
		if readErr != nil {
			return "", fmt.Errorf("read %s stream: %w", previewStreamName, readErr)
		}
		return decodePreview(data)
	}
	return "", fmt.Errorf("%s stream not found", previewStreamName)
}

// decodePreview decodes the UTF-16LE preview stream and strips the NUL
// padding the container leaves at stream boundaries.
func decodePreview(data []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode preview stream: %w", err)
	}
	return strings.TrimSpace(strings.ReplaceAll(string(out), "\x00", "")), nil
}
