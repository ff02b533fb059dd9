package extract

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// renderPDFPages rasterizes every page of a PDF to PNG at the given DPI.
// The slice index is the zero-based page number.
func renderPDFPages(path string, dpi int) ([][]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF for rendering: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	images := make([][]byte, 0, numPages)
	for i := 0; i < numPages; i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}
