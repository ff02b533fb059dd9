package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/seonbi/munseo/internal/models"
)

// pptxSlidePattern matches slide parts inside a .pptx zip and captures the
// slide number used for ordering.
var pptxSlidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// atTag matches <a:t>text</a:t> with any attributes (DrawingML text runs).
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// odpDrawPage separates pages in an OpenDocument presentation.
var odpDrawPage = regexp.MustCompile(`</draw:page>`)

// slidesText extracts presentation text, one page per slide. Slide order
// follows the slide number in the part name, not zip entry order.
func slidesText(path string) ([]models.ExtractedPage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".odp" {
		return odpText(content)
	}
	return pptxText(content)
}

func pptxText(content []byte) ([]models.ExtractedPage, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		m := pptxSlidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]models.ExtractedPage, 0, len(slides))
	for i, s := range slides {
		body, err := readZipFile(zr, s.name)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		var lines []string
		for _, m := range atTag.FindAllStringSubmatch(string(body), -1) {
			if line := strings.TrimSpace(xmlEntities.Replace(m[1])); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, models.ExtractedPage{
			Index: i + 1,
			Text:  strings.Join(lines, "\n"),
			Tier:  tierSlidesXML,
		})
	}
	return pages, nil
}

func odpText(content []byte) ([]models.ExtractedPage, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODP: not a zip: %w", err)
	}
	contentXML, err := readZipFile(zr, "content.xml")
	if err != nil {
		return nil, fmt.Errorf("extract ODP: %w", err)
	}
	var pages []models.ExtractedPage
	for _, segment := range odpDrawPage.Split(string(contentXML), -1) {
		var lines []string
		for _, m := range odtTextP.FindAllStringSubmatch(segment, -1) {
			line := strings.TrimSpace(xmlEntities.Replace(innerTag.ReplaceAllString(m[1], " ")))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		pages = append(pages, models.ExtractedPage{
			Index: len(pages) + 1,
			Text:  strings.Join(lines, "\n"),
			Tier:  tierSlidesXML,
		})
	}
	return pages, nil
}
