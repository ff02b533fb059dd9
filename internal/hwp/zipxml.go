package hwp

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// sectionPrefix and sectionSuffix bound the content entries inside the
// ZIP/XML successor format: Contents/section0.xml, Contents/section1.xml, ...
const (
	sectionPrefix = "Contents/section"
	sectionSuffix = ".xml"
)

// SectionText opens the file at path as a ZIP archive, walks the content XML
// entries in order, and returns the text nodes joined with paragraph breaks.
func SectionText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open zip container: %w", err)
	}
	defer zr.Close()

	type section struct {
		num  int
		file *zip.File
	}
	var sections []section
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, sectionPrefix) || !strings.HasSuffix(f.Name, sectionSuffix) {
			continue
		}
		// Document order follows the numeric suffix: section10 comes after
		// section2, not between section1 and section2.
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, sectionPrefix), sectionSuffix))
		if err != nil {
			continue
		}
		sections = append(sections, section{num: n, file: f})
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("no content sections in archive")
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].num < sections[j].num })

	var parts []string
	for _, s := range sections {
		text, err := sectionXMLText(s.file)
		if err != nil {
			return "", fmt.Errorf("section %s: %w", s.file.Name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// sectionXMLText walks one section's element tree and collects character
// data in document order, one line per text node.
func sectionXMLText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var lines []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
