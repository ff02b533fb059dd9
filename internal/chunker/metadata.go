package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/seonbi/munseo/internal/config"
	"github.com/seonbi/munseo/internal/models"
	"github.com/seonbi/munseo/pkg/utils"
)

// metadataExtractor pulls document-scoped fields out of normalized text.
// The field vocabulary is fixed; the patterns that fill it are configured.
type metadataExtractor struct {
	titleMaxLen int
	dates       []*regexp.Regexp
	departments []*regexp.Regexp
	authors     []*regexp.Regexp
}

func newMetadataExtractor(cfg config.MetadataConfig) (*metadataExtractor, error) {
	e := &metadataExtractor{titleMaxLen: cfg.TitleMaxLen}
	var err error
	if e.dates, err = compilePatterns(cfg.DatePatterns); err != nil {
		return nil, fmt.Errorf("date patterns: %w", err)
	}
	if e.departments, err = compilePatterns(cfg.DepartmentPatterns); err != nil {
		return nil, fmt.Errorf("department patterns: %w", err)
	}
	if e.authors, err = compilePatterns(cfg.AuthorPatterns); err != nil {
		return nil, fmt.Errorf("author patterns: %w", err)
	}
	return e, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// extract returns the first match per field over the whole document text.
// Absent fields are omitted from the map.
func (e *metadataExtractor) extract(text string) map[string]string {
	meta := make(map[string]string)
	if title := firstLine(text, e.titleMaxLen); title != "" {
		meta[models.MetaTitle] = title
	}
	if v := firstMatch(e.dates, text); v != "" {
		meta[models.MetaDate] = v
	}
	if v := firstMatch(e.departments, text); v != "" {
		meta[models.MetaDepartment] = v
	}
	if v := firstMatch(e.authors, text); v != "" {
		meta[models.MetaAuthor] = v
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// firstMatch returns the first capture group of the first pattern that
// matches, or the whole match for patterns without groups.
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

// firstLine returns the first non-empty line truncated to maxLen runes.
func firstLine(text string, maxLen int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return utils.Truncate(line, maxLen)
	}
	return ""
}
