package chunker

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"

	"github.com/seonbi/munseo/internal/models"
)

// unit is one packable segment: a sentence, a heading line, a table row, or
// a list item, with the page it came from.
type unit struct {
	text string
	page int
	tags models.StructureTags
}

// segmentPages splits normalized page text into packable units. Structural
// lines become one unit each; runs of body lines are merged and split into
// sentences. window and overlap parameterize the fixed-window splitter that
// bounds oversized sentence output and covers text the segmenter yields
// nothing for. Only structural units can exceed window.
func segmentPages(pages []models.ExtractedPage, window, overlap int) []unit {
	var units []unit
	for _, page := range pages {
		var body []string
		flushBody := func() {
			if len(body) == 0 {
				return
			}
			text := strings.Join(body, " ")
			body = body[:0]
			for _, s := range splitSentences(text, window, overlap) {
				units = append(units, unit{text: s, page: page.Index})
			}
		}
		for _, line := range strings.Split(page.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				flushBody()
				continue
			}
			if tags := classifyLine(line); tags.Any() {
				flushBody()
				units = append(units, unit{text: line, page: page.Index, tags: tags})
				continue
			}
			body = append(body, line)
		}
		flushBody()
	}
	return units
}

// splitSentences segments text into sentence units. Segmenter output longer
// than window is re-split through the fixed-window splitter: sentence
// boundary rules can refuse to break long runs of lowercase prose, and a
// body unit must never exceed the chunk size on its own. If segmentation
// produces nothing for non-empty input, the fixed-window splitter keeps the
// text flowing instead of dropping it.
func splitSentences(text string, window, overlap int) []string {
	var out []string
	tokens := sentences.FromString(text)
	for tokens.Next() {
		s := strings.TrimSpace(tokens.Value())
		if s == "" {
			continue
		}
		if window > 0 && len([]rune(s)) > window {
			out = append(out, fixedWindow(s, window, overlap)...)
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		return fixedWindow(text, window, overlap)
	}
	return out
}

// fixedWindow splits text into windows of at most size runes, each starting
// overlap runes before the end of the previous window.
func fixedWindow(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{string(runes)}
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		// Windows are kept verbatim so consecutive windows share the overlap
		// region exactly; only all-blank windows are dropped.
		if w := string(runes[start:end]); strings.TrimSpace(w) != "" {
			out = append(out, w)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
