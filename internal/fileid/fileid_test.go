package fileid

import (
	"strings"
	"testing"
)

func TestDocumentID_deterministic(t *testing.T) {
	id1 := DocumentID("/inbox/notice.hwp")
	id2 := DocumentID("/inbox/notice.hwp")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, prefix) {
		t.Errorf("ID should have prefix %q: got %q", prefix, id1)
	}
}

func TestDocumentID_differentPaths(t *testing.T) {
	if DocumentID("/inbox/a.txt") == DocumentID("/inbox/b.txt") {
		t.Error("different paths should give different IDs")
	}
}

func TestDocumentID_normalizedPath(t *testing.T) {
	id1 := DocumentID("/inbox/notice.hwp")
	id2 := DocumentID("/inbox/./notice.hwp")
	id3 := DocumentID("/inbox/notice.hwp/")
	if id1 != id2 || id1 != id3 {
		t.Errorf("equivalent paths should normalize to one ID: %q %q %q", id1, id2, id3)
	}
}
