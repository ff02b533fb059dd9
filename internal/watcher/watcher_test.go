package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWatcher_processOnWrite(t *testing.T) {
	dir := t.TempDir()
	processed := make(chan string, 8)
	w := New([]string{dir}, []string{".txt"}, true,
		func(path string) { processed <- path }, nil,
		WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("내용"), 0600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, processed, path)
}

func TestWatcher_extensionFilter(t *testing.T) {
	dir := t.TempDir()
	processed := make(chan string, 8)
	w := New([]string{dir}, []string{".txt"}, true,
		func(path string) { processed <- path }, nil,
		WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	skipped := filepath.Join(dir, "image.iso")
	matched := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(skipped, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(matched, []byte("y"), 0600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, processed, matched)
	select {
	case got := <-processed:
		t.Errorf("unexpected processing of %s", got)
	default:
	}
}

func TestWatcher_removeCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("내용"), 0600); err != nil {
		t.Fatal(err)
	}
	removed := make(chan string, 8)
	w := New([]string{dir}, []string{".txt"}, true,
		nil, func(path string) { removed <- path },
		WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, removed, path)
}

func TestWatcher_syncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(path, []byte("내용"), 0600); err != nil {
		t.Fatal(err)
	}
	processed := make(chan string, 8)
	w := New([]string{dir}, []string{".txt"}, true,
		func(path string) { processed <- path }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	w.SyncExistingFiles()
	waitFor(t, processed, path)
}

func TestWatcher_createsMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-yet")
	w := New([]string{root}, nil, true, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("missing root must be created, err=%v", err)
	}
}
