package batch

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp3"))
	writeFile(t, filepath.Join(dir, "b.MP3"))
	writeFile(t, filepath.Join(dir, "nested", "c.mp3"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	got, err := Walk(dir, ".mp3")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	if len(got) != 3 {
		t.Fatalf("got %d files, want 3: %v", len(got), got)
	}
}

func TestRunAppliesFnToEveryMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp3"))
	writeFile(t, filepath.Join(dir, "b.mp3"))

	results, err := Run(dir, 2, []string{".mp3"}, func(path string) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Err != nil || r.Message != "ok" {
			t.Errorf("result = %+v", r)
		}
	}
}

func TestRunCapturesPerFileErrorWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.mp3"))
	writeFile(t, filepath.Join(dir, "bad.mp3"))

	results, err := Run(dir, 1, []string{".mp3"}, func(path string) (string, error) {
		if filepath.Base(path) == "bad.mp3" {
			return "", os.ErrInvalid
		}
		return "processed", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (batch must not abort on error)", len(results))
	}

	var sawError, sawSuccess bool
	for _, r := range results {
		if r.Err != nil {
			sawError = true
		} else if r.Message == "processed" {
			sawSuccess = true
		}
	}
	if !sawError || !sawSuccess {
		t.Errorf("results = %+v", results)
	}
}

func TestRunDefaultsWorkersWhenNonPositive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp3"))

	results, err := Run(dir, 0, []string{".mp3"}, func(path string) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}
