// Package batch is the thin external collaborator spec.md §1 excludes
// from the core: directory walking, extension filtering, and a
// bounded-concurrency driver over a per-file operation. None of the
// tag codec packages import it; it only calls into the public id3tag
// API through the ProcessFunc a caller supplies.
package batch

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Result is one file's outcome: either Message (success) or Err
// (failure), never both. A failed file never aborts the rest of the
// batch, per spec.md §7's user-visible error policy.
type Result struct {
	Path    string
	Message string
	Err     error
}

// ProcessFunc processes a single file, returning a short status
// message on success.
type ProcessFunc func(path string) (string, error)

// Walk returns every file under root (recursively) whose extension
// matches one of exts, case-insensitively. exts entries should include
// the leading dot, e.g. ".mp3".
func Walk(root string, exts ...string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				out = append(out, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Run walks root for files matching exts and applies fn to each, using
// up to workers goroutines at a time (runtime.NumCPU() if workers <=
// 0). Results are returned in file order, one per input file; a
// per-file error is captured in its Result rather than stopping the
// batch, matching the codec's "single-threaded and exclusive per file"
// concurrency model (spec.md §5): two files in flight share nothing.
func Run(root string, workers int, exts []string, fn ProcessFunc) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	files, err := Walk(root, exts...)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(files))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			msg, err := fn(path)
			results[i] = Result{Path: path, Message: msg, Err: err}
			return nil
		})
	}
	g.Wait() // errors are carried in results, never returned here

	return results, nil
}
