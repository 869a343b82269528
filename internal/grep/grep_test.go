package grep_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/grep"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func search(t *testing.T, opts grep.Options) ([]grep.FileResult, grep.Stats) {
	t.Helper()
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	if opts.Extensions == nil {
		opts.Extensions = []string{"rs"}
	}
	results, stats, err := grep.Search(opts)
	require.NoError(t, err)
	return results, stats
}

func TestSearchContextWindow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "one\ntwo\nthree needle\nfour\nfive\n")

	results, stats := search(t, grep.Options{
		Root:         dir,
		Needle:       "needle",
		ContextLines: 1,
	})
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)

	m := results[0].Matches[0]
	assert.Equal(t, 3, m.LineNumber)
	assert.Equal(t, "   two\n>> three needle\n   four", m.Context)
	assert.Equal(t, 1, stats.TotalMatches)
}

func TestSearchWindowClampedAtFileStart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "needle first\nsecond\nthird\n")

	results, _ := search(t, grep.Options{
		Root:         dir,
		Needle:       "needle",
		ContextLines: 2,
	})
	require.Len(t, results, 1)
	m := results[0].Matches[0]
	assert.Equal(t, 1, m.LineNumber)
	assert.Equal(t, ">> needle first\n   second\n   third", m.Context)
}

func TestSearchMultipleMatchesAndStats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "needle\nplain\nneedle again\n")
	writeFile(t, dir, "sub/b.rs", "nothing here\n")
	writeFile(t, dir, "c.rs", "one more needle\n")

	results, stats := search(t, grep.Options{
		Root:   dir,
		Needle: "needle",
	})
	assert.Len(t, results, 2)
	assert.Equal(t, 3, stats.FilesScanned)
	assert.Equal(t, 3, stats.TotalMatches)
	assert.False(t, stats.TimedOut)
}

func TestSearchCaseSensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "Needle\nneedle\n")

	results, _ := search(t, grep.Options{
		Root:   dir,
		Needle: "needle",
	})
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, 2, results[0].Matches[0].LineNumber)
}

func TestSearchSkipsBinaryAndForeignExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "needle\n")
	writeFile(t, dir, "b.rs", "needle\x00binary")
	writeFile(t, dir, "c.txt", "needle\n")

	results, stats := search(t, grep.Options{
		Root:   dir,
		Needle: "needle",
	})
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "a.rs"), results[0].Path)
	// Binary and non-matching-extension files never reach the scanned count.
	assert.Equal(t, 1, stats.FilesScanned)
}

func TestSearchValidation(t *testing.T) {
	dir := t.TempDir()

	_, _, err := grep.Search(grep.Options{Root: dir, Needle: "x", Extensions: []string{"rs"}})
	assert.Error(t, err, "zero timeout")

	_, _, err = grep.Search(grep.Options{Root: dir, Needle: "", Extensions: []string{"rs"}, Timeout: time.Second})
	assert.Error(t, err, "empty needle")

	_, _, err = grep.Search(grep.Options{Root: dir, Needle: "x", Timeout: time.Second})
	assert.Error(t, err, "empty extensions")
}

func TestSearchMissingRoot(t *testing.T) {
	results, stats, err := grep.Search(grep.Options{
		Root:       filepath.Join(t.TempDir(), "gone"),
		Needle:     "x",
		Extensions: []string{"rs"},
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, stats.FilesScanned)
}
