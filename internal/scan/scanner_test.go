package scan_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/extract"
	"codescope/internal/extract/languages"
	"codescope/internal/scan"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newScanner() *scan.Scanner {
	return scan.New(extract.NewExtractor(languages.NewRegistry()))
}

func TestRunExtractsFunctions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.rs", "fn alpha() {}\n\nfn beta() {}\n")
	writeFile(t, dir, "util.go", "package util\n\nfunc Gamma() {}\n")

	res, err := newScanner().Run(scan.Options{
		Root:       dir,
		Extensions: []string{"rs", "go"},
		Detail:     extract.DetailNames,
		Timeout:    10 * time.Second,
		Workers:    4,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 2, res.FilesProcessed)

	got := map[string][]string{}
	for _, fc := range res.FileContexts {
		var names []string
		for _, fn := range fc.Functions {
			names = append(names, fn.Name)
		}
		got[filepath.Base(fc.Path)] = names
	}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, got["lib.rs"])
	assert.ElementsMatch(t, []string{"Gamma"}, got["util.go"])
}

func TestRunCountsNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.rs", "fn run() {}\n")
	writeFile(t, dir, "notes.txt", "not code\n")
	writeFile(t, dir, "data.bin", "x\x00y")

	res, err := newScanner().Run(scan.Options{
		Root:       dir,
		Extensions: []string{"rs"},
		Detail:     extract.DetailNames,
		Timeout:    10 * time.Second,
		Workers:    2,
	})
	require.NoError(t, err)
	// Every regular file is counted, matching extension or not.
	assert.Equal(t, 3, res.FilesProcessed)
	require.Len(t, res.FileContexts, 1)
	assert.Equal(t, "main.rs", filepath.Base(res.FileContexts[0].Path))
}

func TestRunSkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.rs", "fn huge() {}\n"+strings.Repeat("// padding\n", 100_000))
	writeFile(t, dir, "small.rs", "fn tiny() {}\n")

	res, err := newScanner().Run(scan.Options{
		Root:       dir,
		Extensions: []string{"rs"},
		Detail:     extract.DetailNames,
		Timeout:    10 * time.Second,
		Workers:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesProcessed)
	require.Len(t, res.FileContexts, 1)
	assert.Equal(t, "small.rs", filepath.Base(res.FileContexts[0].Path))
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	s := newScanner()

	_, err := s.Run(scan.Options{
		Root:       t.TempDir(),
		Extensions: []string{"rs"},
		Timeout:    0,
	})
	assert.Error(t, err)

	_, err = s.Run(scan.Options{
		Root:    t.TempDir(),
		Timeout: time.Second,
	})
	assert.Error(t, err)
}

func TestRunMissingRoot(t *testing.T) {
	res, err := newScanner().Run(scan.Options{
		Root:       filepath.Join(t.TempDir(), "does-not-exist"),
		Extensions: []string{"rs"},
		Timeout:    time.Second,
		Workers:    2,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.TimedOut)
	assert.Empty(t, res.FileContexts)
	assert.Zero(t, res.FilesProcessed)
}

func TestRunDeadline(t *testing.T) {
	dir := t.TempDir()
	total := 200
	for i := 0; i < total; i++ {
		writeFile(t, dir, filepath.Join("pkg", "file"+string(rune('a'+i%26))+string(rune('a'+i/26))+".rs"), "fn f() {}\n")
	}

	res, err := newScanner().Run(scan.Options{
		Root:       dir,
		Extensions: []string{"rs"},
		Detail:     extract.DetailFull,
		Timeout:    time.Nanosecond,
		Workers:    2,
	})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Less(t, res.FilesProcessed, total)
}

func TestRunGenerousTimeoutDoesNotFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "fn a() {}\n")

	res, err := newScanner().Run(scan.Options{
		Root:       dir,
		Extensions: []string{"rs"},
		Timeout:    time.Minute,
		Workers:    2,
	})
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 1, res.FilesProcessed)
}

func TestNormalizeExtensions(t *testing.T) {
	got := scan.NormalizeExtensions([]string{".rs", " py ", "", "go"})
	assert.Equal(t, []string{"rs", "py", "go"}, got)
}
