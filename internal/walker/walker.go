package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo holds metadata about a discovered regular file.
type FileInfo struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the walk root
	Size    int64
}

// IgnoreFileName is the project-local ignore file, created with defaults on
// first use.
const IgnoreFileName = ".codescopeignore"

// defaultIgnores are used when no ignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	".codescope",
	".cache",
	"dist",
	"build",
	"target",
}

// ignoreRule is one parsed ignore pattern. base scopes the rule to the
// directory whose ignore file declared it ("" for root-level sources); a
// negated rule re-includes paths a preceding rule excluded.
type ignoreRule struct {
	pattern string
	negate  bool
	base    string
}

// ignoreSet evaluates rules in declaration order, last match wins, which is
// how source-control ignore files resolve negation. Rules from deeper ignore
// files are appended during the walk and therefore take precedence.
type ignoreSet struct {
	rules []ignoreRule
}

func (s *ignoreSet) addPatterns(patterns []string, base string) {
	for _, p := range patterns {
		negate := strings.HasPrefix(p, "!")
		if negate {
			p = strings.TrimPrefix(p, "!")
		}
		if p == "" {
			continue
		}
		s.rules = append(s.rules, ignoreRule{pattern: p, negate: negate, base: base})
	}
}

func (s *ignoreSet) addFile(path, base string) {
	s.addPatterns(readPatternFile(path), base)
}

// ignored reports whether a name/relative-path pair is excluded. rel is
// always relative to the walk root; scoped rules match against the remainder
// below their base directory.
func (s *ignoreSet) ignored(name, rel string) bool {
	excluded := false
	for _, r := range s.rules {
		target := rel
		if r.base != "" {
			if !strings.HasPrefix(rel, r.base+"/") {
				continue
			}
			target = strings.TrimPrefix(rel, r.base+"/")
		}
		if matchPattern(r.pattern, name, target) {
			excluded = !r.negate
		}
	}
	return excluded
}

// matchPattern checks one pattern against an entry name and its scoped path.
func matchPattern(pattern, name, path string) bool {
	pattern = strings.TrimPrefix(pattern, "/")
	if name == pattern {
		return true
	}
	if path == pattern || strings.HasPrefix(path, pattern+"/") {
		return true
	}
	if ok, _ := doublestar.Match(pattern, path); ok {
		return true
	}
	if ok, _ := doublestar.Match(pattern, name); ok {
		return true
	}
	return false
}

// Walk traverses the directory tree rooted at root and sends every regular
// file on the returned channel. Ignore patterns come from the project ignore
// file, per-directory .gitignore files, and the user's global ignore file.
// Symlinks are skipped; no extension or size filtering happens here so that
// callers can count files they later skip. quit is consulted between
// entries; when it returns true enumeration stops early. quit may be nil.
func Walk(root string, quit func() bool) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := loadRootIgnores(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip errors, keep walking
			}
			if quit != nil && quit() {
				return fs.SkipAll
			}

			rel, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				if ignores.ignored(d.Name(), rel) {
					return filepath.SkipDir
				}
				// Ignore files in this directory scope everything below it.
				ignores.addFile(filepath.Join(path, ".gitignore"), rel)
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}
			// The ignore control files configure the walk; they are not part
			// of the tree being scanned.
			if d.Name() == IgnoreFileName || d.Name() == ".gitignore" {
				return nil
			}
			if ignores.ignored(d.Name(), rel) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			files <- FileInfo{
				Path:    path,
				RelPath: rel,
				Size:    info.Size(),
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// loadRootIgnores seeds the rule set from the project ignore file, the root
// .gitignore, and the user-global ignore file. A missing project ignore file
// is created with the defaults.
func loadRootIgnores(root string) *ignoreSet {
	s := &ignoreSet{}

	patterns := readPatternFile(filepath.Join(root, IgnoreFileName))
	if patterns == nil {
		createDefaultIgnoreFile(filepath.Join(root, IgnoreFileName))
		patterns = defaultIgnores
	}
	s.addPatterns(patterns, "")

	s.addFile(filepath.Join(root, ".gitignore"), "")

	if cfgDir, err := os.UserConfigDir(); err == nil {
		s.addFile(filepath.Join(cfgDir, "codescope", "ignore"), "")
	}

	return s
}

// readPatternFile returns the non-comment lines of a pattern file, or nil if
// the file cannot be read.
func readPatternFile(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	patterns := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	return patterns
}

func createDefaultIgnoreFile(path string) {
	var b strings.Builder
	b.WriteString("# Paths to exclude from scanning.\n")
	b.WriteString("# One pattern per line. Supports exact names, ** globs, and ! negation.\n\n")
	for _, p := range defaultIgnores {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	// Best-effort write; if it fails the defaults are still used in memory.
	os.WriteFile(path, []byte(b.String()), 0o644)
}
