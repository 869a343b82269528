package extract

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec defines the tree-sitter grammar and queries for a language.
type LanguageSpec struct {
	Language *sitter.Language
	// NameQuery captures function-like constructs with only a @name capture.
	NameQuery string
	// DefinitionQuery captures function-like constructs with @name, @body,
	// and @definition captures. @body may be absent for constructs without a
	// detectable body delimiter.
	DefinitionQuery string
	Extensions      []string
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]*LanguageSpec
	names map[*LanguageSpec]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]*LanguageSpec),
		names: make(map[*LanguageSpec]string),
	}
}

// Register adds a language spec under the given name.
func (r *Registry) Register(name string, spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[spec] = name
	for _, ext := range spec.Extensions {
		r.byExt[strings.TrimPrefix(ext, ".")] = spec
	}
}

// Lookup returns the spec registered for an extension (with or without a
// leading dot), or nil when the extension maps to no supported grammar.
func (r *Registry) Lookup(ext string) (*LanguageSpec, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byExt[strings.TrimPrefix(ext, ".")]
	if !ok {
		return nil, ""
	}
	return s, r.names[s]
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
