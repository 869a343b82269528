// Package languages registers the supported tree-sitter grammars.
//
// Each language contributes two queries: a name-only query used at the lowest
// detail level, and a definition query that additionally captures the body
// block and the whole definition node. Adding a language means adding one
// file here; the scanner and cache are unaffected.
package languages

import "codescope/internal/extract"

// RegisterAll registers every supported language.
func RegisterAll(r *extract.Registry) {
	RegisterGo(r)
	RegisterPython(r)
	RegisterRust(r)
	RegisterTypeScript(r)
	RegisterJavaScript(r)
	RegisterCSharp(r)
}

// NewRegistry returns a registry with every supported language registered.
func NewRegistry() *extract.Registry {
	r := extract.NewRegistry()
	RegisterAll(r)
	return r
}
