package languages

import (
	"codescope/internal/extract"

	"github.com/smacker/go-tree-sitter/csharp"
)

func RegisterCSharp(r *extract.Registry) {
	r.Register("csharp", &extract.LanguageSpec{
		Language: csharp.GetLanguage(),
		NameQuery: `
			(method_declaration name: (identifier) @name)
			(local_function_statement name: (identifier) @name)
		`,
		DefinitionQuery: `
			(method_declaration name: (identifier) @name body: (_)? @body) @definition
			(local_function_statement name: (identifier) @name body: (_)? @body) @definition
		`,
		Extensions: []string{"cs"},
	})
}
