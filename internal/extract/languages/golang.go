package languages

import (
	"codescope/internal/extract"

	"github.com/smacker/go-tree-sitter/golang"
)

func RegisterGo(r *extract.Registry) {
	r.Register("go", &extract.LanguageSpec{
		Language: golang.GetLanguage(),
		NameQuery: `
			(function_declaration name: (identifier) @name)
			(method_declaration name: (field_identifier) @name)
		`,
		DefinitionQuery: `
			(function_declaration name: (identifier) @name body: (block)? @body) @definition
			(method_declaration name: (field_identifier) @name body: (block)? @body) @definition
		`,
		Extensions: []string{"go"},
	})
}
