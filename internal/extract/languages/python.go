package languages

import (
	"codescope/internal/extract"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *extract.Registry) {
	r.Register("python", &extract.LanguageSpec{
		Language: python.GetLanguage(),
		NameQuery: `
			(function_definition name: (identifier) @name)
		`,
		DefinitionQuery: `
			(function_definition name: (identifier) @name body: (block)? @body) @definition
		`,
		Extensions: []string{"py", "pyi"},
	})
}
