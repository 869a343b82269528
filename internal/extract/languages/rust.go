package languages

import (
	"codescope/internal/extract"

	"github.com/smacker/go-tree-sitter/rust"
)

func RegisterRust(r *extract.Registry) {
	r.Register("rust", &extract.LanguageSpec{
		Language: rust.GetLanguage(),
		NameQuery: `
			(function_item name: (identifier) @name)
		`,
		DefinitionQuery: `
			(function_item name: (identifier) @name body: (block)? @body) @definition
		`,
		Extensions: []string{"rs"},
	})
}
