package languages

import (
	"codescope/internal/extract"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *extract.Registry) {
	r.Register("javascript", &extract.LanguageSpec{
		Language: javascript.GetLanguage(),
		NameQuery: `
			(function_declaration name: (identifier) @name)
			(method_definition name: (property_identifier) @name)
		`,
		DefinitionQuery: `
			(function_declaration name: (identifier) @name body: (statement_block)? @body) @definition
			(method_definition name: (property_identifier) @name body: (statement_block)? @body) @definition
		`,
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
	})
}
