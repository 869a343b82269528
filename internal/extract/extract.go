package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// DetailLevel selects how much text is retained per extracted function.
type DetailLevel uint8

const (
	// DetailNames keeps function names only.
	DetailNames DetailLevel = 0
	// DetailSignature keeps the declaration text up to the body start.
	DetailSignature DetailLevel = 1
	// DetailSignatureComment adds the directly preceding comment block.
	DetailSignatureComment DetailLevel = 2
	// DetailFull keeps the complete definition text and the comment.
	DetailFull DetailLevel = 3
)

// Normalize maps out-of-range values to DetailNames.
func (d DetailLevel) Normalize() DetailLevel {
	if d > DetailFull {
		return DetailNames
	}
	return d
}

// Function is a single extracted function-like construct.
type Function struct {
	Name    string `json:"name"`
	Body    string `json:"body,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Extractor parses source files using tree-sitter and extracts functions.
type Extractor struct {
	registry *Registry
}

// NewExtractor creates an extractor backed by the given registry.
func NewExtractor(r *Registry) *Extractor {
	return &Extractor{registry: r}
}

// Extract parses src and returns the functions it declares, at the requested
// detail level. It returns (nil, nil) when src looks binary, is not valid
// UTF-8, or no grammar is registered for ext. Parser or query failures are
// returned as errors; callers treat them like an unsupported file.
func (e *Extractor) Extract(src []byte, ext string, level DetailLevel) ([]Function, error) {
	level = level.Normalize()

	if bytes.IndexByte(src, 0) >= 0 || !utf8.Valid(src) {
		return nil, nil
	}

	spec, _ := e.registry.Lookup(ext)
	if spec == nil {
		return nil, nil
	}

	queryStr := spec.DefinitionQuery
	if level == DetailNames {
		queryStr = spec.NameQuery
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(queryStr), spec.Language)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var functions []Function
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		var name string
		var defNode, bodyNode *sitter.Node
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case "name":
				if name == "" {
					name = cap.Node.Content(src)
				}
			case "definition":
				defNode = cap.Node
			case "body":
				bodyNode = cap.Node
			}
		}

		// Grammars also match partial or anonymous constructs; those have no
		// resolved name and are not useful.
		if name == "" {
			continue
		}

		fn := Function{Name: name}
		switch level {
		case DetailSignature, DetailSignatureComment:
			fn.Body = signatureText(src, defNode, bodyNode)
		case DetailFull:
			if defNode != nil {
				fn.Body = strings.TrimSpace(defNode.Content(src))
			}
		}
		if level >= DetailSignatureComment && defNode != nil {
			fn.Comment = precedingComment(defNode, src)
		}

		functions = append(functions, fn)
	}

	return functions, nil
}

// signatureText returns the declaration text from the start of the definition
// up to the start of its body block. When no body boundary can be located it
// falls back to the full definition text.
func signatureText(src []byte, def, body *sitter.Node) string {
	if def == nil {
		return ""
	}
	if body != nil && body.StartByte() > def.StartByte() && body.StartByte() <= uint32(len(src)) {
		return strings.TrimSpace(string(src[def.StartByte():body.StartByte()]))
	}
	return strings.TrimSpace(def.Content(src))
}

// precedingComment collects the contiguous run of comment nodes immediately
// before the definition and returns their joined text, or "".
func precedingComment(def *sitter.Node, src []byte) string {
	var parts []string
	for prev := def.PrevNamedSibling(); prev != nil && isCommentKind(prev.Type()); prev = prev.PrevNamedSibling() {
		parts = append(parts, prev.Content(src))
	}
	if len(parts) == 0 {
		return ""
	}
	// Collected nearest-first; restore source order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "\n")
}

func isCommentKind(kind string) bool {
	switch kind {
	case "comment", "line_comment", "block_comment", "doc_comment":
		return true
	}
	return false
}
