// Package embed wraps the embedding model behind a small gateway interface.
// The model itself (weights, lifecycle) is an external collaborator; the
// gateway only needs a stable embed(texts) -> vectors capability.
package embed

import (
	"fmt"
	"sync"
)

// Embedder turns a batch of texts into vectors of stable dimensionality.
// The returned slice has the same length and order as the input. An empty
// input must short-circuit without touching the model.
type Embedder interface {
	Embed(texts []string) ([][]float32, error)
	Model() string
}

// Document renders the fixed template submitted for function embedding. The
// name and location participate in the embedding even when the body is
// sparse.
func Document(name, path, body string) string {
	return fmt.Sprintf("Function: %s\nFile: %s\nBody:\n%s", name, path, body)
}

var (
	sharedOnce sync.Once
	shared     Embedder
)

// Shared returns the process-wide embedder handle, constructing it on first
// use. The arguments are consulted only on that first call; later callers
// receive the existing handle regardless of what they pass. The model
// lifetime is the process lifetime; there is no teardown.
func Shared(baseURL, model string) Embedder {
	sharedOnce.Do(func() {
		shared = NewOllama(baseURL, model)
	})
	return shared
}
