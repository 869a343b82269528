package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codescope/internal/config"
)

func TestResolveEmbeddingPrefersConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Embedding.URL = "http://embed-host:9999"
	cfg.Embedding.Model = "custom-model"

	url, model := resolveEmbedding(cfg)
	assert.Equal(t, "http://embed-host:9999", url)
	assert.Equal(t, "custom-model", model)
}

func TestResolveEmbeddingFlagOverrides(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	flags.Set("ollama", "http://flagged:1234")
	t.Cleanup(func() {
		flags.Set("ollama", "http://localhost:11434")
		flags.Lookup("ollama").Changed = false
	})

	cfg := config.Default()
	cfg.Embedding.URL = "http://from-config:1"

	url, _ := resolveEmbedding(cfg)
	assert.Equal(t, "http://flagged:1234", url)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"go", "rs"}, splitCSV(" go, rs ,"))
	assert.Nil(t, splitCSV(""))
}
