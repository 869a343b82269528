package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codescope/internal/config"
)

var (
	flagOllama     string
	flagModel      string
	flagWorkers    int
	flagExtensions string
	flagTimeoutMS  uint
	flagDebug      bool
)

var rootCmd = &cobra.Command{
	Use:   "codescope",
	Short: "Function-level code search for local projects",
	Long: `codescope extracts function-level context from source files, keeps an
incrementally updated embedding index, and answers literal and concept
queries over it.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "http://localhost:11434", "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "nomic-embed-text", "embedding model")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "parallel workers (default: number of CPUs)")
	rootCmd.PersistentFlags().StringVar(&flagExtensions, "extensions", "", "comma-separated extension list (default from config)")
	rootCmd.PersistentFlags().UintVar(&flagTimeoutMS, "timeout", 10000, "wall-clock budget in milliseconds")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "collect and print per-request diagnostics")
}

// resolveEmbedding prefers explicitly set --ollama and --model flags over
// the project config.
func resolveEmbedding(cfg *config.Config) (url, model string) {
	url = flagOllama
	if !rootCmd.PersistentFlags().Changed("ollama") {
		url = cfg.Embedding.URL
	}
	model = flagModel
	if !rootCmd.PersistentFlags().Changed("model") {
		model = cfg.Embedding.Model
	}
	return url, model
}

// splitCSV parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
