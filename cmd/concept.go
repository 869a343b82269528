package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/embed"
	"codescope/internal/engine"
)

var flagTop int

var conceptCmd = &cobra.Command{
	Use:   "concept <path> <query>",
	Short: "Semantic search over extracted functions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		ollamaURL, model := resolveEmbedding(cfg)
		emb := embed.Shared(ollamaURL, model)
		if o, ok := emb.(*embed.Ollama); ok {
			var bar *progressbar.ProgressBar
			o.OnBatch = func(done, total int) {
				if bar == nil {
					bar = progressbar.Default(int64(total), "embedding")
				}
				bar.Set(done)
			}
		}

		topN := flagTop
		if !cmd.Flags().Changed("top") {
			topN = cfg.Search.TopN
		}

		res := engine.New(emb, flagWorkers).ConceptSearch(engine.ConceptRequest{
			Root:       root,
			Query:      args[1],
			Extensions: resolveExtensions(cfg),
			TopN:       topN,
			Timeout:    time.Duration(flagTimeoutMS) * time.Millisecond,
			Debug:      flagDebug,
		})

		if flagDebug {
			printDebugLog(res.DebugLog)
		}
		if res.Err != "" {
			return errors.New(res.Err)
		}

		fmt.Print(renderConcept(res.Results, res.FunctionsAnalyzed, res.DurationSeconds))
		return nil
	},
}

func init() {
	conceptCmd.Flags().IntVar(&flagTop, "top", 10, "number of results to return")
	rootCmd.AddCommand(conceptCmd)
}
