package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/diag"
	"codescope/internal/grep"
)

var flagContext int

var searchCmd = &cobra.Command{
	Use:   "search <path> <string>",
	Short: "Literal substring search with surrounding context",
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

		log := diag.New(flagDebug)
		contextLines := flagContext
		if !cmd.Flags().Changed("context") {
			contextLines = cfg.Search.ContextLines
		}

		results, stats, err := grep.Search(grep.Options{
			Root:         root,
			Needle:       args[1],
			Extensions:   resolveExtensions(cfg),
			ContextLines: contextLines,
			Timeout:      time.Duration(flagTimeoutMS) * time.Millisecond,
			Workers:      flagWorkers,
			Log:          log,
		})
		if err != nil {
			return err
		}

		fmt.Print(renderSearch(results, stats))
		if flagDebug {
			printDebugLog(log.Lines())
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagContext, "context", 2, "context lines around each match")
	rootCmd.AddCommand(searchCmd)
}
