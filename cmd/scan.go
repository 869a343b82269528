package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/diag"
	"codescope/internal/extract"
	"codescope/internal/extract/languages"
	"codescope/internal/scan"
)

var flagDetail uint8

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Extract function-level structure from a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		scanner := scan.New(extract.NewExtractor(languages.NewRegistry()))
		res, err := scanner.Run(scan.Options{
			Root:       root,
			Extensions: resolveExtensions(cfg),
			Detail:     extract.DetailLevel(flagDetail),
			Timeout:    time.Duration(flagTimeoutMS) * time.Millisecond,
			Workers:    flagWorkers,
			Log:        diag.New(flagDebug),
		})
		if err != nil {
			return err
		}

		fmt.Print(renderScan(res))
		if flagDebug {
			printDebugLog(res.DebugLog)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Uint8Var(&flagDetail, "detail", 1, "detail level: 0 names, 1 signatures, 2 +comments, 3 full bodies")
	rootCmd.AddCommand(scanCmd)
}

// resolveExtensions prefers the --extensions flag over the project config.
func resolveExtensions(cfg *config.Config) []string {
	if flagExtensions != "" {
		return splitCSV(flagExtensions)
	}
	return cfg.Scan.Extensions
}
