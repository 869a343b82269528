package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"codescope/internal/config"
	"codescope/internal/diag"
	"codescope/internal/embed"
	"codescope/internal/engine"
	"codescope/internal/extract"
	"codescope/internal/extract/languages"
	"codescope/internal/grep"
	"codescope/internal/scan"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the scan and search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	// MCP requests carry their own project path, so the server reads its
	// embedding config from the directory it was launched in.
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	ollamaURL, model := resolveEmbedding(cfg)

	scanner := scan.New(extract.NewExtractor(languages.NewRegistry()))
	eng := engine.New(embed.Shared(ollamaURL, model), flagWorkers)

	s := mcpserver.NewMCPServer("codescope", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(fullContextTool(), makeFullContextHandler(scanner))
	s.AddTool(projectSearchTool(), makeProjectSearchHandler())
	s.AddTool(conceptSearchTool(), makeConceptSearchHandler(eng))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func fullContextTool() mcp.Tool {
	return mcp.NewTool("get_full_context",
		mcp.WithDescription("Extract function-level structure from every source file under a directory. Returns file contexts with function names and, depending on the detail level, signatures, comments, and bodies."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the project root"),
		),
		mcp.WithString("extensions",
			mcp.Description("Comma-separated file extensions to include (default: go,py,rs,ts,js,cs)"),
		),
		mcp.WithNumber("compactness_level",
			mcp.Description("Detail level: 0 names, 1 signatures, 2 signatures+comments, 3 full definitions (default 1)"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Wall-clock budget in milliseconds (default 10000, must be > 0)"),
		),
		mcp.WithBoolean("debug",
			mcp.Description("Include a diagnostic log in the result"),
		),
	)
}

func projectSearchTool() mcp.Tool {
	return mcp.NewTool("project_wide_search",
		mcp.WithDescription("Literal substring search across a project. Returns matched lines with surrounding context, the hit line marked with '>> '."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the project root"),
		),
		mcp.WithString("search_string",
			mcp.Required(),
			mcp.Description("Case-sensitive substring to find"),
		),
		mcp.WithString("extensions",
			mcp.Description("Comma-separated file extensions to include (default: go,py,rs,ts,js,cs)"),
		),
		mcp.WithNumber("context_lines",
			mcp.Description("Context lines around each match (default 2)"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Wall-clock budget in milliseconds (default 10000, must be > 0)"),
		),
		mcp.WithBoolean("debug",
			mcp.Description("Include a diagnostic log in the result"),
		),
	)
}

func conceptSearchTool() mcp.Tool {
	return mcp.NewTool("concept_search",
		mcp.WithDescription("Semantic search over extracted functions, ranked by embedding similarity. Incrementally re-embeds only changed files."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the project root"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the code to find"),
		),
		mcp.WithString("extensions",
			mcp.Description("Comma-separated file extensions to include (default: go,py,rs,ts,js,cs)"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of results to return (default 10)"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Wall-clock budget for the scan phase in milliseconds (default 10000, must be > 0)"),
		),
		mcp.WithBoolean("debug",
			mcp.Description("Include a diagnostic log in the result"),
		),
	)
}

func requestExtensions(req mcp.CallToolRequest) []string {
	exts := splitCSV(req.GetString("extensions", ""))
	if len(exts) == 0 {
		exts = []string{"go", "py", "rs", "ts", "js", "cs"}
	}
	return exts
}

func requestTimeout(req mcp.CallToolRequest) time.Duration {
	return time.Duration(req.GetInt("timeout_ms", 10000)) * time.Millisecond
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func makeFullContextHandler(scanner *scan.Scanner) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		res, err := scanner.Run(scan.Options{
			Root:       path,
			Extensions: requestExtensions(req),
			Detail:     extract.DetailLevel(req.GetInt("compactness_level", 1)),
			Timeout:    requestTimeout(req),
			Workers:    flagWorkers,
			Log:        diag.New(req.GetBool("debug", false)),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

// searchEnvelope is the wire shape of a project_wide_search result.
type searchEnvelope struct {
	Results      []grep.FileResult `json:"results"`
	FilesScanned int               `json:"files_scanned"`
	TotalMatches int               `json:"total_matches"`
	TimedOut     bool              `json:"timed_out"`
	DebugLog     []string          `json:"debug_log,omitempty"`
}

func makeProjectSearchHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		needle := req.GetString("search_string", "")
		if needle == "" {
			return mcp.NewToolResultError("search_string is required"), nil
		}

		log := diag.New(req.GetBool("debug", false))
		results, stats, err := grep.Search(grep.Options{
			Root:         path,
			Needle:       needle,
			Extensions:   requestExtensions(req),
			ContextLines: req.GetInt("context_lines", 2),
			Timeout:      requestTimeout(req),
			Workers:      flagWorkers,
			Log:          log,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(searchEnvelope{
			Results:      results,
			FilesScanned: stats.FilesScanned,
			TotalMatches: stats.TotalMatches,
			TimedOut:     stats.TimedOut,
			DebugLog:     log.Lines(),
		})
	}
}

func makeConceptSearchHandler(eng *engine.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		res := eng.ConceptSearch(engine.ConceptRequest{
			Root:       path,
			Query:      query,
			Extensions: requestExtensions(req),
			TopN:       req.GetInt("top_n", 10),
			Timeout:    requestTimeout(req),
			Debug:      req.GetBool("debug", false),
		})
		return jsonResult(res)
	}
}
