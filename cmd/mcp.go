package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"cortex/internal/entity"
	"cortex/internal/index"
	"cortex/internal/store"
	"cortex/internal/vector"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing code memory tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	writer := newWriter(st)

	s := mcpserver.NewMCPServer("cortex", index.Version, mcpserver.WithToolCapabilities(false))
	s.AddTool(recallEntitiesTool(), makeRecallHandler(writer))
	s.AddTool(semanticSearchTool(), makeSemanticSearchHandler(st))
	s.AddTool(projectStatusTool(), makeStatusHandler(writer))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func recallEntitiesTool() mcp.Tool {
	return mcp.NewTool("recall_entities",
		mcp.WithDescription("List indexed code entities of one type (function, class, method, variable) for a project, optionally filtered by exact name."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Project root path, as passed to 'cortex remember'"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Entity type: function, class, method, or variable"),
		),
		mcp.WithString("name",
			mcp.Description("Optional exact entity name filter"),
		),
	)
}

func semanticSearchTool() mcp.Tool {
	return mcp.NewTool("semantic_search",
		mcp.WithDescription("Search a project's vectorized entities by natural-language query using cosine similarity. Requires 'cortex vectorize' to have run."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Project root path"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language query"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of results (default 10)"),
		),
	)
}

func projectStatusTool() mcp.Tool {
	return mcp.NewTool("project_status",
		mcp.WithDescription("Report what is indexed for a project: file count, entity counts per type, and index metadata."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Project root path"),
		),
	)
}

// --- Handler factories ---

func makeRecallHandler(writer *index.Writer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		entityType := req.GetString("type", "")
		if path == "" || entityType == "" {
			return mcp.NewToolResultError("path and type are required"), nil
		}
		if !validEntityType(entityType) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown entity type %q", entityType)), nil
		}
		_, prefix, err := resolveProject(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		records, err := writer.Recall(ctx, prefix, entityType, req.GetString("name", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatEntities(prefix, entityType, records)), nil
	}
}

func makeSemanticSearchHandler(st store.Client) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		query := req.GetString("query", "")
		if path == "" || query == "" {
			return mcp.NewToolResultError("path and query are required"), nil
		}
		_, prefix, err := resolveProject(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		k := req.GetInt("k", vector.DefaultTopK)

		emb, err := newEmbedder()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("embedder: %v", err)), nil
		}
		idx, err := openVectorIndex(ctx, st, emb)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("vector index: %v", err)), nil
		}
		defer idx.Close()

		v := vector.NewVectorizer(st, emb, idx, cfg.BatchSize, slog.Default())
		hits, err := v.SearchText(ctx, prefix, query, vector.SearchOptions{TopK: k})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatHits(query, hits)), nil
	}
}

func makeStatusHandler(writer *index.Writer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		_, prefix, err := resolveProject(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		status, err := writer.Status(ctx, prefix)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s\n\n", prefix)
		if !status.Indexed && status.EntityCount == 0 {
			sb.WriteString("Not indexed. Run 'cortex remember <path>' first.\n")
			return mcp.NewToolResultText(sb.String()), nil
		}
		fmt.Fprintf(&sb, "**Files:** %d  \n**Entities:** %d\n\n", status.FileCount, status.EntityCount)
		for _, t := range entity.Types {
			fmt.Fprintf(&sb, "- %s: %d\n", t, status.ByType[t])
		}
		if status.Metadata != nil {
			fmt.Fprintf(&sb, "\nLast indexed %s (v%s)\n",
				status.Metadata.LastIndexedAt, status.Metadata.Version)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatEntities(prefix, entityType string, records []entity.Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No %s entities indexed under %s.", entityType, prefix)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s entities (%d)\n\n", entityType, len(records))
	for _, rec := range records {
		name := rec.Name
		if rec.ParentClass != "" {
			name = rec.ParentClass + "." + rec.Name
		}
		fmt.Fprintf(&sb, "### %s\n\n**File:** %s  \n**Lines:** %d-%d\n",
			name, rec.FilePath, rec.LineStart, rec.LineEnd)
		switch rec.EntityType {
		case entity.TypeFunction, entity.TypeMethod:
			if rec.Signature != "" {
				fmt.Fprintf(&sb, "\n```python\n%s\n```\n", rec.Signature)
			}
		case entity.TypeClass:
			if len(rec.Bases) > 0 {
				fmt.Fprintf(&sb, "**Bases:** %s\n", strings.Join(rec.Bases, ", "))
			}
		case entity.TypeVariable:
			if rec.ValueRepr != "" {
				fmt.Fprintf(&sb, "**Value:** `%s`\n", rec.ValueRepr)
			}
		}
		if rec.Docstring != "" {
			fmt.Fprintf(&sb, "\n%s\n", rec.Docstring)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatHits(query string, hits []vector.Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results for query: %q", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Results for %q (%d)\n\n", query, len(hits))
	for i, hit := range hits {
		fmt.Fprintf(&sb, "%d. `%s` (score %.4f)\n", i+1, hit.EntityKey, hit.Score)
		if hit.Entity != nil {
			if hit.Entity.Signature != "" {
				fmt.Fprintf(&sb, "   %s\n", hit.Entity.Signature)
			}
			if hit.Entity.Docstring != "" {
				fmt.Fprintf(&sb, "   %s\n", hit.Entity.Docstring)
			}
		}
	}
	return sb.String()
}
