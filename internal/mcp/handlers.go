package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/selimcan/tagsense/internal/engine"
	"github.com/selimcan/tagsense/internal/semantic"
	"github.com/selimcan/tagsense/internal/tagsearch"
	"github.com/selimcan/tagsense/internal/tagstore"
)

// predicateFromNames resolves a comma-separated tag list into a
// predicate. Unknown names become impossible clauses so AND queries
// come back empty, the same way a deleted tag behaves.
func (s *Server) predicateFromNames(ctx context.Context, names string, anyMode bool) (*tagsearch.Predicate, error) {
	var clauses []*tagsearch.Predicate
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.engine.Tags.GetTagByName(ctx, name)
		if errors.Is(err, tagstore.ErrTagNotFound) {
			clauses = append(clauses, tagsearch.Has(-1))
			continue
		}
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, tagsearch.Has(tag.ID))
	}
	if anyMode {
		return tagsearch.Any(clauses...), nil
	}
	return tagsearch.All(clauses...), nil
}

func (s *Server) handleSearchFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var predicate *tagsearch.Predicate
	if tags := request.GetString("tags", ""); tags != "" {
		predicate, err = s.predicateFromNames(ctx, tags, request.GetBool("any_tag", false))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve tags: %v", err)), nil
		}
	}

	results, err := s.engine.SemanticSearch(ctx, semantic.Query{
		Text:      query,
		Predicate: predicate,
		TopK:      limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. Files may not be indexed yet; use index_file first."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

func (s *Server) handleSearchByTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := request.RequireString("tags")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: tags"), nil
	}

	predicate, err := s.predicateFromNames(ctx, tags, request.GetBool("any_tag", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve tags: %v", err)), nil
	}
	files, err := s.engine.BooleanSearch(ctx, predicate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("No files match those tags."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d file(s):\n", len(files))
	for _, f := range files {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSuggestTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_path"), nil
	}

	set, err := s.engine.SuggestTags(ctx, path, request.GetBool("refresh", false))
	if errors.Is(err, engine.ErrNoProvider) {
		return mcp.NewToolResultError("no inference provider configured; run `tagsense init`"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("suggestion failed: %v", err)), nil
	}
	if len(set.Existing) == 0 && len(set.New) == 0 {
		return mcp.NewToolResultText("No suggestions for this file."), nil
	}

	var sb strings.Builder
	if len(set.Existing) > 0 {
		sb.WriteString("Existing tags:\n")
		for _, sug := range set.Existing {
			fmt.Fprintf(&sb, "  %s (%.2f)\n", sug.Name, sug.Confidence)
		}
	}
	if len(set.New) > 0 {
		sb.WriteString("Proposed new tags:\n")
		for _, sug := range set.New {
			fmt.Fprintf(&sb, "  %s (%.2f)", sug.Name, sug.Confidence)
			if sug.Rationale != "" {
				fmt.Fprintf(&sb, " - %s", sug.Rationale)
			}
			sb.WriteByte('\n')
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleIndexFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_path"), nil
	}

	if err := s.engine.IndexFile(ctx, path, request.GetBool("force", false)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Indexed %s", path)), nil
}

func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.engine.Tags.AllTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list tags: %v", err)), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("No tags defined yet."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tag(s):\n", len(tags))
	for _, tag := range tags {
		fmt.Fprintf(&sb, "  %s (%s)\n", tag.Name, tag.Color)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults converts semantic results into a text format
// readable by AI agents.
func formatSearchResults(results []semantic.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "File: %s\n", r.Path)
		fmt.Fprintf(&sb, "Confidence: %s (%.3f)\n", r.Band, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "Snippet: %s\n", r.Snippet)
		}
	}
	return sb.String()
}
