package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selimcan/tagsense/internal/engine"
	"github.com/selimcan/tagsense/internal/semantic"
	"github.com/selimcan/tagsense/internal/tagsearch"
	"github.com/selimcan/tagsense/internal/tagstore"
)

// resolvePredicate turns tag names into a predicate. Unknown names
// become impossible clauses, matching deleted-tag query semantics.
func resolvePredicate(ctx context.Context, e *engine.Engine, names []string, anyMode bool) (*tagsearch.Predicate, error) {
	clauses := make([]*tagsearch.Predicate, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := e.Tags.GetTagByName(ctx, name)
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

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search file content semantically",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		topK, _ := cmd.Flags().GetInt("limit")
		tagNames, _ := cmd.Flags().GetStringSlice("tags")
		anyMode, _ := cmd.Flags().GetBool("any")

		var predicate *tagsearch.Predicate
		if len(tagNames) > 0 {
			predicate, err = resolvePredicate(ctx, e, tagNames, anyMode)
			exitOnError(err)
		}

		results, err := e.SemanticSearch(ctx, semantic.Query{
			Text:      args[0],
			Predicate: predicate,
			TopK:      topK,
		})
		exitOnError(err)

		if len(results) == 0 {
			fmt.Println("No results.")
			return
		}
		for _, r := range results {
			fmt.Printf("%-6s %.3f  %s\n", r.Band, r.Score, r.Path)
			if r.Snippet != "" {
				fmt.Printf("       %s\n", r.Snippet)
			}
		}
	},
}

var tagsSearchCmd = &cobra.Command{
	Use:   "tags-search <tag>[,<tag>...]",
	Short: "Find files by exact tag logic",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		anyMode, _ := cmd.Flags().GetBool("any")
		predicate, err := resolvePredicate(ctx, e, strings.Split(args[0], ","), anyMode)
		exitOnError(err)

		files, err := e.BooleanSearch(ctx, predicate)
		exitOnError(err)
		for _, f := range files {
			fmt.Println(f)
		}
	},
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of files (0 = config default)")
	searchCmd.Flags().StringSlice("tags", nil, "restrict to files carrying these tags")
	searchCmd.Flags().Bool("any", false, "match any listed tag instead of all")
	tagsSearchCmd.Flags().Bool("any", false, "match any listed tag instead of all")
	rootCmd.AddCommand(searchCmd, tagsSearchCmd)
}
