package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selimcan/tagsense/internal/progress"
	"github.com/selimcan/tagsense/internal/walker"
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a file, or a directory tree with --dir",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		force, _ := cmd.Flags().GetBool("force")
		dir, _ := cmd.Flags().GetBool("dir")

		if !dir {
			exitOnError(e.IndexFile(ctx, args[0], force))
			fmt.Printf("Indexed %s\n", args[0])
			return
		}

		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		result, err := e.IndexDir(ctx, walker.Config{
			RootDir: args[0],
			Include: include,
			Exclude: exclude,
		}, force, progress.NewReporter())
		exitOnError(err)

		fmt.Printf("Indexed %d, skipped %d, empty %d\n", result.Indexed, result.Skipped, result.Empty)
		for _, err := range result.Errors {
			fmt.Printf("  error: %v\n", err)
		}
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed every indexed file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		result, err := e.ReindexAll(context.Background(), progress.NewReporter())
		exitOnError(err)
		fmt.Printf("Reindexed %d file(s), %d error(s)\n", result.Indexed, len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  error: %v\n", err)
		}
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <file>",
	Short: "Remove a file's tags, index entries, and cached suggestions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		exitOnError(e.RemoveFile(context.Background(), args[0]))
		fmt.Printf("Removed %s\n", args[0])
	},
}

func init() {
	indexCmd.Flags().Bool("force", false, "re-embed even when content is unchanged")
	indexCmd.Flags().Bool("dir", false, "treat the path as a directory tree")
	indexCmd.Flags().StringSlice("include", nil, "glob patterns a file must match")
	indexCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
	rootCmd.AddCommand(indexCmd, reindexCmd, removeCmd)
}
