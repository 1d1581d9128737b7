package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags and file associations",
}

var tagAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		color, _ := cmd.Flags().GetString("color")
		tag, err := e.Tags.CreateTag(context.Background(), args[0], color)
		exitOnError(err)
		fmt.Printf("Tag %q (%s)\n", tag.Name, tag.Color)
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a tag everywhere",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		tag, err := e.Tags.GetTagByName(ctx, args[0])
		exitOnError(err)
		exitOnError(e.Tags.DeleteTag(ctx, tag.ID))
		fmt.Printf("Deleted tag %q\n", tag.Name)
	},
}

var tagLsCmd = &cobra.Command{
	Use:   "ls [file]",
	Short: "List all tags, or the tags on a file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		if len(args) == 1 {
			tags, err := e.Tags.TagsForFile(ctx, args[0])
			exitOnError(err)
			for _, tag := range tags {
				fmt.Printf("%s\t%s\n", tag.Name, tag.Color)
			}
			return
		}
		tags, err := e.Tags.AllTags(ctx)
		exitOnError(err)
		for _, tag := range tags {
			fmt.Printf("%s\t%s\n", tag.Name, tag.Color)
		}
	},
}

var tagColorCmd = &cobra.Command{
	Use:   "color <name> <color>",
	Short: "Set a tag's display color",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		tag, err := e.Tags.GetTagByName(ctx, args[0])
		exitOnError(err)
		exitOnError(e.Tags.SetColor(ctx, tag.ID, args[1]))
	},
}

var tagApplyCmd = &cobra.Command{
	Use:   "apply <name> <file>...",
	Short: "Attach a tag to one or more files",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		tag, err := e.Tags.GetTagByName(ctx, args[0])
		exitOnError(err)
		for _, path := range args[1:] {
			exitOnError(e.Tags.TagFile(ctx, path, tag.ID))
		}
		fmt.Printf("Tagged %d file(s) with %q\n", len(args)-1, tag.Name)
	},
}

var tagStripCmd = &cobra.Command{
	Use:   "strip <name> <file>...",
	Short: "Remove a tag from one or more files",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		ctx := context.Background()
		tag, err := e.Tags.GetTagByName(ctx, args[0])
		exitOnError(err)
		for _, path := range args[1:] {
			exitOnError(e.Tags.UntagFile(ctx, path, tag.ID))
		}
	},
}

func init() {
	tagAddCmd.Flags().String("color", "", "display color, e.g. #ff8800")
	tagCmd.AddCommand(tagAddCmd, tagRmCmd, tagLsCmd, tagColorCmd, tagApplyCmd, tagStripCmd)
	rootCmd.AddCommand(tagCmd)
}
