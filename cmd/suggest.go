package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Ask the AI provider to suggest tags for a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		refresh, _ := cmd.Flags().GetBool("refresh")
		set, err := e.SuggestTags(context.Background(), args[0], refresh)
		exitOnError(err)

		if len(set.Existing) == 0 && len(set.New) == 0 {
			fmt.Println("No suggestions.")
			return
		}
		if len(set.Existing) > 0 {
			fmt.Println("Existing tags:")
			for _, s := range set.Existing {
				fmt.Printf("  %-20s %.2f\n", s.Name, s.Confidence)
			}
		}
		if len(set.New) > 0 {
			fmt.Println("New tags:")
			for _, s := range set.New {
				fmt.Printf("  %-20s %.2f", s.Name, s.Confidence)
				if s.Rationale != "" {
					fmt.Printf("  %s", s.Rationale)
				}
				fmt.Println()
			}
		}
	},
}

func init() {
	suggestCmd.Flags().Bool("refresh", false, "bypass the suggestion cache")
	rootCmd.AddCommand(suggestCmd)
}
