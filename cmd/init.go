package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selimcan/tagsense/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.RunWizard()
		exitOnError(err)
		exitOnError(cfg.Save(cfgFile))
		fmt.Printf("Wrote %s\n", cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
