package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagepilot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pagepilot configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the provider, model and scheduler limits, and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
