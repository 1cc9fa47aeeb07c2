package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagepilot/internal/config"
	"github.com/ziadkadry99/pagepilot/internal/logging"
)

var (
	cfgFile string
	verbose bool

	appCfg      *config.Config
	logger      *slog.Logger
	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "pagepilot",
	Short: "Voice page assistant backend that turns questions into page actions",
	Long: `PagePilot resolves a visitor's spoken question against the current page
into one concrete action: navigate to a link, click a button, highlight a
passage, or research across pages. Every model call is admitted by a shared
rate-aware scheduler and every result is recorded in a conversation ledger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w\nRun `pagepilot init` to create a config file", err)
		}
		appCfg = cfg

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, closeLogger = logging.Setup(level, cfg.Logging.File)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogger()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
