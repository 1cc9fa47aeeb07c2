package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <intent>",
	Short: "Resolve one intent request from a JSON file or stdin",
	Long: `Runs a single intent (navigate, click, highlight, analyze, organize) through
the scheduler and resolver, records the turn, and prints the result as JSON.
The request body has the same shape as the matching HTTP endpoint.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringP("file", "f", "", "request JSON file (default stdin)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	intent, err := parseIntentArg(args[0])
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("file")
	payload, err := readPayload(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := buildApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := ensureConversation(ctx, a.ledger, payload); err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}

	out, err := a.resolver.Dispatch(ctx, intent, payload)
	if err != nil {
		status, body := resolver.Classify(err)
		logger.Debug("resolve failed", "intent", intent, "status", status, "error", err)
		if body.Field != "" {
			return fmt.Errorf("%s (%s): %s", body.Error, body.Field, body.Message)
		}
		return fmt.Errorf("%s: %s: %w", body.Error, body.Message, err)
	}
	return printJSON(out)
}
