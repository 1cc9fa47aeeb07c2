package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagepilot/internal/ledger"
	"github.com/ziadkadry99/pagepilot/internal/llm"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

var errDryRun = errors.New("dry run")

// captureProvider records the request it is handed and never calls out.
type captureProvider struct {
	req *llm.CompletionRequest
}

func (p *captureProvider) Name() string { return "dry-run" }

func (p *captureProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.req = &req
	return nil, errDryRun
}

// discardLedger satisfies resolver.Ledger without storing anything.
type discardLedger struct{}

func (discardLedger) RecordStats(context.Context, string) error { return nil }

func (discardLedger) AppendTurn(context.Context, ledger.Turn) (string, error) { return "", nil }

// Estimate is the dry-run cost of one intent request.
type Estimate struct {
	Intent          resolver.Intent `json:"intent"`
	Model           string          `json:"model"`
	PromptTokens    int             `json:"promptTokens"`
	MaxOutputTokens int             `json:"maxOutputTokens"`
	SchedulerWeight int             `json:"schedulerWeight"`
	ReservoirTokens int             `json:"reservoirTokens"`
	EstimatedCost   float64         `json:"estimatedCost"`
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <intent>",
	Short: "Estimate the scheduler weight and API cost of a request",
	Long: `Builds the exact prompt an intent request would send, without calling the
provider, and reports its token weight against the scheduler reservoir and
the worst-case API cost for the configured model.`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringP("file", "f", "", "request JSON file (default stdin)")
	estimateCmd.Flags().Bool("json", false, "output the estimate as JSON")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	intent, err := parseIntentArg(args[0])
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("file")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	payload, err := readPayload(path)
	if err != nil {
		return err
	}

	est, err := estimateRequest(cmd.Context(), intent, payload)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(est)
	}

	fmt.Println("Request Estimate")
	fmt.Println("================")
	fmt.Printf("  Intent:            %s\n", est.Intent)
	fmt.Printf("  Model:             %s\n", est.Model)
	fmt.Printf("  Prompt tokens:     ~%d\n", est.PromptTokens)
	fmt.Printf("  Max output tokens: %d\n", est.MaxOutputTokens)
	fmt.Printf("  Scheduler weight:  %d of %d reservoir tokens\n", est.SchedulerWeight, est.ReservoirTokens)
	if est.SchedulerWeight > est.ReservoirTokens {
		fmt.Println("  Warning: weight exceeds the reservoir; the call will run alone on a full reservoir.")
	}
	fmt.Printf("  Worst-case cost:   $%.5f\n", est.EstimatedCost)
	return nil
}

// estimateRequest runs payload through the resolver against a provider that
// only captures the outgoing request.
func estimateRequest(ctx context.Context, intent resolver.Intent, payload []byte) (*Estimate, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	capture := &captureProvider{}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	res := resolver.New(capture, discardLedger{}, appCfg.ResolverOptions(), quiet)

	_, err := res.Dispatch(ctx, intent, payload)
	if !errors.Is(err, errDryRun) {
		if err == nil {
			err = errors.New("request was resolved without a model call")
		}
		return nil, err
	}

	req := *capture.req
	weight := llm.EstimateRequestTokens(req)
	return &Estimate{
		Intent:          intent,
		Model:           appCfg.Model,
		PromptTokens:    weight - req.MaxTokens,
		MaxOutputTokens: req.MaxTokens,
		SchedulerWeight: weight,
		ReservoirTokens: appCfg.SchedulerSettings().Reservoir,
		EstimatedCost:   llm.EstimateCost(appCfg.Model, weight-req.MaxTokens, req.MaxTokens),
	}, nil
}
