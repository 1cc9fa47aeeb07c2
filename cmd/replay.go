package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/pagepilot/internal/progress"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

// maxReplayLine bounds one JSONL request; page text can be large.
const maxReplayLine = 8 << 20

// dispatcher resolves one intent request. *resolver.Resolver satisfies it.
type dispatcher interface {
	Dispatch(ctx context.Context, intent resolver.Intent, payload json.RawMessage) (any, error)
}

// replayItem is one line of a replay file.
type replayItem struct {
	Line    int             `json:"-"`
	Intent  string          `json:"intent"`
	Payload json.RawMessage `json:"payload"`
}

// replayResult is one line of replay output.
type replayResult struct {
	Line    int    `json:"line"`
	Intent  string `json:"intent"`
	Status  int    `json:"status"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

var replayCmd = &cobra.Command{
	Use:   "replay <requests.jsonl>",
	Short: "Resolve a batch of recorded requests through the shared scheduler",
	Long: `Reads one {"intent": ..., "payload": ...} object per line and resolves them
concurrently. Every call is admitted by the scheduler, so the configured
reservoir, concurrency and spacing limits apply exactly as in the server.
Results are written to stdout as JSON lines in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Int("workers", 32, "maximum requests waiting on the scheduler at once")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening replay file: %w", err)
	}
	defer f.Close()

	items, err := readReplay(f)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No requests to replay.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := buildApp(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, it := range items {
		if err := ensureConversation(ctx, a.ledger, it.Payload); err != nil {
			return fmt.Errorf("line %d: creating conversation: %w", it.Line, err)
		}
	}

	results := replayBatch(ctx, a.resolver, items, workers, progress.NewReporter())

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := writeJSONLine(os.Stdout, r); err != nil {
			return err
		}
	}
	st := a.sched.Stats()
	logger.Info("replay finished", "requests", len(results), "failed", failed, "admitted", st.Admitted)
	return nil
}

// readReplay parses a JSONL replay stream, skipping blank lines.
func readReplay(r io.Reader) ([]replayItem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxReplayLine)

	var items []replayItem
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var it replayItem
		if err := json.Unmarshal([]byte(text), &it); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if it.Intent == "" || len(it.Payload) == 0 {
			return nil, fmt.Errorf("line %d: intent and payload are required", line)
		}
		it.Line = line
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading replay file: %w", err)
	}
	return items, nil
}

// replayBatch resolves items concurrently. A failed request is recorded in
// its result and never stops the batch. Results keep input order.
func replayBatch(ctx context.Context, d dispatcher, items []replayItem, workers int, rep progress.Reporter) []replayResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]replayResult, len(items))

	var (
		mu   sync.Mutex
		done int
	)
	rep.Start(len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, it := range items {
		g.Go(func() error {
			res := replayResult{Line: it.Line, Intent: it.Intent, Status: 200}

			intent, err := parseIntentArg(it.Intent)
			var out any
			if err == nil {
				out, err = d.Dispatch(ctx, intent, it.Payload)
			} else {
				err = &resolver.ValidationError{Field: "intent", Message: err.Error()}
			}
			if err != nil {
				status, body := resolver.Classify(err)
				res.Status, res.Error, res.Field, res.Message = status, body.Error, body.Field, body.Message
			} else {
				res.Result = out
			}
			results[i] = res

			mu.Lock()
			done++
			rep.Update(done, fmt.Sprintf("line %d %s: %d", it.Line, it.Intent, res.Status))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	rep.Finish()
	return results
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
