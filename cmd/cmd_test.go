package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/pagepilot/internal/config"
	"github.com/ziadkadry99/pagepilot/internal/llm"
	"github.com/ziadkadry99/pagepilot/internal/progress"
	"github.com/ziadkadry99/pagepilot/internal/resolver"
)

func withConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := appCfg
	appCfg = config.DefaultConfig()
	t.Cleanup(func() { appCfg = prev })
	return appCfg
}

func TestParseIntentArg(t *testing.T) {
	intent, err := parseIntentArg("organize")
	require.NoError(t, err)
	assert.Equal(t, resolver.IntentOrganize, intent)

	_, err = parseIntentArg("scroll")
	assert.Error(t, err)
}

func TestReadPayload(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"conversationId":"c1"}`), 0o644))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{nope`), 0o644))

	data, err := readPayload(good)
	require.NoError(t, err)
	assert.JSONEq(t, `{"conversationId":"c1"}`, string(data))

	_, err = readPayload(bad)
	assert.Error(t, err)

	_, err = readPayload(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestEstimateRequest(t *testing.T) {
	cfg := withConfig(t)
	cfg.Model = "gpt-4.1-mini"

	payload, err := json.Marshal(resolver.ClickRequest{
		ConversationID: "c1",
		Question:       "open the cart",
		Answer:         "Sure.",
		ButtonData:     []resolver.Button{{Text: "Cart", ID: "cart"}},
	})
	require.NoError(t, err)

	est, err := estimateRequest(context.Background(), resolver.IntentClick, payload)
	require.NoError(t, err)

	assert.Equal(t, resolver.IntentClick, est.Intent)
	assert.Equal(t, cfg.Resolver.MaxOutputTokens, est.MaxOutputTokens)
	assert.Greater(t, est.PromptTokens, 0)
	assert.Equal(t, est.PromptTokens+est.MaxOutputTokens, est.SchedulerWeight)
	assert.Equal(t, cfg.Scheduler.ReservoirTokens, est.ReservoirTokens)
	assert.InDelta(t, llm.EstimateCost(cfg.Model, est.PromptTokens, est.MaxOutputTokens), est.EstimatedCost, 1e-12)
	assert.Greater(t, est.EstimatedCost, 0.0)
}

func TestEstimateRequestValidation(t *testing.T) {
	withConfig(t)

	_, err := estimateRequest(context.Background(), resolver.IntentClick, []byte(`{"conversationId":"c1"}`))
	require.Error(t, err)
	assert.True(t, resolver.IsValidation(err))
}

func TestBuildAppRejectsInvalidConfig(t *testing.T) {
	cfg := withConfig(t)
	cfg.Provider = "carrier-pigeon"

	_, err := buildApp(cfg)
	assert.Error(t, err)
}

func TestBuildAppWiresComponents(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := withConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "pagepilot.db")

	a, err := buildApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, cfg.Scheduler.MaxConcurrent, a.sched.Config().MaxConcurrent)

	payload := json.RawMessage(`{"conversationId":"cli-1","question":"q"}`)
	require.NoError(t, ensureConversation(context.Background(), a.ledger, payload))
	_, err = a.ledger.Conversation(context.Background(), "cli-1")
	assert.NoError(t, err)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	seen  []resolver.Intent
	fails map[resolver.Intent]error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, intent resolver.Intent, payload json.RawMessage) (any, error) {
	f.mu.Lock()
	f.seen = append(f.seen, intent)
	f.mu.Unlock()
	if err := f.fails[intent]; err != nil {
		return nil, err
	}
	return map[string]string{"intent": string(intent)}, nil
}

func TestReadReplay(t *testing.T) {
	input := `{"intent":"click","payload":{"conversationId":"c1"}}

{"intent":"organize","payload":{"conversationId":"c2"}}
`
	items, err := readReplay(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Line)
	assert.Equal(t, 3, items[1].Line)
	assert.Equal(t, "organize", items[1].Intent)

	_, err = readReplay(strings.NewReader(`{"intent":"click"}`))
	assert.ErrorContains(t, err, "line 1")

	_, err = readReplay(strings.NewReader("{broken\n"))
	assert.Error(t, err)
}

func TestReplayBatch(t *testing.T) {
	d := &fakeDispatcher{fails: map[resolver.Intent]error{
		resolver.IntentNavigate: llm.ErrRateLimited,
	}}
	items := []replayItem{
		{Line: 1, Intent: "click", Payload: json.RawMessage(`{}`)},
		{Line: 2, Intent: "navigate", Payload: json.RawMessage(`{}`)},
		{Line: 3, Intent: "scroll", Payload: json.RawMessage(`{}`)},
		{Line: 4, Intent: "analyze", Payload: json.RawMessage(`{}`)},
	}

	var buf bytes.Buffer
	results := replayBatch(context.Background(), d, items, 2, &progress.CIReporter{Out: &buf})
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, items[i].Line, r.Line, "results keep input order")
	}
	assert.Equal(t, 200, results[0].Status)
	assert.NotNil(t, results[0].Result)
	assert.Equal(t, 429, results[1].Status)
	assert.Equal(t, "rate_limited", results[1].Error)
	assert.Equal(t, 400, results[2].Status)
	assert.Equal(t, "intent", results[2].Field)
	assert.Equal(t, 200, results[3].Status)

	assert.Len(t, d.seen, 3, "unknown intents never reach the resolver")
	assert.Contains(t, buf.String(), "[4/4]")
	assert.Contains(t, buf.String(), "Replay complete")
}

func TestWriteJSONLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONLine(&buf, replayResult{Line: 7, Intent: "click", Status: 200}))
	assert.Equal(t, `{"line":7,"intent":"click","status":200}`+"\n", buf.String())
}
