package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pagepilot/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestCreateConversationIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first, err := store.CreateConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := store.RecordStats(ctx, "conv-1"); err != nil {
		t.Fatalf("RecordStats: %v", err)
	}

	again, err := store.CreateConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("second CreateConversation: %v", err)
	}
	if again.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1 (create must not reset)", again.MessageCount)
	}
	if !again.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, again.CreatedAt)
	}
}

func TestCreateConversationGeneratesID(t *testing.T) {
	store := setupStore(t)
	conv, err := store.CreateConversation(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if conv.ID == "" {
		t.Error("expected generated ID")
	}
}

func TestRecordStatsUnknownConversation(t *testing.T) {
	store := setupStore(t)
	err := store.RecordStats(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordStatsActivityNeverMovesBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if _, err := store.CreateConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	store.now = func() time.Time { return base.Add(time.Minute) }
	if err := store.RecordStats(ctx, "conv-1"); err != nil {
		t.Fatalf("RecordStats: %v", err)
	}

	// A clock that steps backwards must not rewind activity.
	store.now = func() time.Time { return base.Add(-time.Hour) }
	if err := store.RecordStats(ctx, "conv-1"); err != nil {
		t.Fatalf("RecordStats: %v", err)
	}

	conv, err := store.Conversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if want := base.Add(time.Minute); !conv.LastActivityAt.Equal(want) {
		t.Errorf("LastActivityAt = %v, want %v", conv.LastActivityAt, want)
	}
	if conv.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", conv.MessageCount)
	}
}

func TestRecordStatsConcurrent(t *testing.T) {
	database, err := db.Open(t.TempDir() + "/ledger.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := NewStore(database)
	ctx := context.Background()

	if _, err := store.CreateConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.RecordStats(ctx, "conv-1"); err != nil {
				t.Errorf("RecordStats: %v", err)
			}
		}()
	}
	wg.Wait()

	conv, err := store.Conversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if conv.MessageCount != n {
		t.Errorf("MessageCount = %d, want %d", conv.MessageCount, n)
	}
}

func TestAppendTurnAndList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.CreateConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	found := true
	turns := []Turn{
		{
			ConversationID: "conv-1",
			Kind:           KindClick,
			Content:        "Clicking sign up.",
			ResponseID:     "resp_1",
			IsAction:       true,
			ActionType:     "click",
			ActionPayload:  map[string]string{"buttonText": "Sign up", "buttonId": "btn-1"},
		},
		{
			ConversationID:  "conv-1",
			Kind:            KindResearchAnswer,
			Content:         "Pricing starts at $10.",
			FoundAnswer:     &found,
			ResearchContext: "looking for pricing",
		},
		{
			ConversationID: "conv-1",
			Kind:           KindResearchLinks,
			OrganizedLinks: json.RawMessage(`[{"url":"/pricing","relevanceScore":0.9,"reason":"pricing"}]`),
		},
	}
	for i, turn := range turns {
		if _, err := store.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn %d: %v", i, err)
		}
	}

	got, err := store.Turns(ctx, "conv-1", 0)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}

	if got[0].Kind != KindClick || !got[0].IsAction || got[0].ResponseID != "resp_1" {
		t.Errorf("turn 0 = %+v", got[0])
	}
	if got[0].ActionPayload["buttonId"] != "btn-1" {
		t.Errorf("ActionPayload = %v", got[0].ActionPayload)
	}
	if got[1].FoundAnswer == nil || !*got[1].FoundAnswer {
		t.Errorf("FoundAnswer = %v, want true", got[1].FoundAnswer)
	}
	if got[1].ResponseID != "" {
		t.Errorf("ResponseID = %q, want empty", got[1].ResponseID)
	}
	if !strings.Contains(string(got[2].OrganizedLinks), "/pricing") {
		t.Errorf("OrganizedLinks = %s", got[2].OrganizedLinks)
	}

	limited, err := store.Turns(ctx, "conv-1", 2)
	if err != nil {
		t.Fatalf("Turns(limit): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 turns with limit, got %d", len(limited))
	}
}

func TestAppendTurnUnknownConversation(t *testing.T) {
	store := setupStore(t)
	_, err := store.AppendTurn(context.Background(), Turn{ConversationID: "missing", Kind: KindHighlight})
	if err == nil {
		t.Error("expected foreign key error")
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader(`{"id":"conv-9"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}

	if _, err := store.AppendTurn(context.Background(), Turn{ConversationID: "conv-9", Kind: KindNavigation, Content: "Going."}); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/conv-9/turns", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("turns status = %d", rec.Code)
	}
	var turns []Turn
	if err := json.NewDecoder(rec.Body).Decode(&turns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "Going." {
		t.Errorf("turns = %+v", turns)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}
