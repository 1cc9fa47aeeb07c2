package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/pagepilot/internal/db"
)

// Store reads and writes conversations and turns.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// CreateConversation registers a conversation. Creating an id that already
// exists is a no-op and returns the stored row.
func (s *Store) CreateConversation(ctx context.Context, id string) (*Conversation, error) {
	if id == "" {
		id = uuid.New().String()
	}
	ts := db.FormatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, last_activity_at, message_count)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(id) DO NOTHING`, id, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}
	return s.Conversation(ctx, id)
}

// RecordStats bumps the message count and activity time of a conversation in
// one statement. Activity time never moves backwards.
func (s *Store) RecordStats(ctx context.Context, conversationID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations
		SET message_count = message_count + 1,
		    last_activity_at = MAX(last_activity_at, ?)
		WHERE id = ?`, db.FormatTime(s.now()), conversationID)
	if err != nil {
		return fmt.Errorf("updating conversation stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating conversation stats: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, conversationID)
	}
	return nil
}

// AppendTurn inserts a turn. If turn.ID is empty a UUID is generated.
func (s *Store) AppendTurn(ctx context.Context, turn Turn) (string, error) {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}

	payload := turn.ActionPayload
	if payload == nil {
		payload = map[string]string{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling action payload: %w", err)
	}

	var responseID, researchContext, organizedLinks sql.NullString
	var foundAnswer sql.NullBool
	if turn.ResponseID != "" {
		responseID = sql.NullString{String: turn.ResponseID, Valid: true}
	}
	if turn.ResearchContext != "" {
		researchContext = sql.NullString{String: turn.ResearchContext, Valid: true}
	}
	if len(turn.OrganizedLinks) > 0 {
		organizedLinks = sql.NullString{String: string(turn.OrganizedLinks), Valid: true}
	}
	if turn.FoundAnswer != nil {
		foundAnswer = sql.NullBool{Bool: *turn.FoundAnswer, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO turns (
			id, conversation_id, kind, content, response_id, is_action,
			action_type, found_answer, research_context, organized_links,
			action_payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID,
		turn.ConversationID,
		string(turn.Kind),
		turn.Content,
		responseID,
		turn.IsAction,
		turn.ActionType,
		foundAnswer,
		researchContext,
		organizedLinks,
		string(payloadJSON),
		db.FormatTime(turn.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("inserting turn: %w", err)
	}
	return turn.ID, nil
}

// Conversation retrieves a single conversation.
func (s *Store) Conversation(ctx context.Context, id string) (*Conversation, error) {
	var (
		c                 Conversation
		created, activity string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_activity_at, message_count
		FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &created, &activity, &c.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	if c.CreatedAt, err = db.ParseTime(created); err != nil {
		return nil, err
	}
	if c.LastActivityAt, err = db.ParseTime(activity); err != nil {
		return nil, err
	}
	return &c, nil
}

// Turns returns the turns of a conversation in the order they were appended.
// A limit of zero or less returns all of them.
func (s *Store) Turns(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	query := `
		SELECT id, conversation_id, kind, content, response_id, is_action,
		       action_type, found_answer, research_context, organized_links,
		       action_payload, created_at
		FROM turns WHERE conversation_id = ?
		ORDER BY created_at, rowid`
	args := []any{conversationID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, *t)
	}
	return turns, rows.Err()
}

func scanTurn(rows *sql.Rows) (*Turn, error) {
	var (
		t                                            Turn
		kind, payloadJSON, created                   string
		responseID, researchContext, organizedLinks sql.NullString
		foundAnswer                                  sql.NullBool
	)
	err := rows.Scan(
		&t.ID, &t.ConversationID, &kind, &t.Content, &responseID, &t.IsAction,
		&t.ActionType, &foundAnswer, &researchContext, &organizedLinks,
		&payloadJSON, &created,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning turn: %w", err)
	}

	t.Kind = MessageKind(kind)
	t.ResponseID = responseID.String
	t.ResearchContext = researchContext.String
	if organizedLinks.Valid {
		t.OrganizedLinks = json.RawMessage(organizedLinks.String)
	}
	if foundAnswer.Valid {
		v := foundAnswer.Bool
		t.FoundAnswer = &v
	}
	if err := json.Unmarshal([]byte(payloadJSON), &t.ActionPayload); err != nil {
		t.ActionPayload = nil
	}
	if t.CreatedAt, err = db.ParseTime(created); err != nil {
		return nil, err
	}
	return &t, nil
}
