// Package ledger persists conversations and the turns resolved within them.
// Turns are append-only; conversations only ever gain activity.
package ledger

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("ledger: conversation not found")

// MessageKind labels the intent that produced a turn.
type MessageKind string

const (
	KindClick          MessageKind = "user-click-result"
	KindHighlight      MessageKind = "user-highlight-result"
	KindNavigation     MessageKind = "user-navigation-result"
	KindResearchAnswer MessageKind = "research-analysis-result"
	KindResearchLinks  MessageKind = "research-organize-result"
)

// Conversation tracks liveness of a single chat session.
type Conversation struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	MessageCount   int       `json:"messageCount"`
}

// Turn is one resolved action or research step.
type Turn struct {
	ID              string            `json:"id"`
	ConversationID  string            `json:"conversationId"`
	Kind            MessageKind       `json:"kind"`
	Content         string            `json:"content"`
	ResponseID      string            `json:"responseId,omitempty"`
	IsAction        bool              `json:"isAction"`
	ActionType      string            `json:"actionType,omitempty"`
	FoundAnswer     *bool             `json:"foundAnswer,omitempty"`
	ResearchContext string            `json:"researchContext,omitempty"`
	OrganizedLinks  json.RawMessage   `json:"organizedLinks,omitempty"`
	ActionPayload   map[string]string `json:"actionPayload,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}
