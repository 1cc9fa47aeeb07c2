package resolver

import (
	"context"
	"errors"

	"github.com/ziadkadry99/pagepilot/internal/ledger"
)

const highlightFallbackAnswer = "Here is what I found on this page."

var errNotSingleElement = errors.New("words do not lie inside a single element")

type highlightOutput struct {
	Answer     string `json:"answer"`
	ActionType string `json:"actionType"`
	Words      string `json:"words"`
}

func (req HighlightRequest) validate() error {
	if err := requireText(
		"conversationId", req.ConversationID,
		"question", req.Question,
		"answer", req.Answer,
		"pageText", req.PageText,
	); err != nil {
		return err
	}
	if len(textRuns(req.PageText, 1)) == 0 {
		return &ValidationError{Field: "pageText", Message: "page has no visible text to highlight"}
	}
	return nil
}

// Highlight picks the text of one element of the page to highlight.
func (r *Resolver) Highlight(ctx context.Context, req HighlightRequest) (*HighlightResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	page := truncate(req.PageText, r.opts.MaxContextChars)
	var b payloadBuilder
	b.text("Question", req.Question)
	b.text("Previous answer", req.Answer)
	b.text("Page text", page)

	fallback := highlightOutput{
		Answer:     highlightFallbackAnswer,
		ActionType: string(IntentHighlight),
	}
	// Truncation can cut away every text run; validate guarantees the full
	// page has one.
	runs := textRuns(page, 1)
	if len(runs) == 0 {
		runs = textRuns(req.PageText, 1)
	}
	fallback.Words = runs[0]

	out, responseID, err := execute(ctx, r, call{
		intent:         IntentHighlight,
		conversationID: req.ConversationID,
		priorID:        req.ResponseID,
		prompt:         b.String(),
	}, func(raw string) Outcome[highlightOutput] {
		v, err := decodeOutput[highlightOutput](IntentHighlight, raw)
		if err != nil {
			return fellBack(fallback, err)
		}
		if r.opts.VerifyHighlightElement && !withinSingleRun(req.PageText, v.Words) {
			return fellBack(fallback, errNotSingleElement)
		}
		return accepted(v)
	})
	if err != nil {
		return nil, err
	}

	res := &HighlightResult{
		ResponseID: responseID,
		Answer:     out.Value.Answer,
		ActionType: string(IntentHighlight),
		Words:      out.Value.Words,
	}
	r.persist(ctx, ledger.Turn{
		ConversationID: req.ConversationID,
		Kind:           ledger.KindHighlight,
		Content:        res.Answer,
		ResponseID:     responseID,
		IsAction:       true,
		ActionType:     res.ActionType,
		ActionPayload:  map[string]string{"words": res.Words},
	})
	return res, nil
}
