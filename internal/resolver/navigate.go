package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ziadkadry99/pagepilot/internal/ledger"
)

const navigateFallbackAnswer = "Let me take you to that page."

type navigateOutput struct {
	Answer     string `json:"answer"`
	ActionType string `json:"actionType"`
	URL        string `json:"url"`
}

func (req NavigateRequest) validate() error {
	if err := requireText(
		"conversationId", req.ConversationID,
		"question", req.Question,
		"answer", req.Answer,
	); err != nil {
		return err
	}
	if len(req.Links) == 0 {
		return missing("links")
	}
	for i, l := range req.Links {
		if strings.TrimSpace(l) == "" {
			return &ValidationError{Field: fmt.Sprintf("links[%d]", i), Message: "link must not be empty"}
		}
	}
	return nil
}

// Navigate picks one of the supplied links. A URL outside the set is never
// returned.
func (r *Resolver) Navigate(ctx context.Context, req NavigateRequest) (*NavigateResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var b payloadBuilder
	b.text("Question", req.Question)
	b.text("Previous answer", req.Answer)
	if err := b.list("Links", capList(req.Links, r.opts.MaxAffordances)); err != nil {
		return nil, err
	}

	fallback := navigateOutput{
		Answer:     navigateFallbackAnswer,
		ActionType: string(IntentNavigate),
		URL:        strings.TrimSpace(req.Links[0]),
	}
	out, responseID, err := execute(ctx, r, call{
		intent:         IntentNavigate,
		conversationID: req.ConversationID,
		priorID:        req.ResponseID,
		prompt:         b.String(),
	}, func(raw string) Outcome[navigateOutput] {
		v, err := decodeOutput[navigateOutput](IntentNavigate, raw)
		if err != nil {
			return fellBack(fallback, err)
		}
		v.URL = strings.TrimSpace(v.URL)
		if !slices.ContainsFunc(req.Links, func(l string) bool { return strings.TrimSpace(l) == v.URL }) {
			return fellBack(fallback, fmt.Errorf("url %q is not among the supplied links", v.URL))
		}
		return accepted(v)
	})
	if err != nil {
		return nil, err
	}

	res := &NavigateResult{
		ResponseID: responseID,
		Answer:     out.Value.Answer,
		ActionType: string(IntentNavigate),
		URL:        out.Value.URL,
	}
	r.persist(ctx, ledger.Turn{
		ConversationID: req.ConversationID,
		Kind:           ledger.KindNavigation,
		Content:        res.Answer,
		ResponseID:     responseID,
		IsAction:       true,
		ActionType:     res.ActionType,
		ActionPayload:  map[string]string{"url": res.URL},
	})
	return res, nil
}
