package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/pagepilot/internal/ledger"
)

const clickFallbackAnswer = "Let me click that for you."

type clickOutput struct {
	Answer     string `json:"answer"`
	ActionType string `json:"actionType"`
	ButtonText string `json:"buttonText"`
	ButtonID   string `json:"buttonId"`
}

func (req ClickRequest) validate() error {
	if err := requireText(
		"conversationId", req.ConversationID,
		"question", req.Question,
		"answer", req.Answer,
	); err != nil {
		return err
	}
	if len(req.ButtonData) == 0 {
		return missing("buttonData")
	}
	for i, btn := range req.ButtonData {
		if strings.TrimSpace(btn.ID) == "" {
			return &ValidationError{Field: fmt.Sprintf("buttonData[%d].id", i), Message: "button id is required"}
		}
	}
	return nil
}

// Click picks one of the supplied buttons. The model's echo of the button is
// trusted; the page script enforces that the id exists.
func (r *Resolver) Click(ctx context.Context, req ClickRequest) (*ClickResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var b payloadBuilder
	b.text("Question", req.Question)
	b.text("Previous answer", req.Answer)
	if err := b.list("Buttons", capList(req.ButtonData, r.opts.MaxAffordances)); err != nil {
		return nil, err
	}

	first := req.ButtonData[0]
	fallback := clickOutput{
		Answer:     clickFallbackAnswer,
		ActionType: string(IntentClick),
		ButtonText: first.Text,
		ButtonID:   first.ID,
	}
	out, responseID, err := execute(ctx, r, call{
		intent:         IntentClick,
		conversationID: req.ConversationID,
		priorID:        req.ResponseID,
		prompt:         b.String(),
	}, func(raw string) Outcome[clickOutput] {
		v, err := decodeOutput[clickOutput](IntentClick, raw)
		if err != nil {
			return fellBack(fallback, err)
		}
		return accepted(v)
	})
	if err != nil {
		return nil, err
	}

	res := &ClickResult{
		ResponseID: responseID,
		Answer:     out.Value.Answer,
		ActionType: string(IntentClick),
		ButtonText: out.Value.ButtonText,
		ButtonID:   out.Value.ButtonID,
	}
	r.persist(ctx, ledger.Turn{
		ConversationID: req.ConversationID,
		Kind:           ledger.KindClick,
		Content:        res.Answer,
		ResponseID:     responseID,
		IsAction:       true,
		ActionType:     res.ActionType,
		ActionPayload:  map[string]string{"buttonText": res.ButtonText, "buttonId": res.ButtonID},
	})
	return res, nil
}
