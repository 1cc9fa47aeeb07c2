package resolver

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ziadkadry99/pagepilot/internal/ledger"
)

const (
	analyzeFallbackAnswer  = "I could not find that on this page."
	organizeFallbackReason = "Closest available page."
)

var errNoKnownLinks = errors.New("no organized link matches the supplied links")

type analyzeOutput struct {
	Answer      string `json:"answer"`
	FoundAnswer bool   `json:"foundAnswer"`
}

type organizeOutput struct {
	OrganizedLinks []OrganizedLink `json:"organizedLinks"`
}

func (req AnalyzeRequest) validate() error {
	return requireText(
		"conversationId", req.ConversationID,
		"question", req.Question,
		"pageData", req.PageData,
	)
}

func (req OrganizeRequest) validate() error {
	if err := requireText(
		"conversationId", req.ConversationID,
		"question", req.Question,
	); err != nil {
		return err
	}
	if len(req.Links) == 0 {
		return missing("links")
	}
	for i, l := range req.Links {
		if strings.TrimSpace(l.URL) == "" {
			return &ValidationError{Field: fmt.Sprintf("links[%d].url", i), Message: "link url is required"}
		}
	}
	return nil
}

// Analyze decides whether the page data answers the question. context is
// empty on the first step of a research sequence.
func (r *Resolver) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var b payloadBuilder
	b.maxChars = r.opts.MaxContextChars
	b.text("Question", req.Question)
	b.text("Research so far", req.Context)
	b.text("Page data", req.PageData)

	fallback := analyzeOutput{Answer: analyzeFallbackAnswer}
	out, responseID, err := execute(ctx, r, call{
		intent:         IntentAnalyze,
		conversationID: req.ConversationID,
		priorID:        req.ResponseID,
		prompt:         b.String(),
	}, func(raw string) Outcome[analyzeOutput] {
		v, err := decodeOutput[analyzeOutput](IntentAnalyze, raw)
		if err != nil {
			return fellBack(fallback, err)
		}
		return accepted(v)
	})
	if err != nil {
		return nil, err
	}

	res := &AnalyzeResult{
		ResponseID:  responseID,
		Answer:      out.Value.Answer,
		FoundAnswer: out.Value.FoundAnswer,
	}
	found := res.FoundAnswer
	r.persist(ctx, ledger.Turn{
		ConversationID:  req.ConversationID,
		Kind:            ledger.KindResearchAnswer,
		Content:         res.Answer,
		ResponseID:      responseID,
		ActionType:      "analyze",
		FoundAnswer:     &found,
		ResearchContext: req.Context,
	})
	return res, nil
}

// Organize ranks the supplied research links. Only supplied URLs survive,
// each at most once, ordered by descending relevance.
func (r *Resolver) Organize(ctx context.Context, req OrganizeRequest) (*OrganizeResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var b payloadBuilder
	b.maxChars = r.opts.MaxContextChars
	b.text("Question", req.Question)
	b.text("Research so far", req.Context)
	if err := b.list("Links", capList(req.Links, r.opts.MaxAffordances)); err != nil {
		return nil, err
	}

	fallback := organizeOutput{OrganizedLinks: []OrganizedLink{{
		URL:            strings.TrimSpace(req.Links[0].URL),
		RelevanceScore: 0,
		Reason:         organizeFallbackReason,
	}}}
	out, responseID, err := execute(ctx, r, call{
		intent:         IntentOrganize,
		conversationID: req.ConversationID,
		priorID:        req.ResponseID,
		prompt:         b.String(),
	}, func(raw string) Outcome[organizeOutput] {
		v, err := decodeOutput[organizeOutput](IntentOrganize, raw)
		if err != nil {
			return fellBack(fallback, err)
		}
		links := normalizeLinks(v.OrganizedLinks, req.Links)
		if len(links) == 0 {
			return fellBack(fallback, errNoKnownLinks)
		}
		return accepted(organizeOutput{OrganizedLinks: links})
	})
	if err != nil {
		return nil, err
	}

	res := &OrganizeResult{
		ResponseID:     responseID,
		OrganizedLinks: out.Value.OrganizedLinks,
		Context:        req.Context,
		Question:       req.Question,
	}
	turn := ledger.Turn{
		ConversationID:  req.ConversationID,
		Kind:            ledger.KindResearchLinks,
		ResponseID:      responseID,
		ActionType:      "organize",
		ResearchContext: req.Context,
	}
	if data, err := json.Marshal(res.OrganizedLinks); err == nil {
		turn.OrganizedLinks = data
	}
	r.persist(ctx, turn)
	return res, nil
}

// normalizeLinks keeps entries whose URL was supplied, drops repeats,
// clamps scores to [0, 1] and sorts by descending score.
func normalizeLinks(got []OrganizedLink, supplied []ResearchLink) []OrganizedLink {
	known := make(map[string]bool, len(supplied))
	for _, l := range supplied {
		known[strings.TrimSpace(l.URL)] = true
	}

	seen := make(map[string]bool, len(got))
	var out []OrganizedLink
	for _, l := range got {
		l.URL = strings.TrimSpace(l.URL)
		if !known[l.URL] || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		l.RelevanceScore = min(max(l.RelevanceScore, 0), 1)
		out = append(out, l)
	}
	slices.SortStableFunc(out, func(a, b OrganizedLink) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
	return out
}
