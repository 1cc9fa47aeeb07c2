package resolver

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const speechPolicy = `The "answer" field is read aloud to the visitor. Keep it under ten words.
Use short declarative sentences. Do not use abbreviations, symbols, markdown or lists.
Reply with a single JSON object and nothing else.`

var preambles = map[Intent]string{
	IntentNavigate: `You help a website visitor reach the right page.
Choose exactly one URL from the supplied list of links. Copy it exactly as given.
Never invent a URL that is not in the list.
Respond as {"answer": string, "actionType": "navigate", "url": string}.`,

	IntentClick: `You help a website visitor press the right button.
Choose exactly one button from the supplied list. Copy its text and id exactly as given.
Never invent a button that is not in the list.
Respond as {"answer": string, "actionType": "click", "buttonText": string, "buttonId": string}.`,

	IntentHighlight: `You help a website visitor find information on the current page.
The page text contains markup. Select the text of exactly one contiguous markup element that answers the question.
Never merge text across elements. Copy the words exactly as they appear inside that element.
Respond as {"answer": string, "actionType": "highlight", "words": string}.`,

	IntentAnalyze: `You research a website on behalf of a visitor.
Read the page data and decide whether it answers the question, taking the research so far into account.
If it does, give the answer. If it does not, say so briefly.
Respond as {"answer": string, "foundAnswer": boolean}.`,

	IntentOrganize: `You research a website on behalf of a visitor.
Rank the supplied links by how likely each page is to answer the question, taking the research so far into account.
Only use URLs from the list. Give each a relevanceScore between 0 and 1 and a short reason.
Respond as {"organizedLinks": [{"url": string, "relevanceScore": number, "reason": string}]}.`,
}

// systemPrompt returns the fixed instruction block for an intent.
func systemPrompt(intent Intent) string {
	if intent == IntentOrganize {
		return preambles[intent] + "\nReply with a single JSON object and nothing else."
	}
	return preambles[intent] + "\n\n" + speechPolicy
}

// payloadBuilder assembles the bounded user message.
type payloadBuilder struct {
	sb       strings.Builder
	maxChars int
}

func (b *payloadBuilder) text(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(&b.sb, "%s:\n%s\n\n", label, truncate(value, b.maxChars))
}

func (b *payloadBuilder) list(label string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", strings.ToLower(label), err)
	}
	fmt.Fprintf(&b.sb, "%s:\n%s\n\n", label, data)
	return nil
}

func (b *payloadBuilder) String() string {
	return strings.TrimSpace(b.sb.String())
}

// truncate cuts s to at most n bytes on a rune boundary. n <= 0 disables it.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// capList returns at most n leading elements. n <= 0 disables the cap.
func capList[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
