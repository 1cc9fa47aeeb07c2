package resolver

// Intent names one of the fixed action families.
type Intent string

const (
	IntentNavigate  Intent = "navigate"
	IntentClick     Intent = "click"
	IntentHighlight Intent = "highlight"
	IntentAnalyze   Intent = "research-analyze"
	IntentOrganize  Intent = "research-organize"
)

// Intents lists every supported intent.
var Intents = []Intent{IntentNavigate, IntentClick, IntentHighlight, IntentAnalyze, IntentOrganize}

// ParseIntent maps a wire name to an Intent. "analyze" and "organize" are
// accepted as short forms of the research intents.
func ParseIntent(name string) (Intent, bool) {
	switch name {
	case "navigate":
		return IntentNavigate, true
	case "click":
		return IntentClick, true
	case "highlight":
		return IntentHighlight, true
	case "research-analyze", "analyze":
		return IntentAnalyze, true
	case "research-organize", "organize":
		return IntentOrganize, true
	}
	return "", false
}

// Button is a clickable element offered by the page.
type Button struct {
	Text string `json:"text"`
	ID   string `json:"id"`
}

// ResearchLink is a candidate page for research-organize.
type ResearchLink struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// OrganizedLink is a ranked research link.
type OrganizedLink struct {
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevanceScore"`
	Reason         string  `json:"reason"`
}

type NavigateRequest struct {
	ConversationID string   `json:"conversationId"`
	ResponseID     string   `json:"responseId,omitempty"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	Links          []string `json:"links"`
}

type NavigateResult struct {
	ResponseID string `json:"responseId"`
	Answer     string `json:"answer"`
	ActionType string `json:"actionType"`
	URL        string `json:"url"`
}

type ClickRequest struct {
	ConversationID string   `json:"conversationId"`
	ResponseID     string   `json:"responseId,omitempty"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	ButtonData     []Button `json:"buttonData"`
}

type ClickResult struct {
	ResponseID string `json:"responseId"`
	Answer     string `json:"answer"`
	ActionType string `json:"actionType"`
	ButtonText string `json:"buttonText"`
	ButtonID   string `json:"buttonId"`
}

type HighlightRequest struct {
	ConversationID string `json:"conversationId"`
	ResponseID     string `json:"responseId,omitempty"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	PageText       string `json:"pageText"`
}

type HighlightResult struct {
	ResponseID string `json:"responseId"`
	Answer     string `json:"answer"`
	ActionType string `json:"actionType"`
	Words      string `json:"words"`
}

type AnalyzeRequest struct {
	ConversationID string `json:"conversationId"`
	ResponseID     string `json:"responseId,omitempty"`
	Question       string `json:"question"`
	Context        string `json:"context"`
	PageData       string `json:"pageData"`
}

type AnalyzeResult struct {
	ResponseID  string `json:"responseId"`
	Answer      string `json:"answer"`
	FoundAnswer bool   `json:"foundAnswer"`
}

type OrganizeRequest struct {
	ConversationID string         `json:"conversationId"`
	ResponseID     string         `json:"responseId,omitempty"`
	Question       string         `json:"question"`
	Context        string         `json:"context"`
	Links          []ResearchLink `json:"links"`
}

type OrganizeResult struct {
	ResponseID     string          `json:"responseId"`
	OrganizedLinks []OrganizedLink `json:"organizedLinks"`
	Context        string          `json:"context"`
	Question       string          `json:"question"`
}
