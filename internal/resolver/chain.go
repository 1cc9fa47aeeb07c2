package resolver

import "strings"

// DefaultChainPrefix is the prefix of identifiers issued by the Responses API.
const DefaultChainPrefix = "resp_"

// ChainRule decides which caller-supplied response ids may continue a
// server-side chain.
type ChainRule struct {
	Prefix string
}

// Forward returns id if it carries the inference service's prefix and ""
// otherwise. An empty Prefix forwards nothing.
func (c ChainRule) Forward(id string) string {
	id = strings.TrimSpace(id)
	if c.Prefix == "" || len(id) <= len(c.Prefix) || !strings.HasPrefix(id, c.Prefix) {
		return ""
	}
	return id
}
