package resolver

import (
	"strings"

	"golang.org/x/net/html"
)

// textRuns returns the trimmed, whitespace-collapsed text of each text node
// in markup, skipping script and style contents. At most limit runs are
// returned when limit > 0.
func textRuns(markup string, limit int) []string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		runs []string
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return runs
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if t := collapseSpace(string(z.Text())); t != "" {
				runs = append(runs, t)
				if limit > 0 && len(runs) >= limit {
					return runs
				}
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// withinSingleRun reports whether words lie entirely inside one text run of
// markup, so highlighting them never spans two elements.
func withinSingleRun(markup, words string) bool {
	w := collapseSpace(html.UnescapeString(words))
	if w == "" {
		return false
	}
	for _, run := range textRuns(markup, 0) {
		if strings.Contains(run, w) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
