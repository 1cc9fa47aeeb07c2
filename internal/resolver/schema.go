package resolver

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var schemaSources = map[Intent]string{
	IntentNavigate: `{
		"type": "object",
		"required": ["answer", "actionType", "url"],
		"properties": {
			"answer": {"type": "string"},
			"actionType": {"type": "string"},
			"url": {"type": "string", "minLength": 1}
		}
	}`,
	IntentClick: `{
		"type": "object",
		"required": ["answer", "actionType", "buttonText", "buttonId"],
		"properties": {
			"answer": {"type": "string"},
			"actionType": {"type": "string"},
			"buttonText": {"type": "string"},
			"buttonId": {"type": "string", "minLength": 1}
		}
	}`,
	IntentHighlight: `{
		"type": "object",
		"required": ["answer", "actionType", "words"],
		"properties": {
			"answer": {"type": "string"},
			"actionType": {"type": "string"},
			"words": {"type": "string", "minLength": 1}
		}
	}`,
	IntentAnalyze: `{
		"type": "object",
		"required": ["answer", "foundAnswer"],
		"properties": {
			"answer": {"type": "string"},
			"foundAnswer": {"type": "boolean"}
		}
	}`,
	IntentOrganize: `{
		"type": "object",
		"required": ["organizedLinks"],
		"properties": {
			"organizedLinks": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["url", "relevanceScore", "reason"],
					"properties": {
						"url": {"type": "string", "minLength": 1},
						"relevanceScore": {"type": "number"},
						"reason": {"type": "string"}
					}
				}
			}
		}
	}`,
}

var schemas = compileSchemas()

func compileSchemas() map[Intent]*gojsonschema.Schema {
	out := make(map[Intent]*gojsonschema.Schema, len(schemaSources))
	for intent, src := range schemaSources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("resolver: invalid %s schema: %v", intent, err))
		}
		out[intent] = s
	}
	return out
}

// validateSchema checks a JSON document against the intent's output schema.
func validateSchema(intent Intent, doc string) error {
	s, ok := schemas[intent]
	if !ok {
		return fmt.Errorf("no schema for intent %q", intent)
	}
	result, err := s.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(msgs, "; "))
	}
	return nil
}
