package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoObject = errors.New("no JSON object in model output")

// Outcome is either a parsed and accepted model value or a deterministic
// fallback. Cause records why the fallback was taken.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Cause    error
}

func accepted[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func fellBack[T any](v T, cause error) Outcome[T] {
	return Outcome[T]{Value: v, Fallback: true, Cause: cause}
}

// extractObject returns the outermost JSON object in raw model text,
// tolerating markdown code fences and surrounding prose.
func extractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			// Drop the language tag line.
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", errNoObject
	}
	return s[start : end+1], nil
}

// decodeOutput extracts, schema-checks and decodes the model's reply.
func decodeOutput[T any](intent Intent, raw string) (T, error) {
	var out T
	doc, err := extractObject(raw)
	if err != nil {
		return out, err
	}
	if err := validateSchema(intent, doc); err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return out, fmt.Errorf("decoding %s output: %w", intent, err)
	}
	return out, nil
}
