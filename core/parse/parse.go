package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrEmptyContent is returned when there is nothing to parse.
var ErrEmptyContent = errors.New("parse: empty content")

// ParseStringAs decodes content into T, which should be a struct, map or
// slice type. It tries, in order: the raw text, the text with markdown fences
// stripped, the outermost JSON object or array found in the text, and
// finally each candidate after jsonrepair and schema unwrapping.
//
// Example usage:
//
//	type Person struct {
//	    Name string `json:"name"`
//	}
//
//	person, err := ParseStringAs[Person]("```json\n{name: 'John'}\n```")
func ParseStringAs[T any](content string) (T, error) {
	var result T

	content = strings.TrimSpace(content)
	if content == "" {
		return result, ErrEmptyContent
	}

	candidates := candidatesFor(content)

	var firstErr error
	for _, candidate := range candidates {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		} else if firstErr == nil {
			firstErr = err
		}
	}

	for _, candidate := range candidates {
		repaired, err := jsonrepair.JSONRepair(candidate)
		if err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(repaired), &result); err == nil {
			return result, nil
		}
		if unwrapped, err := unwrapSchemaValues(repaired); err == nil {
			if err := json.Unmarshal([]byte(unwrapped), &result); err == nil {
				return result, nil
			}
		}
	}

	return result, fmt.Errorf("failed to parse content as %T: %w", result, firstErr)
}

// candidatesFor lists the substrings worth trying, most specific last.
func candidatesFor(content string) []string {
	candidates := []string{content}

	if fenced := stripCodeFence(content); fenced != content {
		candidates = append(candidates, fenced)
	}

	if extracted := outermostJSON(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	return candidates
}

// stripCodeFence removes a leading ```lang line and a trailing ``` fence.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := content[3:]
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		body = body[newline+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// outermostJSON returns the span from the first '{' or '[' to the matching
// last '}' or ']', or "" when there is none.
func outermostJSON(content string) string {
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if content[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(content, closer)
	if end <= start {
		return ""
	}
	return content[start : end+1]
}

// unwrapSchemaValues replaces {"type": ..., "value": X} wrappers with X.
//
//	{"name": {"type": "string", "value": "John"}} -> {"name": "John"}
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}

	result, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}

	return string(result), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return recursiveUnwrap(value)
			}
		}

		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result

	default:
		return data
	}
}
