package runtime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// RenderPrompt substitutes {{field}} and {{field.sub}} placeholders from
// vars. Unknown placeholders are left untouched. A prompt without any
// placeholder gets the variables appended as a JSON context block instead.
func RenderPrompt(prompt string, vars map[string]any) string {
	if !placeholder.MatchString(prompt) {
		if len(vars) == 0 {
			return prompt
		}
		context, err := json.MarshalIndent(vars, "", "  ")
		if err != nil {
			return prompt
		}
		return prompt + "\n\nContexto dos dados de entrada:\n" + string(context)
	}

	return placeholder.ReplaceAllStringFunc(prompt, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		value, ok := lookup(vars, path)
		if !ok {
			return match
		}
		return format(value)
	})
}

// lookup walks a dotted path through nested maps.
func lookup(vars map[string]any, path string) (any, bool) {
	var current any = vars
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func format(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}
