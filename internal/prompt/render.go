// Package prompt resolves and renders the system/user prompt pair for each
// generation module. Stored overrides win over embedded defaults; modules
// with neither get a passthrough template that serializes the input data.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// Rendered is a prompt pair ready to send to the model.
type Rendered struct {
	System string
	User   string
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes every {{identifier}} occurrence in the template with
// the matching variable. Slice values are joined with ", "; missing
// variables leave the placeholder in place.
func Render(tpl model.PromptTemplate, vars map[string]any) Rendered {
	return Rendered{
		System: substitute(tpl.SystemPrompt, vars),
		User:   substitute(tpl.UserPrompt, vars),
	}
}

func substitute(text string, vars map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			return match
		}
		return formatValue(value)
	})
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// PassthroughUserPrompt serializes arbitrary input data verbatim for modules
// without any template at all.
func PassthroughUserPrompt(vars map[string]any) string {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", vars)
	}
	return string(data)
}
