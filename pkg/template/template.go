// Package template renders Go text/template expressions found in step configuration.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// NeedsTemplating reports whether input contains a template action.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// RenderConfig returns a copy of config whose string values, at any depth,
// are rendered against data. Values without template actions are kept as is.
func RenderConfig(config map[string]any, data map[string]any) (map[string]any, error) {
	rendered := make(map[string]any, len(config))

	for key, value := range config {
		v, err := renderValue(value, data)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", key, err)
		}

		rendered[key] = v
	}

	return rendered, nil
}

func renderValue(value any, data map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		if !NeedsTemplating(v) {
			return v, nil
		}

		return Render(v, data)
	case map[string]any:
		return RenderConfig(v, data)
	case []any:
		items := make([]any, len(v))

		for i, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			items[i] = rendered
		}

		return items, nil
	default:
		return value, nil
	}
}

// Render executes templateStr against data. A key missing from data is an
// error rather than "<no value>". Output that is a JSON object or
// array is decoded; anything else stays a string so phone numbers and docket
// numbers keep their formatting.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).
		Option("missingkey=error").
		Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	return result, nil
}
