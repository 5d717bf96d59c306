package actions

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func stringValue(config map[string]any, key string) string {
	return toString(config[key])
}

func stringOr(config map[string]any, key, fallback string) string {
	if v := stringValue(config, key); v != "" {
		return v
	}

	return fallback
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

func intValue(config map[string]any, key string) (int, bool) {
	switch n := config[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}

		return i, true
	default:
		return 0, false
	}
}

func timeValue(config map[string]any, key string) (*time.Time, error) {
	raw := stringValue(config, key)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339: %w", ErrInvalidConfig, key, err)
	}

	return &t, nil
}

func stringMap(config map[string]any, key string) map[string]string {
	raw, ok := config[key].(map[string]any)
	if !ok {
		return nil
	}

	result := make(map[string]string, len(raw))
	for k, v := range raw {
		result[k] = toString(v)
	}

	return result
}
