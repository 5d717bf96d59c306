// Package conditions evaluates step conditions against a triggering event payload.
package conditions

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dukex/caseflow/pkg/models"
)

var (
	ErrUnknownOperator = errors.New("unknown condition operator")
	ErrNotANumber      = errors.New("operand is not a number")
)

// Anomaly reports a condition that was resolved by a default rule instead of
// a regular comparison. It never changes the evaluation result.
type Anomaly struct {
	Field    string
	Operator models.Operator
	Err      error
}

func (a *Anomaly) Error() string {
	return fmt.Sprintf("condition on %q with operator %q: %v", a.Field, a.Operator, a.Err)
}

func (a *Anomaly) Unwrap() error {
	return a.Err
}

// Evaluate resolves condition against payload. The boolean is always the
// outcome to act on; a non-nil error is an *Anomaly for the caller to log.
// Unknown operators pass.
func Evaluate(condition models.Condition, payload map[string]any) (bool, error) {
	actual, present := Lookup(payload, condition.Field)

	switch condition.Operator {
	case models.OperatorEquals:
		return strictEqual(actual, present, condition.Value), nil
	case models.OperatorNotEquals:
		return !strictEqual(actual, present, condition.Value), nil
	case models.OperatorContains:
		return strings.Contains(toString(actual, present), toString(condition.Value, true)), nil
	case models.OperatorGreaterThan, models.OperatorLessThan:
		left := toNumber(actual, present)
		right := toNumber(condition.Value, true)

		if math.IsNaN(left) || math.IsNaN(right) {
			return false, &Anomaly{Field: condition.Field, Operator: condition.Operator, Err: ErrNotANumber}
		}

		if condition.Operator == models.OperatorGreaterThan {
			return left > right, nil
		}

		return left < right, nil
	default:
		return true, &Anomaly{Field: condition.Field, Operator: condition.Operator, Err: ErrUnknownOperator}
	}
}

// EvaluateAll is true when every condition holds. An empty list holds.
// Anomalies from all conditions are joined into the returned error.
func EvaluateAll(conditions []models.Condition, payload map[string]any) (bool, error) {
	var anomalies []error

	for _, condition := range conditions {
		ok, err := Evaluate(condition, payload)
		if err != nil {
			anomalies = append(anomalies, err)
		}

		if !ok {
			return false, errors.Join(anomalies...)
		}
	}

	return true, errors.Join(anomalies...)
}

// Lookup finds field in payload, first as a literal key and then as a dot
// path through nested objects.
func Lookup(payload map[string]any, field string) (any, bool) {
	if payload == nil {
		return nil, false
	}

	if value, ok := payload[field]; ok {
		return value, true
	}

	if !strings.Contains(field, ".") {
		return nil, false
	}

	var current any = payload

	for _, segment := range strings.Split(field, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = object[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func strictEqual(actual any, present bool, expected any) bool {
	if !present {
		return expected == nil
	}

	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if a, ok := asFloat(actual); ok {
		b, ok := asFloat(expected)

		return ok && a == b
	}

	switch a := actual.(type) {
	case string:
		b, ok := expected.(string)

		return ok && a == b
	case bool:
		b, ok := expected.(bool)

		return ok && a == b
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toString(v any, present bool) string {
	if !present {
		return "undefined"
	}

	if n, ok := asFloat(v); ok {
		return formatNumber(n)
	}

	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			if item == nil {
				continue
			}

			parts[i] = toString(item, true)
		}

		return strings.Join(parts, ",")
	case []string:
		return strings.Join(s, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(s)
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

func toNumber(v any, present bool) float64 {
	if !present {
		return math.NaN()
	}

	if n, ok := asFloat(v); ok {
		return n
	}

	switch s := v.(type) {
	case nil:
		return 0
	case bool:
		if s {
			return 1
		}

		return 0
	case string:
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return 0
		}

		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}

		return n
	default:
		return math.NaN()
	}
}
