package conditions

import (
	"testing"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cond(field string, op models.Operator, value any) models.Condition {
	return models.Condition{Field: field, Operator: op, Value: value}
}

func TestEvaluate(t *testing.T) {
	payload := map[string]any{
		"amount":       500.0,
		"status":       "open",
		"documentName": "Engagement Letter.pdf",
		"urgent":       true,
		"note":         nil,
		"count":        "42",
		"tags":         []any{"family", "custody"},
		"case": map[string]any{
			"status": "closed",
			"fees":   map[string]any{"total": 1200},
		},
	}

	tests := []struct {
		name        string
		condition   models.Condition
		expected    bool
		wantAnomaly bool
	}{
		{"equals number", cond("amount", models.OperatorEquals, 500), true, false},
		{"equals number across types", cond("amount", models.OperatorEquals, int64(500)), true, false},
		{"equals string", cond("status", models.OperatorEquals, "open"), true, false},
		{"equals is strict on types", cond("count", models.OperatorEquals, 42), false, false},
		{"equals bool", cond("urgent", models.OperatorEquals, true), true, false},
		{"equals null", cond("note", models.OperatorEquals, nil), true, false},
		{"missing field equals nil", cond("missing", models.OperatorEquals, nil), true, false},
		{"missing field not equal to value", cond("missing", models.OperatorEquals, "open"), false, false},
		{"objects are never strictly equal", cond("case", models.OperatorEquals, map[string]any{"status": "closed"}), false, false},
		{"not equals", cond("status", models.OperatorNotEquals, "closed"), true, false},
		{"contains substring", cond("documentName", models.OperatorContains, "Letter"), true, false},
		{"contains number coerced", cond("amount", models.OperatorContains, 50), true, false},
		{"contains on array", cond("tags", models.OperatorContains, "custody"), true, false},
		{"contains on missing field", cond("missing", models.OperatorContains, "undef"), true, false},
		{"contains null", cond("note", models.OperatorContains, "null"), true, false},
		{"greater than", cond("amount", models.OperatorGreaterThan, 1000), false, false},
		{"less than", cond("amount", models.OperatorLessThan, 1000), true, false},
		{"numeric string coerced", cond("count", models.OperatorGreaterThan, "41.5"), true, false},
		{"null coerces to zero", cond("note", models.OperatorLessThan, 1), true, false},
		{"bool coerces to one", cond("urgent", models.OperatorGreaterThan, 0), true, false},
		{"non numeric string", cond("status", models.OperatorGreaterThan, 1), false, true},
		{"missing field is NaN", cond("missing", models.OperatorLessThan, 1), false, true},
		{"dot path", cond("case.status", models.OperatorEquals, "closed"), true, false},
		{"nested dot path", cond("case.fees.total", models.OperatorGreaterThan, 1000), true, false},
		{"dot path through scalar", cond("status.length", models.OperatorEquals, nil), true, false},
		{"unknown operator passes", cond("status", "starts_with", "op"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.condition, payload)

			assert.Equal(t, tt.expected, got)

			if tt.wantAnomaly {
				var anomaly *Anomaly
				require.ErrorAs(t, err, &anomaly)
				assert.Equal(t, tt.condition.Field, anomaly.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluate_EqualsAndNotEqualsAreNegations(t *testing.T) {
	payload := map[string]any{"a": 1.0, "b": "x", "c": nil, "d": map[string]any{}}
	values := []any{1, 1.0, "1", "x", nil, true, map[string]any{}}
	fields := []string{"a", "b", "c", "d", "missing"}

	for _, field := range fields {
		for _, value := range values {
			eq, _ := Evaluate(cond(field, models.OperatorEquals, value), payload)
			neq, _ := Evaluate(cond(field, models.OperatorNotEquals, value), payload)

			assert.NotEqual(t, eq, neq, "field %s value %v", field, value)
		}
	}
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	payload := map[string]any{"amount": 10}
	condition := cond("amount", models.OperatorGreaterThan, 5)

	first, _ := Evaluate(condition, payload)
	second, _ := Evaluate(condition, payload)

	assert.Equal(t, first, second)
}

func TestEvaluateAll(t *testing.T) {
	payload := map[string]any{"amount": 500, "status": "open"}

	ok, err := EvaluateAll(nil, payload)
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = EvaluateAll([]models.Condition{
		cond("amount", models.OperatorGreaterThan, 100),
		cond("status", models.OperatorEquals, "open"),
	}, payload)
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, _ = EvaluateAll([]models.Condition{
		cond("amount", models.OperatorGreaterThan, 100),
		cond("status", models.OperatorEquals, "closed"),
	}, payload)
	assert.False(t, ok)

	ok, err = EvaluateAll([]models.Condition{
		cond("status", "matches", "o.*"),
	}, payload)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestLookup(t *testing.T) {
	payload := map[string]any{
		"client.name": "literal key wins",
		"client":      map[string]any{"name": "nested"},
	}

	value, ok := Lookup(payload, "client.name")
	require.True(t, ok)
	assert.Equal(t, "literal key wins", value)

	_, ok = Lookup(nil, "client")
	assert.False(t, ok)

	_, ok = Lookup(payload, "client.email")
	assert.False(t, ok)
}
