package actions

import (
	"fmt"
	"strings"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	stringProp  = map[string]any{"type": "string"}
	integerProp = map[string]any{"type": []any{"integer", "string"}}
)

func objectSchema(required []string, properties map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}

		schema["required"] = req
	}

	return schema
}

var notificationSchema = objectSchema(nil, map[string]any{
	"to":        stringProp,
	"recipient": stringProp,
	"subject":   stringProp,
	"message":   stringProp,
	"template":  stringProp,
})

// configSchemas describes the config accepted by each action kind. Values
// may be templates, so most properties are strings.
var configSchemas = map[models.ActionKind]map[string]any{
	models.ActionSendEmail:  notificationSchema,
	models.ActionSendSMS:    notificationSchema,
	models.ActionNotifyTeam: notificationSchema,
	models.ActionCreateTask: objectSchema(nil, map[string]any{
		"title":        stringProp,
		"description":  stringProp,
		"priority":     map[string]any{"type": "string", "enum": []any{"low", "medium", "high", "urgent"}},
		"assignee":     stringProp,
		"due_in_days":  integerProp,
		"due_date":     stringProp,
		"entity_field": stringProp,
	}),
	models.ActionUpdateStatus: objectSchema([]string{"status"}, map[string]any{
		"status":       stringProp,
		"entity_type":  stringProp,
		"entity_field": stringProp,
	}),
	models.ActionAssignUser: objectSchema([]string{"user_id"}, map[string]any{
		"user_id":      stringProp,
		"role":         stringProp,
		"entity_type":  stringProp,
		"entity_field": stringProp,
	}),
	models.ActionCreateDocument: objectSchema(nil, map[string]any{
		"name":         stringProp,
		"template":     stringProp,
		"entity_field": stringProp,
	}),
	models.ActionScheduleReminder: objectSchema([]string{"message"}, map[string]any{
		"message":           stringProp,
		"recipient":         stringProp,
		"channel":           map[string]any{"type": "string", "enum": []any{"email", "sms"}},
		"remind_in_minutes": integerProp,
		"remind_at":         stringProp,
	}),
	models.ActionRunAIAnalysis: objectSchema(nil, map[string]any{
		"analysis_type": stringProp,
		"entity_type":   stringProp,
		"entity_field":  stringProp,
	}),
	models.ActionWebhook: objectSchema([]string{"url"}, map[string]any{
		"url":     map[string]any{"type": "string", "minLength": 1},
		"method":  map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE", "get", "post", "put", "patch", "delete"}},
		"headers": map[string]any{"type": "object", "additionalProperties": stringProp},
	}),
}

// ValidateConfig checks config against the JSON schema of kind. Kinds
// without a schema accept any config.
func ValidateConfig(kind models.ActionKind, config map[string]any) error {
	schema, ok := configSchemas[kind]
	if !ok {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("validating %s config: %w", kind, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, kind, strings.Join(errs, "; "))
	}

	return nil
}
