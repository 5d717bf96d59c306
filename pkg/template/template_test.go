package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SimpleExpression(t *testing.T) {
	data := map[string]any{
		"clientName": "Jane Roe",
		"amount":     1500,
		"isNew":      true,
	}

	result, err := Render("{{ .clientName }}", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", result)

	result, err = Render("{{ .isNew }}", data)
	require.NoError(t, err)
	assert.Equal(t, "true", result)

	result, err = Render("{{ .amount }}", data)
	require.NoError(t, err)
	assert.Equal(t, "1500", result)

	result, err = Render("Welcome {{ upper .clientName }}", data)
	require.NoError(t, err)
	assert.Equal(t, "Welcome JANE ROE", result)
}

func TestRender_JSONOutput(t *testing.T) {
	data := map[string]any{
		"case": map[string]any{"id": "case-9", "title": "Roe v. Doe"},
	}

	result, err := Render(`{"case_id": "{{ .case.id }}"}`, data)
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "case-9", resultMap["case_id"])
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{ .name ", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestRenderConfig(t *testing.T) {
	payload := map[string]any{
		"documentName": "Retainer.pdf",
		"caseId":       "case-1",
	}

	config := map[string]any{
		"title":    "Review {{ .documentName }}",
		"priority": "high",
		"phone":    "+15550100",
		"nested": map[string]any{
			"ref": "{{ .caseId }}",
		},
		"list":        []any{"{{ .caseId }}", 3},
		"due_in_days": 2,
	}

	rendered, err := RenderConfig(config, payload)
	require.NoError(t, err)

	assert.Equal(t, "Review Retainer.pdf", rendered["title"])
	assert.Equal(t, "high", rendered["priority"])
	assert.Equal(t, "+15550100", rendered["phone"])
	assert.Equal(t, map[string]any{"ref": "case-1"}, rendered["nested"])
	assert.Equal(t, []any{"case-1", 3}, rendered["list"])
	assert.Equal(t, 2, rendered["due_in_days"])

	// the input is not mutated
	assert.Equal(t, "Review {{ .documentName }}", config["title"])
}

func TestRender_MissingKey(t *testing.T) {
	_, err := Render("Review {{ .documentName }}", map[string]any{"caseId": "case-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")

	_, err = Render("Hello {{ .client.name }}", map[string]any{})
	require.Error(t, err)
}

func TestRenderConfig_Error(t *testing.T) {
	_, err := RenderConfig(map[string]any{"title": "{{ .broken"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `config "title"`)
}

func TestRender_BracketedTextStaysString(t *testing.T) {
	result, err := Render("[{{ .priority }}] follow up", map[string]any{"priority": "urgent"})
	require.NoError(t, err)
	assert.Equal(t, "[urgent] follow up", result)

	result, err = Render("[{{ .docket }}]", map[string]any{"docket": "2024-CV-17"})
	require.NoError(t, err)
	assert.Equal(t, "[2024-CV-17]", result)
}
