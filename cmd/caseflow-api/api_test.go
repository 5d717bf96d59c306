package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/caseflow/pkg/cmd"
	"github.com/dukex/caseflow/pkg/testutil"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	engine, err := cmd.NewEngine(t.Context(), testutil.DiscardLogger(), "caseflow-api-test", cmd.Config{
		DatabaseURL:   "file://" + t.TempDir(),
		EventBus:      "gochannel",
		ActionTimeout: time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() { engine.Close(context.Background()) })

	return NewAPI(testutil.DiscardLogger(), engine).App()
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	status, body := get(t, app, "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "caseflow API", body)
}

func TestAPI_HealthEndpoints(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz", "/health"} {
		t.Run(path, func(t *testing.T) {
			status, _ := get(t, app, path)
			assert.Equal(t, http.StatusOK, status)
		})
	}
}

func TestAPI_WorkflowsRequireTenant(t *testing.T) {
	app := setupTestApp(t)

	status, body := get(t, app, "/workflows")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "X-Tenant-ID")
}

func TestAPI_Metrics(t *testing.T) {
	app := setupTestApp(t)

	status, body := get(t, app, "/metrics")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
}
