// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/caseflow/pkg/eventbus"
	"github.com/dukex/caseflow/pkg/models"
	"github.com/dukex/caseflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TenantHeader identifies the calling tenant on every workflow and event route.
const TenantHeader = "X-Tenant-ID"

const tenantLocal = "tenant_id"

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	eventBus        eventbus.EventPublisher
}

// NewAPIHandlers builds the handlers. eventBus may be nil, in which case
// events are always handled synchronously.
func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	eventBus eventbus.EventPublisher,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		eventBus:        eventBus,
	}
}

// RequireTenant rejects requests without the tenant header.
func RequireTenant(c fiber.Ctx) error {
	tenantID := c.Get(TenantHeader)
	if tenantID == "" {
		return badRequest(c, TenantHeader+" header is required")
	}

	c.Locals(tenantLocal, tenantID)

	return c.Next()
}

func tenant(c fiber.Ctx) string {
	tenantID, _ := c.Locals(tenantLocal).(string)

	return tenantID
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), tenant(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.FetchByID(c.Context(), tenant(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	steps := req.Steps
	if steps == nil {
		steps = []*models.Step{}
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Active:      req.Active,
		Steps:       steps,
	}

	created, err := h.workflowService.Create(c.Context(), tenant(c), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), tenant(c), c.Params("id"), services.UpdateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Active:      req.Active,
		Steps:       req.Steps,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), tenant(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow runs a workflow in-request. Partial failures are part of
// the returned run, not an HTTP error.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.workflowService.Execute(c.Context(), tenant(c), c.Params("id"), req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetWorkflowRuns(c fiber.Ctx) error {
	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}

		limit = parsed
	}

	runs, err := h.workflowService.Runs(c.Context(), tenant(c), c.Params("id"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// PostEvent routes a domain event to the tenant's workflows. With ?async=true
// and an event bus configured, the event is queued for the worker instead.
func (h *APIHandlers) PostEvent(c fiber.Ctx) error {
	var req EventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	event := models.TriggeringEvent{
		Kind:       req.Kind,
		TenantID:   tenant(c),
		Payload:    req.Payload,
		OccurredAt: time.Now().UTC(),
	}

	if req.OccurredAt != nil {
		event.OccurredAt = req.OccurredAt.UTC()
	}

	if c.Query("async") == "true" && h.eventBus != nil {
		if !event.Kind.IsValid() {
			return badRequest(c, "unknown event kind "+string(event.Kind))
		}

		if err := eventbus.PublishEvent(c.Context(), h.eventBus, event); err != nil {
			return internalError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"kind": event.Kind, "queued": true})
	}

	results, err := h.workflowService.HandleEvent(c.Context(), event)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(EventResponse{Kind: event.Kind, Results: results})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "caseflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "caseflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
