package web

import (
	"net/http"

	"github.com/dukex/caseflow/pkg/persistence"
	"github.com/dukex/caseflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

const validationProblem = "validation_error"

// problem answers with an RFC 7807 document for the current path.
func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, http.StatusBadRequest, validationProblem, detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problem(c, http.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(http.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(http.StatusInternalServerError).JSON(p)
}

// handleServiceError maps service and persistence errors to problems.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		code := services.ErrorCode(err)
		if code == "" {
			code = validationProblem
		}

		return problem(c, http.StatusBadRequest, code, err.Error())
	case persistence.IsWorkflowNotFound(err):
		return problem(c, http.StatusNotFound, "workflow_not_found", "workflow not found")
	default:
		return internalError(c, err)
	}
}
