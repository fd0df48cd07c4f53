package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/pkg/response"
)

type AssessmentHandler struct {
	service   *service.AssessmentService
	validator *validator.Validate
}

func NewAssessmentHandler(svc *service.AssessmentService, v *validator.Validate) *AssessmentHandler {
	return &AssessmentHandler{
		service:   svc,
		validator: v,
	}
}

// Completed handles POST /api/assessments/completed — the callback the
// assessment service posts when a candidate finishes
func (h *AssessmentHandler) Completed(c *fiber.Ctx) error {
	var req model.AssessmentCompletedRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if err := h.service.HandleCompletion(c.Context(), &req); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Assessment session not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"sessionId": req.SessionID, "completed": true})
}

// Status handles GET /api/assessments/:sessionId
func (h *AssessmentHandler) Status(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return response.ValidationError(c, "Session ID is required", nil)
	}

	session, err := h.service.GetStatus(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Assessment session not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, session)
}
