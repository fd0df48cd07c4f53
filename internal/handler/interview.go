package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/pkg/response"
)

type InterviewHandler struct {
	service   *service.InterviewService
	validator *validator.Validate
}

func NewInterviewHandler(svc *service.InterviewService, v *validator.Validate) *InterviewHandler {
	return &InterviewHandler{
		service:   svc,
		validator: v,
	}
}

// SaveResults handles POST /api/interviews/results — the callback the
// interview service posts with responses and scoring
func (h *InterviewHandler) SaveResults(c *fiber.Ctx) error {
	var req model.InterviewResultsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if err := h.service.SaveResults(c.Context(), &req); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Interview session not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"sessionId": req.SessionID, "saved": true})
}

// Get handles GET /api/interviews/:sessionId
func (h *InterviewHandler) Get(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return response.ValidationError(c, "Session ID is required", nil)
	}

	session, err := h.service.Get(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Interview session not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, session)
}
