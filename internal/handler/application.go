package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hireflow/api/internal/middleware"
	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/pkg/response"
)

type ApplicationHandler struct {
	service   *service.ApplicationService
	validator *validator.Validate
}

func NewApplicationHandler(svc *service.ApplicationService, v *validator.Validate) *ApplicationHandler {
	return &ApplicationHandler{
		service:   svc,
		validator: v,
	}
}

// Apply handles POST /api/applications
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	var req model.ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	app, err := h.service.Submit(c.Context(),
		middleware.GetUserID(c), middleware.GetName(c), middleware.GetEmail(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, app)
}

// Status handles GET /api/applications/:applicationId/status
func (h *ApplicationHandler) Status(c *fiber.Ctx) error {
	applicationID := c.Params("applicationId")
	if applicationID == "" {
		return response.ValidationError(c, "Application ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), applicationID)
	if err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			return response.NotFound(c, "Application not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Mine handles GET /api/applications/mine
func (h *ApplicationHandler) Mine(c *fiber.Ctx) error {
	result, err := h.service.ListByCandidate(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// ByJob handles GET /api/jobs/:jobId/applications
func (h *ApplicationHandler) ByJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.ListByJob(c.Context(), jobID, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		if errors.Is(err, service.ErrNotJobOwner) {
			return response.Forbidden(c, "You do not own this job posting")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// UpdateStatus handles PATCH /api/applications/:applicationId/status
func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	applicationID := c.Params("applicationId")
	if applicationID == "" {
		return response.ValidationError(c, "Application ID is required", nil)
	}

	var req model.UpdateApplicationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	app, err := h.service.UpdateStatus(c.Context(), applicationID, middleware.GetUserID(c), req.Status)
	if err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			return response.NotFound(c, "Application not found")
		}
		if errors.Is(err, service.ErrNotJobOwner) {
			return response.Forbidden(c, "You do not own this job posting")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, app)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
