package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hireflow/api/internal/middleware"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/pkg/response"
)

const maxResumeSize = 10 * 1024 * 1024 // 10MB

type UploadHandler struct {
	service   *service.UploadService
	validator *validator.Validate
}

func NewUploadHandler(svc *service.UploadService, v *validator.Validate) *UploadHandler {
	return &UploadHandler{
		service:   svc,
		validator: v,
	}
}

// Resume handles POST /api/upload/resume
func (h *UploadHandler) Resume(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxResumeSize {
		return response.ValidationError(c, "File size exceeds 10MB limit", map[string]interface{}{
			"maxSize":  maxResumeSize,
			"fileSize": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "application/pdf" {
		return response.ValidationError(c, "Invalid file type. Only PDF resumes are supported", map[string]interface{}{
			"contentType": contentType,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to read uploaded file")
	}
	defer f.Close()

	result, err := h.service.UploadResume(c.Context(), middleware.GetUserID(c), f, file.Size)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// DeleteResume handles DELETE /api/upload/resume/:resumeId
func (h *UploadHandler) DeleteResume(c *fiber.Ctx) error {
	resumeID := c.Params("resumeId")
	if resumeID == "" {
		return response.ValidationError(c, "Resume ID is required", nil)
	}

	err := h.service.DeleteResume(c.Context(), middleware.GetUserID(c), resumeID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}
