package handlerUtil

import (
	"errors"

	"DetectionViewer/internal/api/visualize"
	"DetectionViewer/pkg/log"
	"DetectionViewer/pkg/response"
	"DetectionViewer/pkg/utils"

	"github.com/gofiber/fiber/v2"
	fiberUtils "github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// codes is checked in order; the first match wins.
var codes = []struct {
	target error
	code   string
}{
	{visualize.ErrValidation, "NO_FILE_SELECTED"},
	{visualize.ErrInvalidUpload, "INVALID_UPLOAD"},
	{visualize.ErrTransport, "TRANSPORT_ERROR"},
	{visualize.ErrProcessing, "PROCESSING_ERROR"},
	{visualize.ErrStaleSubmission, "STALE_SUBMISSION"},
	{visualize.ErrImageLoad, "IMAGE_LOAD_ERROR"},
	{visualize.ErrRender, "RENDER_ERROR"},
	{visualize.ErrRequestTimeout, "REQUEST_TIMEOUT"},
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	// Upload checks run before the service sees the file.
	if errors.Is(err, utils.ErrNoFile) {
		h.logger.WithFields(fields).Warn("No file uploaded")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: visualize.ErrValidation.Error(),
			Code:  "NO_FILE_SELECTED",
		})
	}

	if errors.Is(err, utils.ErrFileTooLarge) {
		h.logger.WithFields(fields).Warn("File too large")
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{
			Error: "File too large",
			Code:  "FILE_TOO_LARGE",
		})
	}

	if errors.Is(err, utils.ErrNotAnImage) || errors.Is(err, utils.ErrExtensionBlocked) {
		h.logger.WithFields(fields).Warn("Invalid file type")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Invalid file type. Only images are allowed.",
			Code:    "INVALID_FILE_TYPE",
			Details: err.Error(),
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		if respErr.Code >= fiber.StatusInternalServerError {
			h.logger.WithFields(fields).Error("Operation failed with error response")
		} else {
			h.logger.WithFields(fields).Warn("Operation failed with error response")
		}
		return c.Status(respErr.Code).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  codeFor(err),
		})
	}

	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: "An unexpected error occurred",
	})
}

func codeFor(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return ""
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(fiberUtils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
