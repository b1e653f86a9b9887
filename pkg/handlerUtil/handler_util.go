package handlerUtil

import (
	"FaceDetect/internal/api/face"
	"FaceDetect/pkg/imagecodec"
	"FaceDetect/pkg/log"
	"FaceDetect/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	if errors.Is(err, face.ErrInvalidImage) || errors.Is(err, imagecodec.ErrDecode) {
		h.logger.WithFields(fields).Warn("Invalid image data")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image data",
			"code":  "INVALID_IMAGE",
		})
	}

	if errors.Is(err, face.ErrInvalidBase64) || errors.Is(err, imagecodec.ErrBase64) {
		h.logger.WithFields(fields).Warn("Invalid base64 image")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid base64 image data",
			"code":  "INVALID_BASE64",
		})
	}

	if errors.Is(err, face.ErrFileNotImage) {
		h.logger.WithFields(fields).Warn("Invalid file type")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File must be an image",
			"code":  "INVALID_FILE_TYPE",
		})
	}

	if errors.Is(err, face.ErrDetectionNotFound) {
		h.logger.WithFields(fields).Warn("Detection not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Detection not found",
			"code":  "DETECTION_NOT_FOUND",
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		if respErr.Code >= fiber.StatusInternalServerError {
			traceID := log.NewTraceID(fields)
			h.logger.WithFields(fields).Error("Operation failed with error response")
			return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error(), "trace_id": traceID})
		}
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	traceID := log.NewTraceID(fields)
	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":    "An unexpected error occurred",
		"trace_id": traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
		"error": utils.StatusMessage(fiber.StatusRequestTimeout),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
