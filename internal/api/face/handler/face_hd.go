package faceHandler

import (
	"FaceDetect/internal/api/face"
	contextPkg "FaceDetect/pkg/context"
	"FaceDetect/pkg/handlerUtil"
	"FaceDetect/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const detectTimeout = 30 * time.Second

func (h *FaceHandler) DetectFaces(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), detectTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	file, err := ctx.FormFile("file")
	if err != nil {
		return errHandler.Handle(ctx, requestID, face.ErrMissingImage, ctx.Path(), "read_form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing face detection upload")

	result, err := h.faceService.DetectFromUpload(c, file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_faces")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":     requestID,
			"path":           ctx.Path(),
			"faces_detected": result.FacesDetected,
			"saved_filename": result.SavedFilename,
		}).Info("Face detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *FaceHandler) DetectFacesBase64(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), detectTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req face.DetectBase64Request
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.faceService.DetectFromBase64(c, req.Image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect_faces_base64")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":     requestID,
			"path":           ctx.Path(),
			"faces_detected": result.FacesDetected,
		}).Info("Face detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}
