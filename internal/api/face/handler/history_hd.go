package faceHandler

import (
	"FaceDetect/internal/api/face"
	"FaceDetect/internal/entity"
	contextPkg "FaceDetect/pkg/context"
	"FaceDetect/pkg/handlerUtil"
	"FaceDetect/pkg/log"

	"github.com/gofiber/fiber/v2"
)

func (h *FaceHandler) ListDetections(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var query face.ListDetectionsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	records, err := h.faceService.ListDetections(contextPkg.FromFiberCtx(ctx), query.Limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_detections")
	}

	data := make([]face.DetectionRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, toRecordResponse(record))
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"count":      len(data),
	}).Debug("Listed detections")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"detections": data})
}

func (h *FaceHandler) GetDetection(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	record, err := h.faceService.GetDetectionByID(contextPkg.FromFiberCtx(ctx), ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_detection")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, toRecordResponse(record))
}

func (h *FaceHandler) DeleteDetection(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	if err := h.faceService.DeleteDetection(contextPkg.FromFiberCtx(ctx), ctx.Params("id")); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_detection")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"id":         ctx.Params("id"),
	}).Info("Detection deleted")

	return errHandler.HandleSuccess(ctx, fiber.StatusNoContent, nil)
}

func toRecordResponse(record entity.FaceDetectionRecord) face.DetectionRecordResponse {
	return face.DetectionRecordResponse{
		ID:               record.ID,
		Source:           string(record.Source),
		OriginalFilename: record.OriginalFilename,
		SavedPath:        record.SavedPath,
		SavedURL:         record.SavedURL,
		FacesDetected:    record.FacesDetected,
		Faces:            record.Faces,
		CreatedAt:        record.CreatedAt,
	}
}
