package faceHandler

import (
	faceService "FaceDetect/internal/api/face/service"
	"FaceDetect/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type FaceHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	faceService faceService.IFaceService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	fs faceService.IFaceService,
) *FaceHandler {
	return &FaceHandler{
		faceService: fs,
		log:         log,
		validator:   validator,
		middleware:  middleware,
	}
}

func (h *FaceHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/detect-faces", h.middleware.NewRateLimiter, h.DetectFaces)
	srv.Post("/detect-faces-base64", h.middleware.NewRateLimiter, h.DetectFacesBase64)

	face := srv.Group("/face")
	face.Use("/ws", wsMiddleware)
	face.Get("/ws", websocket.New(h.handleWebSocket))

	srv.Get("/detections", h.ListDetections)
	srv.Get("/detections/:id", h.GetDetection)
	srv.Delete("/detections/:id", h.DeleteDetection)
}
