package config

import (
	"FaceDetect/database/postgres"
	"FaceDetect/internal/api/face"
	faceHandler "FaceDetect/internal/api/face/handler"
	faceRepository "FaceDetect/internal/api/face/repository"
	faceService "FaceDetect/internal/api/face/service"
	"FaceDetect/internal/middleware"
	"FaceDetect/pkg/facepipeline"
	"FaceDetect/pkg/gemini"
	"FaceDetect/pkg/redis"
	"FaceDetect/pkg/s3"
	"FaceDetect/pkg/storage"
	"FaceDetect/pkg/utils"
	websocketPkg "FaceDetect/pkg/websocket"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	storage     storage.IStorage
	detector    facepipeline.Detector
	detectorCfg DetectorConfig
	closers     []func()
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("face detector is required")
	}
	if server.storage == nil {
		return nil, fmt.Errorf("upload storage is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New(MaxUploadSize())
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, middleware.Config{})
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase enables detection history. An unconfigured database is not an
// error; the history routes answer 503 instead.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if errors.Is(err, postgres.ErrNotConfigured) {
			if s.log != nil {
				s.log.Warn("DB_HOST not set, detection history disabled")
			}
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		s.closers = append(s.closers, func() { _ = db.Close() })
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		if redisServer == nil {
			return nil
		}
		s.redisServer = redisServer
		s.closers = append(s.closers, func() { _ = redisServer.Close() })
		return nil
	}
}

// WithDetector builds the configured detector backend. The websocket backend
// connects in the background so boot does not wait for the model service.
func WithDetector(cfg DetectorConfig) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before detector")
		}

		s.detectorCfg = cfg

		switch cfg.Backend {
		case BackendGemini:
			client, err := gemini.NewGeminiClient(cfg.MinDetectionConfidence)
			if err != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			s.detector = client
			s.closers = append(s.closers, client.Close)
		case BackendWebsocket:
			model := websocketPkg.NewFaceModelClient(websocketPkg.Config{
				URL:                    cfg.URL,
				ModelSelection:         cfg.ModelSelection,
				MinDetectionConfidence: cfg.MinDetectionConfidence,
			}, s.log)
			websocketPkg.ConnectInBackground(model, s.log)
			s.detector = model
			s.closers = append(s.closers, model.Close)
		default:
			return fmt.Errorf("unknown detector backend %q", cfg.Backend)
		}

		s.log.WithFields(logrus.Fields{
			"backend":                  cfg.Backend,
			"model_selection":          cfg.ModelSelection,
			"min_detection_confidence": cfg.MinDetectionConfidence,
		}).Info("Face detector configured")

		return nil
	}
}

// WithDetectorInstance installs an already built detector.
func WithDetectorInstance(detector facepipeline.Detector, cfg DetectorConfig) ServerOption {
	return func(s *Server) error {
		s.detector = detector
		s.detectorCfg = cfg
		return nil
	}
}

// WithStorage selects the upload driver from STORAGE_DRIVER.
func WithStorage() ServerOption {
	return func(s *Server) error {
		driver := strings.ToLower(envOr("STORAGE_DRIVER", "local"))

		switch driver {
		case "s3":
			client, err := s3.New()
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to initialize S3 client: %v", err)
				}
				return fmt.Errorf("failed to create S3 client: %w", err)
			}
			s.storage = client
		case "local":
			local, err := storage.NewLocal(os.Getenv("UPLOAD_DIR"))
			if err != nil {
				return fmt.Errorf("failed to create local storage: %w", err)
			}
			s.storage = local
		default:
			return fmt.Errorf("unknown storage driver %q", driver)
		}

		return nil
	}
}

func WithStorageInstance(store storage.IStorage) ServerOption {
	return func(s *Server) error {
		s.storage = store
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Config{
			AllowOrigins: os.Getenv("CORS_ALLOW_ORIGINS"),
		})
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New(MaxUploadSize())
		return nil
	}
}

func (s *Server) RegisterHandler() {
	pipeline := facepipeline.New(s.detector, s.log)

	opts := []faceService.Option{
		faceService.WithCache(s.redisServer),
		faceService.WithMaxImagePixels(MaxImagePixels()),
	}
	if s.db != nil {
		opts = append(opts, faceService.WithRepository(faceRepository.New(s.db, s.log)))
	}

	faceServices := faceService.NewFaceService(s.log, pipeline, s.storage, s.utils, faceService.ModelConfig{
		ModelSelection:         s.detectorCfg.ModelSelection,
		MinDetectionConfidence: s.detectorCfg.MinDetectionConfidence,
	}, opts...)
	faceHandlers := faceHandler.New(s.log, s.validator, s.middleware, faceServices)

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewCORSMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()
	s.handlers = append(s.handlers, faceHandlers)

	// Routes live at the root and again under /api/v1 for older clients.
	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(s.engine)
		h.Start(router)
	}
}

func (s *Server) Run() error {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops the listener and releases detector, cache and database.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Face Detection API is running!",
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(face.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().Format(time.RFC3339),
			Detector:  s.detectorCfg.Backend,
		})
	})
}
