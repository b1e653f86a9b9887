package faceService

import (
	"FaceDetect/internal/api/face"
	faceRepository "FaceDetect/internal/api/face/repository"
	"FaceDetect/internal/entity"
	"FaceDetect/pkg/facepipeline"
	"FaceDetect/pkg/imagecodec"
	"FaceDetect/pkg/redis"
	"FaceDetect/pkg/storage"
	"FaceDetect/pkg/utils"
	"mime/multipart"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Pipeline is the part of facepipeline.Pipeline the service drives.
type Pipeline interface {
	Detect(ctx context.Context, img *imagecodec.PixelImage) []facepipeline.Detection
	Annotate(img *imagecodec.PixelImage, faces []facepipeline.Detection) *imagecodec.PixelImage
}

type IFaceService interface {
	DetectFromUpload(ctx context.Context, file *multipart.FileHeader) (*face.DetectFacesResponse, error)
	DetectFromBase64(ctx context.Context, image string) (*face.DetectFacesResponse, error)
	DetectFrame(ctx context.Context, frame []byte) (*face.FrameResponse, error)
	GetDetectionByID(ctx context.Context, id string) (entity.FaceDetectionRecord, error)
	ListDetections(ctx context.Context, limit int) ([]entity.FaceDetectionRecord, error)
	DeleteDetection(ctx context.Context, id string) error
	HistoryEnabled() bool
}

// ModelConfig identifies the detector settings in cache keys.
type ModelConfig struct {
	ModelSelection         int
	MinDetectionConfidence float64
}

type faceService struct {
	log        *logrus.Logger
	pipeline   Pipeline
	storage    storage.IStorage
	cache      redis.IRedis
	repository faceRepository.Repository
	utils      utils.IUtils
	model      ModelConfig
	maxPixels  int64
}

type Option func(*faceService)

// WithCache enables the result cache; a nil cache leaves it disabled.
func WithCache(cache redis.IRedis) Option {
	return func(s *faceService) {
		s.cache = cache
	}
}

// WithRepository enables detection history; a nil repository leaves it
// disabled.
func WithRepository(repo faceRepository.Repository) Option {
	return func(s *faceService) {
		s.repository = repo
	}
}

// WithMaxImagePixels bounds decoded image size; zero keeps the codec default.
func WithMaxImagePixels(maxPixels int64) Option {
	return func(s *faceService) {
		if maxPixels > 0 {
			s.maxPixels = maxPixels
		}
	}
}

func NewFaceService(
	log *logrus.Logger,
	pipeline Pipeline,
	storage storage.IStorage,
	utils utils.IUtils,
	model ModelConfig,
	opts ...Option,
) IFaceService {
	s := &faceService{
		log:       log,
		pipeline:  pipeline,
		storage:   storage,
		utils:     utils,
		model:     model,
		maxPixels: imagecodec.DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *faceService) HistoryEnabled() bool {
	return s.repository != nil
}
