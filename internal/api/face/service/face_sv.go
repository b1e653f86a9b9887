package faceService

import (
	"FaceDetect/internal/api/face"
	"FaceDetect/internal/entity"
	contextPkg "FaceDetect/pkg/context"
	"FaceDetect/pkg/facepipeline"
	"FaceDetect/pkg/imagecodec"
	"FaceDetect/pkg/redis"
	"FaceDetect/pkg/response"
	"FaceDetect/pkg/storage"
	"FaceDetect/pkg/utils"
	"errors"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type detectionOutcome struct {
	faces     []facepipeline.Detection
	annotated *string
	width     int
	height    int
}

func (s *faceService) DetectFromUpload(ctx context.Context, file *multipart.FileHeader) (*face.DetectFacesResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := s.utils.ValidateImageFile(file); err != nil {
		return nil, uploadError(err)
	}

	data, err := s.utils.ReadFile(file)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"file_name":  file.Filename,
		}).Warn("Failed to read uploaded file")
		return nil, uploadError(err)
	}

	outcome, err := s.process(ctx, data, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	savedPath, err := s.storage.Save(ctx, storage.FileName(now, file.Filename), data, file.Header.Get("Content-Type"))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"file_name":  file.Filename,
		}).Error("Failed to store uploaded image")
		return nil, response.Wrap(face.ErrStoreUpload, err)
	}

	detectionID := s.recordDetection(ctx, entity.FaceDetectionRecord{
		Source:           entity.DetectionSourceUpload,
		OriginalFilename: file.Filename,
		SavedPath:        savedPath,
		FacesDetected:    len(outcome.faces),
		Faces:            outcome.faces,
		CreatedAt:        now,
	})

	return &face.DetectFacesResponse{
		Success:          true,
		FacesDetected:    len(outcome.faces),
		Faces:            outcome.faces,
		AnnotatedImage:   outcome.annotated,
		OriginalFilename: file.Filename,
		SavedFilename:    savedPath,
		DetectionID:      detectionID,
	}, nil
}

func (s *faceService) DetectFromBase64(ctx context.Context, image string) (*face.DetectFacesResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	data, err := imagecodec.DecodeDataURL(image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to decode base64 image")
		return nil, response.Wrap(face.ErrInvalidBase64, err)
	}

	if int64(len(data)) > s.utils.MaxFileSize() {
		return nil, face.ErrFileTooLarge
	}

	outcome, err := s.process(ctx, data, true)
	if err != nil {
		return nil, err
	}

	detectionID := s.recordDetection(ctx, entity.FaceDetectionRecord{
		Source:        entity.DetectionSourceBase64,
		FacesDetected: len(outcome.faces),
		Faces:         outcome.faces,
		CreatedAt:     time.Now(),
	})

	return &face.DetectFacesResponse{
		Success:        true,
		FacesDetected:  len(outcome.faces),
		Faces:          outcome.faces,
		AnnotatedImage: outcome.annotated,
		DetectionID:    detectionID,
	}, nil
}

func (s *faceService) DetectFrame(ctx context.Context, frame []byte) (*face.FrameResponse, error) {
	outcome, err := s.process(ctx, frame, false)
	if err != nil {
		return nil, err
	}

	return &face.FrameResponse{
		FacesDetected: len(outcome.faces),
		Faces:         outcome.faces,
		Width:         outcome.width,
		Height:        outcome.height,
	}, nil
}

// process runs decode, detect, annotate, encode. Only a decode failure is
// returned; a failed encode leaves annotated nil.
func (s *faceService) process(ctx context.Context, data []byte, annotate bool) (*detectionOutcome, error) {
	requestID := contextPkg.GetRequestID(ctx)

	img, err := imagecodec.DecodeWithLimit(data, s.maxPixels)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"size":       len(data),
		}).Warn("Failed to decode image")
		return nil, response.Wrap(face.ErrInvalidImage, err)
	}

	faces := s.detect(ctx, data, img)

	outcome := &detectionOutcome{
		faces:  faces,
		width:  img.Width,
		height: img.Height,
	}

	if !annotate {
		return outcome, nil
	}

	annotated := s.pipeline.Annotate(img, faces)
	encoded, err := imagecodec.EncodeBase64(annotated)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Error converting image to base64")
		return outcome, nil
	}
	outcome.annotated = &encoded

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"faces":      len(faces),
		"width":      img.Width,
		"height":     img.Height,
	}).Debug("Face detection completed")

	return outcome, nil
}

// uploadError maps file validation failures onto their HTTP errors.
func uploadError(err error) error {
	switch {
	case errors.Is(err, utils.ErrMissingFile):
		return response.Wrap(face.ErrMissingImage, err)
	case errors.Is(err, utils.ErrFileTooLarge):
		return response.Wrap(face.ErrFileTooLarge, err)
	case errors.Is(err, utils.ErrNotImage):
		return response.Wrap(face.ErrFileNotImage, err)
	default:
		return err
	}
}

func (s *faceService) detect(ctx context.Context, data []byte, img *imagecodec.PixelImage) []facepipeline.Detection {
	if s.cache == nil {
		return s.pipeline.Detect(ctx, img)
	}

	requestID := contextPkg.GetRequestID(ctx)
	key := redis.CacheKey(data, s.model.ModelSelection, s.model.MinDetectionConfidence)

	faces, ok, err := s.cache.GetDetections(ctx, key)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Detection cache read failed")
	}
	if ok {
		return faces
	}

	faces = s.pipeline.Detect(ctx, img)

	// Empty results are not cached: they are indistinguishable from a
	// degraded detector call.
	if len(faces) > 0 {
		if err := s.cache.SetDetections(ctx, key, faces); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Detection cache write failed")
		}
	}

	return faces
}
