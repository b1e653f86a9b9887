package faceService

import (
	"FaceDetect/internal/api/face"
	"FaceDetect/internal/entity"
	contextPkg "FaceDetect/pkg/context"
	"FaceDetect/pkg/storage"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const defaultHistoryLimit = 20

// recordDetection stores a history row and returns its id. History is best
// effort: failures are logged and yield an empty id.
func (s *faceService) recordDetection(ctx context.Context, record entity.FaceDetectionRecord) string {
	if s.repository == nil {
		return ""
	}

	requestID := contextPkg.GetRequestID(ctx)

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return ""
	}
	record.ID = id

	repo, err := s.repository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return ""
	}

	if err := repo.Detection.CreateDetection(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to record detection")
		return ""
	}

	return id
}

func (s *faceService) GetDetectionByID(ctx context.Context, id string) (entity.FaceDetectionRecord, error) {
	if s.repository == nil {
		return entity.FaceDetectionRecord{}, face.ErrHistoryDisabled
	}

	repo, err := s.repository.NewClient(false)
	if err != nil {
		return entity.FaceDetectionRecord{}, err
	}

	record, err := repo.Detection.GetDetectionByID(ctx, id)
	if err != nil {
		return entity.FaceDetectionRecord{}, err
	}

	s.attachSavedURL(ctx, &record)
	return record, nil
}

func (s *faceService) ListDetections(ctx context.Context, limit int) ([]entity.FaceDetectionRecord, error) {
	if s.repository == nil {
		return nil, face.ErrHistoryDisabled
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	repo, err := s.repository.NewClient(false)
	if err != nil {
		return nil, err
	}

	records, err := repo.Detection.ListDetections(ctx, limit)
	if err != nil {
		return nil, err
	}

	for i := range records {
		s.attachSavedURL(ctx, &records[i])
	}
	return records, nil
}

// DeleteDetection removes the history row first, then the stored upload.
// A leftover upload is logged; the row is already gone.
func (s *faceService) DeleteDetection(ctx context.Context, id string) error {
	if s.repository == nil {
		return face.ErrHistoryDisabled
	}

	repo, err := s.repository.NewClient(false)
	if err != nil {
		return err
	}

	record, err := repo.Detection.GetDetectionByID(ctx, id)
	if err != nil {
		return err
	}

	if err := repo.Detection.DeleteDetection(ctx, id); err != nil {
		return err
	}

	remover, ok := s.storage.(storage.Remover)
	if !ok || record.SavedPath == "" {
		return nil
	}

	if err := remover.DeleteFile(record.SavedPath); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
			"saved_path": record.SavedPath,
		}).Warn("Failed to delete stored upload")
	}

	return nil
}

// attachSavedURL fills SavedURL for drivers that hand out presigned links.
func (s *faceService) attachSavedURL(ctx context.Context, record *entity.FaceDetectionRecord) {
	presigner, ok := s.storage.(storage.Presigner)
	if !ok || record.SavedPath == "" {
		return
	}

	link, err := presigner.PresignUrl(record.SavedPath)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
			"saved_path": record.SavedPath,
		}).Warn("Failed to presign stored upload")
		return
	}

	record.SavedURL = link
}
