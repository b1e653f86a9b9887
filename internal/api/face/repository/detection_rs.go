package faceRepository

import (
	"FaceDetect/internal/api/face"
	"FaceDetect/internal/entity"
	"FaceDetect/pkg/facepipeline"
	contextPkg "FaceDetect/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type FaceDetectionDB struct {
	ID               string         `db:"id"`
	Source           string         `db:"source"`
	OriginalFilename sql.NullString `db:"original_filename"`
	SavedPath        sql.NullString `db:"saved_path"`
	FacesDetected    int            `db:"faces_detected"`
	Faces            []byte         `db:"faces"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (d FaceDetectionDB) toEntity() (entity.FaceDetectionRecord, error) {
	faces := []facepipeline.Detection{}
	if len(d.Faces) > 0 {
		if err := jsoniter.Unmarshal(d.Faces, &faces); err != nil {
			return entity.FaceDetectionRecord{}, err
		}
	}

	return entity.FaceDetectionRecord{
		ID:               d.ID,
		Source:           entity.DetectionSource(d.Source),
		OriginalFilename: d.OriginalFilename.String,
		SavedPath:        d.SavedPath.String,
		FacesDetected:    d.FacesDetected,
		Faces:            faces,
		CreatedAt:        d.CreatedAt,
	}, nil
}

func (r *detectionRepository) CreateDetection(c context.Context, record entity.FaceDetectionRecord) error {
	requestID := contextPkg.GetRequestID(c)

	faces := record.Faces
	if faces == nil {
		faces = []facepipeline.Detection{}
	}
	facesJSON, err := jsoniter.Marshal(faces)
	if err != nil {
		return err
	}

	argsKV := map[string]interface{}{
		"id":                record.ID,
		"source":            string(record.Source),
		"original_filename": sql.NullString{String: record.OriginalFilename, Valid: record.OriginalFilename != ""},
		"saved_path":        sql.NullString{String: record.SavedPath, Valid: record.SavedPath != ""},
		"faces_detected":    record.FacesDetected,
		"faces":             string(facesJSON),
		"created_at":        record.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateDetection, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateDetection")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating detection")
		return err
	}

	return nil
}

func (r *detectionRepository) GetDetectionByID(c context.Context, id string) (entity.FaceDetectionRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetDetectionByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetectionByID named query preparation err")
		return entity.FaceDetectionRecord{}, err
	}
	query = r.q.Rebind(query)

	var row FaceDetectionDB
	if err := r.q.GetContext(c, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.FaceDetectionRecord{}, face.ErrDetectionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"id":         id,
		}).Error("Database error when getting detection")
		return entity.FaceDetectionRecord{}, err
	}

	return row.toEntity()
}

func (r *detectionRepository) ListDetections(c context.Context, limit int) ([]entity.FaceDetectionRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryListDetections, map[string]interface{}{"limit": limit})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListDetections named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []FaceDetectionDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing detections")
		return nil, err
	}

	records := make([]entity.FaceDetectionRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *detectionRepository) DeleteDetection(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteDetection, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteDetection named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"id":         id,
		}).Error("Database error when deleting detection")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return face.ErrDetectionNotFound
	}

	return nil
}
